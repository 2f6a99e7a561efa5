package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("placement", &buf, WARN)

	l.Info("не попадёт")
	l.Warn("ячейка %d занята", 7)

	out := buf.String()
	assert.NotContains(t, out, "не попадёт")
	assert.Contains(t, out, "[WARN] [placement] ячейка 7 занята")
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, DEBUG, level)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestLoggerManager_ReusesComponentLogger(t *testing.T) {
	lm := &LoggerManager{loggers: make(map[string]*Logger), level: INFO}
	a, err := lm.GetLogger("api")
	require.NoError(t, err)
	b, err := lm.GetLogger("api")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, INFO, a.minConsoleLevel)

	lm.SetLevel(ERROR)
	assert.Equal(t, ERROR, a.minConsoleLevel)
	c, err := lm.GetLogger("history")
	require.NoError(t, err)
	assert.Equal(t, ERROR, c.minConsoleLevel, "новые компоненты получают текущий уровень")

	assert.NoError(t, lm.CloseAll())
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() { l.Info("ничего") })
}
