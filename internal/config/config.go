package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/annel0/gridkit/internal/area"
	"github.com/annel0/gridkit/internal/buildable"
	"github.com/annel0/gridkit/internal/camera"
	"github.com/annel0/gridkit/internal/grid"
	"github.com/annel0/gridkit/internal/logging"
	"github.com/annel0/gridkit/internal/terrain"
	"github.com/annel0/gridkit/internal/vec"
	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения.
type Config struct {
	Log         LogConfig               `yaml:"log"`
	Grids       []grid.Spec             `yaml:"grids"`
	Descriptors []*buildable.Descriptor `yaml:"descriptors"`
	Areas       []area.Modifier         `yaml:"areas"`
	Placement   PlacementConfig         `yaml:"placement"`
	Terrain     terrain.Config          `yaml:"terrain"`
	EventBus    EventBusConfig          `yaml:"eventbus"`
	Server      ServerConfig            `yaml:"server"`
	Telemetry   TelemetryConfig         `yaml:"telemetry"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

type PlacementConfig struct {
	MaxBoxObjects  int         `yaml:"max_box_objects"`
	MaxPathObjects int         `yaml:"max_path_objects"` // 0 – предел менеджера по умолчанию
	EndpointsOnly  bool        `yaml:"endpoints_only"`
	MaxDistance    float64     `yaml:"max_distance"`
	CameraMode     camera.Mode `yaml:"camera_mode"`
	HistoryLimit   int         `yaml:"history_limit"`
}

type EventBusConfig struct {
	Capacity int `yaml:"capacity"`
}

type ServerConfig struct {
	APIPort     int `yaml:"api_port"`
	MetricsPort int `yaml:"metrics_port"`
}

// TelemetryConfig настройки OTLP трассировки
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	Endpoint    string `yaml:"endpoint"` // host:port, по умолчанию localhost:4318
	Insecure    bool   `yaml:"insecure"`
}

// GetAPIPort возвращает порт API с поддержкой fallback значений
func (s *ServerConfig) GetAPIPort() int {
	return getPortWithEnvFallback(s.APIPort, "GRIDKIT_API_PORT", 8088)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "GRIDKIT_METRICS_PORT", 2112)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	// Используем дефолтное значение
	return defaultPort
}

// LogLevel возвращает уровень логирования (INFO, если не задан)
func (l LogConfig) LogLevel() (logging.LogLevel, error) {
	if l.Level == "" {
		return logging.INFO, nil
	}
	return logging.ParseLevel(l.Level)
}

// Validate проверяет конфигурацию целиком
func (c *Config) Validate() error {
	if _, err := c.Log.LogLevel(); err != nil {
		return err
	}
	if len(c.Grids) == 0 {
		return fmt.Errorf("не задано ни одной сетки")
	}
	names := make(map[string]struct{}, len(c.Grids))
	for _, g := range c.Grids {
		if err := g.Validate(); err != nil {
			return err
		}
		if _, dup := names[g.Name]; dup {
			return fmt.Errorf("сетка %s описана дважды", g.Name)
		}
		names[g.Name] = struct{}{}
	}
	if _, err := c.Registry(); err != nil {
		return err
	}
	if _, err := area.NewSet(c.Areas...); err != nil {
		return err
	}
	if c.Placement.MaxBoxObjects < 0 {
		return fmt.Errorf("max_box_objects не может быть отрицательным")
	}
	if c.Placement.MaxPathObjects < 0 {
		return fmt.Errorf("max_path_objects не может быть отрицательным")
	}
	if c.Placement.MaxDistance < 0 {
		return fmt.Errorf("max_distance не может быть отрицательным")
	}
	if c.Placement.HistoryLimit < 0 {
		return fmt.Errorf("history_limit не может быть отрицательным")
	}
	return nil
}

// Registry собирает реестр типов объектов
func (c *Config) Registry() (*buildable.Registry, error) {
	reg := buildable.NewRegistry()
	for _, d := range c.Descriptors {
		if d == nil {
			continue
		}
		if err := reg.Register(d); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Default возвращает конфигурацию песочницы: одна сетка и базовый
// набор объектов
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		Grids: []grid.Spec{{
			Name:        "ground",
			Orientation: grid.Horizontal,
			Width:       32,
			Length:      32,
			CellSize:    1,
			Layers:      3,
			LayerHeight: 3,
		}},
		Descriptors: []*buildable.Descriptor{
			{ID: "house", Kind: grid.KindArea, Category: "buildings", Scale: vec.Vec3Float{X: 2, Y: 3, Z: 3},
				Flags:        buildable.FlagDestructible | buildable.FlagMovable | buildable.FlagSelectable,
				CustomValues: map[string]float64{"population": 4}},
			{ID: "grass", Kind: grid.KindArea, Category: "buildings", Scale: vec.Vec3Float{X: 1, Z: 1},
				Flags: buildable.FlagReplaceable | buildable.FlagDestructible},
			{ID: "wall", Kind: grid.KindEdge, Category: "walls", Scale: vec.Vec3Float{X: 1, Y: 3, Z: 0.2},
				Flags: buildable.FlagDestructible | buildable.FlagMovable | buildable.FlagSelectable},
			{ID: "pillar", Kind: grid.KindCorner, Category: "pillars", Scale: vec.Vec3Float{X: 0.3, Y: 3, Z: 0.3},
				Flags: buildable.FlagDestructible, VerticalSnap: buildable.SnapAuto, SnapThresholdPercent: 50},
			{ID: "tree", Kind: grid.KindFree, Category: "props", RotationType: buildable.FreeRotation, FreeRotationStep: 15,
				Flags: buildable.FlagDestructible | buildable.FlagMovable, CustomValues: map[string]float64{"beauty": 1}},
		},
		Placement: PlacementConfig{
			MaxBoxObjects:  64,
			MaxPathObjects: 256,
			MaxDistance:    40,
			CameraMode:     camera.TopDown,
			HistoryLimit:   100,
		},
		Terrain:   terrain.Config{Seed: 1, Amplitude: 0},
		EventBus:  EventBusConfig{Capacity: 256},
		Telemetry: TelemetryConfig{ServiceName: "gridkit"},
	}
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV GRIDKIT_CONFIG или возвращает nil, nil.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("GRIDKIT_CONFIG")
		if path == "" {
			return nil, nil // конфиг не задан – использовать дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("некорректная конфигурация %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadOrDefault читает конфигурацию или возвращает Default
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return Default(), nil
	}
	return cfg, nil
}
