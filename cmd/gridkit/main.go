package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/gridkit/internal/api"
	"github.com/annel0/gridkit/internal/area"
	"github.com/annel0/gridkit/internal/buildable"
	"github.com/annel0/gridkit/internal/camera"
	"github.com/annel0/gridkit/internal/config"
	"github.com/annel0/gridkit/internal/eventbus"
	"github.com/annel0/gridkit/internal/footprint"
	"github.com/annel0/gridkit/internal/history"
	"github.com/annel0/gridkit/internal/logging"
	"github.com/annel0/gridkit/internal/observability"
	"github.com/annel0/gridkit/internal/placement"
	"github.com/annel0/gridkit/internal/terrain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию GRIDKIT_CONFIG)")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	if err := logging.InitDefaultLogger("gridkit", cfg.Log.Dir); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	level, _ := cfg.Log.LogLevel()
	logging.SetDefaultLevel(level)
	logging.Info("🧱 Запуск gridkit: сеток %d, типов объектов %d, зон %d",
		len(cfg.Grids), len(cfg.Descriptors), len(cfg.Areas))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// === ТЕЛЕМЕТРИЯ ===
	if cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTelemetry(ctx, observability.TelemetryOptions{
			ServiceName: cfg.Telemetry.ServiceName,
			Endpoint:    cfg.Telemetry.Endpoint,
			Insecure:    cfg.Telemetry.Insecure,
		})
		if err != nil {
			logging.Warn("OpenTelemetry недоступен: %v", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	// === ШИНА СОБЫТИЙ ===
	capacity := cfg.EventBus.Capacity
	if capacity <= 0 {
		capacity = 256
	}
	bus := eventbus.NewMemoryBus(capacity)
	eventbus.Init(bus)
	defer bus.Close()

	if _, err := eventbus.StartLoggingListener(bus); err != nil {
		logging.Warn("Логирование событий недоступно: %v", err)
	}
	exporter := eventbus.NewMetricsExporter(bus, prometheus.DefaultRegisterer)
	exporter.Start()
	defer exporter.Stop()

	// === РАЗМЕЩЕНИЕ ===
	manager, limiter, err := buildManager(cfg, bus)
	if err != nil {
		logging.Error("❌ Ошибка инициализации сеток: %v", err)
		os.Exit(1)
	}
	hist := history.New(manager, cfg.Placement.HistoryLimit)

	// === HTTP ===
	rest := api.NewRestServer(api.Config{
		Addr:        fmt.Sprintf(":%d", cfg.Server.GetAPIPort()),
		ServiceName: cfg.Telemetry.ServiceName,
		Manager:     manager,
		History:     hist,
		Camera:      limiter,
		Drag: footprint.ShapeOptions{
			EndpointsOnly: cfg.Placement.EndpointsOnly,
			MaxCount:      cfg.Placement.MaxBoxObjects,
		},
	})

	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.GetMetricsPort()),
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() { errCh <- rest.Start() }()
	go func() {
		logging.Info("📈 Prometheus метрики: http://localhost%s/metrics", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	logging.Info("✅ gridkit готов: REST API http://localhost:%d, активная сетка %s",
		cfg.Server.GetAPIPort(), manager.ActiveGrid())

	select {
	case <-ctx.Done():
		logging.Info("📡 Получен сигнал завершения, остановка...")
	case err := <-errCh:
		if err != nil {
			logging.Error("❌ HTTP сервер остановлен с ошибкой: %v", err)
		}
	}

	// === GRACEFUL SHUTDOWN ===
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rest.Stop(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки REST API: %v", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки сервера метрик: %v", err)
	}
	logging.Info("👋 gridkit остановлен")
}

// buildManager собирает менеджер размещения со всеми оракулами из конфигурации
func buildManager(cfg *config.Config, bus eventbus.EventBus) (*placement.Manager, *camera.Limiter, error) {
	registry, err := cfg.Registry()
	if err != nil {
		return nil, nil, err
	}
	areas, err := area.NewSet(cfg.Areas...)
	if err != nil {
		return nil, nil, err
	}

	scene := terrain.NewScene(terrain.NewHeightmap(cfg.Terrain))
	for _, spec := range cfg.Grids {
		scene.AddGridSurface(spec)
	}

	limiter := camera.NewLimiter(cfg.Placement.CameraMode, cfg.Placement.MaxDistance)
	destroyer := placement.DestroyerFunc(func(obj *buildable.Object) bool {
		return obj.Descriptor.Is(buildable.FlagDestructible) || obj.Descriptor.Is(buildable.FlagReplaceable)
	})

	opts := []placement.Option{
		placement.WithSurface(scene),
		placement.WithAreaModifiers(areas),
		placement.WithDistanceChecker(limiter),
		placement.WithDestroyer(destroyer),
		placement.WithEventBus(bus),
		placement.WithMetrics(observability.NewPlacementMetrics(nil)),
	}
	if n := cfg.Placement.MaxPathObjects; n > 0 {
		opts = append(opts, placement.WithMaxPathObjects(n))
	}
	manager := placement.NewManager(registry, opts...)
	for _, spec := range cfg.Grids {
		if err := manager.RegisterGrid(spec); err != nil {
			return nil, nil, err
		}
	}
	if err := manager.Finalize(); err != nil {
		return nil, nil, err
	}
	return manager, limiter, nil
}
