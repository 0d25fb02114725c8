package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roman-kulish/wifi-surveillance/internal/capture"
	"github.com/roman-kulish/wifi-surveillance/internal/capture/tcpdump"
	"github.com/roman-kulish/wifi-surveillance/internal/capture/tshark"
	"github.com/roman-kulish/wifi-surveillance/internal/engine"
	"github.com/roman-kulish/wifi-surveillance/internal/observability"
	"github.com/roman-kulish/wifi-surveillance/internal/storage"
	"github.com/roman-kulish/wifi-surveillance/internal/wifi"
)

const (
	storageDir = "data"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	store, err := createStorage(&config.Storage)
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}
	defer store.Close()

	var metrics *observability.Metrics
	if config.Settings.MetricsListenAddr != "" {
		metrics = observability.NewMetrics()
		go serveMetrics(config.Settings.MetricsListenAddr, logger)
	}

	device, driverConfig, err := createDevice(&config.Capture, logger)
	if err != nil {
		return fmt.Errorf("failed to create capture device: %w", err)
	}

	eng := engine.New(
		engine.WithLogger(logger),
		engine.WithMetrics(metrics),
		engine.WithDiscoveryFunc(func(station wifi.Station, uncovered bool) {
			if uncovered {
				logger.Warn("hidden network uncovered",
					slog.String("ssid", station.SSID),
					slog.String("stationID", station.ID))
			}
		}),
	)

	orchestrator := NewOrchestrator(device, eng, store, logger,
		WithMaxBatchSize(config.Storage.MaxBatchSize),
		WithFlushInterval(time.Duration(config.Storage.FlushInterval)),
		WithMetrics(metrics),
		WithSessionInfo(config.Capture.Interface(), string(config.Capture.Driver), driverConfig),
	)

	return orchestrator.Run(ctx)
}

func createDevice(config *CaptureConfig, logger *slog.Logger) (*capture.Device, any, error) {
	var handler capture.Handler
	var driverConfig any
	var err error

	switch config.Driver {
	case DriverTshark:
		if handler, err = tshark.New(config.Tshark); err != nil {
			return nil, nil, fmt.Errorf("creating tshark device: %w", err)
		}
		driverConfig = config.Tshark

	case DriverTcpdump:
		if handler, err = tcpdump.New(config.Tcpdump); err != nil {
			return nil, nil, fmt.Errorf("creating tcpdump device: %w", err)
		}
		driverConfig = config.Tcpdump

	default:
		return nil, nil, fmt.Errorf("creating device: unknown driver '%s'", config.Driver)
	}

	return capture.NewDevice(config.Interface(), handler, capture.WithLogger(logger)), driverConfig, nil
}

func createStorage(config *StorageConfig) (*storage.SqliteStore, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current working directory: %w", err)
	}

	var dbPath string
	if config.DataDirectory != "" {
		dbPath = filepath.Join(wd, config.DataDirectory)
	} else {
		dbPath = filepath.Join(wd, storageDir)
	}

	stat, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("storage directory '%s' does not exist: %w", dbPath, err)
		}
		return nil, fmt.Errorf("invalid storage directory '%s': %w", dbPath, err)
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("invalid storage directory '%s'", dbPath)
	}

	dbPath = filepath.Join(dbPath, fmt.Sprintf("wifi_session_%s.sqlite", time.Now().UTC().Format("20060102_150405")))
	return storage.NewSqliteStore(dbPath), nil
}

func serveMetrics(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	logger.Info("metrics endpoint listening", slog.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error(fmt.Sprintf("metrics endpoint failed: %s", err.Error()))
	}
}
