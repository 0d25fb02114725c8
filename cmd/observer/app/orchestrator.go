package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/roman-kulish/wifi-surveillance/internal/capture"
	"github.com/roman-kulish/wifi-surveillance/internal/engine"
	"github.com/roman-kulish/wifi-surveillance/internal/observability"
	"github.com/roman-kulish/wifi-surveillance/internal/storage"
	"github.com/roman-kulish/wifi-surveillance/internal/wifi"
)

const (
	maxBatchSize  = 100
	flushInterval = 10 * time.Second

	eventsBufferSize = 256
)

// WithMaxBatchSize sets the maximum batch size of collected observations
// to store within a single database transaction.
func WithMaxBatchSize(size int) func(*Orchestrator) {
	return func(o *Orchestrator) {
		if size > 0 {
			o.maxBatchSize = size
		}
	}
}

// WithFlushInterval sets how often buffered observations are flushed to
// storage regardless of batch size.
func WithFlushInterval(interval time.Duration) func(*Orchestrator) {
	return func(o *Orchestrator) {
		if interval > 0 {
			o.flushInterval = interval
		}
	}
}

// WithMetrics sets the metrics sink for the orchestrator.
func WithMetrics(m *observability.Metrics) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithSessionInfo sets the interface, driver name and driver configuration
// recorded on the session row.
func WithSessionInfo(iface, driver string, config any) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.iface = iface
		o.driver = driver
		o.driverConfig = config
	}
}

// Orchestrator wires the capture device to the discovery engine and
// persists the session: signal observations stream into the observations
// table in batches, and the final station records are written when
// capture stops.
type Orchestrator struct {
	device *capture.Device
	engine *engine.Engine
	store  storage.Store

	logger  *slog.Logger
	metrics *observability.Metrics

	iface        string
	driver       string
	driverConfig any

	maxBatchSize  int
	flushInterval time.Duration

	sessionID int64
	batch     []storage.Observation
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(device *capture.Device, eng *engine.Engine, store storage.Store, logger *slog.Logger, options ...func(*Orchestrator)) *Orchestrator {
	o := Orchestrator{
		device:        device,
		engine:        eng,
		store:         store,
		logger:        logger,
		maxBatchSize:  maxBatchSize,
		flushInterval: flushInterval,
	}

	for _, option := range options {
		option(&o)
	}

	return &o
}

// Run begins the capture session and blocks until the context is
// cancelled or the capture device stops. Station records and any buffered
// observations are persisted before returning.
func (o *Orchestrator) Run(ctx context.Context) (err error) {
	o.sessionID, err = o.store.CreateSession(ctx, time.Now(), o.iface, o.driver, o.driverConfig)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}

	events := make(chan wifi.FrameEvent, eventsBufferSize)

	captureStopped, err := o.device.BeginCapture(ctx, events)
	if err != nil {
		return fmt.Errorf("starting capture: %w", err)
	}

	o.logger.Info("session started",
		slog.Int64("sessionID", o.sessionID),
		slog.String("iface", o.iface),
		slog.String("driver", o.driver))

	ticker := time.NewTicker(o.flushInterval)
	defer ticker.Stop()

	var captureErr error
	cancelled := ctx.Done()

loop:
	for {
		select {
		case <-cancelled:
			// Stop blocks until the decoder goroutines join, and a decoder
			// blocked sending into a full events channel only exits once the
			// channel drains. Stop on the side and keep consuming events
			// until the capture reports it has stopped.
			cancelled = nil
			go o.device.Stop()

		case captureErr = <-captureStopped:
			break loop

		case <-ticker.C:
			o.flush(ctx)

		case ev := <-events:
			o.handleEvent(ctx, ev)
		}
	}

	// Capture is down; consume whatever the decoder goroutines managed to
	// queue before the channel went idle.
	for {
		select {
		case ev := <-events:
			o.handleEvent(ctx, ev)
			continue
		default:
		}
		break
	}

	if err := o.finalize(); err != nil {
		o.logger.Error(err.Error())
		if captureErr == nil {
			captureErr = err
		}
	}

	return captureErr
}

func (o *Orchestrator) handleEvent(ctx context.Context, ev wifi.FrameEvent) {
	if err := o.engine.OnEvent(ev); err != nil {
		if errors.Is(err, engine.ErrMalformedEvent) {
			o.logger.Warn(err.Error(), slog.String("source", ev.Source))
			return
		}
		o.logger.Error(err.Error())
		return
	}

	o.batch = append(o.batch, storage.Observation{
		BSSID:     ev.StationID,
		Timestamp: ev.Timestamp,
		SignalDBM: ev.SignalDBM,
	})

	if len(o.batch) >= o.maxBatchSize {
		o.flush(ctx)
	}
}

func (o *Orchestrator) flush(ctx context.Context) {
	if len(o.batch) == 0 {
		return
	}

	start := time.Now()
	for chunk := range slices.Chunk(o.batch, o.maxBatchSize) {
		if err := o.store.StoreObservations(ctx, o.sessionID, chunk); err != nil {
			o.logger.Error(fmt.Sprintf("storing observations: %s", err.Error()))
			return
		}
	}

	if o.metrics != nil {
		o.metrics.ObservationsStored.Add(float64(len(o.batch)))
		o.metrics.BatchFlushDuration.Observe(time.Since(start).Seconds())
	}
	o.batch = o.batch[:0]
}

// finalize writes the remaining observations, the final station records
// and the session end time. It runs with a fresh context so a cancelled
// run still gets its data persisted.
func (o *Orchestrator) finalize() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	o.flush(ctx)

	stations := o.engine.Snapshot()
	for _, station := range stations {
		if err := o.store.UpsertStation(ctx, o.sessionID, station); err != nil {
			return fmt.Errorf("storing station %s: %w", station.ID, err)
		}
	}

	if err := o.store.FinishSession(ctx, o.sessionID, time.Now()); err != nil {
		return fmt.Errorf("finishing session: %w", err)
	}

	report := o.engine.Export()
	o.logger.Info("session finished",
		slog.Int64("sessionID", o.sessionID),
		slog.Int("stations", report.TotalStations),
		slog.Int("hidden", report.HiddenStations))

	return nil
}
