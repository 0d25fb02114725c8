// Package engine implements the stateful discovery core: it ingests
// decoded management frame events in arrival order, tracks one record per
// unique station, promotes concealed stations when a disclosure frame
// names them, and keeps a running classification for every record.
//
// All mutations happen on a single writer lane (the caller of OnEvent);
// readers receive detached copy-on-read snapshots and never observe a
// record mid-mutation.
package engine

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/roman-kulish/wifi-surveillance/internal/classify"
	"github.com/roman-kulish/wifi-surveillance/internal/observability"
	"github.com/roman-kulish/wifi-surveillance/internal/oui"
	"github.com/roman-kulish/wifi-surveillance/internal/wifi"
)

// ErrMalformedEvent is returned when a decoder event is missing a
// required field. The event is rejected; the session continues.
var ErrMalformedEvent = errors.New("malformed event")

// DiscoveryFunc is invoked after a station is first seen (uncovered ==
// false) and again when a concealed station's name is disclosed
// (uncovered == true). The station argument is a detached snapshot.
type DiscoveryFunc func(station wifi.Station, uncovered bool)

// WithLogger sets the logger for the engine.
func WithLogger(logger *slog.Logger) func(*Engine) {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock sets the time source used for session boundaries. Tests
// inject a fake clock for deterministic reports.
func WithClock(clock clockwork.Clock) func(*Engine) {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithMetrics sets the metrics sink for the engine.
func WithMetrics(m *observability.Metrics) func(*Engine) {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithDiscoveryFunc registers a callback for discovery notifications.
func WithDiscoveryFunc(fn DiscoveryFunc) func(*Engine) {
	return func(e *Engine) {
		e.onDiscovery = fn
	}
}

// stationRecord is the mutable per-station state. It is owned exclusively
// by the engine; everything leaving the engine is a copy.
type stationRecord struct {
	id           string
	ssid         string
	concealed    bool
	channel      int
	cipher       wifi.Cipher
	signalDBM    int
	manufacturer string
	firstSeen    time.Time
	lastSeen     time.Time
	samples      []wifi.SignalSample

	classification wifi.Classification
}

// Engine tracks discovered stations for one capture session.
type Engine struct {
	mu        sync.RWMutex
	stations  map[string]*stationRecord
	order     []string // station IDs in first-seen order
	concealed map[string]struct{}

	sessionStart time.Time

	clock       clockwork.Clock
	logger      *slog.Logger
	metrics     *observability.Metrics
	onDiscovery DiscoveryFunc
}

// New creates an engine with an empty station store and a discard logger.
func New(options ...func(*Engine)) *Engine {
	e := Engine{
		stations:  make(map[string]*stationRecord),
		concealed: make(map[string]struct{}),
		clock:     clockwork.NewRealClock(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&e)
	}

	e.sessionStart = e.clock.Now()
	return &e
}

// OnEvent applies a single decoder event. Events must be delivered in
// arrival order; ordering determines first/last seen timestamps and the
// concealment-then-disclosure causality the resolver depends on.
// A malformed event is rejected with ErrMalformedEvent and leaves the
// store untouched.
func (e *Engine) OnEvent(ev wifi.FrameEvent) error {
	if ev.StationID == "" {
		e.countMalformed()
		return fmt.Errorf("%w: missing station ID", ErrMalformedEvent)
	}
	if ev.Timestamp.IsZero() {
		e.countMalformed()
		return fmt.Errorf("%w: missing timestamp", ErrMalformedEvent)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch ev.Kind {
	case wifi.FramePresence:
		e.upsert(ev)
		if ev.SSID != "" {
			e.resolve(ev.StationID, ev.SSID, ev.Timestamp)
		}

	case wifi.FrameDisclosure:
		if _, ok := e.stations[ev.StationID]; !ok {
			// Disclosure for a station never seen before; common and harmless.
			e.logger.Debug("disclosure for unknown station", slog.String("stationID", ev.StationID))
			if e.metrics != nil {
				e.metrics.UnknownDisclosures.Inc()
			}
			return nil
		}
		e.resolve(ev.StationID, ev.SSID, ev.Timestamp)

	default:
		e.countMalformed()
		return fmt.Errorf("%w: unknown frame kind %q", ErrMalformedEvent, ev.Kind)
	}

	if e.metrics != nil {
		e.metrics.FramesProcessed.WithLabelValues(string(ev.Kind)).Inc()
	}
	return nil
}

// upsert creates or refreshes the record for the event's station. The
// display name of an existing record is never changed here; promotion of
// concealed stations goes through resolve.
func (e *Engine) upsert(ev wifi.FrameEvent) {
	rec, ok := e.stations[ev.StationID]
	if !ok {
		rec = &stationRecord{
			id:        ev.StationID,
			ssid:      ev.SSID,
			concealed: ev.SSID == "",
			channel:   ev.Channel,
			cipher:    ev.Cipher,
			signalDBM: ev.SignalDBM,
			firstSeen: ev.Timestamp,
			lastSeen:  ev.Timestamp,
		}
		if rec.concealed {
			rec.ssid = wifi.HiddenSSID
			e.concealed[ev.StationID] = struct{}{}
		}
		if name, found := oui.Lookup(ev.StationID); found {
			rec.manufacturer = name
		}
		rec.samples = append(rec.samples, wifi.SignalSample{Timestamp: ev.Timestamp, SignalDBM: ev.SignalDBM})
		rec.classification = classify.Classify(e.snapshotRecord(rec, false))

		e.stations[ev.StationID] = rec
		e.order = append(e.order, ev.StationID)

		if e.metrics != nil {
			e.metrics.StationsTracked.Set(float64(len(e.stations)))
		}
		e.notify(rec, false)
		return
	}

	if ev.Channel != 0 {
		rec.channel = ev.Channel
	}
	if ev.Cipher != "" {
		rec.cipher = ev.Cipher
	}
	rec.signalDBM = ev.SignalDBM
	rec.lastSeen = ev.Timestamp
	rec.samples = append(rec.samples, wifi.SignalSample{Timestamp: ev.Timestamp, SignalDBM: ev.SignalDBM})
	rec.classification = classify.Classify(e.snapshotRecord(rec, false))
}

// resolve promotes a concealed station to its disclosed name. It is a
// deliberate no-op unless the station is currently concealed and the name
// is real: disclosure frames for already-visible stations are routine.
// Once resolved, a station never re-enters the concealed set this
// session, even if later broadcasts omit the name again.
func (e *Engine) resolve(id, disclosedName string, timestamp time.Time) {
	if _, ok := e.concealed[id]; !ok {
		return
	}
	if disclosedName == "" || disclosedName == wifi.HiddenSSID {
		return
	}

	rec := e.stations[id]
	rec.ssid = disclosedName
	rec.concealed = false
	rec.lastSeen = timestamp
	delete(e.concealed, id)

	rec.classification = classify.Classify(e.snapshotRecord(rec, false))

	if e.metrics != nil {
		e.metrics.HiddenResolved.Inc()
	}
	e.logger.Info("uncovered hidden network",
		slog.String("ssid", disclosedName),
		slog.String("stationID", id))
	e.notify(rec, true)
}

func (e *Engine) notify(rec *stationRecord, uncovered bool) {
	if !uncovered {
		e.logger.Info("discovered station",
			slog.String("ssid", rec.ssid),
			slog.String("stationID", rec.id),
			slog.Int("channel", rec.channel),
			slog.String("cipher", rec.cipher.String()),
			slog.Int("signalDBM", rec.signalDBM),
			slog.String("category", string(rec.classification.Category)))
	}
	if e.onDiscovery != nil {
		e.onDiscovery(e.snapshotRecord(rec, true), uncovered)
	}
}

func (e *Engine) countMalformed() {
	if e.metrics != nil {
		e.metrics.MalformedEvents.Inc()
	}
}

// snapshotRecord builds a detached copy of a record. Sample history is
// copied only when requested; classification does not need it.
func (e *Engine) snapshotRecord(rec *stationRecord, withSamples bool) wifi.Station {
	s := wifi.Station{
		ID:           rec.id,
		SSID:         rec.ssid,
		Concealed:    rec.concealed,
		Channel:      rec.channel,
		Cipher:       rec.cipher,
		SignalDBM:    rec.signalDBM,
		Manufacturer: rec.manufacturer,
		FirstSeen:    rec.firstSeen,
		LastSeen:     rec.lastSeen,
	}
	if rec.classification.Category != "" {
		c := rec.classification
		s.Classification = &c
	}
	if withSamples {
		s.Samples = make([]wifi.SignalSample, len(rec.samples))
		copy(s.Samples, rec.samples)
	}
	return s
}

// Snapshot returns detached copies of every tracked station in first-seen
// order, including full signal histories.
func (e *Engine) Snapshot() []wifi.Station {
	e.mu.RLock()
	defer e.mu.RUnlock()

	stations := make([]wifi.Station, 0, len(e.order))
	for _, id := range e.order {
		stations = append(stations, e.snapshotRecord(e.stations[id], true))
	}
	return stations
}

// Station returns a detached copy of a single station by ID.
func (e *Engine) Station(id string) (wifi.Station, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rec, ok := e.stations[id]
	if !ok {
		return wifi.Station{}, false
	}
	return e.snapshotRecord(rec, true), true
}

// Distribution returns station counts per classification category.
func (e *Engine) Distribution() map[wifi.Category]int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	dist := make(map[wifi.Category]int, len(wifi.Categories))
	for _, rec := range e.stations {
		dist[rec.classification.Category]++
	}
	return dist
}

// TotalStations returns the number of unique stations tracked.
func (e *Engine) TotalStations() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.stations)
}

// ConcealedCount returns the number of stations still concealed.
func (e *Engine) ConcealedCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.concealed)
}

// IsConcealed reports whether a station is currently in the concealed set.
func (e *Engine) IsConcealed(id string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.concealed[id]
	return ok
}

// Export assembles the session report: scan boundaries, distribution and
// every station with its full signal history.
func (e *Engine) Export() wifi.SessionReport {
	e.mu.RLock()
	defer e.mu.RUnlock()

	report := wifi.SessionReport{
		SessionStart:   e.sessionStart,
		SessionEnd:     e.clock.Now(),
		TotalStations:  len(e.stations),
		HiddenStations: len(e.concealed),
		Distribution:   make(map[wifi.Category]int, len(wifi.Categories)),
		Stations:       make([]wifi.Station, 0, len(e.order)),
	}
	for _, id := range e.order {
		rec := e.stations[id]
		report.Distribution[rec.classification.Category]++
		report.Stations = append(report.Stations, e.snapshotRecord(rec, true))
	}
	return report
}

// Reset discards all session state and starts a fresh session. It is the
// engine's only destructive operation.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stations = make(map[string]*stationRecord)
	e.concealed = make(map[string]struct{})
	e.order = nil
	e.sessionStart = e.clock.Now()

	if e.metrics != nil {
		e.metrics.StationsTracked.Set(0)
	}
}
