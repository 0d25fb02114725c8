// Package storage persists discovery sessions, station records and signal
// observations in SQLite. One database file holds one or more sessions;
// writes go through a WAL connection while reads use a separate read-only
// connection, both opened lazily.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/roman-kulish/wifi-surveillance/internal/wifi"
)

// ErrNoData indicates either that no station data exists for the given
// parameters, or that all available data has been read from the reader.
var ErrNoData = fmt.Errorf("no data available")

// Store persists discovery sessions and their station records.
type Store interface {
	// CreateSession inserts a new session row and returns its ID. Config
	// may be a string, raw bytes or any JSON-marshalable value.
	CreateSession(ctx context.Context, startTime time.Time, iface, driver string, config any) (int64, error)

	// FinishSession stamps the session's end time.
	FinishSession(ctx context.Context, sessionID int64, endTime time.Time) error

	// UpsertStation inserts or refreshes one station record. First-seen
	// time and manufacturer are immutable once written.
	UpsertStation(ctx context.Context, sessionID int64, station wifi.Station) error

	// StoreObservations batch-inserts signal observations in a single
	// transaction.
	StoreObservations(ctx context.Context, sessionID int64, observations []Observation) error

	// Session returns a session by its ID.
	Session(ctx context.Context, id int64) (*Session, error)

	// Sessions returns all sessions in the database, oldest first.
	Sessions(ctx context.Context) ([]*Session, error)

	// Observations returns a station's chronological signal history.
	Observations(ctx context.Context, sessionID int64, bssid string) ([]wifi.SignalSample, error)

	Close() error
}

// Observation is one signal level measurement bound for the observations
// table.
type Observation struct {
	BSSID     string
	Timestamp time.Time
	SignalDBM int
}

// StationReader provides an iterator-based interface for reading station
// records with optional filtering.
type StationReader interface {
	// Session returns metadata about the session this reader is accessing.
	Session() *Session

	// Next advances the iterator and returns true if there is another
	// station to read, false when the iteration is complete or if an error
	// occurred.
	Next(context.Context) bool

	// Current returns the current station in the iteration.
	// If called after Next() returns false, the behavior is undefined.
	Current() *wifi.Station

	// Error returns any error that occurred during iteration.
	Error() error

	// Close releases any resources associated with the reader.
	// After Close is called, the reader should not be used.
	Close() error
}

// ReaderOption configures a StationReader with specific filtering criteria.
type ReaderOption func(*SqliteStationReader)

// WithCategory keeps only stations classified into the given category.
func WithCategory(category wifi.Category) ReaderOption {
	return func(r *SqliteStationReader) {
		r.category = &category
	}
}

// WithHiddenOnly keeps only stations that stayed concealed for the whole
// session.
func WithHiddenOnly() ReaderOption {
	return func(r *SqliteStationReader) {
		r.hiddenOnly = true
	}
}

// WithMinConfidence keeps only stations whose classification confidence is
// at least the given value.
func WithMinConfidence(confidence float64) ReaderOption {
	return func(r *SqliteStationReader) {
		r.minConfidence = &confidence
	}
}
