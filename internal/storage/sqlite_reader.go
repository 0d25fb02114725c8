package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roman-kulish/wifi-surveillance/internal/wifi"
)

// newSqliteStationReader creates a new StationReader instance for reading
// station records from a database, applying optional filters.
func newSqliteStationReader(ctx context.Context, db *sql.DB, sessionID int64, opts ...ReaderOption) (*SqliteStationReader, error) {
	sr := &SqliteStationReader{
		db:        db,
		sessionID: sessionID,
	}
	for _, opt := range opts {
		opt(sr)
	}
	if err := sr.init(ctx); err != nil {
		return nil, fmt.Errorf("initializing reader: %w", err)
	}
	return sr, nil
}

// SqliteStationReader implements StationReader for SQLite database backend.
type SqliteStationReader struct {
	db *sql.DB

	sessionID int64
	session   *Session

	category      *wifi.Category // Optional category filter
	hiddenOnly    bool
	minConfidence *float64 // Optional confidence floor

	current *wifi.Station
	rows    *sql.Rows
	err     error
}

func (sr *SqliteStationReader) init(ctx context.Context) error {
	if sr.db == nil {
		return errors.New("database connection required")
	}
	if sr.sessionID <= 0 {
		return errors.New("session ID required")
	}

	if err := sr.loadSession(ctx); err != nil {
		return fmt.Errorf("loading session: %w", err)
	}
	if err := sr.initQuery(ctx); err != nil {
		return fmt.Errorf("initializing query: %w", err)
	}
	return nil
}

func (sr *SqliteStationReader) loadSession(ctx context.Context) (err error) {
	stmt, err := sr.db.PrepareContext(ctx, selectSessionSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	sess, err := scanSession(stmt.QueryRowContext(ctx, sr.sessionID))
	if err != nil {
		return fmt.Errorf("querying session: %w", err)
	}

	sr.session = sess
	return
}

func (sr *SqliteStationReader) initQuery(ctx context.Context) (err error) {
	var sb strings.Builder
	sb.WriteString(selectStationsSQL)

	args := []any{sr.sessionID}

	if sr.category != nil {
		sb.WriteString("\n    AND category = ?")
		args = append(args, string(*sr.category))
	}
	if sr.hiddenOnly {
		sb.WriteString("\n    AND hidden = 1")
	}
	if sr.minConfidence != nil {
		sb.WriteString("\n    AND confidence >= ?")
		args = append(args, *sr.minConfidence)
	}

	sb.WriteString("\nORDER BY first_seen")

	stmt, err := sr.db.PrepareContext(ctx, sb.String())
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	if sr.rows, err = stmt.QueryContext(ctx, args...); err != nil {
		return err
	}
	return nil
}

func (sr *SqliteStationReader) scanStation() (*wifi.Station, error) {
	var data stationData

	err := sr.rows.Scan(
		&data.BSSID,
		&data.SSID,
		&data.Hidden,
		&data.Channel,
		&data.Cipher,
		&data.SignalDBM,
		&data.Manufacturer,
		&data.FirstSeen,
		&data.LastSeen,
		&data.Category,
		&data.Confidence,
		&data.Note,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning station: %w", err)
	}

	station := toStation(&data)
	return &station, nil
}

func (sr *SqliteStationReader) Session() *Session {
	return sr.session
}

func (sr *SqliteStationReader) Next(ctx context.Context) bool {
	if sr.err != nil || sr.rows == nil {
		return false
	}

	select {
	case <-ctx.Done():
		sr.err = ctx.Err()
		return false
	default:
	}

	if !sr.rows.Next() {
		sr.err = ErrNoData
		return false
	}

	if sr.current, sr.err = sr.scanStation(); sr.err != nil {
		return false
	}
	return true
}

func (sr *SqliteStationReader) Current() *wifi.Station {
	return sr.current
}

func (sr *SqliteStationReader) Error() error {
	if sr.err != nil && !errors.Is(sr.err, ErrNoData) {
		return sr.err
	}
	if sr.rows != nil {
		return sr.rows.Err()
	}
	return nil
}

func (sr *SqliteStationReader) Close() error {
	if sr.rows != nil {
		err := sr.rows.Close()
		sr.current = nil
		sr.rows = nil
		return err
	}
	return nil
}
