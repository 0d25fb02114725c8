package storage

import (
	"database/sql"
	"time"
)

// Session is a persisted discovery session. EndTime is nil while the
// session is still running or was interrupted.
type Session struct {
	ID        int64
	StartTime time.Time
	EndTime   *time.Time
	Interface string
	Driver    string
	Config    *string
}

// stationData is the stations table row shape.
type stationData struct {
	SessionID    int64
	BSSID        string
	SSID         string
	Hidden       bool
	Channel      sql.NullInt64
	Cipher       string
	SignalDBM    int64
	Manufacturer sql.NullString
	FirstSeen    time.Time
	LastSeen     time.Time
	Category     sql.NullString
	Confidence   sql.NullFloat64
	Note         sql.NullString
}
