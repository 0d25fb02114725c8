package storage

import (
	_ "embed"
)

const (
	insertSessionSQL = `
INSERT INTO sessions (
                      start_time,
                      interface,
                      driver,
                      config)
VALUES (?, ?, ?, ?)`

	finishSessionSQL = `
UPDATE sessions
SET end_time = ?
WHERE
    id = ?`

	selectSessionSQL = `
SELECT
    id,
    start_time,
    end_time,
    interface,
    driver,
    config
FROM sessions
WHERE
    id = ?`

	selectSessionsSQL = `
SELECT
    id,
    start_time,
    end_time,
    interface,
    driver,
    config
FROM sessions
ORDER BY start_time`

	upsertStationSQL = `
INSERT INTO stations (session_id,
                      bssid,
                      ssid,
                      hidden,
                      channel,
                      cipher,
                      signal_dbm,
                      manufacturer,
                      first_seen,
                      last_seen,
                      category,
                      confidence,
                      note)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (session_id, bssid) DO UPDATE SET
    ssid       = excluded.ssid,
    hidden     = excluded.hidden,
    channel    = excluded.channel,
    cipher     = excluded.cipher,
    signal_dbm = excluded.signal_dbm,
    last_seen  = excluded.last_seen,
    category   = excluded.category,
    confidence = excluded.confidence,
    note       = excluded.note`

	selectStationsSQL = `
SELECT
    bssid,
    ssid,
    hidden,
    channel,
    cipher,
    signal_dbm,
    manufacturer,
    first_seen,
    last_seen,
    category,
    confidence,
    note
FROM stations
WHERE
    session_id = ?`

	insertObservationSQL = `
    INSERT INTO observations (
        session_id,
        bssid,
        timestamp,
        signal_dbm
    )
    VALUES `

	selectObservationsSQL = `
SELECT
    timestamp,
    signal_dbm
FROM observations
WHERE
    session_id = ?
    AND bssid = ?
ORDER BY timestamp`

	initIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_stations_session ON stations (session_id);
CREATE INDEX IF NOT EXISTS idx_observations_station ON observations (session_id, bssid, timestamp);`
)

//go:embed schema.sql
var initSchemaSQL string
