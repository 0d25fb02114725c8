package storage

import (
	"database/sql"

	"github.com/roman-kulish/wifi-surveillance/internal/wifi"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func toStationData(sessionID int64, s wifi.Station) *stationData {
	data := stationData{
		SessionID: sessionID,
		BSSID:     s.ID,
		SSID:      s.SSID,
		Hidden:    s.Concealed,
		Cipher:    s.Cipher.String(),
		SignalDBM: int64(s.SignalDBM),
		FirstSeen: s.FirstSeen.UTC(),
		LastSeen:  s.LastSeen.UTC(),
	}
	if s.Channel != 0 {
		data.Channel = sql.NullInt64{Int64: int64(s.Channel), Valid: true}
	}
	if s.Manufacturer != "" {
		data.Manufacturer = sql.NullString{String: s.Manufacturer, Valid: true}
	}
	if s.Classification != nil {
		data.Category = sql.NullString{String: string(s.Classification.Category), Valid: true}
		data.Confidence = sql.NullFloat64{Float64: s.Classification.Confidence, Valid: true}
		if s.Classification.Note != "" {
			data.Note = sql.NullString{String: s.Classification.Note, Valid: true}
		}
	}
	return &data
}

func toStation(data *stationData) wifi.Station {
	s := wifi.Station{
		ID:        data.BSSID,
		SSID:      data.SSID,
		Concealed: data.Hidden,
		Cipher:    wifi.Cipher(data.Cipher),
		SignalDBM: int(data.SignalDBM),
		FirstSeen: data.FirstSeen,
		LastSeen:  data.LastSeen,
	}
	if data.Channel.Valid {
		s.Channel = int(data.Channel.Int64)
	}
	if data.Manufacturer.Valid {
		s.Manufacturer = data.Manufacturer.String
	}
	if data.Category.Valid {
		s.Classification = &wifi.Classification{
			Category:   wifi.Category(data.Category.String),
			Confidence: data.Confidence.Float64,
		}
		if data.Note.Valid {
			s.Classification.Note = data.Note.String
		}
	}
	return s
}
