package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/wifi-surveillance/internal/wifi"
)

var seen = time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)

func TestStationRowCarriesAllFields(t *testing.T) {
	station := wifi.Station{
		ID:           "AA:BB:CC:00:00:01",
		SSID:         "HomeNet",
		Channel:      11,
		Cipher:       wifi.CipherStrong,
		SignalDBM:    -48,
		Manufacturer: "Cisco Systems",
		FirstSeen:    seen,
		LastSeen:     seen.Add(time.Minute),
		Classification: &wifi.Classification{
			Category:   wifi.CategoryEnterprise,
			Confidence: 0.5,
			Note:       "This station appears to be an enterprise or corporate network.",
		},
	}

	data := toStationData(7, station)
	assert.Equal(t, int64(7), data.SessionID)
	assert.Equal(t, int64(-48), data.SignalDBM)

	got := toStation(data)
	assert.Equal(t, station.ID, got.ID)
	assert.Equal(t, station.SSID, got.SSID)
	assert.Equal(t, station.Channel, got.Channel)
	assert.Equal(t, station.Cipher, got.Cipher)
	assert.Equal(t, station.SignalDBM, got.SignalDBM)
	assert.Equal(t, station.Manufacturer, got.Manufacturer)
	require.NotNil(t, got.Classification)
	assert.Equal(t, *station.Classification, *got.Classification)
}

func TestStationRowOptionalFields(t *testing.T) {
	station := wifi.Station{
		ID:        "AA:BB:CC:00:00:02",
		SSID:      wifi.HiddenSSID,
		Concealed: true,
		Cipher:    wifi.CipherNone,
		SignalDBM: -90,
		FirstSeen: seen,
		LastSeen:  seen,
	}

	data := toStationData(1, station)
	assert.False(t, data.Channel.Valid)
	assert.False(t, data.Manufacturer.Valid)
	assert.False(t, data.Category.Valid)

	got := toStation(data)
	assert.True(t, got.Concealed)
	assert.Equal(t, -90, got.SignalDBM)
	assert.Zero(t, got.Channel)
	assert.Nil(t, got.Classification)
}
