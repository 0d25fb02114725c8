package tcpdump

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/wifi-surveillance/internal/wifi"
)

const beaconLine = `1741946400.500000 5180 MHz 11a -52dBm signal -98dBm noise ` +
	`BSSID:aa:bb:cc:dd:ee:ff DA:Broadcast SA:aa:bb:cc:dd:ee:ff Beacon (HomeNet) ` +
	`[6.0* 9.0 12.0* 18.0 Mbit] ESS CH: 36, PRIVACY`

const probeRespLine = `1741946401.000000 2437 MHz 11g -60dBm signal ` +
	`BSSID:aa:bb:cc:dd:ee:ff DA:11:22:33:44:55:66 SA:aa:bb:cc:dd:ee:ff ` +
	`Probe Response (OFFICE-NET) [1.0* 2.0* 5.5* 11.0* Mbit] ESS CH: 6`

func parseOne(t *testing.T, line string) (wifi.FrameEvent, bool) {
	t.Helper()

	events := make(chan wifi.FrameEvent, 1)
	h := handler{}
	require.NoError(t, h.Parse(line, "wlan0", events))

	select {
	case ev := <-events:
		return ev, true
	default:
		return wifi.FrameEvent{}, false
	}
}

func TestParseBeacon(t *testing.T) {
	ev, ok := parseOne(t, beaconLine)
	require.True(t, ok)

	assert.Equal(t, "AA:BB:CC:DD:EE:FF", ev.StationID)
	assert.Equal(t, "HomeNet", ev.SSID)
	assert.Equal(t, 36, ev.Channel)
	assert.Equal(t, wifi.CipherLegacy, ev.Cipher)
	assert.Equal(t, -52, ev.SignalDBM)
	assert.Equal(t, wifi.FramePresence, ev.Kind)
	assert.Equal(t, int64(1741946400), ev.Timestamp.Unix())
}

func TestParseProbeResponse(t *testing.T) {
	ev, ok := parseOne(t, probeRespLine)
	require.True(t, ok)

	assert.Equal(t, wifi.FrameDisclosure, ev.Kind)
	assert.Equal(t, "OFFICE-NET", ev.SSID)
	assert.Equal(t, 6, ev.Channel)
	assert.Equal(t, wifi.CipherNone, ev.Cipher)
}

func TestParseConcealedBeacon(t *testing.T) {
	line := `1741946400.000000 2412 MHz 11b -70dBm signal ` +
		`BSSID:aa:bb:cc:dd:ee:ff DA:Broadcast SA:aa:bb:cc:dd:ee:ff Beacon () ` +
		`ESS CH: 1, PRIVACY`

	ev, ok := parseOne(t, line)
	require.True(t, ok)
	assert.Empty(t, ev.SSID)
	assert.Equal(t, wifi.FramePresence, ev.Kind)
}

func TestParseSkipsOtherFrames(t *testing.T) {
	line := `1741946400.000000 2412 MHz 11b -70dBm signal ` +
		`BSSID:aa:bb:cc:dd:ee:ff DA:Broadcast SA:11:22:33:44:55:66 Probe Request (HomeNet)`

	_, ok := parseOne(t, line)
	assert.False(t, ok)
}

func TestParseMissingSignalUsesDefault(t *testing.T) {
	line := `1741946400.000000 BSSID:aa:bb:cc:dd:ee:ff Beacon (HomeNet) ESS CH: 1`

	ev, ok := parseOne(t, line)
	require.True(t, ok)
	assert.Equal(t, defaultSignalDBM, ev.SignalDBM)
}

func TestParseRejectsMalformedLines(t *testing.T) {
	h := handler{}
	events := make(chan wifi.FrameEvent, 1)

	tests := []struct {
		name string
		line string
	}{
		{"missing timestamp", `BSSID:aa:bb:cc:dd:ee:ff Beacon (HomeNet)`},
		{"missing bssid", `1741946400.000000 -52dBm signal Beacon (HomeNet)`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, h.Parse(tc.line, "wlan0", events))
		})
	}
}

func TestConfigArgs(t *testing.T) {
	cfg := Config{Interface: "wlan0", Monitor: true, SnapLength: 512}

	args, err := cfg.Args()
	require.NoError(t, err)

	assert.Contains(t, args, "-i")
	assert.Contains(t, args, "wlan0")
	assert.Contains(t, args, "-I")
	assert.Contains(t, args, captureFilter)

	cfg = Config{}
	_, err = cfg.Args()
	assert.Error(t, err)
}
