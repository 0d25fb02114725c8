package tshark

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/wifi-surveillance/internal/wifi"
)

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
	line := "1741946400.500000000\t0x0008\taa:bb:cc:dd:ee:ff\tHomeNet\t6\t-52\t2\t1"

	ev, ok := parseOne(t, line)
	require.True(t, ok)

	assert.Equal(t, "AA:BB:CC:DD:EE:FF", ev.StationID)
	assert.Equal(t, "HomeNet", ev.SSID)
	assert.Equal(t, 6, ev.Channel)
	assert.Equal(t, wifi.CipherLegacy, ev.Cipher)
	assert.Equal(t, -52, ev.SignalDBM)
	assert.Equal(t, wifi.FramePresence, ev.Kind)
	assert.Equal(t, Source, ev.Source)
	assert.Equal(t, time.Unix(1741946400, 500000000).Unix(), ev.Timestamp.Unix())
}

func TestParseProbeResponse(t *testing.T) {
	line := "1741946401.000000000\t0x0005\taa:bb:cc:dd:ee:ff\tOFFICE-NET\t36\t-60\t1\t1"

	ev, ok := parseOne(t, line)
	require.True(t, ok)

	assert.Equal(t, wifi.FrameDisclosure, ev.Kind)
	assert.Equal(t, "OFFICE-NET", ev.SSID)
	assert.Equal(t, wifi.CipherStrong, ev.Cipher)
}

func TestParseConcealedSSID(t *testing.T) {
	tests := []struct {
		name string
		ssid string
	}{
		{"empty element", ""},
		{"nul padding", "\x00\x00\x00\x00"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			line := "1741946400.0\t0x0008\taa:bb:cc:dd:ee:ff\t" + tc.ssid + "\t6\t-52\t\t1"
			ev, ok := parseOne(t, line)
			require.True(t, ok)
			assert.Empty(t, ev.SSID)
		})
	}
}

func TestParseCipherDerivation(t *testing.T) {
	tests := []struct {
		name     string
		akms     string
		privacy  string
		expected wifi.Cipher
	}{
		{"open", "", "0", wifi.CipherNone},
		{"wep", "", "1", wifi.CipherWeak},
		{"wpa2 psk", "2", "1", wifi.CipherLegacy},
		{"wpa3 sae", "8", "1", wifi.CipherStrong},
		{"enterprise", "1", "1", wifi.CipherStrong},
		{"mixed psk and sae", "2,8", "1", wifi.CipherStrong},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, cipherOf(tc.akms, tc.privacy))
		})
	}
}

func TestParseSkipsOtherSubtypes(t *testing.T) {
	line := "1741946400.0\t0x0004\taa:bb:cc:dd:ee:ff\tProbeReq\t6\t-52\t\t0"

	_, ok := parseOne(t, line)
	assert.False(t, ok)
}

func TestParseMissingSignalUsesDefault(t *testing.T) {
	line := "1741946400.0\t0x0008\taa:bb:cc:dd:ee:ff\tHomeNet\t\t\t\t0"

	ev, ok := parseOne(t, line)
	require.True(t, ok)
	assert.Equal(t, defaultSignalDBM, ev.SignalDBM)
	assert.Equal(t, 0, ev.Channel)
}

func TestParseRejectsMalformedLines(t *testing.T) {
	h := handler{}
	events := make(chan wifi.FrameEvent, 1)

	tests := []struct {
		name string
		line string
	}{
		{"too few fields", "1741946400.0\t0x0008\taa:bb:cc:dd:ee:ff"},
		{"bad timestamp", "nope\t0x0008\taa:bb:cc:dd:ee:ff\tHomeNet\t6\t-52\t\t1"},
		{"bad subtype", "1741946400.0\tbeacon\taa:bb:cc:dd:ee:ff\tHomeNet\t6\t-52\t\t1"},
		{"bad signal", "1741946400.0\t0x0008\taa:bb:cc:dd:ee:ff\tHomeNet\t6\tloud\t\t1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, h.Parse(tc.line, "wlan0", events))
		})
	}
}

func TestConfigArgs(t *testing.T) {
	cfg := Config{Interface: "wlan0", Monitor: true, BufferSizeMB: 4}

	args, err := cfg.Args()
	require.NoError(t, err)

	assert.Contains(t, args, "-i")
	assert.Contains(t, args, "wlan0")
	assert.Contains(t, args, "-I")
	assert.Contains(t, args, "-Y")
	assert.Contains(t, args, displayFilter)
	for _, field := range fields {
		assert.Contains(t, args, field)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{}
	assert.Error(t, cfg.Validate())

	cfg = Config{Interface: "wlan0", BufferSizeMB: -1}
	assert.Error(t, cfg.Validate())
}
