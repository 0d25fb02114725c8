// Package tshark decodes 802.11 management frames using the tshark
// dissector. It is the preferred driver: radiotap channel and signal data
// plus RSN suite details are available per frame.
package tshark

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/roman-kulish/wifi-surveillance/internal/capture"
	"github.com/roman-kulish/wifi-surveillance/internal/wifi"
)

const (
	Runtime = "tshark"
	Source  = "tshark"

	subtypeProbeResponse = 0x05
	subtypeBeacon        = 0x08

	// defaultSignalDBM is used when the capture path strips radiotap
	// headers and no per-frame signal level is available.
	defaultSignalDBM = -100
)

// AKM suite selectors from IEEE 802.11 table 9-151.
var strongAKMs = map[int]struct{}{
	1: {}, // 802.1X
	3: {}, // FT-802.1X
	5: {}, // 802.1X SHA-256
	8: {}, // SAE
	9: {}, // FT-SAE
}

// handler struct represents a tshark capture handler
type handler struct {
	binPath string
	args    []string
}

// New creates a new tshark capture handler
func New(config *Config) (capture.Handler, error) {
	binPath, err := capture.FindRuntime(Runtime)
	if err != nil {
		return nil, fmt.Errorf("error finding runtime: %w", err)
	}

	args, err := config.Args()
	if err != nil {
		return nil, fmt.Errorf("error creating args: %w", err)
	}

	return &handler{binPath, args}, nil
}

// Cmd returns an exec.Cmd for the tshark capture handler
func (h handler) Cmd(ctx context.Context) *exec.Cmd {
	return exec.CommandContext(ctx, h.binPath, h.args...)
}

// Parse parses one tab-separated tshark field line and sends the decoded
// frame event to the channel. Frames of other subtypes and frames without
// a station address are skipped silently.
func (h handler) Parse(line string, iface string, events chan<- wifi.FrameEvent) error {
	columns := strings.Split(line, "\t")
	if len(columns) < len(fields) {
		return fmt.Errorf("invalid tshark output: expected %d fields, got %d", len(fields), len(columns))
	}

	epoch, err := strconv.ParseFloat(strings.TrimSpace(columns[0]), 64)
	if err != nil {
		return fmt.Errorf("invalid frame timestamp: %w", err)
	}
	sec, frac := math.Modf(epoch)
	timestamp := time.Unix(int64(sec), int64(frac*float64(time.Second)))

	// Subtype renders as 0x0008 on current releases and as a bare decimal
	// on older ones; base 0 accepts both.
	subtype, err := strconv.ParseInt(strings.TrimSpace(columns[1]), 0, 64)
	if err != nil {
		return fmt.Errorf("invalid frame subtype: %w", err)
	}

	var kind wifi.FrameKind
	switch subtype {
	case subtypeBeacon:
		kind = wifi.FramePresence
	case subtypeProbeResponse:
		kind = wifi.FrameDisclosure
	default:
		return nil // display filter slipped; not a frame we consume
	}

	bssid := strings.ToUpper(strings.TrimSpace(columns[2]))
	if bssid == "" {
		return nil
	}

	channel := 0
	if v := strings.TrimSpace(columns[4]); v != "" {
		if channel, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("invalid channel: %w", err)
		}
	}

	signal := defaultSignalDBM
	if v := strings.TrimSpace(columns[5]); v != "" {
		if signal, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("invalid signal level: %w", err)
		}
	}

	events <- wifi.FrameEvent{
		StationID: bssid,
		SSID:      decodeSSID(columns[3]),
		Channel:   channel,
		Cipher:    cipherOf(strings.TrimSpace(columns[6]), strings.TrimSpace(columns[7])),
		SignalDBM: signal,
		Timestamp: timestamp,
		Kind:      kind,
		Source:    Source,
	}

	return nil
}

func (h handler) Source() string {
	return Source
}

// decodeSSID normalizes the wlan.ssid field. Concealed stations advertise
// either an empty element or a run of NUL bytes; both collapse to the
// empty string.
func decodeSSID(raw string) string {
	ssid := strings.TrimSpace(raw)
	if strings.Trim(ssid, "\x00") == "" {
		return ""
	}
	return ssid
}

// cipherOf derives the cipher class from the RSN AKM suite list and the
// capability privacy bit. Privacy without an RSN element is WEP.
func cipherOf(akms, privacy string) wifi.Cipher {
	if akms != "" {
		for _, v := range strings.Split(akms, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				continue
			}
			if _, ok := strongAKMs[n]; ok {
				return wifi.CipherStrong
			}
		}
		return wifi.CipherLegacy
	}

	if privacy == "1" {
		return wifi.CipherWeak
	}
	return wifi.CipherNone
}
