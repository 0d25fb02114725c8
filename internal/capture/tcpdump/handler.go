// Package tcpdump decodes 802.11 management frames from tcpdump's text
// output. It is the fallback driver for hosts without tshark; cipher
// detail is limited to the capability privacy bit, so everything
// encrypted is reported as a legacy suite.
package tcpdump

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/roman-kulish/wifi-surveillance/internal/capture"
	"github.com/roman-kulish/wifi-surveillance/internal/wifi"
)

const (
	Runtime = "tcpdump"
	Source  = "tcpdump"

	// defaultSignalDBM is used when the frame carries no radiotap signal.
	defaultSignalDBM = -100
)

var (
	timestampRe = regexp.MustCompile(`^(\d+\.\d+)`)
	signalRe    = regexp.MustCompile(`(-?\d+)dBm signal`)
	bssidRe     = regexp.MustCompile(`BSSID:([0-9A-Fa-f]{2}(?::[0-9A-Fa-f]{2}){5})`)
	beaconRe    = regexp.MustCompile(`Beacon \(([^)]*)\)`)
	probeRespRe = regexp.MustCompile(`Probe Response \(([^)]*)\)`)
	channelRe   = regexp.MustCompile(`CH: (\d+)`)
)

// handler struct represents a tcpdump capture handler
type handler struct {
	binPath string
	args    []string
}

// New creates a new tcpdump capture handler
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

// Cmd returns an exec.Cmd for the tcpdump capture handler
func (h handler) Cmd(ctx context.Context) *exec.Cmd {
	return exec.CommandContext(ctx, h.binPath, h.args...)
}

// Parse parses one tcpdump output line and sends the decoded frame event
// to the channel. Lines describing other frame types are skipped.
func (h handler) Parse(line string, iface string, events chan<- wifi.FrameEvent) error {
	var kind wifi.FrameKind
	var nameMatch []string

	if nameMatch = beaconRe.FindStringSubmatch(line); nameMatch != nil {
		kind = wifi.FramePresence
	} else if nameMatch = probeRespRe.FindStringSubmatch(line); nameMatch != nil {
		kind = wifi.FrameDisclosure
	} else {
		return nil // capture filter slipped; not a frame we consume
	}

	tsMatch := timestampRe.FindStringSubmatch(line)
	if tsMatch == nil {
		return fmt.Errorf("invalid tcpdump output: missing timestamp")
	}
	epoch, err := strconv.ParseFloat(tsMatch[1], 64)
	if err != nil {
		return fmt.Errorf("invalid frame timestamp: %w", err)
	}
	sec, frac := math.Modf(epoch)
	timestamp := time.Unix(int64(sec), int64(frac*float64(time.Second)))

	bssidMatch := bssidRe.FindStringSubmatch(line)
	if bssidMatch == nil {
		return fmt.Errorf("invalid tcpdump output: missing BSSID")
	}

	signal := defaultSignalDBM
	if m := signalRe.FindStringSubmatch(line); m != nil {
		if signal, err = strconv.Atoi(m[1]); err != nil {
			return fmt.Errorf("invalid signal level: %w", err)
		}
	}

	channel := 0
	if m := channelRe.FindStringSubmatch(line); m != nil {
		if channel, err = strconv.Atoi(m[1]); err != nil {
			return fmt.Errorf("invalid channel: %w", err)
		}
	}

	cipher := wifi.CipherNone
	if strings.Contains(line, "PRIVACY") {
		cipher = wifi.CipherLegacy
	}

	events <- wifi.FrameEvent{
		StationID: strings.ToUpper(bssidMatch[1]),
		SSID:      strings.TrimSpace(nameMatch[1]),
		Channel:   channel,
		Cipher:    cipher,
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
