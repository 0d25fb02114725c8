package wifi

import (
	"fmt"
	"time"
)

// HiddenSSID is the sentinel display name assigned to a station that omits
// its network name from broadcast frames. A station keeps this name until a
// disclosure frame reveals the real one.
const HiddenSSID = "[Hidden Network]"

// FrameKind identifies the management frame type a capture driver decoded.
type FrameKind string

const (
	// FramePresence is a broadcast announcing the station itself; the
	// network name may be omitted (concealed station).
	FramePresence FrameKind = "presence"

	// FrameDisclosure is a direct response to a client asking about a
	// specific network name, so it always carries the name.
	FrameDisclosure FrameKind = "disclosure"
)

// Cipher describes the strongest encryption suite observed for a station.
type Cipher string

const (
	CipherNone   Cipher = "none"   // Open network
	CipherWeak   Cipher = "weak"   // WEP
	CipherLegacy Cipher = "legacy" // WPA/WPA2-PSK
	CipherStrong Cipher = "strong" // WPA2/WPA3 with mutual-auth capable suites
)

func (c Cipher) String() string {
	return string(c)
}

// ParseCipher converts a string into a Cipher, defaulting unknown values
// to CipherNone.
func ParseCipher(s string) (Cipher, error) {
	switch Cipher(s) {
	case CipherNone, CipherWeak, CipherLegacy, CipherStrong:
		return Cipher(s), nil
	}
	return CipherNone, fmt.Errorf("unknown cipher suite %q", s)
}

// FrameEvent is a single decoded management frame handed to the engine by
// a capture driver. SSID and Channel are optional; a zero Channel means the
// driver could not determine it.
type FrameEvent struct {
	StationID string    // Hardware address of the station (BSSID)
	SSID      string    // Advertised network name, empty when omitted
	Channel   int       // Radio channel, 0 when unknown
	Cipher    Cipher    // Strongest observed cipher suite
	SignalDBM int       // Received signal level in dBm
	Timestamp time.Time // When the frame was captured
	Kind      FrameKind // presence or disclosure
	Source    string    // Capture driver that produced the event
}

// Category is a heuristic operator-intent classification of a station.
type Category string

const (
	CategoryOfficial      Category = "OFFICIAL"
	CategoryEnterprise    Category = "ENTERPRISE"
	CategoryMobileHotspot Category = "MOBILE_HOTSPOT"
	CategoryPublic        Category = "PUBLIC"
	CategoryIOT           Category = "IOT"
	CategoryISPDefault    Category = "ISP_DEFAULT"
	CategoryStandard      Category = "STANDARD"
)

// Categories lists every category in tie-break priority order, highest
// priority first. Scoring ties are resolved by picking the first member
// of this list that achieved the maximum score.
var Categories = []Category{
	CategoryOfficial,
	CategoryEnterprise,
	CategoryMobileHotspot,
	CategoryPublic,
	CategoryIOT,
	CategoryISPDefault,
	CategoryStandard,
}

// Classification is the result of scoring a station.
type Classification struct {
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"` // 0.0-1.0, capped at 0.7 on ties
	Note       string   `json:"note,omitempty"`
}

// SignalSample is a single timestamped signal level observation.
type SignalSample struct {
	Timestamp time.Time `json:"timestamp"`
	SignalDBM int       `json:"signalDBM"`
}

// Station is an immutable snapshot of a discovered access point. Snapshots
// are detached from engine state; mutating one has no effect on the engine.
type Station struct {
	ID             string          `json:"id"`                     // Hardware address
	SSID           string          `json:"ssid"`                   // Display name, HiddenSSID while concealed
	Concealed      bool            `json:"concealed"`              // True until a disclosure frame names the station
	Channel        int             `json:"channel,omitempty"`      // Last observed channel
	Cipher         Cipher          `json:"cipher"`                 // Last observed cipher suite
	SignalDBM      int             `json:"signalDBM"`              // Last observed signal level
	Manufacturer   string          `json:"manufacturer,omitempty"` // Vendor hint from the hardware address prefix
	FirstSeen      time.Time       `json:"firstSeen"`
	LastSeen       time.Time       `json:"lastSeen"`
	Samples        []SignalSample  `json:"samples,omitempty"` // Chronological signal history
	Classification *Classification `json:"classification,omitempty"`
}

// SessionReport is the exported form of a completed (or in-progress)
// discovery session, suitable for persistence and report rendering.
type SessionReport struct {
	SessionStart   time.Time        `json:"sessionStart"`
	SessionEnd     time.Time        `json:"sessionEnd"`
	TotalStations  int              `json:"totalStations"`
	HiddenStations int              `json:"hiddenStations"`
	Distribution   map[Category]int `json:"distribution"`
	Stations       []Station        `json:"stations"`
}
