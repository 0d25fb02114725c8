// Package classify implements heuristic classification of discovered
// access points into operator-intent categories. Scoring is a pure
// function of a station snapshot and can be re-run whenever new evidence
// arrives, e.g. after a concealed station's name is disclosed.
package classify

import (
	"strings"

	"github.com/roman-kulish/wifi-surveillance/internal/wifi"
)

const (
	// Signal level thresholds in dBm. A station heard above the strong
	// threshold is almost certainly in the same room as the receiver.
	veryStrongSignalDBM = -40
	weakSignalDBM       = -80

	// confidenceScale divides the winning score into a 0.0-1.0 confidence.
	confidenceScale = 10.0

	// tieConfidenceCap limits confidence when several categories tie;
	// a tie is inherently ambiguous and must never report full certainty.
	tieConfidenceCap = 0.7
)

// ssidKeywords maps each category to name fragments that are strong
// evidence for it. Matching is case-insensitive substring containment and
// every match adds the same weight, stacking across categories.
var ssidKeywords = map[wifi.Category][]string{
	wifi.CategoryOfficial: {
		"FBI", "GOV", "POLICE", "FED", "MIL", "DOD", "SECURE",
		"AGENCY", "OFFICIAL", "LEO", "DHS", "EMERGENCY", "EMERG",
	},
	wifi.CategoryEnterprise: {
		"CORP", "ENTERPRISE", "STAFF", "EMPLOYEE", "CORPORATE",
		"OFFICE", "BUSINESS", "COMPANY", "INC", "LLC", "LTD",
	},
	wifi.CategoryMobileHotspot: {
		"IPHONE", "ANDROID", "GALAXY", "MOBILE", "HOTSPOT",
		"MIFI", "PHONE", "POCKET", "SAMSUNG", "HUAWEI", "USB",
	},
	wifi.CategoryPublic: {
		"PUBLIC", "GUEST", "FREE", "WIFI", "AIRPORT", "HOTEL",
		"CAFE", "RESTAURANT", "OPEN", "LIBRARY", "STORE",
	},
	wifi.CategoryIOT: {
		"CAM", "CAMERA", "RING", "NEST", "SMART", "HOME",
		"DEVICE", "SENSOR", "THERMOSTAT", "BULB", "TV", "ROKU",
	},
	wifi.CategoryISPDefault: {
		"XFINITY", "COMCAST", "SPECTRUM", "ATT", "VERIZON",
		"FIOS", "OPTIMUM", "COX", "CENTURYLINK", "FRONTIER", "ROUTER",
	},
}

// vendorClass groups manufacturers whose presence shifts scores the same way.
type vendorClass int

const (
	vendorGovernment vendorClass = iota
	vendorEnterprise
	vendorConsumer
	vendorMobile
	vendorIOT
)

var vendorNames = map[vendorClass][]string{
	vendorGovernment: {"HARRIS", "GENERAL DYNAMICS", "NORTHROP", "LOCKHEED", "RAYTHEON"},
	vendorEnterprise: {"CISCO", "ARUBA", "JUNIPER", "EXTREME", "FORTINET", "RUCKUS"},
	vendorConsumer:   {"NETGEAR", "LINKSYS", "TP-LINK", "D-LINK", "BELKIN", "ASUS"},
	vendorMobile:     {"APPLE", "SAMSUNG", "GOOGLE", "HUAWEI", "XIAOMI", "MOTOROLA", "HTC"},
	vendorIOT:        {"NEST", "RING", "ECOBEE", "WYZE", "SONOS", "ROKU", "AMAZON"},
}

// notes carries the human-readable explanation attached to each
// classification result.
var notes = map[wifi.Category]string{
	wifi.CategoryOfficial:      "This station has characteristics consistent with official or government networks. Heuristic classification only; verify independently.",
	wifi.CategoryEnterprise:    "This station appears to be an enterprise or corporate network.",
	wifi.CategoryMobileHotspot: "This station appears to be a mobile hotspot or temporary network.",
	wifi.CategoryPublic:        "This station appears to be a public access point.",
	wifi.CategoryIOT:           "This station appears to be associated with IoT devices.",
	wifi.CategoryISPDefault:    "This station appears to be an ISP-provided default configuration.",
}

// Classify scores a station snapshot against every category and returns
// the winning category with a confidence between 0.0 and 1.0. The result
// is deterministic: two calls on an unchanged snapshot yield identical
// output. Ties are broken by category priority order and capped at a
// lower confidence.
func Classify(s wifi.Station) wifi.Classification {
	scores := make(map[wifi.Category]int, len(wifi.Categories))

	if s.Concealed {
		scores[wifi.CategoryOfficial] += 3
		scores[wifi.CategoryEnterprise] += 2
	}

	switch s.Cipher {
	case wifi.CipherStrong:
		scores[wifi.CategoryOfficial] += 2
		scores[wifi.CategoryEnterprise] += 2
		scores[wifi.CategoryISPDefault] += 1
	case wifi.CipherNone:
		scores[wifi.CategoryPublic] += 3
	}

	name := strings.ToUpper(s.SSID)
	if s.Concealed {
		name = "" // the sentinel must not match keyword lists
	}
	for category, keywords := range ssidKeywords {
		for _, keyword := range keywords {
			if strings.Contains(name, keyword) {
				scores[category] += 4
			}
		}
	}

	applyVendorScores(scores, strings.ToUpper(s.Manufacturer))

	if s.SignalDBM > veryStrongSignalDBM {
		scores[wifi.CategoryStandard] += 1
		scores[wifi.CategoryISPDefault] += 1
	} else if s.SignalDBM < weakSignalDBM {
		scores[wifi.CategoryMobileHotspot] += 1
	}

	return resolve(scores)
}

func applyVendorScores(scores map[wifi.Category]int, manufacturer string) {
	if manufacturer == "" {
		return
	}
	for class, names := range vendorNames {
		for _, name := range names {
			if !strings.Contains(manufacturer, name) {
				continue
			}
			switch class {
			case vendorGovernment:
				scores[wifi.CategoryOfficial] += 4
			case vendorEnterprise:
				scores[wifi.CategoryEnterprise] += 3
			case vendorConsumer:
				scores[wifi.CategoryStandard] += 2
				scores[wifi.CategoryISPDefault] += 1
			case vendorMobile:
				scores[wifi.CategoryMobileHotspot] += 4
			case vendorIOT:
				scores[wifi.CategoryIOT] += 4
			}
		}
	}
}

// resolve picks the winning category. With no evidence at all the result
// is STANDARD at zero confidence. A unique winner scales its score into
// confidence; tied winners fall back to priority order with confidence
// capped below full certainty.
func resolve(scores map[wifi.Category]int) wifi.Classification {
	var maxScore int
	for _, score := range scores {
		if score > maxScore {
			maxScore = score
		}
	}
	if maxScore == 0 {
		return wifi.Classification{Category: wifi.CategoryStandard, Confidence: 0}
	}

	var candidates []wifi.Category
	for _, category := range wifi.Categories {
		if scores[category] == maxScore {
			candidates = append(candidates, category)
		}
	}

	confidence := min(1.0, float64(maxScore)/confidenceScale)
	if len(candidates) > 1 {
		confidence = min(tieConfidenceCap, confidence)
	}

	winner := candidates[0]
	return wifi.Classification{
		Category:   winner,
		Confidence: confidence,
		Note:       notes[winner],
	}
}
