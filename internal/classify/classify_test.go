package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roman-kulish/wifi-surveillance/internal/wifi"
)

func station(ssid string, concealed bool, cipher wifi.Cipher, signal int) wifi.Station {
	return wifi.Station{
		ID:        "AA:BB:CC:00:00:01",
		SSID:      ssid,
		Concealed: concealed,
		Cipher:    cipher,
		SignalDBM: signal,
	}
}

func TestClassifyNoEvidence(t *testing.T) {
	// Legacy cipher, mid-range signal, meaningless name: nothing scores.
	result := Classify(station("zzqx", false, wifi.CipherLegacy, -65))

	assert.Equal(t, wifi.CategoryStandard, result.Category)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Empty(t, result.Note)
}

func TestClassifyIsDeterministic(t *testing.T) {
	s := station("CorpGuest", false, wifi.CipherStrong, -55)

	first := Classify(s)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Classify(s))
	}
}

func TestClassifyKeywordEvidence(t *testing.T) {
	tests := []struct {
		name       string
		ssid       string
		category   wifi.Category
		confidence float64
	}{
		{"official keyword", "FBI Surveillance Van", wifi.CategoryOfficial, 0.4},
		{"enterprise keywords stack", "ACME CORP OFFICE", wifi.CategoryEnterprise, 0.8},
		{"mobile hotspot stacks iphone and phone", "Dave's iPhone", wifi.CategoryMobileHotspot, 0.8},
		{"public stacks past cap", "Free Airport WiFi Guest", wifi.CategoryPublic, 1.0},
		{"iot device", "RING-CAM-7F", wifi.CategoryIOT, 0.8},
		{"isp default", "XFINITY-8842", wifi.CategoryISPDefault, 0.4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := Classify(station(tc.ssid, false, wifi.CipherLegacy, -65))
			assert.Equal(t, tc.category, result.Category)
			assert.InDelta(t, tc.confidence, result.Confidence, 1e-9)
			assert.NotEmpty(t, result.Note)
		})
	}
}

func TestClassifyConcealmentEvidence(t *testing.T) {
	result := Classify(station(wifi.HiddenSSID, true, wifi.CipherLegacy, -65))

	// Concealment alone leans official (+3 vs +2 enterprise); the sentinel
	// display name must never feed the keyword match.
	assert.Equal(t, wifi.CategoryOfficial, result.Category)
	assert.InDelta(t, 0.3, result.Confidence, 1e-9)
}

func TestClassifyCipherEvidence(t *testing.T) {
	open := Classify(station("zzqx", false, wifi.CipherNone, -65))
	assert.Equal(t, wifi.CategoryPublic, open.Category)
	assert.InDelta(t, 0.3, open.Confidence, 1e-9)

	// Strong cipher ties official and enterprise at 2; priority order picks
	// official and the tie keeps confidence low.
	strong := Classify(station("zzqx", false, wifi.CipherStrong, -65))
	assert.Equal(t, wifi.CategoryOfficial, strong.Category)
	assert.InDelta(t, 0.2, strong.Confidence, 1e-9)
}

func TestClassifyVendorEvidence(t *testing.T) {
	tests := []struct {
		name         string
		manufacturer string
		category     wifi.Category
		confidence   float64
	}{
		{"enterprise vendor", "Cisco Systems", wifi.CategoryEnterprise, 0.3},
		{"consumer vendor", "Netgear", wifi.CategoryStandard, 0.2},
		{"mobile vendor", "Apple", wifi.CategoryMobileHotspot, 0.4},
		{"iot vendor", "Nest Labs", wifi.CategoryIOT, 0.4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := station("zzqx", false, wifi.CipherLegacy, -65)
			s.Manufacturer = tc.manufacturer
			result := Classify(s)
			assert.Equal(t, tc.category, result.Category)
			assert.InDelta(t, tc.confidence, result.Confidence, 1e-9)
		})
	}
}

func TestClassifySignalEvidence(t *testing.T) {
	// Very strong signal ties standard and ISP default at 1; priority order
	// picks ISP default.
	near := Classify(station("zzqx", false, wifi.CipherLegacy, -35))
	assert.Equal(t, wifi.CategoryISPDefault, near.Category)
	assert.InDelta(t, 0.1, near.Confidence, 1e-9)

	far := Classify(station("zzqx", false, wifi.CipherLegacy, -85))
	assert.Equal(t, wifi.CategoryMobileHotspot, far.Category)
	assert.InDelta(t, 0.1, far.Confidence, 1e-9)
}

func TestClassifyTieBreakPriority(t *testing.T) {
	// GUEST scores public +4 and OFFICE scores enterprise +4; the tie must
	// resolve to the higher-priority category with capped confidence.
	result := Classify(station("GUEST OFFICE", false, wifi.CipherLegacy, -65))

	assert.Equal(t, wifi.CategoryEnterprise, result.Category)
	assert.InDelta(t, 0.4, result.Confidence, 1e-9)
	assert.LessOrEqual(t, result.Confidence, 0.7)
}

func TestClassifyTieConfidenceCap(t *testing.T) {
	// CORP+OFFICE vs GUEST+FREE: both tie at 8, which would scale to 0.8
	// for a unique winner but must be capped on a tie.
	result := Classify(station("CORP OFFICE FREE GUEST", false, wifi.CipherLegacy, -65))

	assert.Equal(t, wifi.CategoryEnterprise, result.Category)
	assert.InDelta(t, 0.7, result.Confidence, 1e-9)
}

func TestClassifyCombinedEvidence(t *testing.T) {
	// Concealed, strong cipher, government vendor: official collects
	// 3+2+4 = 9 and wins outright.
	s := wifi.Station{
		ID:           "AA:BB:CC:00:00:01",
		SSID:         wifi.HiddenSSID,
		Concealed:    true,
		Cipher:       wifi.CipherStrong,
		SignalDBM:    -65,
		Manufacturer: "Harris Corporation",
	}

	result := Classify(s)
	assert.Equal(t, wifi.CategoryOfficial, result.Category)
	assert.InDelta(t, 0.9, result.Confidence, 1e-9)
}
