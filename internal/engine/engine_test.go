package engine

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/wifi-surveillance/internal/observability"
	"github.com/roman-kulish/wifi-surveillance/internal/wifi"
)

var testStart = time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)

func presence(id, ssid string, signal int, at time.Time) wifi.FrameEvent {
	return wifi.FrameEvent{
		StationID: id,
		SSID:      ssid,
		Channel:   6,
		Cipher:    wifi.CipherLegacy,
		SignalDBM: signal,
		Timestamp: at,
		Kind:      wifi.FramePresence,
	}
}

func disclosure(id, ssid string, at time.Time) wifi.FrameEvent {
	return wifi.FrameEvent{
		StationID: id,
		SSID:      ssid,
		Cipher:    wifi.CipherLegacy,
		SignalDBM: -55,
		Timestamp: at,
		Kind:      wifi.FrameDisclosure,
	}
}

func TestOnEventTracksDistinctStations(t *testing.T) {
	e := New()

	require.NoError(t, e.OnEvent(presence("AA:BB:CC:00:00:01", "HomeNet", -50, testStart)))
	require.NoError(t, e.OnEvent(presence("AA:BB:CC:00:00:02", "CafeNet", -60, testStart.Add(time.Second))))
	require.NoError(t, e.OnEvent(presence("AA:BB:CC:00:00:01", "HomeNet", -52, testStart.Add(2*time.Second))))

	assert.Equal(t, 2, e.TotalStations())

	st, ok := e.Station("AA:BB:CC:00:00:01")
	require.True(t, ok)
	assert.Equal(t, "HomeNet", st.SSID)
	assert.Equal(t, testStart, st.FirstSeen)
	assert.Equal(t, testStart.Add(2*time.Second), st.LastSeen)
	assert.Equal(t, -52, st.SignalDBM)
	assert.Len(t, st.Samples, 2)
}

func TestUpsertKeepsFirstSeenAndName(t *testing.T) {
	e := New()

	require.NoError(t, e.OnEvent(presence("AA:BB:CC:00:00:01", "HomeNet", -50, testStart)))
	before, ok := e.Station("AA:BB:CC:00:00:01")
	require.True(t, ok)

	// A re-broadcast must refresh volatile fields only.
	ev := presence("AA:BB:CC:00:00:01", "HomeNet", -45, testStart.Add(time.Minute))
	ev.Channel = 11
	require.NoError(t, e.OnEvent(ev))

	after, ok := e.Station("AA:BB:CC:00:00:01")
	require.True(t, ok)
	assert.Equal(t, before.FirstSeen, after.FirstSeen)
	assert.Equal(t, before.SSID, after.SSID)
	assert.Equal(t, 11, after.Channel)
	assert.Equal(t, -45, after.SignalDBM)
	assert.Len(t, after.Samples, 2)
}

func TestDuplicateEventAppendsSampleOnly(t *testing.T) {
	e := New()

	// The exact same frame twice, identical timestamp included.
	ev := presence("AA:BB:CC:00:00:01", "HomeNet", -50, testStart)
	require.NoError(t, e.OnEvent(ev))
	require.NoError(t, e.OnEvent(ev))

	assert.Equal(t, 1, e.TotalStations())

	st, ok := e.Station("AA:BB:CC:00:00:01")
	require.True(t, ok)
	assert.Equal(t, testStart, st.FirstSeen)
	assert.Equal(t, testStart, st.LastSeen)
	assert.Equal(t, "HomeNet", st.SSID)
	assert.Len(t, st.Samples, 2)
}

func TestConcealedStationGetsSentinelName(t *testing.T) {
	e := New()

	require.NoError(t, e.OnEvent(presence("AA:BB:CC:00:00:01", "", -70, testStart)))

	st, ok := e.Station("AA:BB:CC:00:00:01")
	require.True(t, ok)
	assert.True(t, st.Concealed)
	assert.Equal(t, wifi.HiddenSSID, st.SSID)
	assert.True(t, e.IsConcealed("AA:BB:CC:00:00:01"))
	assert.Equal(t, 1, e.ConcealedCount())
}

func TestDisclosureUncoversHiddenStation(t *testing.T) {
	e := New()

	require.NoError(t, e.OnEvent(presence("AA:BB:CC:00:00:01", "", -70, testStart)))
	require.NoError(t, e.OnEvent(disclosure("AA:BB:CC:00:00:01", "OFFICE-NET", testStart.Add(time.Second))))

	st, ok := e.Station("AA:BB:CC:00:00:01")
	require.True(t, ok)
	assert.False(t, st.Concealed)
	assert.Equal(t, "OFFICE-NET", st.SSID)
	assert.False(t, e.IsConcealed("AA:BB:CC:00:00:01"))
	require.NotNil(t, st.Classification)
	assert.Equal(t, wifi.CategoryEnterprise, st.Classification.Category)
}

func TestResolvedStationNeverReconceals(t *testing.T) {
	e := New()

	require.NoError(t, e.OnEvent(presence("AA:BB:CC:00:00:01", "", -70, testStart)))
	require.NoError(t, e.OnEvent(disclosure("AA:BB:CC:00:00:01", "OFFICE-NET", testStart.Add(time.Second))))

	// Later broadcasts omitting the name again must not undo the promotion.
	require.NoError(t, e.OnEvent(presence("AA:BB:CC:00:00:01", "", -68, testStart.Add(2*time.Second))))

	st, ok := e.Station("AA:BB:CC:00:00:01")
	require.True(t, ok)
	assert.False(t, st.Concealed)
	assert.Equal(t, "OFFICE-NET", st.SSID)
	assert.Equal(t, 0, e.ConcealedCount())
}

func TestNamedPresenceResolvesConcealedStation(t *testing.T) {
	e := New()

	require.NoError(t, e.OnEvent(presence("AA:BB:CC:00:00:01", "", -70, testStart)))
	require.NoError(t, e.OnEvent(presence("AA:BB:CC:00:00:01", "LateBloomer", -69, testStart.Add(time.Second))))

	st, ok := e.Station("AA:BB:CC:00:00:01")
	require.True(t, ok)
	assert.False(t, st.Concealed)
	assert.Equal(t, "LateBloomer", st.SSID)
}

func TestDisclosureForUnknownStationIsNoOp(t *testing.T) {
	e := New(WithMetrics(observability.NewMetricsForTesting()))

	require.NoError(t, e.OnEvent(disclosure("AA:BB:CC:00:00:09", "GhostNet", testStart)))
	assert.Equal(t, 0, e.TotalStations())
}

func TestDisclosureWithoutRealNameIsIgnored(t *testing.T) {
	e := New()

	require.NoError(t, e.OnEvent(presence("AA:BB:CC:00:00:01", "", -70, testStart)))
	require.NoError(t, e.OnEvent(disclosure("AA:BB:CC:00:00:01", "", testStart.Add(time.Second))))
	require.NoError(t, e.OnEvent(disclosure("AA:BB:CC:00:00:01", wifi.HiddenSSID, testStart.Add(2*time.Second))))

	st, ok := e.Station("AA:BB:CC:00:00:01")
	require.True(t, ok)
	assert.True(t, st.Concealed)
	assert.Equal(t, wifi.HiddenSSID, st.SSID)
}

func TestMalformedEventsAreRejected(t *testing.T) {
	e := New(WithMetrics(observability.NewMetricsForTesting()))

	tests := []struct {
		name string
		ev   wifi.FrameEvent
	}{
		{"missing station ID", wifi.FrameEvent{Timestamp: testStart, Kind: wifi.FramePresence}},
		{"missing timestamp", wifi.FrameEvent{StationID: "AA:BB:CC:00:00:01", Kind: wifi.FramePresence}},
		{"unknown kind", wifi.FrameEvent{StationID: "AA:BB:CC:00:00:01", Timestamp: testStart, Kind: "association"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := e.OnEvent(tc.ev)
			assert.ErrorIs(t, err, ErrMalformedEvent)
		})
	}

	assert.Equal(t, 0, e.TotalStations())
}

func TestSnapshotIsDetachedAndOrdered(t *testing.T) {
	e := New()

	require.NoError(t, e.OnEvent(presence("AA:BB:CC:00:00:02", "Second", -60, testStart)))
	require.NoError(t, e.OnEvent(presence("AA:BB:CC:00:00:01", "First", -50, testStart.Add(time.Second))))

	snap := e.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "AA:BB:CC:00:00:02", snap[0].ID)
	assert.Equal(t, "AA:BB:CC:00:00:01", snap[1].ID)

	// Mutating the snapshot must not leak into engine state.
	snap[0].SSID = "tampered"
	snap[0].Samples[0].SignalDBM = 0

	st, ok := e.Station("AA:BB:CC:00:00:02")
	require.True(t, ok)
	assert.Equal(t, "Second", st.SSID)
	assert.Equal(t, -60, st.Samples[0].SignalDBM)
}

func TestDistributionCountsEveryStationOnce(t *testing.T) {
	e := New()

	require.NoError(t, e.OnEvent(presence("AA:BB:CC:00:00:01", "CORP-STAFF", -50, testStart)))
	require.NoError(t, e.OnEvent(presence("AA:BB:CC:00:00:02", "FreeCafeGuest", -60, testStart)))
	require.NoError(t, e.OnEvent(presence("AA:BB:CC:00:00:03", "zzqx", -65, testStart)))

	dist := e.Distribution()
	assert.Equal(t, 1, dist[wifi.CategoryEnterprise])
	assert.Equal(t, 1, dist[wifi.CategoryPublic])
	assert.Equal(t, 1, dist[wifi.CategoryStandard])

	var total int
	for _, n := range dist {
		total += n
	}
	assert.Equal(t, e.TotalStations(), total)
}

func TestExportUsesClockForSessionBoundaries(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testStart)
	e := New(WithClock(clock))

	require.NoError(t, e.OnEvent(presence("AA:BB:CC:00:00:01", "", -70, testStart)))
	require.NoError(t, e.OnEvent(presence("AA:BB:CC:00:00:02", "HomeNet", -50, testStart)))
	clock.Advance(5 * time.Minute)

	report := e.Export()
	assert.Equal(t, testStart, report.SessionStart)
	assert.Equal(t, testStart.Add(5*time.Minute), report.SessionEnd)
	assert.Equal(t, 2, report.TotalStations)
	assert.Equal(t, 1, report.HiddenStations)
	require.Len(t, report.Stations, 2)
	assert.Equal(t, "AA:BB:CC:00:00:01", report.Stations[0].ID)
}

func TestResetStartsFreshSession(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testStart)
	e := New(WithClock(clock))

	require.NoError(t, e.OnEvent(presence("AA:BB:CC:00:00:01", "", -70, testStart)))
	clock.Advance(time.Hour)
	e.Reset()

	assert.Equal(t, 0, e.TotalStations())
	assert.Equal(t, 0, e.ConcealedCount())
	assert.Empty(t, e.Snapshot())
	assert.Equal(t, testStart.Add(time.Hour), e.Export().SessionStart)

	// Old IDs come back as brand-new stations.
	require.NoError(t, e.OnEvent(presence("AA:BB:CC:00:00:01", "", -70, testStart.Add(time.Hour))))
	assert.True(t, e.IsConcealed("AA:BB:CC:00:00:01"))
}

func TestDiscoveryCallback(t *testing.T) {
	type notification struct {
		id        string
		ssid      string
		uncovered bool
	}
	var got []notification

	e := New(WithDiscoveryFunc(func(s wifi.Station, uncovered bool) {
		got = append(got, notification{id: s.ID, ssid: s.SSID, uncovered: uncovered})
	}))

	require.NoError(t, e.OnEvent(presence("AA:BB:CC:00:00:01", "", -70, testStart)))
	require.NoError(t, e.OnEvent(presence("AA:BB:CC:00:00:01", "", -71, testStart.Add(time.Second))))
	require.NoError(t, e.OnEvent(disclosure("AA:BB:CC:00:00:01", "OFFICE-NET", testStart.Add(2*time.Second))))

	require.Len(t, got, 2)
	assert.Equal(t, notification{id: "AA:BB:CC:00:00:01", ssid: wifi.HiddenSSID, uncovered: false}, got[0])
	assert.Equal(t, notification{id: "AA:BB:CC:00:00:01", ssid: "OFFICE-NET", uncovered: true}, got[1])
}
