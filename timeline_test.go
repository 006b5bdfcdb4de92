package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimelineMidpointSplit(t *testing.T) {
	t0 := utc(2023, time.January, 25, 10, 0)
	tl := newStatusTimeline([]Observation{
		{Timestamp: t0, Status: StatusActive},
		{Timestamp: t0.Add(2 * time.Hour), Status: StatusInactive},
	}, midpointPolicy{})

	active, inactive := tl.integrate(Interval{Start: t0, End: t0.Add(2 * time.Hour)})

	assert.Equal(t, time.Hour, active)
	assert.Equal(t, time.Hour, inactive)
}

func TestTimelineEndToEndReconstruction(t *testing.T) {
	// active at t0, inactive at t0+30m, active at t0+90m over [t0, t0+90m):
	// active [t0, t0+15m), inactive [t0+15m, t0+60m), active [t0+60m, t0+90m).
	t0 := utc(2023, time.January, 25, 10, 0)
	tl := newStatusTimeline([]Observation{
		{Timestamp: t0, Status: StatusActive},
		{Timestamp: t0.Add(30 * time.Minute), Status: StatusInactive},
		{Timestamp: t0.Add(90 * time.Minute), Status: StatusActive},
	}, midpointPolicy{})

	active, inactive := tl.integrate(Interval{Start: t0, End: t0.Add(90 * time.Minute)})

	assert.Equal(t, 45*time.Minute, active)
	assert.Equal(t, 45*time.Minute, inactive)
}

func TestTimelineFlatExtrapolationBeyondObservations(t *testing.T) {
	t0 := utc(2023, time.January, 25, 10, 0)
	tl := newStatusTimeline([]Observation{
		{Timestamp: t0.Add(30 * time.Minute), Status: StatusActive},
	}, midpointPolicy{})

	// The single observation covers the whole query range, before and after.
	active, inactive := tl.integrate(Interval{Start: t0, End: t0.Add(time.Hour)})
	assert.Equal(t, time.Hour, active)
	assert.Equal(t, time.Duration(0), inactive)

	status, ok := tl.statusAt(t0)
	require.True(t, ok)
	assert.Equal(t, StatusActive, status)
	status, ok = tl.statusAt(t0.Add(5 * time.Hour))
	require.True(t, ok)
	assert.Equal(t, StatusActive, status)
}

func TestTimelineStatusAtMidpointBoundary(t *testing.T) {
	t0 := utc(2023, time.January, 25, 10, 0)
	tl := newStatusTimeline([]Observation{
		{Timestamp: t0, Status: StatusActive},
		{Timestamp: t0.Add(time.Hour), Status: StatusInactive},
	}, midpointPolicy{})

	status, _ := tl.statusAt(t0.Add(29 * time.Minute))
	assert.Equal(t, StatusActive, status)
	// The midpoint itself belongs to the later observation.
	status, _ = tl.statusAt(t0.Add(30 * time.Minute))
	assert.Equal(t, StatusInactive, status)
}

func TestTimelineNoObservations(t *testing.T) {
	tl := newStatusTimeline(nil, midpointPolicy{})

	assert.False(t, tl.hasData())
	_, ok := tl.statusAt(utc(2023, time.January, 25, 10, 0))
	assert.False(t, ok)

	active, inactive := tl.integrate(Interval{
		Start: utc(2023, time.January, 25, 10, 0),
		End:   utc(2023, time.January, 25, 11, 0),
	})
	assert.Equal(t, time.Duration(0), active)
	assert.Equal(t, time.Duration(0), inactive)
}

func TestTimelineSortsUnorderedObservations(t *testing.T) {
	t0 := utc(2023, time.January, 25, 10, 0)
	tl := newStatusTimeline([]Observation{
		{Timestamp: t0.Add(2 * time.Hour), Status: StatusInactive},
		{Timestamp: t0, Status: StatusActive},
	}, midpointPolicy{})

	active, inactive := tl.integrate(Interval{Start: t0, End: t0.Add(2 * time.Hour)})
	assert.Equal(t, time.Hour, active)
	assert.Equal(t, time.Hour, inactive)
}

func TestCarriedForwardPolicy(t *testing.T) {
	t0 := utc(2023, time.January, 25, 10, 0)
	obs := []Observation{
		{Timestamp: t0, Status: StatusActive},
		{Timestamp: t0.Add(30 * time.Minute), Status: StatusInactive},
	}
	window := Interval{Start: t0, End: t0.Add(time.Hour)}

	// Carried forward: active until the inactive poll arrives at t0+30m.
	cf := newStatusTimeline(obs, carriedForwardPolicy{})
	active, inactive := cf.integrate(window)
	assert.Equal(t, 30*time.Minute, active)
	assert.Equal(t, 30*time.Minute, inactive)

	// Midpoint: the flip happens at t0+15m.
	mp := newStatusTimeline(obs, midpointPolicy{})
	active, inactive = mp.integrate(window)
	assert.Equal(t, 15*time.Minute, active)
	assert.Equal(t, 45*time.Minute, inactive)
}

func TestPolicyByName(t *testing.T) {
	assert.IsType(t, midpointPolicy{}, policyByName(PolicyMidpoint))
	assert.IsType(t, carriedForwardPolicy{}, policyByName(PolicyCarriedForward))
	assert.IsType(t, midpointPolicy{}, policyByName(""))
}
