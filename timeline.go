package main

import (
	"sort"
	"time"
)

// Observation is one status poll for a store, held in memory during
// aggregation.
type Observation struct {
	Timestamp time.Time
	Status    string
}

// ExtrapolationPolicy decides where, inside the gap between two consecutive
// observations, the reconstructed status flips from the earlier reading to
// the later one. The returned instant must lie in [t1, t2].
type ExtrapolationPolicy interface {
	SplitAt(t1, t2 time.Time) time.Time
}

// midpointPolicy assigns every instant the status of its nearest
// observation: the gap is split at its midpoint.
type midpointPolicy struct{}

func (midpointPolicy) SplitAt(t1, t2 time.Time) time.Time {
	return t1.Add(t2.Sub(t1) / 2)
}

// carriedForwardPolicy keeps the earlier status until the next observation
// arrives.
type carriedForwardPolicy struct{}

func (carriedForwardPolicy) SplitAt(_, t2 time.Time) time.Time {
	return t2
}

// Policy names accepted in the config file.
const (
	PolicyMidpoint       = "midpoint"
	PolicyCarriedForward = "carried-forward"
)

// policyByName resolves a configured policy name, defaulting to the
// midpoint split.
func policyByName(name string) ExtrapolationPolicy {
	if name == PolicyCarriedForward {
		return carriedForwardPolicy{}
	}
	return midpointPolicy{}
}

// StatusTimeline reconstructs a continuous active/inactive step function
// from a store's sparse observations. Outside the observed range the status
// extrapolates flat from the nearest observation; between observations the
// policy places the flip point. A timeline with no observations has no
// status anywhere.
type StatusTimeline struct {
	obs    []Observation
	policy ExtrapolationPolicy
}

// newStatusTimeline builds a timeline over a copy of obs sorted by
// timestamp.
func newStatusTimeline(obs []Observation, policy ExtrapolationPolicy) StatusTimeline {
	sorted := make([]Observation, len(obs))
	copy(sorted, obs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return StatusTimeline{obs: sorted, policy: policy}
}

// hasData reports whether the timeline contains any observation at all.
func (tl StatusTimeline) hasData() bool {
	return len(tl.obs) > 0
}

// statusAt returns the reconstructed status at t. The second return value
// is false when the timeline has no observations.
func (tl StatusTimeline) statusAt(t time.Time) (string, bool) {
	if !tl.hasData() {
		return "", false
	}
	// First observation whose segment has not yet ended at t.
	i := sort.Search(len(tl.obs)-1, func(i int) bool {
		return t.Before(tl.policy.SplitAt(tl.obs[i].Timestamp, tl.obs[i+1].Timestamp))
	})
	return tl.obs[i].Status, true
}

// integrate sums the reconstructed step function over iv, clipped to its
// boundaries, and returns the total active and inactive time inside it.
func (tl StatusTimeline) integrate(iv Interval) (active, inactive time.Duration) {
	if !tl.hasData() || iv.IsEmpty() {
		return 0, 0
	}
	cursor := iv.Start
	for i := range tl.obs {
		segEnd := iv.End
		if i < len(tl.obs)-1 {
			split := tl.policy.SplitAt(tl.obs[i].Timestamp, tl.obs[i+1].Timestamp)
			if split.Before(segEnd) {
				segEnd = split
			}
		}
		if segEnd.After(cursor) {
			d := segEnd.Sub(cursor)
			if tl.obs[i].Status == StatusActive {
				active += d
			} else {
				inactive += d
			}
			cursor = segEnd
		}
		if !cursor.Before(iv.End) {
			break
		}
	}
	return active, inactive
}
