package main

import (
	"fmt"
	"sort"
	"time"
)

// Interval is a half-open absolute time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// IsEmpty reports whether the interval contains no time at all.
func (iv Interval) IsEmpty() bool {
	return !iv.End.After(iv.Start)
}

// Duration returns the length of the interval, zero if empty.
func (iv Interval) Duration() time.Duration {
	if iv.IsEmpty() {
		return 0
	}
	return iv.End.Sub(iv.Start)
}

// Intersect returns the overlap of two intervals. The result may be empty.
func (iv Interval) Intersect(other Interval) Interval {
	out := iv
	if other.Start.After(out.Start) {
		out.Start = other.Start
	}
	if other.End.Before(out.End) {
		out.End = other.End
	}
	return out
}

// timeOfDay is seconds since local midnight. A value of 86400 means the
// following midnight, so a full day is [0, 86400).
type timeOfDay int

const endOfDay timeOfDay = 24 * 60 * 60

// parseTimeOfDay parses an HH:MM:SS local time string from the source data.
func parseTimeOfDay(s string) (timeOfDay, error) {
	var h, m, sec int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return timeOfDay(h*3600 + m*60 + sec), nil
}

// hoursRule is one scheduled-open span on a single weekday, normalized so
// that Start < End within the same local day.
type hoursRule struct {
	Day   time.Weekday
	Start timeOfDay
	End   timeOfDay
}

// StoreSchedule holds a store's weekly open hours in its own timezone.
// An empty rule set means the store is open 24/7.
type StoreSchedule struct {
	Location *time.Location
	Rules    []hoursRule
}

// weekdayFromSource converts the source data's day numbering (0=Monday ..
// 6=Sunday) to time.Weekday.
func weekdayFromSource(day int) time.Weekday {
	return time.Weekday((day + 1) % 7)
}

// newStoreSchedule normalizes a store's raw business-hour rows into a
// schedule. Rows whose end time is not after their start time are taken to
// span midnight and are split into two same-day spans, one ending at 24:00
// on the rule's weekday and one starting at 00:00 on the next.
func newStoreSchedule(rows []BusinessHours, loc *time.Location) (StoreSchedule, error) {
	sched := StoreSchedule{Location: loc}
	for _, row := range rows {
		if row.DayOfWeek < 0 || row.DayOfWeek > 6 {
			return StoreSchedule{}, fmt.Errorf("invalid day of week %d for store %s", row.DayOfWeek, row.StoreID)
		}
		start, err := parseTimeOfDay(row.StartTimeLocal)
		if err != nil {
			return StoreSchedule{}, fmt.Errorf("store %s: %w", row.StoreID, err)
		}
		end, err := parseTimeOfDay(row.EndTimeLocal)
		if err != nil {
			return StoreSchedule{}, fmt.Errorf("store %s: %w", row.StoreID, err)
		}
		day := weekdayFromSource(row.DayOfWeek)
		if end > start {
			sched.Rules = append(sched.Rules, hoursRule{Day: day, Start: start, End: end})
			continue
		}
		// Midnight-spanning shift.
		sched.Rules = append(sched.Rules, hoursRule{Day: day, Start: start, End: endOfDay})
		if end > 0 {
			sched.Rules = append(sched.Rules, hoursRule{Day: (day + 1) % 7, Start: 0, End: end})
		}
	}
	return sched, nil
}

// rulesFor returns the open spans scheduled on the given weekday, merged so
// that overlapping or touching spans become one.
func (s StoreSchedule) rulesFor(day time.Weekday) []hoursRule {
	var spans []hoursRule
	for _, r := range s.Rules {
		if r.Day == day {
			spans = append(spans, r)
		}
	}
	if len(spans) <= 1 {
		return spans
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	merged := spans[:1]
	for _, r := range spans[1:] {
		last := &merged[len(merged)-1]
		if r.Start <= last.End {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// clipToBusinessHours intersects an absolute time window with a store's
// local business hours and returns the scheduled-open portions as disjoint,
// chronologically sorted sub-intervals. A store without rules is open the
// whole window.
func clipToBusinessHours(sched StoreSchedule, window Interval) []Interval {
	if window.IsEmpty() {
		return nil
	}
	if len(sched.Rules) == 0 {
		return []Interval{window}
	}

	var open []Interval
	localStart := window.Start.In(sched.Location)
	localEnd := window.End.In(sched.Location)
	year, month, day := localStart.Date()
	endYear, endMonth, endDay := localEnd.Date()
	date := time.Date(year, month, day, 0, 0, 0, 0, sched.Location)
	last := time.Date(endYear, endMonth, endDay, 0, 0, 0, 0, sched.Location)

	for !date.After(last) {
		y, m, d := date.Date()
		for _, r := range sched.rulesFor(date.Weekday()) {
			// time.Date normalizes the seconds offset, which also
			// resolves DST gaps and 24:00 end times.
			span := Interval{
				Start: time.Date(y, m, d, 0, 0, int(r.Start), 0, sched.Location),
				End:   time.Date(y, m, d, 0, 0, int(r.End), 0, sched.Location),
			}
			if overlap := span.Intersect(window); !overlap.IsEmpty() {
				open = append(open, overlap)
			}
		}
		date = time.Date(y, m, d+1, 0, 0, 0, 0, sched.Location)
	}
	return open
}
