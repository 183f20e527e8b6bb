// Package design implements switchback experiment assignment: time is cut
// into fixed periods and whole periods alternate between arms, starting from
// a seeded random arm. Events are then labeled with the arm of the period
// they fall into.
package design

import (
	"math/rand"
	"sort"
	"time"

	"abx/domain/ab"
	"abx/domain/core"
)

// PeriodAssignment records the arm serving one switchback period.
type PeriodAssignment struct {
	PeriodStart time.Time `json:"period_start"`
	Group       ab.Group  `json:"group"`
}

// EventLabel is an event joined to the period assignment covering it.
// Assigned is false when the event predates every period.
type EventLabel struct {
	Timestamp   time.Time `json:"timestamp"`
	PeriodStart time.Time `json:"period_start"`
	Group       ab.Group  `json:"group"`
	Assigned    bool      `json:"assigned"`
}

// AssignSwitchback buckets the timestamps into periods of the given length
// and assigns arms that alternate period over period. The starting arm is
// drawn from the seed, so a design is reproducible given (timestamps,
// period, seed). Returned assignments are sorted by period start.
func AssignSwitchback(timestamps []time.Time, period time.Duration, seed int64) ([]PeriodAssignment, error) {
	if period <= 0 {
		return nil, core.NewValidationError("period must be a positive duration")
	}
	if len(timestamps) == 0 {
		return nil, core.NewValidationError("timestamps must be non-empty")
	}

	seen := map[time.Time]struct{}{}
	starts := make([]time.Time, 0, len(timestamps))
	for _, ts := range timestamps {
		start := ts.Truncate(period)
		if _, ok := seen[start]; ok {
			continue
		}
		seen[start] = struct{}{}
		starts = append(starts, start)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	arm := ab.Control
	if rand.New(rand.NewSource(seed)).Intn(2) == 1 {
		arm = ab.Treatment
	}

	assignments := make([]PeriodAssignment, len(starts))
	for i, start := range starts {
		assignments[i] = PeriodAssignment{PeriodStart: start, Group: arm}
		if arm == ab.Control {
			arm = ab.Treatment
		} else {
			arm = ab.Control
		}
	}
	return assignments, nil
}

// LabelEventsByPeriod joins each event to the latest period assignment at or
// before it. Events earlier than the first period come back with Assigned
// false. The assignments slice need not be sorted.
func LabelEventsByPeriod(events []time.Time, assignments []PeriodAssignment) ([]EventLabel, error) {
	if len(assignments) == 0 {
		return nil, core.NewValidationError("assignments must be non-empty")
	}

	sorted := make([]PeriodAssignment, len(assignments))
	copy(sorted, assignments)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PeriodStart.Before(sorted[j].PeriodStart) })

	labels := make([]EventLabel, len(events))
	for i, ts := range events {
		// Index of the first period starting after ts; the one before it
		// covers the event.
		idx := sort.Search(len(sorted), func(j int) bool { return sorted[j].PeriodStart.After(ts) })
		if idx == 0 {
			labels[i] = EventLabel{Timestamp: ts, Assigned: false}
			continue
		}
		a := sorted[idx-1]
		labels[i] = EventLabel{Timestamp: ts, PeriodStart: a.PeriodStart, Group: a.Group, Assigned: true}
	}
	return labels, nil
}
