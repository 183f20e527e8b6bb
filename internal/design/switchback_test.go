package design

import (
	"testing"
	"time"

	"abx/domain/ab"
	"abx/domain/core"
)

func TestAssignSwitchback_AlternatesPeriods(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	var timestamps []time.Time
	for i := 0; i < 48; i++ {
		timestamps = append(timestamps, base.Add(time.Duration(i)*30*time.Minute))
	}

	assignments, err := AssignSwitchback(timestamps, time.Hour, 1)
	if err != nil {
		t.Fatalf("AssignSwitchback failed: %v", err)
	}
	if len(assignments) != 24 {
		t.Fatalf("Expected 24 hourly periods, got %d", len(assignments))
	}
	for i := 1; i < len(assignments); i++ {
		if !assignments[i-1].PeriodStart.Before(assignments[i].PeriodStart) {
			t.Fatal("Assignments should be sorted by period start")
		}
		if assignments[i].Group == assignments[i-1].Group {
			t.Errorf("Consecutive periods must alternate arms: %d and %d both %v",
				i-1, i, assignments[i].Group)
		}
	}
}

func TestAssignSwitchback_SeedDeterminesStartingArm(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	timestamps := []time.Time{base, base.Add(time.Hour), base.Add(2 * time.Hour)}

	first, err := AssignSwitchback(timestamps, time.Hour, 99)
	if err != nil {
		t.Fatalf("AssignSwitchback failed: %v", err)
	}
	second, err := AssignSwitchback(timestamps, time.Hour, 99)
	if err != nil {
		t.Fatalf("AssignSwitchback rerun failed: %v", err)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Same seed must reproduce the design: %+v vs %+v", first[i], second[i])
		}
	}
}

func TestAssignSwitchback_Validation(t *testing.T) {
	base := time.Now()
	if _, err := AssignSwitchback([]time.Time{base}, 0, 1); !core.IsValidationError(err) {
		t.Errorf("Zero period should fail, got %v", err)
	}
	if _, err := AssignSwitchback(nil, time.Hour, 1); !core.IsValidationError(err) {
		t.Errorf("Empty timestamps should fail, got %v", err)
	}
}

func TestLabelEventsByPeriod(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	assignments := []PeriodAssignment{
		{PeriodStart: base, Group: ab.Control},
		{PeriodStart: base.Add(time.Hour), Group: ab.Treatment},
	}

	events := []time.Time{
		base.Add(-time.Minute),             // before the design
		base.Add(10 * time.Minute),         // first period
		base.Add(time.Hour),                // boundary opens the second period
		base.Add(90 * time.Minute),         // second period
		base.Add(5 * time.Hour),            // after the last period start
	}
	labels, err := LabelEventsByPeriod(events, assignments)
	if err != nil {
		t.Fatalf("LabelEventsByPeriod failed: %v", err)
	}

	if labels[0].Assigned {
		t.Error("Event before the first period must be unassigned")
	}
	if !labels[1].Assigned || labels[1].Group != ab.Control {
		t.Errorf("Event in the first period should be control, got %+v", labels[1])
	}
	if !labels[2].Assigned || labels[2].Group != ab.Treatment {
		t.Errorf("Boundary event belongs to the opening period, got %+v", labels[2])
	}
	if labels[3].Group != ab.Treatment {
		t.Errorf("Event in the second period should be treatment, got %+v", labels[3])
	}
	if labels[4].Group != ab.Treatment || labels[4].PeriodStart != base.Add(time.Hour) {
		t.Errorf("Late event takes the last period, got %+v", labels[4])
	}

	if _, err := LabelEventsByPeriod(events, nil); !core.IsValidationError(err) {
		t.Errorf("Empty assignments should fail, got %v", err)
	}
}
