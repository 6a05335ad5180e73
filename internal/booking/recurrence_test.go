package booking

import (
	"testing"
	"time"
)

func mustLoc(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	return loc
}

func TestGenerateOccurrences_DailyRespectsEndDate(t *testing.T) {
	loc := mustLoc(t)
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, loc)
	end := start.Add(time.Hour)
	endDate := time.Date(2026, 3, 5, 0, 0, 0, 0, loc)

	occurrences := GenerateOccurrences(RecurringPattern{Frequency: FrequencyDaily, Interval: 1, EndDate: &endDate}, start, end)

	if len(occurrences) != 5 {
		t.Fatalf("expected 5 daily occurrences, got %d", len(occurrences))
	}
	if !occurrences[0].Start.Equal(start) {
		t.Fatalf("first occurrence should equal the template start, got %v", occurrences[0].Start)
	}
	if !occurrences[4].Start.Equal(time.Date(2026, 3, 5, 10, 0, 0, 0, loc)) {
		t.Fatalf("last occurrence should land on 2026-03-05, got %v", occurrences[4].Start)
	}
}

func TestGenerateOccurrences_DailyCapsAt365WithNoEndDate(t *testing.T) {
	loc := mustLoc(t)
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, loc)
	end := start.Add(time.Hour)

	occurrences := GenerateOccurrences(RecurringPattern{Frequency: FrequencyDaily, Interval: 1}, start, end)

	if len(occurrences) != maxOccurrences {
		t.Fatalf("expected the expansion capped at %d, got %d", maxOccurrences, len(occurrences))
	}
}

func TestGenerateOccurrences_WeeklyDefaultsToTemplateWeekday(t *testing.T) {
	loc := mustLoc(t)
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, loc) // a Monday
	end := start.Add(30 * time.Minute)
	endDate := time.Date(2026, 3, 23, 0, 0, 0, 0, loc)

	occurrences := GenerateOccurrences(RecurringPattern{Frequency: FrequencyWeekly, Interval: 1, EndDate: &endDate}, start, end)

	if len(occurrences) != 4 {
		t.Fatalf("expected 4 weekly occurrences, got %d", len(occurrences))
	}
	for _, occ := range occurrences {
		if occ.Start.Weekday() != time.Monday {
			t.Fatalf("expected every occurrence on Monday, got %v", occ.Start.Weekday())
		}
	}
}

func TestGenerateOccurrences_WeeklyMultipleDaysOfWeek(t *testing.T) {
	loc := mustLoc(t)
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, loc) // Monday
	end := start.Add(30 * time.Minute)
	endDate := time.Date(2026, 3, 15, 0, 0, 0, 0, loc)

	occurrences := GenerateOccurrences(RecurringPattern{
		Frequency: FrequencyWeekly, Interval: 1, EndDate: &endDate,
		DaysOfWeek: []time.Weekday{time.Monday, time.Wednesday},
	}, start, end)

	// Mon 3/2, Wed 3/4, Mon 3/9, Wed 3/11, Mon 3/16 excluded by end date.
	if len(occurrences) != 4 {
		t.Fatalf("expected 4 occurrences across Mon/Wed, got %d", len(occurrences))
	}
}

func TestGenerateOccurrences_WeeklyIntervalTwoSkipsWeeks(t *testing.T) {
	loc := mustLoc(t)
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, loc) // Monday
	end := start.Add(30 * time.Minute)
	endDate := time.Date(2026, 4, 1, 0, 0, 0, 0, loc)

	occurrences := GenerateOccurrences(RecurringPattern{Frequency: FrequencyWeekly, Interval: 2, EndDate: &endDate}, start, end)

	if len(occurrences) != 3 {
		t.Fatalf("expected occurrences every other Monday (3/2, 3/16, 3/30), got %d", len(occurrences))
	}
}

func TestGenerateOccurrences_MonthlyClampsToShorterMonth(t *testing.T) {
	loc := mustLoc(t)
	start := time.Date(2026, 1, 31, 9, 0, 0, 0, loc)
	end := start.Add(time.Hour)
	endDate := time.Date(2026, 4, 1, 0, 0, 0, 0, loc)

	occurrences := GenerateOccurrences(RecurringPattern{Frequency: FrequencyMonthly, Interval: 1, EndDate: &endDate}, start, end)

	if len(occurrences) != 3 {
		t.Fatalf("expected Jan 31, Feb 28, Mar 31, got %d occurrences", len(occurrences))
	}
	if occurrences[1].Start.Day() != 28 {
		t.Fatalf("expected February occurrence clamped to day 28, got day %d", occurrences[1].Start.Day())
	}
	if occurrences[2].Start.Day() != 31 {
		t.Fatalf("expected March occurrence to return to day 31, got day %d", occurrences[2].Start.Day())
	}
}

func TestGenerateOccurrences_PreservesDurationAcrossOccurrences(t *testing.T) {
	loc := mustLoc(t)
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, loc)
	end := start.Add(90 * time.Minute)
	endDate := time.Date(2026, 3, 3, 0, 0, 0, 0, loc)

	occurrences := GenerateOccurrences(RecurringPattern{Frequency: FrequencyDaily, Interval: 1, EndDate: &endDate}, start, end)

	for _, occ := range occurrences {
		if occ.End.Sub(occ.Start) != 90*time.Minute {
			t.Fatalf("expected every occurrence to preserve the 90-minute template duration, got %v", occ.End.Sub(occ.Start))
		}
	}
}
