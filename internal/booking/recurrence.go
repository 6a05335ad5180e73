package booking

import "time"

// maxOccurrences bounds any recurring expansion, per spec.md §3's
// RecurringPattern note ("if end_date absent, expansion capped at 365
// occurrences").
const maxOccurrences = 365

// Occurrence is one generated instance of a recurring pattern, expressed as
// a start/end pair in the same location as the template booking's start.
type Occurrence struct {
	Start time.Time
	End   time.Time
}

// GenerateOccurrences expands pattern into a finite sequence of start/end
// pairs, a pure function with no side effects, per spec.md §9's design
// note ("do not persist a pattern-to-occurrences graph"). templateStart and
// templateEnd fix the time-of-day and duration; only the date advances.
// Grounded on the teacher's internal/recurrence/engine.go date-stepping
// style, generalized from daily/weekly-only and a fixed JST zone to
// daily/weekly/monthly and the caller's own *time.Location.
func GenerateOccurrences(pattern RecurringPattern, templateStart, templateEnd time.Time) []Occurrence {
	if pattern.Interval < 1 {
		pattern.Interval = 1
	}
	duration := templateEnd.Sub(templateStart)
	loc := templateStart.Location()

	weekdays := pattern.DaysOfWeek
	if pattern.Frequency == FrequencyWeekly && len(weekdays) == 0 {
		weekdays = []time.Weekday{templateStart.Weekday()}
	}

	var occurrences []Occurrence
	switch pattern.Frequency {
	case FrequencyDaily:
		for cursor := templateStart; len(occurrences) < maxOccurrences; cursor = cursor.AddDate(0, 0, pattern.Interval) {
			if pastEndDate(cursor, pattern.EndDate) {
				break
			}
			occurrences = append(occurrences, Occurrence{Start: cursor, End: cursor.Add(duration)})
		}
	case FrequencyWeekly:
		weekdaySet := make(map[time.Weekday]bool, len(weekdays))
		for _, d := range weekdays {
			weekdaySet[d] = true
		}
	weekLoop:
		// weekIndex counts weeks since templateStart's week, in steps of
		// Interval; the maxOccurrences*7 bound guarantees termination even
		// if EndDate is unset and every day of every included week matches.
		for weekIndex := 0; weekIndex < maxOccurrences*7; weekIndex += pattern.Interval {
			anchor := templateStart.AddDate(0, 0, 7*weekIndex)
			for dayOffset := 0; dayOffset < 7; dayOffset++ {
				candidate := anchor.AddDate(0, 0, dayOffset)
				if candidate.Before(templateStart) || !weekdaySet[candidate.Weekday()] {
					continue
				}
				if pastEndDate(candidate, pattern.EndDate) {
					break weekLoop
				}
				occurrences = append(occurrences, Occurrence{Start: candidate, End: candidate.Add(duration)})
				if len(occurrences) >= maxOccurrences {
					break weekLoop
				}
			}
		}
	case FrequencyMonthly:
		day := templateStart.Day()
		for month := 0; len(occurrences) < maxOccurrences; month += pattern.Interval {
			candidate := addMonthsClamped(templateStart, month, day, loc)
			if pastEndDate(candidate, pattern.EndDate) {
				break
			}
			occurrences = append(occurrences, Occurrence{Start: candidate, End: candidate.Add(duration)})
		}
	}

	return capOccurrences(occurrences)
}

// pastEndDate reports whether candidate falls on a calendar day after
// endDate's, in candidate's own location. end_date is a calendar boundary
// (the last day recurrence may land on), so the comparison ignores
// candidate's time-of-day rather than treating endDate as an exact instant
// — otherwise any template time-of-day after midnight would wrongly
// exclude the end date itself.
func pastEndDate(candidate time.Time, endDate *time.Time) bool {
	if endDate == nil {
		return false
	}
	end := endDate.In(candidate.Location())
	if candidate.Year() != end.Year() {
		return candidate.Year() > end.Year()
	}
	return candidate.YearDay() > end.YearDay()
}

func capOccurrences(occurrences []Occurrence) []Occurrence {
	if len(occurrences) > maxOccurrences {
		return occurrences[:maxOccurrences]
	}
	return occurrences
}

// addMonthsClamped adds months to base's year/month, keeping the requested
// day-of-month but clamping to the target month's last day (e.g. Jan 31 +
// 1 month lands on Feb 28/29, not March 3 as time.AddDate would produce).
func addMonthsClamped(base time.Time, months, day int, loc *time.Location) time.Time {
	y, m, _ := base.Date()
	targetMonth := time.Month(int(m) + months)
	targetYear := y
	for targetMonth < time.January {
		targetMonth += 12
		targetYear--
	}
	for targetMonth > time.December {
		targetMonth -= 12
		targetYear++
	}
	firstOfNext := time.Date(targetYear, targetMonth+1, 1, 0, 0, 0, 0, loc)
	lastDay := firstOfNext.AddDate(0, 0, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(targetYear, targetMonth, day, base.Hour(), base.Minute(), base.Second(), base.Nanosecond(), loc)
}
