package projection

import (
	"math"
	"time"
)

// Scenario is a linear-rate forecast of total season visits for a set of
// hypothetical season-end dates.
type Scenario struct {
	ConservativeTotal int     `json:"conservative_total"`
	AverageTotal      int     `json:"average_total"`
	OptimisticTotal   int     `json:"optimistic_total"`
	CustomTotal       *int    `json:"custom_total,omitempty"`
	RemainingDays     int     `json:"remaining_days"`
	VisitRate         float64 `json:"visit_rate"`
}

// Calculate projects season totals from the visit rate so far. The rate used
// for the projections is unrounded; VisitRate is rounded to 2 decimals for
// display. RemainingDays reports the average scenario unless a custom end
// date is supplied, in which case the custom scenario wins.
func Calculate(currentTotal, daysElapsed int, conservativeEnd, averageEnd, optimisticEnd, today time.Time, customEnd *time.Time) Scenario {
	if daysElapsed < 1 {
		daysElapsed = 1
	}
	visitRate := float64(currentTotal) / float64(daysElapsed)

	conservativeDays := remainingDays(conservativeEnd, today)
	averageDays := remainingDays(averageEnd, today)
	optimisticDays := remainingDays(optimisticEnd, today)

	scenario := Scenario{
		ConservativeTotal: project(currentTotal, visitRate, conservativeDays),
		AverageTotal:      project(currentTotal, visitRate, averageDays),
		OptimisticTotal:   project(currentTotal, visitRate, optimisticDays),
		RemainingDays:     averageDays,
		VisitRate:         math.Round(visitRate*100) / 100,
	}

	if customEnd != nil {
		customDays := remainingDays(*customEnd, today)
		customTotal := project(currentTotal, visitRate, customDays)
		scenario.CustomTotal = &customTotal
		scenario.RemainingDays = customDays
	}

	return scenario
}

func remainingDays(end, today time.Time) int {
	days := int(math.Floor(end.Sub(today).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}

func project(currentTotal int, visitRate float64, days int) int {
	return int(math.Round(float64(currentTotal) + visitRate*float64(days)))
}

// EstimateSeasonEndDates returns the conservative/average/optimistic closing
// dates for the season containing today. The hill typically closes
// mid-to-late March; once past the optimistic date the estimates roll over
// to next year.
func EstimateSeasonEndDates(today time.Time) (conservative, average, optimistic time.Time) {
	year := today.Year()

	conservative = time.Date(year, time.March, 15, 0, 0, 0, 0, today.Location())
	average = time.Date(year, time.March, 20, 0, 0, 0, 0, today.Location())
	optimistic = time.Date(year, time.March, 26, 0, 0, 0, 0, today.Location())

	if today.After(optimistic) {
		conservative = conservative.AddDate(1, 0, 0)
		average = average.AddDate(1, 0, 0)
		optimistic = optimistic.AddDate(1, 0, 0)
	}

	return conservative, average, optimistic
}

// WeeklyCounts buckets visit dates by calendar week, keyed by the preceding
// Sunday in YYYY-MM-DD form. Weeks without visits are absent; gap-filling
// for charting is the presentation layer's problem.
func WeeklyCounts(dates []time.Time) map[string]int {
	counts := make(map[string]int)
	for _, date := range dates {
		weekStart := date.AddDate(0, 0, -int(date.Weekday()))
		counts[weekStart.Format("2006-01-02")]++
	}
	return counts
}

// DailyCounts buckets visit dates by exact calendar day.
func DailyCounts(dates []time.Time) map[string]int {
	counts := make(map[string]int)
	for _, date := range dates {
		counts[date.Format("2006-01-02")]++
	}
	return counts
}
