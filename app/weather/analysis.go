package weather

import (
	"math"

	"github.com/lwestby/hilltally/app/database"
)

// BandStat aggregates visits that fell inside one temperature band.
type BandStat struct {
	Band        string  `json:"band"`
	VisitCount  int     `json:"visit_count"`
	AvgHigh     float64 `json:"avg_high"`
	AvgSnowfall float64 `json:"avg_snowfall"`
}

// VisitConditions pairs a visit date with the weather recorded for it.
type VisitConditions struct {
	VisitDate  string  `json:"visit_date"`
	TempHigh   float64 `json:"temp_high"`
	TempLow    float64 `json:"temp_low"`
	Snowfall   float64 `json:"snowfall"`
	Conditions string  `json:"conditions"`
}

// Analysis summarizes the weather on days the hill was actually visited.
type Analysis struct {
	Bands    []BandStat        `json:"bands"`
	Visits   []VisitConditions `json:"visits"`
	Coverage float64           `json:"coverage"`
}

var bandOrder = []string{"Below 10°F", "10-20°F", "20-32°F", "Above 32°F"}

func bandFor(high float64) string {
	switch {
	case high < 10:
		return bandOrder[0]
	case high < 20:
		return bandOrder[1]
	case high <= 32:
		return bandOrder[2]
	default:
		return bandOrder[3]
	}
}

// Analyze joins a season's visits against cached weather days and buckets
// them by the day's high temperature. Visits with no cached weather count
// against coverage but appear in no band.
func Analyze(visits []database.Visit, weather []database.WeatherDay) Analysis {
	byDay := make(map[string]database.WeatherDay, len(weather))
	for _, day := range weather {
		byDay[day.Day] = day
	}

	type accum struct {
		count    int
		high     float64
		snowfall float64
	}
	bands := make(map[string]*accum)

	matched := []VisitConditions{}
	for _, visit := range visits {
		day, ok := byDay[visit.VisitDate]
		if !ok {
			continue
		}
		matched = append(matched, VisitConditions{
			VisitDate:  visit.VisitDate,
			TempHigh:   day.TempHigh,
			TempLow:    day.TempLow,
			Snowfall:   day.Snowfall,
			Conditions: day.Conditions,
		})
		band := bandFor(day.TempHigh)
		if bands[band] == nil {
			bands[band] = &accum{}
		}
		bands[band].count++
		bands[band].high += day.TempHigh
		bands[band].snowfall += day.Snowfall
	}

	stats := []BandStat{}
	for _, name := range bandOrder {
		acc := bands[name]
		if acc == nil {
			continue
		}
		stats = append(stats, BandStat{
			Band:        name,
			VisitCount:  acc.count,
			AvgHigh:     round1(acc.high / float64(acc.count)),
			AvgSnowfall: round1(acc.snowfall / float64(acc.count)),
		})
	}

	coverage := 0.0
	if len(visits) > 0 {
		coverage = float64(len(matched)) / float64(len(visits))
	}

	return Analysis{Bands: stats, Visits: matched, Coverage: round2(coverage)}
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
