// Package cohort aggregates biometric metrics across a population of athletes.
package cohort

import (
	"math"
	"strings"

	"github.com/okian/athletix/internal/domain/model"
)

// Side is the mean of one group of records.
type Side struct {
	Mean    float64 `json:"mean"`
	Samples int     `json:"samples"`
	OK      bool    `json:"ok"`
}

// Comparison sets one athlete against everyone else for a metric.
type Comparison struct {
	Metric    string   `json:"metric"`
	AthleteID string   `json:"athleteId"`
	Athlete   Side     `json:"athlete"`
	Team      Side     `json:"team"`
	Delta     *float64 `json:"delta,omitempty"`
}

// TeamAverage is the arithmetic mean of metric over the valid records of
// population. Records of excludeAthleteID are skipped when it is not empty.
// Invalid records and records without the metric contribute to neither the
// sum nor the count. The boolean is false when no record contributed.
func TeamAverage(metric, excludeAthleteID string, population []model.BiometricRecord) (float64, bool) {
	s := mean(metric, population, func(r model.BiometricRecord) bool {
		return excludeAthleteID == "" || !sameAthlete(r.AthleteID, excludeAthleteID)
	})
	return s.Mean, s.OK
}

// Compare reports the athlete's own mean against the mean of everyone else.
func Compare(metric, athleteID string, population []model.BiometricRecord) Comparison {
	c := Comparison{Metric: model.CanonicalMetric(metric), AthleteID: athleteID}
	c.Athlete = mean(metric, population, func(r model.BiometricRecord) bool {
		return sameAthlete(r.AthleteID, athleteID)
	})
	c.Team = mean(metric, population, func(r model.BiometricRecord) bool {
		return !sameAthlete(r.AthleteID, athleteID)
	})
	if c.Athlete.OK && c.Team.OK {
		d := c.Athlete.Mean - c.Team.Mean
		c.Delta = &d
	}
	return c
}

func mean(metric string, population []model.BiometricRecord, include func(model.BiometricRecord) bool) Side {
	if model.CanonicalMetric(metric) == "" {
		return Side{}
	}
	var sum float64
	var n int
	for _, r := range population {
		if !r.Valid() || !include(r) {
			continue
		}
		v, ok := r.Metric(metric)
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return Side{}
	}
	return Side{Mean: sum / float64(n), Samples: n, OK: true}
}

func sameAthlete(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
