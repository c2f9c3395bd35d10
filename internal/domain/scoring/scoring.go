// Package scoring computes composite readiness scores from biometric records.
package scoring

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/okian/athletix/internal/domain/model"
)

const maxScoreValue = 100

// Trend directions reported by Latest.
const (
	TrendUp   = "up"
	TrendDown = "down"
	TrendFlat = "flat"
)

// Direction tells whether larger readings are better or worse.
type Direction int

const (
	HigherIsBetter Direction = iota
	LowerIsBetter
)

// Band maps a reading onto [0,1] linearly between Lo and Hi, clamped.
type Band struct {
	Lo        float64
	Hi        float64
	Direction Direction
}

func (b Band) normalize(v float64) float64 {
	if b.Hi <= b.Lo {
		return 0
	}
	x := (v - b.Lo) / (b.Hi - b.Lo)
	x = math.Max(0, math.Min(1, x))
	if b.Direction == LowerIsBetter {
		return 1 - x
	}
	return x
}

// defaultBands are the physiological ranges used unless overridden.
var defaultBands = map[string]Band{
	model.MetricHRVNight:       {Lo: 20, Hi: 120, Direction: HigherIsBetter},
	model.MetricRestingHR:      {Lo: 40, Hi: 90, Direction: LowerIsBetter},
	model.MetricSleepDurationH: {Lo: 4, Hi: 9, Direction: HigherIsBetter},
	model.MetricSpO2Night:      {Lo: 90, Hi: 100, Direction: HigherIsBetter},
}

var defaultWeights = map[string]float64{
	model.MetricHRVNight:       0.35,
	model.MetricRestingHR:      0.25,
	model.MetricSleepDurationH: 0.25,
	model.MetricSpO2Night:      0.15,
}

// Fields lists the scored biometric fields in a fixed order.
var Fields = []string{
	model.MetricHRVNight,
	model.MetricRestingHR,
	model.MetricSleepDurationH,
	model.MetricSpO2Night,
}

// Option applies a configuration option to the ReadinessScorer.
type Option func(*ReadinessScorer)

// WithWeights overrides per-field weights. Unknown fields and non-positive
// weights are ignored.
func WithWeights(weights map[string]float64) Option {
	return func(s *ReadinessScorer) {
		for name, w := range weights {
			field := model.CanonicalMetric(name)
			if _, scored := s.bands[field]; scored && w > 0 {
				s.weights[field] = w
			}
		}
	}
}

// WithRange overrides the normalization range of a scored field. The field's
// direction is kept.
func WithRange(field string, lo, hi float64) Option {
	return func(s *ReadinessScorer) {
		name := model.CanonicalMetric(field)
		b, ok := s.bands[name]
		if !ok || hi <= lo {
			return
		}
		b.Lo, b.Hi = lo, hi
		s.bands[name] = b
	}
}

// Result is a scored record.
type Result struct {
	AthleteID string             `json:"athleteId"`
	Date      string             `json:"date"`
	Score     float64            `json:"score"`
	Fields    []string           `json:"fields"`
	SubScores map[string]float64 `json:"subScores"`
	Trend     string             `json:"trend,omitempty"`
	Previous  *float64           `json:"previous,omitempty"`
}

// Usable reports whether any field contributed to the score.
func (r Result) Usable() bool {
	return len(r.Fields) > 0
}

// ReadinessScorer computes readiness scores. It is safe for concurrent use
// once constructed.
type ReadinessScorer struct {
	bands   map[string]Band
	weights map[string]float64
}

// NewReadinessScorer creates a scorer with configuration options.
func NewReadinessScorer(opts ...Option) *ReadinessScorer {
	s := &ReadinessScorer{
		bands:   make(map[string]Band, len(defaultBands)),
		weights: make(map[string]float64, len(defaultWeights)),
	}
	for k, v := range defaultBands {
		s.bands[k] = v
	}
	for k, v := range defaultWeights {
		s.weights[k] = v
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score returns the readiness score of rec in [0,100]. Absent fields and
// non-positive readings are excluded from the weighted mean; a record with
// no usable field scores 0.
func (s *ReadinessScorer) Score(rec model.BiometricRecord) float64 {
	return s.Breakdown(rec).Score
}

// Breakdown scores rec and reports which fields contributed.
func (s *ReadinessScorer) Breakdown(rec model.BiometricRecord) Result {
	res := Result{AthleteID: rec.AthleteID, Date: rec.Date, SubScores: make(map[string]float64)}
	var sum, weight float64
	for _, field := range Fields {
		v, ok := rec.Metric(field)
		if !ok || v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		w := s.weights[field]
		if w <= 0 {
			continue
		}
		sub := s.bands[field].normalize(v) * maxScoreValue
		res.SubScores[field] = sub
		res.Fields = append(res.Fields, field)
		sum += sub * w
		weight += w
	}
	if weight > 0 {
		res.Score = math.Max(0, math.Min(maxScoreValue, sum/weight))
	}
	return res
}

// Latest scores the most recent valid record and compares it with the one
// before it. Only records of the same athlete as the latest are compared.
// The boolean is false when no valid record exists.
func (s *ReadinessScorer) Latest(records []model.BiometricRecord) (Result, bool) {
	valid := make([]model.BiometricRecord, 0, len(records))
	for _, r := range records {
		if r.Valid() {
			valid = append(valid, r)
		}
	}
	if len(valid) == 0 {
		return Result{}, false
	}
	sort.SliceStable(valid, func(i, j int) bool {
		return dateKey(valid[i].Date).Before(dateKey(valid[j].Date))
	})

	latest := valid[len(valid)-1]
	res := s.Breakdown(latest)
	for i := len(valid) - 2; i >= 0; i-- {
		if !strings.EqualFold(valid[i].AthleteID, latest.AthleteID) {
			continue
		}
		prev := s.Score(valid[i])
		res.Previous = &prev
		res.Trend = trend(prev, res.Score)
		break
	}
	return res, true
}

func trend(prev, cur float64) string {
	const epsilon = 0.5
	switch {
	case cur-prev > epsilon:
		return TrendUp
	case prev-cur > epsilon:
		return TrendDown
	default:
		return TrendFlat
	}
}

// dateKey sorts unparseable dates first.
func dateKey(s string) time.Time {
	t, _ := model.ParseDate(s)
	return t
}
