package model

import (
	"strings"
	"time"
)

// Biometric metric names in their canonical snake_case form.
const (
	MetricHRVNight        = "hrv_night"
	MetricRestingHR       = "resting_hr"
	MetricDeepSleepPct    = "deep_sleep_pct"
	MetricREMSleepPct     = "rem_sleep_pct"
	MetricSleepDurationH  = "sleep_duration_h"
	MetricSpO2Night       = "spo2_night"
	MetricRespRateNight   = "resp_rate_night"
	MetricTempTrendC      = "temp_trend_c"
	MetricTrainingLoadPct = "training_load_pct"
)

// Metrics lists every biometric field in canonical order.
var Metrics = []string{
	MetricHRVNight,
	MetricRestingHR,
	MetricDeepSleepPct,
	MetricREMSleepPct,
	MetricSleepDurationH,
	MetricSpO2Night,
	MetricRespRateNight,
	MetricTempTrendC,
	MetricTrainingLoadPct,
}

// BiometricRecord is one day's readings for one athlete. Nil fields were
// absent or non-numeric upstream.
type BiometricRecord struct {
	AthleteID       string   `json:"athleteId"`
	Date            string   `json:"date"`
	HRVNight        *float64 `json:"hrvNight,omitempty"`
	RestingHR       *float64 `json:"restingHr,omitempty"`
	DeepSleepPct    *float64 `json:"deepSleepPct,omitempty"`
	REMSleepPct     *float64 `json:"remSleepPct,omitempty"`
	SleepDurationH  *float64 `json:"sleepDurationH,omitempty"`
	SpO2Night       *float64 `json:"spo2Night,omitempty"`
	RespRateNight   *float64 `json:"respRateNight,omitempty"`
	TempTrendC      *float64 `json:"tempTrendC,omitempty"`
	TrainingLoadPct *float64 `json:"trainingLoadPct,omitempty"`
}

// Valid reports whether the record can feed score computation: it needs an
// athlete, a date and at least one strictly positive reading.
func (b BiometricRecord) Valid() bool {
	if strings.TrimSpace(b.AthleteID) == "" || strings.TrimSpace(b.Date) == "" {
		return false
	}
	for _, name := range Metrics {
		if v, ok := b.Metric(name); ok && v > 0 {
			return true
		}
	}
	return false
}

// Metric returns the reading for name. Names are matched regardless of
// casing convention, so "hrv_night", "hrvNight" and "HrvNight" are equivalent.
func (b BiometricRecord) Metric(name string) (float64, bool) {
	p := b.field(name)
	if p == nil || *p == nil {
		return 0, false
	}
	return **p, true
}

// Set assigns the reading for name. Unknown names are ignored and reported
// as false.
func (b *BiometricRecord) Set(name string, v float64) bool {
	p := b.field(name)
	if p == nil {
		return false
	}
	*p = &v
	return true
}

// CanonicalMetric maps a metric name in any casing convention to its
// snake_case constant, or "" when the name is not a biometric field.
func CanonicalMetric(name string) string {
	key := metricKey(name)
	for _, m := range Metrics {
		if metricKey(m) == key {
			return m
		}
	}
	return ""
}

func (b *BiometricRecord) field(name string) **float64 {
	switch CanonicalMetric(name) {
	case MetricHRVNight:
		return &b.HRVNight
	case MetricRestingHR:
		return &b.RestingHR
	case MetricDeepSleepPct:
		return &b.DeepSleepPct
	case MetricREMSleepPct:
		return &b.REMSleepPct
	case MetricSleepDurationH:
		return &b.SleepDurationH
	case MetricSpO2Night:
		return &b.SpO2Night
	case MetricRespRateNight:
		return &b.RespRateNight
	case MetricTempTrendC:
		return &b.TempTrendC
	case MetricTrainingLoadPct:
		return &b.TrainingLoadPct
	default:
		return nil
	}
}

func metricKey(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", ""))
}

// dateLayouts are tried in order by ParseDate.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// ParseDate parses a record date in any of the layouts seen upstream.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
