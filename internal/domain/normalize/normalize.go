package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/okian/athletix/internal/domain/fields"
	"github.com/okian/athletix/internal/domain/model"
)

// NewResolver returns a field resolver carrying the spellings seen in
// upstream genetic and biometric documents.
func NewResolver() *fields.Resolver {
	return fields.New(
		fields.WithAliases("gene", "GeneName", "GeneSymbol"),
		fields.WithAliases("genotype", "GeneticCall", "Call"),
		fields.WithAliases("rsid", "RsId", "SnpId"),
		fields.WithAliases("category", "TestCategory"),
		fields.WithAliases("athlete_id", "AthleteId", "UserId"),
		fields.WithAliases("date", "Day", "RecordedAt"),
		fields.WithAliases(model.MetricHRVNight, "hrv"),
		fields.WithAliases(model.MetricRestingHR, "rhr", "resting_heart_rate"),
		fields.WithAliases(model.MetricSleepDurationH, "sleep_hours", "sleep_duration"),
		fields.WithAliases(model.MetricSpO2Night, "spo2"),
	)
}

// Report summarizes what happened while normalizing a batch of documents.
type Report struct {
	Documents int
	Malformed int
	Dropped   int
	Shapes    map[Encoding]int
}

// Normalize extracts the gene observations from a raw genes payload using
// the default resolver.
func Normalize(raw json.RawMessage) []model.GeneEntry {
	return Detect(raw).Entries(NewResolver())
}

// Markers converts genetic documents into MarkerRecords. A document is either
// a marker row or a genetic summary carrying a genes payload; summary entries
// inherit the summary category when they have none. Undecodable documents and
// rows without a gene are skipped and counted in the report.
func Markers(docs []json.RawMessage, r *fields.Resolver) ([]model.MarkerRecord, Report) {
	rep := Report{Documents: len(docs), Shapes: make(map[Encoding]int)}
	out := make([]model.MarkerRecord, 0, len(docs))
	for _, doc := range docs {
		var rec fields.Record
		if err := json.Unmarshal(doc, &rec); err != nil || rec == nil {
			rep.Malformed++
			continue
		}
		key, isSummary := r.Present(rec, "genes")
		if !isSummary {
			m, ok := Marker(rec, r)
			if !ok {
				rep.Dropped++
				continue
			}
			out = append(out, m)
			continue
		}

		var members map[string]json.RawMessage
		_ = json.Unmarshal(doc, &members)
		payload := Detect(members[key])
		rep.Shapes[payload.Kind()]++
		if payload.Malformed() {
			rep.Malformed++
		}
		category := r.String(rec, "category")
		for _, e := range payload.Entries(r) {
			if e.Category == "" {
				e.Category = category
			}
			out = append(out, e.Marker())
		}
	}
	return out, rep
}

// Marker builds a MarkerRecord from a marker row. It reports false when the
// gene cannot be resolved.
func Marker(rec fields.Record, r *fields.Resolver) (model.MarkerRecord, bool) {
	gene := r.String(rec, "gene")
	if !keep(gene) {
		return model.MarkerRecord{}, false
	}
	return model.MarkerRecord{
		Gene:        gene,
		Genotype:    r.String(rec, "genotype"),
		RSID:        r.String(rec, "rsid"),
		DbsnpID:     r.String(rec, fields.DbsnpRsID),
		Category:    r.String(rec, "category"),
		Description: r.String(rec, "description"),
	}, true
}

// Biometric decodes one biometric reading. Non-numeric values are treated as
// absent. It reports false only when raw is not a JSON object.
func Biometric(raw json.RawMessage, r *fields.Resolver) (model.BiometricRecord, bool) {
	var rec fields.Record
	if err := json.Unmarshal(raw, &rec); err != nil || rec == nil {
		return model.BiometricRecord{}, false
	}
	out := model.BiometricRecord{
		AthleteID: r.String(rec, "athlete_id"),
		Date:      r.String(rec, "date"),
	}
	for _, name := range model.Metrics {
		v, ok := r.Value(rec, name)
		if !ok {
			continue
		}
		if f, ok := number(v); ok {
			out.Set(name, f)
		}
	}
	return out, true
}

func number(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
