// Package query filters and orders marker lists for display.
package query

import (
	"sort"
	"strings"

	"github.com/okian/athletix/internal/domain/dedupe"
	"github.com/okian/athletix/internal/domain/model"
)

// Impact bands. These are a coarse display heuristic on the genotype string
// and are unrelated to the curated interpretation of a marker.
const (
	BandHigh   = "high"
	BandMedium = "medium"
	BandLow    = "low"
	BandAll    = "all"
)

// Sort keys.
const (
	SortNone     = "none"
	SortGene     = "gene"
	SortGenotype = "genotype"
	SortRSID     = "rsid"
	SortDbsnpID  = "dbsnpId"
	SortCategory = "category"
)

var (
	homozygous   = []string{"AA", "GG", "TT", "CC"}
	heterozygous = []string{"AG", "CT", "AC"}
)

// Options select and order markers. Zero values disable each stage.
type Options struct {
	SearchTerm string
	Category   string
	ImpactBand string
	SortKey    string
	Limit      int
}

// Band classifies a genotype: high when it contains a homozygous code,
// medium when it contains a heterozygous one, low otherwise.
func Band(genotype string) string {
	g := strings.ToUpper(genotype)
	for _, code := range homozygous {
		if strings.Contains(g, code) {
			return BandHigh
		}
	}
	for _, code := range heterozygous {
		if strings.Contains(g, code) {
			return BandMedium
		}
	}
	return BandLow
}

// Run deduplicates, searches, filters by category and band, then stably sorts.
// The result is a new slice; markers is not modified.
func Run(markers []model.MarkerRecord, opts Options) []model.MarkerRecord {
	out := dedupe.Deduplicate(markers)

	if term := strings.ToLower(strings.TrimSpace(opts.SearchTerm)); term != "" {
		out = filter(out, func(m model.MarkerRecord) bool {
			return contains(m.Gene, term) || contains(m.DbsnpID, term) ||
				contains(m.RSID, term) || contains(m.Genotype, term)
		})
	}

	if cat := strings.TrimSpace(opts.Category); enabled(cat) {
		out = filter(out, func(m model.MarkerRecord) bool {
			return strings.EqualFold(strings.TrimSpace(m.Category), cat)
		})
	}

	if band := strings.ToLower(strings.TrimSpace(opts.ImpactBand)); enabled(band) {
		out = filter(out, func(m model.MarkerRecord) bool {
			return Band(m.Genotype) == band
		})
	}

	if field := sortField(opts.SortKey); field != nil {
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(field(out[i])) < strings.ToLower(field(out[j]))
		})
	}

	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

func sortField(key string) func(model.MarkerRecord) string {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case strings.ToLower(SortGene):
		return func(m model.MarkerRecord) string { return m.Gene }
	case strings.ToLower(SortGenotype):
		return func(m model.MarkerRecord) string { return m.Genotype }
	case strings.ToLower(SortRSID):
		return func(m model.MarkerRecord) string { return m.RSID }
	case strings.ToLower(SortDbsnpID):
		return func(m model.MarkerRecord) string { return m.DbsnpID }
	case strings.ToLower(SortCategory):
		return func(m model.MarkerRecord) string { return m.Category }
	default:
		return nil
	}
}

func filter(in []model.MarkerRecord, keep func(model.MarkerRecord) bool) []model.MarkerRecord {
	out := in[:0]
	for _, m := range in {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

func contains(s, lowerTerm string) bool {
	return strings.Contains(strings.ToLower(s), lowerTerm)
}

func enabled(v string) bool {
	return v != "" && !strings.EqualFold(v, BandAll)
}
