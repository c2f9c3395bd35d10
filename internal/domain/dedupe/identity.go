package dedupe

import (
	"strings"

	"github.com/okian/athletix/internal/domain/model"
)

// IdentityKey returns the stable identity of a marker: the dbSNP id when
// present, else the rsid, else "{gene}_{genotype}" with "unknown" standing in
// for a missing genotype.
func IdentityKey(m model.MarkerRecord) string {
	if id := strings.TrimSpace(m.DbsnpID); id != "" {
		return id
	}
	if id := strings.TrimSpace(m.RSID); id != "" {
		return id
	}
	genotype := strings.TrimSpace(m.Genotype)
	if genotype == "" {
		genotype = "unknown"
	}
	return strings.TrimSpace(m.Gene) + "_" + genotype
}

// Deduplicate keeps the first record seen for each identity key, preserving
// input order. The input slice is not modified.
func Deduplicate(markers []model.MarkerRecord) []model.MarkerRecord {
	seen := make(map[string]struct{}, len(markers))
	out := make([]model.MarkerRecord, 0, len(markers))
	for _, m := range markers {
		key := IdentityKey(m)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, m)
	}
	return out
}
