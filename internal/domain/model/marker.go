// Package model contains domain models passed between layers.
package model

// MarkerRecord is one genetic-test result row after normalization.
// Gene is never empty; rows whose gene cannot be resolved are dropped upstream.
type MarkerRecord struct {
	Gene        string `json:"gene"`
	Genotype    string `json:"genotype"`
	RSID        string `json:"rsid,omitempty"`
	DbsnpID     string `json:"dbsnpId,omitempty"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
}

// GeneEntry is a single (gene, genotype) observation extracted from a
// genetic summary payload.
type GeneEntry struct {
	Gene     string
	Genotype string
	RSID     string
	Category string
}

// Marker converts the entry into a MarkerRecord.
func (e GeneEntry) Marker() MarkerRecord {
	return MarkerRecord{
		Gene:     e.Gene,
		Genotype: e.Genotype,
		RSID:     e.RSID,
		Category: e.Category,
	}
}
