// Package interpret turns (category, gene, genotype) observations into
// curated impact judgments.
package interpret

import (
	"strings"

	"github.com/okian/athletix/internal/domain/model"
	"github.com/okian/athletix/internal/domain/reference"
)

// UnknownDescription is reported when no curated interpretation applies.
const UnknownDescription = "Analysis not available"

// Judgment is the interpretation of one marker.
type Judgment struct {
	Impact      reference.Impact `json:"impact"`
	Description string           `json:"description"`
	ColorHint   string           `json:"colorHint"`
}

// Unknown is the judgment returned when the table has nothing to say.
var Unknown = Judgment{
	Impact:      reference.ImpactUnknown,
	Description: UnknownDescription,
	ColorHint:   reference.ColorFor(reference.ImpactUnknown),
}

// Interpreted pairs a marker with its judgment.
type Interpreted struct {
	model.MarkerRecord
	Judgment Judgment `json:"judgment"`
}

// Partition groups interpreted markers by impact.
type Partition struct {
	Beneficial  []Interpreted `json:"beneficial"`
	Neutral     []Interpreted `json:"neutral"`
	Challenging []Interpreted `json:"challenging"`
	Unknown     []Interpreted `json:"unknown"`
}

// Coverage reports how much of a category's reference panel was observed.
// It signals test coverage, not performance.
type Coverage struct {
	Category string  `json:"category"`
	Observed int     `json:"observed"`
	Total    int     `json:"total"`
	Ratio    float64 `json:"ratio"`
}

// Interpreter applies a reference table. It holds no mutable state.
type Interpreter struct {
	table *reference.Table
}

// New creates an Interpreter over table.
func New(table *reference.Table) *Interpreter {
	return &Interpreter{table: table}
}

// Interpret looks up the judgment for a marker: exact genotype first (allele
// order of a two-letter genotype is ignored), then the gene's default entry,
// then Unknown.
func (i *Interpreter) Interpret(category, gene, genotype string) Judgment {
	if i.table == nil {
		return Unknown
	}
	if strings.TrimSpace(genotype) != "" {
		if e, ok := i.table.Lookup(category, gene, genotype); ok {
			return judgment(e)
		}
		if rev, ok := reversed(genotype); ok {
			if e, ok := i.table.Lookup(category, gene, rev); ok {
				return judgment(e)
			}
		}
	}
	if e, ok := i.table.Default(category, gene); ok {
		return judgment(e)
	}
	return Unknown
}

// Partition interprets each marker against its own category and buckets it.
func (i *Interpreter) Partition(markers []model.MarkerRecord) Partition {
	var p Partition
	for _, m := range markers {
		in := Interpreted{MarkerRecord: m, Judgment: i.Interpret(m.Category, m.Gene, m.Genotype)}
		switch in.Judgment.Impact {
		case reference.ImpactBeneficial:
			p.Beneficial = append(p.Beneficial, in)
		case reference.ImpactNeutral:
			p.Neutral = append(p.Neutral, in)
		case reference.ImpactChallenging:
			p.Challenging = append(p.Challenging, in)
		default:
			p.Unknown = append(p.Unknown, in)
		}
	}
	return p
}

// Completeness reports observed/defined genes for category. Observed counts
// distinct genes from markers of that category which the table defines.
func (i *Interpreter) Completeness(category string, markers []model.MarkerRecord) Coverage {
	c := Coverage{Category: category}
	if i.table == nil {
		return c
	}
	c.Total = i.table.GeneCount(category)
	seen := make(map[string]struct{})
	for _, m := range markers {
		if !strings.EqualFold(strings.TrimSpace(m.Category), strings.TrimSpace(category)) {
			continue
		}
		g := strings.ToUpper(strings.TrimSpace(m.Gene))
		if _, dup := seen[g]; dup || !i.table.HasGene(category, g) {
			continue
		}
		seen[g] = struct{}{}
	}
	c.Observed = len(seen)
	if c.Total > 0 {
		c.Ratio = float64(c.Observed) / float64(c.Total)
	}
	return c
}

// CoverageAll reports completeness for every category in the table.
func (i *Interpreter) CoverageAll(markers []model.MarkerRecord) []Coverage {
	if i.table == nil {
		return nil
	}
	cats := i.table.Categories()
	out := make([]Coverage, 0, len(cats))
	for _, c := range cats {
		out = append(out, i.Completeness(c, markers))
	}
	return out
}

func judgment(e reference.Entry) Judgment {
	return Judgment{Impact: e.Impact, Description: e.Description, ColorHint: e.ColorHint}
}

func reversed(genotype string) (string, bool) {
	g := strings.TrimSpace(genotype)
	if len(g) != 2 || g[0] == g[1] {
		return "", false
	}
	return string([]byte{g[1], g[0]}), true
}
