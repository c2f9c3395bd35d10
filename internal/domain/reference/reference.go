// Package reference holds the curated category → gene → genotype table used
// to interpret genetic markers. A Table is built once at startup and is
// read-only afterwards, so it can be shared across goroutines without locks.
package reference

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultGenotype is the wildcard genotype key.
const DefaultGenotype = "default"

// Impact is the curated qualitative judgment for a gene/genotype pair.
type Impact string

const (
	ImpactBeneficial  Impact = "beneficial"
	ImpactNeutral     Impact = "neutral"
	ImpactChallenging Impact = "challenging"
	ImpactUnknown     Impact = "unknown"
)

// ColorFor returns the display color associated with impact.
func ColorFor(impact Impact) string {
	switch impact {
	case ImpactBeneficial:
		return "green"
	case ImpactNeutral:
		return "blue"
	case ImpactChallenging:
		return "orange"
	default:
		return "gray"
	}
}

// Entry is one curated interpretation.
type Entry struct {
	Impact      Impact `yaml:"impact" json:"impact" validate:"required,oneof=beneficial neutral challenging unknown"`
	Description string `yaml:"description" json:"description" validate:"required"`
	ColorHint   string `yaml:"color" json:"colorHint"`
}

type document struct {
	Categories []categoryDoc `yaml:"categories" validate:"required,min=1,dive"`
}

type categoryDoc struct {
	Name  string    `yaml:"name" validate:"required"`
	Genes []geneDoc `yaml:"genes" validate:"required,min=1,dive"`
}

type geneDoc struct {
	Gene      string           `yaml:"gene" validate:"required"`
	RSID      string           `yaml:"rsid"`
	Genotypes map[string]Entry `yaml:"genotypes" validate:"required,min=1,dive,keys,required,endkeys"`
}

type gene struct {
	name      string
	rsid      string
	genotypes map[string]Entry
}

type category struct {
	name  string
	genes []string
	index map[string]*gene
}

// Table is the immutable reference table.
type Table struct {
	order      []string
	categories map[string]*category
}

//go:embed reference.yaml
var embedded []byte

// Default returns the table compiled into the binary.
func Default() (*Table, error) {
	return Load(bytes.NewReader(embedded))
}

// LoadFile reads a table from a YAML file.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}

// Load decodes and validates a YAML table.
func Load(r io.Reader) (*Table, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	if err := validator.New().Struct(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return build(doc)
}

func build(doc document) (*Table, error) {
	t := &Table{categories: make(map[string]*category, len(doc.Categories))}
	for _, cd := range doc.Categories {
		ckey := key(cd.Name)
		if _, dup := t.categories[ckey]; dup {
			return nil, fmt.Errorf("%w: category %q", ErrDuplicate, cd.Name)
		}
		c := &category{name: strings.TrimSpace(cd.Name), index: make(map[string]*gene, len(cd.Genes))}
		for _, gd := range cd.Genes {
			gkey := key(gd.Gene)
			if _, dup := c.index[gkey]; dup {
				return nil, fmt.Errorf("%w: gene %q in %q", ErrDuplicate, gd.Gene, cd.Name)
			}
			g := &gene{name: strings.TrimSpace(gd.Gene), rsid: gd.RSID, genotypes: make(map[string]Entry, len(gd.Genotypes))}
			for genotype, e := range gd.Genotypes {
				if e.ColorHint == "" {
					e.ColorHint = ColorFor(e.Impact)
				}
				g.genotypes[genotypeKey(genotype)] = e
			}
			c.index[gkey] = g
			c.genes = append(c.genes, g.name)
		}
		t.categories[ckey] = c
		t.order = append(t.order, c.name)
	}
	return t, nil
}

// Categories returns the category names in file order.
func (t *Table) Categories() []string {
	return append([]string(nil), t.order...)
}

// Genes returns the genes defined for category in file order.
func (t *Table) Genes(categoryName string) []string {
	c, ok := t.categories[key(categoryName)]
	if !ok {
		return nil
	}
	return append([]string(nil), c.genes...)
}

// Genotypes returns the explicitly listed genotypes of a gene, sorted. The
// default wildcard is not included.
func (t *Table) Genotypes(categoryName, geneName string) []string {
	g, ok := t.gene(categoryName, geneName)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(g.genotypes))
	for k := range g.genotypes {
		if k != genotypeKey(DefaultGenotype) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// GeneCount returns how many genes the table defines for category.
func (t *Table) GeneCount(categoryName string) int {
	c, ok := t.categories[key(categoryName)]
	if !ok {
		return 0
	}
	return len(c.genes)
}

// HasGene reports whether gene is defined under category.
func (t *Table) HasGene(categoryName, geneName string) bool {
	_, ok := t.gene(categoryName, geneName)
	return ok
}

// RSID returns the reference SNP id recorded for a gene, if any.
func (t *Table) RSID(categoryName, geneName string) string {
	g, ok := t.gene(categoryName, geneName)
	if !ok {
		return ""
	}
	return g.rsid
}

// Lookup returns the entry for an exact genotype. The "default" wildcard is
// not consulted; use Default for that.
func (t *Table) Lookup(categoryName, geneName, genotype string) (Entry, bool) {
	g, ok := t.gene(categoryName, geneName)
	if !ok {
		return Entry{}, false
	}
	k := genotypeKey(genotype)
	if k == "" || k == genotypeKey(DefaultGenotype) {
		return Entry{}, false
	}
	e, ok := g.genotypes[k]
	return e, ok
}

// Default returns the wildcard entry of a gene, if it has one.
func (t *Table) Default(categoryName, geneName string) (Entry, bool) {
	g, ok := t.gene(categoryName, geneName)
	if !ok {
		return Entry{}, false
	}
	e, ok := g.genotypes[genotypeKey(DefaultGenotype)]
	return e, ok
}

func (t *Table) gene(categoryName, geneName string) (*gene, bool) {
	c, ok := t.categories[key(categoryName)]
	if !ok {
		return nil, false
	}
	g, ok := c.index[key(geneName)]
	return g, ok
}

func key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func genotypeKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
