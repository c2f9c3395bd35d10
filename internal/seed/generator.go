package seed

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/okian/athletix/internal/domain/reference"
)

// Athlete is the generated document set of one athlete.
type Athlete struct {
	ID         string
	Genetic    []json.RawMessage
	Biometrics []json.RawMessage
}

// Generator builds genetic documents from the reference table so every
// marker it emits is interpretable, spread over the payload shapes seen
// upstream.
type Generator struct {
	table *reference.Table
	rng   *rand.Rand
	start time.Time
}

// NewGenerator creates a generator. Equal seeds produce equal athletes.
func NewGenerator(table *reference.Table, seed uint64) *Generator {
	return &Generator{
		table: table,
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		start: time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Athletes generates n athletes with days biometric records each.
func (g *Generator) Athletes(n, days int) []Athlete {
	out := make([]Athlete, n)
	for i := range out {
		id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(strconv.FormatUint(g.rng.Uint64(), 10))).String()
		out[i] = Athlete{
			ID:         id,
			Genetic:    g.genetic(),
			Biometrics: g.biometrics(id, days),
		}
	}
	return out
}

// genetic emits one document per category, rotating through marker rows,
// plain-object summaries, object-array summaries and string-encoded
// summaries. One row is repeated under alternate spellings to exercise
// identity deduplication.
func (g *Generator) genetic() []json.RawMessage {
	var docs []json.RawMessage
	for ci, cat := range g.table.Categories() {
		calls := map[string]string{}
		var order []string
		for _, gene := range g.table.Genes(cat) {
			genotypes := g.table.Genotypes(cat, gene)
			call := "present"
			if len(genotypes) > 0 {
				call = genotypes[g.rng.IntN(len(genotypes))]
			}
			calls[gene] = call
			order = append(order, gene)
		}

		switch ci % 4 {
		case 0:
			for _, gene := range order {
				docs = append(docs, mustJSON(map[string]string{
					"gene": gene, "genotype": calls[gene], "category": cat, "rsid": g.table.RSID(cat, gene),
				}))
			}
			if len(order) > 0 {
				gene := order[0]
				docs = append(docs, mustJSON(map[string]string{
					"GeneName": gene, "GeneticCall": calls[gene], "TestCategory": cat, "RsId": g.table.RSID(cat, gene),
				}))
			}
		case 1:
			docs = append(docs, mustJSON(map[string]any{"category": cat, "genes": calls}))
		case 2:
			rows := make([]map[string]string, 0, len(order))
			for _, gene := range order {
				rows = append(rows, map[string]string{"gene": gene, "genotype": calls[gene]})
			}
			docs = append(docs, mustJSON(map[string]any{"category": cat, "genes": rows}))
		default:
			inner := mustJSON(calls)
			docs = append(docs, mustJSON(map[string]any{"Category": cat, "Genes": string(inner)}))
		}
	}
	return docs
}

// biometrics emits a daily series around plausible baselines. Some records
// use alternate key spellings or string-typed numbers.
func (g *Generator) biometrics(athleteID string, days int) []json.RawMessage {
	hrv := 40 + g.rng.Float64()*50
	rhr := 45 + g.rng.Float64()*25
	docs := make([]json.RawMessage, 0, days)
	for d := 0; d < days; d++ {
		date := g.start.AddDate(0, 0, d).Format("2006-01-02")
		rec := map[string]any{
			"athlete_id": athleteID,
			"date":       date,
		}
		if d%3 == 1 {
			rec = map[string]any{
				"AthleteId": athleteID,
				"Day":       date,
				"hrv":       round1(hrv + g.rng.NormFloat64()*8),
				"rhr":       strconv.FormatFloat(round1(rhr+g.rng.NormFloat64()*3), 'f', 1, 64),
			}
		} else {
			rec["hrv_night"] = round1(hrv + g.rng.NormFloat64()*8)
			rec["resting_hr"] = round1(rhr + g.rng.NormFloat64()*3)
		}
		rec["sleep_duration_h"] = round1(5.5 + g.rng.Float64()*3.5)
		rec["spo2_night"] = round1(94 + g.rng.Float64()*5)
		rec["deep_sleep_pct"] = round1(12 + g.rng.Float64()*10)
		rec["rem_sleep_pct"] = round1(18 + g.rng.Float64()*8)
		rec["training_load_pct"] = round1(40 + g.rng.Float64()*60)
		docs = append(docs, mustJSON(rec))
	}
	return docs
}

// Submissions turns athletes into one genetic and one biometric POST each.
// Keys derive from the athlete ID so re-running a seed is idempotent.
func Submissions(athletes []Athlete) []Submission {
	out := make([]Submission, 0, 2*len(athletes))
	for _, a := range athletes {
		if len(a.Genetic) > 0 {
			out = append(out, Submission{AthleteID: a.ID, Path: "genetics", Key: "seed-genetics-" + a.ID, Body: mustJSON(a.Genetic)})
		}
		if len(a.Biometrics) > 0 {
			out = append(out, Submission{AthleteID: a.ID, Path: "biometrics", Key: "seed-biometrics-" + a.ID, Body: mustJSON(a.Biometrics)})
		}
	}
	return out
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("seed: marshal %T: %v", v, err))
	}
	return b
}
