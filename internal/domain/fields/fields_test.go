package fields_test

import (
	"testing"

	"github.com/okian/athletix/internal/domain/fields"
	. "github.com/smartystreets/goconvey/convey"
)

func TestResolver_String(t *testing.T) {
	Convey("Given a default resolver", t, func() {
		r := fields.New()

		Convey("When the key matches exactly", func() {
			rec := fields.Record{"gene": "ACTN3"}

			Convey("Then it should resolve", func() {
				So(r.String(rec, "gene"), ShouldEqual, "ACTN3")
			})
		})

		Convey("When the key is Capitalized or UPPERCASE", func() {
			So(r.String(fields.Record{"Gene": "ACE"}, "gene"), ShouldEqual, "ACE")
			So(r.String(fields.Record{"GENE": "COMT"}, "gene"), ShouldEqual, "COMT")
		})

		Convey("When the key is camel-swapped", func() {
			So(r.String(fields.Record{"geneticCall": "GG"}, "genetic_call"), ShouldEqual, "GG")
			So(r.String(fields.Record{"GeneticCall": "GG"}, "genetic_call"), ShouldEqual, "GG")
			So(r.String(fields.Record{"genetic_call": "AG"}, "geneticCall"), ShouldEqual, "AG")
		})

		Convey("When an earlier candidate is falsy", func() {
			rec := fields.Record{"gene": "", "Gene": "PPARGC1A"}

			Convey("Then the first truthy candidate wins", func() {
				So(r.String(rec, "gene"), ShouldEqual, "PPARGC1A")
			})
		})

		Convey("When the field is absent", func() {
			Convey("Then it should resolve to empty string", func() {
				So(r.String(fields.Record{"other": "x"}, "gene"), ShouldEqual, "")
				So(r.String(nil, "gene"), ShouldEqual, "")
			})
		})

		Convey("When the value is numeric or boolean", func() {
			So(r.String(fields.Record{"count": float64(12)}, "count"), ShouldEqual, "12")
			So(r.String(fields.Record{"flag": true}, "flag"), ShouldEqual, "true")
			So(r.String(fields.Record{"count": float64(0)}, "count"), ShouldEqual, "")
		})

		Convey("When the value is composite", func() {
			rec := fields.Record{"genes": map[string]any{"ACE": "II"}}

			Convey("Then String skips it but Value returns it", func() {
				So(r.String(rec, "genes"), ShouldEqual, "")
				v, ok := r.Value(rec, "Genes")
				So(ok, ShouldBeTrue)
				So(v, ShouldResemble, map[string]any{"ACE": "II"})
			})
		})
	})
}

func TestResolver_Dbsnp(t *testing.T) {
	Convey("Given the dbSNP identifier in historical spellings", t, func() {
		r := fields.New()

		Convey("Then every spelling resolves", func() {
			for _, key := range []string{"DbsnpRsId", "dbsnp_rs_id", "DBSNP_RS_ID", "dbsnpRsId", "dbSNPRSID"} {
				So(r.String(fields.Record{key: "rs4680"}, fields.DbsnpRsID), ShouldEqual, "rs4680")
			}
		})

		Convey("Then the historical spellings are tried first", func() {
			c := r.Candidates(fields.DbsnpRsID)
			So(c[:5], ShouldResemble, []string{"DbsnpRsId", "dbsnp_rs_id", "DBSNP_RS_ID", "dbsnpRsId", "dbSNPRSID"})
		})
	})
}

func TestResolver_Aliases(t *testing.T) {
	Convey("Given a resolver with a genotype alias", t, func() {
		r := fields.New(fields.WithAliases("genotype", "GeneticCall"))

		Convey("When only the alias is present", func() {
			rec := fields.Record{"GeneticCall": "RR"}

			Convey("Then it should resolve through the alias", func() {
				So(r.String(rec, "genotype"), ShouldEqual, "RR")
			})
		})

		Convey("When both the logical name and alias are present", func() {
			rec := fields.Record{"GeneticCall": "RR", "Genotype": "RX"}

			Convey("Then the logical name wins", func() {
				So(r.String(rec, "genotype"), ShouldEqual, "RX")
			})
		})

		Convey("Then candidates contain no duplicates", func() {
			c := r.Candidates("genotype")
			seen := map[string]bool{}
			for _, k := range c {
				So(seen[k], ShouldBeFalse)
				seen[k] = true
			}
		})
	})
}

func TestResolver_Key(t *testing.T) {
	Convey("Given a record with drifting keys", t, func() {
		r := fields.New()
		rec := fields.Record{"GENES": "[]", "Category": "Endurance"}

		Convey("Then Key reports the matched spelling", func() {
			k, ok := r.Key(rec, "genes")
			So(ok, ShouldBeTrue)
			So(k, ShouldEqual, "GENES")

			_, ok = r.Key(rec, "rsid")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestResolver_Present(t *testing.T) {
	Convey("Given a record whose field exists but is empty", t, func() {
		r := fields.New()
		rec := fields.Record{"Genes": map[string]any{}, "genes": "", "Category": "Endurance"}

		Convey("Then Key skips it and Present finds it", func() {
			_, ok := r.Key(rec, "genes")
			So(ok, ShouldBeFalse)

			k, ok := r.Present(rec, "genes")
			So(ok, ShouldBeTrue)
			So(k, ShouldEqual, "genes")
		})

		Convey("Then a truthy spelling wins over an empty one", func() {
			rec["GENES"] = "{}"
			k, ok := r.Present(rec, "genes")
			So(ok, ShouldBeTrue)
			So(k, ShouldEqual, "GENES")
		})

		Convey("Then an absent field is not present", func() {
			_, ok := r.Present(rec, "rsid")
			So(ok, ShouldBeFalse)
		})
	})
}
