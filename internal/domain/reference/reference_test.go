package reference_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/athletix/internal/domain/reference"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDefault(t *testing.T) {
	Convey("Given the embedded reference table", t, func() {
		table, err := reference.Default()

		Convey("Then it loads without error", func() {
			So(err, ShouldBeNil)
			So(table, ShouldNotBeNil)
			So(table.Categories(), ShouldContain, "Power and Strength")
		})

		Convey("Then exact lookups are case-insensitive on category and gene", func() {
			e, ok := table.Lookup("power and strength", "actn3", "rr")
			So(ok, ShouldBeTrue)
			So(e.Impact, ShouldEqual, reference.ImpactBeneficial)
			So(e.ColorHint, ShouldEqual, "green")
		})

		Convey("Then the wildcard is only reachable through Default", func() {
			_, ok := table.Lookup("Recovery", "CRP", "AA")
			So(ok, ShouldBeFalse)
			_, ok = table.Lookup("Recovery", "CRP", "default")
			So(ok, ShouldBeFalse)
			e, ok := table.Default("Recovery", "CRP")
			So(ok, ShouldBeTrue)
			So(e.Impact, ShouldEqual, reference.ImpactNeutral)
		})

		Convey("Then gene metadata is exposed", func() {
			So(table.HasGene("Cognitive and Stress", "COMT"), ShouldBeTrue)
			So(table.HasGene("Cognitive and Stress", "ACTN3"), ShouldBeFalse)
			So(table.RSID("Cognitive and Stress", "COMT"), ShouldEqual, "rs4680")
			So(table.GeneCount("Cognitive and Stress"), ShouldEqual, 2)
			So(table.GeneCount("Astrology"), ShouldEqual, 0)
			So(table.Genes("Cognitive and Stress"), ShouldResemble, []string{"COMT", "BDNF"})
			So(table.Genotypes("Cognitive and Stress", "comt"), ShouldResemble, []string{"AA", "AG", "GG"})
			So(table.Genotypes("Recovery", "CRP"), ShouldBeEmpty)
		})

		Convey("Then accessors hand out copies", func() {
			cats := table.Categories()
			cats[0] = "mutated"
			So(table.Categories()[0], ShouldEqual, "Power and Strength")
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given YAML documents", t, func() {
		Convey("When an entry carries an unknown impact", func() {
			doc := `
categories:
  - name: Endurance
    genes:
      - gene: ACE
        genotypes:
          II: {impact: heroic, description: "x"}
`
			_, err := reference.Load(strings.NewReader(doc))

			Convey("Then validation fails", func() {
				So(errors.Is(err, reference.ErrInvalid), ShouldBeTrue)
			})
		})

		Convey("When a gene is listed twice in a category", func() {
			doc := `
categories:
  - name: Endurance
    genes:
      - gene: ACE
        genotypes:
          II: {impact: beneficial, description: "x"}
      - gene: ace
        genotypes:
          DD: {impact: neutral, description: "y"}
`
			_, err := reference.Load(strings.NewReader(doc))

			Convey("Then it is rejected as a duplicate", func() {
				So(errors.Is(err, reference.ErrDuplicate), ShouldBeTrue)
			})
		})

		Convey("When the document is not YAML", func() {
			_, err := reference.Load(strings.NewReader("categories: [unterminated"))

			Convey("Then loading fails", func() {
				So(errors.Is(err, reference.ErrLoad), ShouldBeTrue)
			})
		})

		Convey("When a valid file is loaded from disk", func() {
			path := filepath.Join(t.TempDir(), "reference.yaml")
			doc := `
categories:
  - name: Endurance
    genes:
      - gene: ACE
        genotypes:
          II: {impact: beneficial, description: "x", color: teal}
`
			So(os.WriteFile(path, []byte(doc), 0o600), ShouldBeNil)
			table, err := reference.LoadFile(path)

			Convey("Then explicit colors are kept", func() {
				So(err, ShouldBeNil)
				e, ok := table.Lookup("Endurance", "ACE", "II")
				So(ok, ShouldBeTrue)
				So(e.ColorHint, ShouldEqual, "teal")
			})
		})

		Convey("When the file does not exist", func() {
			_, err := reference.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))

			Convey("Then loading fails", func() {
				So(errors.Is(err, reference.ErrLoad), ShouldBeTrue)
			})
		})
	})
}
