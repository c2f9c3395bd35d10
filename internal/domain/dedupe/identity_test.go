package dedupe_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/athletix/internal/domain/dedupe"
	"github.com/okian/athletix/internal/domain/model"
	"github.com/okian/athletix/internal/domain/normalize"
	. "github.com/smartystreets/goconvey/convey"
)

func TestIdentityKey(t *testing.T) {
	Convey("Given markers with different identifiers", t, func() {
		Convey("Then dbSNP id takes priority over rsid", func() {
			m := model.MarkerRecord{Gene: "COMT", Genotype: "GG", RSID: "rs999", DbsnpID: "rs4680"}
			So(dedupe.IdentityKey(m), ShouldEqual, "rs4680")
		})

		Convey("Then rsid is used when dbSNP id is empty", func() {
			m := model.MarkerRecord{Gene: "COMT", Genotype: "GG", RSID: "rs4680"}
			So(dedupe.IdentityKey(m), ShouldEqual, "rs4680")
		})

		Convey("Then the synthetic key falls back to gene and genotype", func() {
			So(dedupe.IdentityKey(model.MarkerRecord{Gene: "ACE", Genotype: "II"}), ShouldEqual, "ACE_II")
			So(dedupe.IdentityKey(model.MarkerRecord{Gene: "ACE"}), ShouldEqual, "ACE_unknown")
		})
	})
}

func TestDeduplicate(t *testing.T) {
	Convey("Given two exact duplicates sharing a dbSNP id", t, func() {
		in := []model.MarkerRecord{
			{DbsnpID: "rs4680", Gene: "COMT", Genotype: "GG"},
			{DbsnpID: "rs4680", Gene: "COMT", Genotype: "GG"},
		}

		Convey("Then one record is retained", func() {
			So(dedupe.Deduplicate(in), ShouldHaveLength, 1)
		})
	})

	Convey("Given markers without external identifiers", t, func() {
		in := []model.MarkerRecord{
			{Gene: "ACE", Genotype: "II", Category: "Endurance"},
			{Gene: "ACTN3", Genotype: "RR"},
			{Gene: "ACE", Genotype: "II", Category: "Power and Strength"},
			{Gene: "ACE", Genotype: "ID"},
		}
		snapshot := append([]model.MarkerRecord(nil), in...)

		out := dedupe.Deduplicate(in)

		Convey("Then exact gene/genotype duplicates collapse to the first seen", func() {
			So(out, ShouldResemble, []model.MarkerRecord{
				{Gene: "ACE", Genotype: "II", Category: "Endurance"},
				{Gene: "ACTN3", Genotype: "RR"},
				{Gene: "ACE", Genotype: "ID"},
			})
		})

		Convey("Then the input is left untouched", func() {
			So(in, ShouldResemble, snapshot)
		})
	})

	Convey("Given an empty input", t, func() {
		Convey("Then the result is empty", func() {
			So(dedupe.Deduplicate(nil), ShouldBeEmpty)
		})
	})
}

func TestDeduplicate_RawDocuments(t *testing.T) {
	Convey("Given the same marker row twice in upstream spellings", t, func() {
		docs := []json.RawMessage{
			json.RawMessage(`{"DbsnpRsId":"rs4680","Gene":"COMT","GeneticCall":"GG"}`),
			json.RawMessage(`{"DbsnpRsId":"rs4680","Gene":"COMT","GeneticCall":"GG"}`),
			json.RawMessage(`{"dbsnp_rs_id":"rs4680","GeneName":"COMT","genotype":"AG"}`),
			json.RawMessage(`{"Gene":"ACE","Call":"II"}`),
		}

		markers, _ := normalize.Markers(docs, normalize.NewResolver())
		out := dedupe.Deduplicate(markers)

		Convey("Then aliases and the dbSNP id resolve before deduplication", func() {
			So(markers, ShouldHaveLength, 4)
			So(markers[0], ShouldResemble, model.MarkerRecord{DbsnpID: "rs4680", Gene: "COMT", Genotype: "GG"})
			So(dedupe.IdentityKey(markers[2]), ShouldEqual, "rs4680")
		})

		Convey("Then one record per identity is retained in first-seen order", func() {
			So(out, ShouldHaveLength, 2)
			So(out[0].Genotype, ShouldEqual, "GG")
			So(out[1].Gene, ShouldEqual, "ACE")
			So(out[1].Genotype, ShouldEqual, "II")
		})
	})
}
