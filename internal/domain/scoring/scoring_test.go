package scoring_test

import (
	"testing"

	"github.com/okian/athletix/internal/domain/model"
	scoring "github.com/okian/athletix/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func f(v float64) *float64 { return &v }

func TestReadinessScorer_Score(t *testing.T) {
	Convey("Given a default readiness scorer", t, func() {
		scorer := scoring.NewReadinessScorer()

		Convey("When two records differ only in resting heart rate", func() {
			calm := model.BiometricRecord{AthleteID: "a1", Date: "2024-05-01", HRVNight: f(70), RestingHR: f(55)}
			stressed := model.BiometricRecord{AthleteID: "a1", Date: "2024-05-02", HRVNight: f(70), RestingHR: f(75)}

			Convey("Then the lower heart rate scores higher", func() {
				So(scorer.Score(calm), ShouldBeGreaterThan, scorer.Score(stressed))
			})
		})

		Convey("When HRV, sleep or SpO2 increase", func() {
			base := model.BiometricRecord{AthleteID: "a1", Date: "2024-05-01", HRVNight: f(50), SleepDurationH: f(6), SpO2Night: f(94)}

			Convey("Then the score does not decrease", func() {
				s0 := scorer.Score(base)
				up := base
				up.HRVNight = f(80)
				So(scorer.Score(up), ShouldBeGreaterThan, s0)
				up = base
				up.SleepDurationH = f(8)
				So(scorer.Score(up), ShouldBeGreaterThan, s0)
				up = base
				up.SpO2Night = f(98)
				So(scorer.Score(up), ShouldBeGreaterThan, s0)
			})
		})

		Convey("When a field is absent", func() {
			full := model.BiometricRecord{AthleteID: "a1", Date: "2024-05-01", HRVNight: f(120), RestingHR: f(40)}
			partial := model.BiometricRecord{AthleteID: "a1", Date: "2024-05-01", HRVNight: f(120)}

			Convey("Then it is excluded rather than counted as zero", func() {
				So(scorer.Score(partial), ShouldAlmostEqual, 100)
				So(scorer.Score(full), ShouldAlmostEqual, 100)
			})
		})

		Convey("When readings are extreme", func() {
			hi := model.BiometricRecord{AthleteID: "a1", Date: "d", HRVNight: f(1000), RestingHR: f(1), SleepDurationH: f(20), SpO2Night: f(150)}
			lo := model.BiometricRecord{AthleteID: "a1", Date: "d", HRVNight: f(1), RestingHR: f(250), SleepDurationH: f(0.5), SpO2Night: f(50)}

			Convey("Then the score stays within bounds", func() {
				So(scorer.Score(hi), ShouldAlmostEqual, 100)
				So(scorer.Score(lo), ShouldEqual, 0)
			})
		})

		Convey("When no scored field is usable", func() {
			rec := model.BiometricRecord{AthleteID: "a1", Date: "d", RestingHR: f(0), DeepSleepPct: f(20)}
			res := scorer.Breakdown(rec)

			Convey("Then the score is 0 and the result is not usable", func() {
				So(res.Score, ShouldEqual, 0)
				So(res.Usable(), ShouldBeFalse)
			})
		})

		Convey("When Breakdown is requested", func() {
			res := scorer.Breakdown(model.BiometricRecord{AthleteID: "a1", Date: "d", RestingHR: f(65), SpO2Night: f(95)})

			Convey("Then used fields and sub-scores are reported", func() {
				So(res.Fields, ShouldResemble, []string{model.MetricRestingHR, model.MetricSpO2Night})
				So(res.SubScores[model.MetricRestingHR], ShouldAlmostEqual, 50)
				So(res.SubScores[model.MetricSpO2Night], ShouldAlmostEqual, 50)
				So(res.Score, ShouldAlmostEqual, 50)
			})
		})
	})

	Convey("Given a scorer with custom weights and ranges", t, func() {
		scorer := scoring.NewReadinessScorer(
			scoring.WithWeights(map[string]float64{"hrvNight": 1, "restingHr": 0, "unknown": 5}),
			scoring.WithRange("resting_hr", 50, 60),
			scoring.WithRange("spo2_night", 100, 90),
		)

		Convey("Then options apply only to valid inputs", func() {
			rec := model.BiometricRecord{AthleteID: "a1", Date: "d", RestingHR: f(55), SpO2Night: f(95)}
			res := scorer.Breakdown(rec)
			So(res.SubScores[model.MetricRestingHR], ShouldAlmostEqual, 50)
			So(res.SubScores[model.MetricSpO2Night], ShouldAlmostEqual, 50)
		})
	})
}

func TestReadinessScorer_Latest(t *testing.T) {
	Convey("Given a series of records", t, func() {
		scorer := scoring.NewReadinessScorer()
		records := []model.BiometricRecord{
			{AthleteID: "a1", Date: "2024-05-03", RestingHR: f(50)},
			{AthleteID: "a1", Date: "2024-05-01", RestingHR: f(70)},
			{AthleteID: "a1", Date: "2024-05-04"},
			{AthleteID: "a1", Date: "2024-05-02T08:00:00Z", RestingHR: f(80)},
		}

		res, ok := scorer.Latest(records)

		Convey("Then the latest valid record is scored against its predecessor", func() {
			So(ok, ShouldBeTrue)
			So(res.Date, ShouldEqual, "2024-05-03")
			So(res.Previous, ShouldNotBeNil)
			So(*res.Previous, ShouldBeLessThan, res.Score)
			So(res.Trend, ShouldEqual, scoring.TrendUp)
		})

		Convey("When only one valid record exists", func() {
			res, ok := scorer.Latest(records[:1])

			Convey("Then there is no trend", func() {
				So(ok, ShouldBeTrue)
				So(res.Trend, ShouldBeEmpty)
				So(res.Previous, ShouldBeNil)
			})
		})

		Convey("When no valid record exists", func() {
			_, ok := scorer.Latest(records[2:3])

			Convey("Then nothing is reported", func() {
				So(ok, ShouldBeFalse)
			})
		})
	})
}
