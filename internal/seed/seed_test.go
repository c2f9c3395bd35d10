package seed_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/athletix/internal/adapters/http/api"
	service "github.com/okian/athletix/internal/app"
	"github.com/okian/athletix/internal/domain/dedupe"
	"github.com/okian/athletix/internal/domain/interpret"
	"github.com/okian/athletix/internal/domain/normalize"
	"github.com/okian/athletix/internal/domain/reference"
	"github.com/okian/athletix/internal/seed"
	"github.com/okian/athletix/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func table(t *testing.T) *reference.Table {
	t.Helper()
	tbl, err := reference.Default()
	if err != nil {
		t.Fatalf("reference: %v", err)
	}
	return tbl
}

func TestGenerator(t *testing.T) {
	tbl := table(t)

	Convey("Given two generators with the same seed", t, func() {
		a := seed.NewGenerator(tbl, 42).Athletes(3, 5)
		b := seed.NewGenerator(tbl, 42).Athletes(3, 5)

		Convey("Then they produce the same athletes", func() {
			So(a, ShouldResemble, b)
			So(a[0].ID, ShouldNotEqual, a[1].ID)
			So(a[0].Biometrics, ShouldHaveLength, 5)
		})

		Convey("Then a different seed produces different athletes", func() {
			c := seed.NewGenerator(tbl, 43).Athletes(3, 5)
			So(c[0].ID, ShouldNotEqual, a[0].ID)
		})
	})

	Convey("Given a generated athlete", t, func() {
		athlete := seed.NewGenerator(tbl, 7).Athletes(1, 3)[0]
		markers, rep := normalize.Markers(athlete.Genetic, normalize.NewResolver())
		unique := dedupe.Deduplicate(markers)

		Convey("Then every document normalizes", func() {
			So(rep.Malformed, ShouldEqual, 0)
			So(rep.Dropped, ShouldEqual, 0)
			So(len(rep.Shapes), ShouldBeGreaterThan, 1)
		})

		Convey("Then the repeated row collapses", func() {
			So(len(unique), ShouldBeLessThan, len(markers))
		})

		Convey("Then every marker is interpretable", func() {
			in := interpret.New(tbl)
			for _, m := range unique {
				So(in.Interpret(m.Category, m.Gene, m.Genotype).Impact, ShouldNotEqual, reference.ImpactUnknown)
			}
		})

		Convey("Then every biometric record decodes as valid", func() {
			for _, raw := range athlete.Biometrics {
				rec, ok := normalize.Biometric(raw, normalize.NewResolver())
				So(ok, ShouldBeTrue)
				So(rec.Valid(), ShouldBeTrue)
				So(rec.AthleteID, ShouldEqual, athlete.ID)
			}
		})
	})

	Convey("Given athletes turned into submissions", t, func() {
		athletes := seed.NewGenerator(tbl, 1).Athletes(2, 2)
		subs := seed.Submissions(athletes)

		Convey("Then each athlete gets a genetic and a biometric submission with stable keys", func() {
			So(subs, ShouldHaveLength, 4)
			So(subs[0].Path, ShouldEqual, "genetics")
			So(subs[1].Path, ShouldEqual, "biometrics")
			So(subs[0].Key, ShouldEqual, "seed-genetics-"+athletes[0].ID)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running athletix server", t, func() {
		svc := service.New(
			service.WithWorkerCount(2),
			service.WithQueueSize(100),
			service.WithLogger(logger.Discard()),
		)
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(context.Background(), mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		cfg := &seed.Config{
			BaseURL:  srv.URL,
			Athletes: 4,
			Days:     3,
			Workers:  3,
			Timeout:  5 * time.Second,
			Settle:   5 * time.Second,
			Seed:     9,
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		Convey("When seeding", func() {
			stats, err := seed.Run(ctx, cfg, table(t))

			Convey("Then every athlete is accepted and readable", func() {
				So(err, ShouldBeNil)
				So(stats.Accepted, ShouldEqual, 8)
				So(stats.Failed, ShouldEqual, 0)
				So(stats.Verified, ShouldEqual, 4)
			})

			Convey("Then seeding again is idempotent", func() {
				again, err := seed.Run(ctx, cfg, table(t))
				So(err, ShouldBeNil)
				So(again.Duplicate, ShouldEqual, 8)
				So(again.Accepted, ShouldEqual, 0)
			})
		})

		Convey("When the service is unreachable", func() {
			bad := *cfg
			bad.BaseURL = "http://127.0.0.1:1"
			_, err := seed.Run(ctx, &bad, table(t))
			So(err, ShouldNotBeNil)
		})
	})
}
