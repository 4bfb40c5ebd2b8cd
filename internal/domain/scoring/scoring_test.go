package scoring_test

import (
	"testing"

	"github.com/predictfund/engine/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestScore(t *testing.T) {
	Convey("Given the composite reputation formula", t, func() {
		Convey("Then the documented example values must reproduce exactly", func() {
			// 12 predictions, 9 wins, 5 whole units staked:
			// round(75*100*0.4 + min(120,1000)*0.3 + min(25,500)*0.3) = 3044
			So(scoring.Score(75, 12, 5), ShouldEqual, 3044)

			// 15 predictions, 6 wins, 1 whole unit staked:
			// round(40*100*0.4 + min(150,1000)*0.3 + min(5,500)*0.3) = 1647
			So(scoring.Score(40, 15, 1), ShouldEqual, 1647)
		})

		Convey("And the function is deterministic", func() {
			a := scoring.Score(62.5, 37, 8.25)
			b := scoring.Score(62.5, 37, 8.25)
			So(a, ShouldEqual, b)
		})

		Convey("And zero inputs yield zero", func() {
			So(scoring.Score(0, 0, 0), ShouldEqual, 0)
		})

		Convey("When prediction volume exceeds the cap", func() {
			base := scoring.Score(50, 100, 0)

			Convey("Then extra predictions do not change the volume term", func() {
				So(scoring.Score(50, 101, 0), ShouldEqual, base)
				So(scoring.Score(50, 10_000, 0), ShouldEqual, base)
			})
		})

		Convey("When staked amount exceeds the cap", func() {
			base := scoring.Score(50, 10, 100)

			Convey("Then extra stake does not change the stake term", func() {
				So(scoring.Score(50, 10, 101), ShouldEqual, base)
				So(scoring.Score(50, 10, 1e9), ShouldEqual, base)
			})
		})

		Convey("When accuracy is perfect", func() {
			Convey("Then accuracy contributes 4000 at 100 percent", func() {
				So(scoring.Score(100, 0, 0), ShouldEqual, 4000)
			})
		})

		Convey("When the sum lands on a half point", func() {
			// 0.5 whole units -> stake term 2.5*0.3 = 0.75, rounds up.
			So(scoring.Score(0, 0, 0.5), ShouldEqual, 1)
		})
	})
}
