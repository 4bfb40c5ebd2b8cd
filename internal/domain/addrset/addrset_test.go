package addrset_test

import (
	"testing"

	"github.com/predictfund/engine/internal/domain/addrset"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSet(t *testing.T) {
	Convey("Given an empty set", t, func() {
		s := addrset.New()

		Convey("Then it has no addresses", func() {
			So(s.Len(), ShouldEqual, 0)
			So(s.Addresses(), ShouldBeEmpty)
		})

		Convey("When adding addresses with mixed casing", func() {
			So(s.Add("0xABCdef"), ShouldBeTrue)
			So(s.Add("0xabcDEF"), ShouldBeFalse) // same address, different case
			So(s.Add("0x123456"), ShouldBeTrue)

			Convey("Then duplicates collapse to the canonical form", func() {
				So(s.Len(), ShouldEqual, 2)
				So(s.Contains("0xAbCdEf"), ShouldBeTrue)
			})

			Convey("And insertion order is preserved", func() {
				So(s.Addresses(), ShouldResemble, []string{"0xabcdef", "0x123456"})
			})
		})

		Convey("When adding an empty address", func() {
			So(s.Add("  "), ShouldBeFalse)

			Convey("Then nothing is recorded", func() {
				So(s.Len(), ShouldEqual, 0)
			})
		})
	})
}
