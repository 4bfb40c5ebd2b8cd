package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewManager(t *testing.T) {
	Convey("Given a manager with default configuration", t, func() {
		m := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))

		Convey("Then it should use the engine namespace", func() {
			So(m.namespace, ShouldEqual, "predictfund")
			So(m.subsystem, ShouldEqual, "leaderboard")
		})
	})

	Convey("Given a manager with custom options", t, func() {
		m := NewManager(
			WithPrometheusRegistry(prometheus.NewRegistry()),
			WithNamespace("custom"),
			WithSubsystem("engine"),
			WithHistogramBuckets([]float64{1, 10, 100}),
			WithRefreshInterval(30*time.Second),
		)

		Convey("Then the options should be applied", func() {
			So(m.namespace, ShouldEqual, "custom")
			So(m.subsystem, ShouldEqual, "engine")
			So(m.histogramBuckets, ShouldResemble, []float64{1, 10, 100})
			So(m.refreshInterval, ShouldEqual, 30*time.Second)
		})
	})
}

func TestPackageHelpers(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Then recording metrics should not panic", func() {
			So(func() {
				RecordRefresh()
				RecordRefreshFailure()
				RecordRefreshDuration(120)
				RecordDiscoveryDuration(45)
				UpdateParticipantsDiscovered(12)
				RecordRecordSkipped()
				RecordAddressSkipped()
				UpdateAggregateWorkers(8)
				RecordLedgerCall("getLogs")
				RecordLedgerCallError("getBet")
				UpdateSnapshotEntries(5)
				UpdateSnapshotComputedAt(time.Now())
				RecordCacheServe("fresh")
				RecordCacheServe("stale")
				RecordCacheBlockingLoad()
				RecordHTTPRequest("leaderboard", "GET", "200")
				RecordHTTPRequestDuration("leaderboard", "GET", "200", 3.5)
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(42)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
		})

		Convey("And the custom registry should be exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
