package repository_test

import (
	"errors"
	"math/big"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/predictfund/engine/internal/adapters/repository"
	"github.com/predictfund/engine/internal/domain/model"
)

func entry(addr string, score, rank int) model.LeaderboardEntry {
	agg := model.NewParticipantAggregate(addr)
	agg.Predictions = 12
	agg.TotalStaked = big.NewInt(1_000_000_000_000_000_000)
	return model.LeaderboardEntry{ParticipantAggregate: agg, Score: score, Rank: rank}
}

func snapshotAt(ts time.Time) model.Snapshot {
	return model.Snapshot{
		Entries: []model.LeaderboardEntry{
			entry("0xaaa0000000000000000000000000000000000001", 3044, 1),
			entry("0xbbb0000000000000000000000000000000000002", 1647, 2),
		},
		QualifiedCount:       2,
		TotalStakedQualified: big.NewInt(2_000_000_000_000_000_000),
		ComputedAt:           ts,
		RunID:                "run-1",
	}
}

func TestSnapshotStore(t *testing.T) {
	Convey("Given an empty store", t, func() {
		store := repository.NewSnapshotStore()

		Convey("Then every read reports the empty kind", func() {
			So(store.Freshness(), ShouldEqual, repository.Empty)

			_, _, _, err := store.TopN(10)
			So(errors.Is(err, repository.ErrEmpty), ShouldBeTrue)

			_, _, _, err = store.Rank("0xaaa0000000000000000000000000000000000001")
			So(errors.Is(err, repository.ErrEmpty), ShouldBeTrue)

			_, _, _, err = store.Stats()
			So(errors.Is(err, repository.ErrEmpty), ShouldBeTrue)
		})
	})

	Convey("Given a store with a snapshot inside its TTL", t, func() {
		now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		store := repository.NewSnapshotStore(
			repository.WithTTL(5*time.Minute),
			repository.WithClock(func() time.Time { return now }),
		)
		store.Put(snapshotAt(now.Add(-time.Minute)))

		Convey("Then reads are fresh", func() {
			So(store.Freshness(), ShouldEqual, repository.Fresh)
		})

		Convey("When listing with a limit", func() {
			entries, state, computed, err := store.TopN(1)

			Convey("Then only the top entries are returned", func() {
				So(err, ShouldBeNil)
				So(state, ShouldEqual, repository.Fresh)
				So(computed, ShouldResemble, now.Add(-time.Minute))
				So(entries, ShouldHaveLength, 1)
				So(entries[0].Rank, ShouldEqual, 1)
			})
		})

		Convey("When listing without a limit", func() {
			entries, _, _, err := store.TopN(0)

			Convey("Then every entry is returned", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 2)
			})
		})

		Convey("When looking up a ranked address in mixed case", func() {
			e, _, _, err := store.Rank("0xBBB0000000000000000000000000000000000002")

			Convey("Then the entry is found", func() {
				So(err, ShouldBeNil)
				So(e.Rank, ShouldEqual, 2)
			})
		})

		Convey("When looking up an unranked address", func() {
			_, _, _, err := store.Rank("0xccc0000000000000000000000000000000000003")

			Convey("Then the not-found kind is returned", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When reading the stats", func() {
			sum, state, _, err := store.Stats()

			Convey("Then the summary mirrors the snapshot", func() {
				So(err, ShouldBeNil)
				So(state, ShouldEqual, repository.Fresh)
				So(sum.QualifiedCount, ShouldEqual, 2)
				So(sum.TotalStaked.String(), ShouldEqual, "2000000000000000000")
				So(sum.Top, ShouldNotBeNil)
				So(sum.Top.Score, ShouldEqual, 3044)
			})
		})
	})

	Convey("Given a store whose snapshot outlived its TTL", t, func() {
		now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		store := repository.NewSnapshotStore(
			repository.WithTTL(5*time.Minute),
			repository.WithClock(func() time.Time { return now }),
		)
		store.Put(snapshotAt(now.Add(-10 * time.Minute)))

		Convey("Then reads still serve but report stale", func() {
			So(store.Freshness(), ShouldEqual, repository.Stale)

			entries, state, _, err := store.TopN(10)
			So(err, ShouldBeNil)
			So(state, ShouldEqual, repository.Stale)
			So(entries, ShouldHaveLength, 2)
		})
	})
}
