package engine_test

import (
	"context"
	"errors"
	"math/big"
	"os"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/predictfund/engine/internal/adapters/ledger"
	"github.com/predictfund/engine/internal/adapters/ledgertest"
	"github.com/predictfund/engine/internal/adapters/profile"
	"github.com/predictfund/engine/internal/domain/leaderboard"
	"github.com/predictfund/engine/internal/domain/model"
	"github.com/predictfund/engine/internal/engine"
	"github.com/predictfund/engine/pkg/logger"
)

// stallingReader blocks every call until the caller's context expires.
type stallingReader struct{}

func (stallingReader) BlockNumber(ctx context.Context) (uint64, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func (stallingReader) FilterLogs(ctx context.Context, _, _ uint64) ([]ledger.Log, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stallingReader) UserBets(ctx context.Context, _ string) ([]*big.Int, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stallingReader) Bet(ctx context.Context, _ *big.Int) (model.BetRecord, error) {
	<-ctx.Done()
	return model.BetRecord{}, ctx.Err()
}

const (
	addrA = "0xaaa0000000000000000000000000000000000001"
	addrB = "0xbbb0000000000000000000000000000000000002"
	addrC = "0xccc0000000000000000000000000000000000003"
)

const oneToken = int64(1_000_000_000_000_000_000)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// seed registers n bets for address, the first wins of them claimed with
// a reward and the rest claimed without one.
func seed(fake *ledgertest.Fake, address string, n, wins int, stakeWei int64) {
	for i := range n {
		reward := int64(0)
		if i < wins {
			reward = 2 * stakeWei
		}
		fake.AddBet(address, stakeWei, true, reward)
	}
}

func TestDiscover(t *testing.T) {
	Convey("Given a ledger with bets from two participants", t, func() {
		fake := ledgertest.New(50_000)
		seed(fake, addrA, 3, 1, oneToken)
		seed(fake, addrB, 2, 0, oneToken)

		Convey("When discovering over the lookback window", func() {
			set, err := engine.Discover(t.Context(), fake, 10_000)

			Convey("Then both addresses are found once, in emission order", func() {
				So(err, ShouldBeNil)
				So(set.Addresses(), ShouldResemble, []string{addrA, addrB})
			})
		})
	})

	Convey("Given a head lower than the lookback window", t, func() {
		fake := ledgertest.New(100)
		seed(fake, addrA, 1, 0, oneToken)

		Convey("When discovering", func() {
			set, err := engine.Discover(t.Context(), fake, 10_000)

			Convey("Then the window clamps at genesis and discovery succeeds", func() {
				So(err, ShouldBeNil)
				So(set.Len(), ShouldEqual, 1)
			})
		})
	})

	Convey("Given a ledger whose log query fails", t, func() {
		fake := ledgertest.New(50_000)
		fake.FailLogs()

		Convey("When discovering", func() {
			set, err := engine.Discover(t.Context(), fake, 10_000)

			Convey("Then the discovery kind is returned with an empty set", func() {
				So(errors.Is(err, engine.ErrDiscovery), ShouldBeTrue)
				So(set.Len(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a ledger whose head query fails", t, func() {
		fake := ledgertest.New(50_000)
		fake.FailHead()

		_, err := engine.Discover(t.Context(), fake, 10_000)
		So(errors.Is(err, engine.ErrDiscovery), ShouldBeTrue)
	})
}

func TestAggregate(t *testing.T) {
	Convey("Given a participant with a mix of readable and unreadable bets", t, func() {
		fake := ledgertest.New(50_000)
		fake.AddBet(addrA, oneToken, true, 2*oneToken)
		broken := fake.AddBet(addrA, oneToken, true, 0)
		fake.AddBet(addrA, oneToken, false, 0)
		fake.FailBet(broken)

		Convey("When aggregating", func() {
			agg, err := engine.Aggregate(t.Context(), fake, addrA)

			Convey("Then the unreadable record is skipped and the rest count", func() {
				So(err, ShouldBeNil)
				So(agg.Predictions, ShouldEqual, 2)
				So(agg.CorrectPredictions, ShouldEqual, 1)
				So(agg.TotalStaked.Int64(), ShouldEqual, 2*oneToken)
			})
		})
	})

	Convey("Given a participant whose bet list cannot be read", t, func() {
		fake := ledgertest.New(50_000)
		fake.AddBet(addrA, oneToken, false, 0)
		fake.FailUserBets(addrA)

		_, err := engine.Aggregate(t.Context(), fake, addrA)
		So(errors.Is(err, engine.ErrAggregate), ShouldBeTrue)
	})
}

func TestAggregateAll(t *testing.T) {
	Convey("Given three participants with one failing entirely", t, func() {
		fake := ledgertest.New(50_000)
		seed(fake, addrA, 12, 9, oneToken)
		seed(fake, addrB, 12, 6, oneToken)
		seed(fake, addrC, 12, 3, oneToken)
		fake.FailUserBets(addrB)

		Convey("When aggregating the full set", func() {
			aggs := engine.AggregateAll(t.Context(), fake, []string{addrA, addrB, addrC}, 4)

			Convey("Then the survivors come back in discovery order", func() {
				So(aggs, ShouldHaveLength, 2)
				So(aggs[0].Address, ShouldEqual, addrA)
				So(aggs[1].Address, ShouldEqual, addrC)
			})
		})
	})

	Convey("Given no addresses", t, func() {
		fake := ledgertest.New(50_000)
		So(engine.AggregateAll(t.Context(), fake, nil, 4), ShouldBeEmpty)
	})
}

func TestPipelineRun(t *testing.T) {
	Convey("Given a ledger with qualified and unqualified participants", t, func() {
		fake := ledgertest.New(50_000)
		seed(fake, addrA, 20, 15, 2*oneToken) // qualified, strong
		seed(fake, addrB, 5, 5, oneToken)     // below threshold
		seed(fake, addrC, 12, 4, oneToken)    // qualified, weaker

		profiles := profile.NewStaticStore(map[string]string{addrA: "oracle.eth"})
		p := engine.NewPipeline(fake,
			engine.WithLookback(10_000),
			engine.WithWorkers(4),
			engine.WithTimeout(time.Minute),
			engine.WithProfiles(profiles),
		)

		Convey("When running the pipeline", func() {
			snap, err := p.Run(t.Context())

			Convey("Then the snapshot ranks only the qualified set", func() {
				So(err, ShouldBeNil)
				So(snap.Entries, ShouldHaveLength, 2)
				So(snap.Entries[0].Address, ShouldEqual, addrA)
				So(snap.Entries[0].Rank, ShouldEqual, 1)
				So(snap.Entries[1].Address, ShouldEqual, addrC)
				So(snap.Entries[1].Rank, ShouldEqual, 2)
				So(snap.QualifiedCount, ShouldEqual, 2)
			})

			Convey("Then display names decorate matching entries only", func() {
				So(snap.Entries[0].DisplayName, ShouldEqual, "oracle.eth")
				So(snap.Entries[1].DisplayName, ShouldBeBlank)
			})

			Convey("Then the stats cover the qualified stake", func() {
				total := new(big.Int).Mul(big.NewInt(20), big.NewInt(2*oneToken))
				total.Add(total, new(big.Int).Mul(big.NewInt(12), big.NewInt(oneToken)))
				So(snap.TotalStakedQualified.String(), ShouldEqual, total.String())
				So(snap.RunID, ShouldNotBeBlank)
				So(snap.ComputedAt.IsZero(), ShouldBeFalse)
			})
		})
	})

	Convey("Given a ledger where discovery fails", t, func() {
		fake := ledgertest.New(50_000)
		fake.FailLogs()
		p := engine.NewPipeline(fake)

		_, err := p.Run(t.Context())
		So(errors.Is(err, engine.ErrDiscovery), ShouldBeTrue)
	})

	Convey("Given a ledger that stops responding", t, func() {
		p := engine.NewPipeline(stallingReader{},
			engine.WithTimeout(50*time.Millisecond),
		)

		Convey("When running with a short pipeline deadline", func() {
			start := time.Now()
			_, err := p.Run(t.Context())

			Convey("Then the run aborts promptly instead of hanging", func() {
				So(errors.Is(err, engine.ErrDiscovery), ShouldBeTrue)
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
				So(time.Since(start), ShouldBeLessThan, 5*time.Second)
			})
		})
	})

	Convey("Given a custom qualification threshold", t, func() {
		fake := ledgertest.New(50_000)
		seed(fake, addrB, 5, 5, oneToken)

		p := engine.NewPipeline(fake,
			engine.WithBuilder(leaderboard.NewBuilder(leaderboard.WithMinPredictions(3))),
		)

		snap, err := p.Run(t.Context())
		So(err, ShouldBeNil)
		So(snap.Entries, ShouldHaveLength, 1)
	})
}
