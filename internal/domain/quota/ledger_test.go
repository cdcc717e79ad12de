package quota_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/verdictswarm/livescan/internal/adapters/repository"
	"github.com/verdictswarm/livescan/internal/domain/quota"
	. "github.com/smartystreets/goconvey/convey"
)

// failingStore simulates a broken persistence layer.
type failingStore struct{}

func (failingStore) IncrBelow(ctx context.Context, dateKey, identity string, ceiling int) (int, bool, error) {
	return 0, false, errors.New("disk on fire")
}

func (failingStore) Count(ctx context.Context, dateKey, identity string) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestLedgerConsume(t *testing.T) {
	Convey("Given a ledger over an in-memory store", t, func() {
		ctx := context.Background()
		l := quota.New(repository.NewMemoryStore())

		Convey("When an identity with allowance N consumes N times", func() {
			const allowance = 5

			Convey("Then used increases by one each call and remaining mirrors it", func() {
				for i := 1; i <= allowance; i++ {
					q, err := l.Consume(ctx, "Wallet:0xABC", allowance)
					So(err, ShouldBeNil)
					So(q.Used, ShouldEqual, i)
					So(q.Remaining, ShouldEqual, allowance-i)
					So(q.Limit, ShouldEqual, allowance)
				}

				Convey("And the N+1-th call rejects without mutating", func() {
					q, err := l.Consume(ctx, "wallet:0xabc", allowance)
					So(errors.Is(err, quota.ErrQuotaExceeded), ShouldBeTrue)
					So(q.Used, ShouldEqual, allowance)
					So(q.Remaining, ShouldEqual, 0)

					var exceeded *quota.ExceededError
					So(errors.As(err, &exceeded), ShouldBeTrue)
					So(exceeded.Quota.Limit, ShouldEqual, allowance)

					q, err = l.Usage(ctx, "wallet:0xabc", allowance)
					So(err, ShouldBeNil)
					So(q.Used, ShouldEqual, allowance)
				})
			})
		})

		Convey("When identities differ only by case", func() {
			_, err := l.Consume(ctx, "WALLET:0xAAA", 3)
			So(err, ShouldBeNil)

			q, err := l.Usage(ctx, "wallet:0xaaa", 3)

			Convey("Then they share one normalized counter", func() {
				So(err, ShouldBeNil)
				So(q.Used, ShouldEqual, 1)
			})
		})

		Convey("When two identities consume independently", func() {
			_, err := l.Consume(ctx, "wallet:0xaaa", 3)
			So(err, ShouldBeNil)

			q, err := l.Usage(ctx, "wallet:0xbbb", 3)

			Convey("Then one identity's consumption never touches the other", func() {
				So(err, ShouldBeNil)
				So(q.Used, ShouldEqual, 0)
				So(q.Remaining, ShouldEqual, 3)
			})
		})

		Convey("When the identity is empty", func() {
			q, err := l.Consume(ctx, "   ", 3)
			So(err, ShouldBeNil)
			So(q.Used, ShouldEqual, 1)

			q, err = l.Usage(ctx, quota.AnonymousIdentity, 3)

			Convey("Then it is charged to the anonymous sentinel", func() {
				So(err, ShouldBeNil)
				So(q.Used, ShouldEqual, 1)
			})
		})
	})
}

func TestLedgerDayBoundary(t *testing.T) {
	Convey("Given a ledger with an injectable clock", t, func() {
		ctx := context.Background()
		day1 := time.Date(2026, 8, 31, 23, 50, 0, 0, time.Local)
		current := day1

		l := quota.New(repository.NewMemoryStore(), quota.WithNow(func() time.Time { return current }))

		Convey("When the allowance is exhausted before midnight", func() {
			for i := 0; i < 3; i++ {
				_, err := l.Consume(ctx, "wallet:0xabc", 3)
				So(err, ShouldBeNil)
			}
			q, err := l.Consume(ctx, "wallet:0xabc", 3)
			So(errors.Is(err, quota.ErrQuotaExceeded), ShouldBeTrue)
			So(q.Remaining, ShouldEqual, 0)

			Convey("Then crossing into the next day resets the effective count", func() {
				current = day1.Add(20 * time.Minute) // past local midnight

				q, err := l.Consume(ctx, "wallet:0xabc", 3)
				So(err, ShouldBeNil)
				So(q.Used, ShouldEqual, 1)
				So(q.Remaining, ShouldEqual, 2)
			})
		})
	})
}

func TestLedgerConcurrency(t *testing.T) {
	Convey("Given K concurrent consumes racing for M remaining slots", t, func() {
		ctx := context.Background()
		const k, allowance = 24, 6
		l := quota.New(repository.NewMemoryStore())

		var wg sync.WaitGroup
		results := make(chan int, k) // used value observed by each call
		for i := 0; i < k; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				q, err := l.Consume(ctx, "wallet:0xrace", allowance)
				if err != nil && !errors.Is(err, quota.ErrQuotaExceeded) {
					results <- -1
					return
				}
				results <- q.Used
			}()
		}
		wg.Wait()
		close(results)

		seen := make(map[int]int)
		for r := range results {
			seen[r]++
		}

		Convey("Then each pre-limit count is handed out exactly once", func() {
			So(seen[-1], ShouldEqual, 0)
			for used := 1; used < allowance; used++ {
				So(seen[used], ShouldEqual, 1)
			}
			// The winning final increment and all denied calls observe the limit.
			So(seen[allowance], ShouldEqual, k-allowance+1)
		})

		Convey("Then exactly M increments landed overall", func() {
			q, err := l.Usage(ctx, "wallet:0xrace", allowance)
			So(err, ShouldBeNil)
			So(q.Used, ShouldEqual, allowance)
			So(q.Remaining, ShouldEqual, 0)
		})
	})
}

func TestLedgerFailClosed(t *testing.T) {
	Convey("Given a ledger over a failing store", t, func() {
		ctx := context.Background()
		l := quota.New(failingStore{})

		Convey("When consuming", func() {
			_, err := l.Consume(ctx, "wallet:0xabc", 3)

			Convey("Then it surfaces ErrLedgerUnavailable", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, quota.ErrLedgerUnavailable), ShouldBeTrue)
			})
		})

		Convey("When reading usage", func() {
			_, err := l.Usage(ctx, "wallet:0xabc", 3)

			Convey("Then the read fails the same way", func() {
				So(errors.Is(err, quota.ErrLedgerUnavailable), ShouldBeTrue)
			})
		})
	})
}
