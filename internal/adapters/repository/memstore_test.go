package repository_test

import (
	"context"
	"sync"
	"testing"

	"github.com/verdictswarm/livescan/internal/adapters/repository"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryStore(t *testing.T) {
	Convey("Given an in-memory quota store", t, func() {
		ctx := context.Background()
		s := repository.NewMemoryStore()

		Convey("When incrementing below the ceiling", func() {
			count, incremented, err := s.IncrBelow(ctx, "2026-08-31", "wallet:0xabc", 3)

			Convey("Then the row is created lazily at one", func() {
				So(err, ShouldBeNil)
				So(incremented, ShouldBeTrue)
				So(count, ShouldEqual, 1)
			})
		})

		Convey("When incrementing up to and past the ceiling", func() {
			for i := 1; i <= 3; i++ {
				count, incremented, err := s.IncrBelow(ctx, "2026-08-31", "wallet:0xabc", 3)
				So(err, ShouldBeNil)
				So(incremented, ShouldBeTrue)
				So(count, ShouldEqual, i)
			}
			count, incremented, err := s.IncrBelow(ctx, "2026-08-31", "wallet:0xabc", 3)

			Convey("Then the at-limit call is a no-op", func() {
				So(err, ShouldBeNil)
				So(incremented, ShouldBeFalse)
				So(count, ShouldEqual, 3)
			})
		})

		Convey("When two identities consume on the same day", func() {
			_, _, err := s.IncrBelow(ctx, "2026-08-31", "wallet:0xaaa", 3)
			So(err, ShouldBeNil)

			countB, err := s.Count(ctx, "2026-08-31", "wallet:0xbbb")

			Convey("Then the other identity is unaffected", func() {
				So(err, ShouldBeNil)
				So(countB, ShouldEqual, 0)
			})
		})

		Convey("When the calendar day rolls over", func() {
			for i := 0; i < 3; i++ {
				_, _, err := s.IncrBelow(ctx, "2026-08-31", "wallet:0xabc", 3)
				So(err, ShouldBeNil)
			}

			count, incremented, err := s.IncrBelow(ctx, "2026-09-01", "wallet:0xabc", 3)

			Convey("Then the new day starts from zero", func() {
				So(err, ShouldBeNil)
				So(incremented, ShouldBeTrue)
				So(count, ShouldEqual, 1)
			})
		})

		Convey("When the ceiling is negative", func() {
			_, _, err := s.IncrBelow(ctx, "2026-08-31", "wallet:0xabc", -1)

			Convey("Then it fails with ErrInvalidCeiling", func() {
				So(err, ShouldEqual, repository.ErrInvalidCeiling)
			})
		})

		Convey("When K concurrent increments race for M remaining slots", func() {
			const k, ceiling = 32, 5
			store := repository.NewMemoryStore(repository.WithShardCount(4))

			var wg sync.WaitGroup
			wins := make(chan bool, k)
			for i := 0; i < k; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, incremented, err := store.IncrBelow(ctx, "2026-08-31", "wallet:0xrace", ceiling)
					wins <- incremented && err == nil
				}()
			}
			wg.Wait()
			close(wins)

			won := 0
			for w := range wins {
				if w {
					won++
				}
			}

			Convey("Then exactly M increments succeed", func() {
				So(won, ShouldEqual, ceiling)
				count, err := store.Count(ctx, "2026-08-31", "wallet:0xrace")
				So(err, ShouldBeNil)
				So(count, ShouldEqual, ceiling)
			})
		})
	})
}
