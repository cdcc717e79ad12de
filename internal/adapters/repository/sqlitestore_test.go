package repository_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/verdictswarm/livescan/internal/adapters/repository"
	. "github.com/smartystreets/goconvey/convey"
)

func newTestDB(t *testing.T) *repository.SQLiteStore {
	t.Helper()
	s, err := repository.NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "quota.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore(t *testing.T) {
	Convey("Given a SQLite quota store", t, func() {
		ctx := context.Background()
		s := newTestDB(t)

		Convey("When consuming a fresh identity", func() {
			count, incremented, err := s.IncrBelow(ctx, "2026-08-31", "wallet:0xabc", 2)

			Convey("Then the row is seeded and incremented to one", func() {
				So(err, ShouldBeNil)
				So(incremented, ShouldBeTrue)
				So(count, ShouldEqual, 1)
			})
		})

		Convey("When the ceiling is reached", func() {
			for i := 0; i < 2; i++ {
				_, _, err := s.IncrBelow(ctx, "2026-08-31", "wallet:0xabc", 2)
				So(err, ShouldBeNil)
			}

			count, incremented, err := s.IncrBelow(ctx, "2026-08-31", "wallet:0xabc", 2)

			Convey("Then further consumes do not mutate the row", func() {
				So(err, ShouldBeNil)
				So(incremented, ShouldBeFalse)
				So(count, ShouldEqual, 2)
			})
		})

		Convey("When reading a missing row", func() {
			count, err := s.Count(ctx, "2026-08-31", "wallet:0xmissing")

			Convey("Then it reads as zero", func() {
				So(err, ShouldBeNil)
				So(count, ShouldEqual, 0)
			})
		})

		Convey("When days differ", func() {
			_, _, err := s.IncrBelow(ctx, "2026-08-30", "wallet:0xabc", 5)
			So(err, ShouldBeNil)

			count, err := s.Count(ctx, "2026-08-31", "wallet:0xabc")

			Convey("Then each day keys its own row", func() {
				So(err, ShouldBeNil)
				So(count, ShouldEqual, 0)
			})
		})

		Convey("When pruning old days", func() {
			_, _, err := s.IncrBelow(ctx, "2026-08-29", "wallet:0xold", 5)
			So(err, ShouldBeNil)
			_, _, err = s.IncrBelow(ctx, "2026-08-31", "wallet:0xnew", 5)
			So(err, ShouldBeNil)

			pruned, err := s.PruneBefore(ctx, "2026-08-31")

			Convey("Then only earlier rows are deleted", func() {
				So(err, ShouldBeNil)
				So(pruned, ShouldEqual, 1)
				count, err := s.Count(ctx, "2026-08-31", "wallet:0xnew")
				So(err, ShouldBeNil)
				So(count, ShouldEqual, 1)
			})
		})

		Convey("When concurrent consumes race for the last slots", func() {
			const k, ceiling = 16, 4

			var wg sync.WaitGroup
			wins := make(chan bool, k)
			for i := 0; i < k; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, incremented, err := s.IncrBelow(ctx, "2026-08-31", "wallet:0xrace", ceiling)
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

			Convey("Then exactly the remaining allowance is granted", func() {
				So(won, ShouldEqual, ceiling)
				count, err := s.Count(ctx, "2026-08-31", "wallet:0xrace")
				So(err, ShouldBeNil)
				So(count, ShouldEqual, ceiling)
			})
		})
	})
}
