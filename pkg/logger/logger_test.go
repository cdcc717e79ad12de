package logger_test

import (
	"context"
	"testing"

	"github.com/verdictswarm/livescan/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given an initialized global logger", t, func() {
		So(logger.Init(), ShouldBeNil)

		Convey("When getting the global logger", func() {
			l := logger.Get()

			Convey("Then it should not be nil and accept records", func() {
				So(l, ShouldNotBeNil)
				l.Info(context.Background(), "hello", logger.String("k", "v"))
				l.Debug(context.Background(), "quiet", logger.Int("n", 1))
			})
		})

		Convey("When deriving a named logger", func() {
			l := logger.Named("relay")

			Convey("Then it should be usable independently", func() {
				So(l, ShouldNotBeNil)
				l.Warn(context.Background(), "scoped")
			})
		})

		Convey("When setting levels from strings", func() {
			Convey("Then known levels parse", func() {
				So(logger.SetLevelString("debug"), ShouldBeNil)
				So(logger.SetLevelString("WARN"), ShouldBeNil)
				So(logger.SetLevelString(""), ShouldBeNil)
			})

			Convey("Then unknown levels fail", func() {
				So(logger.SetLevelString("loud"), ShouldNotBeNil)
			})
		})
	})
}
