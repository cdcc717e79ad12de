package timeline

import (
	"context"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestFeed(t *testing.T) {
	Convey("Given a well-formed event stream", t, func() {
		d := quietDirector()
		defer d.Destroy()
		sink := &frameSink{}
		d.Subscribe(sink.add)

		body := strings.Join([]string{
			"event: scan:start",
			`data: {"scan_id":"abc"}`,
			"",
			": keepalive",
			"",
			"event: agent:complete",
			`data: {"agent":"Technical Analyst"}`,
			"",
			"event: scan:complete",
			`data: {"verdict":"LOW_RISK",`,
			`data:  "score":91}`,
			"",
		}, "\n")

		Feed(context.Background(), strings.NewReader(body), d)

		Convey("Then the director walks the full session", func() {
			ok := sink.waitFor(func(fs []Frame) bool {
				return len(fs) > 0 && fs[len(fs)-1].Verdict == VerdictLowRisk
			}, time.Second)
			So(ok, ShouldBeTrue)

			frames := sink.snapshot()
			So(frames[0].StepIndex, ShouldEqual, 0)
			So(frames[len(frames)-1].StepIndex, ShouldEqual, 1)
		})
	})

	Convey("Given a stream missing its trailing blank line", t, func() {
		d := quietDirector()
		defer d.Destroy()
		sink := &frameSink{}
		d.Subscribe(sink.add)

		body := "event: scan:start\ndata: {}\n"
		Feed(context.Background(), strings.NewReader(body), d)

		Convey("Then the final event is still delivered", func() {
			ok := sink.waitFor(func(fs []Frame) bool { return len(fs) == 1 }, time.Second)
			So(ok, ShouldBeTrue)
		})
	})

	Convey("Given a stream of unknown and error events", t, func() {
		d := quietDirector()
		defer d.Destroy()
		sink := &frameSink{}
		d.Subscribe(sink.add)

		body := strings.Join([]string{
			"event: agent:thinking",
			`data: {"note":"hmm"}`,
			"",
			"event: scan:error",
			`data: {"message":"engine hiccup"}`,
			"",
		}, "\n")
		Feed(context.Background(), strings.NewReader(body), d)
		time.Sleep(20 * time.Millisecond)

		Convey("Then nothing reaches the timeline", func() {
			So(len(sink.snapshot()), ShouldEqual, 0)
		})
	})

	Convey("Given a canceled context", t, func() {
		d := quietDirector()
		defer d.Destroy()
		sink := &frameSink{}
		d.Subscribe(sink.add)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		Feed(ctx, strings.NewReader("event: scan:start\ndata: {}\n\n"), d)
		time.Sleep(20 * time.Millisecond)

		Convey("Then the feed stops before pushing", func() {
			So(len(sink.snapshot()), ShouldEqual, 0)
		})
	})
}
