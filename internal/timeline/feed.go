package timeline

import (
	"bufio"
	"context"
	"io"
	"strings"
)

const (
	feedScanBuf = 64 * 1024
	feedScanMax = 1024 * 1024
)

// Feed decodes a text/event-stream body and pushes each event into the
// director until the body ends or ctx is canceled. Transport errors end
// the feed without surfacing anywhere; the director's fallback timer and
// SkipToEnd cover the gap.
func Feed(ctx context.Context, body io.Reader, d *Director) {
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 0, feedScanBuf), feedScanMax)

	var (
		kind  string
		data  []string
		order int
	)
	flush := func() {
		if kind == "" && len(data) == 0 {
			return
		}
		d.Push(RawEvent{
			Kind:         kind,
			Payload:      []byte(strings.Join(data, "\n")),
			ArrivalOrder: order,
		})
		order++
		kind, data = "", nil
	}

	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := sc.Text()
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, ":"):
			// Comment line, commonly a keepalive.
		case strings.HasPrefix(line, "event:"):
			kind = strings.TrimSpace(line[len("event:"):])
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	// A body that ends without a trailing blank line still carries its
	// final event.
	flush()
}
