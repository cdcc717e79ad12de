package timeline

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/verdictswarm/livescan/pkg/metrics"
)

// DefaultSteps is the presentation ladder walked during a scan.
var DefaultSteps = []string{
	"Dispatching swarm",
	"Technical analysis",
	"Security audit",
	"Tokenomics deep-dive",
	"Cross-examination",
	"Reaching consensus",
}

// Default bounds for the simulated-progress interval.
const (
	DefaultSimulateMin = 1800 * time.Millisecond
	DefaultSimulateMax = 4800 * time.Millisecond
)

const cmdQueueSize = 64

type sessionState int

const (
	stateIdle sessionState = iota
	stateRunning
	stateVerdictReached
)

// Director turns a gappy, bursty event stream into an ordered sequence of
// monotonic frames. A stalled feed keeps progressing through a randomized
// fallback timer; real events reset that timer so simulated and real
// advancement never stack up.
//
// All session state is owned by a single goroutine. Pushes, ticks, and
// control calls funnel through one queue, so there is exactly one ordering
// of everything that can mutate the timeline.
type Director struct {
	steps       []string
	simulateMin time.Duration
	simulateMax time.Duration

	cmds chan func()
	quit chan struct{}
	done chan struct{}

	destroyOnce sync.Once

	// Everything below is touched only by the loop goroutine.
	state       sessionState
	stepIndex   int
	verdict     Verdict
	subscribers map[int]func(Frame)
	nextSubID   int
	timer       *time.Timer
	rng         *rand.Rand
}

// New creates a director and starts its scheduling loop. The caller must
// Destroy it when the session ends.
func New(opts ...Option) *Director {
	d := &Director{
		steps:       DefaultSteps,
		simulateMin: DefaultSimulateMin,
		simulateMax: DefaultSimulateMax,
		cmds:        make(chan func(), cmdQueueSize),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
		subscribers: make(map[int]func(Frame)),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(d)
	}
	go d.loop()
	return d
}

// Steps returns the presentation labels; index i labels frames with
// StepIndex i.
func (d *Director) Steps() []string {
	out := make([]string, len(d.steps))
	copy(out, d.steps)
	return out
}

// Start enters the running state and emits the opening frame. Pushing a
// scan:start event does the same; whichever happens first wins.
func (d *Director) Start() {
	d.do(func() { d.begin(false) })
}

// Push hands an inbound event to the scheduling loop. Safe to call after
// Destroy; late events are dropped.
func (d *Director) Push(ev RawEvent) {
	d.do(func() { d.handleEvent(ev) })
}

// Subscribe registers a frame listener and returns its unsubscribe func.
// Listeners are invoked on the loop goroutine, in subscription order, and
// see every frame emitted after registration exactly once.
func (d *Director) Subscribe(fn func(Frame)) func() {
	idCh := make(chan int, 1)
	if !d.do(func() {
		id := d.nextSubID
		d.nextSubID++
		d.subscribers[id] = fn
		idCh <- id
	}) {
		return func() {}
	}
	select {
	case id := <-idCh:
		return func() {
			d.do(func() { delete(d.subscribers, id) })
		}
	case <-d.done:
		return func() {}
	}
}

// SkipToEnd jumps the timeline to its final step without settling a
// verdict. Used when the caller abandons the live feed but still wants the
// UI parked at "done pending verdict".
func (d *Director) SkipToEnd() {
	d.do(func() {
		if d.state == stateVerdictReached {
			return
		}
		d.begin(true)
		if last := len(d.steps) - 1; d.stepIndex < last {
			d.stepIndex = last
			d.emit(true)
		}
	})
}

// Destroy stops the loop. After it returns no subscriber receives another
// frame and no timer fires. Idempotent. Must not be called from inside a
// subscriber callback.
func (d *Director) Destroy() {
	d.destroyOnce.Do(func() { close(d.quit) })
	<-d.done
}

// do enqueues fn for the loop goroutine. Returns false if the loop has
// already exited; fn may still be silently dropped if Destroy races the
// enqueue, which is fine for every caller here.
func (d *Director) do(fn func()) bool {
	select {
	case d.cmds <- fn:
		return true
	case <-d.done:
		return false
	}
}

func (d *Director) loop() {
	defer close(d.done)
	d.timer = time.NewTimer(d.nextInterval())
	defer d.timer.Stop()
	for {
		select {
		case <-d.quit:
			return
		case fn := <-d.cmds:
			fn()
		case <-d.timer.C:
			d.onTick()
		}
	}
}

// onTick is the fallback path: advance one step as if a milestone arrived,
// marked as simulated. Never fires past the last step and never settles a
// verdict.
func (d *Director) onTick() {
	if d.state == stateRunning {
		d.advance(true)
	}
	if d.state != stateVerdictReached {
		d.timer.Reset(d.nextInterval())
	}
}

func (d *Director) handleEvent(ev RawEvent) {
	if d.state == stateVerdictReached {
		// Stragglers after completion change nothing.
		return
	}
	switch ev.Kind {
	case KindScanStart:
		// A duplicate start after progress is ignored: the step index
		// never rewinds mid-session.
		d.begin(false)
		d.resetTimer()
	case KindAgentStart, KindAgentComplete, KindScanConsensus:
		d.begin(true)
		d.advance(false)
		d.resetTimer()
	case KindScanComplete:
		d.begin(true)
		d.state = stateVerdictReached
		d.verdict = parseVerdict(ev.Payload)
		d.stopTimer()
		d.emit(false)
	default:
		// scan:error and unknown kinds are swallowed; transport trouble
		// must not surface as timeline state.
	}
}

// begin moves idle to running. quiet suppresses the opening frame for
// paths that emit their own (joining a scan mid-flight should not show a
// phantom step zero).
func (d *Director) begin(quiet bool) {
	if d.state != stateIdle {
		return
	}
	d.state = stateRunning
	d.stepIndex = 0
	d.resetTimer()
	if !quiet {
		d.emit(false)
	}
}

// advance bumps the step index by one. Real milestones may reach the final
// step; simulated ticks park one short of it, so the last step is only ever
// occupied by something the engine actually said.
func (d *Director) advance(simulated bool) {
	if d.state != stateRunning {
		return
	}
	ceiling := len(d.steps) - 1
	if simulated {
		ceiling--
	}
	if d.stepIndex >= ceiling {
		return
	}
	d.stepIndex++
	if simulated {
		metrics.RecordSimulatedAdvance()
	}
	d.emit(simulated)
}

func (d *Director) emit(fading bool) {
	frame := Frame{
		StepIndex: d.stepIndex,
		Verdict:   d.verdict,
		Fading:    fading && d.verdict == VerdictNone,
	}
	ids := make([]int, 0, len(d.subscribers))
	for id := range d.subscribers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		d.subscribers[id](frame)
	}
	metrics.RecordFrameEmitted()
}

func (d *Director) nextInterval() time.Duration {
	if d.simulateMax <= d.simulateMin {
		return d.simulateMin
	}
	return d.simulateMin + time.Duration(d.rng.Int63n(int64(d.simulateMax-d.simulateMin)))
}

func (d *Director) resetTimer() {
	if !d.timer.Stop() {
		select {
		case <-d.timer.C:
		default:
		}
	}
	d.timer.Reset(d.nextInterval())
}

func (d *Director) stopTimer() {
	if !d.timer.Stop() {
		select {
		case <-d.timer.C:
		default:
		}
	}
}
