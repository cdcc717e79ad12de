// Package scanengine is a scripted stand-in for the analysis swarm. It
// speaks the same event stream the real engine does, so the gateway relay
// and the client-side timeline can be exercised end to end without the
// swarm running.
package scanengine

import (
	"crypto/rand"
	"math/big"
	"time"
)

// Grade cutoffs on the 0-100 score scale.
const (
	gradeACutoff = 90.0
	gradeBCutoff = 75.0
	gradeCCutoff = 60.0
	gradeDCutoff = 40.0
)

// lowRiskCutoff is the score at or above which a scan passes.
const lowRiskCutoff = 60.0

// Score generation range. Scores cluster mid-scale with occasional
// extremes, enough spread that both verdicts show up in manual testing.
const (
	scoreFloatDivisor = 1000000
	scoreMin          = 20.0
	scoreRange        = 75.0
)

// DefaultStepDelay paces scripted events; long enough to watch the stream
// by eye, short enough not to bore anyone.
const DefaultStepDelay = 400 * time.Millisecond

// roster lists the swarm agents in dispatch order. A tier with agent count
// N runs the first N.
var roster = []string{
	"Technical Analyst",
	"Security Auditor",
	"Tokenomics Expert",
	"Liquidity Inspector",
	"Social Sentiment Scout",
	"Whale Tracker",
	"Devil's Advocate",
	"Consensus Judge",
}

// ScoreFn maps a scanned address to a 0-100 risk score.
type ScoreFn func(address string) float64

// Engine produces scripted scan sessions.
type Engine struct {
	stepDelay time.Duration
	score     ScoreFn
}

// New creates an engine with randomized scoring and the default pacing.
func New(opts ...Option) *Engine {
	e := &Engine{
		stepDelay: DefaultStepDelay,
		score:     randomScore,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// agentsFor clamps a tier's agent count to the roster.
func agentsFor(count int) []string {
	if count < 1 {
		count = 1
	}
	if count > len(roster) {
		count = len(roster)
	}
	return roster[:count]
}

func randomScore(string) float64 {
	return scoreMin + randomFloat()*scoreRange
}

// randomFloat returns a random float64 in [0, 1) using crypto/rand.
func randomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(scoreFloatDivisor))
	return float64(n.Int64()) / float64(scoreFloatDivisor)
}

func verdictFor(score float64) string {
	if score >= lowRiskCutoff {
		return "LOW_RISK"
	}
	return "FLAGGED"
}

func gradeFor(score float64) string {
	switch {
	case score >= gradeACutoff:
		return "A"
	case score >= gradeBCutoff:
		return "B"
	case score >= gradeCCutoff:
		return "C"
	case score >= gradeDCutoff:
		return "D"
	default:
		return "F"
	}
}
