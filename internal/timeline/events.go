package timeline

import (
	"strings"

	"github.com/bytedance/sonic"
)

// Event kinds recognized by the director. The feed may carry more kinds
// (agent:thinking, debate:*, ...); anything unrecognized is ignored so new
// upstream kinds never break the timeline.
const (
	KindScanStart     = "scan:start"
	KindAgentStart    = "agent:start"
	KindAgentComplete = "agent:complete"
	KindScanConsensus = "scan:consensus"
	KindScanComplete  = "scan:complete"
	KindScanError     = "scan:error"
)

// RawEvent is one inbound push message. Arrival order is the only ordering
// guarantee; no sequence numbers are trusted.
type RawEvent struct {
	Kind         string
	Payload      []byte
	ArrivalOrder int
}

// Verdict is the terminal outcome carried by the final frame.
type Verdict int

// Verdict values.
const (
	VerdictNone Verdict = iota
	VerdictLowRisk
	VerdictFlagged
)

func (v Verdict) String() string {
	switch v {
	case VerdictLowRisk:
		return "LOW_RISK"
	case VerdictFlagged:
		return "FLAGGED"
	default:
		return "NONE"
	}
}

// Frame is one discrete, presentable state snapshot. StepIndex never
// decreases within a session; once Verdict is set it never changes.
type Frame struct {
	StepIndex int
	Verdict   Verdict

	// Fading marks frames produced without a real upstream event
	// (fallback timer or skip-to-end), letting the UI soften them.
	Fading bool
}

// verdictPayload is the scan:complete body subset the director reads.
type verdictPayload struct {
	Verdict string  `json:"verdict"`
	Score   float64 `json:"score"`
	Grade   string  `json:"grade"`
}

// lowRiskScoreFloor is the 0-100 score at or above which a scan without an
// explicit verdict field counts as low risk.
const lowRiskScoreFloor = 60.0

func parseVerdict(payload []byte) Verdict {
	var p verdictPayload
	if err := sonic.Unmarshal(payload, &p); err != nil {
		// An unreadable completion still terminates the session; flag it.
		return VerdictFlagged
	}
	switch strings.ToUpper(strings.TrimSpace(p.Verdict)) {
	case "LOW_RISK":
		return VerdictLowRisk
	case "FLAGGED":
		return VerdictFlagged
	}
	if p.Score >= lowRiskScoreFloor {
		return VerdictLowRisk
	}
	return VerdictFlagged
}
