// Package tier defines the fixed entitlement levels and their daily allowances.
//
// The table is static and loaded once at process start; Resolve is pure and
// performs no I/O.
package tier

import (
	"fmt"
	"strings"
)

// Level identifies an entitlement tier.
type Level string

// Supported tiers.
const (
	Free        Level = "free"
	Tier1       Level = "tier_1"
	Tier2       Level = "tier_2"
	Tier3       Level = "tier_3"
	SwarmDebate Level = "swarm_debate"
)

// Definition describes one tier.
type Definition struct {
	Key            Level
	DisplayName    string
	DailyAllowance int

	// AgentCount is the number of analysis agents visible at this tier.
	AgentCount int
}

var table = map[Level]Definition{
	Free:        {Key: Free, DisplayName: "Free", DailyAllowance: 3, AgentCount: 2},
	Tier1:       {Key: Tier1, DisplayName: "Investigator", DailyAllowance: 15, AgentCount: 6},
	Tier2:       {Key: Tier2, DisplayName: "Prosecutor", DailyAllowance: 30, AgentCount: 7},
	Tier3:       {Key: Tier3, DisplayName: "Grand Jury", DailyAllowance: 50, AgentCount: 7},
	SwarmDebate: {Key: SwarmDebate, DisplayName: "Consensus", DailyAllowance: 5, AgentCount: 8},
}

// Legacy display aliases accepted on the wire.
var aliases = map[string]Level{
	"investigator": Tier1,
	"vigilante":    Tier2,
	"prosecutor":   Tier2,
	"whale":        Tier3,
	"grand_jury":   Tier3,
	"consensus":    SwarmDebate,
}

// Default returns the lowest tier, used for unauthenticated sessions.
func Default() Definition {
	return table[Free]
}

// Resolve maps a tier key (canonical or alias, case-insensitive) to its
// definition. An empty key resolves to the default tier; an unknown key
// fails with ErrUnknownTier.
func Resolve(key string) (Definition, error) {
	k := strings.ToLower(strings.TrimSpace(key))
	if k == "" {
		return Default(), nil
	}
	if def, ok := table[Level(k)]; ok {
		return def, nil
	}
	if lvl, ok := aliases[k]; ok {
		return table[lvl], nil
	}
	return Definition{}, fmt.Errorf("%w: %q", ErrUnknownTier, key)
}

// Levels returns all tier definitions in ascending entitlement order.
func Levels() []Definition {
	return []Definition{table[Free], table[Tier1], table[Tier2], table[Tier3], table[SwarmDebate]}
}
