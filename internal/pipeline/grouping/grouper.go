// internal/pipeline/grouping/grouper.go

// Package grouping buckets conversation turns by scenario for batch
// scoring. Scenario identity is a digest of the full situation text, so
// scenarios sharing a long common prefix never collide.
package grouping

import (
	"crypto/sha256"
	"encoding/hex"

	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/models"
)

// ScenarioKey identifies one scenario within a single scoring run.
type ScenarioKey string

// KeyFor derives the identity key from the full situation text.
func KeyFor(situation string) ScenarioKey {
	sum := sha256.Sum256([]byte(situation))
	return ScenarioKey(hex.EncodeToString(sum[:]))
}

// Group is one scenario's scoring unit: its definition plus its turns
// in interview order, base turn first.
type Group struct {
	Key      ScenarioKey
	Scenario models.ScenarioDefinition
	Turns    []models.ConversationTurn
}

// AnsweredTurns returns only the turns that carry an answer.
func (g *Group) AnsweredTurns() []models.ConversationTurn {
	var out []models.ConversationTurn
	for _, turn := range g.Turns {
		if turn.Answered() {
			out = append(out, turn)
		}
	}
	return out
}

// Result separates scoreable groups from scenarios the candidate never
// answered. Group order follows the scenario definition order, which
// fixes report question numbering.
type Result struct {
	Groups       []Group
	NotAttempted []models.ScenarioDefinition
}

// Grouper assembles turns into per-scenario groups.
type Grouper struct {
	logger logger.Logger
}

func NewGrouper(log logger.Logger) *Grouper {
	return &Grouper{
		logger: log.With(map[string]interface{}{
			"component": "scenario-grouper",
		}),
	}
}

// Group buckets turns under their scenario definitions. Turns whose
// situation matches no definition are dropped with a warning; scenarios
// with zero answered turns land in NotAttempted.
func (g *Grouper) Group(scenarios []models.ScenarioDefinition, turns []models.ConversationTurn) Result {
	byKey := make(map[ScenarioKey][]models.ConversationTurn)
	known := make(map[ScenarioKey]string, len(scenarios))

	for _, scenario := range scenarios {
		key := KeyFor(scenario.Situation)
		if existing, ok := known[key]; ok && existing != scenario.Situation {
			// A digest collision between distinct texts would silently
			// merge two scenarios' answers.
			g.logger.Error("scenario key collision", map[string]interface{}{
				"key":     string(key),
				"warning": "DATA_INTEGRITY_WARNING",
			})
			continue
		}
		known[key] = scenario.Situation
	}

	for _, turn := range turns {
		key := KeyFor(turn.Situation)
		if _, ok := known[key]; !ok {
			g.logger.Warn("turn references unknown scenario, dropping from scoring", map[string]interface{}{
				"situation": truncate(turn.Situation, 80),
			})
			continue
		}
		byKey[key] = append(byKey[key], turn)
	}

	var result Result
	for _, scenario := range scenarios {
		key := KeyFor(scenario.Situation)
		group := Group{Key: key, Scenario: scenario, Turns: byKey[key]}
		if len(group.AnsweredTurns()) == 0 {
			result.NotAttempted = append(result.NotAttempted, scenario)
			continue
		}
		result.Groups = append(result.Groups, group)
	}
	return result
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
