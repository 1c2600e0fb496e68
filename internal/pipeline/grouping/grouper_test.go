// internal/pipeline/grouping/grouper_test.go
package grouping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/models"
)

func answerOf(s string) *string { return &s }

func TestKeyFor_SharedPrefixScenariosGetDistinctKeys(t *testing.T) {
	// These two situations share an identical 50-character prefix and
	// differ only near the end.
	a := "Handle an angry customer who purchased a defective product last week and wants a refund immediately"
	b := "Handle an angry customer who purchased a defective product last week but only wants an apology"

	assert.Equal(t, a[:50], b[:50])
	assert.NotEqual(t, KeyFor(a), KeyFor(b))
}

func TestKeyFor_Deterministic(t *testing.T) {
	assert.Equal(t, KeyFor("same text"), KeyFor("same text"))
}

func TestGrouper_GroupsInDefinitionOrder(t *testing.T) {
	scenarios := []models.ScenarioDefinition{
		{Situation: "scenario two", Prompt: "p2", Competencies: []string{"B"}},
		{Situation: "scenario one", Prompt: "p1", Competencies: []string{"A"}},
	}
	turns := []models.ConversationTurn{
		{Situation: "scenario one", Prompt: "p1", Answer: answerOf("a1")},
		{Situation: "scenario two", Prompt: "p2", Answer: answerOf("a2")},
	}

	result := NewGrouper(logger.NewNop()).Group(scenarios, turns)

	require.Len(t, result.Groups, 2)
	// Definition order wins over turn order.
	assert.Equal(t, "scenario two", result.Groups[0].Scenario.Situation)
	assert.Equal(t, "scenario one", result.Groups[1].Scenario.Situation)
	assert.Empty(t, result.NotAttempted)
}

func TestGrouper_BaseTurnFirstThenFollowUps(t *testing.T) {
	scenarios := []models.ScenarioDefinition{
		{Situation: "s1", Prompt: "p1", Competencies: []string{"A"}},
	}
	turns := []models.ConversationTurn{
		{Situation: "s1", Prompt: "p1", Answer: answerOf("base")},
		{Situation: "s1", Prompt: "f1", Answer: answerOf("first follow-up"), IsFollowUp: true, FollowUpSequence: 1},
		{Situation: "s1", Prompt: "f2", Answer: answerOf("second follow-up"), IsFollowUp: true, FollowUpSequence: 2},
	}

	result := NewGrouper(logger.NewNop()).Group(scenarios, turns)

	require.Len(t, result.Groups, 1)
	group := result.Groups[0]
	require.Len(t, group.Turns, 3)
	assert.False(t, group.Turns[0].IsFollowUp)
	assert.Equal(t, 1, group.Turns[1].FollowUpSequence)
	assert.Equal(t, 2, group.Turns[2].FollowUpSequence)
}

func TestGrouper_UnansweredScenarioIsNotAttempted(t *testing.T) {
	scenarios := []models.ScenarioDefinition{
		{Situation: "answered", Prompt: "p", Competencies: []string{"A"}},
		{Situation: "skipped", Prompt: "p", Competencies: []string{"B"}},
	}
	turns := []models.ConversationTurn{
		{Situation: "answered", Prompt: "p", Answer: answerOf("a")},
		{Situation: "skipped", Prompt: "p"}, // presented but never answered
	}

	result := NewGrouper(logger.NewNop()).Group(scenarios, turns)

	require.Len(t, result.Groups, 1)
	assert.Equal(t, "answered", result.Groups[0].Scenario.Situation)
	require.Len(t, result.NotAttempted, 1)
	assert.Equal(t, "skipped", result.NotAttempted[0].Situation)
}

func TestGrouper_DropsTurnsForUnknownScenarios(t *testing.T) {
	scenarios := []models.ScenarioDefinition{
		{Situation: "known", Prompt: "p", Competencies: []string{"A"}},
	}
	turns := []models.ConversationTurn{
		{Situation: "known", Prompt: "p", Answer: answerOf("a")},
		{Situation: "mystery scenario", Prompt: "p", Answer: answerOf("a")},
	}

	result := NewGrouper(logger.NewNop()).Group(scenarios, turns)

	require.Len(t, result.Groups, 1)
	assert.Len(t, result.Groups[0].Turns, 1)
}

func TestGroup_AnsweredTurnsFiltersUnanswered(t *testing.T) {
	group := Group{
		Turns: []models.ConversationTurn{
			{Prompt: "q1", Answer: answerOf("a1")},
			{Prompt: "q2"},
			{Prompt: "q3", Answer: answerOf("a3")},
		},
	}

	answered := group.AnsweredTurns()
	require.Len(t, answered, 2)
	assert.Equal(t, "q1", answered[0].Prompt)
	assert.Equal(t, "q3", answered[1].Prompt)
}
