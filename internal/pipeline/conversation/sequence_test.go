// internal/pipeline/conversation/sequence_test.go
package conversation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessment-engine/internal/models"
)

func answerOf(s string) *string { return &s }

func TestSequence_AppendAssignsStableIDs(t *testing.T) {
	seq := NewSequence(nil)

	id1 := seq.Append(models.ConversationTurn{Situation: "s1", Prompt: "q1"})
	id2 := seq.Append(models.ConversationTurn{Situation: "s1", Prompt: "q2"})

	assert.NotEqual(t, uuid.Nil, id1)
	assert.NotEqual(t, uuid.Nil, id2)
	assert.NotEqual(t, id1, id2)

	turns := seq.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, 1, turns[0].Position)
	assert.Equal(t, 2, turns[1].Position)
}

func TestSequence_InsertAfterPreservesOtherIDs(t *testing.T) {
	seq := NewSequence(nil)
	first := seq.Append(models.ConversationTurn{Situation: "s1", Prompt: "q1", Answer: answerOf("a1")})
	second := seq.Append(models.ConversationTurn{Situation: "s1", Prompt: "q2"})

	followUpID := seq.InsertAfter(first, models.ConversationTurn{
		Situation:        "s1",
		Prompt:           "can you elaborate?",
		IsFollowUp:       true,
		FollowUpSequence: 1,
	})

	turns := seq.Turns()
	require.Len(t, turns, 3)

	// Follow-up lands between the anchor and the next turn.
	assert.Equal(t, first, turns[0].ID)
	assert.Equal(t, followUpID, turns[1].ID)
	assert.Equal(t, second, turns[2].ID)

	// Positions renumber; identities do not change.
	assert.Equal(t, 1, turns[0].Position)
	assert.Equal(t, 2, turns[1].Position)
	assert.Equal(t, 3, turns[2].Position)
}

func TestSequence_InsertAfterMissingAnchorAppends(t *testing.T) {
	seq := NewSequence(nil)
	seq.Append(models.ConversationTurn{Situation: "s1", Prompt: "q1"})

	id := seq.InsertAfter(uuid.New(), models.ConversationTurn{Situation: "s1", Prompt: "orphan follow-up", IsFollowUp: true})

	turns := seq.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, id, turns[1].ID)
}

func TestSequence_FollowUpCountPerSituation(t *testing.T) {
	seq := NewSequence(nil)
	seq.Append(models.ConversationTurn{Situation: "s1", Prompt: "q1"})
	seq.Append(models.ConversationTurn{Situation: "s1", Prompt: "f1", IsFollowUp: true})
	seq.Append(models.ConversationTurn{Situation: "s2", Prompt: "q1"})
	seq.Append(models.ConversationTurn{Situation: "s2", Prompt: "f1", IsFollowUp: true})
	seq.Append(models.ConversationTurn{Situation: "s2", Prompt: "f2", IsFollowUp: true})

	assert.Equal(t, 1, seq.FollowUpCount("s1"))
	assert.Equal(t, 2, seq.FollowUpCount("s2"))
	assert.Equal(t, 0, seq.FollowUpCount("s3"))
}

func TestSequence_ForSituationRenumbersAcrossScenarios(t *testing.T) {
	seq := NewSequence(nil)
	seq.Append(models.ConversationTurn{Situation: "s1", Prompt: "q1"})
	seq.Append(models.ConversationTurn{Situation: "s2", Prompt: "q1"})
	seq.Append(models.ConversationTurn{Situation: "s1", Prompt: "f1", IsFollowUp: true})

	s1 := seq.ForSituation("s1")
	require.Len(t, s1, 2)
	// Positions reflect the full interview order, not per-scenario order.
	assert.Equal(t, 1, s1[0].Position)
	assert.Equal(t, 3, s1[1].Position)
}

func TestNewSequence_AssignsMissingIDsOnly(t *testing.T) {
	existing := uuid.New()
	seq := NewSequence([]models.ConversationTurn{
		{ID: existing, Situation: "s1", Prompt: "q1"},
		{Situation: "s1", Prompt: "q2"},
	})

	turns := seq.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, existing, turns[0].ID)
	assert.NotEqual(t, uuid.Nil, turns[1].ID)
}
