// internal/pipeline/conversation/sequence.go

// Package conversation maintains the ordered turn list for an interview.
// Turns are identified by stable UUIDs; display positions are derived
// from list order at read time, so inserting a follow-up mid-list never
// rewrites another turn's identity.
package conversation

import (
	"time"

	"github.com/google/uuid"

	"assessment-engine/internal/models"
)

// Sequence is an ordered list of interview turns.
type Sequence struct {
	turns []models.ConversationTurn
}

// NewSequence builds a sequence from existing turns, preserving their
// stored order. Turns missing an ID get one assigned.
func NewSequence(turns []models.ConversationTurn) *Sequence {
	copies := make([]models.ConversationTurn, len(turns))
	copy(copies, turns)
	for i := range copies {
		if copies[i].ID == uuid.Nil {
			copies[i].ID = uuid.New()
		}
	}
	return &Sequence{turns: copies}
}

// Append adds a turn at the end of the sequence and returns its ID.
func (s *Sequence) Append(turn models.ConversationTurn) uuid.UUID {
	if turn.ID == uuid.Nil {
		turn.ID = uuid.New()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	s.turns = append(s.turns, turn)
	return turn.ID
}

// InsertAfter places a turn immediately after the turn with the given
// ID. When no turn matches, the new turn goes to the end; a missing
// anchor means the caller's view of the list is stale, and appending
// keeps the turn from being lost.
func (s *Sequence) InsertAfter(anchorID uuid.UUID, turn models.ConversationTurn) uuid.UUID {
	if turn.ID == uuid.Nil {
		turn.ID = uuid.New()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}

	for i := range s.turns {
		if s.turns[i].ID == anchorID {
			s.turns = append(s.turns, models.ConversationTurn{})
			copy(s.turns[i+2:], s.turns[i+1:])
			s.turns[i+1] = turn
			return turn.ID
		}
	}

	s.turns = append(s.turns, turn)
	return turn.ID
}

// Turns returns a copy of the sequence with positions renumbered from 1
// in list order. Callers may mutate the returned slice freely.
func (s *Sequence) Turns() []models.ConversationTurn {
	out := make([]models.ConversationTurn, len(s.turns))
	copy(out, s.turns)
	for i := range out {
		out[i].Position = i + 1
	}
	return out
}

// Find returns the turn with the given ID, or nil.
func (s *Sequence) Find(id uuid.UUID) *models.ConversationTurn {
	for i := range s.turns {
		if s.turns[i].ID == id {
			turn := s.turns[i]
			return &turn
		}
	}
	return nil
}

// Len returns the number of turns.
func (s *Sequence) Len() int {
	return len(s.turns)
}

// FollowUpCount returns how many follow-up turns exist for a situation.
func (s *Sequence) FollowUpCount(situation string) int {
	count := 0
	for i := range s.turns {
		if s.turns[i].Situation == situation && s.turns[i].IsFollowUp {
			count++
		}
	}
	return count
}

// ForSituation returns the turns belonging to one scenario, in sequence
// order with renumbered positions.
func (s *Sequence) ForSituation(situation string) []models.ConversationTurn {
	var out []models.ConversationTurn
	for _, turn := range s.Turns() {
		if turn.Situation == situation {
			out = append(out, turn)
		}
	}
	return out
}
