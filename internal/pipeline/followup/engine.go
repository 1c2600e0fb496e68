// internal/pipeline/followup/engine.go

// Package followup decides, per answered turn, whether the interview
// should pose a bounded follow-up question before moving on.
package followup

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"assessment-engine/internal/common/config"
	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/genai"
	"assessment-engine/internal/models"
	"assessment-engine/internal/pipeline/conversation"
)

const maxFollowUpCap = 5

// State is the engine's position in the per-answer lifecycle.
type State string

const (
	StateAwaitingAnswer   State = "awaiting_answer"
	StateEvaluating       State = "evaluating"
	StateComplete         State = "complete"
	StateFollowUpInserted State = "follow_up_inserted"
)

// Judge performs the external completeness judgment.
type Judge interface {
	JudgeCompleteness(ctx context.Context, req *genai.JudgmentRequest) (*genai.JudgmentResult, error)
}

// Decision is the outcome of evaluating one answer.
type Decision struct {
	Complete         bool   `json:"complete"`
	FollowUpQuestion string `json:"followUpQuestion,omitempty"`
	Rationale        string `json:"rationale"`
}

// Result reports what ProcessAnswer did to the conversation.
type Result struct {
	State    State
	Decision Decision
	// InsertedTurnID is set only when State is StateFollowUpInserted.
	InsertedTurnID uuid.UUID
}

// Engine evaluates answers against the scenario rubric. Any judgment
// failure is treated as a complete answer so the candidate is never
// blocked mid-interview.
type Engine struct {
	judge        Judge
	maxFollowUps int
	logger       logger.Logger
}

func NewEngine(judge Judge, cfg config.ScoringConfig, log logger.Logger) *Engine {
	return &Engine{
		judge:        judge,
		maxFollowUps: clampFollowUps(cfg.MaxFollowUps),
		logger: log.With(map[string]interface{}{
			"component": "followup-engine",
		}),
	}
}

// Evaluate decides whether an answer is complete. The follow-up cap is
// checked before any external call; at or past the cap the answer is
// always complete.
func (e *Engine) Evaluate(ctx context.Context, scenario *models.ScenarioDefinition, answer string, followUpCount int) Decision {
	limit := e.limitFor(scenario)
	if followUpCount >= limit {
		return Decision{
			Complete:  true,
			Rationale: fmt.Sprintf("follow-up limit of %d reached", limit),
		}
	}

	if strings.TrimSpace(answer) == "" {
		return Decision{
			Complete:  true,
			Rationale: "no answer text to evaluate",
		}
	}

	result, err := e.judge.JudgeCompleteness(ctx, &genai.JudgmentRequest{
		Situation: scenario.Situation,
		Prompt:    scenario.Prompt,
		Answer:    answer,
	})
	if err != nil {
		// Fail open: an unreachable judge must not stall the interview.
		e.logger.Warn("completeness judgment failed, treating answer as complete", map[string]interface{}{
			"error": err.Error(),
		})
		return Decision{
			Complete:  true,
			Rationale: "completeness judgment unavailable",
		}
	}

	if result.Complete || strings.TrimSpace(result.FollowUpQuestion) == "" {
		return Decision{
			Complete:  true,
			Rationale: nonEmpty(result.Reason, "answer judged complete"),
		}
	}

	return Decision{
		Complete:         false,
		FollowUpQuestion: result.FollowUpQuestion,
		Rationale:        nonEmpty(result.Reason, "answer judged incomplete"),
	}
}

// ProcessAnswer runs the state machine for one answered turn: it
// evaluates the answer and, when incomplete, inserts a follow-up turn
// immediately after it, inheriting the scenario's rubric.
func (e *Engine) ProcessAnswer(ctx context.Context, seq *conversation.Sequence, scenario *models.ScenarioDefinition, turnID uuid.UUID) Result {
	turn := seq.Find(turnID)
	if turn == nil {
		return Result{
			State: StateComplete,
			Decision: Decision{
				Complete:  true,
				Rationale: "turn not found in conversation",
			},
		}
	}
	if !turn.Answered() {
		return Result{
			State: StateAwaitingAnswer,
			Decision: Decision{
				Complete:  false,
				Rationale: "turn has no answer yet",
			},
		}
	}

	decision := e.Evaluate(ctx, scenario, *turn.Answer, seq.FollowUpCount(scenario.Situation))
	if decision.Complete {
		return Result{State: StateComplete, Decision: decision}
	}

	insertedID := seq.InsertAfter(turnID, models.ConversationTurn{
		Situation:        scenario.Situation,
		Prompt:           decision.FollowUpQuestion,
		IsFollowUp:       true,
		FollowUpSequence: seq.FollowUpCount(scenario.Situation) + 1,
	})

	e.logger.Info("follow-up inserted", map[string]interface{}{
		"situation": scenario.Situation,
		"turnId":    insertedID.String(),
	})

	return Result{
		State:          StateFollowUpInserted,
		Decision:       decision,
		InsertedTurnID: insertedID,
	}
}

// limitFor resolves the effective follow-up limit, preferring the
// scenario override when present.
func (e *Engine) limitFor(scenario *models.ScenarioDefinition) int {
	if scenario.MaxFollowUps != nil {
		return clampFollowUps(*scenario.MaxFollowUps)
	}
	return e.maxFollowUps
}

func clampFollowUps(n int) int {
	if n < 0 {
		return 0
	}
	if n > maxFollowUpCap {
		return maxFollowUpCap
	}
	return n
}

func nonEmpty(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
