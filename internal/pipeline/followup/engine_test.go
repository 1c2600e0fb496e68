// internal/pipeline/followup/engine_test.go
package followup

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessment-engine/internal/common/config"
	commonerrors "assessment-engine/internal/common/errors"
	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/genai"
	"assessment-engine/internal/models"
	"assessment-engine/internal/pipeline/conversation"
)

type fakeJudge struct {
	result *genai.JudgmentResult
	err    error
	calls  int
}

func (f *fakeJudge) JudgeCompleteness(ctx context.Context, req *genai.JudgmentRequest) (*genai.JudgmentResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func testScenario() *models.ScenarioDefinition {
	return &models.ScenarioDefinition{
		Situation:    "A team member repeatedly misses deadlines.",
		Prompt:       "How would you handle this?",
		Competencies: []string{"Team Management"},
	}
}

func testConfig() config.ScoringConfig {
	return config.ScoringConfig{MaxFollowUps: 2}
}

func answerOf(s string) *string { return &s }

func TestEngine_Evaluate_Complete(t *testing.T) {
	judge := &fakeJudge{result: &genai.JudgmentResult{Complete: true, Reason: "covers all aspects"}}
	engine := NewEngine(judge, testConfig(), logger.NewNop())

	decision := engine.Evaluate(context.Background(), testScenario(), "a thorough answer", 0)

	assert.True(t, decision.Complete)
	assert.Equal(t, "covers all aspects", decision.Rationale)
	assert.Empty(t, decision.FollowUpQuestion)
}

func TestEngine_Evaluate_Incomplete(t *testing.T) {
	judge := &fakeJudge{result: &genai.JudgmentResult{
		Complete:         false,
		FollowUpQuestion: "What if they push back?",
		Reason:           "no conflict handling",
	}}
	engine := NewEngine(judge, testConfig(), logger.NewNop())

	decision := engine.Evaluate(context.Background(), testScenario(), "I would talk to them", 0)

	assert.False(t, decision.Complete)
	assert.Equal(t, "What if they push back?", decision.FollowUpQuestion)
}

func TestEngine_Evaluate_FailsOpenOnJudgmentError(t *testing.T) {
	judge := &fakeJudge{err: commonerrors.NewJudgmentFailedError(fmt.Errorf("boom"))}
	engine := NewEngine(judge, testConfig(), logger.NewNop())

	decision := engine.Evaluate(context.Background(), testScenario(), "any answer", 0)

	assert.True(t, decision.Complete)
	assert.Equal(t, "completeness judgment unavailable", decision.Rationale)
}

func TestEngine_Evaluate_CapSkipsJudge(t *testing.T) {
	judge := &fakeJudge{result: &genai.JudgmentResult{Complete: false, FollowUpQuestion: "more?"}}
	engine := NewEngine(judge, testConfig(), logger.NewNop())

	decision := engine.Evaluate(context.Background(), testScenario(), "answer", 2)

	assert.True(t, decision.Complete)
	assert.Equal(t, 0, judge.calls)
}

func TestEngine_Evaluate_ScenarioOverrideZeroDisablesFollowUps(t *testing.T) {
	judge := &fakeJudge{result: &genai.JudgmentResult{Complete: false, FollowUpQuestion: "more?"}}
	engine := NewEngine(judge, testConfig(), logger.NewNop())

	scenario := testScenario()
	zero := 0
	scenario.MaxFollowUps = &zero

	decision := engine.Evaluate(context.Background(), scenario, "answer", 0)

	assert.True(t, decision.Complete)
	assert.Equal(t, 0, judge.calls)
}

func TestEngine_Evaluate_OverrideClampedToFive(t *testing.T) {
	judge := &fakeJudge{result: &genai.JudgmentResult{Complete: false, FollowUpQuestion: "more?"}}
	engine := NewEngine(judge, testConfig(), logger.NewNop())

	scenario := testScenario()
	huge := 50
	scenario.MaxFollowUps = &huge

	// At five existing follow-ups the clamped limit is reached.
	decision := engine.Evaluate(context.Background(), scenario, "answer", 5)

	assert.True(t, decision.Complete)
	assert.Equal(t, 0, judge.calls)
}

func TestEngine_Evaluate_IncompleteWithoutQuestionFailsOpen(t *testing.T) {
	judge := &fakeJudge{result: &genai.JudgmentResult{Complete: false, FollowUpQuestion: "  "}}
	engine := NewEngine(judge, testConfig(), logger.NewNop())

	decision := engine.Evaluate(context.Background(), testScenario(), "answer", 0)

	assert.True(t, decision.Complete)
}

func TestEngine_ProcessAnswer_InsertsFollowUpAfterTurn(t *testing.T) {
	judge := &fakeJudge{result: &genai.JudgmentResult{
		Complete:         false,
		FollowUpQuestion: "What if they push back?",
	}}
	engine := NewEngine(judge, testConfig(), logger.NewNop())

	scenario := testScenario()
	seq := conversation.NewSequence(nil)
	baseID := seq.Append(models.ConversationTurn{
		Situation: scenario.Situation,
		Prompt:    scenario.Prompt,
		Answer:    answerOf("I would talk to them"),
	})
	nextID := seq.Append(models.ConversationTurn{
		Situation: "a different scenario",
		Prompt:    "q",
	})

	result := engine.ProcessAnswer(context.Background(), seq, scenario, baseID)

	require.Equal(t, StateFollowUpInserted, result.State)

	turns := seq.Turns()
	require.Len(t, turns, 3)
	assert.Equal(t, baseID, turns[0].ID)
	assert.Equal(t, result.InsertedTurnID, turns[1].ID)
	assert.Equal(t, nextID, turns[2].ID)

	inserted := turns[1]
	assert.True(t, inserted.IsFollowUp)
	assert.Equal(t, 1, inserted.FollowUpSequence)
	assert.Equal(t, scenario.Situation, inserted.Situation)
	assert.Equal(t, "What if they push back?", inserted.Prompt)
	assert.Nil(t, inserted.Answer)
}

func TestEngine_ProcessAnswer_CompleteDoesNotMutateSequence(t *testing.T) {
	judge := &fakeJudge{result: &genai.JudgmentResult{Complete: true}}
	engine := NewEngine(judge, testConfig(), logger.NewNop())

	scenario := testScenario()
	seq := conversation.NewSequence(nil)
	baseID := seq.Append(models.ConversationTurn{
		Situation: scenario.Situation,
		Prompt:    scenario.Prompt,
		Answer:    answerOf("complete answer"),
	})

	result := engine.ProcessAnswer(context.Background(), seq, scenario, baseID)

	assert.Equal(t, StateComplete, result.State)
	assert.Equal(t, 1, seq.Len())
}

func TestEngine_ProcessAnswer_UnansweredTurnStaysAwaiting(t *testing.T) {
	judge := &fakeJudge{result: &genai.JudgmentResult{Complete: true}}
	engine := NewEngine(judge, testConfig(), logger.NewNop())

	scenario := testScenario()
	seq := conversation.NewSequence(nil)
	baseID := seq.Append(models.ConversationTurn{
		Situation: scenario.Situation,
		Prompt:    scenario.Prompt,
	})

	result := engine.ProcessAnswer(context.Background(), seq, scenario, baseID)

	assert.Equal(t, StateAwaitingAnswer, result.State)
	assert.Equal(t, 0, judge.calls)
}

func TestEngine_ProcessAnswer_FollowUpChainRespectsCap(t *testing.T) {
	judge := &fakeJudge{result: &genai.JudgmentResult{
		Complete:         false,
		FollowUpQuestion: "and then?",
	}}
	engine := NewEngine(judge, testConfig(), logger.NewNop())

	scenario := testScenario()
	seq := conversation.NewSequence(nil)
	turnID := seq.Append(models.ConversationTurn{
		Situation: scenario.Situation,
		Prompt:    scenario.Prompt,
		Answer:    answerOf("first answer"),
	})

	// Keep answering follow-ups; the engine must stop at the limit.
	for i := 0; i < 5; i++ {
		result := engine.ProcessAnswer(context.Background(), seq, scenario, turnID)
		if result.State == StateComplete {
			break
		}
		require.Equal(t, StateFollowUpInserted, result.State)

		turn := seq.Find(result.InsertedTurnID)
		require.NotNil(t, turn)
		turnID = result.InsertedTurnID

		// Simulate the candidate answering the follow-up.
		answered := *turn
		answered.Answer = answerOf(fmt.Sprintf("follow-up answer %d", i+1))
		seqTurns := seq.Turns()
		rebuilt := conversation.NewSequence(nil)
		for _, tt := range seqTurns {
			if tt.ID == answered.ID {
				rebuilt.Append(answered)
			} else {
				rebuilt.Append(tt)
			}
		}
		seq = rebuilt
	}

	assert.Equal(t, 2, seq.FollowUpCount(scenario.Situation))
}
