// internal/models/assessment.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Tier identifies which fallback strategy produced a CompetencyScore.
type Tier string

const (
	TierPrimary             Tier = "primary"
	TierScenarioFallback    Tier = "scenario-fallback"
	TierPerQuestionFallback Tier = "per-question-fallback"
	TierEmergency           Tier = "emergency"
)

// ScenarioDefinition is a situational-judgment prompt with its rubric and
// target competencies. Supplied by the configuration source, never mutated.
type ScenarioDefinition struct {
	Situation              string   `json:"situation"`
	Prompt                 string   `json:"prompt"`
	BestResponseRationale  string   `json:"bestResponseRationale"`
	WorstResponseRationale string   `json:"worstResponseRationale"`
	Competencies           []string `json:"competencies"`

	// Optional per-scenario overrides; nil means use the global config.
	MaxFollowUps   *int     `json:"maxFollowUps,omitempty"`
	PenaltyPercent *float64 `json:"penaltyPercent,omitempty"`
}

// PrimaryCompetency returns the first-listed competency, the one the
// fast-path scoring tier targets.
func (s ScenarioDefinition) PrimaryCompetency() string {
	if len(s.Competencies) == 0 {
		return ""
	}
	return s.Competencies[0]
}

// ConversationTurn is one question/answer exchange within a scenario.
// Turns are appended (or inserted, for follow-ups) during the interview and
// never mutated once scored. Ordering is carried by Position but identity
// by ID, so follow-up insertion never does positional index arithmetic.
type ConversationTurn struct {
	ID               uuid.UUID `json:"id"`
	Situation        string    `json:"situation"`
	Position         int       `json:"position"`
	Prompt           string    `json:"prompt"`
	Answer           *string   `json:"answer"`
	IsFollowUp       bool      `json:"isFollowUp"`
	FollowUpSequence int       `json:"followUpSequence"` // 0 for base, 1+ for follow-ups
	CreatedAt        time.Time `json:"createdAt"`
}

// Answered reports whether the candidate has answered this turn.
func (t ConversationTurn) Answered() bool {
	return t.Answer != nil && *t.Answer != ""
}

// CompetencyScore is the scored outcome for one (scenario, competency)
// pair. Created exactly once, never mutated.
type CompetencyScore struct {
	Competency       string  `json:"competency"`
	ScenarioKey      string  `json:"scenarioKey"`
	RawScore         float64 `json:"rawScore"`
	Rationale        string  `json:"rationale"`
	PrePenaltyScore  float64 `json:"prePenaltyScore"`
	PostPenaltyScore float64 `json:"postPenaltyScore"`
	PenaltyPercent   float64 `json:"penaltyPercent"`
	HasFollowUp      bool    `json:"hasFollowUp"`
	Tier             Tier    `json:"tier"`
}

// AggregatedCompetencyResult is the cross-scenario rollup for one
// competency. Computed at report time, not independently persisted.
type AggregatedCompetencyResult struct {
	Competency      string  `json:"competency"`
	MeanPrePenalty  float64 `json:"meanPrePenalty"`
	MeanPostPenalty float64 `json:"meanPostPenalty"`
	ScoreCount      int     `json:"scoreCount"`
	StrengthSummary string  `json:"strengthSummary"`
	WeaknessSummary string  `json:"weaknessSummary"`
}

// ReportSummary heads the assessment report.
type ReportSummary struct {
	OverallScore          float64  `json:"overallScore"`
	OverallBand           string   `json:"overallBand"`
	ScenariosScored       int      `json:"scenariosScored"`
	ScenariosNotAttempted []string `json:"scenariosNotAttempted"`
}

// QuestionDetail maps one answered turn to its resolved score.
type QuestionDetail struct {
	QuestionNumber int    `json:"questionNumber"`
	Prompt         string `json:"prompt"`
	Answer         string `json:"answer"`
	IsFollowUp     bool   `json:"isFollowUp"`
	Competency     string `json:"competency"`
	Score          string `json:"score"`
	Rationale      string `json:"rationale"`
	Tier           string `json:"tier,omitempty"`
}

// AssessmentReport is the final artifact written back to the submission.
type AssessmentReport struct {
	Summary      ReportSummary                `json:"summary"`
	Competencies []AggregatedCompetencyResult `json:"competencies"`
	Questions    []QuestionDetail             `json:"questions"`
	TierCounts   map[string]int               `json:"tierCounts"`
	GeneratedAt  time.Time                    `json:"generatedAt"`
}
