// internal/genai/models.go
package genai

// ScoreRequest asks the model to score a single competency for one
// scenario conversation.
type ScoreRequest struct {
	Situation             string   `json:"situation"`
	Competency            string   `json:"competency"`
	Conversation          []Turn   `json:"conversation"`
	BestResponseRationale string   `json:"best_response_rationale,omitempty"`
	WorstResponseRationale string  `json:"worst_response_rationale,omitempty"`
	CandidateLanguage     string   `json:"candidate_language,omitempty"`
	AllCompetencies       []string `json:"all_competencies,omitempty"`
}

// Turn is the wire form of a single question/answer exchange.
type Turn struct {
	Prompt     string `json:"prompt"`
	Answer     string `json:"answer"`
	IsFollowUp bool   `json:"is_follow_up"`
}

// ScoreResult is one competency score as returned by the model.
type ScoreResult struct {
	Competency string  `json:"competency"`
	Score      float64 `json:"score"`
	Rationale  string  `json:"rationale"`
}

// BatchScoreRequest asks for all competencies of a scenario in one call.
type BatchScoreRequest struct {
	Situation         string   `json:"situation"`
	Competencies      []string `json:"competencies"`
	Conversation      []Turn   `json:"conversation"`
	CandidateLanguage string   `json:"candidate_language,omitempty"`
}

// JudgmentRequest asks whether an answer fully addresses the scenario
// prompt or warrants a follow-up question.
type JudgmentRequest struct {
	Situation    string `json:"situation"`
	Prompt       string `json:"prompt"`
	Answer       string `json:"answer"`
	Conversation []Turn `json:"conversation,omitempty"`
}

// JudgmentResult carries the completeness verdict and, when incomplete,
// the follow-up question to pose.
type JudgmentResult struct {
	Complete         bool   `json:"complete"`
	FollowUpQuestion string `json:"follow_up_question,omitempty"`
	Reason           string `json:"reason,omitempty"`
}

// TranslateRequest converts candidate text into the canonical language.
type TranslateRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"target_language"`
}

// NarrativeRequest asks for prose commentary on an aggregated
// competency result.
type NarrativeRequest struct {
	Competency    string   `json:"competency"`
	MeanScore     float64  `json:"mean_score"`
	Band          string   `json:"band"`
	Rationales    []string `json:"rationales,omitempty"`
	CandidateName string   `json:"candidate_name,omitempty"`
	TestType      string   `json:"test_type,omitempty"`
}

// NarrativeResult is the strength/weakness prose for one competency.
type NarrativeResult struct {
	StrengthSummary string `json:"strength_summary"`
	WeaknessSummary string `json:"weakness_summary"`
}
