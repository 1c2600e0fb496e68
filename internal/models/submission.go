// internal/models/submission.go
package models

import "time"

// Submission statuses as persisted by the platform backend. The scoring
// engine only ever moves a submission from "submitted" to "completed".
const (
	SubmissionStatusSubmitted = "submitted"
	SubmissionStatusCompleted = "completed"
)

// Submission is the stored test attempt the pipeline reads and writes.
// Only the fields the scoring engine touches are modeled; the platform
// owns the rest of the row.
type Submission struct {
	ID                  string             `json:"id"`
	CandidateName       string             `json:"candidateName"`
	CandidateID         string             `json:"candidateId"`
	TestType            string             `json:"testType"`
	CandidateLanguage   string             `json:"candidateLanguage"`
	ConversationHistory []ConversationTurn `json:"conversationHistory"`
	Status              string             `json:"status"`
	AnalysisCompleted   bool               `json:"analysisCompleted"`
	AnalysisCompletedAt *time.Time         `json:"analysisCompletedAt,omitempty"`
}
