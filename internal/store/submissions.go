// internal/store/submissions.go

// Package store persists submissions. The pipeline needs only two
// operations: read a submission by ID and write its finished report.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"assessment-engine/internal/common/database"
	commonerrors "assessment-engine/internal/common/errors"
	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/models"
)

// SubmissionStore reads and updates submission rows in PostgreSQL. The
// conversation history and the finished report are stored as JSONB.
type SubmissionStore struct {
	db     *database.PostgresClient
	logger logger.Logger
}

func NewSubmissionStore(db *database.PostgresClient, log logger.Logger) *SubmissionStore {
	return &SubmissionStore{
		db: db,
		logger: log.With(map[string]interface{}{
			"component": "submission-store",
		}),
	}
}

const getByIDQuery = `
	SELECT id, candidate_name, candidate_id, test_type, candidate_language,
	       conversation_history, status, analysis_completed
	FROM submissions
	WHERE id = $1`

// GetByID loads one submission with its conversation history.
func (s *SubmissionStore) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	row := s.db.QueryRow(ctx, getByIDQuery, id)

	var sub models.Submission
	var historyJSON []byte
	err := row.Scan(
		&sub.ID,
		&sub.CandidateName,
		&sub.CandidateID,
		&sub.TestType,
		&sub.CandidateLanguage,
		&historyJSON,
		&sub.Status,
		&sub.AnalysisCompleted,
	)
	if err == sql.ErrNoRows {
		return nil, commonerrors.NewSubmissionNotFoundError(id)
	}
	if err != nil {
		return nil, commonerrors.NewStoreFailureError("get_by_id", err)
	}

	if len(historyJSON) > 0 {
		if err := json.Unmarshal(historyJSON, &sub.ConversationHistory); err != nil {
			return nil, commonerrors.NewStoreFailureError("get_by_id", fmt.Errorf("decode conversation history: %w", err))
		}
	}

	return &sub, nil
}

const updateReportQuery = `
	UPDATE submissions
	SET analysis_result = $2,
	    analysis_completed = TRUE,
	    analysis_completed_at = $3,
	    status = $4
	WHERE id = $1`

// UpdateReport writes the finished report and marks the submission
// completed.
func (s *SubmissionStore) UpdateReport(ctx context.Context, id string, report *models.AssessmentReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return commonerrors.NewStoreFailureError("update_report", fmt.Errorf("encode report: %w", err))
	}

	result, err := s.db.Exec(ctx, updateReportQuery, id, reportJSON, time.Now().UTC(), models.SubmissionStatusCompleted)
	if err != nil {
		return commonerrors.NewStoreFailureError("update_report", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return commonerrors.NewStoreFailureError("update_report", err)
	}
	if affected == 0 {
		return commonerrors.NewSubmissionNotFoundError(id)
	}

	s.logger.Info("submission report persisted", map[string]interface{}{
		"submissionId": id,
	})
	return nil
}
