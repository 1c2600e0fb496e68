// internal/store/submissions_test.go
package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessment-engine/internal/common/database"
	commonerrors "assessment-engine/internal/common/errors"
	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/models"
)

func newTestStore(t *testing.T) (*SubmissionStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSubmissionStore(&database.PostgresClient{DB: db}, logger.NewNop()), mock
}

func TestSubmissionStore_GetByID(t *testing.T) {
	store, mock := newTestStore(t)

	historyJSON := `[{"situation":"s1","position":1,"prompt":"q1","answer":"a1","isFollowUp":false}]`
	rows := sqlmock.NewRows([]string{
		"id", "candidate_name", "candidate_id", "test_type", "candidate_language",
		"conversation_history", "status", "analysis_completed",
	}).AddRow("sub-123", "Priya Sharma", "cand-9", "workplace", "hi", []byte(historyJSON), "submitted", false)

	mock.ExpectQuery("SELECT id, candidate_name").
		WithArgs("sub-123").
		WillReturnRows(rows)

	sub, err := store.GetByID(context.Background(), "sub-123")

	require.NoError(t, err)
	assert.Equal(t, "sub-123", sub.ID)
	assert.Equal(t, "Priya Sharma", sub.CandidateName)
	assert.Equal(t, models.SubmissionStatusSubmitted, sub.Status)
	require.Len(t, sub.ConversationHistory, 1)
	assert.Equal(t, "q1", sub.ConversationHistory[0].Prompt)
	require.NotNil(t, sub.ConversationHistory[0].Answer)
	assert.Equal(t, "a1", *sub.ConversationHistory[0].Answer)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionStore_GetByID_NotFound(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectQuery("SELECT id, candidate_name").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "candidate_name", "candidate_id", "test_type", "candidate_language",
			"conversation_history", "status", "analysis_completed",
		}))

	_, err := store.GetByID(context.Background(), "missing")

	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeSubmissionNotFound, commonerrors.CodeOf(err))
}

func TestSubmissionStore_GetByID_QueryFailure(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectQuery("SELECT id, candidate_name").
		WithArgs("sub-123").
		WillReturnError(fmt.Errorf("connection reset"))

	_, err := store.GetByID(context.Background(), "sub-123")

	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeStoreFailure, commonerrors.CodeOf(err))
}

func TestSubmissionStore_UpdateReport(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectExec("UPDATE submissions").
		WithArgs("sub-123", sqlmock.AnyArg(), sqlmock.AnyArg(), models.SubmissionStatusCompleted).
		WillReturnResult(sqlmock.NewResult(0, 1))

	report := &models.AssessmentReport{
		Summary: models.ReportSummary{OverallScore: 7.2, OverallBand: "Very Good"},
	}
	err := store.UpdateReport(context.Background(), "sub-123", report)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionStore_UpdateReport_NoRowMeansNotFound(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectExec("UPDATE submissions").
		WithArgs("ghost", sqlmock.AnyArg(), sqlmock.AnyArg(), models.SubmissionStatusCompleted).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.UpdateReport(context.Background(), "ghost", &models.AssessmentReport{})

	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeSubmissionNotFound, commonerrors.CodeOf(err))
}

func TestSubmissionStore_UpdateReport_ExecFailure(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectExec("UPDATE submissions").
		WithArgs("sub-123", sqlmock.AnyArg(), sqlmock.AnyArg(), models.SubmissionStatusCompleted).
		WillReturnError(fmt.Errorf("deadlock detected"))

	err := store.UpdateReport(context.Background(), "sub-123", &models.AssessmentReport{})

	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeStoreFailure, commonerrors.CodeOf(err))
}
