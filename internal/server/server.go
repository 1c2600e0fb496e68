// internal/server/server.go

// Package server exposes the engine over HTTP: the live follow-up
// decision endpoint used during interviews and the report-generation
// trigger used after submission.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"assessment-engine/internal/common/errors"
	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/models"
	"assessment-engine/internal/pipeline/conversation"
	"assessment-engine/internal/pipeline/followup"
)

// ReportGenerator runs the scoring pipeline for one submission.
type ReportGenerator interface {
	GenerateReport(ctx context.Context, submissionID string) (*models.AssessmentReport, error)
}

// AnswerProcessor runs the follow-up state machine for one answered turn.
type AnswerProcessor interface {
	ProcessAnswer(ctx context.Context, seq *conversation.Sequence, scenario *models.ScenarioDefinition, turnID uuid.UUID) followup.Result
}

// ScenarioCatalog resolves a turn's situation to its definition.
type ScenarioCatalog interface {
	FindBySituation(situation string) *models.ScenarioDefinition
}

// ReadinessCheck reports whether a backing service is reachable.
type ReadinessCheck func(ctx context.Context) error

// Server holds the HTTP handlers. Health and metrics endpoints are
// mounted by the caller alongside Routes().
type Server struct {
	reports   ReportGenerator
	processor AnswerProcessor
	catalog   ScenarioCatalog
	readiness map[string]ReadinessCheck
	logger    logger.Logger
}

func New(reports ReportGenerator, processor AnswerProcessor, catalog ScenarioCatalog, readiness map[string]ReadinessCheck, log logger.Logger) *Server {
	return &Server{
		reports:   reports,
		processor: processor,
		catalog:   catalog,
		readiness: readiness,
		logger: log.With(map[string]interface{}{
			"component": "http-server",
		}),
	}
}

// Routes registers the API handlers on a fresh mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/interview/followup", s.handleFollowUp)
	mux.HandleFunc("/reports/generate", s.handleGenerateReport)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	return mux
}

// followUpRequest carries the conversation state for one scenario plus
// the turn the candidate just answered.
type followUpRequest struct {
	Situation string                    `json:"situation"`
	TurnID    uuid.UUID                 `json:"turnId"`
	Turns     []models.ConversationTurn `json:"turns"`
}

type followUpResponse struct {
	State            followup.State            `json:"state"`
	Complete         bool                      `json:"complete"`
	FollowUpQuestion string                    `json:"followUpQuestion,omitempty"`
	Rationale        string                    `json:"rationale"`
	InsertedTurnID   string                    `json:"insertedTurnId,omitempty"`
	Turns            []models.ConversationTurn `json:"turns"`
}

func (s *Server) handleFollowUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req followUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Situation == "" || len(req.Turns) == 0 {
		writeError(w, http.StatusBadRequest, "situation and turns are required")
		return
	}

	scenario := s.catalog.FindBySituation(req.Situation)
	if scenario == nil {
		writeError(w, http.StatusNotFound, "unknown scenario situation")
		return
	}

	seq := conversation.NewSequence(req.Turns)
	result := s.processor.ProcessAnswer(r.Context(), seq, scenario, req.TurnID)

	resp := followUpResponse{
		State:            result.State,
		Complete:         result.Decision.Complete,
		FollowUpQuestion: result.Decision.FollowUpQuestion,
		Rationale:        result.Decision.Rationale,
		Turns:            seq.Turns(),
	}
	if result.State == followup.StateFollowUpInserted {
		resp.InsertedTurnID = result.InsertedTurnID.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

type generateReportRequest struct {
	SubmissionID string `json:"submissionId"`
}

func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req generateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SubmissionID == "" {
		writeError(w, http.StatusBadRequest, "submissionId is required")
		return
	}

	report, err := s.reports.GenerateReport(r.Context(), req.SubmissionID)
	if err != nil {
		s.logger.Error("report generation failed", map[string]interface{}{
			"submissionId": req.SubmissionID,
			"error":        err.Error(),
		})
		switch errors.CodeOf(err) {
		case errors.ErrCodeSubmissionNotFound:
			writeError(w, http.StatusNotFound, "submission not found")
		default:
			writeError(w, http.StatusInternalServerError, "report generation failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"submissionId": req.SubmissionID,
		"report":       report,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	failures := map[string]string{}
	for name, check := range s.readiness {
		if err := check(ctx); err != nil {
			failures[name] = err.Error()
		}
	}

	if len(failures) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":   "not ready",
			"failures": failures,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
