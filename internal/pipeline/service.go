// internal/pipeline/service.go

// Package pipeline runs the full report-generation flow: load the
// submission, group and normalize its conversation, score every
// scenario through the fallback cascade, aggregate, persist, and fan
// out best-effort side effects.
package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"assessment-engine/internal/common/config"
	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/common/metrics"
	"assessment-engine/internal/common/observability"
	"assessment-engine/internal/models"
	"assessment-engine/internal/notify"
	"assessment-engine/internal/pipeline/grouping"
)

const reportCacheTTL = 24 * time.Hour

// SubmissionStore is the persistence boundary. Its failures are the
// only ones allowed to surface from GenerateReport.
type SubmissionStore interface {
	GetByID(ctx context.Context, id string) (*models.Submission, error)
	UpdateReport(ctx context.Context, id string, report *models.AssessmentReport) error
}

// Normalizer prepares a scenario's turns for scoring.
type Normalizer interface {
	NormalizeTurns(ctx context.Context, turns []models.ConversationTurn) []models.ConversationTurn
}

// ScenarioScorer produces one score per targeted competency.
type ScenarioScorer interface {
	ScoreScenario(ctx context.Context, group grouping.Group) []models.CompetencyScore
}

// ReportAssembler rolls scores up into the final report.
type ReportAssembler interface {
	Assemble(ctx context.Context, grouped grouping.Result, scores []models.CompetencyScore) *models.AssessmentReport
}

// ReportIndexer mirrors the report into search. Best-effort.
type ReportIndexer interface {
	IndexReport(ctx context.Context, submission *models.Submission, report *models.AssessmentReport) error
}

// ReportNotifier announces finished reports. Best-effort.
type ReportNotifier interface {
	ReportReady(ctx context.Context, submission *models.Submission, report *models.AssessmentReport) notify.Result
}

// ScenarioSource supplies the immutable scenario catalog.
type ScenarioSource interface {
	All() []models.ScenarioDefinition
}

// Service wires the pipeline stages. Scenarios are scored sequentially
// with a brief pause between them to stay under external rate limits.
type Service struct {
	store      SubmissionStore
	scenarios  ScenarioSource
	grouper    *grouping.Grouper
	normalizer Normalizer
	scorer     ScenarioScorer
	assembler  ReportAssembler
	indexer    ReportIndexer
	notifier   ReportNotifier
	cache      *redis.Client
	obs        *observability.Observability
	pause      time.Duration
	sleep      func(ctx context.Context, d time.Duration)
	logger     logger.Logger
}

type ServiceDeps struct {
	Store      SubmissionStore
	Scenarios  ScenarioSource
	Grouper    *grouping.Grouper
	Normalizer Normalizer
	Scorer     ScenarioScorer
	Assembler  ReportAssembler
	Indexer    ReportIndexer
	Notifier   ReportNotifier
	Cache      *redis.Client
	Obs        *observability.Observability
}

func NewService(deps ServiceDeps, cfg config.ScoringConfig, log logger.Logger) *Service {
	return &Service{
		store:      deps.Store,
		scenarios:  deps.Scenarios,
		grouper:    deps.Grouper,
		normalizer: deps.Normalizer,
		scorer:     deps.Scorer,
		assembler:  deps.Assembler,
		indexer:    deps.Indexer,
		notifier:   deps.Notifier,
		cache:      deps.Cache,
		obs:        deps.Obs,
		pause:      config.GetDuration(cfg.ScenarioPause),
		sleep: func(ctx context.Context, d time.Duration) {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
			}
		},
		logger: log.With(map[string]interface{}{
			"component": "pipeline-service",
		}),
	}
}

// GenerateReport runs the pipeline for one submission. Scoring failures
// never propagate; the returned error is reserved for submission-store
// problems.
func (s *Service) GenerateReport(ctx context.Context, submissionID string) (*models.AssessmentReport, error) {
	log := s.logger.With(map[string]interface{}{"submissionId": submissionID})

	if cached := s.cachedReport(ctx, submissionID); cached != nil {
		log.Info("returning cached report", nil)
		return cached, nil
	}

	submission, err := s.store.GetByID(ctx, submissionID)
	if err != nil {
		metrics.ReportsGenerated.WithLabelValues("failed").Inc()
		return nil, err
	}

	grouped := s.grouper.Group(s.scenarios.All(), submission.ConversationHistory)
	log.Info("scenarios grouped", map[string]interface{}{
		"scored":       len(grouped.Groups),
		"notAttempted": len(grouped.NotAttempted),
	})

	var scores []models.CompetencyScore
	for i, group := range grouped.Groups {
		if i > 0 && s.pause > 0 {
			s.sleep(ctx, s.pause)
		}

		metrics.ScenariosActive.WithLabelValues(submission.TestType).Inc()
		start := time.Now()

		group.Turns = s.normalizer.NormalizeTurns(ctx, group.Turns)
		scenarioScores := s.scorer.ScoreScenario(ctx, group)

		metrics.ScenariosActive.WithLabelValues(submission.TestType).Dec()
		if s.obs != nil && len(scenarioScores) > 0 {
			s.obs.RecordScenarioDuration(ctx, time.Since(start), string(scenarioScores[0].Tier))
		}

		scores = append(scores, scenarioScores...)
	}

	report := s.assembler.Assemble(ctx, grouped, scores)

	if err := s.store.UpdateReport(ctx, submissionID, report); err != nil {
		metrics.ReportsGenerated.WithLabelValues("failed").Inc()
		if s.obs != nil {
			s.obs.RecordReportGenerated(ctx, "failed")
		}
		return nil, err
	}

	s.cacheReport(ctx, submissionID, report)

	if s.indexer != nil {
		if err := s.indexer.IndexReport(ctx, submission, report); err != nil {
			log.Warn("report indexing failed", map[string]interface{}{"error": err.Error()})
		}
	}
	if s.notifier != nil {
		result := s.notifier.ReportReady(ctx, submission, report)
		log.Info("report notification dispatched", map[string]interface{}{
			"status": result.Status,
		})
	}

	metrics.ReportsGenerated.WithLabelValues("success").Inc()
	if s.obs != nil {
		s.obs.RecordReportGenerated(ctx, "success")
	}

	log.Info("report generated", map[string]interface{}{
		"overallScore": report.Summary.OverallScore,
		"overallBand":  report.Summary.OverallBand,
		"tierCounts":   report.TierCounts,
	})
	return report, nil
}

func reportCacheKey(submissionID string) string {
	return "report:" + submissionID
}

func (s *Service) cachedReport(ctx context.Context, submissionID string) *models.AssessmentReport {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.Get(ctx, reportCacheKey(submissionID)).Bytes()
	if err != nil {
		return nil
	}
	var report models.AssessmentReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil
	}
	return &report
}

func (s *Service) cacheReport(ctx context.Context, submissionID string, report *models.AssessmentReport) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, reportCacheKey(submissionID), data, reportCacheTTL).Err(); err != nil {
		s.logger.Warn("report cache write failed", map[string]interface{}{
			"submissionId": submissionID,
			"error":        err.Error(),
		})
	}
}
