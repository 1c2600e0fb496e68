// internal/search/reports.go

// Package search mirrors finished reports into Elasticsearch so
// reviewers can query across candidates. Indexing is strictly
// best-effort: the report write to the submission store is the durable
// record, and any search failure is logged and swallowed.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/models"
)

type ReportIndexer struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewReportIndexer(client *elasticsearch.Client, index string, log logger.Logger) *ReportIndexer {
	return &ReportIndexer{
		client: client,
		index:  index,
		logger: log.With(map[string]interface{}{
			"component": "report-indexer",
		}),
	}
}

type reportDocument struct {
	SubmissionID  string                  `json:"submission_id"`
	CandidateName string                  `json:"candidate_name"`
	CandidateID   string                  `json:"candidate_id"`
	TestType      string                  `json:"test_type"`
	OverallScore  float64                 `json:"overall_score"`
	OverallBand   string                  `json:"overall_band"`
	TierCounts    map[string]int          `json:"tier_counts"`
	Report        *models.AssessmentReport `json:"report"`
	IndexedAt     time.Time               `json:"indexed_at"`
}

// IndexReport writes a finished report document keyed by submission ID.
// The returned error is informational; callers are expected to log and
// continue.
func (r *ReportIndexer) IndexReport(ctx context.Context, submission *models.Submission, report *models.AssessmentReport) error {
	doc := reportDocument{
		SubmissionID:  submission.ID,
		CandidateName: submission.CandidateName,
		CandidateID:   submission.CandidateID,
		TestType:      submission.TestType,
		OverallScore:  report.Summary.OverallScore,
		OverallBand:   report.Summary.OverallBand,
		TierCounts:    report.TierCounts,
		Report:        report,
		IndexedAt:     time.Now().UTC(),
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode report document: %w", err)
	}

	res, err := r.client.Index(
		r.index,
		bytes.NewReader(body),
		r.client.Index.WithContext(ctx),
		r.client.Index.WithDocumentID(submission.ID),
	)
	if err != nil {
		return fmt.Errorf("index report: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index report: %s", res.Status())
	}

	r.logger.Info("report indexed", map[string]interface{}{
		"submissionId": submission.ID,
		"index":        r.index,
	})
	return nil
}
