// internal/pipeline/report/assembler.go

// Package report rolls per-scenario competency scores up into the final
// assessment report: per-competency means and narratives, an overall
// band, and a per-question detail table.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/genai"
	"assessment-engine/internal/models"
	"assessment-engine/internal/pipeline/grouping"
	"assessment-engine/internal/pipeline/scoring"
)

const scoreNotAvailable = "not available"

// Narrator produces strength/weakness prose for one competency.
type Narrator interface {
	Narrative(ctx context.Context, req *genai.NarrativeRequest) (*genai.NarrativeResult, error)
}

// Band maps a 0-10 score to its qualitative label.
func Band(score float64) string {
	switch {
	case score >= 8:
		return "Excellent"
	case score >= 7:
		return "Very Good"
	case score >= 6:
		return "Good"
	case score >= 5:
		return "Satisfactory"
	default:
		return "Needs Improvement"
	}
}

// Assembler builds the report. Narrative failures are swallowed and
// replaced with templated prose, so every competency entry is populated.
type Assembler struct {
	narrator Narrator
	logger   logger.Logger
}

func NewAssembler(narrator Narrator, log logger.Logger) *Assembler {
	return &Assembler{
		narrator: narrator,
		logger: log.With(map[string]interface{}{
			"component": "report-assembler",
		}),
	}
}

// Assemble combines all scores into the final report. Group order fixes
// question numbering; aggregation itself is order-independent.
func (a *Assembler) Assemble(ctx context.Context, grouped grouping.Result, scores []models.CompetencyScore) *models.AssessmentReport {
	competencies := a.aggregate(ctx, scores)
	questions := a.questionDetails(grouped.Groups, scores)

	var notAttempted []string
	for _, scenario := range grouped.NotAttempted {
		notAttempted = append(notAttempted, scenario.Situation)
	}

	tierCounts := make(map[string]int)
	for _, score := range scores {
		tierCounts[string(score.Tier)]++
	}

	overall := overallScore(competencies)

	return &models.AssessmentReport{
		Summary: models.ReportSummary{
			OverallScore:          scoring.Round1(overall),
			OverallBand:           Band(overall),
			ScenariosScored:       len(grouped.Groups),
			ScenariosNotAttempted: notAttempted,
		},
		Competencies: competencies,
		Questions:    questions,
		TierCounts:   tierCounts,
		GeneratedAt:  time.Now().UTC(),
	}
}

// aggregate computes unweighted means per competency and attaches
// narratives, sorted alphabetically by competency name.
func (a *Assembler) aggregate(ctx context.Context, scores []models.CompetencyScore) []models.AggregatedCompetencyResult {
	type bucket struct {
		preSum     float64
		postSum    float64
		count      int
		rationales []string
	}
	buckets := make(map[string]*bucket)
	for _, score := range scores {
		b := buckets[score.Competency]
		if b == nil {
			b = &bucket{}
			buckets[score.Competency] = b
		}
		b.preSum += score.PrePenaltyScore
		b.postSum += score.PostPenaltyScore
		b.count++
		if score.Rationale != "" {
			b.rationales = append(b.rationales, score.Rationale)
		}
	}

	names := make([]string, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]models.AggregatedCompetencyResult, 0, len(names))
	for _, name := range names {
		b := buckets[name]
		result := models.AggregatedCompetencyResult{
			Competency:      name,
			MeanPrePenalty:  b.preSum / float64(b.count),
			MeanPostPenalty: b.postSum / float64(b.count),
			ScoreCount:      b.count,
		}
		result.StrengthSummary, result.WeaknessSummary = a.narrate(ctx, result, b.rationales)
		results = append(results, result)
	}
	return results
}

// narrate asks the external service for prose and falls back to a
// deterministic template naming the competency and its band.
func (a *Assembler) narrate(ctx context.Context, result models.AggregatedCompetencyResult, rationales []string) (string, string) {
	band := Band(result.MeanPostPenalty)

	narrative, err := a.narrator.Narrative(ctx, &genai.NarrativeRequest{
		Competency: result.Competency,
		MeanScore:  result.MeanPostPenalty,
		Band:       band,
		Rationales: rationales,
	})
	if err == nil && narrative.StrengthSummary != "" {
		weakness := narrative.WeaknessSummary
		if weakness == "" {
			weakness = templateWeakness(result.Competency, band)
		}
		return narrative.StrengthSummary, weakness
	}
	if err != nil {
		a.logger.Warn("narrative generation failed, using templated fallback", map[string]interface{}{
			"competency": result.Competency,
			"error":      err.Error(),
		})
	}

	return templateStrength(result.Competency, band, result.MeanPostPenalty), templateWeakness(result.Competency, band)
}

func templateStrength(competency, band string, mean float64) string {
	return fmt.Sprintf("Demonstrated %s at the %s level with an average score of %.1f out of 10.",
		competency, band, scoring.Round1(mean))
}

func templateWeakness(competency, band string) string {
	return fmt.Sprintf("Continued practice in %s is recommended to build on the current %s rating.",
		competency, band)
}

// questionDetails maps every answered turn to the resolved score of its
// scenario. Turns whose scenario produced no score get the placeholder
// instead of an error.
func (a *Assembler) questionDetails(groups []grouping.Group, scores []models.CompetencyScore) []models.QuestionDetail {
	// First score per scenario is the one its tier targeted first.
	byScenario := make(map[string]models.CompetencyScore)
	for _, score := range scores {
		if _, ok := byScenario[score.ScenarioKey]; !ok {
			byScenario[score.ScenarioKey] = score
		}
	}

	var details []models.QuestionDetail
	number := 0
	for _, group := range groups {
		for _, turn := range group.AnsweredTurns() {
			number++
			detail := models.QuestionDetail{
				QuestionNumber: number,
				Prompt:         turn.Prompt,
				Answer:         *turn.Answer,
				IsFollowUp:     turn.IsFollowUp,
				Competency:     scoreNotAvailable,
				Score:          scoreNotAvailable,
				Rationale:      scoreNotAvailable,
			}
			if score, ok := byScenario[string(group.Key)]; ok {
				detail.Competency = score.Competency
				detail.Score = fmt.Sprintf("%.1f/10", scoring.Round1(score.PostPenaltyScore))
				detail.Rationale = score.Rationale
				detail.Tier = string(score.Tier)
			}
			details = append(details, detail)
		}
	}
	return details
}

// overallScore averages the per-competency post-penalty means.
func overallScore(competencies []models.AggregatedCompetencyResult) float64 {
	if len(competencies) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range competencies {
		sum += c.MeanPostPenalty
	}
	return sum / float64(len(competencies))
}
