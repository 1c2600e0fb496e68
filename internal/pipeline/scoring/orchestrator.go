// internal/pipeline/scoring/orchestrator.go

// Package scoring turns one scenario's grouped, normalized turns into
// competency scores. The orchestrator walks a four-tier fallback
// cascade and guarantees exactly one score per targeted competency no
// matter how the external scorer fails.
package scoring

import (
	"context"
	"fmt"
	"sync"

	"assessment-engine/internal/common/config"
	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/common/metrics"
	"assessment-engine/internal/genai"
	"assessment-engine/internal/models"
	"assessment-engine/internal/pipeline/grouping"
)

const (
	emergencyScore     = 5.0
	emergencyRationale = "Scoring service was unavailable; a neutral score was assigned automatically."

	// Substituted when a scenario definition lists no competencies.
	defaultCompetency = "General Competence"
)

// Scorer performs the external scoring calls.
type Scorer interface {
	ScoreCompetency(ctx context.Context, req *genai.ScoreRequest) (*genai.ScoreResult, error)
	ScoreAllCompetencies(ctx context.Context, req *genai.BatchScoreRequest) ([]genai.ScoreResult, error)
}

// Orchestrator scores scenarios with a fixed, immutable policy taken at
// construction time. Nothing re-reads configuration mid-flight.
type Orchestrator struct {
	scorer Scorer
	cfg    config.ScoringConfig
	sleep  sleepFunc
	logger logger.Logger
}

func NewOrchestrator(scorer Scorer, cfg config.ScoringConfig, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		scorer: scorer,
		cfg:    cfg,
		sleep:  sleepWithContext,
		logger: log.With(map[string]interface{}{
			"component": "scoring-orchestrator",
		}),
	}
}

// tierStrategy is one entry in the ordered fallback cascade. targets
// lists the competencies the tier is responsible for; run produces raw
// results or an error that escalates to the next entry.
type tierStrategy struct {
	tier    models.Tier
	targets []string
	run     func(ctx context.Context) ([]genai.ScoreResult, error)
}

// ScoreScenario produces exactly one CompetencyScore per targeted
// competency. On the fast path only the first-listed competency is
// targeted; once the cascade escalates, every listed competency is.
func (o *Orchestrator) ScoreScenario(ctx context.Context, group grouping.Group) []models.CompetencyScore {
	competencies := o.competenciesFor(group.Scenario)

	strategies := []tierStrategy{
		{
			tier:    models.TierPrimary,
			targets: competencies[:1],
			run: func(ctx context.Context) ([]genai.ScoreResult, error) {
				return o.scorePrimary(ctx, group, competencies)
			},
		},
		{
			tier:    models.TierScenarioFallback,
			targets: competencies,
			run: func(ctx context.Context) ([]genai.ScoreResult, error) {
				return o.scoreScenarioBatch(ctx, group, competencies)
			},
		},
		{
			tier:    models.TierPerQuestionFallback,
			targets: competencies,
			run: func(ctx context.Context) ([]genai.ScoreResult, error) {
				return o.scorePerQuestion(ctx, group, competencies)
			},
		},
	}

	for _, strategy := range strategies {
		results, err := strategy.run(ctx)
		if err != nil {
			o.logger.Warn("tier failed, escalating", map[string]interface{}{
				"tier":  string(strategy.tier),
				"error": err.Error(),
			})
			continue
		}
		return o.finalize(group, strategy.tier, strategy.targets, results)
	}

	// Total external failure. Emergency scores keep every competency
	// covered so report generation never blocks on the scorer.
	return o.finalize(group, models.TierEmergency, competencies, nil)
}

// scorePrimary is the fast path: one call scoring only the first-listed
// competency against the full multi-turn conversation.
func (o *Orchestrator) scorePrimary(ctx context.Context, group grouping.Group, competencies []string) ([]genai.ScoreResult, error) {
	req := &genai.ScoreRequest{
		Situation:              group.Scenario.Situation,
		Competency:             competencies[0],
		Conversation:           wireTurns(group.AnsweredTurns()),
		BestResponseRationale:  group.Scenario.BestResponseRationale,
		WorstResponseRationale: group.Scenario.WorstResponseRationale,
		AllCompetencies:        competencies,
	}

	var result *genai.ScoreResult
	err := o.callWithRetry(ctx, "score", func(ctx context.Context) error {
		var callErr error
		result, callErr = o.scorer.ScoreCompetency(ctx, req)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return []genai.ScoreResult{*result}, nil
}

// scoreScenarioBatch re-scores every listed competency in one call
// under a hard deadline.
func (o *Orchestrator) scoreScenarioBatch(ctx context.Context, group grouping.Group, competencies []string) ([]genai.ScoreResult, error) {
	ctx, cancel := context.WithTimeout(ctx, config.GetDuration(o.cfg.BatchDeadline))
	defer cancel()

	req := &genai.BatchScoreRequest{
		Situation:    group.Scenario.Situation,
		Competencies: competencies,
		Conversation: wireTurns(group.AnsweredTurns()),
	}

	var results []genai.ScoreResult
	err := o.callWithRetry(ctx, "score-batch", func(ctx context.Context) error {
		var callErr error
		results, callErr = o.scorer.ScoreAllCompetencies(ctx, req)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("scenario batch returned no scores")
	}
	return results, nil
}

// scorePerQuestion issues one independent call per answered turn per
// competency, bounded by the configured concurrency, and averages each
// competency's successes. Competencies with no successful call are left
// out; finalize covers them with emergency scores. This tier never
// errors, so the cascade always terminates here.
func (o *Orchestrator) scorePerQuestion(ctx context.Context, group grouping.Group, competencies []string) ([]genai.ScoreResult, error) {
	answered := group.AnsweredTurns()

	type cell struct {
		competency string
		turn       models.ConversationTurn
	}
	var cells []cell
	for _, competency := range competencies {
		for _, turn := range answered {
			cells = append(cells, cell{competency: competency, turn: turn})
		}
	}

	type partial struct {
		competency string
		score      float64
		rationale  string
	}
	partials := make([]*partial, len(cells))

	sem := make(chan struct{}, o.cfg.PerTurnConcurrency)
	var wg sync.WaitGroup
	for i, c := range cells {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, c cell) {
			defer wg.Done()
			defer func() { <-sem }()

			req := &genai.ScoreRequest{
				Situation:    group.Scenario.Situation,
				Competency:   c.competency,
				Conversation: wireTurns([]models.ConversationTurn{c.turn}),
			}
			var result *genai.ScoreResult
			err := o.callWithRetry(ctx, "score-per-question", func(ctx context.Context) error {
				var callErr error
				result, callErr = o.scorer.ScoreCompetency(ctx, req)
				return callErr
			})
			if err != nil {
				return
			}
			partials[i] = &partial{
				competency: c.competency,
				score:      result.Score,
				rationale:  result.Rationale,
			}
		}(i, c)
	}
	wg.Wait()

	sums := make(map[string]float64)
	counts := make(map[string]int)
	rationales := make(map[string]string)
	for _, p := range partials {
		if p == nil {
			continue
		}
		sums[p.competency] += p.score
		counts[p.competency]++
		if rationales[p.competency] == "" {
			rationales[p.competency] = p.rationale
		}
	}

	var results []genai.ScoreResult
	for _, competency := range competencies {
		if counts[competency] == 0 {
			continue
		}
		results = append(results, genai.ScoreResult{
			Competency: competency,
			Score:      sums[competency] / float64(counts[competency]),
			Rationale:  rationales[competency],
		})
	}
	return results, nil
}

// finalize converts raw tier results into CompetencyScore records,
// covering any targeted competency the tier missed with an emergency
// score. Output order follows the target list.
func (o *Orchestrator) finalize(group grouping.Group, tier models.Tier, targets []string, results []genai.ScoreResult) []models.CompetencyScore {
	byCompetency := make(map[string]genai.ScoreResult, len(results))
	for _, r := range results {
		byCompetency[r.Competency] = r
	}

	hasFollowUp := scenarioHasFollowUp(group.Turns)
	penalty := o.penaltyFor(group.Scenario)

	scores := make([]models.CompetencyScore, 0, len(targets))
	for _, competency := range targets {
		result, ok := byCompetency[competency]
		scoreTier := tier
		if !ok {
			result = genai.ScoreResult{
				Competency: competency,
				Score:      emergencyScore,
				Rationale:  emergencyRationale,
			}
			scoreTier = models.TierEmergency
		}

		raw := clamp(result.Score, 0, 10)
		scores = append(scores, models.CompetencyScore{
			Competency:       competency,
			ScenarioKey:      string(group.Key),
			RawScore:         raw,
			Rationale:        result.Rationale,
			PrePenaltyScore:  raw,
			PostPenaltyScore: ApplyPenalty(raw, hasFollowUp, penalty),
			PenaltyPercent:   penalty,
			HasFollowUp:      hasFollowUp,
			Tier:             scoreTier,
		})
		metrics.ScoresProduced.WithLabelValues(string(scoreTier)).Inc()
	}
	return scores
}

func (o *Orchestrator) competenciesFor(scenario models.ScenarioDefinition) []string {
	if len(scenario.Competencies) > 0 {
		return scenario.Competencies
	}
	o.logger.Warn("scenario lists no competencies, substituting default", map[string]interface{}{
		"warning":   "DATA_INTEGRITY_WARNING",
		"situation": scenario.Situation,
	})
	return []string{defaultCompetency}
}

func (o *Orchestrator) penaltyFor(scenario models.ScenarioDefinition) float64 {
	if scenario.PenaltyPercent != nil {
		return clamp(*scenario.PenaltyPercent, 0, 100)
	}
	return o.cfg.PenaltyPercent
}

func scenarioHasFollowUp(turns []models.ConversationTurn) bool {
	for _, turn := range turns {
		if turn.IsFollowUp {
			return true
		}
	}
	return false
}

func wireTurns(turns []models.ConversationTurn) []genai.Turn {
	out := make([]genai.Turn, 0, len(turns))
	for _, turn := range turns {
		answer := ""
		if turn.Answer != nil {
			answer = *turn.Answer
		}
		out = append(out, genai.Turn{
			Prompt:     turn.Prompt,
			Answer:     answer,
			IsFollowUp: turn.IsFollowUp,
		})
	}
	return out
}
