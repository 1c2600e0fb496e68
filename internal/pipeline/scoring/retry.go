// internal/pipeline/scoring/retry.go
package scoring

import (
	"context"
	"time"

	commonerrors "assessment-engine/internal/common/errors"
	"assessment-engine/internal/common/metrics"
)

// sleepFunc lets tests replace the real wait between attempts.
type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// callWithRetry runs fn up to the configured attempt limit. Rate-limit
// and overload responses back off linearly by attempt index; any other
// error escalates immediately to the next fidelity tier.
func (o *Orchestrator) callWithRetry(ctx context.Context, operation string, fn func(context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= o.cfg.MaxRetries; attempt++ {
		err := fn(ctx)
		if err == nil {
			metrics.ScoringAttempts.WithLabelValues(operation, "success").Inc()
			return nil
		}
		lastErr = err

		var backoff time.Duration
		switch {
		case commonerrors.IsRateLimited(err):
			metrics.ScoringAttempts.WithLabelValues(operation, "rate_limited").Inc()
			backoff = time.Duration(attempt) * time.Duration(o.cfg.RateLimitBackoff) * time.Millisecond
		case commonerrors.IsOverloaded(err):
			metrics.ScoringAttempts.WithLabelValues(operation, "overloaded").Inc()
			backoff = time.Duration(attempt) * time.Duration(o.cfg.OverloadBackoff) * time.Millisecond
		default:
			metrics.ScoringAttempts.WithLabelValues(operation, "failed").Inc()
			return err
		}

		if attempt == o.cfg.MaxRetries {
			break
		}

		o.logger.Warn("transient scoring error, backing off", map[string]interface{}{
			"operation": operation,
			"attempt":   attempt,
			"backoffMs": backoff.Milliseconds(),
			"error":     err.Error(),
		})

		if err := o.sleep(ctx, backoff); err != nil {
			return lastErr
		}
	}

	return lastErr
}
