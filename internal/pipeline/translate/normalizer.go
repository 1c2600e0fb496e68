// internal/pipeline/translate/normalizer.go

// Package translate normalizes candidate answers into the canonical
// scoring language. Normalization is strictly best-effort: any failure
// leaves the original text in place.
package translate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/redis/go-redis/v9"

	"assessment-engine/internal/common/config"
	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/models"
)

// Translator performs the external translation call.
type Translator interface {
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
}

// Normalizer translates answer text into the target language, caching
// results in Redis keyed by a digest of the original text.
type Normalizer struct {
	translator     Translator
	cache          *redis.Client
	targetLanguage string
	concurrency    int
	cacheTTL       time.Duration
	logger         logger.Logger
}

func NewNormalizer(translator Translator, cache *redis.Client, cfg config.TranslationConfig, log logger.Logger) *Normalizer {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Normalizer{
		translator:     translator,
		cache:          cache,
		targetLanguage: cfg.TargetLanguage,
		concurrency:    concurrency,
		cacheTTL:       time.Duration(cfg.CacheTTL) * time.Second,
		logger: log.With(map[string]interface{}{
			"component": "language-normalizer",
		}),
	}
}

// Normalize returns text in the canonical language. Canonical-looking
// input skips the external call entirely; on any failure the original
// text comes back unchanged.
func (n *Normalizer) Normalize(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	if LooksCanonical(text) {
		return text
	}

	key := cacheKey(text, n.targetLanguage)
	if n.cache != nil {
		if cached, err := n.cache.Get(ctx, key).Result(); err == nil && cached != "" {
			return cached
		}
	}

	translated, err := n.translator.Translate(ctx, text, n.targetLanguage)
	if err != nil {
		n.logger.Warn("translation failed, keeping original text", map[string]interface{}{
			"error": err.Error(),
		})
		return text
	}

	if n.cache != nil {
		if err := n.cache.Set(ctx, key, translated, n.cacheTTL).Err(); err != nil {
			n.logger.Warn("translation cache write failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	return translated
}

// NormalizeTurns normalizes the answers of all turns with bounded
// parallelism and returns a copy. Turn order is preserved.
func (n *Normalizer) NormalizeTurns(ctx context.Context, turns []models.ConversationTurn) []models.ConversationTurn {
	out := make([]models.ConversationTurn, len(turns))
	copy(out, turns)

	sem := make(chan struct{}, n.concurrency)
	var wg sync.WaitGroup

	for i := range out {
		if out[i].Answer == nil {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			normalized := n.Normalize(ctx, *out[i].Answer)
			out[i].Answer = &normalized
		}(i)
	}

	wg.Wait()
	return out
}

// English stopwords used by the canonical-language heuristic.
var canonicalStopwords = []string{
	" the ", " and ", " would ", " to ", " of ", " in ", " is ", " that ",
	" with ", " for ", " it ", " on ", " i ",
}

// LooksCanonical reports whether text is probably already in the
// canonical scoring language. The check is deliberately cheap: mostly
// ASCII letters plus at least one common English function word.
func LooksCanonical(text string) bool {
	letters := 0
	ascii := 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if r < 128 {
				ascii++
			}
		}
	}
	if letters == 0 {
		return true
	}
	if float64(ascii)/float64(letters) < 0.9 {
		return false
	}

	padded := " " + strings.ToLower(text) + " "
	for _, word := range canonicalStopwords {
		if strings.Contains(padded, word) {
			return true
		}
	}
	return false
}

func cacheKey(text, targetLanguage string) string {
	sum := sha256.Sum256([]byte(targetLanguage + ":" + text))
	return "translate:" + hex.EncodeToString(sum[:])
}
