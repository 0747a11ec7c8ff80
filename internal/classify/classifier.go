package classify

import (
	"context"
	"log/slog"
	"strings"

	"github.com/klinikops/sgk-docflow/constants"
	"github.com/klinikops/sgk-docflow/internal/entity"
	"github.com/klinikops/sgk-docflow/internal/textnorm"
)

// Scorer is an optional richer classification capability. Its result is
// preferred only when its confidence beats the pattern-based one.
type Scorer interface {
	Score(ctx context.Context, text, filename string) (entity.Classification, error)
}

// Classifier assigns a document type from OCR text and the original filename
// using ordered keyword rules over folded text.
type Classifier struct {
	scorer Scorer
	logger *slog.Logger
}

func NewClassifier(scorer Scorer, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{scorer: scorer, logger: logger}
}

// Classify never fails: an unrecognized document is OtherDocument with
// confidence 0.1.
func (c *Classifier) Classify(ctx context.Context, text, filename string) entity.Classification {
	patternRes := c.byPatterns(text, filename)

	if c.scorer != nil {
		if scored, err := c.scorer.Score(ctx, text, filename); err != nil {
			c.logger.Warn("classification scorer failed, using pattern result", "error", err)
		} else if scored.Confidence > patternRes.Confidence {
			return scored
		}
	}
	return patternRes
}

func (c *Classifier) byPatterns(text, filename string) entity.Classification {
	folded := textnorm.Fold(text)

	for _, r := range rules {
		if matchesAll(folded, r.phrases) {
			return entity.Classification{Type: r.docType, Confidence: r.confidence, Method: "keyword"}
		}
	}

	foldedName := textnorm.Fold(filename)
	for _, r := range filenameRules {
		if matchesAll(foldedName, r.phrases) {
			return entity.Classification{Type: r.docType, Confidence: r.confidence, Method: "filename"}
		}
	}

	return entity.Classification{Type: constants.OtherDocument, Confidence: 0.1, Method: "none"}
}

func matchesAll(folded string, phrases []string) bool {
	for _, p := range phrases {
		if !strings.Contains(folded, p) {
			return false
		}
	}
	return true
}
