package extract

import (
	"context"
	"errors"
	"log/slog"
)

// Chain tries providers in order, stopping at the first success. An empty
// text result is a success. Only when every provider fails does Extract
// return an error.
type Chain struct {
	providers []Provider
	logger    *slog.Logger
}

func NewChain(logger *slog.Logger, providers ...Provider) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{providers: providers, logger: logger}
}

func (c *Chain) Extract(ctx context.Context, png []byte) (ExtractedText, error) {
	var lastErr error
	for _, p := range c.providers {
		res, err := p.Extract(ctx, png)
		if err != nil {
			c.logger.Warn("ocr provider failed, trying next", "provider", p.Name(), "error", err)
			lastErr = err
			continue
		}
		c.logger.Debug("ocr provider succeeded",
			"provider", p.Name(),
			"chars", len(res.Text),
			"confidence", res.Confidence,
			"duration_ms", res.Duration.Milliseconds(),
		)
		out := ParseEntities(res.Text)
		out.Method = res.Method
		out.Confidence = res.Confidence
		return out, nil
	}
	if lastErr == nil {
		lastErr = errors.New("no ocr providers configured")
	}
	return ExtractedText{}, lastErr
}

// Noop always succeeds with empty text. Placing it last in a chain guarantees
// extraction never blocks document capture.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) Extract(context.Context, []byte) (Result, error) {
	return Result{Method: "none"}, nil
}
