package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PDFTextConfig configures the exec-based pdftotext provider.
type PDFTextConfig struct {
	Binary string // binary name or absolute path; if empty -> "pdftotext"
}

// PDFText shells out to pdftotext for uploads that arrive as PDFs.
type PDFText struct {
	cfg    PDFTextConfig
	runner Runner
	logger *slog.Logger
}

func NewPDFText(cfg PDFTextConfig, logger *slog.Logger) *PDFText {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Binary == "" {
		cfg.Binary = "pdftotext"
	}
	return &PDFText{cfg: cfg, runner: execRunner{}, logger: logger}
}

func (p *PDFText) Name() string { return "pdftotext" }

func (p *PDFText) Extract(ctx context.Context, pdf []byte) (Result, error) {
	start := time.Now()

	tmpDir, err := os.MkdirTemp("", "sgk-pdf-*")
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			p.logger.Warn("failed to remove pdf temp dir", "dir", tmpDir, "error", rmErr)
		}
	}()

	path := filepath.Join(tmpDir, "doc.pdf")
	if err := os.WriteFile(path, pdf, 0o600); err != nil {
		return Result{}, err
	}

	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := p.runner.Run(ctx, p.cfg.Binary, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return Result{Warnings: []string{string(errb)}}, fmt.Errorf("pdftotext: %w", err)
	}

	text := string(out)
	res := Result{
		Text:     text,
		Method:   "pdf-text",
		Duration: time.Since(start),
	}
	// embedded text layers carry no OCR uncertainty
	if strings.TrimSpace(text) != "" {
		res.Confidence = 0.99
	}
	return res, nil
}
