package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/klinikops/sgk-docflow/constants"
	"github.com/klinikops/sgk-docflow/internal/classify"
	"github.com/klinikops/sgk-docflow/internal/common"
	"github.com/klinikops/sgk-docflow/internal/extract"
	"github.com/klinikops/sgk-docflow/internal/geometry"
	"github.com/klinikops/sgk-docflow/internal/ingest"
	"github.com/klinikops/sgk-docflow/internal/match"
	"github.com/klinikops/sgk-docflow/internal/pdfconv"
	"github.com/klinikops/sgk-docflow/internal/pipeline"
	repo "github.com/klinikops/sgk-docflow/internal/repository"
)

func main() {
	var (
		file  = flag.String("file", "", "path to the capture to process (required)")
		out   = flag.String("out", "", "directory to also write the resulting PDF into (optional)")
		quiet = flag.Bool("quiet", false, "suppress progress output")
	)
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "Error: -file is required")
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	db, err := repo.Open(ctx, cfg.Store.Path, logger)
	if err != nil {
		logger.Error("failed to open document store", "error", err)
		os.Exit(1)
	}
	defer repo.Close(db, logger)

	processor := buildProcessor(cfg, db, logger)
	if !*quiet {
		processor.Hooks.Progress = func(step, total int, stage constants.PipelineStage, message string) {
			fmt.Fprintf(os.Stderr, "[%d/%d] %s: %s\n", step, total, stage, message)
		}
	}

	loader := ingest.NewFSLoader(logger)
	upload, err := loader.FromPath(ctx, *file)
	if err != nil {
		logger.Error("failed to load capture", "path", *file, "error", err)
		os.Exit(1)
	}

	doc, err := processor.Run(ctx, upload)
	if err != nil {
		logger.Error("pipeline run failed", "path", *file, "error", err)
		os.Exit(1)
	}

	if *out != "" {
		target := filepath.Join(*out, doc.Filename)
		if err := os.WriteFile(target, doc.Payload, 0o644); err != nil {
			logger.Error("failed to write output PDF", "path", target, "error", err)
			os.Exit(1)
		}
		logger.Info("wrote output PDF", "path", target, "size", len(doc.Payload))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		logger.Error("failed to encode result", "error", err)
		os.Exit(1)
	}
}

func buildProcessor(cfg *common.Config, db *sql.DB, logger *slog.Logger) *pipeline.Processor {
	patients := repo.NewPatientRepository(db, logger)
	documents := repo.NewDocumentRepository(db, cfg.Store.QuarantineCapacity, logger)

	normalizer := geometry.NewNormalizer(geometry.Config{}, logger)
	tess := extract.NewTesseract(extract.TesseractConfig{
		Binary:      cfg.OCR.Tesseract,
		Lang:        cfg.OCR.TesseractLang,
		TessdataDir: cfg.OCR.TessdataDir,
		DPI:         cfg.OCR.DPI,
		EnableTSV:   true,
	}, logger)
	imageChain := extract.NewChain(logger, tess, extract.Noop{})
	pdfChain := extract.NewChain(logger, extract.NewPDFText(extract.PDFTextConfig{}, logger), extract.Noop{})

	matcher := match.NewEngine(patients, nil, nil, match.Options{
		RemoteTimeout: cfg.Pipeline.RemoteTimeout,
	}, logger)
	classifier := classify.NewClassifier(nil, logger)
	compressor := pdfconv.NewCompressor(cfg.Pipeline.TargetPDFBytes, logger)
	compressor.MaxRounds = cfg.Pipeline.MaxCompressRound

	return pipeline.NewProcessor(normalizer, imageChain, pdfChain, matcher, classifier, compressor, patients, documents, logger)
}
