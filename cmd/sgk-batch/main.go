package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/klinikops/sgk-docflow/internal/async"
	"github.com/klinikops/sgk-docflow/internal/classify"
	"github.com/klinikops/sgk-docflow/internal/common"
	exportpkg "github.com/klinikops/sgk-docflow/internal/export"
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
		dir      = flag.String("dir", "", "directory to process captures from (required)")
		watch    = flag.Bool("watch", false, "keep watching the directory for new captures")
		debounce = flag.Duration("debounce", 2*time.Second, "settle time before a new file is processed in watch mode")
		workers  = flag.Int("workers", 2, "pipeline workers in watch mode")
		export   = flag.String("export", "", "write an XLSX claim register to this path after the batch")
	)
	flag.Parse()

	if *dir == "" {
		fmt.Fprintln(os.Stderr, "Error: -dir is required")
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

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
	loader := ingest.NewFSLoader(logger)

	logger.Info("starting batch ingest", "dir", *dir)
	results, stats, err := loader.FromDirectory(ctx, *dir, true)
	if err != nil {
		logger.Error("failed to ingest directory", "error", err)
		os.Exit(1)
	}

	processed, failures, quarantined := 0, 0, 0
	for _, r := range results {
		if r.Err != "" {
			logger.Error("capture load failed", "path", r.SourcePath, "error", r.Err)
			failures++
			continue
		}
		doc, err := processor.Run(ctx, r.Upload)
		if err != nil {
			logger.Error("failed to process capture", "path", r.SourcePath, "error", err)
			failures++
			continue
		}
		processed++
		if doc.Quarantined() {
			quarantined++
		}
	}

	logger.Info("batch processing complete",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"processed", processed,
		"quarantined", quarantined,
		"failures", failures)

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Files scanned: %d\n", stats.Scanned)
	fmt.Printf("- Files processed: %d\n", processed)
	fmt.Printf("- Quarantined: %d\n", quarantined)
	fmt.Printf("- Failures: %d\n", failures)

	if *export != "" {
		svc := exportpkg.NewService(
			repo.NewDocumentRepository(db, cfg.Store.QuarantineCapacity, logger),
			repo.NewPatientRepository(db, logger),
			logger,
		)
		xlsxBytes, err := svc.RegisterXLSX(ctx)
		if err != nil {
			logger.Error("failed to export claim register", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*export, xlsxBytes, 0o644); err != nil {
			logger.Error("failed to write claim register", "path", *export, "error", err)
			os.Exit(1)
		}
		logger.Info("claim register written", "path", *export, "size", len(xlsxBytes))
	}

	if !*watch {
		return
	}

	logger.Info("watching for new captures", "dir", *dir, "debounce", *debounce)
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:    []string{*dir},
		Debounce: *debounce,
	}, logger)
	if err != nil {
		logger.Error("failed to start watcher", "error", err)
		os.Exit(1)
	}

	queue := async.NewProcessorQueue(processor, logger, async.WithWorkers(*workers))
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		queue.Shutdown(drainCtx)
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Info("watch stopped")
			return
		case err, ok := <-errs:
			if ok && err != nil {
				logger.Error("watcher error", "error", err)
			}
		case path, ok := <-events:
			if !ok {
				return
			}
			upload, err := loader.FromPath(ctx, path)
			if err != nil {
				logger.Error("capture load failed", "path", path, "error", err)
				continue
			}
			_ = queue.Enqueue(ctx, async.Job{
				Upload:      upload,
				SourcePath:  path,
				SubmittedAt: time.Now().UTC(),
			})
		}
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
