package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sunshineplan/imgconv"

	"github.com/klinikops/sgk-docflow/constants"
	"github.com/klinikops/sgk-docflow/internal/classify"
	"github.com/klinikops/sgk-docflow/internal/entity"
	"github.com/klinikops/sgk-docflow/internal/extract"
	"github.com/klinikops/sgk-docflow/internal/geometry"
	"github.com/klinikops/sgk-docflow/internal/match"
	"github.com/klinikops/sgk-docflow/internal/pdfconv"
	"github.com/klinikops/sgk-docflow/internal/repository"
)

// Hooks let callers observe a run without coupling the orchestrator to any
// particular frontend. All hooks are optional.
type Hooks struct {
	// Progress fires after each stage with 1-based step over total.
	Progress func(step, total int, stage constants.PipelineStage, message string)
	// Render receives the persisted document on success.
	Render func(doc *entity.Document)
}

func (h Hooks) progress(step, total int, stage constants.PipelineStage, message string) {
	if h.Progress != nil {
		h.Progress(step, total, stage, message)
	}
}

// Processor runs one capture through the full document flow: geometric
// normalization, text extraction, identity resolution, classification,
// PDF conversion with adaptive compression, and persistence.
type Processor struct {
	Normalizer *geometry.Normalizer
	ImageChain *extract.Chain
	PDFChain   *extract.Chain
	Matcher    *match.Engine
	Classifier *classify.Classifier
	Compressor *pdfconv.Compressor
	Patients   repository.PatientRepository
	Documents  repository.DocumentRepository
	Hooks      Hooks
	Logger     *slog.Logger
}

func NewProcessor(
	normalizer *geometry.Normalizer,
	imageChain, pdfChain *extract.Chain,
	matcher *match.Engine,
	classifier *classify.Classifier,
	compressor *pdfconv.Compressor,
	patients repository.PatientRepository,
	documents repository.DocumentRepository,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		Normalizer: normalizer,
		ImageChain: imageChain,
		PDFChain:   pdfChain,
		Matcher:    matcher,
		Classifier: classifier,
		Compressor: compressor,
		Patients:   patients,
		Documents:  documents,
		Logger:     logger,
	}
}

// Run processes one upload end to end. Normalization, extraction, and
// classification degrade on failure; compression substitutes the emergency
// placeholder; only persistence failures abort the run. Unmatched documents
// are still persisted, into quarantine.
func (p *Processor) Run(ctx context.Context, upload *entity.RawUpload) (*entity.Document, error) {
	total := len(constants.PipelineStages)
	isPDF := upload.MediaType == constants.PDF
	start := time.Now()

	// 1) geometric normalization (images only)
	var img image.Image
	appliedCorrection := false
	if !isPDF {
		norm, err := p.Normalizer.Normalize(upload.Data)
		if err != nil {
			p.Logger.Warn("normalization failed, continuing without image",
				"filename", upload.Filename, "error", err)
		} else {
			img = norm.Image
			appliedCorrection = norm.AppliedCorrection
		}
	}
	p.Hooks.progress(1, total, constants.StageNormalizing, "belge düzeltildi")

	// 2) text extraction
	text := p.extractText(ctx, upload, img, isPDF)
	p.Hooks.progress(2, total, constants.StageExtracting, "metin okundu")

	// 3) identity resolution
	matchRes, err := p.Matcher.Resolve(ctx, text)
	if err != nil {
		p.Logger.Warn("identity resolution degraded", "filename", upload.Filename, "error", err)
	}
	p.Hooks.progress(3, total, constants.StageResolving, "hasta eşleştirildi")

	// 4) classification
	class := p.Classifier.Classify(ctx, text.Text, upload.Filename)
	p.Hooks.progress(4, total, constants.StageClassifying, "belge türü belirlendi")

	// 5+6) conversion and compression
	patientName := p.displayName(matchRes, text)
	p.Hooks.progress(5, total, constants.StageConverting, "pdf oluşturuluyor")
	comp := p.compress(upload, img, isPDF, patientName, class)
	p.Hooks.progress(6, total, constants.StageCompressing, "pdf sıkıştırıldı")

	// 7) persistence; unmatched documents land in quarantine (nil patient)
	doc, err := p.persist(ctx, upload, text, matchRes, class, comp, patientName)
	if err != nil {
		p.Hooks.progress(7, total, constants.StageFailed, "kayıt başarısız")
		p.Logger.Error("persistence failed", "filename", upload.Filename, "error", err)
		return nil, fmt.Errorf("persist document: %w", err)
	}
	p.Hooks.progress(7, total, constants.StagePersisting, "belge kaydedildi")

	// 8) finalize
	if p.Hooks.Render != nil {
		p.Hooks.Render(doc)
	}
	p.Hooks.progress(8, total, constants.StageDone, "tamamlandı")
	p.Logger.Info("pipeline run complete",
		"document_id", doc.ID,
		"filename", doc.Filename,
		"doc_type", doc.DocType,
		"match_level", doc.MatchLevel,
		"quarantined", doc.Quarantined(),
		"perspective_corrected", appliedCorrection,
		"duration", time.Since(start),
	)
	return doc, nil
}

func (p *Processor) extractText(ctx context.Context, upload *entity.RawUpload, img image.Image, isPDF bool) extract.ExtractedText {
	if isPDF {
		text, err := p.PDFChain.Extract(ctx, upload.Data)
		if err != nil {
			p.Logger.Warn("pdf text extraction degraded", "filename", upload.Filename, "error", err)
		}
		return text
	}

	data := upload.Data
	if img != nil {
		// OCR reads the warped page, not the raw capture
		var buf bytes.Buffer
		if err := imgconv.Write(&buf, img, &imgconv.FormatOption{Format: imgconv.PNG}); err == nil {
			data = buf.Bytes()
		} else {
			p.Logger.Warn("png encode for ocr failed, using raw capture", "error", err)
		}
	}
	text, err := p.ImageChain.Extract(ctx, data)
	if err != nil {
		p.Logger.Warn("image text extraction degraded", "filename", upload.Filename, "error", err)
	}
	return text
}

func (p *Processor) compress(upload *entity.RawUpload, img image.Image, isPDF bool, patientName string, class entity.Classification) pdfconv.Result {
	if isPDF {
		payload := pdfconv.OptimizePDF(upload.Data)
		ratio := 1.0
		if upload.Size > 0 {
			ratio = float64(len(payload)) / float64(upload.Size)
		}
		return pdfconv.Result{
			Payload:          payload,
			OriginalSize:     upload.Size,
			CompressedSize:   len(payload),
			CompressionRatio: ratio,
		}
	}
	return p.Compressor.Compress(img, upload.Size, pdfconv.Metadata{
		PatientName: patientName,
		DocType:     string(class.Type),
		Note:        "otomatik yedek belge",
	})
}

func (p *Processor) persist(
	ctx context.Context,
	upload *entity.RawUpload,
	text extract.ExtractedText,
	matchRes entity.MatchResult,
	class entity.Classification,
	comp pdfconv.Result,
	patientName string,
) (*entity.Document, error) {
	var patientID *uuid.UUID
	if matchRes.Matched && matchRes.Patient != nil {
		// remote-sourced patients must exist locally before the FK write
		stored, err := p.Patients.Upsert(ctx, matchRes.Patient)
		if err != nil {
			return nil, err
		}
		patientID = &stored.ID
	}

	doc := &entity.Document{
		PatientID:            patientID,
		Filename:             pdfconv.BuildFilename(patientName, class.Type, matchRes.Level, matchRes.Matched, upload.UploadedAt),
		DocType:              class.Type,
		ClassConfidence:      class.Confidence,
		ClassMethod:          class.Method,
		MatchLevel:           matchRes.Level,
		MatchConfidence:      matchRes.Confidence,
		MatchMethod:          matchRes.Method,
		RequiresConfirmation: matchRes.RequiresConfirmation,
		Payload:              comp.Payload,
		OriginalSize:         comp.OriginalSize,
		CompressedSize:       comp.CompressedSize,
		EmergencyCompression: comp.EmergencyCompression,
		Fingerprint:          repository.Fingerprint(upload.Filename, text.Text, patientName),
		OCRTextPrefix:        repository.OCRPrefix(text.Text),
		UploadedAt:           upload.UploadedAt,
	}

	stored, updated, err := p.Documents.Upsert(ctx, doc)
	if err != nil {
		return nil, err
	}
	if updated {
		p.Logger.Info("duplicate capture updated in place", "document_id", stored.ID, "fingerprint", stored.Fingerprint)
	}
	return stored, nil
}

// displayName picks the name used in filenames and placeholder PDFs: the
// matched patient if there is one, otherwise the strongest extracted candidate.
func (p *Processor) displayName(matchRes entity.MatchResult, text extract.ExtractedText) string {
	if matchRes.Matched && matchRes.Patient != nil {
		return matchRes.Patient.FullName()
	}
	best := ""
	var bestConf float32 = -1
	for _, c := range text.Names {
		// letterheads surface the institution more prominently than the patient
		if match.IsInstitutional(c.Value) {
			continue
		}
		if c.Confidence > bestConf {
			best, bestConf = c.Value, c.Confidence
		}
	}
	return best
}
