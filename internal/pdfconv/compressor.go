package pdfconv

import (
	"image"
	"log/slog"
)

// DefaultTargetBytes is the hard size budget for a stored document.
const DefaultTargetBytes = 300 << 10

// MaxRounds bounds the degradation loop.
const MaxRounds = 5

// Result is the compressed document. CompressedSize <= OriginalSize except
// when the emergency placeholder was substituted.
type Result struct {
	Payload              []byte
	OriginalSize         int
	CompressedSize       int
	CompressionRatio     float64
	QualityUsed          int
	Rounds               int
	EmergencyCompression bool
}

// Metadata feeds filename generation and the emergency placeholder.
type Metadata struct {
	PatientName string
	DocType     string
	Note        string
}

// Compressor converts a normalized image to PDF and iteratively degrades
// quality and dimensions until the target byte budget is met or rounds are
// exhausted.
type Compressor struct {
	TargetBytes  int
	StartQuality int
	MaxRounds    int
	logger       *slog.Logger
}

func NewCompressor(targetBytes int, logger *slog.Logger) *Compressor {
	if logger == nil {
		logger = slog.Default()
	}
	if targetBytes <= 0 {
		targetBytes = DefaultTargetBytes
	}
	return &Compressor{TargetBytes: targetBytes, StartQuality: 85, MaxRounds: MaxRounds, logger: logger}
}

// Compress never fails: any conversion or compression error substitutes a
// minimal placeholder PDF carrying only metadata text, so the pipeline is
// never blocked by image-heavy payloads.
func (c *Compressor) Compress(img image.Image, originalSize int, meta Metadata) Result {
	if img == nil {
		return c.emergency(originalSize, meta, "no image available")
	}

	quality := c.StartQuality
	width := img.Bounds().Dx()
	maxRounds := c.MaxRounds
	if maxRounds <= 0 {
		maxRounds = MaxRounds
	}

	var last []byte
	var lastQuality int
	rounds := 0
	for rounds < maxRounds {
		rounds++
		jpeg, err := encodeJPEG(img, quality, width)
		if err != nil {
			c.logger.Error("image encode failed, using emergency placeholder", "error", err)
			return c.emergency(originalSize, meta, err.Error())
		}
		pdf, err := renderPDF(jpeg)
		if err != nil {
			c.logger.Error("pdf render failed, using emergency placeholder", "error", err)
			return c.emergency(originalSize, meta, err.Error())
		}

		last = pdf
		lastQuality = quality
		if len(pdf) <= c.TargetBytes {
			break
		}

		c.logger.Debug("over size budget, degrading",
			"round", rounds, "size", len(pdf), "target", c.TargetBytes,
			"next_quality", int(float64(quality)*0.8), "next_width", int(float64(width)*0.9),
		)
		quality = int(float64(quality) * 0.8)
		width = int(float64(width) * 0.9)
		if quality < 5 || width < 64 {
			break
		}
	}

	ratio := 0.0
	if originalSize > 0 {
		ratio = float64(len(last)) / float64(originalSize)
	}
	return Result{
		Payload:          last,
		OriginalSize:     originalSize,
		CompressedSize:   len(last),
		CompressionRatio: ratio,
		QualityUsed:      lastQuality,
		Rounds:           rounds,
	}
}

func (c *Compressor) emergency(originalSize int, meta Metadata, reason string) Result {
	payload := placeholderPDF(meta, reason)
	return Result{
		Payload:              payload,
		OriginalSize:         originalSize,
		CompressedSize:       len(payload),
		CompressionRatio:     0,
		EmergencyCompression: true,
	}
}
