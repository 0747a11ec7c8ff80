package geometry

import (
	"bytes"
	"image"
	"log/slog"
	"math"

	"github.com/sunshineplan/imgconv"
)

// Config tunes document boundary detection.
type Config struct {
	EdgeThreshold int     // Sobel magnitude threshold, default 60
	MinQuadScore  float64 // minimum contour score to accept a quad, default 0.45
	MaxDimension  int     // downscale bound before detection, default 1600
	CropMargin    float64 // smart-crop margin fraction when no quad, default 0.02
}

// Normalizer detects document boundaries in a raster image and produces a
// perspective-corrected canonical image. Failures degrade to the unmodified
// image rather than failing the run.
type Normalizer struct {
	cfg    Config
	logger *slog.Logger
}

func NewNormalizer(cfg Config, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.EdgeThreshold <= 0 {
		cfg.EdgeThreshold = 60
	}
	if cfg.MinQuadScore <= 0 {
		cfg.MinQuadScore = 0.45
	}
	if cfg.MaxDimension <= 0 {
		cfg.MaxDimension = 1600
	}
	if cfg.CropMargin <= 0 {
		cfg.CropMargin = 0.02
	}
	return &Normalizer{cfg: cfg, logger: logger}
}

// Normalize decodes data and attempts boundary detection plus perspective
// correction. On any failure it returns the decoded (or nil) image with
// AppliedCorrection=false; the error is only non-nil when decoding itself
// failed.
func (n *Normalizer) Normalize(data []byte) (NormalizedImage, error) {
	img, err := imgconv.Decode(bytes.NewReader(data))
	if err != nil {
		n.logger.Warn("normalizer decode failed, passing raw image through", "error", err)
		return NormalizedImage{AppliedCorrection: false}, err
	}

	work := img
	scale := 1.0
	bounds := img.Bounds()
	if m := max(bounds.Dx(), bounds.Dy()); m > n.cfg.MaxDimension {
		scale = float64(n.cfg.MaxDimension) / float64(m)
		work = imgconv.Resize(img, &imgconv.ResizeOption{Width: int(float64(bounds.Dx()) * scale)})
	}

	gray := toGrayscale(work)
	blurred := boxBlur(gray)
	edges := sobelEdges(blurred, n.cfg.EdgeThreshold)

	quad, score, ok := detectDocumentQuad(edges, n.cfg.MinQuadScore)
	if !ok {
		n.logger.Debug("no confident document contour, applying smart crop", "best_score", score)
		return NormalizedImage{
			Image:             smartCrop(img, n.cfg.CropMargin),
			AppliedCorrection: false,
		}, nil
	}

	// project the quad back onto the full-resolution image
	if scale != 1.0 {
		for i := range quad {
			quad[i].X /= scale
			quad[i].Y /= scale
		}
	}

	outW := int(math.Round((Dist(quad[0], quad[1]) + Dist(quad[3], quad[2])) / 2))
	outH := int(math.Round((Dist(quad[0], quad[3]) + Dist(quad[1], quad[2])) / 2))
	if outW < 8 || outH < 8 {
		return NormalizedImage{Image: img, AppliedCorrection: false}, nil
	}

	warped, ok := warpPerspective(img, quad, outW, outH)
	if !ok {
		n.logger.Warn("perspective solve failed, returning uncorrected image")
		return NormalizedImage{Image: img, SourceContour: &quad, AppliedCorrection: false}, nil
	}

	n.logger.Debug("document normalized",
		"score", score,
		"rotation_deg", quad.RotationAngle(),
		"out_w", outW, "out_h", outH,
	)
	return NormalizedImage{
		Image:             warped,
		SourceContour:     &quad,
		RotationAngle:     quad.RotationAngle(),
		AppliedCorrection: true,
	}, nil
}

// smartCrop trims a small uniform margin, the fallback when boundary
// detection finds nothing confident.
func smartCrop(img image.Image, margin float64) image.Image {
	bounds := img.Bounds()
	mx := int(float64(bounds.Dx()) * margin)
	my := int(float64(bounds.Dy()) * margin)
	rect := image.Rect(bounds.Min.X+mx, bounds.Min.Y+my, bounds.Max.X-mx, bounds.Max.Y-my)
	if rect.Dx() < 8 || rect.Dy() < 8 {
		return img
	}
	type subImager interface {
		SubImage(image.Rectangle) image.Image
	}
	if si, ok := img.(subImager); ok {
		return si.SubImage(rect)
	}
	cropped := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	for y := 0; y < rect.Dy(); y++ {
		for x := 0; x < rect.Dx(); x++ {
			cropped.Set(x, y, img.At(rect.Min.X+x, rect.Min.Y+y))
		}
	}
	return cropped
}
