package pdfconv

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/sunshineplan/imgconv"
)

// encodeJPEG re-encodes img at the given quality, optionally resizing to
// maxWidth first.
func encodeJPEG(img image.Image, quality, maxWidth int) ([]byte, error) {
	work := img
	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		work = imgconv.Resize(img, &imgconv.ResizeOption{Width: maxWidth})
	}
	var buf bytes.Buffer
	err := imgconv.Write(&buf, work, &imgconv.FormatOption{
		Format:       imgconv.JPEG,
		EncodeOption: []imgconv.EncodeOption{imgconv.Quality(quality)},
	})
	if err != nil {
		return nil, fmt.Errorf("jpeg encode: %w", err)
	}
	return buf.Bytes(), nil
}

// renderPDF places the encoded image onto an A4 page, centered with margins,
// preserving aspect ratio.
func renderPDF(jpeg []byte) ([]byte, error) {
	imp, err := api.Import("form:A4, pos:c, sc:0.9 rel", types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("pdf import config: %w", err)
	}
	var out bytes.Buffer
	if err := api.ImportImages(nil, &out, []io.Reader{bytes.NewReader(jpeg)}, imp, nil); err != nil {
		return nil, fmt.Errorf("pdf render: %w", err)
	}
	return out.Bytes(), nil
}
