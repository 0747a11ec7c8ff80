package pdfconv

import (
	"bytes"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// OptimizePDF rewrites an already-PDF upload through pdfcpu's optimizer,
// dropping redundant objects. Returns the input unchanged when optimization
// fails or does not shrink the file.
func OptimizePDF(pdf []byte) []byte {
	var out bytes.Buffer
	if err := api.Optimize(bytes.NewReader(pdf), &out, nil); err != nil {
		return pdf
	}
	if out.Len() == 0 || out.Len() >= len(pdf) {
		return pdf
	}
	return out.Bytes()
}
