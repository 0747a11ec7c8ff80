package pdfconv

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// placeholderPDF assembles a single-page PDF by hand containing only metadata
// text. It exists so that a failing conversion still yields an openable file
// an operator can triage.
func placeholderPDF(meta Metadata, reason string) []byte {
	lines := []string{
		"SGK DOCUMENT PLACEHOLDER",
		"Patient: " + orDash(meta.PatientName),
		"Type: " + orDash(meta.DocType),
		"Captured: " + time.Now().UTC().Format(time.RFC3339),
		"Reason: " + orDash(reason),
	}

	var content strings.Builder
	content.WriteString("BT\n/F1 12 Tf\n50 780 Td\n14 TL\n")
	for _, ln := range lines {
		fmt.Fprintf(&content, "(%s) Tj\nT*\n", escapePDFString(ln))
	}
	content.WriteString("ET\n")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func escapePDFString(s string) string {
	r := strings.NewReplacer("\\", "\\\\", "(", "\\(", ")", "\\)")
	return r.Replace(s)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
