package extract

import (
	"context"
	"math"
	"strings"
	"testing"
)

type stubRunner struct {
	stdout string
	args   []string
}

func (r *stubRunner) Run(_ context.Context, _ string, args ...string) ([]byte, []byte, error) {
	r.args = args
	return []byte(r.stdout), nil, nil
}

func tsvLine(conf, text string) string {
	return strings.Join([]string{"5", "1", "1", "1", "1", "1", "10", "10", "40", "12", conf, text}, "\t")
}

func TestTSVConfidenceReadsConfColumn(t *testing.T) {
	header := strings.Join([]string{"level", "page_num", "block_num", "par_num", "line_num",
		"word_num", "left", "top", "width", "height", "conf", "text"}, "\t")
	// numeric word text must not leak into the confidence average
	tsv := strings.Join([]string{
		header,
		tsvLine("90", "Recete"),
		tsvLine("70", "10000000146"),
		tsvLine("-1", ""),
		"",
	}, "\n")

	tess := NewTesseract(TesseractConfig{EnableTSV: true}, nil)
	tess.runner = &stubRunner{stdout: tsv}

	conf, warns, err := tess.tsvConfidence(context.Background(), "page.png")
	if err != nil {
		t.Fatalf("tsvConfidence: %v", err)
	}
	if len(warns) != 0 {
		t.Errorf("unexpected warnings: %v", warns)
	}
	if math.Abs(float64(conf)-0.8) > 1e-6 {
		t.Errorf("confidence = %f, want 0.8 (mean of 90 and 70)", conf)
	}
}

func TestTSVConfidenceEmptyPage(t *testing.T) {
	header := "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext"
	tess := NewTesseract(TesseractConfig{EnableTSV: true}, nil)
	tess.runner = &stubRunner{stdout: header + "\n"}

	conf, _, err := tess.tsvConfidence(context.Background(), "page.png")
	if err != nil {
		t.Fatalf("tsvConfidence: %v", err)
	}
	if conf != 0 {
		t.Errorf("confidence = %f, want 0 for a page with no words", conf)
	}
}

func TestOCRPassesDPIHint(t *testing.T) {
	runner := &stubRunner{stdout: "Recete"}
	tess := NewTesseract(TesseractConfig{DPI: 300}, nil)
	tess.runner = runner

	if _, _, err := tess.ocr(context.Background(), "page.png"); err != nil {
		t.Fatalf("ocr: %v", err)
	}
	joined := strings.Join(runner.args, " ")
	if !strings.Contains(joined, "--dpi 300") {
		t.Errorf("dpi hint missing from args: %q", joined)
	}
}
