package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/klinikops/sgk-docflow/constants"
	"github.com/klinikops/sgk-docflow/internal/classify"
	"github.com/klinikops/sgk-docflow/internal/common"
	"github.com/klinikops/sgk-docflow/internal/entity"
	"github.com/klinikops/sgk-docflow/internal/extract"
	"github.com/klinikops/sgk-docflow/internal/geometry"
	"github.com/klinikops/sgk-docflow/internal/match"
	"github.com/klinikops/sgk-docflow/internal/pdfconv"
)

type fakePatients struct {
	byID    map[uuid.UUID]*entity.Patient
	upserts int
}

func newFakePatients(patients ...*entity.Patient) *fakePatients {
	f := &fakePatients{byID: make(map[uuid.UUID]*entity.Patient)}
	for _, p := range patients {
		f.byID[p.ID] = p
	}
	return f
}

func (f *fakePatients) Snapshot(context.Context) ([]*entity.Patient, error) {
	var out []*entity.Patient
	for _, p := range f.byID {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePatients) GetByID(_ context.Context, id uuid.UUID) (*entity.Patient, error) {
	if p, ok := f.byID[id]; ok {
		return p, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakePatients) GetByNationalID(_ context.Context, nationalID string) (*entity.Patient, error) {
	for _, p := range f.byID {
		if p.NationalID == nationalID {
			return p, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakePatients) Upsert(_ context.Context, p *entity.Patient) (*entity.Patient, error) {
	f.upserts++
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.byID[p.ID] = p
	return p, nil
}

type fakeDocuments struct {
	byFingerprint map[string]*entity.Document
	failWith      error
}

func newFakeDocuments() *fakeDocuments {
	return &fakeDocuments{byFingerprint: make(map[string]*entity.Document)}
}

func (f *fakeDocuments) Upsert(_ context.Context, doc *entity.Document) (*entity.Document, bool, error) {
	if f.failWith != nil {
		return nil, false, f.failWith
	}
	updated := false
	if existing, ok := f.byFingerprint[doc.Fingerprint]; ok {
		doc.ID = existing.ID
		updated = true
	} else if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	f.byFingerprint[doc.Fingerprint] = doc
	return doc, updated, nil
}

func (f *fakeDocuments) GetByID(_ context.Context, id uuid.UUID) (*entity.Document, error) {
	for _, d := range f.byFingerprint {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeDocuments) ListAll(context.Context) ([]*entity.Document, error) {
	var out []*entity.Document
	for _, d := range f.byFingerprint {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeDocuments) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*entity.Document, error) {
	var out []*entity.Document
	for _, d := range f.byFingerprint {
		if d.PatientID != nil && *d.PatientID == patientID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDocuments) ListQuarantined(context.Context) ([]*entity.Document, error) {
	var out []*entity.Document
	for _, d := range f.byFingerprint {
		if d.Quarantined() {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDocuments) Reassign(context.Context, uuid.UUID, uuid.UUID) error { return nil }

// textProvider feeds canned OCR text into the extraction chain.
type textProvider struct{ text string }

func (textProvider) Name() string { return "canned" }

func (p textProvider) Extract(context.Context, []byte) (extract.Result, error) {
	return extract.Result{Text: p.text, Method: "canned", Confidence: 0.9}, nil
}

func newTestProcessor(patients *fakePatients, documents *fakeDocuments, provider extract.Provider) *Processor {
	imageProviders := []extract.Provider{extract.Noop{}}
	if provider != nil {
		imageProviders = []extract.Provider{provider, extract.Noop{}}
	}
	return NewProcessor(
		geometry.NewNormalizer(geometry.Config{}, nil),
		extract.NewChain(nil, imageProviders...),
		extract.NewChain(nil, extract.Noop{}),
		match.NewEngine(patients, nil, nil, match.Options{}, nil),
		classify.NewClassifier(nil, nil),
		pdfconv.NewCompressor(0, nil),
		patients,
		documents,
		nil,
	)
}

func pngUpload(t *testing.T, filename string) *entity.RawUpload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 5), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return &entity.RawUpload{
		Data:       buf.Bytes(),
		Filename:   filename,
		MediaType:  constants.IMAGE,
		Size:       buf.Len(),
		UploadedAt: time.Date(2024, 3, 12, 14, 30, 5, 0, time.UTC),
	}
}

type progressEvent struct {
	step  int
	stage constants.PipelineStage
}

func recordProgress(events *[]progressEvent) func(int, int, constants.PipelineStage, string) {
	return func(step, total int, stage constants.PipelineStage, message string) {
		*events = append(*events, progressEvent{step: step, stage: stage})
	}
}

func TestRunMatchedCapture(t *testing.T) {
	patient := &entity.Patient{
		ID:         uuid.New(),
		FirstName:  "Ahmet",
		LastName:   "Yılmaz",
		NationalID: "10000000146",
	}
	patients := newFakePatients(patient)
	documents := newFakeDocuments()
	proc := newTestProcessor(patients, documents, textProvider{
		text: "Hasta Adı: Ahmet Yılmaz\nT.C. Kimlik No: 10000000146",
	})

	var events []progressEvent
	proc.Hooks.Progress = recordProgress(&events)
	var rendered *entity.Document
	proc.Hooks.Render = func(doc *entity.Document) { rendered = doc }

	doc, err := proc.Run(context.Background(), pngUpload(t, "recete.png"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if doc.PatientID == nil || *doc.PatientID != patient.ID {
		t.Errorf("document not linked to the national-id match: %v", doc.PatientID)
	}
	if doc.Quarantined() {
		t.Error("matched document landed in quarantine")
	}
	if doc.MatchLevel != constants.MatchHigh {
		t.Errorf("match level = %s, want high", doc.MatchLevel)
	}
	if doc.DocType != constants.Prescription {
		t.Errorf("doc type = %s, want Prescription", doc.DocType)
	}
	if !strings.HasPrefix(doc.Filename, "Ahmet_Yilmaz_") || !strings.HasSuffix(doc.Filename, ".pdf") {
		t.Errorf("filename = %q", doc.Filename)
	}
	if strings.Contains(doc.Filename, "_VERIFY") || strings.Contains(doc.Filename, "_UNMATCHED") {
		t.Errorf("high match carries a review suffix: %q", doc.Filename)
	}
	if len(doc.Payload) == 0 || doc.EmergencyCompression {
		t.Errorf("expected a real compressed payload, emergency=%v size=%d", doc.EmergencyCompression, len(doc.Payload))
	}
	if doc.Fingerprint == "" || doc.OCRTextPrefix == "" {
		t.Error("fingerprint fields not populated")
	}
	if patients.upserts != 1 {
		t.Errorf("patient upserted %d times, want 1", patients.upserts)
	}
	if rendered == nil || rendered.ID != doc.ID {
		t.Error("render hook did not receive the persisted document")
	}

	if len(events) != len(constants.PipelineStages) {
		t.Fatalf("got %d progress events, want %d", len(events), len(constants.PipelineStages))
	}
	for i, ev := range events {
		if ev.step != i+1 {
			t.Errorf("event %d has step %d", i, ev.step)
		}
		if ev.stage != constants.PipelineStages[i] {
			t.Errorf("event %d stage = %s, want %s", i, ev.stage, constants.PipelineStages[i])
		}
	}
}

func TestRunUnreadableCaptureQuarantines(t *testing.T) {
	patients := newFakePatients()
	documents := newFakeDocuments()
	proc := newTestProcessor(patients, documents, nil)

	upload := &entity.RawUpload{
		Data:       []byte("definitely not an image"),
		Filename:   "bozuk.jpg",
		MediaType:  constants.IMAGE,
		Size:       23,
		UploadedAt: time.Now().UTC(),
	}

	doc, err := proc.Run(context.Background(), upload)
	if err != nil {
		t.Fatalf("Run should degrade, not fail: %v", err)
	}
	if !doc.Quarantined() {
		t.Error("unmatched document not quarantined")
	}
	if doc.MatchLevel != constants.MatchNone {
		t.Errorf("match level = %s, want none", doc.MatchLevel)
	}
	if !doc.EmergencyCompression {
		t.Error("expected the emergency placeholder for an undecodable capture")
	}
	if !bytes.HasPrefix(doc.Payload, []byte("%PDF-")) {
		t.Error("placeholder payload is not a PDF")
	}
	if !strings.Contains(doc.Filename, "Bilinmeyen") || !strings.Contains(doc.Filename, "_UNMATCHED") {
		t.Errorf("filename = %q, want unknown-patient quarantine naming", doc.Filename)
	}
	if patients.upserts != 0 {
		t.Errorf("patient upserted %d times for an unmatched capture", patients.upserts)
	}
}

func TestRunInstitutionalTextNotFiledAsPatient(t *testing.T) {
	patients := newFakePatients()
	documents := newFakeDocuments()
	// letterhead only: the institution is the most prominent "name" on the page
	proc := newTestProcessor(patients, documents, textProvider{
		text: "SOSYAL GÜVENLİK KURUMU\nBaşvuru belgesi",
	})

	doc, err := proc.Run(context.Background(), pngUpload(t, "belge.png"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !doc.Quarantined() {
		t.Error("letterhead-only capture should stay unmatched")
	}
	if !strings.HasPrefix(doc.Filename, "Bilinmeyen_") {
		t.Errorf("filename = %q, institution must not be filed as the patient", doc.Filename)
	}
}

func TestRunPDFPassthrough(t *testing.T) {
	patients := newFakePatients()
	documents := newFakeDocuments()
	proc := newTestProcessor(patients, documents, nil)

	data := []byte("%PDF-1.4 minimal but not really")
	upload := &entity.RawUpload{
		Data:       data,
		Filename:   "rapor.pdf",
		MediaType:  constants.PDF,
		Size:       len(data),
		UploadedAt: time.Now().UTC(),
	}

	doc, err := proc.Run(context.Background(), upload)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// unparseable PDFs pass through unchanged rather than erroring
	if !bytes.Equal(doc.Payload, data) {
		t.Error("pdf payload did not pass through")
	}
	if doc.EmergencyCompression {
		t.Error("pdf passthrough flagged as emergency")
	}
	if doc.DocType != constants.EligibilityCertificate {
		t.Errorf("doc type = %s, want EligibilityCertificate from filename", doc.DocType)
	}
}

func TestRunDuplicateCaptureUpdatesInPlace(t *testing.T) {
	patients := newFakePatients()
	documents := newFakeDocuments()
	proc := newTestProcessor(patients, documents, nil)

	upload := pngUpload(t, "recete.png")
	first, err := proc.Run(context.Background(), upload)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := proc.Run(context.Background(), upload)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("duplicate run minted id %s, want %s", second.ID, first.ID)
	}
	if all, _ := documents.ListAll(context.Background()); len(all) != 1 {
		t.Errorf("store holds %d documents after duplicate run, want 1", len(all))
	}
}

func TestRunPersistFailure(t *testing.T) {
	patients := newFakePatients()
	documents := newFakeDocuments()
	documents.failWith = fmt.Errorf("store: %w", common.ErrQuotaExceeded)
	proc := newTestProcessor(patients, documents, nil)

	var events []progressEvent
	proc.Hooks.Progress = recordProgress(&events)

	_, err := proc.Run(context.Background(), pngUpload(t, "recete.png"))
	if err == nil {
		t.Fatal("expected persistence failure to abort the run")
	}
	if !errors.Is(err, common.ErrQuotaExceeded) {
		t.Errorf("error chain lost the cause: %v", err)
	}
	if len(events) != 7 {
		t.Fatalf("got %d progress events, want 7 (run aborts at persistence)", len(events))
	}
	last := events[len(events)-1]
	if last.stage != constants.StageFailed {
		t.Errorf("final stage = %s, want failed", last.stage)
	}
}
