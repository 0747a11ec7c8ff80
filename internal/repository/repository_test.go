package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/klinikops/sgk-docflow/constants"
	"github.com/klinikops/sgk-docflow/internal/common"
	"github.com/klinikops/sgk-docflow/internal/entity"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), ":memory:", nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testDocument(fingerprint string, patientID *uuid.UUID, uploadedAt time.Time) *entity.Document {
	return &entity.Document{
		PatientID:      patientID,
		Filename:       "Ahmet_Yilmaz_prescription_20240312_143005.pdf",
		DocType:        constants.Prescription,
		MatchLevel:     constants.MatchHigh,
		Payload:        []byte("%PDF-1.4 test"),
		OriginalSize:   1024,
		CompressedSize: 512,
		Fingerprint:    fingerprint,
		UploadedAt:     uploadedAt,
	}
}

func TestPatientUpsertAndLookup(t *testing.T) {
	db := openTestDB(t)
	repo := NewPatientRepository(db, nil)
	ctx := context.Background()

	p, err := repo.Upsert(ctx, &entity.Patient{
		FirstName:  "Ahmet",
		LastName:   "Yılmaz",
		NationalID: "10000000146",
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if p.ID == uuid.Nil {
		t.Fatal("upsert did not assign an id")
	}
	if p.CreatedAt.IsZero() || p.UpdatedAt.IsZero() {
		t.Error("timestamps not stamped")
	}

	byNID, err := repo.GetByNationalID(ctx, "10000000146")
	if err != nil {
		t.Fatalf("GetByNationalID: %v", err)
	}
	if byNID.ID != p.ID || byNID.FirstName != "Ahmet" {
		t.Errorf("lookup returned %+v", byNID)
	}

	// second upsert with the same id updates in place
	p.Phone = "05321234567"
	if _, err := repo.Upsert(ctx, p); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	all, err := repo.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("directory has %d patients, want 1", len(all))
	}
	if all[0].Phone != "05321234567" {
		t.Errorf("phone not updated, got %q", all[0].Phone)
	}
}

func TestPatientNotFound(t *testing.T) {
	db := openTestDB(t)
	repo := NewPatientRepository(db, nil)
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, uuid.New()); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("GetByID err = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetByNationalID(ctx, ""); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("empty national id err = %v, want ErrInvalidInput", err)
	}
}

func TestDocumentUpsertIdempotent(t *testing.T) {
	db := openTestDB(t)
	repo := NewDocumentRepository(db, 0, nil)
	ctx := context.Background()

	fp := Fingerprint("recete.jpg", "Recete Ahmet Yılmaz", "ahmet yılmaz")
	first, updated, err := repo.Upsert(ctx, testDocument(fp, nil, time.Now().UTC()))
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if updated {
		t.Error("first upsert reported an update")
	}

	// same fingerprint, fresh id: must update in place under the stored id
	second, updated, err := repo.Upsert(ctx, testDocument(fp, nil, time.Now().UTC()))
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if !updated {
		t.Error("duplicate fingerprint not reported as update")
	}
	if second.ID != first.ID {
		t.Errorf("duplicate got new id %s, want %s", second.ID, first.ID)
	}

	all, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("store holds %d documents, want 1", len(all))
	}
}

func TestDocumentUpsertValidation(t *testing.T) {
	db := openTestDB(t)
	repo := NewDocumentRepository(db, 0, nil)
	ctx := context.Background()

	doc := testDocument("fp", nil, time.Now().UTC())
	doc.Filename = ""
	if _, _, err := repo.Upsert(ctx, doc); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("missing filename err = %v, want ErrInvalidInput", err)
	}

	doc = testDocument("", nil, time.Now().UTC())
	if _, _, err := repo.Upsert(ctx, doc); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("missing fingerprint err = %v, want ErrInvalidInput", err)
	}
}

func TestQuarantineEviction(t *testing.T) {
	db := openTestDB(t)
	repo := NewDocumentRepository(db, 2, nil)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		doc := testDocument(fmt.Sprintf("fp-%d", i), nil, base.Add(time.Duration(i)*time.Hour))
		if _, _, err := repo.Upsert(ctx, doc); err != nil {
			t.Fatalf("upsert %d: %v", i, err)
		}
	}

	quarantined, err := repo.ListQuarantined(ctx)
	if err != nil {
		t.Fatalf("ListQuarantined: %v", err)
	}
	if len(quarantined) != 2 {
		t.Fatalf("quarantine holds %d documents, want capacity 2", len(quarantined))
	}
	// newest survive, list is newest first
	if quarantined[0].Fingerprint != "fp-3" || quarantined[1].Fingerprint != "fp-2" {
		t.Errorf("survivors = %s, %s; want fp-3, fp-2",
			quarantined[0].Fingerprint, quarantined[1].Fingerprint)
	}
}

func TestReassign(t *testing.T) {
	db := openTestDB(t)
	patients := NewPatientRepository(db, nil)
	docs := NewDocumentRepository(db, 0, nil)
	ctx := context.Background()

	p, err := patients.Upsert(ctx, &entity.Patient{FirstName: "Fatma", LastName: "Demir"})
	if err != nil {
		t.Fatalf("upsert patient: %v", err)
	}
	doc, _, err := docs.Upsert(ctx, testDocument("fp-reassign", nil, time.Now().UTC()))
	if err != nil {
		t.Fatalf("upsert document: %v", err)
	}

	if err := docs.Reassign(ctx, doc.ID, p.ID); err != nil {
		t.Fatalf("Reassign: %v", err)
	}

	quarantined, err := docs.ListQuarantined(ctx)
	if err != nil {
		t.Fatalf("ListQuarantined: %v", err)
	}
	if len(quarantined) != 0 {
		t.Errorf("quarantine still holds %d documents", len(quarantined))
	}
	mine, err := docs.ListByPatient(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListByPatient: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != doc.ID {
		t.Errorf("patient index = %v, want the reassigned document", mine)
	}

	if err := docs.Reassign(ctx, uuid.New(), p.ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("reassign of unknown document err = %v, want ErrNotFound", err)
	}
}

func TestWorkflowAdvance(t *testing.T) {
	db := openTestDB(t)
	docs := NewDocumentRepository(db, 0, nil)
	wf := NewWorkflowRepository(db, nil)
	ctx := context.Background()

	doc, _, err := docs.Upsert(ctx, testDocument("fp-wf", nil, time.Now().UTC()))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	entry, err := wf.Advance(ctx, doc.ID, constants.WorkflowPrescriptionSaved, "reçete girildi")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if entry.FromStatus != constants.WorkflowInquiryStarted || entry.ToStatus != constants.WorkflowPrescriptionSaved {
		t.Errorf("audit entry %+v", entry)
	}

	// forward jumps are allowed
	if _, err := wf.Advance(ctx, doc.ID, constants.WorkflowInvoiced, ""); err != nil {
		t.Fatalf("forward jump: %v", err)
	}
	// regressions are not
	if _, err := wf.Advance(ctx, doc.ID, constants.WorkflowPrescriptionSaved, ""); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("regression err = %v, want ErrInvalidInput", err)
	}
	if _, err := wf.Advance(ctx, doc.ID, constants.WorkflowStatus("archived"), ""); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("unknown status err = %v, want ErrInvalidInput", err)
	}
	if _, err := wf.Advance(ctx, uuid.New(), constants.WorkflowInvoiced, ""); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("unknown document err = %v, want ErrNotFound", err)
	}

	history, err := wf.History(ctx, doc.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history has %d entries, want 2", len(history))
	}
	if history[0].ToStatus != constants.WorkflowPrescriptionSaved || history[1].ToStatus != constants.WorkflowInvoiced {
		t.Errorf("history order: %s then %s", history[0].ToStatus, history[1].ToStatus)
	}

	stored, err := docs.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.WorkflowStatus != constants.WorkflowInvoiced {
		t.Errorf("stored status = %s, want invoiced", stored.WorkflowStatus)
	}
}

func TestFingerprintStability(t *testing.T) {
	a := Fingerprint("recete.jpg", "Hasta  Adı\nAhmet", "Ahmet Yılmaz")
	b := Fingerprint("recete.jpg", "Hasta Adı Ahmet", "  ahmet yılmaz ")
	if a != b {
		t.Error("fingerprint changed under whitespace and case noise")
	}
	if a == Fingerprint("rapor.jpg", "Hasta Adı Ahmet", "Ahmet Yılmaz") {
		t.Error("different filename produced the same fingerprint")
	}
}

func TestOCRPrefixTruncation(t *testing.T) {
	long := strings.Repeat("ağrı ", 100)
	prefix := OCRPrefix(long)
	if n := len([]rune(prefix)); n != fingerprintTextRunes {
		t.Errorf("prefix is %d runes, want %d", n, fingerprintTextRunes)
	}
	if OCRPrefix("  tek   satır  ") != "tek satır" {
		t.Errorf("whitespace not collapsed: %q", OCRPrefix("  tek   satır  "))
	}
}
