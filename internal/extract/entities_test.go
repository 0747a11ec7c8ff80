package extract

import "testing"

func TestParseEntitiesLabeledName(t *testing.T) {
	text := "T.C. SAĞLIK BAKANLIĞI\nAdı Soyadı: AHMET YILMAZ\nTarih: 12.03.2024"
	out := ParseEntities(text)

	if len(out.Names) == 0 {
		t.Fatal("expected at least one name candidate")
	}
	if out.Names[0].Value != "AHMET YILMAZ" {
		t.Errorf("first name candidate = %q", out.Names[0].Value)
	}
	if out.Names[0].Confidence != 0.9 {
		t.Errorf("labeled-name confidence = %f, want 0.9", out.Names[0].Confidence)
	}
	if len(out.Dates) != 1 || out.Dates[0].Value != "12.03.2024" {
		t.Errorf("dates = %+v", out.Dates)
	}
}

func TestParseEntitiesNationalID(t *testing.T) {
	out := ParseEntities("TC Kimlik No: 10000000146 ve 12345678901")

	if len(out.NationalIDs) != 2 {
		t.Fatalf("expected 2 ID candidates, got %d", len(out.NationalIDs))
	}
	// 10000000146 passes the checksum, 12345678901 does not
	if out.NationalIDs[0].Confidence != 0.95 {
		t.Errorf("valid ID confidence = %f, want 0.95", out.NationalIDs[0].Confidence)
	}
	if out.NationalIDs[1].Confidence != 0.6 {
		t.Errorf("shape-only ID confidence = %f, want 0.6", out.NationalIDs[1].Confidence)
	}
}

func TestParseEntitiesDedup(t *testing.T) {
	out := ParseEntities("Adı Soyadı: AHMET YILMAZ\nAdı Soyadı: AHMET YILMAZ")
	if len(out.Names) != 1 {
		t.Errorf("duplicate names not collapsed: %+v", out.Names)
	}
}

func TestParseEntitiesEmpty(t *testing.T) {
	out := ParseEntities("")
	if len(out.Names) != 0 || len(out.NationalIDs) != 0 || len(out.Dates) != 0 {
		t.Errorf("empty text produced candidates: %+v", out)
	}
}

func TestValidTCKN(t *testing.T) {
	valid := []string{"10000000146"}
	for _, id := range valid {
		if !ValidTCKN(id) {
			t.Errorf("ValidTCKN(%q) = false, want true", id)
		}
	}
	invalid := []string{
		"12345678901", // checksum fails
		"01000000146", // leading zero
		"1000000014",  // too short
		"100000001460",
		"1000000014a",
	}
	for _, id := range invalid {
		if ValidTCKN(id) {
			t.Errorf("ValidTCKN(%q) = true, want false", id)
		}
	}
}
