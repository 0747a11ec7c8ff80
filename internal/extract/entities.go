package extract

import (
	"regexp"
	"strings"

	"github.com/klinikops/sgk-docflow/internal/textnorm"
)

var (
	// "Adı Soyadı: AHMET YILMAZ", "Hasta Adı: ...", "Ad-Soyad: ..."
	reNameLabel = regexp.MustCompile(`(?i)(?:hasta\s+)?ad[ıi](?:[\s\-/]*soyad[ıi])?\s*[:;][ \t]*([\p{Lu}][\p{L}]+(?:[ \t]+[\p{Lu}][\p{L}]+){1,2})`)
	// standalone pair/triple of capitalized words as a weaker fallback;
	// separators stay within one line so names never span label rows
	reNamePair = regexp.MustCompile(`\b([\p{Lu}][\p{Lu}\p{Ll}]{2,})[ \t]+([\p{Lu}][\p{Lu}\p{Ll}]{2,})\b`)
	// 11-digit Turkish national ID, never starting with 0
	reNationalID = regexp.MustCompile(`\b[1-9]\d{10}\b`)
	reDate       = regexp.MustCompile(`\b(\d{1,2})[./](\d{1,2})[./](\d{4})\b`)
)

// ParseEntities scans OCR output for identity signals: person-name
// candidates, national-ID candidates, and date candidates. Labeled names
// outrank bare capitalized pairs; IDs passing the checksum outrank ones that
// merely fit the shape.
func ParseEntities(text string) ExtractedText {
	out := ExtractedText{Text: text}
	if text == "" {
		return out
	}

	seenNames := map[string]struct{}{}
	addName := func(v string, conf float32) {
		v = strings.Join(strings.Fields(v), " ")
		if v == "" {
			return
		}
		key := strings.ToLower(v)
		if _, dup := seenNames[key]; dup {
			return
		}
		seenNames[key] = struct{}{}
		out.Names = append(out.Names, Candidate{Value: v, Confidence: conf})
	}

	for _, m := range reNameLabel.FindAllStringSubmatch(text, -1) {
		addName(m[1], 0.9)
	}
	for _, m := range reNamePair.FindAllStringSubmatch(text, -1) {
		if labelWord(m[1]) || labelWord(m[2]) {
			continue
		}
		addName(m[1]+" "+m[2], 0.5)
	}

	seenIDs := map[string]struct{}{}
	for _, id := range reNationalID.FindAllString(text, -1) {
		if _, dup := seenIDs[id]; dup {
			continue
		}
		seenIDs[id] = struct{}{}
		conf := float32(0.6)
		if ValidTCKN(id) {
			conf = 0.95
		}
		out.NationalIDs = append(out.NationalIDs, Candidate{Value: id, Confidence: conf})
	}

	for _, m := range reDate.FindAllString(text, -1) {
		out.Dates = append(out.Dates, Candidate{Value: m, Confidence: 0.8})
	}

	return out
}

// form-label vocabulary that the weak capitalized-pair tier must not mistake
// for a person
var labelWords = map[string]struct{}{
	"adi": {}, "soyadi": {}, "soyad": {}, "hasta": {}, "tarih": {},
	"kimlik": {}, "numara": {}, "protokol": {}, "dosya": {}, "belge": {},
}

func labelWord(w string) bool {
	_, ok := labelWords[textnorm.Fold(w)]
	return ok
}

// ValidTCKN verifies the Turkish national ID checksum: the 10th digit is
// ((d1+d3+d5+d7+d9)*7 - (d2+d4+d6+d8)) mod 10 and the 11th is the sum of the
// first ten digits mod 10.
func ValidTCKN(id string) bool {
	if len(id) != 11 || id[0] == '0' {
		return false
	}
	var d [11]int
	for i := 0; i < 11; i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
		d[i] = int(id[i] - '0')
	}
	odd := d[0] + d[2] + d[4] + d[6] + d[8]
	even := d[1] + d[3] + d[5] + d[7]
	c10 := (odd*7 - even) % 10
	if c10 < 0 {
		c10 += 10
	}
	if c10 != d[9] {
		return false
	}
	sum := 0
	for i := 0; i < 10; i++ {
		sum += d[i]
	}
	return sum%10 == d[10]
}
