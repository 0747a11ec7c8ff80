package entity

import "time"

// RawUpload is the original captured byte buffer plus its declared metadata.
// It is created at pipeline entry and never mutated.
type RawUpload struct {
	Data        []byte    `json:"-"`
	Filename    string    `json:"filename"`
	MediaType   string    `json:"media_type"`
	Size        int       `json:"size"`
	ContentHash []byte    `json:"content_hash"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
