package types

import "time"

// Image is an uploaded picture together with the text produced for it.
type Image struct {
	// ID is the unique identifier of the image.
	ID int `json:"id" db:"id"`

	// UserID identifies the owner. Every mutation is checked against it.
	UserID int `json:"user_id" db:"user_id"`

	// Blob holds the raw uploaded bytes. It is served separately and
	// omitted from JSON listings.
	Blob []byte `json:"-" db:"blob"`

	// Text holds extracted OCR text or a serialized description, analysis
	// or social content record. It may be absent.
	Text *string `json:"text" db:"text"`

	// UploadedAt is the timestamp at which the image was stored.
	UploadedAt time.Time `json:"uploaded_at" db:"uploaded_at"`
}
