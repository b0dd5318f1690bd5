package types

import "time"

// Summary holds aggregate counters for a user's images.
type Summary struct {
	TotalImages  int        `json:"total_images"`
	LastActivity *time.Time `json:"last_activity"`
	// Activity30Days is sparse: days without uploads are absent.
	Activity30Days []DayCount `json:"activity_30_days"`
}

// DayCount is the number of uploads on a single UTC day.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Export is a one-shot snapshot of everything stored for a user.
type Export struct {
	Profile    ExportProfile    `json:"profile"`
	Images     []ExportImage    `json:"images"`
	Statistics ExportStatistics `json:"statistics"`
}

type ExportProfile struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registered_at"`
	ExportedAt   time.Time `json:"exported_at"`
}

type ExportImage struct {
	ID          int       `json:"id"`
	Text        *string   `json:"text"`
	ProcessedAt time.Time `json:"processed_at"`
	TextLength  int       `json:"text_length"`
}

type ExportStatistics struct {
	TotalImages        int        `json:"total_images"`
	FirstImage         *time.Time `json:"first_image"`
	LastImage          *time.Time `json:"last_image"`
	TotalTextProcessed int        `json:"total_text_processed"`
}

// LanguageCount is one row of the language breakdown.
type LanguageCount struct {
	Language string `json:"language"`
	Count    int    `json:"count"`
}
