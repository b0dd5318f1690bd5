package types

import "time"

// Activity event types published after image mutations.
const (
	ActivitySaved       = "image.saved"
	ActivityDeleted     = "image.deleted"
	ActivityBulkDeleted = "images.deleted"
)

// ActivityEvent describes a change to a user's gallery.
type ActivityEvent struct {
	Type     string    `json:"type"`
	UserID   int       `json:"user_id"`
	ImageIDs []int     `json:"image_ids,omitempty"`
	Count    int       `json:"count"`
	At       time.Time `json:"at"`
}
