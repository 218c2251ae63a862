package model

import (
	"time"

	"github.com/google/uuid"
)

// CheckIn records a user's presence at a venue. A check-in lapses at
// ExpiresAt; only unlapsed rows satisfy the allocation precondition.
type CheckIn struct {
	ID          uuid.UUID `db:"id" json:"id"`
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	VenueID     uuid.UUID `db:"venue_id" json:"venue_id"`
	CheckedInAt time.Time `db:"checked_in_at" json:"checked_in_at"`
	ExpiresAt   time.Time `db:"expires_at" json:"expires_at"`
}
