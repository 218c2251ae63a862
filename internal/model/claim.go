package model

import (
	"time"

	"github.com/google/uuid"
)

type ClaimStatus string

const (
	ClaimStatusActive   ClaimStatus = "active"
	ClaimStatusRedeemed ClaimStatus = "redeemed"
	ClaimStatusExpired  ClaimStatus = "expired"
)

func (s ClaimStatus) Valid() bool {
	switch s {
	case ClaimStatusActive, ClaimStatusRedeemed, ClaimStatusExpired:
		return true
	}
	return false
}

// Claim is a user's reservation against an offer's limited quantity.
// VenueID is denormalized from the parent offer so staff token lookup is a
// single (venue_id, token) probe.
type Claim struct {
	ID         uuid.UUID   `db:"id" json:"id"`
	OfferID    uuid.UUID   `db:"offer_id" json:"offer_id"`
	VenueID    uuid.UUID   `db:"venue_id" json:"venue_id"`
	UserID     uuid.UUID   `db:"user_id" json:"user_id"`
	Token      string      `db:"token" json:"token"`
	Status     ClaimStatus `db:"status" json:"status"`
	ExpiresAt  time.Time   `db:"expires_at" json:"expires_at"`
	RedeemedAt *time.Time  `db:"redeemed_at" json:"redeemed_at,omitempty"`
	RedeemedBy *uuid.UUID  `db:"redeemed_by" json:"redeemed_by,omitempty"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
}

func (c *Claim) Redeemable(now time.Time) bool {
	return c.Status == ClaimStatusActive && !now.After(c.ExpiresAt)
}
