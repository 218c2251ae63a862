package model

import (
	"time"

	"github.com/google/uuid"
)

type OfferStatus string

const (
	OfferStatusScheduled OfferStatus = "scheduled"
	OfferStatusActive    OfferStatus = "active"
	OfferStatusFull      OfferStatus = "full"
	OfferStatusExpired   OfferStatus = "expired"
	OfferStatusCancelled OfferStatus = "cancelled"
)

// offerTransitions is the single source of truth for legal offer status
// transitions. Expired and cancelled are terminal; full never reverts to
// active even if claims later expire.
var offerTransitions = map[OfferStatus][]OfferStatus{
	OfferStatusScheduled: {OfferStatusActive, OfferStatusExpired, OfferStatusCancelled},
	OfferStatusActive:    {OfferStatusFull, OfferStatusExpired, OfferStatusCancelled},
	OfferStatusFull:      {OfferStatusExpired, OfferStatusCancelled},
	OfferStatusExpired:   {},
	OfferStatusCancelled: {},
}

func (s OfferStatus) Valid() bool {
	_, ok := offerTransitions[s]
	return ok
}

func (s OfferStatus) Terminal() bool {
	return s == OfferStatusExpired || s == OfferStatusCancelled
}

// CanTransition reports whether moving from s to target is a legal offer
// status transition.
func (s OfferStatus) CanTransition(target OfferStatus) bool {
	for _, allowed := range offerTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

type Offer struct {
	ID                  uuid.UUID   `db:"id" json:"id"`
	VenueID             uuid.UUID   `db:"venue_id" json:"venue_id"`
	Title               string      `db:"title" json:"title"`
	Description         string      `db:"description" json:"description"`
	ValueText           string      `db:"value_text" json:"value_text"`
	MaxClaims           int         `db:"max_claims" json:"max_claims"`
	RadiusMeters        int         `db:"radius_meters" json:"radius_meters"`
	RestrictToFavorites bool        `db:"restrict_to_favorites" json:"restrict_to_favorites"`
	StartTime           time.Time   `db:"start_time" json:"start_time"`
	EndTime             time.Time   `db:"end_time" json:"end_time"`
	ClaimedCount        int         `db:"claimed_count" json:"claimed_count"`
	Status              OfferStatus `db:"status" json:"status"`
	CreatedAt           time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time   `db:"updated_at" json:"updated_at"`
}

// EffectiveStatus evaluates time-driven transitions lazily against the
// stored status. Stored terminal states always win; otherwise the offer
// window decides, with expired taking precedence over full.
func (o *Offer) EffectiveStatus(now time.Time) OfferStatus {
	if o.Status.Terminal() {
		return o.Status
	}
	if now.After(o.EndTime) {
		return OfferStatusExpired
	}
	if o.Status == OfferStatusFull {
		return OfferStatusFull
	}
	if now.Before(o.StartTime) {
		return OfferStatusScheduled
	}
	return OfferStatusActive
}

func (o *Offer) RemainingClaims() int {
	remaining := o.MaxClaims - o.ClaimedCount
	if remaining < 0 {
		return 0
	}
	return remaining
}
