package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"offerhub/internal/model"
)

var ErrNotFound = errors.New("not found")

type Pagination struct {
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

type OfferListFilter struct {
	VenueID    *uuid.UUID         `json:"venue_id,omitempty"`
	Status     *model.OfferStatus `json:"status,omitempty"`
	Pagination Pagination         `json:"pagination"`
}

type ClaimListFilter struct {
	OfferID    *uuid.UUID         `json:"offer_id,omitempty"`
	UserID     *uuid.UUID         `json:"user_id,omitempty"`
	Status     *model.ClaimStatus `json:"status,omitempty"`
	Pagination Pagination         `json:"pagination"`
}

type OfferRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Offer, error)
	// FindByIDForUpdate locks the offer row for the duration of tx. This is
	// the critical section of claim allocation.
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Offer, error)
	Create(ctx context.Context, offer *model.Offer) error
	// ReserveSlot increments claimed_count by one and flips the offer to
	// full when it reaches max_claims. The update is conditional on
	// claimed_count < max_claims; ErrNotFound means no slot remained.
	ReserveSlot(ctx context.Context, tx pgx.Tx, id uuid.UUID, now time.Time) error
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OfferStatus, now time.Time) error
	ExpireLapsed(ctx context.Context, now time.Time) (int64, error)
	ActivateDue(ctx context.Context, now time.Time) (int64, error)
	List(ctx context.Context, filter OfferListFilter) ([]*model.Offer, error)
	Count(ctx context.Context, filter OfferListFilter) (int64, error)
}

type ClaimRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Claim, error)
	// FindByVenueToken returns the newest claim holding token at the venue,
	// whatever its status, so callers can report expired claims as expired
	// rather than unknown.
	FindByVenueToken(ctx context.Context, venueID uuid.UUID, token string) (*model.Claim, error)
	// FindByVenueTokenForUpdate locks the claim row for the duration of tx.
	FindByVenueTokenForUpdate(ctx context.Context, tx pgx.Tx, venueID uuid.UUID, token string) (*model.Claim, error)
	Create(ctx context.Context, tx pgx.Tx, claim *model.Claim) error
	ExistsForOfferUser(ctx context.Context, tx pgx.Tx, offerID, userID uuid.UUID) (bool, error)
	// TokenInUse reports whether a non-expired claim at the venue already
	// holds token. Must run inside the allocation transaction.
	TokenInUse(ctx context.Context, tx pgx.Tx, venueID uuid.UUID, token string) (bool, error)
	// MarkRedeemed is conditional on status still being active; ErrNotFound
	// means the claim was redeemed or expired concurrently.
	MarkRedeemed(ctx context.Context, tx pgx.Tx, id uuid.UUID, staffID uuid.UUID, now time.Time) error
	ExpireLapsed(ctx context.Context, now time.Time) (int64, error)
	List(ctx context.Context, filter ClaimListFilter) ([]*model.Claim, error)
	Count(ctx context.Context, filter ClaimListFilter) (int64, error)
}

type VenueRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Venue, error)
	Create(ctx context.Context, venue *model.Venue) error
}

type CheckInRepository interface {
	Create(ctx context.Context, checkIn *model.CheckIn) error
	// IsCheckedIn reports whether the user holds an unlapsed check-in at the
	// venue as of now.
	IsCheckedIn(ctx context.Context, userID, venueID uuid.UUID, now time.Time) (bool, error)
	DeleteForUserVenue(ctx context.Context, userID, venueID uuid.UUID) error
}

type AuditRepository interface {
	Create(ctx context.Context, log *model.AuditLog) error
}
