package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"offerhub/internal/model"
	"offerhub/internal/repository"
)

const cancelRetryAttempts = 2

type CreateOfferRequest struct {
	VenueID             string     `json:"venue_id"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	ValueText           string     `json:"value_text"`
	MaxClaims           int        `json:"max_claims"`
	RadiusMeters        int        `json:"radius_meters"`
	RestrictToFavorites bool       `json:"restrict_to_favorites"`
	StartTime           time.Time  `json:"start_time"`
	EndTime             time.Time  `json:"end_time"`
}

type OfferService struct {
	offerRepo repository.OfferRepository
	venueRepo repository.VenueRepository
	auditRepo repository.AuditRepository
	logger    *zap.Logger
	nowFn     func() time.Time
}

func NewOfferService(
	offerRepo repository.OfferRepository,
	venueRepo repository.VenueRepository,
	auditRepo repository.AuditRepository,
	logger *zap.Logger,
) *OfferService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OfferService{
		offerRepo: offerRepo,
		venueRepo: venueRepo,
		auditRepo: auditRepo,
		logger:    logger,
		nowFn:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *OfferService) Create(ctx context.Context, actorID string, req CreateOfferRequest) (*model.Offer, error) {
	venueID, err := uuid.Parse(strings.TrimSpace(req.VenueID))
	if err != nil {
		return nil, ErrInvalidInput
	}

	if strings.TrimSpace(req.Title) == "" || req.MaxClaims <= 0 {
		return nil, ErrInvalidInput
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, ErrInvalidInput
	}

	if _, err := s.venueRepo.FindByID(ctx, venueID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVenueNotFound
		}
		return nil, err
	}

	now := s.nowFn()
	status := model.OfferStatusScheduled
	if !req.StartTime.After(now) {
		status = model.OfferStatusActive
	}

	offer := &model.Offer{
		ID:                  uuid.New(),
		VenueID:             venueID,
		Title:               strings.TrimSpace(req.Title),
		Description:         strings.TrimSpace(req.Description),
		ValueText:           strings.TrimSpace(req.ValueText),
		MaxClaims:           req.MaxClaims,
		RadiusMeters:        req.RadiusMeters,
		RestrictToFavorites: req.RestrictToFavorites,
		StartTime:           req.StartTime.UTC(),
		EndTime:             req.EndTime.UTC(),
		ClaimedCount:        0,
		Status:              status,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.offerRepo.Create(ctx, offer); err != nil {
		return nil, err
	}

	s.writeAudit(ctx, actorID, "offer.create", offer.ID, map[string]interface{}{
		"venue_id":   offer.VenueID.String(),
		"title":      offer.Title,
		"max_claims": offer.MaxClaims,
		"status":     string(offer.Status),
	})

	return offer, nil
}

func (s *OfferService) Get(ctx context.Context, offerID string) (*model.Offer, error) {
	id, err := uuid.Parse(strings.TrimSpace(offerID))
	if err != nil {
		return nil, ErrInvalidInput
	}

	offer, err := s.offerRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOfferNotFound
		}
		return nil, err
	}

	// Status transitions driven by time are evaluated lazily; the stored
	// row may lag behind the sweep.
	offer.Status = offer.EffectiveStatus(s.nowFn())
	return offer, nil
}

// Cancel marks the offer cancelled. Already-issued active claims survive
// cancellation and stay redeemable until they expire on their own.
func (s *OfferService) Cancel(ctx context.Context, actorID, offerID string) (*model.Offer, error) {
	id, err := uuid.Parse(strings.TrimSpace(offerID))
	if err != nil {
		return nil, ErrInvalidInput
	}

	for attempt := 0; attempt < cancelRetryAttempts; attempt++ {
		offer, err := s.offerRepo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrOfferNotFound
			}
			return nil, err
		}

		now := s.nowFn()
		effective := offer.EffectiveStatus(now)
		if effective == model.OfferStatusExpired {
			return nil, ErrOfferExpired
		}
		if !effective.CanTransition(model.OfferStatusCancelled) {
			return nil, ErrOfferNotActive
		}

		err = s.offerRepo.UpdateStatus(ctx, id, offer.Status, model.OfferStatusCancelled, now)
		if errors.Is(err, repository.ErrNotFound) {
			// Stored status changed underneath us; re-read and re-check.
			continue
		}
		if err != nil {
			return nil, err
		}

		offer.Status = model.OfferStatusCancelled
		offer.UpdatedAt = now

		s.writeAudit(ctx, actorID, "offer.cancel", offer.ID, map[string]interface{}{
			"venue_id": offer.VenueID.String(),
			"title":    offer.Title,
		})

		return offer, nil
	}

	return nil, ErrOfferNotActive
}

func (s *OfferService) ListByVenue(ctx context.Context, venueID string, page, pageSize int) ([]*model.Offer, int64, error) {
	id, err := uuid.Parse(strings.TrimSpace(venueID))
	if err != nil {
		return nil, 0, ErrInvalidInput
	}

	page, pageSize = normalizePage(page, pageSize)
	filter := repository.OfferListFilter{
		VenueID: &id,
		Pagination: repository.Pagination{
			Limit:  int32(pageSize),
			Offset: int32((page - 1) * pageSize),
		},
	}

	offers, err := s.offerRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	now := s.nowFn()
	for _, offer := range offers {
		offer.Status = offer.EffectiveStatus(now)
	}

	total, err := s.offerRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return offers, total, nil
}

// SweepExpired advances time-driven offer transitions: due scheduled offers
// become active, lapsed offers become expired. Each statement is
// independently atomic; a partial sweep leaves rows for the next run.
func (s *OfferService) SweepExpired(ctx context.Context) (activated, expired int64, err error) {
	now := s.nowFn()

	activated, err = s.offerRepo.ActivateDue(ctx, now)
	if err != nil {
		return 0, 0, err
	}

	expired, err = s.offerRepo.ExpireLapsed(ctx, now)
	if err != nil {
		return activated, 0, err
	}

	return activated, expired, nil
}

func (s *OfferService) writeAudit(ctx context.Context, actorID string, action string, offerID uuid.UUID, detail map[string]interface{}) {
	if s.auditRepo == nil {
		return
	}

	var actor *uuid.UUID
	if parsed, err := uuid.Parse(strings.TrimSpace(actorID)); err == nil {
		actor = &parsed
	}

	resourceID := offerID.String()
	if err := s.auditRepo.Create(ctx, &model.AuditLog{
		ActorID:      actor,
		Action:       action,
		ResourceType: strPtr("offer"),
		ResourceID:   &resourceID,
		Detail:       detail,
		CreatedAt:    s.nowFn(),
	}); err != nil {
		s.logger.Warn("write audit log failed", zap.String("action", action), zap.Error(err))
	}
}

func strPtr(v string) *string {
	return &v
}

func normalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 200 {
		pageSize = 200
	}
	return page, pageSize
}
