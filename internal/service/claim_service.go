package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"offerhub/internal/metrics"
	"offerhub/internal/model"
	"offerhub/internal/repository"
)

// ClaimTTL is the fixed redemption window of an issued claim, independent
// of the parent offer's end_time.
const ClaimTTL = 24 * time.Hour

// errTokenCollision signals that a concurrently committed claim took the
// minted token after our in-transaction check. The failed insert poisons
// the transaction, so the whole allocation is retried from scratch.
var errTokenCollision = errors.New("token collision on insert")

type EligibilityReason string

const (
	ReasonEligible       EligibilityReason = "eligible"
	ReasonOfferScheduled EligibilityReason = "offer_scheduled"
	ReasonOfferExpired   EligibilityReason = "offer_expired"
	ReasonOfferCancelled EligibilityReason = "offer_cancelled"
	ReasonOfferFull      EligibilityReason = "offer_full"
	ReasonAlreadyClaimed EligibilityReason = "already_claimed"
	ReasonNotCheckedIn   EligibilityReason = "not_checked_in"
)

// EligibilitySnapshot is advisory only: it exists so the UI can render
// claim buttons and friendly messages without paying for the atomic path.
// The allocator revalidates everything under the offer row lock.
type EligibilitySnapshot struct {
	OfferID         uuid.UUID         `json:"offer_id"`
	Eligible        bool              `json:"eligible"`
	Reason          EligibilityReason `json:"reason"`
	OfferStatus     model.OfferStatus `json:"offer_status"`
	RemainingClaims int               `json:"remaining_claims"`
	CheckedIn       bool              `json:"checked_in"`
}

type ClaimService struct {
	pool        *pgxpool.Pool
	offerRepo   repository.OfferRepository
	claimRepo   repository.ClaimRepository
	checkInRepo repository.CheckInRepository
	auditRepo   repository.AuditRepository
	tokens      *TokenGenerator
	logger      *zap.Logger
	nowFn       func() time.Time
}

func NewClaimService(
	pool *pgxpool.Pool,
	offerRepo repository.OfferRepository,
	claimRepo repository.ClaimRepository,
	checkInRepo repository.CheckInRepository,
	auditRepo repository.AuditRepository,
	logger *zap.Logger,
) *ClaimService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ClaimService{
		pool:        pool,
		offerRepo:   offerRepo,
		claimRepo:   claimRepo,
		checkInRepo: checkInRepo,
		auditRepo:   auditRepo,
		tokens:      NewTokenGenerator(),
		logger:      logger,
		nowFn:       func() time.Time { return time.Now().UTC() },
	}
}

// AllocateClaim reserves one of the offer's remaining slots for the user
// and mints the claim's redemption token, all inside a single transaction
// holding the offer row lock. Every precondition is revalidated under the
// lock even if the caller just checked eligibility.
func (s *ClaimService) AllocateClaim(ctx context.Context, offerID, userID string) (*model.Claim, error) {
	oid, err := uuid.Parse(strings.TrimSpace(offerID))
	if err != nil {
		return nil, ErrInvalidInput
	}
	uid, err := uuid.Parse(strings.TrimSpace(userID))
	if err != nil {
		return nil, ErrInvalidInput
	}

	start := time.Now()
	result := "error"
	defer func() {
		metrics.ObserveAllocation(result, time.Since(start))
	}()

	var claim *model.Claim
	err = withTxRetry(ctx, func(ctx context.Context) error {
		var txErr error
		claim, txErr = s.allocateTx(ctx, oid, uid)
		return txErr
	})
	if err != nil {
		result = allocationResultLabel(err)
		return nil, err
	}
	result = "success"

	s.writeClaimAudit(ctx, uid, "claim.allocate", claim)
	return claim, nil
}

func (s *ClaimService) allocateTx(ctx context.Context, offerID, userID uuid.UUID) (*model.Claim, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	offer, err := s.offerRepo.FindByIDForUpdate(ctx, tx, offerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOfferNotFound
		}
		return nil, err
	}

	now := s.nowFn()
	if err := checkAllocatable(offer, now); err != nil {
		return nil, err
	}

	exists, err := s.claimRepo.ExistsForOfferUser(ctx, tx, offerID, userID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateClaim
	}

	checkedIn, err := s.checkInRepo.IsCheckedIn(ctx, userID, offer.VenueID, now)
	if err != nil {
		return nil, err
	}
	if !checkedIn {
		return nil, ErrNotCheckedIn
	}

	if err := s.offerRepo.ReserveSlot(ctx, tx, offerID, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOfferFull
		}
		return nil, err
	}

	token, err := s.mintToken(ctx, tx, offer.VenueID)
	if err != nil {
		return nil, err
	}

	claim := &model.Claim{
		ID:        uuid.New(),
		OfferID:   offerID,
		VenueID:   offer.VenueID,
		UserID:    userID,
		Token:     token,
		Status:    model.ClaimStatusActive,
		ExpiresAt: now.Add(ClaimTTL),
		CreatedAt: now,
	}

	if err := s.claimRepo.Create(ctx, tx, claim); err != nil {
		if isUniqueViolation(err, "uq_claims_offer_user") {
			return nil, ErrDuplicateClaim
		}
		if isUniqueViolation(err, "uq_claims_venue_token") {
			return nil, errTokenCollision
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return claim, nil
}

// checkAllocatable enforces the allocation preconditions against wall-clock
// time, not the possibly stale stored status.
func checkAllocatable(offer *model.Offer, now time.Time) error {
	switch offer.EffectiveStatus(now) {
	case model.OfferStatusActive:
	case model.OfferStatusExpired:
		return ErrOfferExpired
	case model.OfferStatusFull:
		return ErrOfferFull
	default:
		return ErrOfferNotActive
	}

	if offer.ClaimedCount >= offer.MaxClaims {
		return ErrOfferFull
	}
	return nil
}

// mintToken proposes candidates until one is free at venue scope. Runs
// inside the allocation transaction so the uniqueness check and the claim
// insert see the same snapshot under the offer lock.
func (s *ClaimService) mintToken(ctx context.Context, tx pgx.Tx, venueID uuid.UUID) (string, error) {
	for attempt := 0; attempt < tokenMaxAttempts; attempt++ {
		token, err := s.tokens.Generate()
		if err != nil {
			return "", err
		}

		inUse, err := s.claimRepo.TokenInUse(ctx, tx, venueID, token)
		if err != nil {
			return "", err
		}
		if !inUse {
			return token, nil
		}
	}
	return "", ErrTokenSpaceExhausted
}

// Eligibility builds the advisory snapshot for the UI. Never authoritative.
func (s *ClaimService) Eligibility(ctx context.Context, offerID, userID string) (*EligibilitySnapshot, error) {
	oid, err := uuid.Parse(strings.TrimSpace(offerID))
	if err != nil {
		return nil, ErrInvalidInput
	}
	uid, err := uuid.Parse(strings.TrimSpace(userID))
	if err != nil {
		return nil, ErrInvalidInput
	}

	offer, err := s.offerRepo.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOfferNotFound
		}
		return nil, err
	}

	now := s.nowFn()
	snapshot := &EligibilitySnapshot{
		OfferID:         oid,
		OfferStatus:     offer.EffectiveStatus(now),
		RemainingClaims: offer.RemainingClaims(),
	}

	claimed, err := s.claimRepo.Count(ctx, repository.ClaimListFilter{OfferID: &oid, UserID: &uid})
	if err != nil {
		return nil, err
	}

	snapshot.CheckedIn, err = s.checkInRepo.IsCheckedIn(ctx, uid, offer.VenueID, now)
	if err != nil {
		return nil, err
	}

	switch {
	case snapshot.OfferStatus == model.OfferStatusScheduled:
		snapshot.Reason = ReasonOfferScheduled
	case snapshot.OfferStatus == model.OfferStatusExpired:
		snapshot.Reason = ReasonOfferExpired
	case snapshot.OfferStatus == model.OfferStatusCancelled:
		snapshot.Reason = ReasonOfferCancelled
	case snapshot.OfferStatus == model.OfferStatusFull || snapshot.RemainingClaims == 0:
		snapshot.Reason = ReasonOfferFull
	case claimed > 0:
		snapshot.Reason = ReasonAlreadyClaimed
	case !snapshot.CheckedIn:
		snapshot.Reason = ReasonNotCheckedIn
	default:
		snapshot.Eligible = true
		snapshot.Reason = ReasonEligible
	}

	return snapshot, nil
}

func (s *ClaimService) ListUserClaims(ctx context.Context, userID string, page, pageSize int) ([]*model.Claim, int64, error) {
	uid, err := uuid.Parse(strings.TrimSpace(userID))
	if err != nil {
		return nil, 0, ErrInvalidInput
	}

	page, pageSize = normalizePage(page, pageSize)
	filter := repository.ClaimListFilter{
		UserID: &uid,
		Pagination: repository.Pagination{
			Limit:  int32(pageSize),
			Offset: int32((page - 1) * pageSize),
		},
	}

	claims, err := s.claimRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.claimRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return claims, total, nil
}

func (s *ClaimService) ListOfferClaims(ctx context.Context, offerID string, page, pageSize int) ([]*model.Claim, int64, error) {
	oid, err := uuid.Parse(strings.TrimSpace(offerID))
	if err != nil {
		return nil, 0, ErrInvalidInput
	}

	page, pageSize = normalizePage(page, pageSize)
	filter := repository.ClaimListFilter{
		OfferID: &oid,
		Pagination: repository.Pagination{
			Limit:  int32(pageSize),
			Offset: int32((page - 1) * pageSize),
		},
	}

	claims, err := s.claimRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.claimRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return claims, total, nil
}

// SweepExpired moves lapsed active claims to expired. Redeemed claims are
// never touched; redemption is terminal and wins any race with expiry.
func (s *ClaimService) SweepExpired(ctx context.Context) (int64, error) {
	return s.claimRepo.ExpireLapsed(ctx, s.nowFn())
}

func (s *ClaimService) writeClaimAudit(ctx context.Context, actorID uuid.UUID, action string, claim *model.Claim) {
	if s.auditRepo == nil || claim == nil {
		return
	}

	resourceID := claim.ID.String()
	if err := s.auditRepo.Create(ctx, &model.AuditLog{
		ActorID:      &actorID,
		Action:       action,
		ResourceType: strPtr("claim"),
		ResourceID:   &resourceID,
		Detail: map[string]interface{}{
			"offer_id": claim.OfferID.String(),
			"venue_id": claim.VenueID.String(),
			"token":    claim.Token,
		},
		CreatedAt: s.nowFn(),
	}); err != nil {
		s.logger.Warn("write audit log failed", zap.String("action", action), zap.Error(err))
	}
}

func allocationResultLabel(err error) string {
	switch {
	case errors.Is(err, ErrOfferFull):
		return "offer_full"
	case errors.Is(err, ErrOfferExpired):
		return "offer_expired"
	case errors.Is(err, ErrOfferNotActive):
		return "offer_not_active"
	case errors.Is(err, ErrDuplicateClaim):
		return "duplicate_claim"
	case errors.Is(err, ErrNotCheckedIn):
		return "not_checked_in"
	case errors.Is(err, ErrOfferNotFound):
		return "offer_not_found"
	case errors.Is(err, ErrTransient):
		return "transient"
	default:
		return "error"
	}
}
