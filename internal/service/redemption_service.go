package service

import (
	"context"
	"errors"
	"regexp"
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

var tokenPattern = regexp.MustCompile(`^[0-9]{6}$`)

// RedemptionResult carries the redeemed claim, or on ErrAlreadyRedeemed the
// prior redemption's actor and time so staff can see who honored it.
type RedemptionResult struct {
	Claim      *model.Claim `json:"claim"`
	RedeemedAt *time.Time   `json:"redeemed_at,omitempty"`
	RedeemedBy *uuid.UUID   `json:"redeemed_by,omitempty"`
}

type RedemptionService struct {
	pool      *pgxpool.Pool
	claimRepo repository.ClaimRepository
	auditRepo repository.AuditRepository
	logger    *zap.Logger
	nowFn     func() time.Time
}

func NewRedemptionService(
	pool *pgxpool.Pool,
	claimRepo repository.ClaimRepository,
	auditRepo repository.AuditRepository,
	logger *zap.Logger,
) *RedemptionService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RedemptionService{
		pool:      pool,
		claimRepo: claimRepo,
		auditRepo: auditRepo,
		logger:    logger,
		nowFn:     func() time.Time { return time.Now().UTC() },
	}
}

// Redeem performs the exactly-once redemption of a token presented at a
// venue. A token presented at the wrong venue does not resolve. If two
// staff devices race on the same token, exactly one wins; the loser gets
// ErrAlreadyRedeemed along with who won and when.
func (s *RedemptionService) Redeem(ctx context.Context, venueID, token, staffID string) (*RedemptionResult, error) {
	vid, err := uuid.Parse(strings.TrimSpace(venueID))
	if err != nil {
		return nil, ErrInvalidInput
	}
	sid, err := uuid.Parse(strings.TrimSpace(staffID))
	if err != nil {
		return nil, ErrInvalidInput
	}
	token = strings.TrimSpace(token)
	if !tokenPattern.MatchString(token) {
		return nil, ErrInvalidInput
	}

	start := time.Now()
	result := "error"
	defer func() {
		metrics.ObserveRedemption(result, time.Since(start))
	}()

	var out *RedemptionResult
	err = withTxRetry(ctx, func(ctx context.Context) error {
		var txErr error
		out, txErr = s.redeemTx(ctx, vid, token, sid)
		return txErr
	})
	if err != nil {
		result = redemptionResultLabel(err)
		return out, err
	}
	result = "success"

	s.writeRedeemAudit(ctx, sid, out.Claim)
	return out, nil
}

func (s *RedemptionService) redeemTx(ctx context.Context, venueID uuid.UUID, token string, staffID uuid.UUID) (*RedemptionResult, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	claim, err := s.claimRepo.FindByVenueTokenForUpdate(ctx, tx, venueID, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}

	now := s.nowFn()
	switch {
	case claim.Status == model.ClaimStatusRedeemed:
		return &RedemptionResult{
			RedeemedAt: claim.RedeemedAt,
			RedeemedBy: claim.RedeemedBy,
		}, ErrAlreadyRedeemed
	case claim.Status == model.ClaimStatusExpired, now.After(claim.ExpiresAt):
		return nil, ErrClaimExpired
	}

	if err := s.claimRepo.MarkRedeemed(ctx, tx, claim.ID, staffID, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Lost the race between the lock and the conditional update.
			return nil, ErrAlreadyRedeemed
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	claim.Status = model.ClaimStatusRedeemed
	claim.RedeemedAt = &now
	claim.RedeemedBy = &staffID

	return &RedemptionResult{
		Claim:      claim,
		RedeemedAt: &now,
		RedeemedBy: &staffID,
	}, nil
}

// LookupByToken is the read-only staff preview before committing to a
// redemption. It takes no lock and reports the claim as-is.
func (s *RedemptionService) LookupByToken(ctx context.Context, venueID, token string) (*model.Claim, error) {
	vid, err := uuid.Parse(strings.TrimSpace(venueID))
	if err != nil {
		return nil, ErrInvalidInput
	}
	token = strings.TrimSpace(token)
	if !tokenPattern.MatchString(token) {
		return nil, ErrInvalidInput
	}

	claim, err := s.claimRepo.FindByVenueToken(ctx, vid, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return claim, nil
}

func (s *RedemptionService) writeRedeemAudit(ctx context.Context, staffID uuid.UUID, claim *model.Claim) {
	if s.auditRepo == nil || claim == nil {
		return
	}

	resourceID := claim.ID.String()
	if err := s.auditRepo.Create(ctx, &model.AuditLog{
		ActorID:      &staffID,
		Action:       "claim.redeem",
		ResourceType: strPtr("claim"),
		ResourceID:   &resourceID,
		Detail: map[string]interface{}{
			"offer_id": claim.OfferID.String(),
			"venue_id": claim.VenueID.String(),
			"token":    claim.Token,
			"user_id":  claim.UserID.String(),
		},
		CreatedAt: s.nowFn(),
	}); err != nil {
		s.logger.Warn("write audit log failed", zap.String("action", "claim.redeem"), zap.Error(err))
	}
}

func redemptionResultLabel(err error) string {
	switch {
	case errors.Is(err, ErrTokenNotFound):
		return "token_not_found"
	case errors.Is(err, ErrClaimExpired):
		return "claim_expired"
	case errors.Is(err, ErrAlreadyRedeemed):
		return "already_redeemed"
	case errors.Is(err, ErrTransient):
		return "transient"
	default:
		return "error"
	}
}
