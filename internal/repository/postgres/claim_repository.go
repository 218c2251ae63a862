package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"offerhub/internal/model"
	"offerhub/internal/repository"
)

type claimRepository struct {
	pool *pgxpool.Pool
}

func NewClaimRepository(pool *pgxpool.Pool) repository.ClaimRepository {
	return &claimRepository{pool: pool}
}

var _ repository.ClaimRepository = (*claimRepository)(nil)

const claimColumns = `
	id,
	offer_id,
	venue_id,
	user_id,
	token,
	status,
	expires_at,
	redeemed_at,
	redeemed_by,
	created_at
`

func (r *claimRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE id = $1`
	claim, err := scanClaim(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return claim, nil
}

func (r *claimRepository) FindByVenueToken(ctx context.Context, venueID uuid.UUID, token string) (*model.Claim, error) {
	claim, err := scanClaim(r.pool.QueryRow(
		ctx,
		`SELECT `+claimColumns+`
		   FROM claims
		  WHERE venue_id = $1
		    AND token = $2
		  ORDER BY created_at DESC
		  LIMIT 1`,
		venueID,
		token,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return claim, nil
}

func (r *claimRepository) FindByVenueTokenForUpdate(ctx context.Context, tx pgx.Tx, venueID uuid.UUID, token string) (*model.Claim, error) {
	claim, err := scanClaim(tx.QueryRow(
		ctx,
		`SELECT `+claimColumns+`
		   FROM claims
		  WHERE venue_id = $1
		    AND token = $2
		  ORDER BY created_at DESC
		  LIMIT 1
		    FOR UPDATE`,
		venueID,
		token,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return claim, nil
}

func (r *claimRepository) Create(ctx context.Context, tx pgx.Tx, claim *model.Claim) error {
	if claim.ID == uuid.Nil {
		claim.ID = uuid.New()
	}
	if claim.CreatedAt.IsZero() {
		claim.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO claims (
			id, offer_id, venue_id, user_id, token,
			status, expires_at, redeemed_at, redeemed_by, created_at
		)
		VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10
		)
	`

	_, err := tx.Exec(
		ctx,
		query,
		claim.ID,
		claim.OfferID,
		claim.VenueID,
		claim.UserID,
		claim.Token,
		claim.Status,
		claim.ExpiresAt,
		claim.RedeemedAt,
		claim.RedeemedBy,
		claim.CreatedAt,
	)
	return err
}

func (r *claimRepository) ExistsForOfferUser(ctx context.Context, tx pgx.Tx, offerID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := tx.QueryRow(
		ctx,
		`SELECT EXISTS (
			SELECT 1 FROM claims WHERE offer_id = $1 AND user_id = $2
		)`,
		offerID,
		userID,
	).Scan(&exists)
	return exists, err
}

func (r *claimRepository) TokenInUse(ctx context.Context, tx pgx.Tx, venueID uuid.UUID, token string) (bool, error) {
	var exists bool
	err := tx.QueryRow(
		ctx,
		`SELECT EXISTS (
			SELECT 1
			  FROM claims
			 WHERE venue_id = $1
			   AND token = $2
			   AND status <> 'expired'
		)`,
		venueID,
		token,
	).Scan(&exists)
	return exists, err
}

func (r *claimRepository) MarkRedeemed(ctx context.Context, tx pgx.Tx, id uuid.UUID, staffID uuid.UUID, now time.Time) error {
	query := `
		UPDATE claims
		   SET status = 'redeemed',
		       redeemed_at = $3,
		       redeemed_by = $2
		 WHERE id = $1
		   AND status = 'active'
	`

	tag, err := tx.Exec(ctx, query, id, staffID, now)
	if err != nil {
		return err
	}
	return ensureAffected(tag)
}

func (r *claimRepository) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE claims
		   SET status = 'expired'
		 WHERE expires_at < $1
		   AND status = 'active'
	`

	tag, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func buildClaimFilter(filter repository.ClaimListFilter) ([]string, []any) {
	conditions := make([]string, 0, 3)
	args := make([]any, 0, 5)

	if filter.OfferID != nil {
		args = append(args, *filter.OfferID)
		conditions = append(conditions, fmt.Sprintf("offer_id = $%d", len(args)))
	}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	return conditions, args
}

func (r *claimRepository) List(ctx context.Context, filter repository.ClaimListFilter) ([]*model.Claim, error) {
	conditions, args := buildClaimFilter(filter)

	query := `SELECT ` + claimColumns + ` FROM claims`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	limit, offset := normalizePagination(filter.Pagination)
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	claims := make([]*model.Claim, 0, limit)
	for rows.Next() {
		claim, scanErr := scanClaim(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		claims = append(claims, claim)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return claims, nil
}

func (r *claimRepository) Count(ctx context.Context, filter repository.ClaimListFilter) (int64, error) {
	conditions, args := buildClaimFilter(filter)

	query := `SELECT COUNT(*) FROM claims`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func scanClaim(src scanTarget) (*model.Claim, error) {
	claim := &model.Claim{}
	err := src.Scan(
		&claim.ID,
		&claim.OfferID,
		&claim.VenueID,
		&claim.UserID,
		&claim.Token,
		&claim.Status,
		&claim.ExpiresAt,
		&claim.RedeemedAt,
		&claim.RedeemedBy,
		&claim.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return claim, nil
}
