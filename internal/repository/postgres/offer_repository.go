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

type offerRepository struct {
	pool *pgxpool.Pool
}

func NewOfferRepository(pool *pgxpool.Pool) repository.OfferRepository {
	return &offerRepository{pool: pool}
}

var _ repository.OfferRepository = (*offerRepository)(nil)

const offerColumns = `
	id,
	venue_id,
	title,
	description,
	value_text,
	max_claims,
	radius_meters,
	restrict_to_favorites,
	start_time,
	end_time,
	claimed_count,
	status,
	created_at,
	updated_at
`

func (r *offerRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = $1`
	offer, err := scanOffer(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return offer, nil
}

func (r *offerRepository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = $1 FOR UPDATE`
	offer, err := scanOffer(tx.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return offer, nil
}

func (r *offerRepository) Create(ctx context.Context, offer *model.Offer) error {
	if offer.ID == uuid.Nil {
		offer.ID = uuid.New()
	}
	now := time.Now().UTC()
	if offer.CreatedAt.IsZero() {
		offer.CreatedAt = now
	}
	if offer.UpdatedAt.IsZero() {
		offer.UpdatedAt = now
	}

	query := `
		INSERT INTO offers (
			id, venue_id, title, description, value_text,
			max_claims, radius_meters, restrict_to_favorites, start_time, end_time,
			claimed_count, status, created_at, updated_at
		)
		VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12, $13, $14
		)
	`

	_, err := r.pool.Exec(
		ctx,
		query,
		offer.ID,
		offer.VenueID,
		offer.Title,
		offer.Description,
		offer.ValueText,
		offer.MaxClaims,
		offer.RadiusMeters,
		offer.RestrictToFavorites,
		offer.StartTime,
		offer.EndTime,
		offer.ClaimedCount,
		offer.Status,
		offer.CreatedAt,
		offer.UpdatedAt,
	)
	return err
}

func (r *offerRepository) ReserveSlot(ctx context.Context, tx pgx.Tx, id uuid.UUID, now time.Time) error {
	query := `
		UPDATE offers
		   SET claimed_count = claimed_count + 1,
		       status = CASE
		           WHEN claimed_count + 1 >= max_claims THEN 'full'
		           ELSE status
		       END,
		       updated_at = $2
		 WHERE id = $1
		   AND claimed_count < max_claims
	`

	tag, err := tx.Exec(ctx, query, id, now)
	if err != nil {
		return err
	}
	return ensureAffected(tag)
}

func (r *offerRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OfferStatus, now time.Time) error {
	query := `
		UPDATE offers
		   SET status = $3,
		       updated_at = $4
		 WHERE id = $1
		   AND status = $2
	`

	tag, err := r.pool.Exec(ctx, query, id, from, to, now)
	if err != nil {
		return err
	}
	return ensureAffected(tag)
}

func (r *offerRepository) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE offers
		   SET status = 'expired',
		       updated_at = $1
		 WHERE end_time < $1
		   AND status NOT IN ('expired', 'cancelled')
	`

	tag, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *offerRepository) ActivateDue(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE offers
		   SET status = 'active',
		       updated_at = $1
		 WHERE status = 'scheduled'
		   AND start_time <= $1
		   AND end_time >= $1
	`

	tag, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func buildOfferFilter(filter repository.OfferListFilter) ([]string, []any) {
	conditions := make([]string, 0, 2)
	args := make([]any, 0, 4)

	if filter.VenueID != nil {
		args = append(args, *filter.VenueID)
		conditions = append(conditions, fmt.Sprintf("venue_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	return conditions, args
}

func (r *offerRepository) List(ctx context.Context, filter repository.OfferListFilter) ([]*model.Offer, error) {
	conditions, args := buildOfferFilter(filter)

	query := `SELECT ` + offerColumns + ` FROM offers`
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

	offers := make([]*model.Offer, 0, limit)
	for rows.Next() {
		offer, scanErr := scanOffer(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		offers = append(offers, offer)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return offers, nil
}

func (r *offerRepository) Count(ctx context.Context, filter repository.OfferListFilter) (int64, error) {
	conditions, args := buildOfferFilter(filter)

	query := `SELECT COUNT(*) FROM offers`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func scanOffer(src scanTarget) (*model.Offer, error) {
	offer := &model.Offer{}
	err := src.Scan(
		&offer.ID,
		&offer.VenueID,
		&offer.Title,
		&offer.Description,
		&offer.ValueText,
		&offer.MaxClaims,
		&offer.RadiusMeters,
		&offer.RestrictToFavorites,
		&offer.StartTime,
		&offer.EndTime,
		&offer.ClaimedCount,
		&offer.Status,
		&offer.CreatedAt,
		&offer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return offer, nil
}
