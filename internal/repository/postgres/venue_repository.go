package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"offerhub/internal/model"
	"offerhub/internal/repository"
)

type venueRepository struct {
	pool *pgxpool.Pool
}

func NewVenueRepository(pool *pgxpool.Pool) repository.VenueRepository {
	return &venueRepository{pool: pool}
}

var _ repository.VenueRepository = (*venueRepository)(nil)

func (r *venueRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Venue, error) {
	venue := &model.Venue{}
	err := r.pool.QueryRow(
		ctx,
		`SELECT id, name, created_at FROM venues WHERE id = $1`,
		id,
	).Scan(&venue.ID, &venue.Name, &venue.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return venue, nil
}

func (r *venueRepository) Create(ctx context.Context, venue *model.Venue) error {
	if venue.ID == uuid.Nil {
		venue.ID = uuid.New()
	}
	if venue.CreatedAt.IsZero() {
		venue.CreatedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO venues (id, name, created_at) VALUES ($1, $2, $3)`,
		venue.ID,
		venue.Name,
		venue.CreatedAt,
	)
	return err
}
