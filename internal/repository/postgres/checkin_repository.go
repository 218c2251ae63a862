package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"offerhub/internal/model"
	"offerhub/internal/repository"
)

type checkInRepository struct {
	pool *pgxpool.Pool
}

func NewCheckInRepository(pool *pgxpool.Pool) repository.CheckInRepository {
	return &checkInRepository{pool: pool}
}

var _ repository.CheckInRepository = (*checkInRepository)(nil)

func (r *checkInRepository) Create(ctx context.Context, checkIn *model.CheckIn) error {
	if checkIn.ID == uuid.Nil {
		checkIn.ID = uuid.New()
	}
	if checkIn.CheckedInAt.IsZero() {
		checkIn.CheckedInAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO checkins (id, user_id, venue_id, checked_in_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		checkIn.ID,
		checkIn.UserID,
		checkIn.VenueID,
		checkIn.CheckedInAt,
		checkIn.ExpiresAt,
	)
	return err
}

func (r *checkInRepository) IsCheckedIn(ctx context.Context, userID, venueID uuid.UUID, now time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(
		ctx,
		`SELECT EXISTS (
			SELECT 1
			  FROM checkins
			 WHERE user_id = $1
			   AND venue_id = $2
			   AND expires_at > $3
		)`,
		userID,
		venueID,
		now,
	).Scan(&exists)
	return exists, err
}

func (r *checkInRepository) DeleteForUserVenue(ctx context.Context, userID, venueID uuid.UUID) error {
	_, err := r.pool.Exec(
		ctx,
		`DELETE FROM checkins WHERE user_id = $1 AND venue_id = $2`,
		userID,
		venueID,
	)
	return err
}
