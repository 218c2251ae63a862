package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"offerhub/internal/model"
	"offerhub/internal/repository"
)

type auditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) repository.AuditRepository {
	return &auditRepository{pool: pool}
}

var _ repository.AuditRepository = (*auditRepository)(nil)

func (r *auditRepository) Create(ctx context.Context, log *model.AuditLog) error {
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}

	detail, err := encodeJSONMap(log.Detail)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO audit_logs (actor_id, action, resource_type, resource_id, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	return r.pool.QueryRow(
		ctx,
		query,
		log.ActorID,
		log.Action,
		log.ResourceType,
		log.ResourceID,
		detail,
		log.CreatedAt,
	).Scan(&log.ID)
}
