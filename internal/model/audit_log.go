package model

import (
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	ID           int64                  `db:"id" json:"id"`
	ActorID      *uuid.UUID             `db:"actor_id" json:"actor_id,omitempty"`
	Action       string                 `db:"action" json:"action"`
	ResourceType *string                `db:"resource_type" json:"resource_type,omitempty"`
	ResourceID   *string                `db:"resource_id" json:"resource_id,omitempty"`
	Detail       map[string]interface{} `db:"detail" json:"detail,omitempty"`
	CreatedAt    time.Time              `db:"created_at" json:"created_at"`
}
