package postgres

import (
	"context"
	"database/sql"

	"github.com/casebinder/casebinder/internal/core/domain"
)

type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Insert is idempotent on event id so redelivered events do not duplicate
// rows.
func (r *AuditRepository) Insert(ctx context.Context, ev domain.AuditEvent) error {
	const query = `
		INSERT INTO audit_events
			(event_id, matter_id, owner_scope, action, file_id, detail, reason, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query,
		ev.EventID, ev.MatterID, ev.OwnerScope, ev.Action,
		ev.FileID, ev.Detail, ev.Reason, ev.At,
	)
	if err != nil {
		return domain.WrapError(domain.ErrTemporary, "audit.insert", err)
	}
	return nil
}
