// Package postgres persists matters and audit events. The matter aggregate
// is stored as one row with JSONB columns; Update is a compare-and-swap on
// the revision column.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/casebinder/casebinder/internal/core/domain"
)

const schemaLockID = 7403921160

// OpenDB opens a pgx-backed pool and verifies connectivity.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the tables under an advisory lock so concurrently
// starting replicas do not race each other.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("postgres: acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", schemaLockID); err != nil {
		return fmt.Errorf("postgres: advisory lock: %w", err)
	}
	defer conn.ExecContext(context.WithoutCancel(ctx), "SELECT pg_advisory_unlock($1)", schemaLockID)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS matters (
			matter_id      TEXT        NOT NULL,
			owner_scope    TEXT        NOT NULL,
			forum          TEXT        NOT NULL,
			profile_id     TEXT        NOT NULL,
			documents      JSONB       NOT NULL DEFAULT '[]'::jsonb,
			filing_context JSONB       NOT NULL DEFAULT '{}'::jsonb,
			audit          JSONB       NOT NULL DEFAULT '[]'::jsonb,
			revision       BIGINT      NOT NULL,
			created_at     TIMESTAMPTZ NOT NULL,
			updated_at     TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (matter_id, owner_scope)
		)`,
		`CREATE TABLE IF NOT EXISTS audit_events (
			event_id    TEXT        PRIMARY KEY,
			matter_id   TEXT        NOT NULL,
			owner_scope TEXT        NOT NULL,
			action      TEXT        NOT NULL,
			file_id     TEXT        NOT NULL DEFAULT '',
			detail      TEXT        NOT NULL DEFAULT '',
			reason      TEXT        NOT NULL DEFAULT '',
			occurred_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_events_matter ON audit_events (matter_id, occurred_at)`,
	}
	for _, stmt := range statements {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: ensure schema: %w", err)
		}
	}
	return nil
}

type MatterRepository struct {
	db *sql.DB
}

func NewMatterRepository(db *sql.DB) *MatterRepository {
	return &MatterRepository{db: db}
}

func (r *MatterRepository) Create(ctx context.Context, m *domain.Matter) error {
	documents, filingContext, audit, err := marshalAggregate(m)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO matters
			(matter_id, owner_scope, forum, profile_id, documents, filing_context, audit, revision, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = r.db.ExecContext(ctx, query,
		m.MatterID, m.OwnerScope, m.Forum, m.ProfileID,
		documents, filingContext, audit,
		m.Revision, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return domain.WrapError(domain.ErrTemporary, "matters.create", err)
	}
	return nil
}

func (r *MatterRepository) Get(ctx context.Context, matterID, ownerScope string) (*domain.Matter, error) {
	const query = `
		SELECT matter_id, owner_scope, forum, profile_id, documents, filing_context, audit, revision, created_at, updated_at
		FROM matters
		WHERE matter_id = $1 AND owner_scope = $2`

	var m domain.Matter
	var documents, filingContext, audit []byte
	err := r.db.QueryRowContext(ctx, query, matterID, ownerScope).Scan(
		&m.MatterID, &m.OwnerScope, &m.Forum, &m.ProfileID,
		&documents, &filingContext, &audit,
		&m.Revision, &m.CreatedAt, &m.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.WrapError(domain.ErrMatterNotFound, "matters.get",
			fmt.Errorf("matter %s not found in scope", matterID))
	}
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "matters.get", err)
	}

	if err := json.Unmarshal(documents, &m.Documents); err != nil {
		return nil, fmt.Errorf("postgres: decode documents for %s: %w", matterID, err)
	}
	if err := json.Unmarshal(filingContext, &m.FilingContext); err != nil {
		return nil, fmt.Errorf("postgres: decode filing context for %s: %w", matterID, err)
	}
	if err := json.Unmarshal(audit, &m.Audit); err != nil {
		return nil, fmt.Errorf("postgres: decode audit for %s: %w", matterID, err)
	}
	return &m, nil
}

// Update persists the aggregate only if nobody else advanced the revision
// since it was read. A zero-row update surfaces as a conflict the caller is
// expected to retry from a fresh read.
func (r *MatterRepository) Update(ctx context.Context, m *domain.Matter) error {
	documents, filingContext, audit, err := marshalAggregate(m)
	if err != nil {
		return err
	}

	const query = `
		UPDATE matters
		SET forum = $3, profile_id = $4, documents = $5, filing_context = $6, audit = $7,
		    revision = $8, updated_at = $9
		WHERE matter_id = $1 AND owner_scope = $2 AND revision = $10`
	res, err := r.db.ExecContext(ctx, query,
		m.MatterID, m.OwnerScope, m.Forum, m.ProfileID,
		documents, filingContext, audit,
		m.Revision+1, m.UpdatedAt, m.Revision,
	)
	if err != nil {
		return domain.WrapError(domain.ErrTemporary, "matters.update", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.WrapError(domain.ErrTemporary, "matters.update", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrConflict, "matters.update",
			fmt.Errorf("matter %s revision %d is stale", m.MatterID, m.Revision))
	}
	m.Revision++
	return nil
}

func marshalAggregate(m *domain.Matter) (documents, filingContext, audit []byte, err error) {
	if documents, err = json.Marshal(m.Documents); err != nil {
		return nil, nil, nil, fmt.Errorf("postgres: encode documents: %w", err)
	}
	if filingContext, err = json.Marshal(m.FilingContext); err != nil {
		return nil, nil, nil, fmt.Errorf("postgres: encode filing context: %w", err)
	}
	if audit, err = json.Marshal(m.Audit); err != nil {
		return nil, nil, nil, fmt.Errorf("postgres: encode audit: %w", err)
	}
	return documents, filingContext, audit, nil
}
