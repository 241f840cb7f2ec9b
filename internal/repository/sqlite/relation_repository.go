package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"people-search/internal/domain"
	"people-search/internal/repository"
)

const createRelationsTable = `
CREATE TABLE IF NOT EXISTS relations (
	viewer_id TEXT NOT NULL,
	target_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	PRIMARY KEY (viewer_id, target_id, kind)
);
CREATE INDEX IF NOT EXISTS idx_relations_viewer_kind ON relations(viewer_id, kind);
`

type RelationRepository struct {
	db *sql.DB
}

func NewRelationRepository(db *sql.DB) repository.RelationRepository {
	return &RelationRepository{db: db}
}

func (r *RelationRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createRelationsTable); err != nil {
		return fmt.Errorf("create relations table: %w", err)
	}
	return nil
}

func (r *RelationRepository) Set(ctx context.Context, viewerID, targetID string, kind domain.RelationKind) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
INSERT INTO relations (viewer_id, target_id, kind, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (viewer_id, target_id, kind) DO NOTHING`,
		viewerID, targetID, string(kind), time.Now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("set %s relation: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set %s relation rows: %w", kind, err)
	}
	return n > 0, nil
}

func (r *RelationRepository) Delete(ctx context.Context, viewerID, targetID string, kind domain.RelationKind) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM relations WHERE viewer_id = ? AND target_id = ? AND kind = ?`,
		viewerID, targetID, string(kind),
	)
	if err != nil {
		return false, fmt.Errorf("delete %s relation: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete %s relation rows: %w", kind, err)
	}
	return n > 0, nil
}

func (r *RelationRepository) Exists(ctx context.Context, viewerID, targetID string, kind domain.RelationKind) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM relations WHERE viewer_id = ? AND target_id = ? AND kind = ?`,
		viewerID, targetID, string(kind),
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check %s relation: %w", kind, err)
	}
	return true, nil
}
