package suppression

import (
	"context"
	"database/sql"
	"fmt"

	id "kesher/pkg/domain"
)

// PostgresStore persists suppression entries in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Hide(ctx context.Context, viewerID, hiddenID id.UserID) error {
	query := `
		INSERT INTO suppression_entries (viewer_id, hidden_user_id, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (viewer_id, hidden_user_id) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, viewerID.String(), hiddenID.String()); err != nil {
		return fmt.Errorf("hide profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) Unhide(ctx context.Context, viewerID, hiddenID id.UserID) error {
	query := `DELETE FROM suppression_entries WHERE viewer_id = $1 AND hidden_user_id = $2`
	if _, err := s.db.ExecContext(ctx, query, viewerID.String(), hiddenID.String()); err != nil {
		return fmt.Errorf("unhide profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsHidden(ctx context.Context, viewerID, hiddenID id.UserID) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM suppression_entries WHERE viewer_id = $1 AND hidden_user_id = $2
	)`
	var hidden bool
	if err := s.db.QueryRowContext(ctx, query, viewerID.String(), hiddenID.String()).Scan(&hidden); err != nil {
		return false, fmt.Errorf("check suppression: %w", err)
	}
	return hidden, nil
}

func (s *PostgresStore) ListHidden(ctx context.Context, viewerID id.UserID) ([]*Entry, error) {
	query := `
		SELECT viewer_id, hidden_user_id, created_at
		FROM suppression_entries
		WHERE viewer_id = $1
		ORDER BY created_at, hidden_user_id
	`
	rows, err := s.db.QueryContext(ctx, query, viewerID.String())
	if err != nil {
		return nil, fmt.Errorf("list suppressions: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		var entry Entry
		var rawViewer, rawHidden string
		if err := rows.Scan(&rawViewer, &rawHidden, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan suppression: %w", err)
		}
		if entry.ViewerID, err = id.ParseUserID(rawViewer); err != nil {
			return nil, fmt.Errorf("corrupt viewer id %q: %w", rawViewer, err)
		}
		if entry.HiddenUserID, err = id.ParseUserID(rawHidden); err != nil {
			return nil, fmt.Errorf("corrupt hidden user id %q: %w", rawHidden, err)
		}
		out = append(out, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list suppressions: %w", err)
	}
	return out, nil
}
