package visibility

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	id "kesher/pkg/domain"
	"kesher/pkg/platform/sentinel"
)

// PostgresStore persists visibility grants in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const grantColumns = `owner_id, requester_id, state, created_at, updated_at`

func (s *PostgresStore) Find(ctx context.Context, ownerID, requesterID id.UserID) (*Grant, error) {
	query := `SELECT ` + grantColumns + `
		FROM visibility_grants WHERE owner_id = $1 AND requester_id = $2`
	grant, err := scanGrant(s.db.QueryRowContext(ctx, query, ownerID.String(), requesterID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find visibility grant: %w", err)
	}
	return grant, nil
}

func (s *PostgresStore) RequestPending(ctx context.Context, ownerID, requesterID id.UserID) (*Grant, bool, error) {
	// The conditional DO UPDATE keeps auto_approved untouched; in that case
	// the statement returns no row and the existing grant is read back.
	query := `
		INSERT INTO visibility_grants (owner_id, requester_id, state, created_at, updated_at)
		VALUES ($1, $2, 'pending', now(), now())
		ON CONFLICT (owner_id, requester_id) DO UPDATE
			SET state = 'pending', updated_at = now()
			WHERE visibility_grants.state <> 'auto_approved'
		RETURNING ` + grantColumns
	grant, err := scanGrant(s.db.QueryRowContext(ctx, query, ownerID.String(), requesterID.String()))
	if err == nil {
		return grant, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("request visibility: %w", err)
	}
	grant, err = s.Find(ctx, ownerID, requesterID)
	if err != nil {
		return nil, false, err
	}
	return grant, false, nil
}

func (s *PostgresStore) SetState(ctx context.Context, ownerID, requesterID id.UserID, state State) (*Grant, error) {
	query := `
		UPDATE visibility_grants
		SET state = $3, updated_at = now()
		WHERE owner_id = $1 AND requester_id = $2
		RETURNING ` + grantColumns
	grant, err := scanGrant(s.db.QueryRowContext(ctx, query, ownerID.String(), requesterID.String(), string(state)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("set visibility state: %w", err)
	}
	return grant, nil
}

func (s *PostgresStore) ListPendingForOwner(ctx context.Context, ownerID id.UserID) ([]*Grant, error) {
	query := `SELECT ` + grantColumns + `
		FROM visibility_grants
		WHERE owner_id = $1 AND state = 'pending'
		ORDER BY created_at, requester_id`
	rows, err := s.db.QueryContext(ctx, query, ownerID.String())
	if err != nil {
		return nil, fmt.Errorf("list pending grants: %w", err)
	}
	defer rows.Close()

	var out []*Grant
	for rows.Next() {
		grant, err := scanGrant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan visibility grant: %w", err)
		}
		out = append(out, grant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pending grants: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGrant(row rowScanner) (*Grant, error) {
	var g Grant
	var rawOwner, rawRequester, rawState string
	if err := row.Scan(&rawOwner, &rawRequester, &rawState, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if g.OwnerID, err = id.ParseUserID(rawOwner); err != nil {
		return nil, fmt.Errorf("corrupt owner id %q: %w", rawOwner, err)
	}
	if g.RequesterID, err = id.ParseUserID(rawRequester); err != nil {
		return nil, fmt.Errorf("corrupt requester id %q: %w", rawRequester, err)
	}
	g.State = State(rawState)
	return &g, nil
}
