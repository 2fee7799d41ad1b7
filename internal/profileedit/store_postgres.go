package profileedit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"kesher/internal/user"
	id "kesher/pkg/domain"
	"kesher/pkg/platform/sentinel"
	"kesher/pkg/platform/tx"
)

// PostgresStore persists edit requests in PostgreSQL. The diff is stored as a
// jsonb document of field name to proposed value and re-validated against the
// field schema on read.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const editColumns = `id, user_id, changes, is_sensitive, submitted_at`

func (s *PostgresStore) Put(ctx context.Context, req *EditRequest) error {
	changes, err := json.Marshal(req.Changes)
	if err != nil {
		return fmt.Errorf("marshal changes: %w", err)
	}
	// One outstanding request per user: a resubmission takes over the row.
	query := `
		INSERT INTO profile_edit_requests (` + editColumns + `)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
			SET id = excluded.id,
			    changes = excluded.changes,
			    is_sensitive = excluded.is_sensitive,
			    submitted_at = excluded.submitted_at
	`
	_, err = tx.Q(ctx, s.db).ExecContext(ctx, query,
		req.ID.String(), req.UserID.String(), changes, req.IsSensitive, req.SubmittedAt)
	if err != nil {
		return fmt.Errorf("put edit request: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, reqID id.EditRequestID) (*EditRequest, error) {
	query := `SELECT ` + editColumns + ` FROM profile_edit_requests WHERE id = $1`
	return s.findOne(ctx, query, reqID.String())
}

func (s *PostgresStore) FindByUser(ctx context.Context, userID id.UserID) (*EditRequest, error) {
	query := `SELECT ` + editColumns + ` FROM profile_edit_requests WHERE user_id = $1`
	return s.findOne(ctx, query, userID.String())
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*EditRequest, error) {
	req, err := scanEditRequest(tx.Q(ctx, s.db).QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find edit request: %w", err)
	}
	return req, nil
}

func (s *PostgresStore) Delete(ctx context.Context, reqID id.EditRequestID) error {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx, `DELETE FROM profile_edit_requests WHERE id = $1`, reqID.String())
	if err != nil {
		return fmt.Errorf("delete edit request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete edit request: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*EditRequest, error) {
	query := `SELECT ` + editColumns + ` FROM profile_edit_requests ORDER BY submitted_at, id`
	rows, err := tx.Q(ctx, s.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list edit requests: %w", err)
	}
	defer rows.Close()

	var out []*EditRequest
	for rows.Next() {
		req, err := scanEditRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan edit request: %w", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list edit requests: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEditRequest(row rowScanner) (*EditRequest, error) {
	var req EditRequest
	var rawID, rawUser string
	var rawChanges []byte
	if err := row.Scan(&rawID, &rawUser, &rawChanges, &req.IsSensitive, &req.SubmittedAt); err != nil {
		return nil, err
	}
	var err error
	if req.ID, err = id.ParseEditRequestID(rawID); err != nil {
		return nil, fmt.Errorf("corrupt edit request id %q: %w", rawID, err)
	}
	if req.UserID, err = id.ParseUserID(rawUser); err != nil {
		return nil, fmt.Errorf("corrupt user id %q: %w", rawUser, err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(rawChanges, &fields); err != nil {
		return nil, fmt.Errorf("decode changes: %w", err)
	}
	if req.Changes, err = user.ParseChanges(fields); err != nil {
		return nil, fmt.Errorf("decode changes: %w", err)
	}
	return &req, nil
}
