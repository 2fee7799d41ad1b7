package connection

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	id "kesher/pkg/domain"
	"kesher/pkg/platform/sentinel"
)

// PostgresStore persists connections in PostgreSQL. Pair uniqueness is
// enforced by a partial unique index on pair_key over active statuses, so the
// check-then-insert race collapses into a single statement.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed connection store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const connectionColumns = `
	id, sender_id, receiver_id, status,
	sender_final_approve, receiver_final_approve,
	created_at, updated_at`

func (s *PostgresStore) FindByID(ctx context.Context, connID id.ConnectionID) (*Connection, error) {
	query := `SELECT` + connectionColumns + ` FROM connections WHERE id = $1`
	conn, err := scanConnection(s.db.QueryRowContext(ctx, query, connID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find connection: %w", err)
	}
	return conn, nil
}

func (s *PostgresStore) FindActiveByPair(ctx context.Context, a, b id.UserID) (*Connection, error) {
	query := `SELECT` + connectionColumns + `
		FROM connections
		WHERE pair_key = $1 AND status NOT IN ('rejected', 'handled')`
	conn, err := scanConnection(s.db.QueryRowContext(ctx, query, PairKey(a, b)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find active connection: %w", err)
	}
	return conn, nil
}

func (s *PostgresStore) CreateIfNoneActive(ctx context.Context, conn *Connection) error {
	if conn.CreatedAt.IsZero() {
		conn.CreatedAt = time.Now()
	}
	conn.UpdatedAt = conn.CreatedAt

	// The ON CONFLICT target is the partial unique index
	// connections_active_pair_idx; a concurrent insert for the same pair
	// affects zero rows instead of erroring.
	query := `
		INSERT INTO connections (` + connectionColumns + `, pair_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (pair_key) WHERE status NOT IN ('rejected', 'handled') DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query,
		conn.ID.String(), conn.SenderID.String(), conn.ReceiverID.String(), string(conn.Status),
		conn.SenderFinalApprove, conn.ReceiverFinalApprove,
		conn.CreatedAt, conn.UpdatedAt,
		PairKey(conn.SenderID, conn.ReceiverID),
	)
	if err != nil {
		return fmt.Errorf("create connection: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create connection: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) UpdateStatusIf(ctx context.Context, connID id.ConnectionID, from, to Status) (*Connection, error) {
	query := `
		UPDATE connections
		SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
		RETURNING` + connectionColumns
	conn, err := scanConnection(s.db.QueryRowContext(ctx, query, connID.String(), string(from), string(to)))
	if err == nil {
		return conn, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update connection status: %w", err)
	}
	// Zero rows: distinguish a missing row from a failed predicate.
	if _, findErr := s.FindByID(ctx, connID); findErr != nil {
		return nil, findErr
	}
	return nil, sentinel.ErrInvalidState
}

func (s *PostgresStore) SetFinalApproval(ctx context.Context, connID id.ConnectionID, side Side) (*Connection, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin final approval tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Row lock serializes the two sides approving within the same instant,
	// so exactly one of them observes the both-flags-true condition.
	lockQuery := `SELECT` + connectionColumns + ` FROM connections WHERE id = $1 FOR UPDATE`
	conn, err := scanConnection(tx.QueryRowContext(ctx, lockQuery, connID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, sentinel.ErrNotFound
		}
		return nil, false, fmt.Errorf("lock connection: %w", err)
	}

	switch conn.Status {
	case StatusMutualInterest:
	case StatusWaitingForShadchan:
		if conn.FinalApproved(side) {
			return conn, false, nil
		}
		return nil, false, sentinel.ErrInvalidState
	default:
		return nil, false, sentinel.ErrInvalidState
	}

	if side == SideSender {
		conn.SenderFinalApprove = true
	} else {
		conn.ReceiverFinalApprove = true
	}
	transitioned := false
	if conn.SenderFinalApprove && conn.ReceiverFinalApprove {
		conn.Status = StatusWaitingForShadchan
		transitioned = true
	}
	conn.UpdatedAt = time.Now()

	updateQuery := `
		UPDATE connections
		SET sender_final_approve = $2, receiver_final_approve = $3, status = $4, updated_at = $5
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, updateQuery,
		connID.String(), conn.SenderFinalApprove, conn.ReceiverFinalApprove,
		string(conn.Status), conn.UpdatedAt,
	); err != nil {
		return nil, false, fmt.Errorf("set final approval: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit final approval: %w", err)
	}
	return conn, transitioned, nil
}

func (s *PostgresStore) ListByStatus(ctx context.Context, status Status) ([]*Connection, error) {
	query := `SELECT` + connectionColumns + `
		FROM connections WHERE status = $1 ORDER BY created_at, id`
	return s.queryConnections(ctx, query, string(status))
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]*Connection, error) {
	query := `SELECT` + connectionColumns + `
		FROM connections WHERE sender_id = $1 OR receiver_id = $1 ORDER BY created_at, id`
	return s.queryConnections(ctx, query, userID.String())
}

func (s *PostgresStore) queryConnections(ctx context.Context, query string, args ...any) ([]*Connection, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	defer rows.Close()

	var out []*Connection
	for rows.Next() {
		conn, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		out = append(out, conn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConnection(row rowScanner) (*Connection, error) {
	var c Connection
	var rawID, rawSender, rawReceiver, rawStatus string
	err := row.Scan(
		&rawID, &rawSender, &rawReceiver, &rawStatus,
		&c.SenderFinalApprove, &c.ReceiverFinalApprove,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if c.ID, err = id.ParseConnectionID(rawID); err != nil {
		return nil, fmt.Errorf("corrupt connection id %q: %w", rawID, err)
	}
	if c.SenderID, err = id.ParseUserID(rawSender); err != nil {
		return nil, fmt.Errorf("corrupt sender id %q: %w", rawSender, err)
	}
	if c.ReceiverID, err = id.ParseUserID(rawReceiver); err != nil {
		return nil, fmt.Errorf("corrupt receiver id %q: %w", rawReceiver, err)
	}
	c.Status = Status(rawStatus)
	return &c, nil
}
