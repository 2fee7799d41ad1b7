package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	id "kesher/pkg/domain"
	"kesher/pkg/platform/sentinel"
	"kesher/pkg/platform/tx"
)

// PostgresStore persists user records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed user store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = `
	id, first_name, last_name, email, phone,
	age, gender, marital_status, has_children, children_count,
	family_background, heritage_sector, height_cm,
	city, occupation, about_me,
	contact_person_type, contact_name, contact_phone, refs,
	is_approved, is_blocked, created_at, updated_at`

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE id = $1`
	row := tx.Q(ctx, s.db).QueryRowContext(ctx, query, userID.String())
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) Save(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
		ON CONFLICT (id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			age = EXCLUDED.age,
			gender = EXCLUDED.gender,
			marital_status = EXCLUDED.marital_status,
			has_children = EXCLUDED.has_children,
			children_count = EXCLUDED.children_count,
			family_background = EXCLUDED.family_background,
			heritage_sector = EXCLUDED.heritage_sector,
			height_cm = EXCLUDED.height_cm,
			city = EXCLUDED.city,
			occupation = EXCLUDED.occupation,
			about_me = EXCLUDED.about_me,
			contact_person_type = EXCLUDED.contact_person_type,
			contact_name = EXCLUDED.contact_name,
			contact_phone = EXCLUDED.contact_phone,
			refs = EXCLUDED.refs,
			is_approved = EXCLUDED.is_approved,
			is_blocked = EXCLUDED.is_blocked,
			updated_at = EXCLUDED.updated_at
	`
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	_, err := tx.Q(ctx, s.db).ExecContext(ctx, query,
		u.ID.String(), u.FirstName, u.LastName, u.Email, u.Phone,
		u.Age, u.Gender, u.MaritalStatus, u.HasChildren, u.ChildrenCount,
		u.FamilyBackground, u.HeritageSector, u.HeightCM,
		u.City, u.Occupation, u.AboutMe,
		u.ContactPersonType, u.ContactName, u.ContactPhone, u.References,
		u.IsApproved, u.IsBlocked, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	var rawID string
	err := row.Scan(
		&rawID, &u.FirstName, &u.LastName, &u.Email, &u.Phone,
		&u.Age, &u.Gender, &u.MaritalStatus, &u.HasChildren, &u.ChildrenCount,
		&u.FamilyBackground, &u.HeritageSector, &u.HeightCM,
		&u.City, &u.Occupation, &u.AboutMe,
		&u.ContactPersonType, &u.ContactName, &u.ContactPhone, &u.References,
		&u.IsApproved, &u.IsBlocked, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	parsed, err := id.ParseUserID(rawID)
	if err != nil {
		return nil, fmt.Errorf("corrupt user id %q: %w", rawID, err)
	}
	u.ID = parsed
	return &u, nil
}
