// Package domain defines typed identifiers shared across slices.
//
// Each ID is a distinct UUID-backed type so the compiler catches swapped
// arguments (a real hazard here: almost every operation takes two user IDs).
// Construct via ParseXxxID at trust boundaries to enforce validity; direct
// casting bypasses validation.
package domain

import (
	"github.com/google/uuid"

	dErrors "kesher/pkg/domain-errors"
)

type (
	// UserID identifies a user record. Users are owned by the profile
	// subsystem; this core only references them.
	UserID uuid.UUID

	// ConnectionID identifies a connection case between two users.
	ConnectionID uuid.UUID

	// EditRequestID identifies a pending profile edit awaiting moderation.
	EditRequestID uuid.UUID
)

// NewUserID returns a fresh random UserID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewConnectionID returns a fresh random ConnectionID.
func NewConnectionID() ConnectionID { return ConnectionID(uuid.New()) }

// NewEditRequestID returns a fresh random EditRequestID.
func NewEditRequestID() EditRequestID { return EditRequestID(uuid.New()) }

func (id UserID) String() string        { return uuid.UUID(id).String() }
func (id ConnectionID) String() string  { return uuid.UUID(id).String() }
func (id EditRequestID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id ConnectionID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id EditRequestID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText makes ids serialize as canonical UUID strings in JSON and
// other text encodings. Defined types do not inherit uuid.UUID's methods.
func (id UserID) MarshalText() ([]byte, error)        { return []byte(id.String()), nil }
func (id ConnectionID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id EditRequestID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = UserID(u)
	return nil
}

func (id *ConnectionID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = ConnectionID(u)
	return nil
}

func (id *EditRequestID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = EditRequestID(u)
	return nil
}

// ParseUserID constructs a UserID from external input.
//
// Errors: returns CodeInvalidInput when the value is empty, malformed, or the
// nil UUID; no other errors are expected.
func ParseUserID(s string) (UserID, error) {
	u, err := parse(s)
	if err != nil {
		return UserID{}, err
	}
	return UserID(u), nil
}

// ParseConnectionID constructs a ConnectionID from external input.
func ParseConnectionID(s string) (ConnectionID, error) {
	u, err := parse(s)
	if err != nil {
		return ConnectionID{}, err
	}
	return ConnectionID(u), nil
}

// ParseEditRequestID constructs an EditRequestID from external input.
func ParseEditRequestID(s string) (EditRequestID, error) {
	u, err := parse(s)
	if err != nil {
		return EditRequestID{}, err
	}
	return EditRequestID(u), nil
}

func parse(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}
