// Package user carries the user-record boundary this core depends on.
// Registration and the profile CRUD forms are owned by the profile subsystem;
// here we only read records, apply moderated edits, and expose contact cards
// to the shadchan surface.
package user

import (
	"strings"
	"time"

	id "kesher/pkg/domain"
)

// User is the slice of the profile record this core reads and (through
// moderated edits) writes.
type User struct {
	ID        id.UserID
	FirstName string
	LastName  string
	Email     string
	Phone     string

	Age              int
	Gender           string
	MaritalStatus    string
	HasChildren      bool
	ChildrenCount    int
	FamilyBackground string
	HeritageSector   string
	HeightCM         int

	City       string
	Occupation string
	AboutMe    string

	// Contact routing: when ContactPersonType is not "self" the shadchan
	// reaches the contact person, not the candidate.
	ContactPersonType string
	ContactName       string
	ContactPhone      string

	// References holds free-form reference details (names and phones of
	// rabbis, friends, previous shadchanim). Disclosed only via AdminHandoff.
	References string

	IsApproved bool
	IsBlocked  bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName joins first and last name for display surfaces.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// ContactCard is the sensitive contact/reference projection disclosed to the
// shadchan once a case reaches full mutual approval. It must never appear in
// user-facing responses.
type ContactCard struct {
	UserID            id.UserID `json:"user_id"`
	FullName          string    `json:"full_name"`
	Phone             string    `json:"phone"`
	Email             string    `json:"email"`
	ContactPersonType string    `json:"contact_person_type"`
	ContactName       string    `json:"contact_name,omitempty"`
	ContactPhone      string    `json:"contact_phone,omitempty"`
	References        string    `json:"references,omitempty"`
}

// ContactCard builds the moderator-facing projection of the record.
func (u User) ContactCard() ContactCard {
	return ContactCard{
		UserID:            u.ID,
		FullName:          u.FullName(),
		Phone:             u.Phone,
		Email:             u.Email,
		ContactPersonType: u.ContactPersonType,
		ContactName:       u.ContactName,
		ContactPhone:      u.ContactPhone,
		References:        u.References,
	}
}
