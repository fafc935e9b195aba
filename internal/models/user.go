package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	id          uuid.UUID
	identityRef IdentityRef
	name        Name
	email       Email
	username    Username
	createdAt   time.Time
	lastLogin   *time.Time
	premium     bool
	deleted     bool
	businessIDs []uuid.UUID
}

// NewUser builds a user at signup. A user cannot be created already deleted
// and its creation time may not lie in the future.
func NewUser(id uuid.UUID, ref IdentityRef, name Name, email Email, createdAt time.Time, premium, deleted bool) (*User, error) {
	if id == uuid.Nil {
		return nil, NewValidationError("user_id", "must not be empty")
	}
	if ref.IsZero() {
		return nil, NewValidationError("identity_ref", "must not be empty")
	}
	if deleted {
		return nil, NewValidationError("is_deleted", "a new user cannot be deleted")
	}
	if createdAt.IsZero() || createdAt.After(time.Now()) {
		return nil, NewValidationError("created_at", "must be in the past")
	}
	return &User{
		id:          id,
		identityRef: ref,
		name:        name,
		email:       email,
		createdAt:   createdAt,
		premium:     premium,
	}, nil
}

// UserRecord is the stored shape of a user, used to rehydrate entities.
type UserRecord struct {
	ID          uuid.UUID
	IdentityRef string
	FirstName   string
	LastName    string
	Email       string
	Username    string
	CreatedAt   time.Time
	LastLogin   *time.Time
	Premium     bool
	Deleted     bool
	BusinessIDs []uuid.UUID
}

// RestoreUser rebuilds a user from storage. Name parts are taken as stored
// since signup may have left them empty.
func RestoreUser(r UserRecord) (*User, error) {
	ref, err := NewIdentityRef(r.IdentityRef)
	if err != nil {
		return nil, err
	}
	email, err := NewEmail(r.Email)
	if err != nil {
		return nil, err
	}
	u := &User{
		id:          r.ID,
		identityRef: ref,
		name:        Name{first: r.FirstName, last: r.LastName},
		email:       email,
		createdAt:   r.CreatedAt,
		lastLogin:   r.LastLogin,
		premium:     r.Premium,
		deleted:     r.Deleted,
		businessIDs: r.BusinessIDs,
	}
	if r.Username != "" {
		if u.username, err = NewUsername(r.Username); err != nil {
			return nil, err
		}
	}
	return u, nil
}

func (u *User) ID() uuid.UUID            { return u.id }
func (u *User) IdentityRef() IdentityRef { return u.identityRef }
func (u *User) Name() Name               { return u.name }
func (u *User) Email() Email             { return u.email }
func (u *User) Username() Username       { return u.username }
func (u *User) CreatedAt() time.Time     { return u.createdAt }
func (u *User) LastLogin() *time.Time    { return u.lastLogin }
func (u *User) IsPremium() bool          { return u.premium }
func (u *User) IsDeleted() bool          { return u.deleted }

func (u *User) BusinessIDs() []uuid.UUID {
	return append([]uuid.UUID(nil), u.businessIDs...)
}

func (u *User) SetName(n Name)                 { u.name = n }
func (u *User) SetEmail(e Email)               { u.email = e }
func (u *User) SetUsername(n Username)         { u.username = n }
func (u *User) SetIdentityRef(ref IdentityRef) { u.identityRef = ref }

func (u *User) MarkLoggedIn(at time.Time) {
	u.lastLogin = &at
}

func (u *User) MarkDeleted() {
	u.deleted = true
}
