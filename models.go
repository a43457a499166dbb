package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserStatus is the lifecycle status of a user account
type UserStatus = string

const (
	// UserStatusPending is a user created during registration, no password yet
	UserStatusPending UserStatus = "pending"
	// UserStatusActive is a fully converted, usable account
	UserStatusActive UserStatus = "active"
	// UserStatusSuspended is a temporarily blocked account
	UserStatusSuspended UserStatus = "suspended"
	// UserStatusArchived is a terminal state, account retired
	UserStatusArchived UserStatus = "archived"
)

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username      string     `bun:"username,notnull,unique" json:"username,omitempty"`
	FirstName     string     `bun:"first_name,notnull" json:"first_name,omitempty"`
	LastName      string     `bun:"last_name,notnull" json:"last_name,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone         string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"-"`
	Status        UserStatus `bun:"status,notnull" json:"status,omitempty"`
	PracticeID    *uuid.UUID `bun:"practice_id,nullzero,type:uuid" json:"practice_id,omitempty"`
	ConvertedAt   *time.Time `bun:"converted_at,nullzero" json:"converted_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureStatus backfills the zero value so legacy rows behave as active accounts
func (u *User) EnsureStatus() {
	if u == nil {
		return
	}
	if u.Status == "" {
		u.Status = UserStatusActive
	}
}

// DisplayName joins the name fields for email salutations
func (u *User) DisplayName() string {
	switch {
	case u == nil:
		return ""
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// MedicalPractice is the institution owned by a master user
type MedicalPractice struct {
	bun.BaseModel `bun:"table:medical_practices,alias:prc"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull,unique" json:"name,omitempty"`
	AddressLine1  string     `bun:"address_line_1,notnull" json:"address_line_1,omitempty"`
	AddressLine2  string     `bun:"address_line_2" json:"address_line_2,omitempty"`
	City          string     `bun:"city,notnull" json:"city,omitempty"`
	State         string     `bun:"state" json:"state,omitempty"`
	Postcode      string     `bun:"postcode,notnull" json:"postcode,omitempty"`
	MasterUserID  *uuid.UUID `bun:"master_user_id,notnull,type:uuid" json:"master_user_id,omitempty"`
	MasterUser    *User      `bun:"rel:has-one,join:master_user_id=id" json:"master_user,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// RegistrationKind is the audience a registration token was issued for
type RegistrationKind = string

const (
	// KindPracticeAdmin converts into the master user of a practice
	KindPracticeAdmin RegistrationKind = "practice_admin"
	// KindGP converts into a practitioner attached to an existing practice
	KindGP RegistrationKind = "gp"
	// KindPatient converts into a patient account
	KindPatient RegistrationKind = "patient"
)

// RegistrationToken is the single-use credential that gates conversion of a
// pending user. The row ID doubles as the token string sent in the signup URL.
type RegistrationToken struct {
	bun.BaseModel `bun:"table:registration_tokens,alias:rtk"`
	ID            uuid.UUID        `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        *uuid.UUID       `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User          *User            `bun:"rel:has-one,join:user_id=id" json:"user,omitempty"`
	Kind          RegistrationKind `bun:"kind,notnull" json:"kind,omitempty"`
	ConsumedAt    *time.Time       `bun:"consumed_at,nullzero" json:"consumed_at,omitempty"`
	CreatedAt     *time.Time       `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Consumed reports whether the token was already spent
func (t *RegistrationToken) Consumed() bool {
	return t != nil && t.ConsumedAt != nil
}

// MarkTokenConsumed builds the update record for a consumed token
func MarkTokenConsumed(id uuid.UUID) *RegistrationToken {
	t := &RegistrationToken{}
	t.ID = id
	n := time.Now()
	t.ConsumedAt = &n
	return t
}

// PermissionWildcard grants every permission. Operators hold this single
// catch-all grant instead of an exhaustive list.
const PermissionWildcard = "*"

// PermissionGrant assigns one named permission to one user
type PermissionGrant struct {
	bun.BaseModel `bun:"table:permission_grants,alias:pgr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        *uuid.UUID `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}
