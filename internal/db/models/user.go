// Package models defines the database model types for the backend.
// Each type corresponds to a database table and uses struct tags for both
// JSON serialization and sqlx row scanning. Models are pure data types —
// business logic belongs in the service layer, query logic in the
// repositories layer.
package models

import "time"

// User represents an account holder.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	// PINHash is the bcrypt hash of the vault PIN. Nil until the user
	// enrolls a PIN; vault operations that need the PIN stage fail until
	// then.
	PINHash     *string    `db:"pin_hash" json:"-"`
	LastLoginAt *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// HasPIN reports whether the user has enrolled a vault PIN.
func (u *User) HasPIN() bool {
	return u.PINHash != nil && *u.PINHash != ""
}
