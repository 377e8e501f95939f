package models

import "time"

// Credential is one stored third-party login, owned by a single user. The
// Envelope field is the only confidential column: it holds the
// AES-GCM-sealed password in the nonce:ciphertext:tag hex format produced
// by internal/crypto. Everything else is plaintext metadata, including
// Notes, which deliberately matches the historical at-rest layout even
// though encrypting it has been discussed.
type Credential struct {
	ID      string `db:"id" json:"id"`
	OwnerID string `db:"owner_id" json:"-"`
	// SiteLabel is the user-facing name of the site or service.
	SiteLabel string `db:"site_label" json:"site_label"`
	// AccountIdentifier is the username/email used at that site.
	AccountIdentifier string    `db:"account_identifier" json:"account_identifier"`
	Envelope          string    `db:"envelope" json:"-"`
	Notes             *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	ModifiedAt        time.Time `db:"modified_at" json:"modified_at"`
}

// CredentialPatch carries the mutable fields of a credential for partial
// updates. Nil means "leave unchanged". Envelope is set by the vault
// service after re-encrypting a new secret; callers outside the service
// never supply it directly.
type CredentialPatch struct {
	SiteLabel         *string
	AccountIdentifier *string
	Envelope          *string
	Notes             *string
}

// IsEmpty reports whether the patch carries no changes.
func (p CredentialPatch) IsEmpty() bool {
	return p.SiteLabel == nil && p.AccountIdentifier == nil && p.Envelope == nil && p.Notes == nil
}
