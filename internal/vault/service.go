// Package vault implements the password-manager core: the service that
// orchestrates the envelope codec and the credential store, the PIN stage of
// the access gate, and the password generator/strength helpers.
//
// The service is the only component that touches both the codec and the
// store. Plaintext secrets exist only inside a single request: they arrive
// in an add/update call, are sealed before the store sees them, and are
// unsealed only in RevealCredential after the gate has passed. Listings
// never decrypt anything.
package vault

import (
	"context"
	"fmt"

	"github.com/mitojean/application-resume/internal/db/models"
)

// CredentialStore is the persistence contract the service depends on.
// Implemented by repositories.CredentialRepository; tests substitute mocks.
type CredentialStore interface {
	Insert(ctx context.Context, ownerID, siteLabel, accountIdentifier, envelope string, notes *string) (*models.Credential, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Credential, error)
	GetByIDAndOwner(ctx context.Context, id, ownerID string) (*models.Credential, error)
	Update(ctx context.Context, id, ownerID string, patch models.CredentialPatch) (*models.Credential, error)
	Delete(ctx context.Context, id, ownerID string) (bool, error)
}

// Cipher is the envelope codec contract. Implemented by
// crypto.EnvelopeCipher.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(envelope string) (string, error)
}

// Service orchestrates vault use-cases. Safe for concurrent use: the cipher
// key is immutable after startup and the store owns no cross-call state.
type Service struct {
	cipher Cipher
	creds  CredentialStore
	gate   *Gate
}

// NewService wires a vault service from its three collaborators.
func NewService(cipher Cipher, creds CredentialStore, gate *Gate) *Service {
	return &Service{cipher: cipher, creds: creds, gate: gate}
}

// AddCredentialInput carries the fields for a new vault entry plus the PIN
// for the gate.
type AddCredentialInput struct {
	SiteLabel         string
	AccountIdentifier string
	Secret            string
	Notes             *string
	PIN               string
}

// UpdateCredentialInput carries a partial update. Nil means unchanged. A new
// Secret is re-encrypted into a fresh envelope before the store is called.
type UpdateCredentialInput struct {
	SiteLabel         *string
	AccountIdentifier *string
	Secret            *string
	Notes             *string
	PIN               string
}

// RevealedCredential is a credential with its secret decrypted. The envelope
// itself is never serialized (json:"-" on the embedded model).
type RevealedCredential struct {
	*models.Credential
	Secret string `json:"secret"`
}

// AddCredential seals the secret and stores a new credential. PIN-gated: the
// operation writes secret material.
func (s *Service) AddCredential(ctx context.Context, ownerID string, in AddCredentialInput) (*models.Credential, error) {
	if err := s.gate.VerifyPIN(ctx, ownerID, in.PIN); err != nil {
		return nil, err
	}
	if in.SiteLabel == "" {
		return nil, NewValidationError("site_label is required")
	}
	if in.AccountIdentifier == "" {
		return nil, NewValidationError("account_identifier is required")
	}
	if in.Secret == "" {
		return nil, NewValidationError("password is required")
	}

	envelope, err := s.cipher.Encrypt(in.Secret)
	if err != nil {
		return nil, fmt.Errorf("sealing credential for owner %s: %w", ownerID, err)
	}

	cred, err := s.creds.Insert(ctx, ownerID, in.SiteLabel, in.AccountIdentifier, envelope, in.Notes)
	if err != nil {
		return nil, storageErr("insert credential", err)
	}
	return cred, nil
}

// ListCredentials returns the owner's credentials as metadata only. The
// envelope is cleared before the records leave the service so no caller can
// accidentally hand ciphertext to a client, and nothing is decrypted in
// bulk. Session-gated only: no PIN required to see metadata.
func (s *Service) ListCredentials(ctx context.Context, ownerID string) ([]*models.Credential, error) {
	creds, err := s.creds.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, storageErr("list credentials", err)
	}
	for _, c := range creds {
		c.Envelope = ""
	}
	return creds, nil
}

// RevealCredential returns one credential with its secret decrypted.
// PIN-gated. The gate runs before the store is touched. Decryption failures
// surface as-is: they mean data corruption or a key mismatch, never bad user
// input.
func (s *Service) RevealCredential(ctx context.Context, id, ownerID, pin string) (*RevealedCredential, error) {
	if err := s.gate.VerifyPIN(ctx, ownerID, pin); err != nil {
		return nil, err
	}

	cred, err := s.creds.GetByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		return nil, storageErr("get credential", err)
	}
	if cred == nil {
		return nil, ErrNotFound
	}

	secret, err := s.cipher.Decrypt(cred.Envelope)
	if err != nil {
		return nil, fmt.Errorf("opening envelope for credential %s: %w", id, err)
	}

	cred.Envelope = ""
	return &RevealedCredential{Credential: cred, Secret: secret}, nil
}

// UpdateCredential applies a partial update. PIN-gated. An empty update is
// rejected before any store or codec call. A supplied secret is sealed into
// a fresh envelope (fresh nonce) even if the plaintext is unchanged.
func (s *Service) UpdateCredential(ctx context.Context, id, ownerID string, in UpdateCredentialInput) (*models.Credential, error) {
	if err := s.gate.VerifyPIN(ctx, ownerID, in.PIN); err != nil {
		return nil, err
	}

	patch := models.CredentialPatch{
		SiteLabel:         in.SiteLabel,
		AccountIdentifier: in.AccountIdentifier,
		Notes:             in.Notes,
	}
	if in.Secret == nil && patch.IsEmpty() {
		return nil, ErrNoFieldsToUpdate
	}

	if in.Secret != nil {
		if *in.Secret == "" {
			return nil, NewValidationError("password cannot be empty")
		}
		envelope, err := s.cipher.Encrypt(*in.Secret)
		if err != nil {
			return nil, fmt.Errorf("sealing credential %s: %w", id, err)
		}
		patch.Envelope = &envelope
	}

	cred, err := s.creds.Update(ctx, id, ownerID, patch)
	if err != nil {
		return nil, storageErr("update credential", err)
	}
	if cred == nil {
		return nil, ErrNotFound
	}
	cred.Envelope = ""
	return cred, nil
}

// DeleteCredential removes a credential. PIN-gated: destroying a record
// alters the vault's contents as surely as rewriting one.
func (s *Service) DeleteCredential(ctx context.Context, id, ownerID, pin string) error {
	if err := s.gate.VerifyPIN(ctx, ownerID, pin); err != nil {
		return err
	}

	found, err := s.creds.Delete(ctx, id, ownerID)
	if err != nil {
		return storageErr("delete credential", err)
	}
	if !found {
		return ErrNotFound
	}
	return nil
}
