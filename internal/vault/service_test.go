package vault

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mitojean/application-resume/internal/db/models"
)

// recordingStore implements CredentialStore and counts every call so the
// tests can prove the gate short-circuits before persistence is touched.
type recordingStore struct {
	calls []string

	insertResult *models.Credential
	listResult   []*models.Credential
	getResult    *models.Credential
	updateResult *models.Credential
	deleteFound  bool
	err          error
}

func (r *recordingStore) Insert(ctx context.Context, ownerID, siteLabel, accountIdentifier, envelope string, notes *string) (*models.Credential, error) {
	r.calls = append(r.calls, "insert")
	return r.insertResult, r.err
}

func (r *recordingStore) ListByOwner(ctx context.Context, ownerID string) ([]*models.Credential, error) {
	r.calls = append(r.calls, "list")
	return r.listResult, r.err
}

func (r *recordingStore) GetByIDAndOwner(ctx context.Context, id, ownerID string) (*models.Credential, error) {
	r.calls = append(r.calls, "get")
	return r.getResult, r.err
}

func (r *recordingStore) Update(ctx context.Context, id, ownerID string, patch models.CredentialPatch) (*models.Credential, error) {
	r.calls = append(r.calls, "update")
	return r.updateResult, r.err
}

func (r *recordingStore) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	r.calls = append(r.calls, "delete")
	return r.deleteFound, r.err
}

// recordingCipher implements Cipher with reversible fake sealing and call
// counting.
type recordingCipher struct {
	encrypts int
	decrypts int
	err      error
}

func (r *recordingCipher) Encrypt(plaintext string) (string, error) {
	r.encrypts++
	if r.err != nil {
		return "", r.err
	}
	return "sealed:" + plaintext, nil
}

func (r *recordingCipher) Decrypt(envelope string) (string, error) {
	r.decrypts++
	if r.err != nil {
		return "", r.err
	}
	return strings.TrimPrefix(envelope, "sealed:"), nil
}

const (
	testOwner = "owner-1"
	testPIN   = "1234"
)

func newTestService(t *testing.T, store *recordingStore, cipher *recordingCipher) *Service {
	t.Helper()
	users := &fakeUserStore{user: enrolledUser(t, testPIN)}
	return NewService(cipher, store, NewGate(users))
}

func TestAddCredential(t *testing.T) {
	stored := &models.Credential{ID: "cred-1", SiteLabel: "example.com"}
	store := &recordingStore{insertResult: stored}
	cipher := &recordingCipher{}
	svc := newTestService(t, store, cipher)

	cred, err := svc.AddCredential(context.Background(), testOwner, AddCredentialInput{
		SiteLabel:         "example.com",
		AccountIdentifier: "someone@example.com",
		Secret:            "hunter2",
		PIN:               testPIN,
	})
	if err != nil {
		t.Fatalf("AddCredential() error: %v", err)
	}
	if cred.ID != "cred-1" {
		t.Errorf("ID = %q, want cred-1", cred.ID)
	}
	if cipher.encrypts != 1 {
		t.Errorf("encrypt calls = %d, want 1", cipher.encrypts)
	}
	if len(store.calls) != 1 || store.calls[0] != "insert" {
		t.Errorf("store calls = %v, want [insert]", store.calls)
	}
}

func TestAddCredential_GateShortCircuits(t *testing.T) {
	store := &recordingStore{}
	cipher := &recordingCipher{}
	svc := newTestService(t, store, cipher)

	_, err := svc.AddCredential(context.Background(), testOwner, AddCredentialInput{
		SiteLabel:         "example.com",
		AccountIdentifier: "someone@example.com",
		Secret:            "hunter2",
		PIN:               "9999",
	})
	var aerr *AuthenticationError
	if !errors.As(err, &aerr) {
		t.Fatalf("error = %v, want AuthenticationError", err)
	}
	if len(store.calls) != 0 {
		t.Errorf("store reached after gate failure: %v", store.calls)
	}
	if cipher.encrypts != 0 {
		t.Errorf("cipher reached after gate failure: %d encrypts", cipher.encrypts)
	}
}

func TestAddCredential_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   AddCredentialInput
	}{
		{"missing site label", AddCredentialInput{AccountIdentifier: "a", Secret: "s", PIN: testPIN}},
		{"missing account identifier", AddCredentialInput{SiteLabel: "l", Secret: "s", PIN: testPIN}},
		{"missing secret", AddCredentialInput{SiteLabel: "l", AccountIdentifier: "a", PIN: testPIN}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &recordingStore{}
			cipher := &recordingCipher{}
			svc := newTestService(t, store, cipher)

			_, err := svc.AddCredential(context.Background(), testOwner, tt.in)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if len(store.calls) != 0 || cipher.encrypts != 0 {
				t.Error("store or cipher reached on invalid input")
			}
		})
	}
}

func TestListCredentials_NoPINAndNoEnvelope(t *testing.T) {
	store := &recordingStore{listResult: []*models.Credential{
		{ID: "cred-1", Envelope: "aa:bb:cc"},
		{ID: "cred-2", Envelope: "dd:ee:ff"},
	}}
	cipher := &recordingCipher{}
	// No enrolled PIN at all: listing must still work.
	users := &fakeUserStore{user: &models.User{ID: testOwner}}
	svc := NewService(cipher, store, NewGate(users))

	creds, err := svc.ListCredentials(context.Background(), testOwner)
	if err != nil {
		t.Fatalf("ListCredentials() error: %v", err)
	}
	if len(creds) != 2 {
		t.Fatalf("len = %d, want 2", len(creds))
	}
	for _, c := range creds {
		if c.Envelope != "" {
			t.Errorf("credential %s leaked its envelope", c.ID)
		}
	}
	if cipher.decrypts != 0 {
		t.Errorf("listing decrypted %d envelopes, want 0", cipher.decrypts)
	}
}

func TestRevealCredential(t *testing.T) {
	store := &recordingStore{getResult: &models.Credential{ID: "cred-1", Envelope: "sealed:hunter2"}}
	cipher := &recordingCipher{}
	svc := newTestService(t, store, cipher)

	revealed, err := svc.RevealCredential(context.Background(), "cred-1", testOwner, testPIN)
	if err != nil {
		t.Fatalf("RevealCredential() error: %v", err)
	}
	if revealed.Secret != "hunter2" {
		t.Errorf("Secret = %q, want hunter2", revealed.Secret)
	}
	if revealed.Envelope != "" {
		t.Error("revealed credential still carries its envelope")
	}
}

func TestRevealCredential_NotFound(t *testing.T) {
	store := &recordingStore{}
	cipher := &recordingCipher{}
	svc := newTestService(t, store, cipher)

	_, err := svc.RevealCredential(context.Background(), "missing", testOwner, testPIN)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if cipher.decrypts != 0 {
		t.Error("cipher reached for a missing credential")
	}
}

func TestRevealCredential_GateShortCircuits(t *testing.T) {
	store := &recordingStore{getResult: &models.Credential{ID: "cred-1", Envelope: "sealed:hunter2"}}
	cipher := &recordingCipher{}
	svc := newTestService(t, store, cipher)

	_, err := svc.RevealCredential(context.Background(), "cred-1", testOwner, "")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if len(store.calls) != 0 || cipher.decrypts != 0 {
		t.Error("store or cipher reached after gate failure")
	}
}

func TestRevealCredential_DecryptFailure(t *testing.T) {
	store := &recordingStore{getResult: &models.Credential{ID: "cred-1", Envelope: "garbage"}}
	cipher := &recordingCipher{err: errors.New("cipher: message authentication failed")}
	svc := newTestService(t, store, cipher)

	_, err := svc.RevealCredential(context.Background(), "cred-1", testOwner, testPIN)
	if err == nil {
		t.Fatal("RevealCredential() succeeded on a corrupt envelope")
	}
	var verr *ValidationError
	var aerr *AuthenticationError
	if errors.As(err, &verr) || errors.As(err, &aerr) {
		t.Errorf("corruption surfaced as a client error: %v", err)
	}
}

func TestUpdateCredential_EmptyPatch(t *testing.T) {
	store := &recordingStore{}
	cipher := &recordingCipher{}
	svc := newTestService(t, store, cipher)

	_, err := svc.UpdateCredential(context.Background(), "cred-1", testOwner, UpdateCredentialInput{PIN: testPIN})
	if !errors.Is(err, ErrNoFieldsToUpdate) {
		t.Fatalf("error = %v, want ErrNoFieldsToUpdate", err)
	}
	if len(store.calls) != 0 || cipher.encrypts != 0 {
		t.Error("store or cipher reached for an empty update")
	}
}

func TestUpdateCredential_NewSecretResealed(t *testing.T) {
	store := &recordingStore{updateResult: &models.Credential{ID: "cred-1"}}
	cipher := &recordingCipher{}
	svc := newTestService(t, store, cipher)

	secret := "n3w-s3cret"
	cred, err := svc.UpdateCredential(context.Background(), "cred-1", testOwner, UpdateCredentialInput{
		Secret: &secret,
		PIN:    testPIN,
	})
	if err != nil {
		t.Fatalf("UpdateCredential() error: %v", err)
	}
	if cred.ID != "cred-1" {
		t.Errorf("ID = %q, want cred-1", cred.ID)
	}
	if cipher.encrypts != 1 {
		t.Errorf("encrypt calls = %d, want 1", cipher.encrypts)
	}
}

func TestUpdateCredential_EmptySecretRejected(t *testing.T) {
	store := &recordingStore{}
	cipher := &recordingCipher{}
	svc := newTestService(t, store, cipher)

	empty := ""
	_, err := svc.UpdateCredential(context.Background(), "cred-1", testOwner, UpdateCredentialInput{
		Secret: &empty,
		PIN:    testPIN,
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if len(store.calls) != 0 {
		t.Error("store reached for an empty replacement secret")
	}
}

func TestUpdateCredential_NotFound(t *testing.T) {
	store := &recordingStore{}
	cipher := &recordingCipher{}
	svc := newTestService(t, store, cipher)

	label := "renamed.example.com"
	_, err := svc.UpdateCredential(context.Background(), "missing", testOwner, UpdateCredentialInput{
		SiteLabel: &label,
		PIN:       testPIN,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestDeleteCredential(t *testing.T) {
	store := &recordingStore{deleteFound: true}
	svc := newTestService(t, store, &recordingCipher{})

	if err := svc.DeleteCredential(context.Background(), "cred-1", testOwner, testPIN); err != nil {
		t.Fatalf("DeleteCredential() error: %v", err)
	}
}

func TestDeleteCredential_NotFound(t *testing.T) {
	store := &recordingStore{}
	svc := newTestService(t, store, &recordingCipher{})

	err := svc.DeleteCredential(context.Background(), "missing", testOwner, testPIN)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestDeleteCredential_GateShortCircuits(t *testing.T) {
	store := &recordingStore{deleteFound: true}
	svc := newTestService(t, store, &recordingCipher{})

	err := svc.DeleteCredential(context.Background(), "cred-1", testOwner, "0000")
	var aerr *AuthenticationError
	if !errors.As(err, &aerr) {
		t.Fatalf("error = %v, want AuthenticationError", err)
	}
	if len(store.calls) != 0 {
		t.Errorf("store reached after gate failure: %v", store.calls)
	}
}
