package vault

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mitojean/application-resume/internal/auth"
	"github.com/mitojean/application-resume/internal/db/models"
	"github.com/mitojean/application-resume/internal/middleware"
	"github.com/mitojean/application-resume/internal/vault"
)

const (
	testUserID = "user-1"
	testPIN    = "1234"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Setenv("APR_JWT_SECRET", "test-jwt-secret-that-is-32-chars!!")
	os.Exit(m.Run())
}

// fakeUserStore serves the PIN gate.
type fakeUserStore struct {
	user *models.User
}

func (f *fakeUserStore) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	if f.user != nil && f.user.ID == userID {
		return f.user, nil
	}
	return nil, nil
}

// fakeCredStore is an in-memory CredentialStore keyed by credential ID.
type fakeCredStore struct {
	creds map[string]*models.Credential
	err   error
}

func newFakeCredStore() *fakeCredStore {
	return &fakeCredStore{creds: make(map[string]*models.Credential)}
}

func (f *fakeCredStore) Insert(ctx context.Context, ownerID, siteLabel, accountIdentifier, envelope string, notes *string) (*models.Credential, error) {
	if f.err != nil {
		return nil, f.err
	}
	cred := &models.Credential{
		ID:                fmt.Sprintf("cred-%d", len(f.creds)+1),
		OwnerID:           ownerID,
		SiteLabel:         siteLabel,
		AccountIdentifier: accountIdentifier,
		Envelope:          envelope,
		Notes:             notes,
		CreatedAt:         time.Now(),
		ModifiedAt:        time.Now(),
	}
	f.creds[cred.ID] = cred
	return cred, nil
}

func (f *fakeCredStore) ListByOwner(ctx context.Context, ownerID string) ([]*models.Credential, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.Credential
	for _, c := range f.creds {
		if c.OwnerID == ownerID {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeCredStore) GetByIDAndOwner(ctx context.Context, id, ownerID string) (*models.Credential, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.creds[id]
	if !ok || c.OwnerID != ownerID {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (f *fakeCredStore) Update(ctx context.Context, id, ownerID string, patch models.CredentialPatch) (*models.Credential, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.creds[id]
	if !ok || c.OwnerID != ownerID {
		return nil, nil
	}
	if patch.SiteLabel != nil {
		c.SiteLabel = *patch.SiteLabel
	}
	if patch.AccountIdentifier != nil {
		c.AccountIdentifier = *patch.AccountIdentifier
	}
	if patch.Envelope != nil {
		c.Envelope = *patch.Envelope
	}
	if patch.Notes != nil {
		c.Notes = patch.Notes
	}
	copied := *c
	return &copied, nil
}

func (f *fakeCredStore) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	c, ok := f.creds[id]
	if !ok || c.OwnerID != ownerID {
		return false, nil
	}
	delete(f.creds, id)
	return true, nil
}

// fakeCipher seals by prefixing so tests can assert round-trips without
// real key material.
type fakeCipher struct{}

func (fakeCipher) Encrypt(plaintext string) (string, error) {
	return "sealed:" + plaintext, nil
}

func (fakeCipher) Decrypt(envelope string) (string, error) {
	if !strings.HasPrefix(envelope, "sealed:") {
		return "", fmt.Errorf("malformed envelope")
	}
	return strings.TrimPrefix(envelope, "sealed:"), nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *fakeCredStore) {
	t.Helper()
	pinHash, err := auth.HashSecret(testPIN)
	if err != nil {
		t.Fatalf("HashSecret: %v", err)
	}
	users := &fakeUserStore{user: &models.User{ID: testUserID, PINHash: &pinHash}}
	store := newFakeCredStore()
	svc := vault.NewService(fakeCipher{}, store, vault.NewGate(users))
	h := NewHandlers(svc)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, testUserID)
		c.Next()
	})
	r.POST("/passwords", h.AddHandler())
	r.GET("/passwords", h.ListHandler())
	r.POST("/passwords/:id/reveal", h.RevealHandler())
	r.PUT("/passwords/:id", h.UpdateHandler())
	r.DELETE("/passwords/:id", h.DeleteHandler())
	r.POST("/generate", h.GenerateHandler())
	r.POST("/strength", h.StrengthHandler())
	return r, store
}

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func seedCredential(t *testing.T, store *fakeCredStore, secret string) *models.Credential {
	t.Helper()
	cred, err := store.Insert(context.Background(), testUserID, "example.com", "me@example.com", "sealed:"+secret, nil)
	if err != nil {
		t.Fatalf("seed credential: %v", err)
	}
	return cred
}

// ---------------------------------------------------------------------------
// Add
// ---------------------------------------------------------------------------

func TestAdd_Success(t *testing.T) {
	r, store := newTestRouter(t)
	w := doJSON(r, http.MethodPost, "/passwords", gin.H{
		"site_label":         "example.com",
		"account_identifier": "me@example.com",
		"password":           "hunter2!",
		"pin":                testPIN,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body=%s", w.Code, w.Body.String())
	}
	if bytes.Contains(w.Body.Bytes(), []byte("hunter2!")) {
		t.Error("response leaked the plaintext password")
	}
	if bytes.Contains(w.Body.Bytes(), []byte("sealed:")) {
		t.Error("response leaked the envelope")
	}
	if len(store.creds) != 1 {
		t.Errorf("stored %d credentials, want 1", len(store.creds))
	}
	for _, c := range store.creds {
		if c.Envelope != "sealed:hunter2!" {
			t.Errorf("stored envelope = %q, want sealed plaintext", c.Envelope)
		}
	}
}

func TestAdd_WrongPIN(t *testing.T) {
	r, store := newTestRouter(t)
	w := doJSON(r, http.MethodPost, "/passwords", gin.H{
		"site_label":         "example.com",
		"account_identifier": "me@example.com",
		"password":           "hunter2!",
		"pin":                "9999",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if len(store.creds) != 0 {
		t.Error("credential was stored despite a rejected PIN")
	}
}

func TestAdd_MissingFields(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(r, http.MethodPost, "/passwords", gin.H{"pin": testPIN})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

// ---------------------------------------------------------------------------
// List
// ---------------------------------------------------------------------------

func TestList_NoSecretsNoPIN(t *testing.T) {
	r, store := newTestRouter(t)
	seedCredential(t, store, "top-secret")

	// No PIN in a list request: metadata is session-gated only.
	w := doJSON(r, http.MethodGet, "/passwords", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", w.Code, w.Body.String())
	}
	if bytes.Contains(w.Body.Bytes(), []byte("top-secret")) {
		t.Error("listing leaked a plaintext secret")
	}
	if bytes.Contains(w.Body.Bytes(), []byte("sealed:")) {
		t.Error("listing leaked an envelope")
	}

	var resp struct {
		Credentials []json.RawMessage `json:"credentials"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Credentials) != 1 {
		t.Errorf("listed %d credentials, want 1", len(resp.Credentials))
	}
}

// ---------------------------------------------------------------------------
// Reveal
// ---------------------------------------------------------------------------

func TestReveal_Success(t *testing.T) {
	r, store := newTestRouter(t)
	cred := seedCredential(t, store, "top-secret")

	w := doJSON(r, http.MethodPost, "/passwords/"+cred.ID+"/reveal", gin.H{"pin": testPIN})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Credential struct {
			Secret string `json:"secret"`
		} `json:"credential"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Credential.Secret != "top-secret" {
		t.Errorf("secret = %q, want top-secret", resp.Credential.Secret)
	}
}

func TestReveal_WrongPIN(t *testing.T) {
	r, store := newTestRouter(t)
	cred := seedCredential(t, store, "top-secret")

	w := doJSON(r, http.MethodPost, "/passwords/"+cred.ID+"/reveal", gin.H{"pin": "0000"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if bytes.Contains(w.Body.Bytes(), []byte("top-secret")) {
		t.Error("rejected reveal still leaked the secret")
	}
}

func TestReveal_UnknownID(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(r, http.MethodPost, "/passwords/no-such-id/reveal", gin.H{"pin": testPIN})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestReveal_CorruptEnvelope(t *testing.T) {
	r, store := newTestRouter(t)
	cred := seedCredential(t, store, "top-secret")
	store.creds[cred.ID].Envelope = "garbage"

	w := doJSON(r, http.MethodPost, "/passwords/"+cred.ID+"/reveal", gin.H{"pin": testPIN})
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("Internal server error")) {
		t.Errorf("body = %s, want generic internal error", w.Body.String())
	}
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func TestUpdate_Metadata(t *testing.T) {
	r, store := newTestRouter(t)
	cred := seedCredential(t, store, "top-secret")

	w := doJSON(r, http.MethodPut, "/passwords/"+cred.ID, gin.H{
		"site_label": "renamed.example.com",
		"pin":        testPIN,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", w.Code, w.Body.String())
	}
	if store.creds[cred.ID].SiteLabel != "renamed.example.com" {
		t.Errorf("stored site_label = %q, want renamed.example.com", store.creds[cred.ID].SiteLabel)
	}
	if store.creds[cred.ID].Envelope != "sealed:top-secret" {
		t.Error("metadata-only update touched the envelope")
	}
}

func TestUpdate_Password_Reseals(t *testing.T) {
	r, store := newTestRouter(t)
	cred := seedCredential(t, store, "old-secret")

	w := doJSON(r, http.MethodPut, "/passwords/"+cred.ID, gin.H{
		"password": "new-secret",
		"pin":      testPIN,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", w.Code, w.Body.String())
	}
	if store.creds[cred.ID].Envelope != "sealed:new-secret" {
		t.Errorf("stored envelope = %q, want resealed new secret", store.creds[cred.ID].Envelope)
	}
	if bytes.Contains(w.Body.Bytes(), []byte("new-secret")) {
		t.Error("update response leaked the new plaintext")
	}
}

func TestUpdate_EmptyPatch(t *testing.T) {
	r, store := newTestRouter(t)
	cred := seedCredential(t, store, "top-secret")

	w := doJSON(r, http.MethodPut, "/passwords/"+cred.ID, gin.H{"pin": testPIN})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestUpdate_UnknownID(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(r, http.MethodPut, "/passwords/no-such-id", gin.H{
		"site_label": "renamed",
		"pin":        testPIN,
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestDelete_Success(t *testing.T) {
	r, store := newTestRouter(t)
	cred := seedCredential(t, store, "top-secret")

	w := doJSON(r, http.MethodDelete, "/passwords/"+cred.ID, gin.H{"pin": testPIN})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", w.Code, w.Body.String())
	}
	if len(store.creds) != 0 {
		t.Error("credential still present after delete")
	}
}

func TestDelete_WrongPIN(t *testing.T) {
	r, store := newTestRouter(t)
	cred := seedCredential(t, store, "top-secret")

	w := doJSON(r, http.MethodDelete, "/passwords/"+cred.ID, gin.H{"pin": "0000"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if len(store.creds) != 1 {
		t.Error("credential deleted despite a rejected PIN")
	}
}

func TestDelete_UnknownID(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(r, http.MethodDelete, "/passwords/no-such-id", gin.H{"pin": testPIN})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

// ---------------------------------------------------------------------------
// Generate / Strength
// ---------------------------------------------------------------------------

func TestGenerate_DefaultLength(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(r, http.MethodPost, "/generate", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Password string `json:"password"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Password) != vault.DefaultGeneratedLength {
		t.Errorf("generated length = %d, want %d", len(resp.Password), vault.DefaultGeneratedLength)
	}
}

func TestGenerate_CustomLength(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(r, http.MethodPost, "/generate", gin.H{"length": 32})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Password string `json:"password"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Password) != 32 {
		t.Errorf("generated length = %d, want 32", len(resp.Password))
	}
}

func TestGenerate_TooShort(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(r, http.MethodPost, "/generate", gin.H{"length": 2})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestStrength(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(r, http.MethodPost, "/strength", gin.H{"password": "StrongP@ss123"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Score    int      `json:"score"`
		Feedback []string `json:"feedback"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Score != 6 {
		t.Errorf("score = %d, want 6", resp.Score)
	}
	if len(resp.Feedback) != 1 || resp.Feedback[0] != "strong" {
		t.Errorf("feedback = %v, want [strong]", resp.Feedback)
	}
}

func TestStrength_MissingPassword(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(r, http.MethodPost, "/strength", gin.H{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
