// Package vault implements the HTTP surface of the credential vault:
// owner-scoped CRUD on stored passwords, reveal, and the generator and
// strength helper endpoints.
package vault

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mitojean/application-resume/internal/middleware"
	"github.com/mitojean/application-resume/internal/telemetry"
	"github.com/mitojean/application-resume/internal/vault"
)

// Handlers bundles the vault endpoints around the vault service.
type Handlers struct {
	svc *vault.Service
}

// NewHandlers creates vault handlers backed by the given service.
func NewHandlers(svc *vault.Service) *Handlers {
	return &Handlers{svc: svc}
}

// respondError translates the service error taxonomy into HTTP responses.
// Internal failures are logged with detail but serialized as a generic
// message: decryption and storage errors describe server state, not client
// input, and must not leak.
func respondError(c *gin.Context, operation string, err error) {
	var verr *vault.ValidationError
	var aerr *vault.AuthenticationError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
	case errors.As(err, &aerr):
		c.JSON(http.StatusUnauthorized, gin.H{"error": aerr.Message})
	case errors.Is(err, vault.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "credential not found"})
	case errors.Is(err, vault.ErrNoFieldsToUpdate):
		c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
	default:
		slog.Error("vault operation failed", "operation", operation, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
	telemetry.VaultOperationsTotal.WithLabelValues(operation, "error").Inc()
}

type addCredentialRequest struct {
	SiteLabel         string  `json:"site_label" binding:"required"`
	AccountIdentifier string  `json:"account_identifier" binding:"required"`
	Password          string  `json:"password" binding:"required"`
	Notes             *string `json:"notes"`
	PIN               string  `json:"pin"`
}

// @Summary      Add a credential
// @Description  Encrypt and store a new credential. Requires the vault PIN.
// @Tags         Vault
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  addCredentialRequest  true  "Credential payload"
// @Success      201  {object}  map[string]interface{}  "Stored credential metadata"
// @Failure      400  {object}  map[string]interface{}  "Validation failure"
// @Failure      401  {object}  map[string]interface{}  "Bad PIN or session"
// @Router       /api/v1/vault/passwords [post]
// AddHandler stores a new credential.
// POST /api/v1/vault/passwords
func (h *Handlers) AddHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addCredentialRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "site_label, account_identifier and password are required"})
			return
		}

		cred, err := h.svc.AddCredential(c.Request.Context(), c.GetString(middleware.UserIDKey), vault.AddCredentialInput{
			SiteLabel:         req.SiteLabel,
			AccountIdentifier: req.AccountIdentifier,
			Secret:            req.Password,
			Notes:             req.Notes,
			PIN:               req.PIN,
		})
		if err != nil {
			respondError(c, "add", err)
			return
		}

		telemetry.VaultOperationsTotal.WithLabelValues("add", "ok").Inc()
		c.JSON(http.StatusCreated, gin.H{"credential": cred})
	}
}

// @Summary      List credentials
// @Description  Return the caller's credentials as metadata only. Secrets are never included; no PIN required.
// @Tags         Vault
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "Credential metadata list"
// @Router       /api/v1/vault/passwords [get]
// ListHandler lists the caller's credentials.
// GET /api/v1/vault/passwords
func (h *Handlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		creds, err := h.svc.ListCredentials(c.Request.Context(), c.GetString(middleware.UserIDKey))
		if err != nil {
			respondError(c, "list", err)
			return
		}

		telemetry.VaultOperationsTotal.WithLabelValues("list", "ok").Inc()
		c.JSON(http.StatusOK, gin.H{"credentials": creds})
	}
}

type pinRequest struct {
	PIN string `json:"pin"`
}

// @Summary      Reveal a credential
// @Description  Decrypt one credential and return its plaintext password. Requires the vault PIN.
// @Tags         Vault
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string      true  "Credential ID"
// @Param        body  body  pinRequest  true  "PIN payload"
// @Success      200  {object}  map[string]interface{}  "Credential with plaintext password"
// @Failure      401  {object}  map[string]interface{}  "Bad PIN or session"
// @Failure      404  {object}  map[string]interface{}  "Unknown or foreign credential"
// @Router       /api/v1/vault/passwords/{id}/reveal [post]
// RevealHandler decrypts one credential.
// POST /api/v1/vault/passwords/:id/reveal
func (h *Handlers) RevealHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req pinRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "pin is required"})
			return
		}

		revealed, err := h.svc.RevealCredential(c.Request.Context(), c.Param("id"), c.GetString(middleware.UserIDKey), req.PIN)
		if err != nil {
			respondError(c, "reveal", err)
			return
		}

		telemetry.VaultOperationsTotal.WithLabelValues("reveal", "ok").Inc()
		c.JSON(http.StatusOK, gin.H{"credential": revealed})
	}
}

type updateCredentialRequest struct {
	SiteLabel         *string `json:"site_label"`
	AccountIdentifier *string `json:"account_identifier"`
	Password          *string `json:"password"`
	Notes             *string `json:"notes"`
	PIN               string  `json:"pin"`
}

// @Summary      Update a credential
// @Description  Apply a partial update. A supplied password is re-encrypted into a fresh envelope. Requires the vault PIN.
// @Tags         Vault
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "Credential ID"
// @Param        body  body  updateCredentialRequest  true  "Fields to change"
// @Success      200  {object}  map[string]interface{}  "Updated credential metadata"
// @Failure      400  {object}  map[string]interface{}  "Empty patch or validation failure"
// @Failure      401  {object}  map[string]interface{}  "Bad PIN or session"
// @Failure      404  {object}  map[string]interface{}  "Unknown or foreign credential"
// @Router       /api/v1/vault/passwords/{id} [put]
// UpdateHandler applies a partial update to one credential.
// PUT /api/v1/vault/passwords/:id
func (h *Handlers) UpdateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateCredentialRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		cred, err := h.svc.UpdateCredential(c.Request.Context(), c.Param("id"), c.GetString(middleware.UserIDKey), vault.UpdateCredentialInput{
			SiteLabel:         req.SiteLabel,
			AccountIdentifier: req.AccountIdentifier,
			Secret:            req.Password,
			Notes:             req.Notes,
			PIN:               req.PIN,
		})
		if err != nil {
			respondError(c, "update", err)
			return
		}

		telemetry.VaultOperationsTotal.WithLabelValues("update", "ok").Inc()
		c.JSON(http.StatusOK, gin.H{"credential": cred})
	}
}

// @Summary      Delete a credential
// @Description  Remove one credential permanently. Requires the vault PIN.
// @Tags         Vault
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string      true  "Credential ID"
// @Param        body  body  pinRequest  true  "PIN payload"
// @Success      200  {object}  map[string]interface{}  "Deleted"
// @Failure      401  {object}  map[string]interface{}  "Bad PIN or session"
// @Failure      404  {object}  map[string]interface{}  "Unknown or foreign credential"
// @Router       /api/v1/vault/passwords/{id} [delete]
// DeleteHandler removes one credential.
// DELETE /api/v1/vault/passwords/:id
func (h *Handlers) DeleteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req pinRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "pin is required"})
			return
		}

		err := h.svc.DeleteCredential(c.Request.Context(), c.Param("id"), c.GetString(middleware.UserIDKey), req.PIN)
		if err != nil {
			respondError(c, "delete", err)
			return
		}

		telemetry.VaultOperationsTotal.WithLabelValues("delete", "ok").Inc()
		c.JSON(http.StatusOK, gin.H{"message": "credential deleted"})
	}
}

type generateRequest struct {
	Length int `json:"length"`
}

// @Summary      Generate a password
// @Description  Produce a random password with at least one character from each class. Length defaults to 16; minimum 4.
// @Tags         Vault
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  generateRequest  false  "Desired length (0 = default)"
// @Success      200  {object}  map[string]interface{}  "Generated password"
// @Failure      400  {object}  map[string]interface{}  "Length too short"
// @Router       /api/v1/vault/generate [post]
// GenerateHandler produces a random password. Nothing is stored.
// POST /api/v1/vault/generate
func (h *Handlers) GenerateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req generateRequest
		// Body is optional: an empty body means the default length.
		_ = c.ShouldBindJSON(&req)

		password, err := vault.GeneratePassword(req.Length)
		if err != nil {
			var verr *vault.ValidationError
			if errors.As(err, &verr) {
				c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
				return
			}
			slog.Error("password generation failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		telemetry.PasswordsGeneratedTotal.Inc()
		c.JSON(http.StatusOK, gin.H{"password": password})
	}
}

type strengthRequest struct {
	Password string `json:"password" binding:"required"`
}

// @Summary      Check password strength
// @Description  Score a candidate password 0-6 and list the unmet criteria. The password is neither stored nor logged.
// @Tags         Vault
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  strengthRequest  true  "Candidate password"
// @Success      200  {object}  vault.StrengthReport  "Score and feedback"
// @Failure      400  {object}  map[string]interface{}  "Missing password"
// @Router       /api/v1/vault/strength [post]
// StrengthHandler scores a candidate password.
// POST /api/v1/vault/strength
func (h *Handlers) StrengthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req strengthRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "password is required"})
			return
		}

		c.JSON(http.StatusOK, vault.CheckStrength(req.Password))
	}
}
