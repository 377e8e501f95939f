// Package accounts implements HTTP handlers for registration, login, session
// introspection, and vault PIN enrollment.
package accounts

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mitojean/application-resume/internal/auth"
	"github.com/mitojean/application-resume/internal/db/models"
	"github.com/mitojean/application-resume/internal/db/repositories"
	"github.com/mitojean/application-resume/internal/middleware"
	"github.com/mitojean/application-resume/internal/safego"
)

// emailPattern is deliberately loose: real validation happens when the user
// receives mail at the address. This only rejects obvious garbage.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const minPasswordLength = 8

// credentialCounter is the slice of the credential store the account
// endpoints need: /me reports how many credentials the caller has stored.
type credentialCounter interface {
	CountByOwner(ctx context.Context, ownerID string) (int, error)
}

// Handlers bundles the account endpoints and their dependencies.
type Handlers struct {
	userRepo    *repositories.UserRepository
	creds       credentialCounter
	tokenExpiry time.Duration
}

// NewHandlers creates account handlers backed by the given stores.
func NewHandlers(userRepo *repositories.UserRepository, creds credentialCounter, tokenExpiry time.Duration) *Handlers {
	return &Handlers{userRepo: userRepo, creds: creds, tokenExpiry: tokenExpiry}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// @Summary      Register a new account
// @Description  Create an account with email and password. The password is bcrypt-hashed before storage.
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        body  body  registerRequest  true  "Registration payload"
// @Success      201  {object}  map[string]interface{}  "Created user"
// @Failure      400  {object}  map[string]interface{}  "Invalid email or password"
// @Failure      409  {object}  map[string]interface{}  "Email already registered"
// @Router       /api/v1/auth/register [post]
// RegisterHandler creates a new account.
// POST /api/v1/auth/register
func (h *Handlers) RegisterHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))
		if !emailPattern.MatchString(email) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email address"})
			return
		}
		if len(req.Password) < minPasswordLength {
			c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 8 characters"})
			return
		}

		existing, err := h.userRepo.GetUserByEmail(c.Request.Context(), email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check existing account"})
			return
		}
		if existing != nil {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}

		hash, err := auth.HashSecret(req.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}

		user := &models.User{Email: email, PasswordHash: hash}
		if err := h.userRepo.CreateUser(c.Request.Context(), user); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
			return
		}

		slog.Info("account registered", "user_id", user.ID)
		c.JSON(http.StatusCreated, gin.H{"user": user})
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// @Summary      Log in
// @Description  Verify email and password and issue a session JWT.
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        body  body  loginRequest  true  "Login payload"
// @Success      200  {object}  map[string]interface{}  "JWT token and user"
// @Failure      401  {object}  map[string]interface{}  "Invalid credentials"
// @Router       /api/v1/auth/login [post]
// LoginHandler verifies credentials and issues a session token.
// POST /api/v1/auth/login
func (h *Handlers) LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))
		user, err := h.userRepo.GetUserByEmail(c.Request.Context(), email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up account"})
			return
		}
		// Unknown email and wrong password produce the same response so the
		// endpoint cannot be used to probe which addresses are registered.
		if user == nil || !auth.VerifySecret(req.Password, user.PasswordHash) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}

		token, err := auth.GenerateJWT(user.ID, user.Email, h.tokenExpiry)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}

		// Best-effort: a failed timestamp update must not fail the login.
		// The request context dies when the response is written, so the
		// goroutine gets its own.
		userID := user.ID
		repo := h.userRepo
		safego.Go("update-last-login", func() {
			if err := repo.UpdateLastLogin(context.Background(), userID); err != nil {
				slog.Warn("failed to update last login", "user_id", userID, "error", err)
			}
		})

		c.JSON(http.StatusOK, gin.H{
			"token":      token,
			"expires_in": int(h.tokenExpiry.Seconds()),
			"user":       user,
		})
	}
}

// @Summary      Get current user
// @Description  Return the authenticated account, including whether a vault PIN is enrolled.
// @Tags         Authentication
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "Current user"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Router       /api/v1/auth/me [get]
// MeHandler returns the authenticated account.
// GET /api/v1/auth/me
func (h *Handlers) MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userVal, exists := c.Get(middleware.UserKey)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}
		user, ok := userVal.(*models.User)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user in context"})
			return
		}

		// Best-effort: the count is informational, so a store error degrades
		// to zero rather than failing the whole introspection call.
		count, err := h.creds.CountByOwner(c.Request.Context(), user.ID)
		if err != nil {
			slog.Warn("failed to count credentials", "user_id", user.ID, "error", err)
			count = 0
		}

		c.JSON(http.StatusOK, gin.H{
			"user":             user,
			"has_pin":          user.HasPIN(),
			"credential_count": count,
		})
	}
}

type deleteAccountRequest struct {
	Password string `json:"password" binding:"required"`
}

// @Summary      Delete the current account
// @Description  Permanently delete the authenticated account. Stored credentials and notes are removed with it. Requires the account password as confirmation.
// @Tags         Authentication
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  deleteAccountRequest  true  "Confirmation payload"
// @Success      200  {object}  map[string]interface{}  "Account deleted"
// @Failure      400  {object}  map[string]interface{}  "Password missing"
// @Failure      401  {object}  map[string]interface{}  "Wrong password"
// @Router       /api/v1/auth/me [delete]
// DeleteAccountHandler deletes the caller's account and, via the schema's
// cascading foreign keys, every credential and note it owns.
// DELETE /api/v1/auth/me
func (h *Handlers) DeleteAccountHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userVal, exists := c.Get(middleware.UserKey)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}
		user, ok := userVal.(*models.User)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user in context"})
			return
		}

		var req deleteAccountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "password is required"})
			return
		}

		// A live session is not enough to destroy the vault; deletion is
		// re-confirmed with the account password.
		if !auth.VerifySecret(req.Password, user.PasswordHash) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid password"})
			return
		}

		if err := h.userRepo.DeleteUser(c.Request.Context(), user.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete account"})
			return
		}

		slog.Info("account deleted", "user_id", user.ID)
		c.JSON(http.StatusOK, gin.H{"message": "account deleted"})
	}
}

type enrollPINRequest struct {
	PIN string `json:"pin" binding:"required"`
}

// @Summary      Enroll or replace the vault PIN
// @Description  Set the 4-8 digit PIN that gates vault operations. Replacing an existing PIN does not re-encrypt stored credentials.
// @Tags         Authentication
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  enrollPINRequest  true  "PIN payload"
// @Success      200  {object}  map[string]interface{}  "PIN enrolled"
// @Failure      400  {object}  map[string]interface{}  "Invalid PIN format"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Router       /api/v1/auth/pin [put]
// EnrollPINHandler sets or replaces the caller's vault PIN.
// PUT /api/v1/auth/pin
func (h *Handlers) EnrollPINHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(middleware.UserIDKey)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		var req enrollPINRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "pin is required"})
			return
		}
		if err := auth.ValidatePINFormat(req.PIN); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		hash, err := auth.HashSecret(req.PIN)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash PIN"})
			return
		}
		if err := h.userRepo.SetPINHash(c.Request.Context(), userID, hash); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store PIN"})
			return
		}

		slog.Info("vault PIN enrolled", "user_id", userID)
		c.JSON(http.StatusOK, gin.H{"message": "PIN enrolled"})
	}
}
