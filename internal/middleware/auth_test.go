package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"github.com/mitojean/application-resume/internal/auth"
	"github.com/mitojean/application-resume/internal/db/repositories"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var authUserCols = []string{
	"id", "email", "password_hash", "pin_hash", "last_login_at", "created_at", "updated_at",
}

func newUserRepo(t *testing.T) (*repositories.UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return repositories.NewUserRepository(db), mock
}

func generateTestJWT(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.GenerateJWT(userID, "test@example.com", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	return token
}

// newAuthRouter builds a router with AuthMiddleware using a nil repo.
// A nil repo is safe for early-exit paths that abort before any repo call.
func newAuthRouter() *gin.Engine {
	r := gin.New()
	r.Use(AuthMiddleware(nil))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func doAuthRequest(r *gin.Engine, authHeader string) int {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	r.ServeHTTP(w, req)
	return w.Code
}

// ---------------------------------------------------------------------------
// AuthMiddleware: early-exit paths (no repository calls needed)
// ---------------------------------------------------------------------------

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	if code := doAuthRequest(newAuthRouter(), ""); code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", code)
	}
}

func TestAuthMiddleware_NonBearerPrefix(t *testing.T) {
	if code := doAuthRequest(newAuthRouter(), "Basic dXNlcjpwYXNz"); code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", code)
	}
}

func TestAuthMiddleware_EmptyToken(t *testing.T) {
	// "Bearer " with only whitespace → trimmed to empty → 401
	if code := doAuthRequest(newAuthRouter(), "Bearer   "); code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", code)
	}
}

func TestAuthMiddleware_GarbageToken(t *testing.T) {
	if code := doAuthRequest(newAuthRouter(), "Bearer not-a-jwt"); code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", code)
	}
}

// ---------------------------------------------------------------------------
// AuthMiddleware: valid JWT paths
// ---------------------------------------------------------------------------

func TestAuthMiddleware_ValidToken(t *testing.T) {
	userRepo, mock := newUserRepo(t)
	mock.ExpectQuery("SELECT.*FROM users.*WHERE id").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(authUserCols).
			AddRow("user-1", "test@example.com", "hash", nil, nil, time.Now(), time.Now()))

	var gotUserID string
	r := gin.New()
	r.Use(AuthMiddleware(userRepo))
	r.GET("/", func(c *gin.Context) {
		gotUserID = c.GetString(UserIDKey)
		c.Status(http.StatusOK)
	})

	code := doAuthRequest(r, "Bearer "+generateTestJWT(t, "user-1"))
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if gotUserID != "user-1" {
		t.Errorf("user_id in context = %q, want user-1", gotUserID)
	}
}

func TestAuthMiddleware_ValidTokenDeletedUser(t *testing.T) {
	userRepo, mock := newUserRepo(t)
	mock.ExpectQuery("SELECT.*FROM users.*WHERE id").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(authUserCols)) // no rows

	r := gin.New()
	r.Use(AuthMiddleware(userRepo))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	if code := doAuthRequest(r, "Bearer "+generateTestJWT(t, "ghost")); code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 for deleted user", code)
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	token, err := auth.GenerateJWT("user-1", "test@example.com", -time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	if code := doAuthRequest(newAuthRouter(), "Bearer "+token); code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 for expired token", code)
	}
}
