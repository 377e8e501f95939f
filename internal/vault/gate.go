// gate.go implements the PIN stage of the vault's two-stage access gate.
// The session stage (bearer JWT) runs in internal/middleware before any
// vault handler executes; this gate runs inside the service, after the
// session stage but before any store or codec call, for every operation
// that can reveal or alter secret material or destroy a record. Listing
// metadata needs only the session.
package vault

import (
	"context"

	"github.com/mitojean/application-resume/internal/auth"
	"github.com/mitojean/application-resume/internal/db/models"
	"github.com/mitojean/application-resume/internal/telemetry"
)

// UserStore is the slice of the user repository the gate needs.
type UserStore interface {
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
}

// Gate verifies the secondary vault PIN for an already-authenticated user.
type Gate struct {
	users UserStore
}

// NewGate creates a PIN gate backed by the given user store.
func NewGate(users UserStore) *Gate {
	return &Gate{users: users}
}

// VerifyPIN checks the submitted PIN against the stored bcrypt hash for
// userID. The caller must already hold a valid session for userID.
//
// Failure modes, in evaluation order:
//   - empty PIN → ValidationError (the request is missing a required field)
//   - unknown user or storage failure → StorageError
//   - no PIN enrolled → ValidationError directing the user to enroll one
//   - mismatch → AuthenticationError (a wrong PIN is a failed credential)
func (g *Gate) VerifyPIN(ctx context.Context, userID, pin string) error {
	if pin == "" {
		telemetry.GateRejectionsTotal.WithLabelValues("missing_pin").Inc()
		return NewValidationError("PIN required")
	}

	user, err := g.users.GetUserByID(ctx, userID)
	if err != nil {
		return storageErr("load user", err)
	}
	if user == nil {
		// The session middleware already loaded this user; reaching here
		// means the account was deleted mid-session.
		return NewAuthenticationError("invalid session")
	}
	if !user.HasPIN() {
		telemetry.GateRejectionsTotal.WithLabelValues("not_enrolled").Inc()
		return NewValidationError("no vault PIN enrolled")
	}

	if !auth.VerifySecret(pin, *user.PINHash) {
		telemetry.GateRejectionsTotal.WithLabelValues("invalid_pin").Inc()
		return NewAuthenticationError("invalid PIN")
	}

	return nil
}
