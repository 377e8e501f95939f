// credential_repository.go implements CredentialRepository, the persistence
// layer for encrypted vault entries. Every query is scoped by (id, owner_id)
// so a record owned by someone else resolves exactly like a record that does
// not exist; the repository never distinguishes the two. This layer moves
// envelopes around as opaque strings; encryption and decryption happen only
// in the vault service.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mitojean/application-resume/internal/db/models"
)

// CredentialRepository handles database operations for vault credentials
type CredentialRepository struct {
	db *sqlx.DB
}

// NewCredentialRepository creates a new credential repository
func NewCredentialRepository(db *sqlx.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Insert stores a new credential and returns it with the server-assigned id
// and timestamps.
func (r *CredentialRepository) Insert(ctx context.Context, ownerID, siteLabel, accountIdentifier, envelope string, notes *string) (*models.Credential, error) {
	now := time.Now()
	cred := &models.Credential{
		ID:                uuid.New().String(),
		OwnerID:           ownerID,
		SiteLabel:         siteLabel,
		AccountIdentifier: accountIdentifier,
		Envelope:          envelope,
		Notes:             notes,
		CreatedAt:         now,
		ModifiedAt:        now,
	}

	query := `
		INSERT INTO credentials (id, owner_id, site_label, account_identifier, envelope, notes, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		cred.ID,
		cred.OwnerID,
		cred.SiteLabel,
		cred.AccountIdentifier,
		cred.Envelope,
		cred.Notes,
		cred.CreatedAt,
		cred.ModifiedAt,
	)
	if err != nil {
		return nil, err
	}

	return cred, nil
}

// ListByOwner returns all credentials belonging to ownerID, ordered by site
// label for a stable listing. Envelopes ride along but are stripped before
// any response leaves the service layer.
func (r *CredentialRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Credential, error) {
	query := `
		SELECT id, owner_id, site_label, account_identifier, envelope, notes, created_at, modified_at
		FROM credentials
		WHERE owner_id = $1
		ORDER BY site_label ASC
	`

	creds := make([]*models.Credential, 0)
	if err := r.db.SelectContext(ctx, &creds, query, ownerID); err != nil {
		return nil, err
	}
	return creds, nil
}

// GetByIDAndOwner retrieves one credential scoped by owner. Returns
// (nil, nil) when the record is absent or owned by a different user.
func (r *CredentialRepository) GetByIDAndOwner(ctx context.Context, id, ownerID string) (*models.Credential, error) {
	query := `
		SELECT id, owner_id, site_label, account_identifier, envelope, notes, created_at, modified_at
		FROM credentials
		WHERE id = $1 AND owner_id = $2
	`

	cred := &models.Credential{}
	err := r.db.GetContext(ctx, cred, query, id, ownerID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return cred, nil
}

// Update applies the non-nil fields of patch to the credential scoped by
// (id, owner). modified_at is refreshed here, not by the caller. Returns
// (nil, nil) when no row matched. Callers must not pass an empty patch; the
// vault service rejects those before reaching this layer.
func (r *CredentialRepository) Update(ctx context.Context, id, ownerID string, patch models.CredentialPatch) (*models.Credential, error) {
	setClauses := []string{}
	args := []interface{}{}
	arg := 1

	addSet := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, arg))
		args = append(args, value)
		arg++
	}

	if patch.SiteLabel != nil {
		addSet("site_label", *patch.SiteLabel)
	}
	if patch.AccountIdentifier != nil {
		addSet("account_identifier", *patch.AccountIdentifier)
	}
	if patch.Envelope != nil {
		addSet("envelope", *patch.Envelope)
	}
	if patch.Notes != nil {
		addSet("notes", *patch.Notes)
	}
	addSet("modified_at", time.Now())

	query := fmt.Sprintf(`
		UPDATE credentials
		SET %s
		WHERE id = $%d AND owner_id = $%d
		RETURNING id, owner_id, site_label, account_identifier, envelope, notes, created_at, modified_at
	`, strings.Join(setClauses, ", "), arg, arg+1)
	args = append(args, id, ownerID)

	cred := &models.Credential{}
	err := r.db.GetContext(ctx, cred, query, args...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return cred, nil
}

// Delete removes the credential scoped by (id, owner). The bool reports
// whether a row was actually deleted.
func (r *CredentialRepository) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	query := `DELETE FROM credentials WHERE id = $1 AND owner_id = $2`

	res, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// CountByOwner returns the number of credentials a user has stored.
func (r *CredentialRepository) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var total int
	query := `SELECT COUNT(*) FROM credentials WHERE owner_id = $1`
	err := r.db.GetContext(ctx, &total, query, ownerID)
	return total, err
}
