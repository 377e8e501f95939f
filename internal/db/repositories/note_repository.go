// note_repository.go implements NoteRepository, owner-scoped persistence for
// the notes feature. Same (id, owner_id) scoping discipline as credentials.
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mitojean/application-resume/internal/db/models"
)

// NoteRepository handles database operations for notes
type NoteRepository struct {
	db *sqlx.DB
}

// NewNoteRepository creates a new note repository
func NewNoteRepository(db *sqlx.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// Insert stores a new note
func (r *NoteRepository) Insert(ctx context.Context, ownerID, title, body string) (*models.Note, error) {
	now := time.Now()
	note := &models.Note{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Title:     title,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `
		INSERT INTO notes (id, owner_id, title, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.db.ExecContext(ctx, query, note.ID, note.OwnerID, note.Title, note.Body, note.CreatedAt, note.UpdatedAt); err != nil {
		return nil, err
	}
	return note, nil
}

// ListByOwner returns all notes belonging to ownerID, newest first
func (r *NoteRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Note, error) {
	query := `
		SELECT id, owner_id, title, body, created_at, updated_at
		FROM notes
		WHERE owner_id = $1
		ORDER BY updated_at DESC
	`

	notes := make([]*models.Note, 0)
	if err := r.db.SelectContext(ctx, &notes, query, ownerID); err != nil {
		return nil, err
	}
	return notes, nil
}

// GetByIDAndOwner retrieves one note scoped by owner; (nil, nil) when absent
// or owned by someone else.
func (r *NoteRepository) GetByIDAndOwner(ctx context.Context, id, ownerID string) (*models.Note, error) {
	query := `
		SELECT id, owner_id, title, body, created_at, updated_at
		FROM notes
		WHERE id = $1 AND owner_id = $2
	`

	note := &models.Note{}
	err := r.db.GetContext(ctx, note, query, id, ownerID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return note, nil
}

// Update replaces the title and body of a note scoped by (id, owner);
// (nil, nil) when no row matched.
func (r *NoteRepository) Update(ctx context.Context, id, ownerID, title, body string) (*models.Note, error) {
	query := `
		UPDATE notes
		SET title = $3, body = $4, updated_at = $5
		WHERE id = $1 AND owner_id = $2
		RETURNING id, owner_id, title, body, created_at, updated_at
	`

	note := &models.Note{}
	err := r.db.GetContext(ctx, note, query, id, ownerID, title, body, time.Now())
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return note, nil
}

// Delete removes a note scoped by (id, owner); the bool reports whether a
// row was deleted.
func (r *NoteRepository) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	query := `DELETE FROM notes WHERE id = $1 AND owner_id = $2`

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
