// Package notes implements owner-scoped CRUD handlers for plaintext notes.
// Notes sit behind the session stage only: they hold no secret material, so
// the vault PIN is not involved.
package notes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mitojean/application-resume/internal/db/repositories"
	"github.com/mitojean/application-resume/internal/middleware"
)

// Handlers bundles the note endpoints around the note repository.
type Handlers struct {
	noteRepo *repositories.NoteRepository
}

// NewHandlers creates note handlers backed by the given repository.
func NewHandlers(noteRepo *repositories.NoteRepository) *Handlers {
	return &Handlers{noteRepo: noteRepo}
}

type noteRequest struct {
	Title string `json:"title" binding:"required"`
	Body  string `json:"body"`
}

// @Summary      Create a note
// @Tags         Notes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  noteRequest  true  "Note payload"
// @Success      201  {object}  map[string]interface{}  "Created note"
// @Failure      400  {object}  map[string]interface{}  "Missing title"
// @Router       /api/v1/notes [post]
// CreateHandler stores a new note.
// POST /api/v1/notes
func (h *Handlers) CreateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req noteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
			return
		}

		note, err := h.noteRepo.Insert(c.Request.Context(), c.GetString(middleware.UserIDKey), req.Title, req.Body)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create note"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"note": note})
	}
}

// @Summary      List notes
// @Tags         Notes
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "Notes, most recently updated first"
// @Router       /api/v1/notes [get]
// ListHandler lists the caller's notes.
// GET /api/v1/notes
func (h *Handlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		notes, err := h.noteRepo.ListByOwner(c.Request.Context(), c.GetString(middleware.UserIDKey))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list notes"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"notes": notes})
	}
}

// @Summary      Get a note
// @Tags         Notes
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Note ID"
// @Success      200  {object}  map[string]interface{}  "Note"
// @Failure      404  {object}  map[string]interface{}  "Unknown or foreign note"
// @Router       /api/v1/notes/{id} [get]
// GetHandler returns one note.
// GET /api/v1/notes/:id
func (h *Handlers) GetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		note, err := h.noteRepo.GetByIDAndOwner(c.Request.Context(), c.Param("id"), c.GetString(middleware.UserIDKey))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load note"})
			return
		}
		if note == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "note not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"note": note})
	}
}

// @Summary      Update a note
// @Tags         Notes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string       true  "Note ID"
// @Param        body  body  noteRequest  true  "New title and body"
// @Success      200  {object}  map[string]interface{}  "Updated note"
// @Failure      404  {object}  map[string]interface{}  "Unknown or foreign note"
// @Router       /api/v1/notes/{id} [put]
// UpdateHandler replaces a note's title and body.
// PUT /api/v1/notes/:id
func (h *Handlers) UpdateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req noteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
			return
		}

		note, err := h.noteRepo.Update(c.Request.Context(), c.Param("id"), c.GetString(middleware.UserIDKey), req.Title, req.Body)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update note"})
			return
		}
		if note == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "note not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"note": note})
	}
}

// @Summary      Delete a note
// @Tags         Notes
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Note ID"
// @Success      200  {object}  map[string]interface{}  "Deleted"
// @Failure      404  {object}  map[string]interface{}  "Unknown or foreign note"
// @Router       /api/v1/notes/{id} [delete]
// DeleteHandler removes one note.
// DELETE /api/v1/notes/:id
func (h *Handlers) DeleteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		found, err := h.noteRepo.Delete(c.Request.Context(), c.Param("id"), c.GetString(middleware.UserIDKey))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete note"})
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "note not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "note deleted"})
	}
}
