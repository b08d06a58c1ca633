package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/snapdish/snapdish-server/internal/models"
	"github.com/snapdish/snapdish-server/pkg/database"
)

type BookmarkHandler struct {
	db *database.DB
}

func NewBookmarkHandler(db *database.DB) *BookmarkHandler {
	return &BookmarkHandler{db: db}
}

// List returns the user's saved recipes, newest first
// GET /api/v1/bookmarks
func (h *BookmarkHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	rows, err := h.db.Pool.Query(r.Context(), `
		SELECT user_id, recipe_id, title, image_url, ready_in_minutes, created_at
		FROM bookmarks
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to query bookmarks")
		respondError(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	bookmarks := make([]models.Bookmark, 0)
	for rows.Next() {
		var b models.Bookmark
		if err := rows.Scan(&b.UserID, &b.RecipeID, &b.Title, &b.ImageURL, &b.ReadyInMinutes, &b.CreatedAt); err != nil {
			respondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		bookmarks = append(bookmarks, b)
	}

	respondJSON(w, http.StatusOK, bookmarks)
}

type saveBookmarkRequest struct {
	RecipeID       int64  `json:"recipe_id"`
	Title          string `json:"title"`
	ImageURL       string `json:"image_url"`
	ReadyInMinutes int    `json:"ready_in_minutes"`
}

// Save bookmarks a recipe. Saving the same recipe twice refreshes its
// metadata instead of failing.
// POST /api/v1/bookmarks
func (h *BookmarkHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req saveBookmarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.RecipeID <= 0 || strings.TrimSpace(req.Title) == "" {
		respondError(w, http.StatusBadRequest, "recipe_id and title are required")
		return
	}

	var b models.Bookmark
	err := h.db.Pool.QueryRow(r.Context(), `
		INSERT INTO bookmarks (user_id, recipe_id, title, image_url, ready_in_minutes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, recipe_id) DO UPDATE SET
			title = EXCLUDED.title,
			image_url = EXCLUDED.image_url,
			ready_in_minutes = EXCLUDED.ready_in_minutes
		RETURNING user_id, recipe_id, title, image_url, ready_in_minutes, created_at
	`, userID, req.RecipeID, req.Title, req.ImageURL, req.ReadyInMinutes).Scan(
		&b.UserID, &b.RecipeID, &b.Title, &b.ImageURL, &b.ReadyInMinutes, &b.CreatedAt,
	)
	if err != nil {
		log.Error().Err(err).Msg("Failed to save bookmark")
		respondError(w, http.StatusInternalServerError, "Database error")
		return
	}

	respondJSON(w, http.StatusCreated, b)
}

// Delete removes a saved recipe
// DELETE /api/v1/bookmarks/{recipeId}
func (h *BookmarkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	recipeID, err := strconv.ParseInt(chi.URLParam(r, "recipeId"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid recipe ID")
		return
	}

	tag, err := h.db.Pool.Exec(r.Context(),
		`DELETE FROM bookmarks WHERE user_id = $1 AND recipe_id = $2`,
		userID, recipeID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to delete bookmark")
		respondError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if tag.RowsAffected() == 0 {
		respondError(w, http.StatusNotFound, "Bookmark not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
