package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/snapdish/snapdish-server/internal/services"
	"github.com/snapdish/snapdish-server/pkg/keypool"
)

type RecipeHandler struct {
	recipes *services.RecipeService
}

func NewRecipeHandler(recipes *services.RecipeService) *RecipeHandler {
	return &RecipeHandler{recipes: recipes}
}

// Search finds recipes by ingredients
// GET /api/v1/recipes/search?ingredients=egg,milk&number=10
func (h *RecipeHandler) Search(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("ingredients")
	if strings.TrimSpace(raw) == "" {
		respondError(w, http.StatusBadRequest, "ingredients parameter is required")
		return
	}
	terms := strings.Split(raw, ",")

	number, _ := strconv.Atoi(r.URL.Query().Get("number"))
	if number <= 0 || number > 50 {
		number = 10
	}

	summaries, err := h.recipes.SearchByIngredients(r.Context(), terms, number)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, summaries)
}

// GetDetail returns the full recipe record
// GET /api/v1/recipes/{id}
func (h *RecipeHandler) GetDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid recipe ID")
		return
	}

	detail, err := h.recipes.GetRecipe(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, detail)
}

// GetVideo returns a companion cooking video for the recipe, if one exists.
// Always 200: a missing video is not an error the app should surface.
// GET /api/v1/recipes/{id}/video
func (h *RecipeHandler) GetVideo(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid recipe ID")
		return
	}

	videoID := ""
	if detail, err := h.recipes.GetRecipe(r.Context(), id); err == nil {
		videoID = h.recipes.FindVideo(r.Context(), detail.Title)
	}

	respondJSON(w, http.StatusOK, map[string]string{"youtube_id": videoID})
}

// KeyStatus reports API key pool availability (no key material)
// GET /api/v1/status/keys
func (h *RecipeHandler) KeyStatus(w http.ResponseWriter, r *http.Request) {
	available, total := h.recipes.KeyStatus()
	respondJSON(w, http.StatusOK, map[string]int{
		"available": available,
		"total":     total,
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps recipe-layer failures to HTTP responses. An
// exhausted key pool gets its own status and user-displayable message; any
// other upstream problem becomes a generic try-again with the underlying
// detail kept for diagnostics.
func respondServiceError(w http.ResponseWriter, err error) {
	var exhausted *keypool.AllKeysExhaustedError
	if errors.As(err, &exhausted) {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": exhausted.Error(),
		})
		return
	}

	var upstream *keypool.UpstreamError
	if errors.As(err, &upstream) {
		status := http.StatusBadGateway
		if upstream.StatusCode == http.StatusNotFound || upstream.StatusCode == http.StatusBadRequest {
			status = upstream.StatusCode
		}
		respondJSON(w, status, map[string]string{
			"error":  "Recipe service request failed, please try again",
			"detail": upstream.Message,
		})
		return
	}

	var transport *keypool.TransportError
	if errors.As(err, &transport) {
		respondJSON(w, http.StatusBadGateway, map[string]string{
			"error":  "Recipe service is unreachable, please try again",
			"detail": transport.Err.Error(),
		})
		return
	}

	respondError(w, http.StatusInternalServerError, err.Error())
}
