package handlers

import (
	"io"
	"net/http"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/snapdish/snapdish-server/pkg/vision"
)

// 8MB is generous for a downsampled phone photo.
const maxImageBytes = 8 << 20

var ingredientCaser = cases.Title(language.English)

type DetectHandler struct {
	vision *vision.Client
}

func NewDetectHandler(v *vision.Client) *DetectHandler {
	return &DetectHandler{vision: v}
}

type detectedIngredient struct {
	Name    string `json:"name"`
	Display string `json:"display"`
}

// Detect runs ingredient detection on an uploaded photo. Detection failures
// come back as an empty list, not an error: the app falls back to manual
// ingredient entry.
// POST /api/v1/detect (body: image bytes, Content-Type: image/*)
func (h *DetectHandler) Detect(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	image, err := io.ReadAll(io.LimitReader(r.Body, maxImageBytes+1))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read image body")
		return
	}
	if len(image) == 0 {
		respondError(w, http.StatusBadRequest, "Image body is required")
		return
	}
	if len(image) > maxImageBytes {
		respondError(w, http.StatusRequestEntityTooLarge, "Image too large")
		return
	}

	names := h.vision.DetectIngredients(r.Context(), image, contentType)

	ingredients := make([]detectedIngredient, 0, len(names))
	for _, name := range names {
		ingredients = append(ingredients, detectedIngredient{
			Name:    name,
			Display: ingredientCaser.String(name),
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{"ingredients": ingredients})
}
