package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/snapdish/snapdish-server/pkg/products"
)

type ProductHandler struct {
	products *products.Client
}

func NewProductHandler(c *products.Client) *ProductHandler {
	return &ProductHandler{products: c}
}

// Lookup returns the packaged product behind a scanned barcode
// GET /api/v1/products/{barcode}
func (h *ProductHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	barcode := strings.TrimSpace(chi.URLParam(r, "barcode"))
	if barcode == "" {
		respondError(w, http.StatusBadRequest, "Barcode is required")
		return
	}

	product, err := h.products.Lookup(r.Context(), barcode)
	if err != nil {
		if errors.Is(err, products.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Product not found")
			return
		}
		respondError(w, http.StatusBadGateway, "Product lookup failed, please try again")
		return
	}

	respondJSON(w, http.StatusOK, product)
}
