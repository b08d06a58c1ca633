package products

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/product/737628064502.json", r.URL.Path)
		w.Write([]byte(`{
			"status": 1,
			"product": {
				"product_name": "Rice Noodles",
				"brands": "Thai Kitchen",
				"ingredients_text": "rice, water",
				"image_url": "https://img/p.jpg"
			}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	p, err := c.Lookup(context.Background(), "737628064502")
	require.NoError(t, err)

	assert.Equal(t, "737628064502", p.Barcode)
	assert.Equal(t, "Rice Noodles", p.Name)
	assert.Equal(t, "rice, water", p.Ingredients)
}

func TestLookupNotFound(t *testing.T) {
	t.Run("status zero body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status": 0}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL)
		_, err := c.Lookup(context.Background(), "000")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("http 404", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		c := NewClient(srv.URL)
		_, err := c.Lookup(context.Background(), "000")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
