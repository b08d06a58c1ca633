package products

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the OpenFoodFacts v2 API.
const DefaultBaseURL = "https://world.openfoodfacts.org/api/v2"

// Client looks up packaged products by barcode. The API is unkeyed, so
// there is no credential rotation here.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a barcode-lookup client.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Product is the subset of the product record the app displays.
type Product struct {
	Barcode     string `json:"code"`
	Name        string `json:"product_name"`
	Brands      string `json:"brands"`
	Ingredients string `json:"ingredients_text"`
	ImageURL    string `json:"image_url"`
}

type productResponse struct {
	Status  int     `json:"status"`
	Product Product `json:"product"`
}

// ErrNotFound is returned when the barcode is unknown to the product database.
var ErrNotFound = fmt.Errorf("product not found")

// Lookup fetches the product for a barcode.
func (c *Client) Lookup(ctx context.Context, barcode string) (*Product, error) {
	url := fmt.Sprintf("%s/product/%s.json", c.baseURL, barcode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("product API error (status %d)", resp.StatusCode)
	}

	var result productResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	// The API reports unknown barcodes as status 0 with HTTP 200.
	if result.Status != 1 {
		return nil, ErrNotFound
	}

	product := result.Product
	product.Barcode = barcode
	return &product, nil
}
