package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/rs/zerolog/log"
)

// Client calls the ingredient-detection endpoint: it sends a photographed
// image and gets back the ingredients the vision model recognized.
//
// Detection is best-effort by contract: any failure degrades to an empty
// ingredient list so the app can fall back to manual entry, never to an
// error screen.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	limiter    *rate.Limiter
}

// NewClient creates a vision client for the given endpoint. An empty
// endpoint disables detection entirely (DetectIngredients returns nil).
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		endpoint: endpoint,
		apiKey:   apiKey,
		// Vision inference is expensive upstream; space requests out.
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 3),
	}
}

type detectResponse struct {
	Ingredients string `json:"ingredients"`
}

// DetectIngredients sends the image bytes to the vision model and returns
// the recognized ingredient names. The upstream answers with a single
// comma-separated string; it is split and cleaned here. On any failure the
// result is an empty list.
func (c *Client) DetectIngredients(ctx context.Context, image []byte, contentType string) []string {
	if c.endpoint == "" {
		return nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(image))
	if err != nil {
		log.Warn().Err(err).Msg("Vision: failed to create request")
		return nil
	}
	req.Header.Set("Content-Type", contentType)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("Vision: detection request failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Msg("Vision: detection returned non-OK status")
		return nil
	}

	var result detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Warn().Err(err).Msg("Vision: failed to parse detection response")
		return nil
	}

	return ParseIngredientList(result.Ingredients)
}

// ParseIngredientList splits the model's comma-separated answer into
// cleaned, lowercased ingredient names, dropping empties.
func ParseIngredientList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}
