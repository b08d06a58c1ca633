package recipeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/snapdish/snapdish-server/pkg/keypool"
)

// DefaultBaseURL is the production recipe API endpoint.
const DefaultBaseURL = "https://api.spoonacular.com"

// Client wraps recipe API calls. Every operation takes the API key
// explicitly so the caller can rotate keys across attempts; the client
// itself holds no credential state.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *RateLimiter
}

// NewClient creates a recipe API client. limiter may be nil, in which case
// outbound calls are not rate limited.
func NewClient(baseURL string, limiter *RateLimiter) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		limiter: limiter,
	}
}

// RecipeSummary is one result row from an ingredient search.
type RecipeSummary struct {
	ID                    int64  `json:"id"`
	Title                 string `json:"title"`
	Image                 string `json:"image"`
	UsedIngredientCount   int    `json:"usedIngredientCount"`
	MissedIngredientCount int    `json:"missedIngredientCount"`
	Likes                 int    `json:"likes"`
}

// Ingredient is one entry of a recipe's ingredient list.
type Ingredient struct {
	Name     string  `json:"name"`
	Original string  `json:"original"`
	Amount   float64 `json:"amount"`
	Unit     string  `json:"unit"`
}

// RecipeDetail is the full recipe record.
type RecipeDetail struct {
	ID                  int64        `json:"id"`
	Title               string       `json:"title"`
	Image               string       `json:"image"`
	ReadyInMinutes      int          `json:"readyInMinutes"`
	Servings            int          `json:"servings"`
	SourceURL           string       `json:"sourceUrl"`
	Summary             string       `json:"summary"`
	Instructions        string       `json:"instructions"`
	ExtendedIngredients []Ingredient `json:"extendedIngredients"`
}

// Video is one companion-video search result.
type Video struct {
	Title     string `json:"title"`
	YouTubeID string `json:"youTubeId"`
	Views     int64  `json:"views"`
	Length    int    `json:"length"`
}

type videoSearchResponse struct {
	Videos []Video `json:"videos"`
}

type upstreamMessage struct {
	Message string `json:"message"`
}

// SearchByIngredients finds recipes that use the given ingredients, best
// ingredient coverage first.
func (c *Client) SearchByIngredients(ctx context.Context, key string, ingredients []string, number int) ([]RecipeSummary, error) {
	params := url.Values{}
	params.Set("ingredients", strings.Join(ingredients, ","))
	params.Set("number", strconv.Itoa(number))
	params.Set("ranking", "1")

	var summaries []RecipeSummary
	if err := c.get(ctx, key, "/recipes/findByIngredients", params, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

// GetRecipe fetches the full record for one recipe.
func (c *Client) GetRecipe(ctx context.Context, key string, id int64) (*RecipeDetail, error) {
	var detail RecipeDetail
	path := fmt.Sprintf("/recipes/%d/information", id)
	if err := c.get(ctx, key, path, url.Values{}, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// SearchVideos finds cooking videos matching the query.
func (c *Client) SearchVideos(ctx context.Context, key, query string, number int) ([]Video, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("number", strconv.Itoa(number))

	var resp videoSearchResponse
	if err := c.get(ctx, key, "/food/videos/search", params, &resp); err != nil {
		return nil, err
	}
	return resp.Videos, nil
}

// get performs one authenticated GET and classifies the response: HTTP 402
// becomes a *keypool.QuotaError (the body is drained and closed before
// returning, so retrying with the next key does not leak connections),
// other non-200 statuses become *keypool.UpstreamError, and failures before
// a classifiable response become *keypool.TransportError.
func (c *Client) get(ctx context.Context, key, path string, params url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.WaitForTicket(ctx); err != nil {
			return &keypool.TransportError{Err: err}
		}
	}

	params.Set("apiKey", key)
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return &keypool.TransportError{Err: fmt.Errorf("failed to create request: %w", err)}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &keypool.TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusPaymentRequired {
		io.Copy(io.Discard, resp.Body)
		return &keypool.QuotaError{Key: key, Message: "daily points limit reached"}
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &keypool.UpstreamError{
			StatusCode: resp.StatusCode,
			Message:    upstreamErrorMessage(body),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &keypool.TransportError{Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	return nil
}

// upstreamErrorMessage extracts the API's error message field when the body
// is the usual {"message": "..."} shape, falling back to the raw body.
func upstreamErrorMessage(body []byte) string {
	var msg upstreamMessage
	if err := json.Unmarshal(body, &msg); err == nil && msg.Message != "" {
		return msg.Message
	}
	return strings.TrimSpace(string(body))
}
