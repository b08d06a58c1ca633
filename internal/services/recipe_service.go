package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/snapdish/snapdish-server/pkg/keypool"
	"github.com/snapdish/snapdish-server/pkg/recipeapi"
)

// RecipeAPI is the slice of the recipe API client the service needs. The
// key parameter is explicit so the service can rotate keys per attempt.
type RecipeAPI interface {
	SearchByIngredients(ctx context.Context, key string, ingredients []string, number int) ([]recipeapi.RecipeSummary, error)
	GetRecipe(ctx context.Context, key string, id int64) (*recipeapi.RecipeDetail, error)
	SearchVideos(ctx context.Context, key, query string, number int) ([]recipeapi.Video, error)
}

// RecipeService is the layer the handlers call: it wraps every recipe API
// operation in key rotation and caches responses in Redis so repeated
// searches do not burn quota.
type RecipeService struct {
	api      RecipeAPI
	pool     *keypool.Pool
	rdb      *redis.Client // nil disables caching
	cacheTTL time.Duration
}

// NewRecipeService creates the service. rdb may be nil, in which case
// responses are not cached.
func NewRecipeService(api RecipeAPI, pool *keypool.Pool, rdb *redis.Client, cacheTTL time.Duration) *RecipeService {
	return &RecipeService{
		api:      api,
		pool:     pool,
		rdb:      rdb,
		cacheTTL: cacheTTL,
	}
}

// SearchByIngredients finds recipes usable with the given ingredients.
func (s *RecipeService) SearchByIngredients(ctx context.Context, terms []string, max int) ([]recipeapi.RecipeSummary, error) {
	terms = normalizeTerms(terms)
	if len(terms) == 0 {
		return []recipeapi.RecipeSummary{}, nil
	}
	if max <= 0 {
		max = 10
	}

	cacheKey := searchCacheKey(terms, max)
	var cached []recipeapi.RecipeSummary
	if s.cacheGet(ctx, cacheKey, &cached) {
		return cached, nil
	}

	summaries, err := keypool.Execute(ctx, s.pool, func(ctx context.Context, key string) ([]recipeapi.RecipeSummary, error) {
		return s.api.SearchByIngredients(ctx, key, terms, max)
	})
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, cacheKey, summaries)
	return summaries, nil
}

// GetRecipe fetches the full recipe record.
func (s *RecipeService) GetRecipe(ctx context.Context, id int64) (*recipeapi.RecipeDetail, error) {
	cacheKey := fmt.Sprintf("recipe:%d", id)
	var cached recipeapi.RecipeDetail
	if s.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	detail, err := keypool.Execute(ctx, s.pool, func(ctx context.Context, key string) (*recipeapi.RecipeDetail, error) {
		return s.api.GetRecipe(ctx, key, id)
	})
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, cacheKey, detail)
	return detail, nil
}

// FindVideo returns the YouTube ID of a companion cooking video for the
// recipe title, or "" when none could be found. A missing video is
// non-critical, so every failure -- exhausted keys included -- is
// downgraded to "no video" and never reaches the user.
func (s *RecipeService) FindVideo(ctx context.Context, title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}

	videos, err := keypool.Execute(ctx, s.pool, func(ctx context.Context, key string) ([]recipeapi.Video, error) {
		return s.api.SearchVideos(ctx, key, title, 1)
	})
	if err != nil {
		log.Debug().Err(err).Str("title", title).Msg("Video lookup failed, returning no video")
		return ""
	}
	if len(videos) == 0 {
		return ""
	}
	return videos[0].YouTubeID
}

// KeyStatus reports pool availability for the ops endpoint.
func (s *RecipeService) KeyStatus() (available, total int) {
	return s.pool.AvailableCount(), s.pool.TotalCount()
}

// cacheGet loads a cached JSON entry into out. Cache trouble is never
// fatal; a broken Redis just means every request goes upstream.
func (s *RecipeService) cacheGet(ctx context.Context, key string, out any) bool {
	if s.rdb == nil {
		return false
	}
	val, err := s.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		log.Debug().Err(err).Str("key", key).Msg("Cache read failed")
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("Cache entry corrupt, ignoring")
		return false
	}
	return true
}

func (s *RecipeService) cacheSet(ctx context.Context, key string, value any) {
	if s.rdb == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("Cache write failed")
	}
}

// normalizeTerms lowercases and trims search terms and drops empties and
// duplicates, so "Egg, egg , MILK" and "egg,milk" hit the same cache entry.
func normalizeTerms(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	var out []string
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func searchCacheKey(terms []string, max int) string {
	sorted := make([]string, len(terms))
	copy(sorted, terms)
	sort.Strings(sorted)
	return fmt.Sprintf("search:%s:%d", strings.Join(sorted, ","), max)
}
