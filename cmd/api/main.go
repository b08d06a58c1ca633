package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/snapdish/snapdish-server/internal/config"
	"github.com/snapdish/snapdish-server/internal/handlers"
	"github.com/snapdish/snapdish-server/internal/services"
	"github.com/snapdish/snapdish-server/pkg/database"
	"github.com/snapdish/snapdish-server/pkg/keypool"
	"github.com/snapdish/snapdish-server/pkg/products"
	"github.com/snapdish/snapdish-server/pkg/recipeapi"
	"github.com/snapdish/snapdish-server/pkg/vision"
)

func main() {
	// Setup logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Str("environment", cfg.Environment).Msg("Starting SnapDish API")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Run migrations
	log.Info().Msg("Running database migrations...")
	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	log.Info().Msg("Migrations completed successfully")

	// API key pool: one shared view of quota exhaustion for the whole process
	pool, err := keypool.New(cfg.RecipeAPIKeys)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize API key pool")
	}
	log.Info().Str("pool", pool.Status()).Msg("Recipe API key pool initialized")

	// Redis: response cache + outbound rate limit window. Optional.
	var rdb *redis.Client
	var limiter *recipeapi.RateLimiter
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid REDIS_URL")
		}
		rdb = redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()

		limiter, err = recipeapi.NewRateLimiter(cfg.RedisURL, cfg.RecipeRateLimit, "recipe_api:rate_limit")
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize rate limiter")
		}
		defer limiter.Close()
	} else {
		log.Warn().Msg("REDIS_URL not set; running without response cache and rate limiting")
	}

	// Initialize services
	recipeClient := recipeapi.NewClient(cfg.RecipeAPIURL, limiter)
	recipeService := services.NewRecipeService(recipeClient, pool, rdb, cfg.CacheTTL)
	visionClient := vision.NewClient(cfg.VisionAPIURL, cfg.VisionAPIKey)
	productClient := products.NewClient(cfg.ProductAPIURL)

	// Initialize handlers
	recipeHandler := handlers.NewRecipeHandler(recipeService)
	detectHandler := handlers.NewDetectHandler(visionClient)
	productHandler := handlers.NewProductHandler(productClient)
	bookmarkHandler := handlers.NewBookmarkHandler(db)
	authHandler := handlers.NewAuthHandler(db, cfg)
	cookHandler := handlers.NewCookSessionHandler(recipeService)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public Routes
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/google", authHandler.GoogleLogin)

		r.Get("/recipes/search", recipeHandler.Search)
		r.Get("/recipes/{id}", recipeHandler.GetDetail)
		r.Get("/recipes/{id}/video", recipeHandler.GetVideo)
		r.Get("/recipes/{id}/cook", cookHandler.Session)

		r.Post("/detect", detectHandler.Detect)
		r.Get("/products/{barcode}", productHandler.Lookup)

		r.Get("/status/keys", recipeHandler.KeyStatus)

		// Protected Routes
		r.Group(func(r chi.Router) {
			r.Use(handlers.AuthMiddleware(cfg.JWTSecret))

			r.Get("/auth/me", authHandler.GetMe)

			r.Get("/bookmarks", bookmarkHandler.List)
			r.Post("/bookmarks", bookmarkHandler.Save)
			r.Delete("/bookmarks/{recipeId}", bookmarkHandler.Delete)
		})
	})

	// Start server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("Shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}
		cancel()
	}()

	log.Info().Str("port", cfg.Port).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Server error")
	}

	log.Info().Msg("Server stopped")
}
