package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/snapdish/snapdish-server/internal/config"
	"github.com/snapdish/snapdish-server/internal/models"
	"github.com/snapdish/snapdish-server/pkg/database"
)

const tokenLifetime = 7 * 24 * time.Hour

type AuthHandler struct {
	db  *database.DB
	cfg *config.Config
}

func NewAuthHandler(db *database.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg}
}

type deviceLoginRequest struct {
	DeviceID string `json:"device_id"`
	Name     string `json:"name"`
}

type googleLoginRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Login registers or re-authenticates an app install by its device ID and
// returns a JWT. The app has no passwords; the device ID is the identity.
// POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req deviceLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.DeviceID = strings.TrimSpace(req.DeviceID)
	if req.DeviceID == "" {
		respondError(w, http.StatusBadRequest, "device_id is required")
		return
	}

	ctx := r.Context()
	var user models.User
	err := h.db.Pool.QueryRow(ctx, `
		INSERT INTO users (device_id, name)
		VALUES ($1, $2)
		ON CONFLICT (device_id) DO UPDATE SET
			last_login_at = NOW(),
			name = COALESCE(NULLIF(EXCLUDED.name, ''), users.name)
		RETURNING id, device_id, name, email, created_at, last_login_at
	`, req.DeviceID, req.Name).Scan(
		&user.ID, &user.DeviceID, &user.Name, &user.Email, &user.CreatedAt, &user.LastLoginAt,
	)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upsert device user")
		respondError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	h.respondWithToken(w, user)
}

// GoogleLogin exchanges a Google OAuth authorization code for the user's
// identity and returns a JWT for it.
// POST /api/v1/auth/google
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.cfg.GoogleClientID == "" || h.cfg.GoogleClientSecret == "" {
		respondError(w, http.StatusNotImplemented, "Google sign-in is not configured")
		return
	}

	var req googleLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Code == "" {
		respondError(w, http.StatusBadRequest, "code is required")
		return
	}

	ctx := r.Context()
	oauthCfg := &oauth2.Config{
		ClientID:     h.cfg.GoogleClientID,
		ClientSecret: h.cfg.GoogleClientSecret,
		RedirectURL:  req.RedirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.google.com/o/oauth2/auth",
			TokenURL: "https://oauth2.googleapis.com/token",
		},
		Scopes: []string{"openid", "email", "profile"},
	}

	token, err := oauthCfg.Exchange(ctx, req.Code)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Failed to exchange authorization code")
		return
	}

	info, err := fetchGoogleUserInfo(ctx, oauthCfg, token)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch Google user info")
		respondError(w, http.StatusBadGateway, "Failed to fetch Google account")
		return
	}

	var user models.User
	err = h.db.Pool.QueryRow(ctx, `
		INSERT INTO users (google_sub, name, email)
		VALUES ($1, $2, $3)
		ON CONFLICT (google_sub) DO UPDATE SET
			last_login_at = NOW(),
			name = COALESCE(NULLIF(EXCLUDED.name, ''), users.name),
			email = EXCLUDED.email
		RETURNING id, device_id, name, email, created_at, last_login_at
	`, info.Sub, info.Name, info.Email).Scan(
		&user.ID, &user.DeviceID, &user.Name, &user.Email, &user.CreatedAt, &user.LastLoginAt,
	)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upsert Google user")
		respondError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	h.respondWithToken(w, user)
}

// GetMe returns the authenticated user
// GET /api/v1/auth/me
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var user models.User
	err := h.db.Pool.QueryRow(r.Context(), `
		SELECT id, device_id, name, email, created_at, last_login_at
		FROM users WHERE id = $1
	`, userID).Scan(
		&user.ID, &user.DeviceID, &user.Name, &user.Email, &user.CreatedAt, &user.LastLoginAt,
	)
	if err != nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, user models.User) {
	claims := &Claims{
		UserID: user.ID,
		Name:   user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenLifetime)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(h.cfg.JWTSecret))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to sign token")
		return
	}

	respondJSON(w, http.StatusOK, loginResponse{Token: signed, User: user})
}

type googleUserInfo struct {
	Sub   string `json:"sub"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func fetchGoogleUserInfo(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token) (*googleUserInfo, error) {
	resp, err := cfg.Client(ctx, token).Get("https://www.googleapis.com/oauth2/v3/userinfo")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}
