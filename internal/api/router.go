package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/lbonetti/spesa/internal/auth"
	"github.com/lbonetti/spesa/internal/store"
	"github.com/lbonetti/spesa/internal/websocket"
)

// Login attempts allowed per client IP per window.
const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute
)

// NewRouter creates the API router with all endpoints registered.
// allowedOrigin gates cross-origin WebSocket handshakes ("*" accepts any).
func NewRouter(db *sql.DB, jwtSecret string, hub *websocket.Hub, allowedOrigin string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	itemsHandler := &ItemsHandler{DB: db, Hub: hub}
	entriesHandler := &EntriesHandler{DB: db, Hub: hub}
	healthHandler := &HealthHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	loginLimit := RateLimit(NewRateLimiter(), loginRateLimit, loginRateWindow)

	// Public.
	mux.Handle("POST /api/login", loginLimit(http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("GET /api/health", healthHandler.Health)

	// Authenticated.
	mux.Handle("GET /api/verify", authMW(http.HandlerFunc(authHandler.Verify)))

	// Catalog: read (all), write (admin).
	mux.Handle("GET /api/available-items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/available-items", authMW(RequireAdmin(http.HandlerFunc(itemsHandler.Create))))

	// Shopping list (all authenticated users).
	mux.Handle("GET /api/shopping-list", authMW(http.HandlerFunc(entriesHandler.List)))
	mux.Handle("POST /api/shopping-list", authMW(http.HandlerFunc(entriesHandler.Create)))
	mux.Handle("DELETE /api/shopping-list/{id}", authMW(http.HandlerFunc(entriesHandler.Delete)))
	mux.Handle("PATCH /api/shopping-list/{id}/purchased", authMW(http.HandlerFunc(entriesHandler.SetPurchased)))

	// Live updates. Browsers cannot set headers on WebSocket dials, so the
	// token travels as a query parameter and is checked before the upgrade.
	mux.HandleFunc("GET /api/ws", wsAuth(db, jwtSecret, websocket.Handler(hub, allowedOrigin)))

	return mux
}

// wsAuth validates the token query parameter before handing the request to
// the WebSocket upgrader.
func wsAuth(db *sql.DB, secret string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenStr := r.URL.Query().Get("token")
		if tokenStr == "" {
			jsonError(w, http.StatusUnauthorized, "access token required")
			return
		}

		claims, err := auth.ValidateToken(secret, tokenStr)
		if err != nil {
			jsonError(w, http.StatusForbidden, "invalid token")
			return
		}

		user, err := store.GetUser(r.Context(), db, claims.UserID)
		if err != nil || user == nil {
			jsonError(w, http.StatusUnauthorized, "user not found")
			return
		}

		next(w, r)
	}
}
