package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/lbonetti/spesa/internal/auth"
	"github.com/lbonetti/spesa/internal/store"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	DB        *sql.DB
	JWTSecret string
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "username and password required")
		return
	}

	user, err := store.GetUserByUsername(r.Context(), h.DB, req.Username)
	if err != nil {
		slog.Error("looking up login user", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		slog.Warn("login failed", "username", req.Username, "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, user.ID, user.Username, user.Role)
	if err != nil {
		slog.Error("generating token", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	slog.Info("user logged in", "user", user.Username, "role", user.Role)
	jsonResponse(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  user,
	})
}

// Verify handles GET /api/verify. The middleware has already validated the
// token and resolved the user; this just echoes it back.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	if user == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"user": user})
}
