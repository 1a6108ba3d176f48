package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/lostfound/internal/auth"
	"github.com/erazemk/lostfound/internal/lifecycle"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/store"
)

// AuthHandler handles registration and token endpoints.
type AuthHandler struct {
	Engine    *lifecycle.Engine
	JWTSecret string
	Tokens    *store.TokenList
	Expiry    time.Duration
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string        `json:"token"`
	User  model.Session `json:"user"`
}

// userResponse is a user without the password hash.
type userResponse struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserResponse(u model.User) userResponse {
	return userResponse{Username: u.Username, Role: u.Role, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req lifecycle.RegisterInput
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.Engine.Register(r.Context(), req)
	if failed(w, r, err) {
		return
	}
	jsonResponse(w, http.StatusCreated, toUserResponse(u))
}

// Login handles POST /api/auth/login. The server keeps no session; the
// token carries it.
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

	sess, err := h.Engine.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, sess, h.Expiry)
	if err != nil {
		slog.Error("generating token", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	slog.Info("user logged in", "user", sess.Username, "role", sess.Role)
	jsonResponse(w, http.StatusOK, loginResponse{Token: token, User: sess})
}

// Logout handles POST /api/auth/logout by revoking the presented token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	if h.Tokens != nil && claims.ID != "" {
		expires := time.Now().Add(auth.TokenExpiry)
		if claims.ExpiresAt != nil {
			expires = claims.ExpiresAt.Time
		}
		if err := h.Tokens.Revoke(r.Context(), claims.ID, expires); err != nil {
			slog.Error("revoking token", "error", err)
			jsonError(w, http.StatusInternalServerError, "failed to revoke token")
			return
		}
	}

	slog.Info("user logged out", "user", claims.Username)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, GetClaims(r.Context()).Session())
}
