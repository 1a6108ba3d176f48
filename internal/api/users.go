package api

import (
	"net/http"

	"github.com/erazemk/lostfound/internal/lifecycle"
)

// UsersHandler lists registered users (admin only).
type UsersHandler struct {
	Engine *lifecycle.Engine
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Engine.Users(r.Context())
	if failed(w, r, err) {
		return
	}
	resp := make([]userResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u))
	}
	jsonResponse(w, http.StatusOK, resp)
}
