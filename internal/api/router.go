package api

import (
	"net/http"
	"time"

	"github.com/erazemk/lostfound/internal/blob"
	"github.com/erazemk/lostfound/internal/lifecycle"
	"github.com/erazemk/lostfound/internal/metrics"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/store"
)

// Deps holds everything the API serves from.
type Deps struct {
	Engine *lifecycle.Engine
	// JWTSecret signs session tokens.
	JWTSecret string
	// Tokens is the revocation list. Nil disables logout revocation.
	Tokens *store.TokenList
	// Images stores uploaded photos. Nil disables the image endpoints.
	Images blob.Store
	// Metrics is exposed on /metrics when set.
	Metrics        *metrics.Recorder
	TokenExpiry    time.Duration
	MaxUploadBytes int64
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{Engine: d.Engine, JWTSecret: d.JWTSecret, Tokens: d.Tokens, Expiry: d.TokenExpiry}
	itemsHandler := &ItemsHandler{Engine: d.Engine}
	inventoryHandler := &InventoryHandler{Engine: d.Engine}
	exportHandler := &ExportHandler{Engine: d.Engine}
	settingsHandler := &SettingsHandler{Engine: d.Engine}
	usersHandler := &UsersHandler{Engine: d.Engine}
	imagesHandler := &ImagesHandler{Store: d.Images, MaxBytes: d.MaxUploadBytes}

	requireUser := RequireRole(model.RoleStudent)
	requireAdmin := RequireRole(model.RoleAdmin)

	// Auth.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.Handle("POST /api/auth/logout", requireUser(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("GET /api/auth/me", requireUser(http.HandlerFunc(authHandler.Me)))

	// Items. Authorization is enforced by the engine.
	mux.HandleFunc("GET /api/items", itemsHandler.List)
	mux.HandleFunc("POST /api/items", itemsHandler.Report)
	mux.HandleFunc("GET /api/items/{id}", itemsHandler.Get)
	mux.HandleFunc("PUT /api/items/{id}", itemsHandler.Edit)
	mux.HandleFunc("DELETE /api/items/{id}", itemsHandler.Delete)
	mux.HandleFunc("POST /api/items/{id}/claim", itemsHandler.Claim)
	mux.HandleFunc("POST /api/items/{id}/verify", itemsHandler.ToggleVerification)
	mux.HandleFunc("POST /api/items/{id}/restore", itemsHandler.Restore)
	mux.HandleFunc("DELETE /api/items/{id}/purge", itemsHandler.Purge)
	mux.HandleFunc("GET /api/items/{id}/history", itemsHandler.History)

	// Images.
	mux.HandleFunc("POST /api/images", imagesHandler.Upload)
	mux.HandleFunc("GET /api/images/{ref...}", imagesHandler.Get)

	// Claimed and deleted partitions.
	mux.HandleFunc("GET /api/inventory", inventoryHandler.Claimed)
	mux.HandleFunc("GET /api/deleted", inventoryHandler.Deleted)
	mux.HandleFunc("GET /api/categories", inventoryHandler.Categories)
	mux.HandleFunc("GET /api/counts", inventoryHandler.Counts)

	// Users (admin only).
	mux.Handle("GET /api/users", requireAdmin(http.HandlerFunc(usersHandler.List)))

	// Export.
	mux.HandleFunc("GET /api/export/all.csv", exportHandler.All)
	mux.HandleFunc("GET /api/export/filtered.csv", exportHandler.Filtered)

	// Settings and maintenance.
	mux.HandleFunc("POST /api/sample", settingsHandler.ImportSample)
	mux.HandleFunc("DELETE /api/all", settingsHandler.ClearAll)
	mux.HandleFunc("GET /api/theme", settingsHandler.GetTheme)
	mux.HandleFunc("PUT /api/theme", settingsHandler.SetTheme)

	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics.Handler())
	}

	handler := SessionMiddleware(d.JWTSecret, d.Tokens, d.Engine.SessionValid)(mux)
	return LoggingMiddleware(d.Engine.Degraded)(handler)
}
