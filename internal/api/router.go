package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nikhilbhutani/notiflex/internal/api/handlers"
	"github.com/nikhilbhutani/notiflex/internal/api/middleware"
	"github.com/nikhilbhutani/notiflex/internal/auth"
	"github.com/nikhilbhutani/notiflex/internal/config"
)

// itemsMenuURL is the menu entry that grants access to the items pages.
const itemsMenuURL = "/objects"

type Deps struct {
	Items   handlers.ItemService
	DB      handlers.Pinger
	Redis   handlers.Pinger
	Auth    *auth.JWTMiddleware
	Menus   *auth.MenuGuard
	Limiter *middleware.RateLimiter
}

type Router struct {
	mux  *chi.Mux
	cfg  *config.Config
	deps Deps
}

func NewRouter(cfg *config.Config, deps Deps) *Router {
	return &Router{mux: chi.NewRouter(), cfg: cfg, deps: deps}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.cfg.Server.CORSOrigins))

	health := handlers.NewHealthHandler(rt.deps.DB, rt.deps.Redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	itemH := handlers.NewItemHandler(rt.deps.Items, rt.cfg.Ingest.MaxUploadBytes(), rt.cfg.Ingest.TimeoutDuration())
	r.Route("/dashboard/items", func(r chi.Router) {
		r.Use(rt.deps.Auth.Authenticate)
		if rt.deps.Limiter != nil {
			r.Use(rt.deps.Limiter.Limit)
		}
		r.Use(rt.deps.Menus.RequireMenu(itemsMenuURL))

		r.Post("/add", itemH.Add)
		r.Post("/ai-extract", itemH.Extract)
		r.Post("/extract-info", itemH.Extract)
	})

	return r
}
