package auth

import (
	"context"
	"log/slog"
	"net/http"
	"slices"

	"github.com/google/uuid"
	"github.com/nikhilbhutani/notiflex/internal/tenant"
)

type MenuLookup interface {
	MenuURLs(ctx context.Context, userID uuid.UUID) ([]string, error)
}

type MenuGuard struct {
	menus  MenuLookup
	logger *slog.Logger
}

func NewMenuGuard(menus MenuLookup) *MenuGuard {
	return &MenuGuard{menus: menus, logger: slog.Default().With("component", "menu_guard")}
}

// RequireMenu admits users whose menu grants include url. Users with no
// menu rows at all, and lookups that fail, are let through.
func (g *MenuGuard) RequireMenu(url string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := tenant.UserFromContext(r.Context())
			if user == nil {
				writeError(w, http.StatusUnauthorized, "no user in context")
				return
			}

			urls, err := g.menus.MenuURLs(r.Context(), user.ID)
			if err != nil {
				g.logger.Warn("menu lookup failed, allowing request", "user_id", user.ID, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if len(urls) > 0 && !slices.Contains(urls, url) {
				writeError(w, http.StatusForbidden, "menu access denied")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
