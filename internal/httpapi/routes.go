package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pixelbattle/pixel-battle-backend/internal/hub"
	"github.com/pixelbattle/pixel-battle-backend/internal/place"
	"github.com/pixelbattle/pixel-battle-backend/internal/store"
	"github.com/pixelbattle/pixel-battle-backend/internal/ws"
)

func SetupRoutes(svc *place.Service, st *store.Store, h *hub.Hub, publicDir string, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, log))

	r.Route("/api", func(r chi.Router) {
		// Admin paths skip the identity check. A real deployment should
		// put an admin auth check in front of this route.
		r.Get("/admin_pixels", AdminPixels(st))

		r.Group(func(r chi.Router) {
			r.Use(RequireIdentity)
			r.Get("/get_user", GetUser(st))
			r.Post("/select_team", SelectTeam(svc))
			r.Post("/place_pixel", PlacePixel(svc))
			r.Get("/get_pixels", GetPixels(st))
			r.Get("/team_stats", TeamStats(st))
		})
	})

	if publicDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(publicDir)))
	}
	return r
}
