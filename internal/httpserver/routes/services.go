package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/deploy-agent/internal/httpserver/deps"
	"github.com/MrSnakeDoc/deploy-agent/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/deploy-agent/internal/httpserver/mw"
)

func init() { Register("services", registerServices) }

func registerServices(r chi.Router, d deps.Deps) {
	restricted := r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
	restricted.Get("/services", handlers.ListServices(d))
	restricted.Get("/services/{id}", handlers.GetService(d))
	restricted.Post("/services/sync", handlers.SyncServices(d))
}
