package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/deploy-agent/internal/httpserver/deps"
	"github.com/MrSnakeDoc/deploy-agent/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/deploy-agent/internal/httpserver/mw"
)

func init() { Register("deployments", registerDeployments) }

func registerDeployments(r chi.Router, d deps.Deps) {
	restricted := r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
	restricted.Post("/deployments", handlers.CreateDeployment(d))
	restricted.Get("/deployments", handlers.ListDeployments(d))
	restricted.Get("/deployments/{id}", handlers.GetDeployment(d))
}
