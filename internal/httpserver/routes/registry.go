package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/deploy-agent/internal/httpserver/deps"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
)

type group struct {
	name string
	reg  Registrar
	mws  []Middleware
}

var groups []group

// Register adds a named route group, with optional middlewares applied to
// every route in it. Groups are mounted in registration order.
func Register(name string, reg Registrar, mws ...Middleware) {
	groups = append(groups, group{name: name, reg: reg, mws: mws})
}

// RegisterAll mounts every group on r and returns the group names.
// Called once from NewRouter.
func RegisterAll(r chi.Router, d deps.Deps) []string {
	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g.name)
		if len(g.mws) == 0 {
			g.reg(r, d)
			continue
		}
		g.reg(r.With(g.mws...), d)
	}
	return names
}
