package mw

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/deploy-agent/internal/logger"
	"github.com/MrSnakeDoc/deploy-agent/internal/utils"
)

// AllowOnlyCIDRS rejects clients outside the allowed IPs/CIDRs with 403.
// An empty list disables filtering. trustProxy resolves the client from
// forwarding headers instead of the socket address.
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	m := utils.NewIPMatcher(allowed)
	if m.IsEmpty() {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if !m.Allow(ip) {
				log.Warn("request rejected by CIDR allow-list",
					logger.String("client_ip", ip),
					logger.String("path", r.URL.Path),
					logger.String("request_id", middleware.GetReqID(r.Context())))
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
