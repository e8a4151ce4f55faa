package consul

import (
	"github.com/hashicorp/consul/api"

	"github.com/MrSnakeDoc/deploy-agent/internal/domain"
)

// Manifest extras with a direct Consul counterpart.
const (
	extraDeregisterAfter = "deregister_critical_service_after"
	extraInitialStatus   = "status"
	extraTLSServerName   = "tls_server_name"
)

func toCheckRegistration(serviceID string, def domain.CheckDefinition) *api.AgentCheckRegistration {
	reg := &api.AgentCheckRegistration{
		ID:        def.ID,
		Name:      def.Name,
		ServiceID: serviceID,
		Notes:     def.Notes,
		AgentServiceCheck: api.AgentServiceCheck{
			Interval: def.Interval.String(),
			Timeout:  def.Timeout.String(),
		},
	}

	switch def.Type {
	case domain.CheckTypeHTTP:
		reg.HTTP = def.HTTP
		reg.Method = def.Method
		reg.Header = def.Header
		reg.TLSSkipVerify = def.TLSSkipVerify
	case domain.CheckTypeScript:
		reg.Args = append([]string(nil), def.Args...)
	}

	if v, ok := def.Extra[extraDeregisterAfter].(string); ok {
		reg.DeregisterCriticalServiceAfter = v
	}
	if v, ok := def.Extra[extraInitialStatus].(string); ok {
		reg.Status = v
	}
	if v, ok := def.Extra[extraTLSServerName].(string); ok {
		reg.TLSServerName = v
	}

	return reg
}
