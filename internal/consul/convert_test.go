package consul

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/MrSnakeDoc/deploy-agent/internal/domain"
)

func TestToCheckRegistrationHTTP(t *testing.T) {
	reg := toCheckRegistration("checkout-blue", domain.CheckDefinition{
		ID:            "checkout-blue:check_http",
		Name:          "Checkout HTTP",
		Type:          domain.CheckTypeHTTP,
		HTTP:          "https://localhost:8443/health",
		Method:        "HEAD",
		Header:        map[string][]string{"X-Agent-Check": {"agent"}},
		TLSSkipVerify: true,
		Interval:      10 * time.Second,
		Timeout:       1500 * time.Millisecond,
		Notes:         "front door",
		Extra: map[string]interface{}{
			"deregister_critical_service_after": "90m",
			"tls_server_name":                   "checkout.internal",
			"owner":                             "payments",
		},
	})

	assert.Equal(t, "checkout-blue:check_http", reg.ID)
	assert.Equal(t, "Checkout HTTP", reg.Name)
	assert.Equal(t, "checkout-blue", reg.ServiceID)
	assert.Equal(t, "front door", reg.Notes)
	assert.Equal(t, "https://localhost:8443/health", reg.HTTP)
	assert.Equal(t, "HEAD", reg.Method)
	assert.Equal(t, []string{"agent"}, reg.Header["X-Agent-Check"])
	assert.True(t, reg.TLSSkipVerify)
	assert.Equal(t, "10s", reg.Interval)
	assert.Equal(t, "1.5s", reg.Timeout)
	assert.Equal(t, "90m", reg.DeregisterCriticalServiceAfter)
	assert.Equal(t, "checkout.internal", reg.TLSServerName)
	assert.Empty(t, reg.Args)
}

func TestToCheckRegistrationScript(t *testing.T) {
	reg := toCheckRegistration("checkout-blue", domain.CheckDefinition{
		ID:       "checkout-blue:check_script",
		Name:     "Checkout script",
		Type:     domain.CheckTypeScript,
		Args:     []string{"/opt/deploy/d-1/healthchecks/healthy.sh"},
		Interval: time.Minute,
		Timeout:  20 * time.Second,
		Extra:    map[string]interface{}{"status": "passing"},
	})

	assert.Equal(t, []string{"/opt/deploy/d-1/healthchecks/healthy.sh"}, reg.Args)
	assert.Empty(t, reg.HTTP)
	assert.Equal(t, "1m0s", reg.Interval)
	assert.Equal(t, "20s", reg.Timeout)
	assert.Equal(t, "passing", reg.Status)
}
