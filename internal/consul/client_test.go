package consul

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/deploy-agent/internal/connect"
	"github.com/MrSnakeDoc/deploy-agent/internal/domain"
	"github.com/MrSnakeDoc/deploy-agent/internal/logger"
)

// fakeAgent serves the subset of the Consul HTTP API the client uses.
type fakeAgent struct {
	mu       sync.Mutex
	leader   string
	services map[string]interface{}
	checks   []map[string]interface{}
	svcRegs  []map[string]interface{}

	// stallChecks holds check registrations until the client goes away.
	stallChecks bool
}

func (f *fakeAgent) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if f.stallChecks && r.URL.Path == "/v1/agent/check/register" {
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.URL.Path == "/v1/status/leader":
		_ = json.NewEncoder(w).Encode(f.leader)
	case r.URL.Path == "/v1/agent/services":
		_ = json.NewEncoder(w).Encode(f.services)
	case r.URL.Path == "/v1/agent/check/register" && r.Method == http.MethodPut:
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.checks = append(f.checks, body)
	case r.URL.Path == "/v1/agent/service/register" && r.Method == http.MethodPut:
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.svcRegs = append(f.svcRegs, body)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeAgent) registeredChecks() []map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]interface{}(nil), f.checks...)
}

func (f *fakeAgent) registeredServices() []map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]interface{}(nil), f.svcRegs...)
}

func newTestClient(t *testing.T, agent *fakeAgent) *Client {
	t.Helper()
	ts := httptest.NewServer(agent)
	t.Cleanup(ts.Close)

	c, err := New(context.Background(), Options{
		Addr:   strings.TrimPrefix(ts.URL, "http://"),
		Scheme: "http",
		Retry: connect.Options{
			ConnectTimeout: time.Second,
			RetryInterval:  10 * time.Millisecond,
			MaxWait:        50 * time.Millisecond,
			PingTimeout:    200 * time.Millisecond,
		},
	}, logger.NewNop())
	require.NoError(t, err)
	return c
}

func TestNewFailsWithoutLeader(t *testing.T) {
	ts := httptest.NewServer(&fakeAgent{})
	defer ts.Close()

	_, err := New(context.Background(), Options{
		Addr: strings.TrimPrefix(ts.URL, "http://"),
		Retry: connect.Options{
			ConnectTimeout: 50 * time.Millisecond,
			RetryInterval:  10 * time.Millisecond,
			MaxWait:        10 * time.Millisecond,
			PingTimeout:    20 * time.Millisecond,
		},
	}, logger.NewNop())
	assert.Error(t, err)
}

func TestRegisterCheck(t *testing.T) {
	agent := &fakeAgent{leader: "10.0.0.1:8300"}
	c := newTestClient(t, agent)

	err := c.RegisterCheck(context.Background(), "checkout-blue", domain.CheckDefinition{
		ID:       "checkout-blue:check_http",
		Name:     "Checkout HTTP",
		Type:     domain.CheckTypeHTTP,
		HTTP:     "http://localhost:8080/health",
		Interval: 10 * time.Second,
		Timeout:  5 * time.Second,
	})
	require.NoError(t, err)

	checks := agent.registeredChecks()
	require.Len(t, checks, 1)
	body := checks[0]
	assert.Equal(t, "checkout-blue:check_http", body["ID"])
	assert.Equal(t, "Checkout HTTP", body["Name"])
	assert.Equal(t, "checkout-blue", body["ServiceID"])
	assert.Equal(t, "http://localhost:8080/health", body["HTTP"])
	assert.Equal(t, "10s", body["Interval"])
}

func TestRegisterCheckCanceledContext(t *testing.T) {
	agent := &fakeAgent{leader: "10.0.0.1:8300"}
	c := newTestClient(t, agent)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.RegisterCheck(ctx, "svc", domain.CheckDefinition{ID: "svc:c"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, agent.registeredChecks())
}

func TestRegisterCheckHonorsDeadline(t *testing.T) {
	agent := &fakeAgent{leader: "10.0.0.1:8300", stallChecks: true}
	c := newTestClient(t, agent)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := c.RegisterCheck(ctx, "svc", domain.CheckDefinition{ID: "svc:c", Name: "C", Type: domain.CheckTypeHTTP})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Empty(t, agent.registeredChecks())
}

func TestRegisterService(t *testing.T) {
	agent := &fakeAgent{leader: "10.0.0.1:8300"}
	c := newTestClient(t, agent)

	svc := &domain.Service{
		ID:      "checkout-blue",
		Name:    "checkout",
		Address: "10.0.0.12",
		Port:    8080,
		Tags:    domain.Tags{"deployment_id:d-1", "slice:blue"},
	}
	require.NoError(t, c.RegisterService(context.Background(), svc))

	regs := agent.registeredServices()
	require.Len(t, regs, 1)
	body := regs[0]
	assert.Equal(t, "checkout-blue", body["ID"])
	assert.Equal(t, "checkout", body["Name"])
	assert.Equal(t, float64(8080), body["Port"])
	assert.ElementsMatch(t, []interface{}{"deployment_id:d-1", "slice:blue"}, body["Tags"])
}

func TestServices(t *testing.T) {
	agent := &fakeAgent{
		leader: "10.0.0.1:8300",
		services: map[string]interface{}{
			"web-green": map[string]interface{}{
				"ID": "web-green", "Service": "web", "Address": "10.0.0.5", "Port": 80,
				"Tags": []string{"slice:green", "version:3.1.0"},
			},
			"web-blue": map[string]interface{}{
				"ID": "web-blue", "Service": "web", "Address": "10.0.0.6", "Port": 80,
				"Tags": []string{"slice:blue"},
			},
			"broken": map[string]interface{}{
				"ID": "broken", "Service": "broken", "Port": 1,
			},
		},
	}
	c := newTestClient(t, agent)

	services, err := c.Services(context.Background())
	require.NoError(t, err)
	require.Len(t, services, 2, "service without address must be skipped")

	assert.Equal(t, "web-blue", services[0].ID)
	assert.Equal(t, "web-green", services[1].ID)
	assert.Equal(t, "web", services[1].Name)

	slice, ok := services[1].Slice()
	assert.True(t, ok)
	assert.Equal(t, "green", slice)
}
