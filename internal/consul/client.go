package consul

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/consul/api"

	"github.com/MrSnakeDoc/deploy-agent/internal/connect"
	"github.com/MrSnakeDoc/deploy-agent/internal/domain"
	"github.com/MrSnakeDoc/deploy-agent/internal/logger"
)

// Options configures the connection to the local Consul agent.
type Options struct {
	Addr       string // ex: "127.0.0.1:8500"
	Scheme     string // "http" | "https"
	Token      string // optional ACL token
	Datacenter string // optional
	Retry      connect.Options
}

// Client is the agent's view of the discovery layer.
type Client struct {
	api    *api.Client
	logger logger.Logger
}

// New creates a Consul client and waits until the cluster reports a leader.
func New(ctx context.Context, opts Options, log logger.Logger) (*Client, error) {
	cfg := api.DefaultConfig()
	cfg.Address = opts.Addr
	if opts.Scheme != "" {
		cfg.Scheme = opts.Scheme
	}
	cfg.Token = opts.Token
	cfg.Datacenter = opts.Datacenter

	raw, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}

	c := &Client{api: raw, logger: log}
	if err := connect.WithRetry(ctx, "consul", opts.Addr, c.Ping, opts.Retry, log); err != nil {
		return nil, fmt.Errorf("consul connect: %w", err)
	}
	return c, nil
}

// Ping succeeds when the cluster has an elected leader.
func (c *Client) Ping(ctx context.Context) error {
	leader, err := c.api.Status().LeaderWithQueryOptions((&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to query consul leader: %w", err)
	}
	if leader == "" {
		return fmt.Errorf("consul cluster has no leader")
	}
	return nil
}

// RegisterService announces svc to the local agent.
func (c *Client) RegisterService(ctx context.Context, svc *domain.Service) error {
	reg := &api.AgentServiceRegistration{
		ID:      svc.ID,
		Name:    svc.Name,
		Address: svc.Address,
		Port:    svc.Port,
		Tags:    append([]string(nil), svc.Tags...),
	}

	opts := api.ServiceRegisterOpts{}.WithContext(ctx)
	if err := c.api.Agent().ServiceRegisterOpts(reg, opts); err != nil {
		return fmt.Errorf("failed to register service %s: %w", svc.ID, err)
	}
	return nil
}

// RegisterCheck upserts a check attached to serviceID.
func (c *Client) RegisterCheck(ctx context.Context, serviceID string, check domain.CheckDefinition) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	reg := toCheckRegistration(serviceID, check)
	q := (&api.QueryOptions{}).WithContext(ctx)
	if err := c.api.Agent().CheckRegisterOpts(reg, q); err != nil {
		return fmt.Errorf("failed to register check %s: %w", check.ID, err)
	}

	c.logger.Debug("consul check registered",
		logger.String("check_id", check.ID),
		logger.String("service_id", serviceID))
	return nil
}

// Services returns the services known to the local agent, sorted by ID.
// Entries that do not form a valid service are logged and skipped.
func (c *Client) Services(ctx context.Context) ([]*domain.Service, error) {
	raw, err := c.api.Agent().ServicesWithFilterOpts("", (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to list consul services: %w", err)
	}

	services := make([]*domain.Service, 0, len(raw))
	for _, s := range raw {
		svc, err := domain.NewService(domain.Definition{
			Address: s.Address,
			ID:      s.ID,
			Service: s.Service,
			Port:    domain.Port(s.Port),
			Tags:    s.Tags,
		}, nil)
		if err != nil {
			c.logger.Warn("skipping invalid consul service",
				logger.String("service_id", s.ID),
				logger.Error(err))
			continue
		}
		services = append(services, svc)
	}

	sort.Slice(services, func(i, j int) bool { return services[i].ID < services[j].ID })
	return services, nil
}
