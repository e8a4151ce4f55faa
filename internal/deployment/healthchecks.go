package deployment

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/deploy-agent/internal/appspec"
	"github.com/MrSnakeDoc/deploy-agent/internal/domain"
	"github.com/MrSnakeDoc/deploy-agent/internal/logger"
)

const registerHealthChecksStage = "RegisterConsulHealthChecks"

// requiredFields lists, per supported check type, the manifest fields that
// must be present. Order matters: the first missing field is reported.
var requiredFields = map[domain.CheckType][]string{
	domain.CheckTypeHTTP:   {"name", "http"},
	domain.CheckTypeScript: {"name", "script"},
}

// CheckPolicy is the interval/timeout applied to checks that do not set their own.
type CheckPolicy struct {
	Interval time.Duration
	Timeout  time.Duration
}

// DefaultCheckPolicy mirrors the agent's configuration defaults.
var DefaultCheckPolicy = CheckPolicy{Interval: 10 * time.Second, Timeout: 5 * time.Second}

// RegisterConsulHealthChecks validates the consul_healthchecks section of
// the appspec and registers every check against the deployment's service.
// The whole batch is validated before the first check is submitted.
type RegisterConsulHealthChecks struct {
	registrar   CheckRegistrar
	policy      CheckPolicy
	concurrency int
}

// NewRegisterConsulHealthChecks creates the stage. concurrency bounds the
// number of in-flight submissions (values below 1 mean sequential).
func NewRegisterConsulHealthChecks(registrar CheckRegistrar, policy CheckPolicy, concurrency int) *RegisterConsulHealthChecks {
	if policy.Interval <= 0 {
		policy.Interval = DefaultCheckPolicy.Interval
	}
	if policy.Timeout <= 0 {
		policy.Timeout = DefaultCheckPolicy.Timeout
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &RegisterConsulHealthChecks{
		registrar:   registrar,
		policy:      policy,
		concurrency: concurrency,
	}
}

func (s *RegisterConsulHealthChecks) Name() string { return registerHealthChecksStage }

// Run validates, converts and submits the declared checks.
func (s *RegisterConsulHealthChecks) Run(ctx context.Context, d *Deployment) error {
	log := d.log()

	if !d.AppSpec.HasHealthChecks() {
		log.Info("no consul health checks declared")
		return nil
	}
	checks := d.AppSpec.ConsulHealthChecks
	if d.Service == nil {
		return &DeploymentError{Stage: registerHealthChecksStage, Msg: "cannot register health checks", Err: ErrNoService}
	}

	validated, err := s.validate(checks)
	if err != nil {
		return err
	}

	defs := make([]domain.CheckDefinition, 0, len(validated))
	for _, vc := range validated {
		def := s.convert(d, vc)
		log.Debug("converted health check",
			logger.String("check_id", def.ID),
			logger.String("type", string(def.Type)),
			logger.Duration("interval", def.Interval))
		defs = append(defs, def)
	}

	log.Info("registering consul health checks",
		logger.Int("count", len(defs)),
		logger.String("service_id", d.Service.ID))

	if err := s.submit(ctx, d.Service.ID, defs); err != nil {
		log.Error("failed to register consul health checks", logger.Error(err))
		return err
	}

	log.Info("consul health checks registered", logger.Int("count", len(defs)))
	return nil
}

// RegisteredCheckIDs returns the ids the stage would register for d.
// It does not validate.
func RegisteredCheckIDs(d *Deployment) []string {
	if d.AppSpec == nil || d.Service == nil {
		return nil
	}
	ids := sortedCheckIDs(d.AppSpec.ConsulHealthChecks)
	for i, id := range ids {
		ids[i] = checkID(d.Service.ID, id)
	}
	return ids
}

type validatedCheck struct {
	id       string
	check    appspec.HealthCheck
	interval time.Duration
	timeout  time.Duration
}

// validate runs every per-check rule, then the case-insensitive uniqueness
// rules for ids and names. Checks are visited in sorted id order so the
// reported error is stable for a given manifest.
func (s *RegisterConsulHealthChecks) validate(checks map[string]appspec.HealthCheck) ([]validatedCheck, error) {
	ids := sortedCheckIDs(checks)
	validated := make([]validatedCheck, 0, len(ids))

	for _, id := range ids {
		vc, err := s.validateCheck(id, checks[id])
		if err != nil {
			return nil, err
		}
		validated = append(validated, vc)
	}

	seenIDs := make(map[string]string, len(ids))
	seenNames := make(map[string]string, len(ids))
	for _, vc := range validated {
		key := strings.ToLower(vc.id)
		if other, ok := seenIDs[key]; ok {
			return nil, newError(registerHealthChecksStage,
				"health checks require unique ids: '%s' and '%s' differ only by case", other, vc.id)
		}
		seenIDs[key] = vc.id
	}
	for _, vc := range validated {
		key := strings.ToLower(vc.check.Name)
		if other, ok := seenNames[key]; ok {
			return nil, newError(registerHealthChecksStage,
				"health checks require unique names: '%s' is used by '%s' and '%s'", vc.check.Name, other, vc.id)
		}
		seenNames[key] = vc.id
	}

	return validated, nil
}

func (s *RegisterConsulHealthChecks) validateCheck(id string, c appspec.HealthCheck) (validatedCheck, error) {
	fields, ok := requiredFields[domain.CheckType(c.Type)]
	if !ok {
		return validatedCheck{}, newError(registerHealthChecksStage,
			"health check '%s' has type '%s': only %s check types are supported", id, c.Type, supportedTypes())
	}

	for _, field := range fields {
		if strings.TrimSpace(checkField(c, field)) == "" {
			return validatedCheck{}, newError(registerHealthChecksStage,
				"health check '%s' is missing field '%s'", id, field)
		}
	}

	interval, err := parseDuration(c.Interval, s.policy.Interval)
	if err != nil {
		return validatedCheck{}, newError(registerHealthChecksStage,
			"health check '%s' has invalid field 'interval': %v", id, err)
	}
	timeout, err := parseDuration(c.Timeout, s.policy.Timeout)
	if err != nil {
		return validatedCheck{}, newError(registerHealthChecksStage,
			"health check '%s' has invalid field 'timeout': %v", id, err)
	}

	return validatedCheck{id: id, check: c, interval: interval, timeout: timeout}, nil
}

// convert maps a validated manifest check onto a discovery-layer check.
func (s *RegisterConsulHealthChecks) convert(d *Deployment, vc validatedCheck) domain.CheckDefinition {
	c := vc.check
	def := domain.CheckDefinition{
		ID:       checkID(d.Service.ID, vc.id),
		Name:     c.Name,
		Type:     domain.CheckType(c.Type),
		Interval: vc.interval,
		Timeout:  vc.timeout,
		Notes:    c.Notes,
		Extra:    c.Extra,
	}

	switch def.Type {
	case domain.CheckTypeHTTP:
		def.HTTP = c.HTTP
		def.Method = c.Method
		def.Header = c.Header
		def.TLSSkipVerify = c.TLSSkipVerify
	case domain.CheckTypeScript:
		script := c.Script
		if !filepath.IsAbs(script) {
			script = filepath.Join(d.ArchiveDir, script)
		}
		def.Args = []string{script}
	}

	return def
}

// submit registers every definition; the first failure cancels the rest
// and fails the stage.
func (s *RegisterConsulHealthChecks) submit(ctx context.Context, serviceID string, defs []domain.CheckDefinition) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, def := range defs {
		def := def
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.registrar.RegisterCheck(ctx, serviceID, def); err != nil {
				return &DeploymentError{
					Stage: registerHealthChecksStage,
					Msg:   fmt.Sprintf("failed to register health check '%s'", def.ID),
					Err:   err,
				}
			}
			return nil
		})
	}

	return g.Wait()
}

func checkField(c appspec.HealthCheck, field string) string {
	switch field {
	case "name":
		return c.Name
	case "http":
		return c.HTTP
	case "script":
		return c.Script
	default:
		return ""
	}
}

func checkID(serviceID, id string) string {
	return serviceID + ":" + id
}

func parseDuration(raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", raw)
	}
	return d, nil
}

func sortedCheckIDs(checks map[string]appspec.HealthCheck) []string {
	ids := make([]string, 0, len(checks))
	for id := range checks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func supportedTypes() string {
	types := make([]string, 0, len(requiredFields))
	for t := range requiredFields {
		types = append(types, "'"+string(t)+"'")
	}
	sort.Strings(types)
	return strings.Join(types, " and ")
}
