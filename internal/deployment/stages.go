package deployment

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/MrSnakeDoc/deploy-agent/internal/appspec"
	"github.com/MrSnakeDoc/deploy-agent/internal/domain"
	"github.com/MrSnakeDoc/deploy-agent/internal/logger"
)

// Stage is one step of the deployment pipeline. Returning an error aborts
// the deployment.
type Stage interface {
	Name() string
	Run(ctx context.Context, d *Deployment) error
}

// ValidateDeployment checks the request carries what later stages need.
type ValidateDeployment struct{}

func (ValidateDeployment) Name() string { return "ValidateDeployment" }

func (s ValidateDeployment) Run(_ context.Context, d *Deployment) error {
	if d.ID == "" {
		return newError(s.Name(), "deployment id must be specified")
	}
	if d.Service == nil {
		return &DeploymentError{Stage: s.Name(), Msg: "invalid deployment", Err: ErrNoService}
	}
	info, err := os.Stat(d.ArchiveDir)
	if err != nil {
		return &DeploymentError{Stage: s.Name(), Msg: fmt.Sprintf("archive dir '%s' is not readable", d.ArchiveDir), Err: err}
	}
	if !info.IsDir() {
		return newError(s.Name(), "archive dir '%s' is not a directory", d.ArchiveDir)
	}
	return nil
}

// LoadAppSpec parses the archive's appspec into d.AppSpec.
type LoadAppSpec struct {
	loader *appspec.Loader
}

func NewLoadAppSpec(loader *appspec.Loader) *LoadAppSpec {
	return &LoadAppSpec{loader: loader}
}

func (*LoadAppSpec) Name() string { return "LoadAppSpec" }

func (s *LoadAppSpec) Run(_ context.Context, d *Deployment) error {
	spec, err := s.loader.Load(d.ArchiveDir)
	if errors.Is(err, fs.ErrNotExist) {
		return &DeploymentError{Stage: s.Name(), Msg: "no appspec in " + d.ArchiveDir, Err: ErrNoAppSpec}
	}
	if err != nil {
		return &DeploymentError{Stage: s.Name(), Msg: "cannot load appspec", Err: err}
	}
	d.AppSpec = spec
	d.log().Debug("appspec loaded",
		logger.Int("health_checks", len(spec.ConsulHealthChecks)))
	return nil
}

// RegisterConsulService tags the service with the deployment's blue/green
// metadata and announces it to the discovery layer.
type RegisterConsulService struct {
	registrar ServiceRegistrar
}

func NewRegisterConsulService(registrar ServiceRegistrar) *RegisterConsulService {
	return &RegisterConsulService{registrar: registrar}
}

func (*RegisterConsulService) Name() string { return "RegisterConsulService" }

func (s *RegisterConsulService) Run(ctx context.Context, d *Deployment) error {
	if d.Service == nil {
		return &DeploymentError{Stage: s.Name(), Msg: "cannot register service", Err: ErrNoService}
	}

	d.Service.Tag(domain.TagPrefixDeploymentID, d.ID)
	if d.Slice != "" {
		d.Service.Tag(domain.TagPrefixSlice, d.Slice)
	}
	if d.Version != "" {
		d.Service.Tag(domain.TagPrefixVersion, d.Version)
	}

	if err := s.registrar.RegisterService(ctx, d.Service); err != nil {
		return &DeploymentError{Stage: s.Name(), Msg: fmt.Sprintf("failed to register service '%s'", d.Service.ID), Err: err}
	}

	d.log().Info("service registered", logger.Object("service", d.Service))
	return nil
}
