package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Tag prefixes carrying blue/green routing metadata.
const (
	TagPrefixDeploymentID = "deployment_id:"
	TagPrefixSlice        = "slice:"
	TagPrefixVersion      = "version:"
)

// DefaultInstallationTimeout applies when the installation info does not set one.
const DefaultInstallationTimeout = 60 * time.Minute

// ErrInvalidService is wrapped by every ValidationError.
var ErrInvalidService = errors.New("invalid service definition")

// ValidationError reports the first required attribute missing from a
// service definition.
type ValidationError struct {
	Attribute string // "address", "id" or "name"
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("service %s must be specified", e.Attribute)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidService }

// Definition is a raw service definition as announced by the discovery layer
// or declared in a deployment request. Field names follow the Consul API.
type Definition struct {
	Address string   `json:"Address" yaml:"Address"`
	ID      string   `json:"ID" yaml:"ID"`
	Name    string   `json:"Name" yaml:"Name"`
	Service string   `json:"Service" yaml:"Service"` // fallback for Name
	Port    Port     `json:"Port" yaml:"Port"`
	Tags    []string `json:"Tags" yaml:"Tags"`
}

// InstallationInfo is the optional per-deployment installation input.
// The zero value selects every default. An explicit InstallationTimeout,
// including 0, is used as given; negative values count as 0.
type InstallationInfo struct {
	InstallationTimeout *int   `json:"InstallationTimeout,omitempty" yaml:"InstallationTimeout,omitempty"` // minutes
	PackageBucket       string `json:"PackageBucket" yaml:"PackageBucket"`
	PackageKey          string `json:"PackageKey" yaml:"PackageKey"`
}

// Installation is the installation configuration derived from InstallationInfo.
type Installation struct {
	Timeout       time.Duration
	PackageBucket string
	PackageKey    string
}

// Service is one service instance, either announced by the discovery layer
// or declared by a deployment. Two services are the same when Equal says so,
// never by comparing fields.
type Service struct {
	Address string
	ID      string
	Name    string
	Port    int
	// Tags is exported for reading and for the discovery client. Change
	// it through Tag so each metadata prefix keeps a single value.
	Tags         Tags
	Installation Installation
}

// NewService validates def and builds a Service. Required attributes are
// checked in the order address, id, name; the first missing one is reported.
func NewService(def Definition, info *InstallationInfo) (*Service, error) {
	name := def.Name
	if name == "" {
		name = def.Service
	}

	switch {
	case def.Address == "":
		return nil, &ValidationError{Attribute: "address"}
	case def.ID == "":
		return nil, &ValidationError{Attribute: "id"}
	case name == "":
		return nil, &ValidationError{Attribute: "name"}
	}

	return &Service{
		Address:      def.Address,
		ID:           def.ID,
		Name:         name,
		Port:         int(def.Port),
		Tags:         append(Tags(nil), def.Tags...),
		Installation: newInstallation(info),
	}, nil
}

func newInstallation(info *InstallationInfo) Installation {
	inst := Installation{Timeout: DefaultInstallationTimeout}
	if info == nil {
		return inst
	}
	if info.InstallationTimeout != nil {
		inst.Timeout = time.Duration(max(*info.InstallationTimeout, 0)) * time.Minute
	}
	inst.PackageBucket = info.PackageBucket
	inst.PackageKey = info.PackageKey
	return inst
}

// DeploymentID returns the value of the first deployment_id: tag.
func (s *Service) DeploymentID() (string, bool) { return s.Tags.Lookup(TagPrefixDeploymentID) }

// Slice returns the value of the first slice: tag.
func (s *Service) Slice() (string, bool) { return s.Tags.Lookup(TagPrefixSlice) }

// Version returns the value of the first version: tag.
func (s *Service) Version() (string, bool) { return s.Tags.Lookup(TagPrefixVersion) }

// Tag replaces every tag carrying prefix with a single prefix+value tag.
func (s *Service) Tag(prefix, value string) {
	s.Tags = s.Tags.Set(prefix, value)
}

// Equal reports whether s and other are the same service in the same
// deployment generation: equal ID and equal deployment id (both absent counts as equal).
func (s *Service) Equal(other *Service) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.ID != other.ID {
		return false
	}
	a, aok := s.DeploymentID()
	b, bok := other.DeploymentID()
	return aok == bok && a == b
}

type serviceSummary struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Port    int      `json:"port"`
	Slice   *string  `json:"slice"`
	Version *string  `json:"version"`
	Tags    []string `json:"tags"`
}

func (s *Service) summary() serviceSummary {
	sum := serviceSummary{ID: s.ID, Name: s.Name, Port: s.Port, Tags: s.Tags}
	if sum.Tags == nil {
		sum.Tags = []string{}
	}
	if v, ok := s.Slice(); ok {
		sum.Slice = &v
	}
	if v, ok := s.Version(); ok {
		sum.Version = &v
	}
	return sum
}

// String renders the JSON summary {id, name, port, slice, version, tags}.
// Absent slice or version render as null.
func (s *Service) String() string {
	data, err := json.Marshal(s.summary())
	if err != nil {
		return fmt.Sprintf("service(%s)", s.ID)
	}
	return string(data)
}

// MarshalJSON encodes the same summary as String.
func (s *Service) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.summary())
}

// MarshalLogObject exposes the summary fields to zap.
func (s *Service) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("id", s.ID)
	enc.AddString("name", s.Name)
	enc.AddInt("port", s.Port)
	if v, ok := s.Slice(); ok {
		enc.AddString("slice", v)
	}
	if v, ok := s.Version(); ok {
		enc.AddString("version", v)
	}
	return enc.AddArray("tags", zapcore.ArrayMarshalerFunc(func(arr zapcore.ArrayEncoder) error {
		for _, t := range s.Tags {
			arr.AppendString(t)
		}
		return nil
	}))
}

// Tags is an ordered list of opaque service tags.
type Tags []string

// Lookup returns the remainder of the first tag starting with prefix.
func (t Tags) Lookup(prefix string) (string, bool) {
	for _, tag := range t {
		if rest, ok := strings.CutPrefix(tag, prefix); ok {
			return rest, true
		}
	}
	return "", false
}

// Set returns t without any prefix tag and with prefix+value appended.
// Order of the remaining tags is kept.
func (t Tags) Set(prefix, value string) Tags {
	out := make(Tags, 0, len(t)+1)
	for _, tag := range t {
		if !strings.HasPrefix(tag, prefix) {
			out = append(out, tag)
		}
	}
	return append(out, prefix+value)
}

// Port accepts either a number or a numeric string. Anything else decodes to 0.
type Port int

func (p *Port) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = coercePort(v)
	return nil
}

func (p *Port) UnmarshalYAML(node *yaml.Node) error {
	var v interface{}
	if err := node.Decode(&v); err != nil {
		return err
	}
	*p = coercePort(v)
	return nil
}

func coercePort(v interface{}) Port {
	switch n := v.(type) {
	case float64:
		return Port(n)
	case int:
		return Port(n)
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return Port(i)
		}
	}
	return 0
}
