package appspec

// AppSpec is the parsed deployment manifest shipped in a deployment archive.
// Only the sections the agent acts on are typed; the rest is kept in Extra.
type AppSpec struct {
	Version            string                 `yaml:"version,omitempty"`
	OS                 string                 `yaml:"os,omitempty"`
	ConsulHealthChecks map[string]HealthCheck `yaml:"consul_healthchecks,omitempty"`
	Extra              map[string]interface{} `yaml:",inline"`
}

// HealthCheck is one entry of consul_healthchecks, keyed by check id.
type HealthCheck struct {
	Type   string `yaml:"type"`
	Name   string `yaml:"name"`
	HTTP   string `yaml:"http,omitempty"`
	Script string `yaml:"script,omitempty"`

	Interval      string              `yaml:"interval,omitempty"`
	Timeout       string              `yaml:"timeout,omitempty"`
	Notes         string              `yaml:"notes,omitempty"`
	Method        string              `yaml:"method,omitempty"`
	Header        map[string][]string `yaml:"header,omitempty"`
	TLSSkipVerify bool                `yaml:"tls_skip_verify,omitempty"`

	// Extra keeps unrecognised fields; they are passed through unvalidated.
	Extra map[string]interface{} `yaml:",inline"`
}

// HasHealthChecks reports whether the manifest declares any consul check.
func (a *AppSpec) HasHealthChecks() bool {
	return a != nil && len(a.ConsulHealthChecks) > 0
}
