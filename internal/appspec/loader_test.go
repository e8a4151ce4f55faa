package appspec

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleAppSpec = `---
version: 0.0
os: linux
consul_healthchecks:
  check_http:
    type: http
    name: Checkout HTTP
    http: http://localhost:8080/diagnostics/healthcheck
    interval: 15s
    header:
      X-Agent-Check: ["agent"]
  check_script:
    type: script
    name: Checkout script
    script: healthchecks/healthy.sh
    owner: payments
hooks:
  ApplicationStart:
    - location: start.sh
`

func TestLoaderLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, DefaultFileName)

	if err := os.WriteFile(path, []byte(sampleAppSpec), 0o644); err != nil {
		t.Fatalf("Failed to create test appspec: %v", err)
	}

	spec, err := NewLoader("").Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !spec.HasHealthChecks() {
		t.Fatal("Load() returned no health checks")
	}
	if len(spec.ConsulHealthChecks) != 2 {
		t.Errorf("Load() returned %d checks, want 2", len(spec.ConsulHealthChecks))
	}

	httpCheck := spec.ConsulHealthChecks["check_http"]
	if httpCheck.Type != "http" || httpCheck.HTTP != "http://localhost:8080/diagnostics/healthcheck" {
		t.Errorf("check_http = %+v", httpCheck)
	}
	if httpCheck.Interval != "15s" {
		t.Errorf("check_http interval = %q, want 15s", httpCheck.Interval)
	}
	if got := httpCheck.Header["X-Agent-Check"]; len(got) != 1 || got[0] != "agent" {
		t.Errorf("check_http header = %v", httpCheck.Header)
	}

	scriptCheck := spec.ConsulHealthChecks["check_script"]
	if scriptCheck.Extra["owner"] != "payments" {
		t.Errorf("unknown field not passed through, extra = %v", scriptCheck.Extra)
	}

	if _, ok := spec.Extra["hooks"]; !ok {
		t.Error("top-level hooks section should be kept in Extra")
	}
}

func TestLoaderCustomFileName(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "deploy.yaml"), []byte("version: 1\n"), 0o644); err != nil {
		t.Fatalf("Failed to create test appspec: %v", err)
	}

	spec, err := NewLoader("deploy.yaml").Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if spec.HasHealthChecks() {
		t.Error("manifest without consul_healthchecks should report none")
	}
}

func TestLoaderLoadFileNotFound(t *testing.T) {
	_, err := NewLoader("").Load("/nonexistent/archive")
	if err == nil {
		t.Error("Load() with non-existent archive should return error")
	}
}

func TestParseKeepsDollarSigns(t *testing.T) {
	t.Setenv("CHECK_PORT", "9999")

	spec, err := Parse([]byte(`
consul_healthchecks:
  check_1:
    type: http
    name: A
    http: http://localhost:${CHECK_PORT}/health?token=$TOKEN_UNSET
    header:
      Authorization: ["Bearer abc$def"]
  check_2:
    type: script
    name: B
    script: healthchecks/$SLICE/check.sh
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	check1 := spec.ConsulHealthChecks["check_1"]
	if want := "http://localhost:${CHECK_PORT}/health?token=$TOKEN_UNSET"; check1.HTTP != want {
		t.Errorf("http = %q, want %q", check1.HTTP, want)
	}
	if got := check1.Header["Authorization"]; len(got) != 1 || got[0] != "Bearer abc$def" {
		t.Errorf("header = %v, want [Bearer abc$def]", got)
	}
	if got := spec.ConsulHealthChecks["check_2"].Script; got != "healthchecks/$SLICE/check.sh" {
		t.Errorf("script = %q, want literal $SLICE", got)
	}
}

func TestParseInvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("consul_healthchecks: [unclosed")); err == nil {
		t.Error("Parse() with invalid yaml should return error")
	}
}

func TestHasHealthChecksNil(t *testing.T) {
	var spec *AppSpec
	if spec.HasHealthChecks() {
		t.Error("nil appspec should have no health checks")
	}
}
