package domain

import "time"

// CheckType is the kind of health check the discovery layer runs.
type CheckType string

const (
	CheckTypeScript CheckType = "script"
	CheckTypeHTTP   CheckType = "http"
)

// CheckDefinition is a validated health check ready to be registered with
// the discovery layer. The service it checks is passed alongside it.
type CheckDefinition struct {
	ID   string
	Name string
	Type CheckType

	// HTTP checks.
	HTTP          string
	Method        string
	Header        map[string][]string
	TLSSkipVerify bool

	// Script checks. Args[0] is the resolved script path.
	Args []string

	Interval time.Duration
	Timeout  time.Duration
	Notes    string

	// Extra holds manifest fields with no dedicated mapping.
	Extra map[string]interface{}
}
