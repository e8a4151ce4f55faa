package deployment

import (
	"errors"
	"fmt"
)

var (
	ErrNoService = errors.New("deployment has no service")
	ErrNoAppSpec = errors.New("deployment has no appspec")
)

// DeploymentError is fatal to the current deployment attempt. Msg is meant
// for the person fixing the manifest; Err keeps the underlying cause, if any.
type DeploymentError struct {
	Stage string
	Msg   string
	Err   error
}

func (e *DeploymentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Msg)
}

func (e *DeploymentError) Unwrap() error { return e.Err }

func newError(stage, format string, args ...interface{}) *DeploymentError {
	return &DeploymentError{Stage: stage, Msg: fmt.Sprintf(format, args...)}
}

// asDeploymentError wraps err unless it already is a DeploymentError.
func asDeploymentError(stage string, err error) error {
	var derr *DeploymentError
	if errors.As(err, &derr) {
		return err
	}
	return &DeploymentError{Stage: stage, Msg: "stage failed", Err: err}
}
