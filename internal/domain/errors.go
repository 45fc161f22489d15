package domain

import (
	"errors"
	"fmt"

	"github.com/Victor-armando18/service-clearance/pkg/clearance"
)

// Sentinel errors for broad classification.
var (
	ErrNotFound            = errors.New("not found")
	ErrConfig              = errors.New("invalid config")
	ErrConflict            = errors.New("status changed concurrently")
	ErrInvalidTransition   = clearance.ErrInvalidTransition
	ErrInvalidSignature    = errors.New("invalid payment signature")
	ErrGuardViolation      = errors.New("blocked by guards")
	ErrRuleExecutionFailed = errors.New("rule execution failed")
	ErrBadPayload          = errors.New("bad payload")
)

type ErrorKind string

const (
	KindNotFound          ErrorKind = "not_found"
	KindInvalidConfig     ErrorKind = "invalid_config"
	KindConflict          ErrorKind = "conflict"
	KindInvalidTransition ErrorKind = "invalid_transition"
)

var kindSentinels = map[ErrorKind]error{
	KindNotFound:          ErrNotFound,
	KindInvalidConfig:     ErrConfig,
	KindConflict:          ErrConflict,
	KindInvalidTransition: ErrInvalidTransition,
}

// OpError wraps an underlying error with operation context and a kind.
type OpError struct {
	Op   string
	Kind ErrorKind
	Path string // ficheiro ou id do envio, quando existir
	Err  error
}

func (e *OpError) Error() string {
	if e == nil {
		return "<nil>"
	}
	base := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Path != "" {
		base += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *OpError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets errors.Is match an OpError against the sentinel of its kind.
func (e *OpError) Is(target error) bool {
	if e == nil {
		return false
	}
	s, ok := kindSentinels[e.Kind]
	return ok && s == target
}

// IsKind helps callers classify errors without depending on infra packages.
func IsKind(err error, kind ErrorKind) bool {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Kind == kind
	}
	return false
}

// ConfigError reports a missing or malformed configuration source. The cause stays
// reachable, so errors.Is(err, fs.ErrNotExist) still works for a missing file.
func ConfigError(op, path string, err error) error {
	return &OpError{Op: op, Kind: KindInvalidConfig, Path: path, Err: err}
}
