package entities

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds shared by every layer. Concrete errors wrap one of these so callers
// can branch with errors.Is without knowing where the failure originated.
var (
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("not found")
	ErrUpstreamParse      = errors.New("upstream parse error")
	ErrInvariantViolation = errors.New("invariant violation")
	ErrDependencyFailure  = errors.New("dependency failure")
)

// ValidationError reports malformed input. It is raised before any side effect.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Message
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ValidationErrors groups several field failures.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		if e.Field == "" {
			parts = append(parts, e.Message)
			continue
		}
		parts = append(parts, e.Field+": "+e.Message)
	}
	return "validation error: " + strings.Join(parts, "; ")
}

func (v ValidationErrors) Unwrap() error {
	return ErrValidation
}

// DependencyError wraps a failure of an external collaborator (storage, mail, PDF, LLM).
type DependencyError struct {
	Dependency string
	Err        error
}

func NewDependencyError(dependency string, err error) *DependencyError {
	return &DependencyError{Dependency: dependency, Err: err}
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Dependency, e.Err)
}

func (e *DependencyError) Unwrap() []error {
	return []error{ErrDependencyFailure, e.Err}
}
