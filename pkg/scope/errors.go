package scope

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfiguration is matched by every setup-time error of this package.
// Configuration errors are fatal: initialization must not proceed.
var ErrConfiguration = errors.New("configuration error")

// ErrAlreadyInitialized is returned by Setup after InitAll has run.
var ErrAlreadyInitialized = errors.New("scope already initialized")

// ErrTickPanic wraps a value recovered from a panicking Ticker.
var ErrTickPanic = errors.New("tick panicked")

// MissingDependencyError reports a declared dependency absent from the scope.
type MissingDependencyError struct {
	Component  string
	Dependency string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("component %q depends on %q, which is not set up", e.Component, e.Dependency)
}

// Is matches ErrConfiguration.
func (e *MissingDependencyError) Is(target error) bool {
	return target == ErrConfiguration
}

// CyclicDependencyError reports a dependency cycle. Cycle lists the
// component names involved.
type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	return "cyclic dependency: " + strings.Join(e.Cycle, " -> ")
}

// Is matches ErrConfiguration.
func (e *CyclicDependencyError) Is(target error) bool {
	return target == ErrConfiguration
}

// DuplicateComponentError reports two components with the same name.
type DuplicateComponentError struct {
	Component string
}

func (e *DuplicateComponentError) Error() string {
	return fmt.Sprintf("component %q is already set up", e.Component)
}

// Is matches ErrConfiguration.
func (e *DuplicateComponentError) Is(target error) bool {
	return target == ErrConfiguration
}

// LifecycleError wraps a failing Init or Stop.
type LifecycleError struct {
	Component string
	Phase     string
	Err       error
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Phase, e.Component, e.Err)
}

func (e *LifecycleError) Unwrap() error {
	return e.Err
}
