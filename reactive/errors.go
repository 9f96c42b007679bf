package reactive

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrCircularDependency is raised (as a panic) when a computed is asked
	// to recompute while it is already recomputing.
	ErrCircularDependency = errors.New("reactive: circular dependency")

	// ErrTypeMismatch is returned when a shared key is reused with a
	// different value type.
	ErrTypeMismatch = errors.New("reactive: shared key type mismatch")
)

type CircularDependencyError struct {
	Label string
}

func (e *CircularDependencyError) Error() string {
	if e.Label == "" {
		return ErrCircularDependency.Error() + ": computed depends on itself"
	}
	return fmt.Sprintf("%s: computed %q depends on itself", ErrCircularDependency, e.Label)
}

func (e *CircularDependencyError) Unwrap() error {
	return ErrCircularDependency
}

type TypeMismatchError struct {
	Key  string
	Want reflect.Type
	Have reflect.Type
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: key %q holds %s, requested %s", ErrTypeMismatch, e.Key, e.Have, e.Want)
}

func (e *TypeMismatchError) Unwrap() error {
	return ErrTypeMismatch
}
