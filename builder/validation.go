package builder

import (
	"errors"
	"fmt"
)

// Validatable is implemented by types that check their own invariants.
type Validatable interface {
	Validate() error
}

// Validator checks an instance from outside, in the shape of struct
// validators such as go-playground's Validate.Struct.
type Validator interface {
	Struct(item any) error
}

// ValidationError wraps whatever rejected a built instance.
type ValidationError struct {
	Type string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate %s: %v", e.Type, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Validate is what a validating build() calls on the instance it made.
// Items that are not Validatable pass.
func Validate(item any) error {
	v, ok := item.(Validatable)
	if !ok {
		return nil
	}
	if err := v.Validate(); err != nil {
		return &ValidationError{Type: fmt.Sprintf("%T", item), Err: err}
	}
	return nil
}

// ValidateWith runs Validate and then validator, when one is set, and
// reports every failure.
func ValidateWith(item any, validator Validator) error {
	err := Validate(item)
	if validator == nil {
		return err
	}
	if verr := validator.Struct(item); verr != nil {
		err = errors.Join(err, &ValidationError{Type: fmt.Sprintf("%T", item), Err: verr})
	}
	return err
}
