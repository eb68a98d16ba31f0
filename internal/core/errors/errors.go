package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

type ErrorCode string

const (
	CodeConfiguration       ErrorCode = "CONFIGURATION_ERROR"
	CodeUnresolvedReference ErrorCode = "UNRESOLVED_REFERENCE"
	CodeRecursionLimit      ErrorCode = "RECURSION_LIMIT"
	CodeNotFound            ErrorCode = "NOT_FOUND"
	CodeNotSupported        ErrorCode = "NOT_SUPPORTED"
	CodeConflict            ErrorCode = "CONFLICT"
	CodeInternal            ErrorCode = "INTERNAL_ERROR"
)

// DomainError is the single error shape crossing package boundaries. The
// context map carries whatever the caller needs to build an actionable
// message: the fully-qualified type name, the member, the missing pieces.
type DomainError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]interface{}
}

const (
	CtxType      = "type"
	CtxMember    = "member"
	CtxMissing   = "missing"
	CtxAdapter   = "adapter"
	CtxOperation = "operation"
	CtxPath      = "path"
	CtxDepth     = "depth"
)

func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
		msg += " {" + strings.Join(parts, ", ") + "}"
	}
	return msg
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg}
}

func Wrap(err error, code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg, Err: err}
}

// Configuration reports a design-time problem with the declarations or
// options handed to the core, tagged with the offending type.
func Configuration(typeName, msg string) *DomainError {
	de := &DomainError{Code: CodeConfiguration, Message: msg}
	if typeName != "" {
		de.WithContext(CtxType, typeName)
	}
	return de
}

// Unresolved reports references that never got a full declaration.
func Unresolved(typeName string, missing []string) *DomainError {
	de := &DomainError{Code: CodeUnresolvedReference, Message: "unresolved type references"}
	de.WithContext(CtxType, typeName)
	if len(missing) > 0 {
		de.WithContext(CtxMissing, strings.Join(missing, ","))
	}
	return de
}

func RecursionLimit(typeName string, depth int) *DomainError {
	de := &DomainError{Code: CodeRecursionLimit, Message: "derivation exceeded the recursion limit"}
	de.WithContext(CtxType, typeName)
	de.WithContext(CtxDepth, depth)
	return de
}

// Conflict reports two different full declarations under one name.
func Conflict(typeName, previousOrigin, newOrigin string) *DomainError {
	de := &DomainError{Code: CodeConflict, Message: "conflicting declarations share a name"}
	de.WithContext(CtxType, typeName)
	de.WithContext("previous", previousOrigin)
	de.WithContext("incoming", newOrigin)
	return de
}

// AddContext attaches a key to err, wrapping foreign errors as internal.
func AddContext(err error, key string, value interface{}) error {
	if err == nil {
		return nil
	}
	var de *DomainError
	if errors.As(err, &de) {
		de.WithContext(key, value)
		return err
	}
	return &DomainError{
		Code:    CodeInternal,
		Message: "wrapped error",
		Err:     err,
		Context: map[string]interface{}{key: value},
	}
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// ContextValue returns a context entry of the first DomainError in err's chain.
func ContextValue(err error, key string) (interface{}, bool) {
	var de *DomainError
	if !errors.As(err, &de) || de.Context == nil {
		return nil, false
	}
	v, ok := de.Context[key]
	return v, ok
}
