package errors

import (
	"errors"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "declaration not found")
		if err.Error() != "[NOT_FOUND] declaration not found" {
			t.Errorf("expected [NOT_FOUND] declaration not found, got %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("original error")
		err := Wrap(original, CodeInternal, "internal failure")
		expected := "[INTERNAL_ERROR] internal failure: original error"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
		if !errors.Is(err, original) {
			t.Error("expected wrapped error to unwrap to original")
		}
	})

	t.Run("ContextIsSorted", func(t *testing.T) {
		err := Configuration("zoo.Person", "no constructor satisfied").WithContext(CtxMissing, "age")
		expected := "[CONFIGURATION_ERROR] no constructor satisfied {missing=age, type=zoo.Person}"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeConfiguration, "invalid input")
		if !IsCode(err, CodeConfiguration) {
			t.Error("expected IsCode to return true for CodeConfiguration")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("expected IsCode to return false for CodeNotFound")
		}
	})

	t.Run("KindHelpers", func(t *testing.T) {
		if !IsCode(Unresolved("a.B", []string{"a.C"}), CodeUnresolvedReference) {
			t.Error("expected unresolved code")
		}
		if !IsCode(RecursionLimit("a.B", 8), CodeRecursionLimit) {
			t.Error("expected recursion limit code")
		}
		v, ok := ContextValue(Unresolved("a.B", []string{"a.C", "a.D"}), CtxMissing)
		if !ok || v != "a.C,a.D" {
			t.Errorf("expected missing context a.C,a.D, got %v", v)
		}
	})

	t.Run("AddContextForeign", func(t *testing.T) {
		err := AddContext(errors.New("boom"), CtxOperation, "scan")
		if !IsCode(err, CodeInternal) {
			t.Error("expected foreign error to be wrapped as internal")
		}
		if AddContext(nil, CtxOperation, "scan") != nil {
			t.Error("expected nil to stay nil")
		}
	})
}
