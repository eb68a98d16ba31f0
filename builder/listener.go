package builder

import (
	"sync/atomic"
)

// VisitorListener observes visits made through a Wiretap.
type VisitorListener interface {
	BeforeVisit(v Visitor, path Path, target any)
	AfterVisit(v Visitor, path Path, target any)
	OnCheck(v Visitor, canVisit bool, target any)
}

// ListenerFuncs implements VisitorListener with optional functions.
type ListenerFuncs struct {
	Before func(v Visitor, path Path, target any)
	After  func(v Visitor, path Path, target any)
	Check  func(v Visitor, canVisit bool, target any)
}

func (l ListenerFuncs) BeforeVisit(v Visitor, path Path, target any) {
	if l.Before != nil {
		l.Before(v, path, target)
	}
}

func (l ListenerFuncs) AfterVisit(v Visitor, path Path, target any) {
	if l.After != nil {
		l.After(v, path, target)
	}
}

func (l ListenerFuncs) OnCheck(v Visitor, canVisit bool, target any) {
	if l.Check != nil {
		l.Check(v, canVisit, target)
	}
}

// listeners is copy-on-write: readers load a snapshot, writers swap in a
// new slice.
var listeners atomic.Pointer[[]VisitorListener]

// RegisterListener adds l to the global listener set.
func RegisterListener(l VisitorListener) {
	for {
		old := listeners.Load()
		var next []VisitorListener
		if old != nil {
			next = make([]VisitorListener, len(*old), len(*old)+1)
			copy(next, *old)
		}
		next = append(next, l)
		if listeners.CompareAndSwap(old, &next) {
			return
		}
	}
}

// Listeners returns the current snapshot. Callers must not modify it.
func Listeners() []VisitorListener {
	if p := listeners.Load(); p != nil {
		return *p
	}
	return nil
}

func ClearListeners() {
	listeners.Store(nil)
}
