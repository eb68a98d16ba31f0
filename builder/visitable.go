package builder

import (
	"reflect"
	"sort"
)

// VisitableMap is the ordered store of nested builders a fluent exposes to
// visitors. Keys keep first-insertion order; each key holds an ordered list
// mirroring the property it belongs to.
type VisitableMap struct {
	keys  []string
	items map[string][]any
}

func NewVisitableMap() *VisitableMap {
	return &VisitableMap{items: make(map[string][]any)}
}

func (m *VisitableMap) ensure(key string) {
	if m.items == nil {
		m.items = make(map[string][]any)
	}
	if _, ok := m.items[key]; !ok {
		m.keys = append(m.keys, key)
		m.items[key] = nil
	}
}

// Get returns a copy of the items under key.
func (m *VisitableMap) Get(key string) []any {
	return append([]any(nil), m.items[key]...)
}

// Set replaces the items under key.
func (m *VisitableMap) Set(key string, items ...any) {
	m.ensure(key)
	m.items[key] = append([]any(nil), items...)
}

func (m *VisitableMap) Add(key string, item any) {
	m.ensure(key)
	m.items[key] = append(m.items[key], item)
}

// Insert places item at index, clamped to the list bounds.
func (m *VisitableMap) Insert(key string, index int, item any) {
	m.ensure(key)
	list := m.items[key]
	if index < 0 {
		index = 0
	}
	if index >= len(list) {
		m.items[key] = append(list, item)
		return
	}
	list = append(list, nil)
	copy(list[index+1:], list[index:])
	list[index] = item
	m.items[key] = list
}

// Replace swaps the first occurrence of old for item.
func (m *VisitableMap) Replace(key string, old, item any) bool {
	list := m.items[key]
	for i, v := range list {
		if same(v, old) {
			list[i] = item
			return true
		}
	}
	return false
}

// Remove drops the first occurrence of item and keeps the order of the
// rest.
func (m *VisitableMap) Remove(key string, item any) bool {
	list := m.items[key]
	for i, v := range list {
		if same(v, item) {
			m.items[key] = append(list[:i:i], list[i+1:]...)
			return true
		}
	}
	return false
}

func (m *VisitableMap) RemoveKey(key string) {
	if _, ok := m.items[key]; !ok {
		return
	}
	delete(m.items, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i:i], m.keys[i+1:]...)
			break
		}
	}
}

func (m *VisitableMap) Keys() []string {
	return append([]string(nil), m.keys...)
}

// All returns every item, keys in order.
func (m *VisitableMap) All() []any {
	var out []any
	for _, k := range m.keys {
		out = append(out, m.items[k]...)
	}
	return out
}

func (m *VisitableMap) Len() int {
	n := 0
	for _, list := range m.items {
		n += len(list)
	}
	return n
}

func same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if !reflect.TypeOf(a).Comparable() || !reflect.TypeOf(b).Comparable() {
		return false
	}
	return a == b
}

// Visitable is implemented by fluents; Accept descends into the nested
// builders it exposes.
type Visitable interface {
	Visitables() *VisitableMap
}

// BaseFluent is embedded by generated fluents.
type BaseFluent struct {
	visitables *VisitableMap
}

func (f *BaseFluent) Visitables() *VisitableMap {
	if f.visitables == nil {
		f.visitables = NewVisitableMap()
	}
	return f.visitables
}

// Accept traverses root with visitors.
func Accept(root any, visitors ...Visitor) {
	AcceptPath(root, nil, visitors...)
}

// AcceptPath visits root, reached through path, and then every nested
// visitable under it. Visitors run per node in ascending Order, ties in
// the order given. Children see the path extended with (key, node).
func AcceptPath(root any, path Path, visitors ...Visitor) {
	sorted := append([]Visitor(nil), visitors...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return OrderOf(sorted[i]) < OrderOf(sorted[j])
	})
	accept(root, path, sorted)
}

func accept(node any, path Path, visitors []Visitor) {
	for _, v := range visitors {
		if CanVisit(v, path, node) {
			VisitWith(v, path, node)
		}
	}
	vis, ok := node.(Visitable)
	if !ok {
		return
	}
	m := vis.Visitables()
	for _, key := range m.Keys() {
		child := path.Append(key, node)
		for _, item := range m.Get(key) {
			accept(item, child, visitors)
		}
	}
}
