package model

import (
	"github.com/goccy/go-json"
)

// References marshal with a "ref" discriminator so snapshots stay readable
// and stable across runs.

func (r ClassRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Ref       string    `json:"ref"`
		Name      string    `json:"name"`
		Arguments []TypeRef `json:"arguments,omitempty"`
		Dims      int       `json:"dims,omitempty"`
		Outer     string    `json:"outer,omitempty"`
	}{"class", r.FullyQualifiedName, r.Arguments, r.Dimensions, outerName(r.Outer)})
}

func (r PrimitiveRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Ref  string `json:"ref"`
		Kind string `json:"kind"`
		Dims int    `json:"dims,omitempty"`
	}{"primitive", string(r.Kind), r.Dimensions})
}

func (r WildcardRef) MarshalJSON() ([]byte, error) {
	bound := ""
	switch r.Bound {
	case BoundUpper:
		bound = "extends"
	case BoundLower:
		bound = "super"
	}
	return json.Marshal(struct {
		Ref   string  `json:"ref"`
		Bound string  `json:"bound,omitempty"`
		Type  TypeRef `json:"type,omitempty"`
	}{"wildcard", bound, r.Type})
}

func (r TypeParamRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Ref  string `json:"ref"`
		Name string `json:"name"`
		Dims int    `json:"dims,omitempty"`
	}{"param", r.Name, r.Dimensions})
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (v Visibility) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func outerName(outer *ClassRef) string {
	if outer == nil {
		return ""
	}
	return outer.FullyQualifiedName
}

// Snapshot renders def as JSON. The output is deterministic for equal
// declarations because attribute maps marshal with sorted keys.
func Snapshot(def *TypeDef) ([]byte, error) {
	return json.Marshal(def)
}
