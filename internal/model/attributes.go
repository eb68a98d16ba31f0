package model

// Attributes is the free-form bag transforms use to hand metadata to each
// other and to the emitter.
type Attributes map[string]any

const (
	AttrOrigin = "origin"

	// Declaration-level.
	AttrRole                = "role"
	AttrDerivedFrom         = "derived.from"
	AttrComparedProperties  = "compared.properties"
	AttrEqualsDelegates     = "equals.delegates.super"
	AttrBuildableProperties = "buildable.properties"
	AttrCatalogVersion      = "catalog.version"
	// AttrGenerate marks base declarations an emitter must render itself
	// instead of importing a prebuilt builder package.
	AttrGenerate = "generate"

	// Member-level.
	AttrAccessor           = "accessor"
	AttrProperty           = "property"
	AttrVisitableKey       = "visitable.key"
	AttrInherited          = "inherited"
	AttrBuildable          = "buildable"
	AttrBuilderType        = "builder.type"
	AttrConstructorArgs    = "constructor.arguments"
	AttrAssignedProperties = "assigned.properties"
	AttrSynthesized        = "synthesized"
	AttrSourceName         = "source.name"
	AttrValidate           = "validate"
	AttrExternalValidator  = "validate.external"
)

// With returns a copy of a carrying key=value.
func (a Attributes) With(key string, value any) Attributes {
	out := make(Attributes, len(a)+1)
	for k, v := range a {
		out[k] = v
	}
	out[key] = value
	return out
}

func (a Attributes) String(key string) string {
	s, _ := a[key].(string)
	return s
}

func (a Attributes) Bool(key string) bool {
	b, _ := a[key].(bool)
	return b
}

func (a Attributes) Strings(key string) []string {
	switch v := a[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func (a Attributes) Has(key string) bool {
	_, ok := a[key]
	return ok
}
