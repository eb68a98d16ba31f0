package derive

import (
	"fluentgen/internal/model"
)

// Family is every declaration derived from one type. Abstract types only
// get a Fluent.
type Family struct {
	Source      *model.TypeDef
	Fluent      *model.TypeDef
	Builder     *model.TypeDef
	Editable    *model.TypeDef
	Inlineables []*model.TypeDef
}

// Declarations lists the derived declarations in derivation order.
func (f *Family) Declarations() []*model.TypeDef {
	var out []*model.TypeDef
	for _, d := range []*model.TypeDef{f.Fluent, f.Builder, f.Editable} {
		if d != nil {
			out = append(out, d)
		}
	}
	return append(out, f.Inlineables...)
}

// Family derives the whole builder family of def using the context's
// options. A concrete def is marked buildable before its Fluent is derived,
// so every member of the family sees the same buildable set.
func (c *Context) Family(def *model.TypeDef) (*Family, error) {
	if err := checkInput(def); err != nil {
		return nil, err
	}
	if !def.IsAbstract() {
		c.MarkBuildable(def.FullyQualifiedName())
	}
	fluent, err := c.Fluent(def)
	if err != nil {
		return nil, err
	}
	fam := &Family{Source: def, Fluent: fluent}
	if def.IsAbstract() {
		return fam, nil
	}
	if fam.Builder, err = c.Builder(def); err != nil {
		return nil, err
	}
	if !c.opts.SkipEditable && !def.Modifiers.Final {
		if fam.Editable, err = c.Editable(def); err != nil {
			return nil, err
		}
	}
	for _, spec := range c.opts.Inline {
		inline, err := c.Inlineable(def, spec)
		if err != nil {
			return nil, err
		}
		fam.Inlineables = append(fam.Inlineables, inline)
	}
	return fam, nil
}
