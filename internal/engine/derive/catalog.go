package derive

import (
	"fluentgen/internal/model"
)

// BaseCatalogVersion identifies the shape of the well-known base
// declarations. Changing any name or signature below is a compatibility
// break for emitted code and must bump it.
const BaseCatalogVersion = "2"

// TemplatePackage is the namespace the catalog is declared in before it is
// relocated into the caller's builder package.
const TemplatePackage = "fluentgen.template"

// Simple names of the well-known base declarations.
const (
	Visitor               = "Visitor"
	TypedVisitor          = "TypedVisitor"
	PathAwareTypedVisitor = "PathAwareTypedVisitor"
	VisitorListener       = "VisitorListener"
	Visitable             = "Visitable"
	VisitableBuilder      = "VisitableBuilder"
	Builder               = "Builder"
	Fluent                = "Fluent"
	Nested                = "Nested"
	Editable              = "Editable"
	Inlineable            = "Inlineable"
	BaseFluent            = "BaseFluent"
	VisitableMap          = "VisitableMap"
	ValidationUtils       = "ValidationUtils"
)

func tmpl(name string) string { return TemplatePackage + "." + name }

func tref(name string, args ...model.TypeRef) model.ClassRef {
	return model.NewClassRef(tmpl(name), args...)
}

func param(name string, bounds ...model.TypeRef) model.TypeParamDef {
	return model.TypeParamDef{Name: name, Bounds: bounds}
}

func tp(name string) model.TypeParamRef { return model.NewTypeParamRef(name) }

func arg(name string, t model.TypeRef) model.Property {
	return model.Property{Name: name, Type: t}
}

func abstractMethod(name string, ret model.TypeRef, args ...model.Property) model.Method {
	return model.Method{
		Name:      name,
		Return:    ret,
		Arguments: args,
		Modifiers: model.Modifiers{Visibility: model.VisibilityPublic, Abstract: true},
	}
}

var (
	boolean   = model.NewPrimitiveRef(model.Boolean)
	integer   = model.NewPrimitiveRef(model.Int)
	void      = model.NewPrimitiveRef(model.Void)
	wildcard  = model.WildcardRef{}
	pathRef   = model.ListOf(model.Object)
	objectRef = model.Object
)

// catalog returns a fresh copy of the template declarations in dependency
// order.
func catalog() []*model.TypeDef {
	iface := func(name string, params ...model.TypeParamDef) *model.TypeDef {
		return &model.TypeDef{
			Kind:      model.KindInterface,
			Package:   TemplatePackage,
			Name:      name,
			Modifiers: model.Modifiers{Visibility: model.VisibilityPublic, Abstract: true},
			Params:    params,
		}
	}
	class := func(name string, params ...model.TypeParamDef) *model.TypeDef {
		return &model.TypeDef{
			Kind:      model.KindClass,
			Package:   TemplatePackage,
			Name:      name,
			Modifiers: model.Public,
			Params:    params,
		}
	}

	visitor := iface(Visitor, param("T"))
	visitor.Methods = []model.Method{
		abstractMethod("visit", void, arg("element", tp("T"))),
		abstractMethod("visitPath", void, arg("path", pathRef), arg("element", tp("T"))),
		abstractMethod("canVisit", boolean, arg("path", pathRef), arg("target", objectRef)),
		abstractMethod("order", integer),
	}

	typed := class(TypedVisitor, param("V"))
	typed.Modifiers.Abstract = true
	typed.Implements = []model.ClassRef{tref(Visitor, tp("V"))}
	typed.Methods = []model.Method{
		abstractMethod("getType", objectRef),
	}

	pathAware := class(PathAwareTypedVisitor, param("V"), param("P"))
	pathAware.Modifiers.Abstract = true
	super := tref(TypedVisitor, tp("V"))
	pathAware.Super = &super
	pathAware.Methods = []model.Method{
		abstractMethod("getParentType", objectRef),
		abstractMethod("getParent", tp("P"), arg("path", pathRef)),
	}

	listener := iface(VisitorListener)
	listener.Methods = []model.Method{
		abstractMethod("beforeVisit", void, arg("visitor", tref(Visitor, wildcard)), arg("path", pathRef), arg("target", objectRef)),
		abstractMethod("afterVisit", void, arg("visitor", tref(Visitor, wildcard)), arg("path", pathRef), arg("target", objectRef)),
		abstractMethod("onCheck", void, arg("visitor", tref(Visitor, wildcard)), arg("canVisit", boolean), arg("target", objectRef)),
	}

	visitableMap := class(VisitableMap)
	visitableMap.Properties = []model.Property{{
		Name:      "entries",
		Type:      model.MapOf(model.String, model.ListOf(objectRef)),
		Modifiers: model.Modifiers{Visibility: model.VisibilityPrivate, Final: true},
	}}
	visitableMap.Methods = []model.Method{
		{Name: "get", Return: model.ListOf(objectRef), Arguments: []model.Property{arg("key", model.String)}, Modifiers: model.Public},
		{Name: "keys", Return: model.ListOf(model.String), Modifiers: model.Public},
	}

	visitable := iface(Visitable, param("T"))
	visitable.Methods = []model.Method{
		{
			Name:      "accept",
			Return:    tp("T"),
			Arguments: []model.Property{arg("visitors", tref(Visitor, wildcard).WithDimensions(1))},
			Varargs:   true,
			Modifiers: model.Modifiers{Visibility: model.VisibilityPublic, Abstract: true},
		},
		abstractMethod("getVisitables", tref(VisitableMap)),
	}

	builder := iface(Builder, param("T"))
	builder.Methods = []model.Method{abstractMethod("build", tp("T"))}

	visitableBuilder := iface(VisitableBuilder, param("T"), param("V", tref(VisitableBuilder, tp("T"), tp("V"))))
	visitableBuilder.Implements = []model.ClassRef{tref(Builder, tp("T")), tref(Visitable, tp("V"))}

	fluent := iface(Fluent, param("F", tref(Fluent, tp("F"))))

	nested := iface(Nested, param("F"))
	nested.Methods = []model.Method{abstractMethod("and", tp("F"))}

	editable := iface(Editable, param("T"))
	editable.Methods = []model.Method{abstractMethod("edit", tp("T"))}

	inlineable := iface(Inlineable, param("T"))
	inlineable.Methods = []model.Method{abstractMethod("update", tp("T"))}

	baseFluent := class(BaseFluent, param("F", tref(Fluent, tp("F"))))
	baseFluent.Implements = []model.ClassRef{tref(Fluent, tp("F")), tref(Visitable, tp("F"))}
	baseFluent.Properties = []model.Property{{
		Name:      "visitables",
		Type:      tref(VisitableMap),
		Modifiers: model.Modifiers{Visibility: model.VisibilityProtected, Final: true},
	}}
	baseFluent.Methods = []model.Method{
		{
			Name:      "accept",
			Return:    tp("F"),
			Arguments: []model.Property{arg("visitors", tref(Visitor, wildcard).WithDimensions(1))},
			Varargs:   true,
			Modifiers: model.Public,
		},
		{Name: "getVisitables", Return: tref(VisitableMap), Modifiers: model.Public},
	}
	baseFluent.Constructors = []model.Constructor{{Modifiers: model.Public}}

	static := model.Modifiers{Visibility: model.VisibilityPublic, Static: true}
	validation := class(ValidationUtils)
	validation.Modifiers.Final = true
	validation.Methods = []model.Method{
		{Name: "validate", Return: void, Arguments: []model.Property{arg("item", objectRef)}, Modifiers: static},
		{Name: "validate", Return: void, Arguments: []model.Property{arg("item", objectRef), arg("validator", objectRef)}, Modifiers: static},
	}

	return []*model.TypeDef{
		visitor, typed, pathAware, listener, visitableMap, visitable,
		builder, visitableBuilder, fluent, nested, editable, inlineable, baseFluent,
		validation,
	}
}
