package javasource

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"

	errs "fluentgen/internal/core/errors"
	"fluentgen/internal/model"
)

var language = sitter.NewLanguage(tree_sitter_java.Language())

// typeExpr is a type as written in source, before name resolution.
type typeExpr struct {
	name      string
	primitive model.Primitive
	args      []*typeExpr
	dims      int
	wildcard  bool
	bound     model.BoundKind
	boundType *typeExpr
}

func (e *typeExpr) withDims(extra int) *typeExpr {
	if extra == 0 {
		return e
	}
	cp := *e
	cp.dims += extra
	return &cp
}

type javaParam struct {
	name   string
	bounds []*typeExpr
}

type javaAnnotation struct {
	name   string
	values []model.AnnotationValue
}

type javaField struct {
	name        string
	typ         *typeExpr
	mods        model.Modifiers
	init        string
	annotations []javaAnnotation
}

type javaMethod struct {
	name        string
	params      []javaParam
	ret         *typeExpr
	args        []javaField
	varargs     bool
	mods        model.Modifiers
	annotations []javaAnnotation
	hasBody     bool
	isDefault   bool
}

type javaCtor struct {
	args    []javaField
	varargs bool
	mods    model.Modifiers
}

type javaType struct {
	kind        model.Kind
	name        string
	outer       string
	mods        model.Modifiers
	params      []javaParam
	super       *typeExpr
	ifaces      []*typeExpr
	fields      []javaField
	methods     []javaMethod
	ctors       []javaCtor
	annotations []javaAnnotation
	nested      []*javaType
}

func (t *javaType) localName() string {
	if t.outer == "" {
		return t.name
	}
	return t.outer + "." + t.name
}

// File is a parsed compilation unit.
type File struct {
	Path     string
	Package  string
	imports  map[string]string
	wildcard []string
	types    []*javaType
}

// Parse reads the type declarations and member signatures of one Java
// compilation unit. Method bodies and initializers are kept as text only.
func Parse(path string, content []byte) (*File, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(language); err != nil {
		return nil, errs.Wrap(err, errs.CodeInternal, "java grammar not loaded")
	}

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, errs.Configuration("", "parse failed").WithContext(errs.CtxPath, path)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, errs.Configuration("", "source has syntax errors").WithContext(errs.CtxPath, path)
	}

	x := &extractor{src: content}
	f := &File{Path: path, imports: make(map[string]string)}
	for i := uint(0); i < root.NamedChildCount(); i++ {
		node := root.NamedChild(i)
		switch node.Kind() {
		case "package_declaration":
			for j := uint(0); j < node.NamedChildCount(); j++ {
				c := node.NamedChild(j)
				if c.Kind() == "scoped_identifier" || c.Kind() == "identifier" {
					f.Package = compact(x.text(c))
				}
			}
		case "import_declaration":
			f.addImport(x.text(node))
		default:
			if t := x.typeDecl(node, ""); t != nil {
				f.types = append(f.types, flatten(t)...)
			}
		}
	}
	return f, nil
}

func (f *File) addImport(text string) {
	text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), ";"))
	text = strings.TrimSpace(strings.TrimPrefix(text, "import"))
	if strings.HasPrefix(text, "static ") {
		return
	}
	name := compact(text)
	if pkg, ok := strings.CutSuffix(name, ".*"); ok {
		f.wildcard = append(f.wildcard, pkg)
		return
	}
	_, simple := model.SplitName(name)
	f.imports[simple] = name
}

func flatten(t *javaType) []*javaType {
	out := []*javaType{t}
	for _, n := range t.nested {
		out = append(out, flatten(n)...)
	}
	return out
}

type extractor struct {
	src []byte
}

func (x *extractor) text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(x.src[node.StartByte():node.EndByte()])
}

func (x *extractor) typeDecl(node *sitter.Node, outer string) *javaType {
	t := &javaType{outer: outer}
	switch node.Kind() {
	case "class_declaration":
		t.kind = model.KindClass
	case "record_declaration":
		t.kind = model.KindClass
	case "interface_declaration":
		t.kind = model.KindInterface
	case "enum_declaration":
		t.kind = model.KindEnum
	case "annotation_type_declaration":
		t.kind = model.KindAnnotation
	default:
		return nil
	}
	t.name = x.text(node.ChildByFieldName("name"))
	t.params = x.typeParams(node.ChildByFieldName("type_parameters"))
	if sc := node.ChildByFieldName("superclass"); sc != nil {
		t.super = x.firstType(sc)
	}
	if ifaces := node.ChildByFieldName("interfaces"); ifaces != nil {
		t.ifaces = x.typeList(ifaces)
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		c := node.NamedChild(i)
		switch c.Kind() {
		case "modifiers":
			t.mods, t.annotations = x.modifiers(c)
		case "extends_interfaces":
			t.ifaces = append(t.ifaces, x.typeList(c)...)
		}
	}
	if node.Kind() == "record_declaration" {
		t.mods.Final = true
		comps, varargs := x.parameters(node.ChildByFieldName("parameters"))
		for _, comp := range comps {
			comp.mods = model.Modifiers{Visibility: model.VisibilityPrivate, Final: true}
			t.fields = append(t.fields, comp)
		}
		t.ctors = append(t.ctors, javaCtor{args: comps, varargs: varargs, mods: model.Public})
	}
	x.body(t, node.ChildByFieldName("body"))
	return t
}

func (x *extractor) body(t *javaType, body *sitter.Node) {
	if body == nil {
		return
	}
	nestedOuter := t.localName()
	for i := uint(0); i < body.NamedChildCount(); i++ {
		c := body.NamedChild(i)
		switch c.Kind() {
		case "field_declaration":
			t.fields = append(t.fields, x.fields(c)...)
		case "method_declaration", "annotation_type_element_declaration":
			t.methods = append(t.methods, x.method(c))
		case "constructor_declaration":
			mods, _ := x.modifiersOf(c)
			args, varargs := x.parameters(c.ChildByFieldName("parameters"))
			t.ctors = append(t.ctors, javaCtor{args: args, varargs: varargs, mods: mods})
		case "enum_body_declarations":
			x.body(t, c)
		default:
			if n := x.typeDecl(c, nestedOuter); n != nil {
				t.nested = append(t.nested, n)
			}
		}
	}
}

func (x *extractor) fields(node *sitter.Node) []javaField {
	mods, anns := x.modifiersOf(node)
	typ := x.typeExpr(node.ChildByFieldName("type"))
	var out []javaField
	for i := uint(0); i < node.NamedChildCount(); i++ {
		c := node.NamedChild(i)
		if c.Kind() != "variable_declarator" {
			continue
		}
		f := javaField{
			name:        x.text(c.ChildByFieldName("name")),
			typ:         typ.withDims(x.dims(c)),
			mods:        mods,
			init:        x.text(c.ChildByFieldName("value")),
			annotations: anns,
		}
		out = append(out, f)
	}
	return out
}

func (x *extractor) method(node *sitter.Node) javaMethod {
	mods, anns := x.modifiersOf(node)
	m := javaMethod{
		name:        x.text(node.ChildByFieldName("name")),
		params:      x.typeParams(node.ChildByFieldName("type_parameters")),
		ret:         x.typeExpr(node.ChildByFieldName("type")),
		mods:        mods,
		annotations: anns,
		hasBody:     node.ChildByFieldName("body") != nil,
	}
	if mc := x.child(node, "modifiers"); mc != nil {
		m.isDefault = x.hasToken(mc, "default")
	}
	m.args, m.varargs = x.parameters(node.ChildByFieldName("parameters"))
	return m
}

func (x *extractor) parameters(node *sitter.Node) ([]javaField, bool) {
	if node == nil {
		return nil, false
	}
	var out []javaField
	varargs := false
	for i := uint(0); i < node.NamedChildCount(); i++ {
		c := node.NamedChild(i)
		switch c.Kind() {
		case "formal_parameter":
			mods, anns := x.modifiersOf(c)
			out = append(out, javaField{
				name:        x.text(c.ChildByFieldName("name")),
				typ:         x.typeExpr(c.ChildByFieldName("type")).withDims(x.dims(c)),
				mods:        mods,
				annotations: anns,
			})
		case "spread_parameter":
			varargs = true
			f := javaField{}
			for j := uint(0); j < c.NamedChildCount(); j++ {
				g := c.NamedChild(j)
				switch g.Kind() {
				case "modifiers":
					f.mods, f.annotations = x.modifiers(g)
				case "variable_declarator":
					f.name = x.text(g.ChildByFieldName("name"))
				default:
					if f.typ == nil {
						f.typ = x.typeExpr(g)
					}
				}
			}
			out = append(out, f)
		}
	}
	return out, varargs
}

func (x *extractor) typeParams(node *sitter.Node) []javaParam {
	if node == nil {
		return nil
	}
	var out []javaParam
	for i := uint(0); i < node.NamedChildCount(); i++ {
		c := node.NamedChild(i)
		if c.Kind() != "type_parameter" {
			continue
		}
		p := javaParam{}
		for j := uint(0); j < c.NamedChildCount(); j++ {
			g := c.NamedChild(j)
			switch g.Kind() {
			case "type_identifier", "identifier":
				p.name = x.text(g)
			case "type_bound":
				p.bounds = x.typeList(g)
			}
		}
		out = append(out, p)
	}
	return out
}

// typeList collects the types under node, descending through type_list.
func (x *extractor) typeList(node *sitter.Node) []*typeExpr {
	var out []*typeExpr
	for i := uint(0); i < node.NamedChildCount(); i++ {
		c := node.NamedChild(i)
		if c.Kind() == "type_list" {
			out = append(out, x.typeList(c)...)
			continue
		}
		if isAnnotation(c) {
			continue
		}
		out = append(out, x.typeExpr(c))
	}
	return out
}

func (x *extractor) firstType(node *sitter.Node) *typeExpr {
	types := x.typeList(node)
	if len(types) == 0 {
		return nil
	}
	return types[0]
}

func (x *extractor) typeExpr(node *sitter.Node) *typeExpr {
	if node == nil {
		return &typeExpr{primitive: model.Void}
	}
	switch node.Kind() {
	case "integral_type", "floating_point_type", "boolean_type", "void_type":
		p, ok := model.ParsePrimitive(strings.TrimSpace(x.text(node)))
		if !ok {
			p = model.Int
		}
		return &typeExpr{primitive: p}
	case "generic_type":
		e := &typeExpr{}
		for i := uint(0); i < node.NamedChildCount(); i++ {
			c := node.NamedChild(i)
			switch c.Kind() {
			case "type_arguments":
				for j := uint(0); j < c.NamedChildCount(); j++ {
					if a := c.NamedChild(j); !isAnnotation(a) {
						e.args = append(e.args, x.typeExpr(a))
					}
				}
			default:
				if e.name == "" {
					e.name = x.typeExpr(c).name
				}
			}
		}
		return e
	case "array_type":
		elem := x.typeExpr(node.ChildByFieldName("element"))
		return elem.withDims(strings.Count(x.text(node.ChildByFieldName("dimensions")), "["))
	case "wildcard":
		e := &typeExpr{wildcard: true}
		for i := uint(0); i < node.ChildCount(); i++ {
			c := node.Child(i)
			switch {
			case c.Kind() == "extends":
				e.bound = model.BoundUpper
			case c.Kind() == "super":
				e.bound = model.BoundLower
			case c.IsNamed() && !isAnnotation(c):
				e.boundType = x.typeExpr(c)
			}
		}
		return e
	case "annotated_type":
		var e *typeExpr
		for i := uint(0); i < node.NamedChildCount(); i++ {
			if c := node.NamedChild(i); !isAnnotation(c) {
				e = x.typeExpr(c)
			}
		}
		if e == nil {
			return &typeExpr{name: model.ObjectName}
		}
		return e
	default:
		return &typeExpr{name: compact(x.text(node))}
	}
}

// modifiersOf reads the modifiers child of a declaration, if any.
func (x *extractor) modifiersOf(node *sitter.Node) (model.Modifiers, []javaAnnotation) {
	if mc := x.child(node, "modifiers"); mc != nil {
		return x.modifiers(mc)
	}
	return model.Modifiers{}, nil
}

func (x *extractor) modifiers(node *sitter.Node) (model.Modifiers, []javaAnnotation) {
	var mods model.Modifiers
	var anns []javaAnnotation
	for i := uint(0); i < node.ChildCount(); i++ {
		c := node.Child(i)
		switch c.Kind() {
		case "public":
			mods.Visibility = model.VisibilityPublic
		case "protected":
			mods.Visibility = model.VisibilityProtected
		case "private":
			mods.Visibility = model.VisibilityPrivate
		case "static":
			mods.Static = true
		case "final":
			mods.Final = true
		case "abstract":
			mods.Abstract = true
		case "annotation", "marker_annotation":
			anns = append(anns, x.annotation(c))
		}
	}
	return mods, anns
}

func (x *extractor) annotation(node *sitter.Node) javaAnnotation {
	a := javaAnnotation{name: compact(x.text(node.ChildByFieldName("name")))}
	args := node.ChildByFieldName("arguments")
	if args == nil {
		return a
	}
	for i := uint(0); i < args.NamedChildCount(); i++ {
		c := args.NamedChild(i)
		if c.Kind() == "element_value_pair" {
			a.values = append(a.values, model.AnnotationValue{
				Name:  x.text(c.ChildByFieldName("key")),
				Value: x.text(c.ChildByFieldName("value")),
			})
			continue
		}
		a.values = append(a.values, model.AnnotationValue{Name: "value", Value: x.text(c)})
	}
	return a
}

func (x *extractor) child(node *sitter.Node, kind string) *sitter.Node {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if c := node.NamedChild(i); c.Kind() == kind {
			return c
		}
	}
	return nil
}

func (x *extractor) hasToken(node *sitter.Node, kind string) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		if node.Child(i).Kind() == kind {
			return true
		}
	}
	return false
}

// dims counts bracket pairs in a dimensions child, as in `int a[]`.
func (x *extractor) dims(node *sitter.Node) int {
	if d := x.child(node, "dimensions"); d != nil {
		return strings.Count(x.text(d), "[")
	}
	return 0
}

func isAnnotation(node *sitter.Node) bool {
	return node.Kind() == "annotation" || node.Kind() == "marker_annotation"
}

// compact drops whitespace so qualified names split across lines compare
// equal.
func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}
