package analyzer

import (
	"bytes"
	"go/ast"
	"go/build"
	"go/format"
	"go/token"
	"go/types"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/types/typeutil"

	"github.com/olehluchkiv/goexplain/internal/introspect"
)

var (
	_ introspect.Object = (*packageObject)(nil)
	_ introspect.Object = (*typeObject)(nil)
	_ introspect.Object = (*funcObject)(nil)
	_ introspect.Object = (*valueObject)(nil)
	_ introspect.Object = (*builtinObject)(nil)
	_ introspect.Object = (*builtinPackage)(nil)
)

// wrap adapts a declared go/types object. It returns nil for objects that
// never appear in package scopes or selections (labels, package names).
func (l *Loader) wrap(obj types.Object) introspect.Object {
	base := object{l: l, obj: obj}
	switch o := obj.(type) {
	case *types.TypeName:
		return &typeObject{object: base, tn: o}
	case *types.Func:
		return &funcObject{object: base, fn: o}
	case *types.Var, *types.Const:
		return &valueObject{object: base}
	}
	return nil
}

func (l *Loader) lookup(obj types.Object) (introspect.Object, bool) {
	if obj == nil {
		return nil, false
	}
	w := l.wrap(obj)
	return w, w != nil
}

// object holds what every declared object shares.
type object struct {
	l   *Loader
	obj types.Object
}

func (o object) Name() string { return o.obj.Name() }

func (o object) File() (introspect.Position, bool) {
	if d, ok := o.l.declFor(o.obj); ok {
		return introspect.Position{File: d.pos.Filename, Line: d.pos.Line}, true
	}
	if !o.obj.Pos().IsValid() {
		return introspect.Position{}, false
	}
	pos := o.l.fset.Position(o.obj.Pos())
	name, ok := fileName(pos.Filename)
	if !ok {
		return introspect.Position{}, false
	}
	return introspect.Position{File: name, Line: pos.Line}, true
}

// fileName turns a file name recorded in export data into a path on disk.
// The standard library records its files relative to $GOROOT.
func fileName(name string) (string, bool) {
	rest, ok := strings.CutPrefix(name, "$GOROOT")
	if !ok {
		return name, name != ""
	}
	if build.Default.GOROOT == "" {
		return "", false
	}
	return filepath.Join(build.Default.GOROOT, filepath.FromSlash(rest)), true
}

func (o object) Doc() (string, bool) {
	d, ok := o.l.declFor(o.obj)
	if !ok || d.doc == nil {
		return "", false
	}
	text := strings.TrimSpace(d.doc.Text())
	return text, text != ""
}

func (o object) Source() (introspect.Source, bool) {
	d, ok := o.l.declFor(o.obj)
	if !ok {
		return introspect.Source{}, false
	}
	return o.l.source(d)
}

func (o object) qualifier() types.Qualifier {
	return shortQualifier(o.obj.Pkg())
}

// shortQualifier drops the qualifier for pkg's own types and uses the bare
// package name for everything else. Packages are compared by path because
// export data and source produce distinct *types.Package values.
func shortQualifier(pkg *types.Package) types.Qualifier {
	return func(other *types.Package) string {
		if pkg != nil && other.Path() == pkg.Path() {
			return ""
		}
		return other.Name()
	}
}

// packageObject is a loaded package.
type packageObject struct {
	l   *Loader
	pkg *packages.Package
}

func (p *packageObject) Name() string              { return p.pkg.Name }
func (p *packageObject) Kind() introspect.Kind     { return introspect.KindPackage }
func (p *packageObject) TypeName() string          { return "package" }
func (p *packageObject) Callable() bool            { return false }
func (p *packageObject) Signature() (string, bool) { return "", false }

// Source is never shown for packages; their members are listed instead.
func (p *packageObject) Source() (introspect.Source, bool) { return introspect.Source{}, false }

func (p *packageObject) File() (introspect.Position, bool) {
	files := p.pkg.GoFiles
	if len(files) == 0 {
		files = p.pkg.CompiledGoFiles
	}
	if len(files) == 0 {
		return introspect.Position{}, false
	}
	return introspect.Position{File: filepath.Dir(files[0])}, true
}

// Doc returns the package comment, preferring the one in doc.go.
func (p *packageObject) Doc() (string, bool) {
	var doc *ast.CommentGroup
	for _, f := range p.pkg.Syntax {
		if f.Doc == nil {
			continue
		}
		name := filepath.Base(p.l.fset.Position(f.Package).Filename)
		if doc == nil || name == "doc.go" {
			doc = f.Doc
		}
	}
	if doc == nil {
		return "", false
	}
	text := strings.TrimSpace(doc.Text())
	return text, text != ""
}

func (p *packageObject) Members() ([]introspect.Member, bool) {
	scope := p.pkg.Types.Scope()
	var members []introspect.Member
	for _, name := range scope.Names() {
		obj := scope.Lookup(name)
		if !p.l.visible(obj) {
			continue
		}
		if m, ok := p.l.member(obj); ok {
			members = append(members, m)
		}
	}
	sortMembers(members)
	return members, true
}

func (p *packageObject) Lookup(name string) (introspect.Object, bool) {
	return p.l.lookup(p.pkg.Types.Scope().Lookup(name))
}

// builtinPackage is the documentation-only builtin package. It has syntax
// but no type information, so its members come from the universe scope.
type builtinPackage struct {
	packageObject
}

// Members lists the predeclared identifiers documented by the package. They
// are all lower case, so visibility does not apply.
func (b *builtinPackage) Members() ([]introspect.Member, bool) {
	idx, ok := b.l.index(builtinPath)
	if !ok {
		return nil, true
	}
	var members []introspect.Member
	for name := range idx.byName {
		obj, ok := b.l.Builtin(name)
		if !ok {
			continue // placeholders such as Type and IntegerType
		}
		doc, _ := obj.Doc()
		members = append(members, introspect.Member{
			Name: name,
			Type: obj.TypeName(),
			Doc:  firstLine(doc),
		})
	}
	sortMembers(members)
	return members, true
}

func (b *builtinPackage) Lookup(name string) (introspect.Object, bool) {
	return b.l.Builtin(name)
}

// typeObject is a named type or alias.
type typeObject struct {
	object
	tn *types.TypeName
}

func (t *typeObject) Kind() introspect.Kind     { return introspect.KindType }
func (t *typeObject) TypeName() string          { return typeKind(t.tn) }
func (t *typeObject) Callable() bool            { return false }
func (t *typeObject) Signature() (string, bool) { return "", false }

// Members lists the fields declared by a struct type and the methods callable
// on a value of the type, including pointer-receiver and promoted methods.
func (t *typeObject) Members() ([]introspect.Member, bool) {
	var members []introspect.Member
	typ := t.tn.Type()

	if st, ok := typ.Underlying().(*types.Struct); ok {
		for i := 0; i < st.NumFields(); i++ {
			f := st.Field(i)
			if !t.l.visible(f) {
				continue
			}
			if m, ok := t.l.member(f); ok {
				members = append(members, m)
			}
		}
	}

	for _, sel := range typeutil.IntuitiveMethodSet(typ, &t.l.msets) {
		fn := sel.Obj()
		if !t.l.visible(fn) {
			continue
		}
		if m, ok := t.l.member(fn); ok {
			members = append(members, m)
		}
	}

	sortMembers(members)
	return members, true
}

func (t *typeObject) Lookup(name string) (introspect.Object, bool) {
	obj, _, _ := types.LookupFieldOrMethod(t.tn.Type(), true, t.tn.Pkg(), name)
	return t.l.lookup(obj)
}

// funcObject is a function or a method.
type funcObject struct {
	object
	fn *types.Func
}

func (f *funcObject) Kind() introspect.Kind {
	if sig, ok := f.fn.Type().(*types.Signature); ok && sig.Recv() != nil {
		return introspect.KindMethod
	}
	return introspect.KindFunc
}

func (f *funcObject) TypeName() string { return f.Kind().String() }
func (f *funcObject) Callable() bool   { return true }

// Signature prints the declaration header as written, parameter names
// included. Interface methods and functions without syntax fall back to
// go/types.
func (f *funcObject) Signature() (string, bool) {
	if d, ok := f.l.declFor(f.fn); ok {
		if fd, ok := d.node.(*ast.FuncDecl); ok {
			if sig, err := formatFuncDecl(f.l.fset, fd); err == nil {
				return sig, true
			}
		}
	}
	return types.ObjectString(f.fn, f.qualifier()), true
}

func (f *funcObject) Members() ([]introspect.Member, bool)         { return nil, false }
func (f *funcObject) Lookup(name string) (introspect.Object, bool) { return nil, false }

// valueObject is a var, const, or struct field.
type valueObject struct {
	object
}

func (v *valueObject) Kind() introspect.Kind {
	switch o := v.obj.(type) {
	case *types.Const:
		return introspect.KindConst
	case *types.Var:
		if o.IsField() {
			return introspect.KindField
		}
	}
	return introspect.KindVar
}

func (v *valueObject) TypeName() string {
	return types.TypeString(v.obj.Type(), v.qualifier())
}

func (v *valueObject) Callable() bool {
	_, ok := v.obj.Type().Underlying().(*types.Signature)
	return ok
}

func (v *valueObject) Signature() (string, bool) {
	if !v.Callable() {
		return "", false
	}
	return types.ObjectString(v.obj, v.qualifier()), true
}

func (v *valueObject) Members() ([]introspect.Member, bool) { return nil, false }

// Lookup selects a field or method of the value, as v.name would.
func (v *valueObject) Lookup(name string) (introspect.Object, bool) {
	addressable := v.Kind() != introspect.KindConst
	obj, _, _ := types.LookupFieldOrMethod(v.obj.Type(), addressable, v.obj.Pkg(), name)
	return v.l.lookup(obj)
}

// builtinObject is a predeclared identifier. Its documentation lives in the
// builtin pseudo-package, which is only loaded when asked for.
type builtinObject struct {
	l   *Loader
	obj types.Object
}

func (b *builtinObject) Name() string          { return b.obj.Name() }
func (b *builtinObject) Kind() introspect.Kind { return introspect.KindBuiltin }

func (b *builtinObject) TypeName() string {
	switch b.obj.(type) {
	case *types.Builtin:
		return "builtin func"
	case *types.TypeName:
		return "builtin type"
	case *types.Const:
		return "builtin const"
	case *types.Nil:
		return "builtin value"
	}
	return "builtin"
}

func (b *builtinObject) Callable() bool {
	_, ok := b.obj.(*types.Builtin)
	return ok
}

// File is always absent: predeclared identifiers are implemented by the
// compiler.
func (b *builtinObject) File() (introspect.Position, bool) { return introspect.Position{}, false }

// Signature is the pseudo-signature from the builtin package, whose
// parameter types (Type, Type1, IntegerType) are placeholders.
func (b *builtinObject) Signature() (string, bool) {
	if !b.Callable() {
		return "", false
	}
	d, ok := b.l.builtinDecl(b.obj.Name())
	if !ok {
		return "", false
	}
	fd, ok := d.node.(*ast.FuncDecl)
	if !ok {
		return "", false
	}
	sig, err := formatFuncDecl(b.l.fset, fd)
	if err != nil {
		return "", false
	}
	return sig, true
}

func (b *builtinObject) Doc() (string, bool) {
	d, ok := b.l.builtinDecl(b.obj.Name())
	if !ok || d.doc == nil {
		return "", false
	}
	text := strings.TrimSpace(d.doc.Text())
	return text, text != ""
}

func (b *builtinObject) Members() ([]introspect.Member, bool)         { return nil, false }
func (b *builtinObject) Source() (introspect.Source, bool)            { return introspect.Source{}, false }
func (b *builtinObject) Lookup(name string) (introspect.Object, bool) { return nil, false }

// formatFuncDecl prints the header of fd without its body or doc comment.
func formatFuncDecl(fset *token.FileSet, fd *ast.FuncDecl) (string, error) {
	header := *fd
	header.Body = nil
	header.Doc = nil
	var buf bytes.Buffer
	if err := format.Node(&buf, fset, &header); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func typeKind(tn *types.TypeName) string {
	if tn.IsAlias() {
		return "alias"
	}
	switch tn.Type().Underlying().(type) {
	case *types.Struct:
		return "struct"
	case *types.Interface:
		return "interface"
	case *types.Signature:
		return "func type"
	case *types.Map:
		return "map type"
	case *types.Slice:
		return "slice type"
	case *types.Array:
		return "array type"
	case *types.Chan:
		return "chan type"
	case *types.Pointer:
		return "pointer type"
	}
	return "type"
}
