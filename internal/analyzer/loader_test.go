package analyzer

import (
	"context"
	"go/build"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/olehluchkiv/goexplain/internal/introspect"
	"github.com/olehluchkiv/goexplain/internal/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestLoader(t *testing.T, includeUnexported bool) *Loader {
	t.Helper()
	// go test sets cwd to the package directory.
	dir, err := filepath.Abs(filepath.Join("..", "..", "testdata", "shapes"))
	require.NoError(t, err)
	return NewLoader(context.Background(), Options{Dir: dir, IncludeUnexported: includeUnexported}, testLogger())
}

func importShapes(t *testing.T, l *Loader) introspect.Object {
	t.Helper()
	pkg, err := l.Import(context.Background(), "example.com/shapes")
	require.NoError(t, err)
	return pkg
}

func lookupPath(t *testing.T, obj introspect.Object, names ...string) introspect.Object {
	t.Helper()
	for _, name := range names {
		next, ok := obj.Lookup(name)
		require.True(t, ok, "lookup %q on %s", name, obj.Name())
		obj = next
	}
	return obj
}

func memberNames(members []introspect.Member) []string {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}
	return names
}

func memberByName(t *testing.T, members []introspect.Member, name string) introspect.Member {
	t.Helper()
	for _, m := range members {
		if m.Name == name {
			return m
		}
	}
	t.Fatalf("member %q not found in %v", name, memberNames(members))
	return introspect.Member{}
}

func TestImport_Package(t *testing.T) {
	pkg := importShapes(t, newTestLoader(t, false))

	assert.Equal(t, "shapes", pkg.Name())
	assert.Equal(t, introspect.KindPackage, pkg.Kind())
	assert.Equal(t, "package", pkg.TypeName())
	assert.False(t, pkg.Callable())
	assert.True(t, introspect.IsContainer(pkg))

	doc, ok := pkg.Doc()
	require.True(t, ok)
	assert.Contains(t, doc, "Package shapes models plane figures.")

	file, ok := pkg.File()
	require.True(t, ok)
	assert.Equal(t, "shapes", filepath.Base(file.File))
	assert.Zero(t, file.Line)

	_, ok = pkg.Signature()
	assert.False(t, ok)
	_, ok = pkg.Source()
	assert.False(t, ok)
}

func TestImport_PackageMembers(t *testing.T) {
	pkg := importShapes(t, newTestLoader(t, false))

	members, ok := pkg.Members()
	require.True(t, ok)
	assert.Equal(t, []string{"Circle", "Measure", "NewCircle", "Pi", "Shape", "Unit"}, memberNames(members))

	assert.Equal(t, introspect.Member{Name: "Circle", Type: "struct", Doc: "Circle is a round shape."}, memberByName(t, members, "Circle"))
	assert.Equal(t, "interface", memberByName(t, members, "Shape").Type)
	assert.Equal(t, "func", memberByName(t, members, "NewCircle").Type)
	assert.Equal(t, "untyped float", memberByName(t, members, "Pi").Type)
	assert.Equal(t, "Circle", memberByName(t, members, "Unit").Type)
	assert.Equal(t, "func(s Shape) float64", memberByName(t, members, "Measure").Type)
}

func TestImport_PackageMembersIncludeUnexported(t *testing.T) {
	pkg := importShapes(t, newTestLoader(t, true))

	members, ok := pkg.Members()
	require.True(t, ok)
	names := memberNames(members)
	assert.Contains(t, names, "undocumented")
	assert.Equal(t, "", memberByName(t, members, "undocumented").Doc)
}

func TestImport_MissingPackage(t *testing.T) {
	l := newTestLoader(t, false)

	_, err := l.Import(context.Background(), "example.com/shapes/nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, resolver.ErrNoPackage)

	// Second attempt is answered from memory.
	_, err = l.Import(context.Background(), "example.com/shapes/nope")
	assert.ErrorIs(t, err, resolver.ErrNoPackage)
}

func TestImport_RejectsPatterns(t *testing.T) {
	l := newTestLoader(t, false)

	for _, path := range []string{"all", "std", "cmd", "example.com/...", "-json", "./shapes"} {
		t.Run(path, func(t *testing.T) {
			_, err := l.Import(context.Background(), path)
			assert.ErrorIs(t, err, resolver.ErrNoPackage)
		})
	}
	assert.Empty(t, l.pkgs, "patterns must be rejected before go list runs")
}

func TestImport_CancelledContext(t *testing.T) {
	l := newTestLoader(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Import(ctx, "example.com/shapes")
	require.Error(t, err)
	assert.NotErrorIs(t, err, resolver.ErrNoPackage)
}

func TestLookup_StructType(t *testing.T) {
	circle := lookupPath(t, importShapes(t, newTestLoader(t, false)), "Circle")

	assert.Equal(t, introspect.KindType, circle.Kind())
	assert.Equal(t, "struct", circle.TypeName())
	assert.False(t, circle.Callable())
	assert.True(t, introspect.IsContainer(circle))

	doc, ok := circle.Doc()
	require.True(t, ok)
	assert.Equal(t, "Circle is a round shape.", doc)

	file, ok := circle.File()
	require.True(t, ok)
	assert.Equal(t, "shapes.go", filepath.Base(file.File))
	assert.Equal(t, 12, file.Line)

	members, ok := circle.Members()
	require.True(t, ok)
	assert.Equal(t, []string{"Area", "Dist", "Point", "Radius", "Scale"}, memberNames(members))
	assert.Equal(t, introspect.Member{Name: "Radius", Type: "float64", Doc: "Radius is the distance from the center to the edge."}, memberByName(t, members, "Radius"))
	assert.Equal(t, "geom.Point", memberByName(t, members, "Point").Type)
	assert.Equal(t, "center", memberByName(t, members, "Point").Doc)
	assert.Equal(t, "method", memberByName(t, members, "Scale").Type)
	// Promoted from geom.Point, documented in another package.
	assert.Equal(t, "Dist returns the Manhattan distance between p and q.", memberByName(t, members, "Dist").Doc)
}

func TestLookup_StructTypeIncludeUnexported(t *testing.T) {
	circle := lookupPath(t, importShapes(t, newTestLoader(t, true)), "Circle")

	members, ok := circle.Members()
	require.True(t, ok)
	names := memberNames(members)
	assert.Contains(t, names, "label")
	assert.Contains(t, names, "describe")
}

func TestLookup_Func(t *testing.T) {
	fn := lookupPath(t, importShapes(t, newTestLoader(t, false)), "NewCircle")

	assert.Equal(t, introspect.KindFunc, fn.Kind())
	assert.Equal(t, "func", fn.TypeName())
	assert.True(t, fn.Callable())
	assert.False(t, introspect.IsContainer(fn))

	sig, ok := fn.Signature()
	require.True(t, ok)
	assert.Equal(t, "func NewCircle(r float64) *Circle", sig)

	src, ok := fn.Source()
	require.True(t, ok)
	assert.Equal(t, 20, src.Line)
	assert.Equal(t, "// NewCircle returns a circle centered at the origin.\nfunc NewCircle(r float64) *Circle {\n\treturn &Circle{Radius: r}\n}", src.Text)

	_, ok = fn.Lookup("anything")
	assert.False(t, ok)
}

func TestLookup_Method(t *testing.T) {
	scale := lookupPath(t, importShapes(t, newTestLoader(t, false)), "Circle", "Scale")

	assert.Equal(t, introspect.KindMethod, scale.Kind())
	sig, ok := scale.Signature()
	require.True(t, ok)
	assert.Equal(t, "func (c *Circle) Scale(f float64)", sig)

	doc, ok := scale.Doc()
	require.True(t, ok)
	assert.Equal(t, "Scale multiplies the radius by f.", doc)
}

func TestLookup_InterfaceMethod(t *testing.T) {
	area := lookupPath(t, importShapes(t, newTestLoader(t, false)), "Shape", "Area")

	assert.Equal(t, introspect.KindMethod, area.Kind())
	sig, ok := area.Signature()
	require.True(t, ok)
	assert.Equal(t, "func (Shape).Area() float64", sig)

	doc, ok := area.Doc()
	require.True(t, ok)
	assert.Equal(t, "Area returns the enclosed area.", doc)
}

func TestLookup_Field(t *testing.T) {
	radius := lookupPath(t, importShapes(t, newTestLoader(t, false)), "Circle", "Radius")

	assert.Equal(t, introspect.KindField, radius.Kind())
	assert.Equal(t, "float64", radius.TypeName())
	assert.False(t, radius.Callable())

	src, ok := radius.Source()
	require.True(t, ok)
	assert.Contains(t, src.Text, "// Radius is the distance")
	assert.Contains(t, src.Text, "Radius float64")
}

func TestLookup_Const(t *testing.T) {
	pi := lookupPath(t, importShapes(t, newTestLoader(t, false)), "Pi")

	assert.Equal(t, introspect.KindConst, pi.Kind())
	_, ok := pi.Signature()
	assert.False(t, ok)

	src, ok := pi.Source()
	require.True(t, ok)
	assert.Equal(t, "// Pi is close enough.\nconst Pi = 3.14159", src.Text)
}

func TestLookup_FuncTypedVar(t *testing.T) {
	measure := lookupPath(t, importShapes(t, newTestLoader(t, false)), "Measure")

	assert.Equal(t, introspect.KindVar, measure.Kind())
	assert.True(t, measure.Callable())
	sig, ok := measure.Signature()
	require.True(t, ok)
	assert.Equal(t, "var Measure func(s Shape) float64", sig)

	doc, ok := measure.Doc()
	require.True(t, ok)
	assert.Equal(t, "Measure computes the area of s.", doc)
}

func TestLookup_ThroughValue(t *testing.T) {
	area := lookupPath(t, importShapes(t, newTestLoader(t, false)), "Unit", "Area")
	assert.Equal(t, introspect.KindMethod, area.Kind())

	x := lookupPath(t, importShapes(t, newTestLoader(t, false)), "Unit", "Point", "X")
	assert.Equal(t, introspect.KindField, x.Kind())
}

func TestLookup_Missing(t *testing.T) {
	pkg := importShapes(t, newTestLoader(t, false))

	_, ok := pkg.Lookup("Square")
	assert.False(t, ok)

	circle := lookupPath(t, pkg, "Circle")
	_, ok = circle.Lookup("Diameter")
	assert.False(t, ok)
}

func TestBuiltin(t *testing.T) {
	l := newTestLoader(t, false)

	length, ok := l.Builtin("len")
	require.True(t, ok)
	assert.Equal(t, introspect.KindBuiltin, length.Kind())
	assert.Equal(t, "builtin func", length.TypeName())
	assert.True(t, length.Callable())
	assert.False(t, introspect.IsContainer(length))

	_, ok = length.File()
	assert.False(t, ok)
	_, ok = length.Source()
	assert.False(t, ok)

	doc, ok := length.Doc()
	require.True(t, ok)
	assert.Contains(t, doc, "The len built-in function returns the length of v")

	sig, ok := length.Signature()
	require.True(t, ok)
	assert.Equal(t, "func len(v Type) int", sig)
}

func TestBuiltin_Type(t *testing.T) {
	l := newTestLoader(t, false)

	errType, ok := l.Builtin("error")
	require.True(t, ok)
	assert.Equal(t, "builtin type", errType.TypeName())
	assert.False(t, errType.Callable())
	_, ok = errType.Signature()
	assert.False(t, ok)

	_, ok = l.Builtin("nosuchbuiltin")
	assert.False(t, ok)
	_, ok = l.Builtin("os")
	assert.False(t, ok)
}

func TestResolveThroughLoader(t *testing.T) {
	l := newTestLoader(t, false)
	r := resolver.New(l, l, testLogger())
	ctx := context.Background()

	dist, err := r.Resolve(ctx, "example.com/shapes/geom.Point.Dist")
	require.NoError(t, err)
	assert.Equal(t, "Dist", dist.Name())
	assert.Equal(t, introspect.KindMethod, dist.Kind())

	circle, err := r.Resolve(ctx, "example.com/shapes.Circle")
	require.NoError(t, err)
	assert.Equal(t, introspect.KindType, circle.Kind())

	_, err = r.Resolve(ctx, "example.com/shapes.Circle.Diameter")
	assert.ErrorIs(t, err, resolver.ErrUnresolvable)
}

func TestResolveStandardLibrary(t *testing.T) {
	l := newTestLoader(t, false)
	r := resolver.New(l, l, testLogger())
	ctx := context.Background()

	join, err := r.Resolve(ctx, "path/filepath.Join")
	require.NoError(t, err)
	assert.True(t, join.Callable())
	sig, ok := join.Signature()
	require.True(t, ok)
	assert.Equal(t, "func Join(elem ...string) string", sig)
	src, ok := join.Source()
	require.True(t, ok)
	assert.Contains(t, src.Text, "func Join(elem ...string) string {")

	osPkg, err := r.Resolve(ctx, "os")
	require.NoError(t, err)
	assert.Equal(t, introspect.KindPackage, osPkg.Kind())
	members, ok := osPkg.Members()
	require.True(t, ok)
	assert.Contains(t, memberNames(members), "Open")

	_, err = r.Resolve(ctx, "no.such.thing")
	assert.ErrorIs(t, err, resolver.ErrUnresolvable)
}

func TestLookup_EmbeddedInterfaceMethods(t *testing.T) {
	dir, err := filepath.Abs(filepath.Join("..", "..", "testdata", "embedded"))
	require.NoError(t, err)
	l := NewLoader(context.Background(), Options{Dir: dir}, testLogger())

	pkg, err := l.Import(context.Background(), "example.com/embedded")
	require.NoError(t, err)

	rc := lookupPath(t, pkg, "ReadCloser")
	assert.Equal(t, "interface", rc.TypeName())
	members, ok := rc.Members()
	require.True(t, ok)
	assert.Equal(t, []string{"Close", "Read"}, memberNames(members))
	assert.Equal(t, "Close releases the underlying resource.", memberByName(t, members, "Close").Doc)

	closeFn := lookupPath(t, rc, "Close")
	sig, ok := closeFn.Signature()
	require.True(t, ok)
	assert.Equal(t, "func (Closer).Close() error", sig)

	// Pointer-receiver methods are listed on the named type itself.
	file := lookupPath(t, pkg, "File")
	members, ok = file.Members()
	require.True(t, ok)
	assert.Equal(t, []string{"Close", "Read"}, memberNames(members))
	assert.Empty(t, memberByName(t, members, "Read").Doc)

	read := lookupPath(t, file, "Read")
	sig, ok = read.Signature()
	require.True(t, ok)
	assert.Equal(t, "func (f *File) Read(p []byte) (int, error)", sig)
}

func TestLookup_FieldOfForeignType(t *testing.T) {
	x := lookupPath(t, importShapes(t, newTestLoader(t, false)), "Circle", "Point", "X")

	assert.Equal(t, introspect.KindField, x.Kind())
	assert.Equal(t, "float64", x.TypeName())

	file, ok := x.File()
	require.True(t, ok)
	assert.Equal(t, "geom.go", filepath.Base(file.File))
	assert.Equal(t, 6, file.Line)

	src, ok := x.Source()
	require.True(t, ok)
	assert.Equal(t, "X, Y float64", src.Text)
	assert.Equal(t, 6, src.Line)
}

func TestLookup_PromotedMethodFromForeignType(t *testing.T) {
	dist := lookupPath(t, importShapes(t, newTestLoader(t, false)), "Circle", "Dist")

	doc, ok := dist.Doc()
	require.True(t, ok)
	assert.Equal(t, "Dist returns the Manhattan distance between p and q.", doc)

	sig, ok := dist.Signature()
	require.True(t, ok)
	assert.Equal(t, "func (p Point) Dist(q Point) float64", sig)

	src, ok := dist.Source()
	require.True(t, ok)
	assert.Contains(t, src.Text, "return abs(p.X-q.X) + abs(p.Y-q.Y)")
}

func TestResolveStandardLibraryThroughField(t *testing.T) {
	l := newTestLoader(t, false)
	r := resolver.New(l, l, testLogger())

	query, err := r.Resolve(context.Background(), "net/http.Request.URL.Query")
	require.NoError(t, err)
	assert.Equal(t, introspect.KindMethod, query.Kind())

	doc, ok := query.Doc()
	require.True(t, ok)
	assert.Contains(t, doc, "Query parses RawQuery")

	src, ok := query.Source()
	require.True(t, ok)
	assert.Contains(t, src.Text, "func (u *URL) Query() Values")

	file, ok := query.File()
	require.True(t, ok)
	assert.Equal(t, "url.go", filepath.Base(file.File))
	assert.NotContains(t, file.File, "$GOROOT")
	assert.True(t, filepath.IsAbs(file.File))
}

func TestFile_OwnerPackageUnavailable(t *testing.T) {
	l := newTestLoader(t, false)
	// net/url was seen only through export data and cannot be loaded.
	l.indexes["net/url"] = nil
	r := resolver.New(l, l, testLogger())

	query, err := r.Resolve(context.Background(), "net/http.Request.URL.Query")
	require.NoError(t, err)

	_, ok := query.Doc()
	assert.False(t, ok)
	_, ok = query.Source()
	assert.False(t, ok)

	file, ok := query.File()
	require.True(t, ok)
	assert.Equal(t, "url.go", filepath.Base(file.File))
	assert.NotContains(t, file.File, "$GOROOT")
	assert.True(t, filepath.IsAbs(file.File))
	assert.FileExists(t, file.File)
	assert.Positive(t, file.Line)
}

func TestFileName(t *testing.T) {
	name, ok := fileName("/work/shapes/shapes.go")
	assert.True(t, ok)
	assert.Equal(t, "/work/shapes/shapes.go", name)

	_, ok = fileName("")
	assert.False(t, ok)

	if build.Default.GOROOT == "" {
		t.Skip("GOROOT unknown")
	}
	name, ok = fileName("$GOROOT/src/net/url/url.go")
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(build.Default.GOROOT, "src", "net", "url", "url.go"), name)
}

func TestLookup_TrailingCommentIsNotDoc(t *testing.T) {
	l := newTestLoader(t, false)

	geom, err := l.Import(context.Background(), "example.com/shapes/geom")
	require.NoError(t, err)
	_, ok := lookupPath(t, geom, "Zero").Doc()
	assert.False(t, ok)

	osPkg, err := l.Import(context.Background(), "os")
	require.NoError(t, err)
	_, ok = lookupPath(t, osPkg, "ErrNotExist").Doc()
	assert.False(t, ok)

	// Fields keep their trailing comment.
	members, ok := lookupPath(t, importShapes(t, l), "Circle").Members()
	require.True(t, ok)
	assert.Equal(t, "center", memberByName(t, members, "Point").Doc)
}

func TestImport_BuiltinPackage(t *testing.T) {
	l := newTestLoader(t, false)

	pkg, err := l.Import(context.Background(), "builtin")
	require.NoError(t, err)
	assert.Equal(t, "builtin", pkg.Name())
	assert.Equal(t, introspect.KindPackage, pkg.Kind())
	assert.True(t, introspect.IsContainer(pkg))

	doc, ok := pkg.Doc()
	require.True(t, ok)
	assert.Contains(t, doc, "Package builtin provides documentation")

	members, ok := pkg.Members()
	require.True(t, ok)
	names := memberNames(members)
	for _, name := range []string{"append", "error", "iota", "len", "nil", "true"} {
		assert.Contains(t, names, name)
	}
	assert.NotContains(t, names, "Type")
	assert.NotContains(t, names, "IntegerType")
	assert.Equal(t, "builtin func", memberByName(t, members, "len").Type)
	assert.Contains(t, memberByName(t, members, "len").Doc, "The len built-in function")

	length := lookupPath(t, pkg, "len")
	assert.Equal(t, introspect.KindBuiltin, length.Kind())
	_, ok = pkg.Lookup("Type")
	assert.False(t, ok)
}

func TestResolveBuiltinPackage(t *testing.T) {
	l := newTestLoader(t, false)
	r := resolver.New(l, l, testLogger())
	ctx := context.Background()

	pkg, err := r.Resolve(ctx, "builtin")
	require.NoError(t, err)
	assert.Equal(t, introspect.KindPackage, pkg.Kind())

	length, err := r.Resolve(ctx, "builtin.len")
	require.NoError(t, err)
	assert.Equal(t, introspect.KindBuiltin, length.Kind())
	sig, ok := length.Signature()
	require.True(t, ok)
	assert.Equal(t, "func len(v Type) int", sig)
}
