package analyzer

import (
	"context"
	"errors"
	"fmt"
	"go/token"
	"go/types"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/mod/module"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/types/typeutil"

	"github.com/olehluchkiv/goexplain/internal/introspect"
	"github.com/olehluchkiv/goexplain/internal/resolver"
)

var (
	_ resolver.Importer = (*Loader)(nil)
	_ resolver.Universe = (*Loader)(nil)
)

// listPatterns are arguments go list expands instead of treating as
// import paths.
var listPatterns = map[string]bool{
	"all":  true,
	"cmd":  true,
	"std":  true,
	"tool": true,
	"work": true,
}

// Loader loads packages on demand with go/packages and exposes their
// declarations as introspect objects.
//
// Loaded packages are kept for the lifetime of the Loader, the same way a
// running program keeps its imports; nothing is persisted.
type Loader struct {
	ctx    context.Context
	opts   Options
	logger *slog.Logger
	fset   *token.FileSet
	msets  typeutil.MethodSetCache

	pkgs    map[string]*packages.Package
	missing map[string]error
	indexes map[string]*declIndex
	files   map[string][]byte
}

// NewLoader creates a Loader. ctx bounds the lazy loads done while
// rendering (doc comments of promoted methods, the builtin package).
func NewLoader(ctx context.Context, opts Options, logger *slog.Logger) *Loader {
	return &Loader{
		ctx:     ctx,
		opts:    opts,
		logger:  logger.With("component", "loader"),
		fset:    token.NewFileSet(),
		pkgs:    make(map[string]*packages.Package),
		missing: make(map[string]error),
		indexes: make(map[string]*declIndex),
		files:   make(map[string][]byte),
	}
}

// Import loads the package with the given import path.
func (l *Loader) Import(ctx context.Context, path string) (introspect.Object, error) {
	pkg, err := l.load(ctx, path)
	if err != nil {
		return nil, err
	}
	if pkg.Types == nil {
		if path == builtinPath {
			return &builtinPackage{packageObject{l: l, pkg: pkg}}, nil
		}
		return nil, fmt.Errorf("package %s has no type information: %w", path, resolver.ErrNoPackage)
	}

	// Log packages with errors but continue
	for _, e := range pkg.Errors {
		l.logger.Warn("package load error", "package", pkg.PkgPath, "error", e.Msg)
	}

	return &packageObject{l: l, pkg: pkg}, nil
}

// Builtin looks name up in the universe scope.
func (l *Loader) Builtin(name string) (introspect.Object, bool) {
	obj := types.Universe.Lookup(name)
	if obj == nil {
		return nil, false
	}
	return &builtinObject{l: l, obj: obj}, true
}

func (l *Loader) load(ctx context.Context, path string) (*packages.Package, error) {
	if pkg, ok := l.pkgs[path]; ok {
		return pkg, nil
	}
	if err, ok := l.missing[path]; ok {
		return nil, err
	}

	pkg, err := l.loadPackage(ctx, path)
	if err != nil {
		if errors.Is(err, resolver.ErrNoPackage) {
			l.missing[path] = err
		}
		return nil, err
	}
	l.pkgs[path] = pkg
	return pkg, nil
}

func (l *Loader) loadPackage(ctx context.Context, path string) (*packages.Package, error) {
	if err := checkImportPath(path); err != nil {
		return nil, err
	}

	mode := loadMode
	if path == builtinPath {
		// Documentation only; it does not type-check.
		mode = builtinMode
	}

	cfg := &packages.Config{
		Mode:       mode,
		Dir:        l.opts.Dir,
		Context:    ctx,
		Fset:       l.fset,
		BuildFlags: l.opts.BuildFlags,
	}

	l.logger.Debug("loading package", "path", path, "dir", l.opts.Dir)
	pkgs, err := packages.Load(cfg, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		// go list refuses some malformed candidates outright instead of
		// reporting a per-package error.
		return nil, fmt.Errorf("loading %s: %v: %w", path, err, resolver.ErrNoPackage)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("loading %s: no packages matched: %w", path, resolver.ErrNoPackage)
	}

	pkg := pkgs[0]
	if len(pkg.GoFiles) == 0 && len(pkg.CompiledGoFiles) == 0 {
		reason := "no Go files"
		if len(pkg.Errors) > 0 {
			reason = pkg.Errors[0].Msg
		}
		return nil, fmt.Errorf("package %s: %s: %w", path, reason, resolver.ErrNoPackage)
	}

	l.logger.Debug("package loaded", "package", pkg.PkgPath, "files", len(pkg.Syntax), "errors", len(pkg.Errors))
	return pkg, nil
}

func checkImportPath(path string) error {
	if listPatterns[path] || strings.Contains(path, "...") {
		return fmt.Errorf("%q is a package pattern: %w", path, resolver.ErrNoPackage)
	}
	if err := module.CheckImportPath(path); err != nil {
		return fmt.Errorf("%v: %w", err, resolver.ErrNoPackage)
	}
	return nil
}

// index returns the declaration index of the package with the given path,
// loading the package if it was only seen through export data.
func (l *Loader) index(pkgPath string) (*declIndex, bool) {
	if idx, ok := l.indexes[pkgPath]; ok {
		return idx, idx != nil
	}

	pkg, err := l.load(l.ctx, pkgPath)
	if err != nil {
		l.logger.Debug("no syntax available", "package", pkgPath, "error", err)
		l.indexes[pkgPath] = nil
		return nil, false
	}

	idx := buildIndex(l.fset, pkg.Syntax)
	l.indexes[pkgPath] = idx
	return idx, true
}

// declFor finds the syntax that declared obj.
func (l *Loader) declFor(obj types.Object) (decl, bool) {
	if obj.Pkg() == nil || !obj.Pos().IsValid() {
		return decl{}, false
	}
	idx, ok := l.index(obj.Pkg().Path())
	if !ok {
		return decl{}, false
	}
	d, ok := idx.byPos[keyOf(l.fset.Position(obj.Pos()), obj.Name())]
	return d, ok
}

// builtinDecl finds the declaration of a predeclared identifier in the
// documentation-only builtin package.
func (l *Loader) builtinDecl(name string) (decl, bool) {
	idx, ok := l.index(builtinPath)
	if !ok {
		return decl{}, false
	}
	d, ok := idx.byName[name]
	return d, ok
}

// source returns the raw text of d, including its doc comment.
func (l *Loader) source(d decl) (introspect.Source, bool) {
	start, end := d.node.Pos(), d.node.End()
	if d.gen != nil && !d.gen.Lparen.IsValid() {
		// Ungrouped declaration: include the keyword.
		start, end = d.gen.Pos(), d.gen.End()
	}
	if d.doc != nil && d.doc.Pos() < start {
		start = d.doc.Pos()
	}

	tf := l.fset.File(start)
	if tf == nil {
		return introspect.Source{}, false
	}

	content, err := l.readFile(tf.Name())
	if err != nil {
		l.logger.Debug("reading source failed", "file", tf.Name(), "error", err)
		return introspect.Source{}, false
	}

	startOff, endOff := tf.Offset(start), tf.Offset(end)
	if startOff > endOff || endOff > len(content) {
		return introspect.Source{}, false
	}

	return introspect.Source{
		Text: string(content[startOff:endOff]),
		Line: tf.Line(start),
	}, true
}

func (l *Loader) readFile(name string) ([]byte, error) {
	if content, ok := l.files[name]; ok {
		return content, nil
	}
	content, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	l.files[name] = content
	return content, nil
}
