package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/olehluchkiv/goexplain/internal/introspect"
)

// ErrNoPackage is wrapped by Importer implementations when the requested
// import path does not name a loadable package. Resolution treats it as
// "try the next shorter prefix".
var ErrNoPackage = errors.New("no such package")

// ErrUnresolvable matches every *UnresolvableError.
var ErrUnresolvable = errors.New("unresolvable path")

// UnresolvableError reports that no import prefix and member walk located
// the target. Path is the input exactly as given.
type UnresolvableError struct {
	Path string
}

func (e *UnresolvableError) Error() string {
	return fmt.Sprintf("could not find package or symbol: %q", e.Path)
}

func (e *UnresolvableError) Is(target error) bool {
	return target == ErrUnresolvable
}

// Importer loads the package with the given import path.
type Importer interface {
	Import(ctx context.Context, path string) (introspect.Object, error)
}

// Universe looks up predeclared identifiers such as len or error.
type Universe interface {
	Builtin(name string) (introspect.Object, bool)
}

// Resolver turns dotted paths into objects.
type Resolver struct {
	universe Universe
	importer Importer
	logger   *slog.Logger
}

// New creates a Resolver over the given collaborators.
func New(universe Universe, importer Importer, logger *slog.Logger) *Resolver {
	return &Resolver{
		universe: universe,
		importer: importer,
		logger:   logger.With("component", "resolver"),
	}
}

// Resolve maps a dotted path like "path/filepath.Join" or
// "strings.Builder.WriteString" to an object.
//
// Predeclared identifiers win outright. Otherwise import prefixes are tried
// from the longest to the shortest, and the remaining segments are walked as
// member lookups; the first prefix whose walk succeeds is the answer.
func (r *Resolver) Resolve(ctx context.Context, path string) (introspect.Object, error) {
	if path == "" {
		return nil, &UnresolvableError{Path: path}
	}

	if obj, ok := r.universe.Builtin(path); ok {
		r.logger.Debug("resolved predeclared identifier", "path", path)
		return obj, nil
	}

	parts := strings.Split(path, ".")
	for i := len(parts); i > 0; i-- {
		importPath := strings.Join(parts[:i], ".")

		pkg, err := r.importer.Import(ctx, importPath)
		if err != nil {
			if errors.Is(err, ErrNoPackage) {
				r.logger.Debug("import prefix not found", "prefix", importPath, "error", err)
				continue
			}
			return nil, fmt.Errorf("importing %s: %w", importPath, err)
		}

		obj, ok := walk(pkg, parts[i:])
		if !ok {
			r.logger.Debug("member walk failed", "prefix", importPath, "remaining", strings.Join(parts[i:], "."))
			continue
		}

		r.logger.Debug("resolved path", "path", path, "prefix", importPath, "kind", obj.Kind().String())
		return obj, nil
	}

	return nil, &UnresolvableError{Path: path}
}

func walk(obj introspect.Object, names []string) (introspect.Object, bool) {
	for _, name := range names {
		next, ok := obj.Lookup(name)
		if !ok {
			return nil, false
		}
		obj = next
	}
	return obj, true
}
