package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/olehluchkiv/goexplain/internal/analyzer"
	"github.com/olehluchkiv/goexplain/internal/render"
	"github.com/olehluchkiv/goexplain/internal/resolver"
)

// Session runs the resolve → collect pipeline for dotted paths against one
// working directory. Packages loaded by earlier calls are reused.
//
// Calls are serialized: the loaders' caches are not safe for concurrent use.
type Session struct {
	ctx        context.Context
	dir        string
	buildFlags []string
	logger     *slog.Logger

	mu        sync.Mutex
	resolvers map[bool]*resolver.Resolver
}

// NewSession creates a Session resolving packages from dir, normally a module
// root returned by resolver.WorkDir. ctx bounds lazy package loads.
func NewSession(ctx context.Context, dir string, buildFlags []string, logger *slog.Logger) *Session {
	return &Session{
		ctx:        ctx,
		dir:        dir,
		buildFlags: buildFlags,
		logger:     logger.With("component", "session"),
		resolvers:  make(map[bool]*resolver.Resolver),
	}
}

// Inspect resolves path and collects its report. Resolution errors are
// returned unchanged so callers can test for resolver.ErrUnresolvable.
func (s *Session) Inspect(ctx context.Context, path string, includeUnexported bool) (*render.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("inspecting", "path", path, "include_unexported", includeUnexported)

	obj, err := s.resolver(includeUnexported).Resolve(ctx, path)
	if err != nil {
		return nil, err
	}

	rep := render.Collect(path, obj)
	s.logger.Info("inspection complete", "path", path, "kind", rep.Kind, "members", len(rep.Members))
	return rep, nil
}

// resolver returns the resolver for one member-visibility setting. Each
// setting has its own loader because visibility is fixed per loader.
func (s *Session) resolver(includeUnexported bool) *resolver.Resolver {
	if r, ok := s.resolvers[includeUnexported]; ok {
		return r
	}
	l := analyzer.NewLoader(s.ctx, analyzer.Options{
		Dir:               s.dir,
		IncludeUnexported: includeUnexported,
		BuildFlags:        s.buildFlags,
	}, s.logger)
	r := resolver.New(l, l, s.logger)
	s.resolvers[includeUnexported] = r
	return r
}
