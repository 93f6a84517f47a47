package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/olehluchkiv/goexplain/internal/config"
	"github.com/olehluchkiv/goexplain/internal/explain"
	"github.com/olehluchkiv/goexplain/internal/logging"
	"github.com/olehluchkiv/goexplain/internal/render"
	"github.com/olehluchkiv/goexplain/internal/resolver"
	"github.com/olehluchkiv/goexplain/internal/server"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes one invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	// Go's flag parsing stops at the first non-flag argument, which breaks
	// "goexplain os.Getenv -format json". Reorder so flags come first.
	flags, positional := reorderArgs(args)

	fs := flag.NewFlagSet("goexplain", flag.ContinueOnError)
	fs.SetOutput(stderr)
	pathFlag := fs.String("path", "", "dotted path to inspect (alternative to positional argument)")
	dirFlag := fs.String("C", ".", "directory whose module resolves packages")
	format := fs.String("format", config.FormatText, "output format (text, json)")
	includeUnexported := fs.Bool("include-unexported", false, "list unexported members of packages and types")
	explainFlag := fs.Bool("explain", false, "add an LLM explanation panel (requires "+config.EnvAPIKey+" env var)")
	width := fs.Int("width", 0, "panel width for text output (default from config, else 100)")
	tags := fs.String("tags", "", "comma-separated build tags used when loading packages")
	configPath := fs.String("config", "", "config file (default $XDG_CONFIG_HOME/goexplain/config.yaml)")
	mcpMode := fs.String("mcp", "", "serve the explain tool over MCP instead of printing (stdio, sse)")
	port := fs.Int("port", 8080, "HTTP port for -mcp sse")
	logFile := fs.String("log-file", "", "also write JSONL logs to this file")
	logLevel := fs.String("log-level", "warn", "log level (debug, info, warn, error)")

	if err := fs.Parse(flags); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	positional = append(positional, fs.Args()...)

	// Positional argument takes precedence over -path.
	target := *pathFlag
	if len(positional) > 0 {
		target = positional[0]
	}
	if target == "" && *mcpMode == "" {
		fmt.Fprintln(stderr, "Usage: goexplain [flags] <dotted-path>")
		fs.PrintDefaults()
		return 1
	}

	cfg, err := loadConfig(*configPath, fs, *format, *width, *includeUnexported)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}

	level, err := parseLogLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid log level %q: %v\n", *logLevel, err)
		return 1
	}

	logger, logCleanup, err := logging.Setup(stderr, *logFile, level)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to setup logging: %v\n", err)
		return 1
	}
	defer logCleanup()

	// Setup signal handling with context cancellation
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	dir, err := resolver.WorkDir(*dirFlag, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Unexpected error: %v\n", err)
		return 1
	}

	var buildFlags []string
	if *tags != "" {
		buildFlags = []string{"-tags=" + *tags}
	}
	session := server.NewSession(ctx, dir, buildFlags, logger)

	if *mcpMode != "" {
		return serveMCP(ctx, session, cfg, *mcpMode, *port, stdin, stdout, stderr, logger)
	}

	rep, err := session.Inspect(ctx, target, cfg.IncludeUnexported)
	if errors.Is(err, resolver.ErrUnresolvable) {
		logger.Debug("path did not resolve", "path", target, "error", err)
		fmt.Fprintf(stderr, "Error resolving path: %v\n", err)
		return 1
	}
	if err != nil {
		logger.Error("inspection failed", "path", target, "error", err)
		fmt.Fprintf(stderr, "Unexpected error: %v\n", err)
		return 1
	}

	if *explainFlag {
		explainer, err := explain.New(ctx, cfg.Explain, logger)
		if err != nil {
			logger.Warn("explainer unavailable", "error", err)
			rep.Explanation = fmt.Sprintf("Explanation unavailable: %v", err)
		} else {
			explain.Annotate(ctx, explainer, rep, logger)
		}
	}

	var renderer interface{ Render(*render.Report) error }
	if cfg.Format == config.FormatJSON {
		renderer = render.NewJSON(stdout)
	} else {
		renderer = render.NewText(stdout, cfg.Width)
	}
	if err := renderer.Render(rep); err != nil {
		fmt.Fprintf(stderr, "Unexpected error: %v\n", err)
		return 1
	}
	return 0
}

func serveMCP(ctx context.Context, session *server.Session, cfg config.Config, mode string, port int,
	stdin io.Reader, stdout, stderr io.Writer, logger *slog.Logger,
) int {
	explainer, err := explain.New(ctx, cfg.Explain, logger)
	if err != nil {
		logger.Info("explain argument disabled", "reason", err)
	}

	s := server.New(server.NewHandler(session, explainer, logger), version)
	opts := server.ServeOptions{Mode: mode, Port: port, Stdin: stdin, Stdout: stdout}
	if err := server.Serve(ctx, s, opts, logger); err != nil {
		logger.Error("server error", "error", err)
		fmt.Fprintf(stderr, "Server error: %v\n", err)
		return 1
	}
	return 0
}

// loadConfig reads the config file, applies GOEXPLAIN_LLM_* overrides, then
// applies the flags that were set explicitly.
func loadConfig(path string, fs *flag.FlagSet, format string, width int, includeUnexported bool) (config.Config, error) {
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	cfg.ApplyEnv(os.Getenv)

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "format":
			cfg.Format = format
		case "width":
			cfg.Width = width
		case "include-unexported":
			cfg.IncludeUnexported = includeUnexported
		}
	})
	return cfg, cfg.Validate()
}

// reorderArgs separates flags and positional arguments so flags can appear
// in any position (before or after the dotted path).
// Flags that take a value (e.g., -format json) consume the next arg.
func reorderArgs(args []string) (flags, positional []string) {
	// Set of flags that take a value argument
	valueFlagSet := map[string]bool{
		"path": true, "C": true, "format": true, "width": true, "tags": true,
		"config": true, "mcp": true, "port": true, "log-file": true, "log-level": true,
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "-") {
			flags = append(flags, arg)
			// Check if this flag takes a value (and it's not using = syntax)
			name := strings.TrimLeft(arg, "-")
			if !strings.Contains(arg, "=") && valueFlagSet[name] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, arg)
		}
	}
	return flags, positional
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s (valid: debug, info, warn, error)", s)
	}
}
