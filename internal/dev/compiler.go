package dev

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"
	"time"

	"github.com/vango-dev/inactive/internal/build"
	"github.com/vango-dev/inactive/internal/config"
	"github.com/vango-dev/inactive/internal/errors"
)

// BuildResult contains the result of a build.
type BuildResult struct {
	// Success indicates if the build succeeded.
	Success bool

	// Duration is how long the build took.
	Duration time.Duration

	// Output is the compiler output of a failed build.
	Output string

	// Error is the build error, if any.
	Error error

	// Build is the builder result of a successful build.
	Build *build.Result
}

// CompilerConfig configures the Compiler.
type CompilerConfig struct {
	// Build is passed to the underlying builder.
	Build build.Options

	// Metrics records build counts and durations. May be nil.
	Metrics *Metrics

	// Logger receives build logs.
	Logger *slog.Logger
}

// Compiler serializes dev builds and remembers the latest result.
type Compiler struct {
	builder *build.Builder
	metrics *Metrics
	logger  *slog.Logger

	mu   sync.Mutex
	last *BuildResult
}

// NewCompiler creates a compiler for the project.
func NewCompiler(cfg *config.Config, cc CompilerConfig) *Compiler {
	if cc.Logger == nil {
		cc.Logger = slog.Default().With("component", "compiler")
	}
	if cc.Build.Logger == nil {
		cc.Build.Logger = cc.Logger
	}
	return &Compiler{
		builder: build.New(cfg, cc.Build),
		metrics: cc.Metrics,
		logger:  cc.Logger,
	}
}

// Build runs one build. Concurrent calls wait for each other.
func (c *Compiler) Build(ctx context.Context) BuildResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	res, err := c.builder.Build(ctx)
	result := BuildResult{
		Success:  err == nil,
		Duration: time.Since(start),
		Error:    err,
		Build:    res,
	}
	if err != nil {
		result.Output = buildOutput(err)
		c.logger.Error("build failed", "error", err)
	}

	c.metrics.ObserveBuild(result.Success, result.Duration)
	c.last = &result
	return result
}

// Last returns the most recent build result, or nil before the first build.
func (c *Compiler) Last() *BuildResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Clean removes the build output.
func (c *Compiler) Clean() error {
	return c.builder.Clean()
}

// buildOutput is the compiler output carried by a build error.
func buildOutput(err error) string {
	var e *errors.Error
	if stderrors.As(err, &e) && e.Detail != "" {
		return e.Detail
	}
	return err.Error()
}

// SyncStatic mirrors one static file into the build output.
func (c *Compiler) SyncStatic(rel string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.builder.SyncStatic(rel)
}
