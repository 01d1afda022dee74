package repohost

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/config"
	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/executor"
	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/identity"
	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/lastmod"
	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/metrics"
)

// Default pagination and window sizes.
const (
	DefaultResourceLimit = 100
	DefaultRefLimit      = 100
	DefaultCommitLimit   = 30
	DefaultHistoryDays   = 30
)

// Engine serves repository reads, optimistic updates and provisioning for
// one project root.
//
// Thread Safety: an Engine is safe for concurrent use. Every call opens its
// own repository handle; the attribution index is internally locked.
type Engine struct {
	cfg      config.Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
	resolver identity.Resolver
	runner   executor.Runner
	fs       afero.Fs
	index    *lastmod.Index
	now      func() time.Time
}

// New creates an Engine for cfg.
//
//	cfg, err := config.Load("", flags)
//	engine, err := repohost.New(cfg, repohost.WithLogger(slog.Default()))
func New(cfg config.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	applyOptions(o, opts)

	return &Engine{
		cfg:      cfg,
		logger:   o.logger,
		metrics:  o.metrics,
		resolver: o.resolver,
		runner:   o.runner,
		fs:       o.fs,
		index:    lastmod.New(cfg.AttributionCacheSize),
		now:      o.clock,
	}, nil
}

// Config returns the configuration the Engine was built with.
func (e *Engine) Config() config.Config {
	return e.cfg
}

// validName rejects empty names and anything that could leave its parent
// directory.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.Contains(name, "..")
}

func (e *Engine) projectPath(project string) string {
	return filepath.Join(e.cfg.ProjectRoot, project)
}

func (e *Engine) repositoryPath(project, repository string) string {
	return filepath.Join(e.cfg.ProjectRoot, project, repository+".git")
}

// isDir reports whether p exists and is a directory.
func (e *Engine) isDir(p string) (bool, error) {
	ok, err := afero.DirExists(e.fs, p)
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", p, err)
	}
	return ok, nil
}
