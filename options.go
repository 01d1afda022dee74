package repohost

import (
	"io"
	"log/slog"
	"time"

	"github.com/spf13/afero"

	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/executor"
	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/identity"
	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/metrics"
)

// Option configures an Engine.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	metrics  *metrics.Metrics
	resolver identity.Resolver
	runner   executor.Runner
	fs       afero.Fs
	clock    func() time.Time
}

func defaultOptions() *options {
	return &options{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		resolver: identity.System{},
		runner:   newAccountRunner(),
		fs:       afero.NewOsFs(),
		clock:    time.Now,
	}
}

func applyOptions(o *options, opts []Option) {
	for _, opt := range opts {
		opt(o)
	}
}

// WithLogger sets the structured logger. Nil keeps the discarding default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics records update, provisioning and read instruments into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithIdentityResolver replaces the OS account database used to resolve
// owners during provisioning.
func WithIdentityResolver(r identity.Resolver) Option {
	return func(o *options) {
		if r != nil {
			o.resolver = r
		}
	}
}

// WithRunner replaces the runner used for account management commands.
func WithRunner(r executor.Runner) Option {
	return func(o *options) {
		if r != nil {
			o.runner = r
		}
	}
}

// WithClock sets the time source for activity windows.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.clock = now
		}
	}
}
