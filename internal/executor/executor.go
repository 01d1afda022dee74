// Package executor runs external system commands (account management tools)
// with output capture, environment overrides and optional retries.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// Result holds the output and exit status of a command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner runs a program with arguments and reports its result.
// A non-zero exit status is returned as an error alongside the Result.
type Runner interface {
	Run(ctx context.Context, program string, args ...string) (*Result, error)
}

// Options configures command execution behavior.
type Options struct {
	// MaxRetries is the number of extra attempts after a failure.
	MaxRetries int
	RetryDelay time.Duration
	// RetryOn decides whether an error is worth another attempt. Nil retries all.
	RetryOn func(error) bool

	// WorkingDir is the directory the command runs in.
	WorkingDir string

	// Env is appended to the current process environment.
	Env map[string]string
}

// Option is a function that modifies Options.
type Option func(*Options)

// WithRetry configures retry behavior.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(o *Options) {
		o.MaxRetries = maxRetries
		o.RetryDelay = delay
	}
}

// WithRetryCondition sets a custom retry condition.
func WithRetryCondition(fn func(error) bool) Option {
	return func(o *Options) {
		o.RetryOn = fn
	}
}

// WithWorkingDir sets the working directory.
func WithWorkingDir(dir string) Option {
	return func(o *Options) {
		o.WorkingDir = dir
	}
}

// WithEnvVar adds a single environment variable.
func WithEnvVar(key, value string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string)
		}
		o.Env[key] = value
	}
}

// CommandRunner implements Runner with os/exec.
type CommandRunner struct {
	options Options
}

// New creates a CommandRunner with the given options.
func New(opts ...Option) *CommandRunner {
	options := Options{RetryDelay: time.Second}
	for _, opt := range opts {
		opt(&options)
	}
	return &CommandRunner{options: options}
}

// Run implements Runner.
func (c *CommandRunner) Run(ctx context.Context, program string, args ...string) (*Result, error) {
	attempts := c.options.MaxRetries + 1

	var (
		result *Result
		err    error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err = c.runOnce(ctx, program, args)
		if err == nil || attempt == attempts {
			break
		}
		if c.options.RetryOn != nil && !c.options.RetryOn(err) {
			break
		}

		select {
		case <-ctx.Done():
			return result, fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		case <-time.After(c.options.RetryDelay):
		}
	}

	return result, err
}

func (c *CommandRunner) runOnce(ctx context.Context, program string, args []string) (*Result, error) {
	cmd := exec.CommandContext(ctx, program, args...)
	if c.options.WorkingDir != "" {
		cmd.Dir = c.options.WorkingDir
	}
	if len(c.options.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range c.options.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &Result{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return result, nil
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		result.ExitCode = -1
	}

	return result, fmt.Errorf("%s failed: %w", program, err)
}
