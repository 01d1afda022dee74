package repohost

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/executor"
	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/identity"
	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/metrics"
	"github.com/input-output-hk/catalyst-forge-libs/repohost/internal/sshkey"
)

const (
	sshDirMode         = 0o700
	authorizedKeysMode = 0o600

	// exitLocked is the useradd/userdel status for a busy passwd or group file.
	exitLocked = 10
)

// newAccountRunner runs shadow-utils commands in the C locale from /,
// retrying while another process holds the account database lock.
func newAccountRunner() *executor.CommandRunner {
	return executor.New(
		executor.WithWorkingDir("/"),
		executor.WithEnvVar("LC_ALL", "C"),
		executor.WithRetry(3, 200*time.Millisecond),
		executor.WithRetryCondition(accountDatabaseLocked),
	)
}

func accountDatabaseLocked(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr) && exitErr.ExitCode() == exitLocked
}

func checkUsername(username string) error {
	if !validName(username) || strings.HasPrefix(username, "-") {
		return fmt.Errorf("%w: user %q", ErrInvalidName, username)
	}
	return nil
}

func (e *Engine) homeDir(username string) string {
	return filepath.Join(e.cfg.HomeRoot, username)
}

// AddUser creates an OS account for a tenant in the shared group and
// installs authorizedKey as its only SSH key. The key is validated before
// the account is created, and the account is removed again if the key
// cannot be installed.
func (e *Engine) AddUser(ctx context.Context, username, authorizedKey string) error {
	if err := checkUsername(username); err != nil {
		return err
	}
	key, err := sshkey.Parse(authorizedKey)
	if err != nil {
		return err
	}

	home := e.homeDir(username)
	_, err = e.runner.Run(ctx, "useradd",
		"--home-dir", home,
		"--create-home",
		"--groups", e.cfg.UserGroup,
		"--shell", e.cfg.UserShell,
		username,
	)
	if err != nil {
		return fmt.Errorf("failed to add user %s: %w", username, err)
	}

	if err := e.installKey(username, home, key); err != nil {
		if _, delErr := e.runner.Run(context.WithoutCancel(ctx), "userdel", "--remove", username); delErr != nil {
			e.logger.ErrorContext(ctx, "failed to remove user after error", "user", username, "error", delErr)
		}
		return err
	}

	e.metrics.Provision(metrics.KindUser)
	e.logger.InfoContext(ctx, "user added", "user", username, "key", key.Fingerprint)
	return nil
}

// installKey writes the user's authorized_keys and hands .ssh to the user.
func (e *Engine) installKey(username, home string, key *sshkey.Key) error {
	// useradd creates a private group named after the user.
	who, err := identity.Lookup(e.resolver, username, username)
	if err != nil {
		return err
	}

	sshDir := filepath.Join(home, ".ssh")
	if err := e.fs.MkdirAll(sshDir, sshDirMode); err != nil {
		return fmt.Errorf("failed to create %s: %w", sshDir, err)
	}
	keyFile := filepath.Join(sshDir, "authorized_keys")
	if err := afero.WriteFile(e.fs, keyFile, []byte(key.Line), authorizedKeysMode); err != nil {
		return fmt.Errorf("failed to write %s: %w", keyFile, err)
	}
	if err := identity.Apply(e.fs, keyFile, who, authorizedKeysMode); err != nil {
		return err
	}
	return identity.Apply(e.fs, sshDir, who, sshDirMode)
}

// RemoveUser deletes the tenant account and its home directory.
func (e *Engine) RemoveUser(ctx context.Context, username string) error {
	if err := checkUsername(username); err != nil {
		return err
	}
	if _, err := e.runner.Run(ctx, "userdel", "--remove", username); err != nil {
		return fmt.Errorf("failed to remove user %s: %w", username, err)
	}

	e.logger.InfoContext(ctx, "user removed", "user", username)
	return nil
}
