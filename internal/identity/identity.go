// Package identity resolves OS accounts and applies tenant ownership and
// permissions to provisioned paths.
package identity

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"strconv"

	"github.com/spf13/afero"
)

// ErrUnknown is returned when a user or group does not exist.
var ErrUnknown = errors.New("unknown user or group")

// Resolver maps account names to numeric ids.
type Resolver interface {
	UserID(name string) (int, error)
	GroupID(name string) (int, error)
}

// System resolves names through the host account database.
type System struct{}

// UserID implements Resolver.
func (System) UserID(name string) (int, error) {
	u, err := user.Lookup(name)
	if err != nil {
		return 0, fmt.Errorf("%w: user %q: %v", ErrUnknown, name, err)
	}
	return strconv.Atoi(u.Uid)
}

// GroupID implements Resolver.
func (System) GroupID(name string) (int, error) {
	g, err := user.LookupGroup(name)
	if err != nil {
		return 0, fmt.Errorf("%w: group %q: %v", ErrUnknown, name, err)
	}
	return strconv.Atoi(g.Gid)
}

// Fixed resolves every name to the same ids. Useful for single-account
// deployments and tests.
type Fixed struct {
	UID int
	GID int
}

// UserID implements Resolver.
func (f Fixed) UserID(string) (int, error) { return f.UID, nil }

// GroupID implements Resolver.
func (f Fixed) GroupID(string) (int, error) { return f.GID, nil }

// Owner is a numeric (uid, gid) pair.
type Owner struct {
	UID int
	GID int
}

// Lookup resolves a tenant user and the shared group into an Owner.
func Lookup(r Resolver, username, group string) (Owner, error) {
	uid, err := r.UserID(username)
	if err != nil {
		return Owner{}, err
	}
	gid, err := r.GroupID(group)
	if err != nil {
		return Owner{}, err
	}
	return Owner{UID: uid, GID: gid}, nil
}

// Apply sets ownership and mode on a single path.
func Apply(fsys afero.Fs, path string, owner Owner, mode os.FileMode) error {
	if err := fsys.Chown(path, owner.UID, owner.GID); err != nil {
		return fmt.Errorf("failed to chown %s: %w", path, err)
	}
	if err := fsys.Chmod(path, mode); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	return nil
}

// ApplyTree walks root and applies ownership to every entry, with dirMode on
// directories (root included) and fileMode on everything else.
func ApplyTree(fsys afero.Fs, root string, owner Owner, dirMode, fileMode os.FileMode) error {
	return afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		mode := fileMode
		if info.IsDir() {
			mode = dirMode
		}
		return Apply(fsys, path, owner, mode)
	})
}
