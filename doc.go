// Package repohost serves browsing and controlled mutation of bare git
// repositories laid out as <project_root>/<project>/<repository>.git, and
// provisions the OS identities that own them.
//
// Reads resolve a revision and walk trees, blobs and history through
// go-git. Writes go through UpdateResource, an optimistic workflow: the
// caller presents the branch tip it last saw as a token, the change is
// committed in a private clone and pushed back only if the branch has not
// moved.
//
// Failures surface as one of three conditions, tested with errors.Is:
// ErrNotFound, ErrCanNotUpdate and ErrUnignorable. Code maps any error to a
// stable string for transport layers.
//
// # Thread Safety
//
// All Engine methods are safe for concurrent use. Concurrent updates of the
// same branch are not serialized; at most one of them wins and the others
// fail with ErrCanNotUpdate or ErrUnignorable.
package repohost
