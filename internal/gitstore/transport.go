package gitstore

import (
	"sync"

	"github.com/go-git/go-git/v5/plumbing/transport/client"
	"github.com/go-git/go-git/v5/plumbing/transport/server"
)

var localTransportOnce sync.Once

// installLocalTransport routes file:// and plain-path remotes through go-git's
// in-process server so clone and push never shell out to git binaries.
func installLocalTransport() {
	localTransportOnce.Do(func() {
		client.InstallProtocol("file", server.DefaultServer)
	})
}
