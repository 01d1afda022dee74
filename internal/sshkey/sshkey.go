// Package sshkey validates public keys destined for authorized_keys files.
package sshkey

import (
	"bytes"
	"errors"
	"fmt"

	gossh "golang.org/x/crypto/ssh"
)

// ErrInvalidKey is returned when a key line cannot be parsed.
var ErrInvalidKey = errors.New("invalid public key")

// Key is a parsed authorized_keys entry.
type Key struct {
	// Line is the normalized entry, newline terminated.
	Line string

	// Type is the key algorithm, e.g. "ssh-ed25519".
	Type string

	// Fingerprint is the SHA256 fingerprint in OpenSSH format.
	Fingerprint string

	Comment string
}

// Parse validates a single authorized_keys line and returns it normalized.
// Options such as "no-pty" are preserved.
func Parse(line string) (*Key, error) {
	data := bytes.TrimSpace([]byte(line))
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidKey)
	}

	pub, comment, options, rest, err := gossh.ParseAuthorizedKey(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(bytes.TrimSpace(rest)) > 0 {
		return nil, fmt.Errorf("%w: expected a single key", ErrInvalidKey)
	}

	var buf bytes.Buffer
	for i, opt := range options {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(opt)
	}
	if buf.Len() > 0 {
		buf.WriteByte(' ')
	}
	buf.Write(bytes.TrimSpace(gossh.MarshalAuthorizedKey(pub)))
	if comment != "" {
		buf.WriteByte(' ')
		buf.WriteString(comment)
	}
	buf.WriteByte('\n')

	return &Key{
		Line:        buf.String(),
		Type:        pub.Type(),
		Fingerprint: gossh.FingerprintSHA256(pub),
		Comment:     comment,
	}, nil
}
