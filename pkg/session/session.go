// Package session generates and checks backend chat session ids.
package session

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// maxIDLen bounds ids accepted from users so they stay usable in URL paths.
const maxIDLen = 128

// NewID returns a fresh session id.
func NewID() string {
	return uuid.NewString()
}

// Validate checks that id can be sent to the backend as a session id.
// Any non-empty printable id without slashes is accepted, since the backend
// treats ids as opaque strings.
func Validate(id string) error {
	switch {
	case strings.TrimSpace(id) == "":
		return fmt.Errorf("session id is empty")
	case len(id) > maxIDLen:
		return fmt.Errorf("session id is longer than %d bytes", maxIDLen)
	case strings.ContainsAny(id, "/?#"):
		return fmt.Errorf("session id %q contains a reserved character", id)
	}

	for _, r := range id {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("session id %q contains a control character", id)
		}
	}

	return nil
}

// IsGenerated reports whether id has the shape of an id made by NewID.
func IsGenerated(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
