// Package ids generates distinguishing tokens for ephemeral identifiers
// (plugin sessions, AI request ids) where content-addressing is not
// appropriate, using github.com/google/uuid for collision-free
// randomness.
package ids

import "github.com/google/uuid"

// NewSessionSuffix returns a short random token suitable for
// disambiguating plugin session telemetry entries.
func NewSessionSuffix() string {
	return uuid.NewString()[:8]
}
