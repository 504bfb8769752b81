// Package notemeta implements the optional per-note sidecar metadata
// schema: a stable note ID plus relation and pin tracking, stored in
// frontmatter and round-tripped through canonical JSON.
//
// This supplements the distilled specification, which mentions the note
// ID format only in passing; the full schema is carried over from the
// original implementation's note_meta module so relations and pins
// (dropped by the distillation) remain available to the AI tool
// orchestrator and the UI layer.
package notemeta

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync/atomic"
	"time"
)

// Relation links this note to another by RelPath, with a free-form kind
// label ("related", "parent", ...).
type Relation struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
}

// NoteMetaV1 is the sidecar schema stored alongside a note's frontmatter
// ID.
type NoteMetaV1 struct {
	Version   int        `json:"version"`
	ID        string     `json:"id"`
	UpdatedAt int64      `json:"updated_at"`
	Relations []Relation `json:"relations,omitempty"`
	Pins      []string   `json:"pins,omitempty"`
	Ext       map[string]string `json:"ext,omitempty"`
}

// CurrentVersion is the schema version written by this package.
const CurrentVersion = 1

// noteIDPattern validates the ASCII alnum/-/_ charset required of a
// frontmatter "id" value.
var noteIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidNoteID reports whether id matches the required charset.
func ValidNoteID(id string) bool {
	return id != "" && noteIDPattern.MatchString(id)
}

// Clock abstracts the current time so ID generation is deterministic in
// tests.
type Clock interface {
	NowMillis() int64
}

// SystemClock is the real wall-clock Clock.
type SystemClock struct{}

// NowMillis returns the current Unix time in milliseconds.
func (SystemClock) NowMillis() int64 { return time.Now().UnixMilli() }

// IDAllocator generates Note IDs of the form
// "N<hex-ms><hex-pid><hex-seq>", injecting the clock and an atomically
// incrementing per-allocator sequence so generation is both ordered and
// testable.
type IDAllocator struct {
	clock Clock
	pid   int
	seq   uint32
}

// NewIDAllocator returns an IDAllocator using clock and pid.
func NewIDAllocator(clock Clock, pid int) *IDAllocator {
	return &IDAllocator{clock: clock, pid: pid}
}

// NewSystemIDAllocator returns an IDAllocator backed by SystemClock and
// the current OS process id.
func NewSystemIDAllocator() *IDAllocator {
	return NewIDAllocator(SystemClock{}, os.Getpid())
}

// Generate returns the next Note ID.
func (a *IDAllocator) Generate() string {
	seq := atomic.AddUint32(&a.seq, 1)
	ms := a.clock.NowMillis()
	return fmt.Sprintf("N%x%x%x", ms, a.pid, seq)
}

// CanonicalJSON sorts m's relations (by kind, then path) and pins in place,
// then marshals m with no extra whitespace: struct fields in declaration
// order, ext map keys sorted. NoteMetaV1 -> CanonicalJSON -> Parse is the
// identity.
func (m NoteMetaV1) CanonicalJSON() ([]byte, error) {
	sort.Slice(m.Relations, func(i, j int) bool {
		if m.Relations[i].Kind != m.Relations[j].Kind {
			return m.Relations[i].Kind < m.Relations[j].Kind
		}
		return m.Relations[i].Path < m.Relations[j].Path
	})
	sort.Strings(m.Pins)
	return json.Marshal(m)
}

// Parse decodes a NoteMetaV1 from canonical JSON.
func Parse(data []byte) (NoteMetaV1, error) {
	var m NoteMetaV1
	if err := json.Unmarshal(data, &m); err != nil {
		return NoteMetaV1{}, fmt.Errorf("parse note meta: %w", err)
	}
	return m, nil
}

// EnsureFrontmatterNoteID returns existing, trimmed of surrounding
// whitespace, if it is a valid note ID, allocating a fresh one via alloc
// otherwise.
func EnsureFrontmatterNoteID(existing string, alloc *IDAllocator) string {
	trimmed := strings.TrimSpace(existing)
	if ValidNoteID(trimmed) {
		return trimmed
	}
	return alloc.Generate()
}
