package watcher

import (
	"strings"

	"github.com/xnote-dev/xnote/internal/paths"
)

// RawEventKind discriminates the kinds of filesystem notification the
// watcher's OS-level adapter can produce, mirroring the variants the
// original implementation's "notify" crate exposes (a plain Create/
// Write/Remove stream plus correlated Rename pairs where the OS
// supports it).
type RawEventKind int

const (
	RawErr RawEventKind = iota
	RawRenameBoth
	RawRenameFrom
	RawRenameTo
	RawCreate
	RawWrite
	RawRemove
	RawOther
)

// RawEvent is one OS-level filesystem notification, already resolved to
// vault-relative-ish raw path strings (not yet normalized/validated) plus
// whether the OS reported the path as a directory.
type RawEvent struct {
	Kind  RawEventKind
	Path  string
	To    string // only set for RawRenameBoth
	IsDir bool
}

// translate converts a single RawEvent into zero or one semantic Change,
// applying the classification rules of §4.3. A RawEvent that should be
// ignored (a path under .xnote, a path that fails to normalize, a non-.md
// file) yields (Change{}, false).
func translate(ev RawEvent) (Change, bool) {
	if ev.Kind == RawErr {
		return rescanRequired(), true
	}

	switch ev.Kind {
	case RawRenameBoth:
		from, fromErr := paths.Normalize(ev.Path)
		to, toErr := paths.Normalize(ev.To)
		if fromErr != nil || toErr != nil {
			return Change{}, false
		}
		if paths.IsUnderXNoteDir(from) || paths.IsUnderXNoteDir(to) {
			return Change{}, false
		}
		if isMarkdownName(ev.To) {
			return noteMoved(from, to), true
		}
		return folderMoved(from, to), true

	case RawRenameFrom:
		rel, err := paths.Normalize(ev.Path)
		if err != nil || paths.IsUnderXNoteDir(rel) {
			return Change{}, false
		}
		if isMarkdownName(ev.Path) {
			return noteRemoved(rel), true
		}
		return folderRemoved(rel), true

	case RawRenameTo:
		rel, err := paths.Normalize(ev.Path)
		if err != nil || paths.IsUnderXNoteDir(rel) {
			return Change{}, false
		}
		if isMarkdownName(ev.Path) {
			return noteChanged(rel), true
		}
		return folderCreated(rel), true

	case RawCreate:
		rel, err := paths.Normalize(ev.Path)
		if err != nil || paths.IsUnderXNoteDir(rel) {
			return Change{}, false
		}
		if ev.IsDir {
			return folderCreated(rel), true
		}
		if isMarkdownName(ev.Path) {
			return noteChanged(rel), true
		}
		return Change{}, false

	case RawWrite, RawOther:
		rel, err := paths.Normalize(ev.Path)
		if err != nil || paths.IsUnderXNoteDir(rel) {
			return Change{}, false
		}
		if isMarkdownName(ev.Path) {
			return noteChanged(rel), true
		}
		if ev.IsDir {
			return folderCreated(rel), true
		}
		return Change{}, false

	case RawRemove:
		rel, err := paths.Normalize(ev.Path)
		if err != nil || paths.IsUnderXNoteDir(rel) {
			return Change{}, false
		}
		if ev.IsDir {
			return folderRemoved(rel), true
		}
		if isMarkdownName(ev.Path) {
			return noteRemoved(rel), true
		}
		return Change{}, false
	}

	return Change{}, false
}

func isMarkdownName(raw string) bool {
	return strings.HasSuffix(strings.ToLower(raw), ".md")
}
