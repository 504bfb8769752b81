// Package watcher classifies raw filesystem events from fsnotify into
// semantic vault changes, debounces them into batches, and collapses
// duplicate/chained move events before handing a batch to consumers.
package watcher

import "github.com/xnote-dev/xnote/internal/paths"

// ChangeKind discriminates the VaultWatchChange sum type.
type ChangeKind int

const (
	ChangeNoteChanged ChangeKind = iota
	ChangeNoteRemoved
	ChangeNoteMoved
	ChangeFolderCreated
	ChangeFolderRemoved
	ChangeFolderMoved
	ChangeRescanRequired
)

// Change is a single semantic vault event. Only the fields relevant to
// Kind are populated: Path for *Changed/*Removed/*Created, From/To for
// *Moved.
type Change struct {
	Kind ChangeKind
	Path paths.RelPath
	From paths.RelPath
	To   paths.RelPath
}

func noteChanged(p paths.RelPath) Change   { return Change{Kind: ChangeNoteChanged, Path: p} }
func noteRemoved(p paths.RelPath) Change   { return Change{Kind: ChangeNoteRemoved, Path: p} }
func noteMoved(from, to paths.RelPath) Change {
	return Change{Kind: ChangeNoteMoved, From: from, To: to}
}
func folderCreated(p paths.RelPath) Change { return Change{Kind: ChangeFolderCreated, Path: p} }
func folderRemoved(p paths.RelPath) Change { return Change{Kind: ChangeFolderRemoved, Path: p} }
func folderMoved(from, to paths.RelPath) Change {
	return Change{Kind: ChangeFolderMoved, From: from, To: to}
}
func rescanRequired() Change { return Change{Kind: ChangeRescanRequired} }
