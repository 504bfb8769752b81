package watcher

import (
	"sort"

	"github.com/xnote-dev/xnote/internal/paths"
)

// Dedup applies the §4.3 dedup pass to a raw batch of changes, producing
// the final batch a consumer should apply, in the documented output
// order: moves, then changes, then removes, then folder-moves,
// folder-creates, folder-removes — each group sorted ascending.
func Dedup(batch []Change) []Change {
	for _, c := range batch {
		if c.Kind == ChangeRescanRequired {
			return []Change{rescanRequired()}
		}
	}

	noteMoves := collapseMoves(filterMoves(batch, ChangeNoteMoved))
	folderMoves := collapseMoves(filterMoves(batch, ChangeFolderMoved))

	movedFrom := make(map[paths.RelPath]struct{})
	movedTo := make(map[paths.RelPath]struct{})
	for _, m := range noteMoves {
		movedFrom[m.From] = struct{}{}
		movedTo[m.To] = struct{}{}
	}
	folderMovedFrom := make(map[paths.RelPath]struct{})
	folderMovedTo := make(map[paths.RelPath]struct{})
	for _, m := range folderMoves {
		folderMovedFrom[m.From] = struct{}{}
		folderMovedTo[m.To] = struct{}{}
	}

	removedNotes := make(map[paths.RelPath]struct{})
	for _, c := range batch {
		if c.Kind == ChangeNoteRemoved {
			removedNotes[c.Path] = struct{}{}
		}
	}
	removedFolders := make(map[paths.RelPath]struct{})
	for _, c := range batch {
		if c.Kind == ChangeFolderRemoved {
			removedFolders[c.Path] = struct{}{}
		}
	}

	// NoteRemoved for p deletes prior NoteChanged{p} and any NoteMoved
	// involving p; applied by construction since noteMoves/folderMoves are
	// recomputed fresh and NoteChanged is filtered below.
	noteMoves = filterOutRemoved(noteMoves, removedNotes)
	folderMoves = filterOutRemoved(folderMoves, removedFolders)

	recomputedMovedFrom := make(map[paths.RelPath]struct{})
	recomputedMovedTo := make(map[paths.RelPath]struct{})
	for _, m := range noteMoves {
		recomputedMovedFrom[m.From] = struct{}{}
		recomputedMovedTo[m.To] = struct{}{}
	}
	recomputedFolderMovedFrom := make(map[paths.RelPath]struct{})
	recomputedFolderMovedTo := make(map[paths.RelPath]struct{})
	for _, m := range folderMoves {
		recomputedFolderMovedFrom[m.From] = struct{}{}
		recomputedFolderMovedTo[m.To] = struct{}{}
	}

	var changes []Change
	seenChange := make(map[paths.RelPath]struct{})
	for _, c := range batch {
		if c.Kind != ChangeNoteChanged {
			continue
		}
		if _, removed := removedNotes[c.Path]; removed {
			continue
		}
		if _, pending := recomputedMovedTo[c.Path]; pending {
			continue
		}
		if _, dup := seenChange[c.Path]; dup {
			continue
		}
		seenChange[c.Path] = struct{}{}
		changes = append(changes, c)
	}

	var folderCreates []Change
	seenFolderCreate := make(map[paths.RelPath]struct{})
	for _, c := range batch {
		if c.Kind != ChangeFolderCreated {
			continue
		}
		if _, removed := removedFolders[c.Path]; removed {
			continue
		}
		if _, pending := recomputedFolderMovedTo[c.Path]; pending {
			continue
		}
		if _, dup := seenFolderCreate[c.Path]; dup {
			continue
		}
		seenFolderCreate[c.Path] = struct{}{}
		folderCreates = append(folderCreates, c)
	}

	var removes []Change
	for p := range removedNotes {
		removes = append(removes, noteRemoved(p))
	}
	var folderRemoves []Change
	for p := range removedFolders {
		folderRemoves = append(folderRemoves, folderRemoved(p))
	}

	sort.Slice(noteMoves, func(i, j int) bool { return noteMoves[i].From < noteMoves[j].From })
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	sort.Slice(removes, func(i, j int) bool { return removes[i].Path < removes[j].Path })
	sort.Slice(folderMoves, func(i, j int) bool { return folderMoves[i].From < folderMoves[j].From })
	sort.Slice(folderCreates, func(i, j int) bool { return folderCreates[i].Path < folderCreates[j].Path })
	sort.Slice(folderRemoves, func(i, j int) bool { return folderRemoves[i].Path < folderRemoves[j].Path })

	var out []Change
	out = append(out, noteMoves...)
	out = append(out, changes...)
	out = append(out, removes...)
	out = append(out, folderMoves...)
	out = append(out, folderCreates...)
	out = append(out, folderRemoves...)
	return out
}

func filterMoves(batch []Change, kind ChangeKind) []Change {
	var out []Change
	for _, c := range batch {
		if c.Kind == kind && c.From != c.To {
			out = append(out, c)
		}
	}
	return out
}

func filterOutRemoved(moves []Change, removed map[paths.RelPath]struct{}) []Change {
	var out []Change
	for _, m := range moves {
		if _, ok := removed[m.From]; ok {
			continue
		}
		if _, ok := removed[m.To]; ok {
			continue
		}
		out = append(out, m)
	}
	return out
}

// collapseMoves implements move-chain collapsing: a->b, b->c becomes
// a->c (plus the original b->c is retained), transitively, with cycles
// shorter than the map size terminating and longer traversals treated as
// suspected cycles (the original map is kept unchanged in that case).
func collapseMoves(moves []Change) []Change {
	if len(moves) == 0 {
		return nil
	}

	byFrom := make(map[paths.RelPath]paths.RelPath, len(moves))
	for _, m := range moves {
		byFrom[m.From] = m.To
	}

	resolveTarget := func(start paths.RelPath) (paths.RelPath, bool) {
		current := start
		hopCap := len(byFrom)
		visited := make(map[paths.RelPath]struct{}, hopCap)
		for hops := 0; hops <= hopCap; hops++ {
			next, ok := byFrom[current]
			if !ok {
				return current, true
			}
			if _, cyc := visited[current]; cyc {
				return start, false
			}
			visited[current] = struct{}{}
			current = next
		}
		return start, false
	}

	result := make([]Change, 0, len(moves))
	for _, m := range moves {
		target, ok := resolveTarget(m.From)
		if !ok {
			// Suspected cycle or chain longer than the hop cap: keep the
			// original moves unchanged.
			return moves
		}
		if m.Kind == ChangeNoteMoved {
			result = append(result, noteMoved(m.From, target))
		} else {
			result = append(result, folderMoved(m.From, target))
		}
	}
	return result
}
