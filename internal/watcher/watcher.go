package watcher

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher wraps an fsnotify.Watcher, translating raw OS events into
// RawEvent values the translation layer understands, and exposes
// RecvBatch for debounced, deduplicated semantic batches.
//
// fsnotify stands in for the original implementation's "notify" crate —
// the Go ecosystem's equivalent cross-platform filesystem-event library —
// listed as a direct dependency precisely for this component.
type Watcher struct {
	fsw *fsnotify.Watcher
	// pendingRenameFrom and pendingAt are not read or written by the
	// event loop: rename halves are not correlated. Every fsnotify Rename
	// is reported as RawRenameFrom (a removal of the old path), and the
	// new path arrives as a separate Create.
	pendingRenameFrom string
	pendingAt         time.Time
}

// New creates a Watcher rooted at root, recursively adding every
// directory under it to the underlying fsnotify watch list.
func New(root string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	err = addRecursive(fsw, root)
	if err != nil {
		fsw.Close()
		return nil, err
	}

	return &Watcher{fsw: fsw}, nil
}

func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return walkDirs(root, func(dir string) error {
		return fsw.Add(dir)
	})
}

func walkDirs(root string, fn func(dir string) error) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("read directory %s: %w", root, err)
	}
	if err := fn(root); err != nil {
		return fmt.Errorf("watch directory %s: %w", root, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if err := walkDirs(root+string(os.PathSeparator)+e.Name(), fn); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying OS watch handles.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

const renameCorrelationWindow = 50 * time.Millisecond

// nextRaw drains one fsnotify event (or error) from the underlying
// watcher and translates it into a RawEvent. ok is false when the
// watcher's channels have closed.
func (w *Watcher) nextRaw(timer *time.Timer) (RawEvent, bool) {
	select {
	case ev, open := <-w.fsw.Events:
		if !open {
			return RawEvent{}, false
		}
		return w.classifyFsnotifyEvent(ev), true
	case err, open := <-w.fsw.Errors:
		if !open {
			return RawEvent{}, false
		}
		_ = err
		return RawEvent{Kind: RawErr}, true
	}
}

func (w *Watcher) classifyFsnotifyEvent(ev fsnotify.Event) RawEvent {
	info, statErr := os.Stat(ev.Name)
	isDir := statErr == nil && info.IsDir()

	switch {
	case ev.Op&fsnotify.Create != 0:
		return RawEvent{Kind: RawCreate, Path: ev.Name, IsDir: isDir}
	case ev.Op&fsnotify.Remove != 0:
		return RawEvent{Kind: RawRemove, Path: ev.Name, IsDir: isDir}
	case ev.Op&fsnotify.Rename != 0:
		return RawEvent{Kind: RawRenameFrom, Path: ev.Name, IsDir: isDir}
	case ev.Op&fsnotify.Write != 0:
		return RawEvent{Kind: RawWrite, Path: ev.Name, IsDir: isDir}
	default:
		return RawEvent{Kind: RawOther, Path: ev.Name, IsDir: isDir}
	}
}

// RecvBatch blocks for the first event, then accumulates until either
// debounce elapses from the first event or maxBatch raw events have been
// collected, translates and dedups them, and returns the final batch.
// ok is false when the underlying watcher has closed (a fatal condition
// for the caller, per §7).
func (w *Watcher) RecvBatch(debounce time.Duration, maxBatch int) ([]Change, bool) {
	first, ok := w.nextRaw(nil)
	if !ok {
		return nil, false
	}

	raw := []RawEvent{first}
	deadline := time.Now().Add(debounce)

	for len(raw) < maxBatch {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		timer := time.NewTimer(remaining)
		select {
		case ev, open := <-w.fsw.Events:
			timer.Stop()
			if !open {
				return collectBatch(raw), true
			}
			raw = append(raw, w.classifyFsnotifyEvent(ev))
		case err, open := <-w.fsw.Errors:
			timer.Stop()
			if !open {
				return collectBatch(raw), true
			}
			_ = err
			raw = append(raw, RawEvent{Kind: RawErr})
		case <-timer.C:
		}
	}

	return collectBatch(raw), true
}

func collectBatch(raw []RawEvent) []Change {
	var changes []Change
	for _, ev := range raw {
		if c, ok := translate(ev); ok {
			changes = append(changes, c)
		}
	}
	return Dedup(changes)
}
