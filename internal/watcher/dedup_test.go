package watcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xnote-dev/xnote/internal/paths"
)

func rp(s string) paths.RelPath { return paths.RelPath(s) }

func TestDedup_CollapsesRescanRequired(t *testing.T) {
	batch := []Change{
		noteChanged(rp("a.md")),
		rescanRequired(),
		noteRemoved(rp("b.md")),
	}
	out := Dedup(batch)
	assert.Equal(t, []Change{rescanRequired()}, out)
}

func TestDedup_MoveChainCollapse(t *testing.T) {
	batch := []Change{
		noteMoved(rp("a.md"), rp("b.md")),
		noteMoved(rp("b.md"), rp("c.md")),
	}
	out := Dedup(batch)

	want := []Change{
		noteMoved(rp("a.md"), rp("c.md")),
		noteMoved(rp("b.md"), rp("c.md")),
	}
	assert.Equal(t, want, out)
}

func TestDedup_DropsNoOpMove(t *testing.T) {
	batch := []Change{noteMoved(rp("a.md"), rp("a.md"))}
	out := Dedup(batch)
	assert.Empty(t, out)
}

func TestDedup_RemovedSuppressesPriorChangeAndMove(t *testing.T) {
	batch := []Change{
		noteChanged(rp("p.md")),
		noteMoved(rp("p.md"), rp("q.md")),
		noteRemoved(rp("p.md")),
	}
	out := Dedup(batch)

	for _, c := range out {
		if c.Kind == ChangeNoteChanged {
			assert.Fail(t, "NoteChanged for removed path should be suppressed")
		}
		if c.Kind == ChangeNoteMoved {
			assert.NotEqual(t, rp("p.md"), c.From)
		}
	}
}

func TestDedup_ChangeSuppressedWhenTargetOfPendingMove(t *testing.T) {
	batch := []Change{
		noteMoved(rp("a.md"), rp("b.md")),
		noteChanged(rp("b.md")),
	}
	out := Dedup(batch)

	for _, c := range out {
		assert.NotEqual(t, ChangeNoteChanged, c.Kind)
	}
}

func TestDedup_OutputOrder(t *testing.T) {
	batch := []Change{
		folderRemoved(rp("oldfolder")),
		folderCreated(rp("newfolder")),
		folderMoved(rp("f1"), rp("f2")),
		noteRemoved(rp("z.md")),
		noteChanged(rp("y.md")),
		noteMoved(rp("w.md"), rp("x.md")),
	}
	out := Dedup(batch)

	order := func(k ChangeKind) int {
		switch k {
		case ChangeNoteMoved:
			return 0
		case ChangeNoteChanged:
			return 1
		case ChangeNoteRemoved:
			return 2
		case ChangeFolderMoved:
			return 3
		case ChangeFolderCreated:
			return 4
		case ChangeFolderRemoved:
			return 5
		}
		return 6
	}
	last := -1
	for _, c := range out {
		o := order(c.Kind)
		assert.GreaterOrEqual(t, o, last)
		last = o
	}
}
