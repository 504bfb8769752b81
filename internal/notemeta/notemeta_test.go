package notemeta_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xnote-dev/xnote/internal/notemeta"
)

type fakeClock struct{ ms int64 }

func (c fakeClock) NowMillis() int64 { return c.ms }

func TestIDAllocator_GeneratesPrefixedID(t *testing.T) {
	alloc := notemeta.NewIDAllocator(fakeClock{ms: 0x1234}, 0xAB)
	id := alloc.Generate()
	assert.True(t, notemeta.ValidNoteID(id))
	assert.Equal(t, byte('N'), id[0])
}

func TestCanonicalJSON_RoundTrip(t *testing.T) {
	m := notemeta.NoteMetaV1{
		Version:   notemeta.CurrentVersion,
		ID:        "Nabc123",
		UpdatedAt: 1700000000000,
		Relations: []notemeta.Relation{{Kind: "related", Path: "b.md"}},
		Pins:      []string{"a.md"},
	}

	data, err := m.CanonicalJSON()
	require.NoError(t, err)

	parsed, err := notemeta.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, m, parsed)
}

func TestEnsureFrontmatterNoteID_KeepsValid(t *testing.T) {
	alloc := notemeta.NewIDAllocator(fakeClock{ms: 1}, 1)
	assert.Equal(t, "Nvalid-123", notemeta.EnsureFrontmatterNoteID("Nvalid-123", alloc))
}

func TestEnsureFrontmatterNoteID_GeneratesWhenMissing(t *testing.T) {
	alloc := notemeta.NewIDAllocator(fakeClock{ms: 1}, 1)
	got := notemeta.EnsureFrontmatterNoteID("", alloc)
	assert.True(t, notemeta.ValidNoteID(got))
}
