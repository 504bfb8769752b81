package knowledge

import (
	"context"
	"strings"

	"github.com/xnote-dev/xnote/internal/knowledge/sqlite"
	"github.com/xnote-dev/xnote/internal/paths"
	"github.com/xnote-dev/xnote/internal/vault"
)

// csvSep joins cache fields that are themselves lists of tokens. Unit
// separator rather than comma: wikilink targets occasionally contain commas.
const csvSep = "\x1f"

func joinList(items []string) string {
	return strings.Join(items, csvSep)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, csvSep)
}

// RebuildFromVaultCached behaves like RebuildFromVault, except that for
// notes whose (size, modification time) match store's cached row it reuses
// the cached title/tags/links/tokens instead of re-reading and
// re-tokenizing the file. Notes that are new, changed, or missing from the
// cache are read and tokenized as usual, and the cache is updated to match.
// Cache rows for notes no longer present in the vault are pruned.
func (idx *Index) RebuildFromVaultCached(v *vault.Vault, store *sqlite.Store) error {
	scan, err := v.Scan()
	if err != nil {
		return err
	}

	idx.mu.Lock()
	idx.notes = make(map[paths.RelPath]*IndexedNote)
	idx.inverted = make(map[string]map[paths.RelPath]struct{})
	idx.mu.Unlock()

	ctx := context.Background()
	kept := make([]string, 0, len(scan.Notes))

	for _, entry := range scan.Notes {
		rel := entry.Path
		kept = append(kept, rel.String())

		stat, err := v.StatNote(rel.String())
		if err != nil {
			continue
		}

		cached, ok, err := store.Get(ctx, rel.String())
		if err == nil && ok && cached.ModUnix == stat.ModUnix && cached.Size == stat.Size {
			idx.insertFromCache(rel, cached)
			continue
		}

		if err := idx.UpsertNote(v, rel); err != nil {
			continue
		}
		idx.mu.RLock()
		note := idx.notes[rel]
		idx.mu.RUnlock()
		if note == nil {
			continue
		}

		tokens := make([]string, 0, len(note.TokenSet))
		for t := range note.TokenSet {
			tokens = append(tokens, t)
		}
		_ = store.Upsert(ctx, sqlite.CachedNote{
			Path:      rel.String(),
			Title:     note.Title,
			TagsCSV:   joinList(note.Tags),
			LinksCSV:  joinList(note.Links),
			TokensCSV: joinList(tokens),
			ModUnix:   stat.ModUnix,
			Size:      stat.Size,
		})
	}

	_ = store.DeleteNotIn(ctx, kept)
	return nil
}

// insertFromCache installs a note directly from its cached row, without
// touching the vault's filesystem.
func (idx *Index) insertFromCache(rel paths.RelPath, cached sqlite.CachedNote) {
	tags := splitList(cached.TagsCSV)
	links := splitList(cached.LinksCSV)
	tagsLower := make([]string, len(tags))
	for i, t := range tags {
		tagsLower[i] = strings.ToLower(t)
	}
	linksLower := make([]string, len(links))
	for i, l := range links {
		linksLower[i] = strings.ToLower(l)
	}

	tokenList := splitList(cached.TokensCSV)
	tokens := make(map[string]struct{}, len(tokenList))
	for _, t := range tokenList {
		tokens[t] = struct{}{}
	}

	note := &IndexedNote{
		Path:       rel,
		PathLower:  strings.ToLower(string(rel)),
		Title:      cached.Title,
		TitleLower: strings.ToLower(cached.Title),
		Tags:       tags,
		TagsLower:  tagsLower,
		Links:      links,
		LinksLower: linksLower,
		TokenSet:   tokens,
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(rel)
	idx.notes[rel] = note
	for t := range tokens {
		bucket, ok := idx.inverted[t]
		if !ok {
			bucket = make(map[paths.RelPath]struct{})
			idx.inverted[t] = bucket
		}
		bucket[rel] = struct{}{}
	}
}
