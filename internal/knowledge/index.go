// Package knowledge maintains the in-memory inverted index over a vault's
// notes: ranked full-text search, quick-open fuzzy matching, wikilink
// resolution, and backlinks, kept incrementally consistent as notes
// change.
package knowledge

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xnote-dev/xnote/internal/paths"
	"github.com/xnote-dev/xnote/internal/vault"
)

// IndexedNote is the per-note record maintained by the Index.
type IndexedNote struct {
	Path       paths.RelPath
	PathLower  string
	Title      string
	TitleLower string
	Tags       []string
	TagsLower  []string
	Links      []string
	LinksLower []string
	TokenSet   map[string]struct{}
}

// Index is the global mapping RelPath -> IndexedNote plus its inverted
// token -> set<RelPath> view. It is safe for concurrent use: mutation
// (Upsert/Remove) takes an exclusive lock; queries take a shared lock.
type Index struct {
	mu       sync.RWMutex
	notes    map[paths.RelPath]*IndexedNote
	inverted map[string]map[paths.RelPath]struct{}
}

// New returns an empty Index.
func New() *Index {
	return &Index{
		notes:    make(map[paths.RelPath]*IndexedNote),
		inverted: make(map[string]map[paths.RelPath]struct{}),
	}
}

// NoteCount returns the number of indexed notes.
func (idx *Index) NoteCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.notes)
}

// RebuildFromVault clears the index and re-scans and re-indexes every note
// currently in the vault.
func (idx *Index) RebuildFromVault(v *vault.Vault) error {
	scan, err := v.Scan()
	if err != nil {
		return err
	}
	idx.mu.Lock()
	idx.notes = make(map[paths.RelPath]*IndexedNote)
	idx.inverted = make(map[string]map[paths.RelPath]struct{})
	idx.mu.Unlock()

	return idx.BuildFromEntries(v, scan.Notes)
}

// BuildFromEntries upserts every given entry. Equivalent to calling
// UpsertNote for each one.
func (idx *Index) BuildFromEntries(v *vault.Vault, entries []vault.NoteEntry) error {
	for _, e := range entries {
		if err := idx.UpsertNote(v, e.Path); err != nil {
			continue
		}
	}
	return nil
}

// UpsertNote re-reads rel from the vault, recomputes its metadata and
// token set, removes the previous entry's inverted postings (if any), and
// installs the new ones.
func (idx *Index) UpsertNote(v *vault.Vault, rel paths.RelPath) error {
	content, err := v.ReadNote(rel.String())
	if err != nil {
		return err
	}

	meta := ExtractMetadata(content, rel.Stem())

	tagsLower := make([]string, len(meta.Tags))
	for i, t := range meta.Tags {
		tagsLower[i] = strings.ToLower(t)
	}
	linksLower := make([]string, len(meta.Links))
	for i, l := range meta.Links {
		linksLower[i] = strings.ToLower(l)
	}

	tokens := make(map[string]struct{})
	tokenSet(tokens, string(rel))
	tokenSet(tokens, meta.Title)
	for _, t := range meta.Tags {
		tokenSet(tokens, t)
	}
	for _, l := range meta.Links {
		tokenSet(tokens, l)
	}
	for _, v := range meta.Frontmatter {
		tokenSet(tokens, v)
	}
	for _, line := range strings.Split(content, "\n") {
		tokenSet(tokens, line)
	}

	note := &IndexedNote{
		Path:       rel,
		PathLower:  strings.ToLower(string(rel)),
		Title:      meta.Title,
		TitleLower: strings.ToLower(meta.Title),
		Tags:       meta.Tags,
		TagsLower:  tagsLower,
		Links:      meta.Links,
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
	return nil
}

// RemoveNote deletes rel's entry and prunes its postings, removing any
// bucket left empty.
func (idx *Index) RemoveNote(rel paths.RelPath) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(rel)
}

func (idx *Index) removeLocked(rel paths.RelPath) {
	existing, ok := idx.notes[rel]
	if !ok {
		return
	}
	for t := range existing.TokenSet {
		bucket := idx.inverted[t]
		delete(bucket, rel)
		if len(bucket) == 0 {
			delete(idx.inverted, t)
		}
	}
	delete(idx.notes, rel)
}

// NoteSummary is a compact public view of an indexed note.
type NoteSummary struct {
	Path  paths.RelPath
	Title string
	Links []string
	Tags  []string
}

// NoteSummary returns a summary for rel, or false if rel is not indexed.
func (idx *Index) NoteSummary(rel paths.RelPath) (NoteSummary, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	n, ok := idx.notes[rel]
	if !ok {
		return NoteSummary{}, false
	}
	return NoteSummary{Path: n.Path, Title: n.Title, Links: n.Links, Tags: n.Tags}, true
}

// SearchOptions bounds the cost of a Search call.
type SearchOptions struct {
	MaxFilesWithMatches      int
	MaxMatchRows             int
	MaxPreviewMatchesPerFile int
	MaxMatchesToCountPerFile int
}

// DefaultSearchOptions returns reasonable bounds for interactive search.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		MaxFilesWithMatches:      200,
		MaxMatchRows:             2000,
		MaxPreviewMatchesPerFile: 3,
		MaxMatchesToCountPerFile: 200,
	}
}

// SearchHit is one ranked result, with line previews.
type SearchHit struct {
	Path         paths.RelPath
	Title        string
	Score        int
	MatchCount   int
	LinePreviews []string
}

// SearchResult is the outcome of Search.
type SearchResult struct {
	Query     string
	ElapsedMs int64
	Hits      []SearchHit
}

// Search ranks notes against query and collects bounded line previews.
// An empty query returns an empty result immediately without touching the
// vault.
func (idx *Index) Search(v *vault.Vault, query string, opts SearchOptions) SearchResult {
	if strings.TrimSpace(query) == "" {
		return SearchResult{Query: query, ElapsedMs: 0, Hits: []SearchHit{}}
	}

	start := time.Now()
	lowerQuery := strings.ToLower(query)

	idx.mu.RLock()
	candidates := idx.collectCandidates(lowerQuery)
	scored := make([]scoredCandidate, 0, len(candidates))
	for _, rel := range candidates {
		n := idx.notes[rel]
		if n == nil {
			continue
		}
		score := scoreNote(n, lowerQuery)
		if score <= 0 {
			continue
		}
		scored = append(scored, scoredCandidate{note: n, score: score})
	}
	idx.mu.RUnlock()

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].note.Path < scored[j].note.Path
	})

	hits := make([]SearchHit, 0, len(scored))
	for _, c := range scored {
		if len(hits) >= opts.MaxFilesWithMatches {
			break
		}
		hit := SearchHit{Path: c.note.Path, Title: c.note.Title, Score: c.score}

		content, err := v.ReadNote(c.note.Path.String())
		if err == nil {
			matchCount := 0
			for _, line := range strings.Split(content, "\n") {
				if matchCount >= opts.MaxMatchesToCountPerFile {
					break
				}
				if strings.Contains(strings.ToLower(line), lowerQuery) {
					matchCount++
					if len(hit.LinePreviews) < opts.MaxPreviewMatchesPerFile {
						hit.LinePreviews = append(hit.LinePreviews, strings.TrimSpace(line))
					}
				}
			}
			if matchCount == 0 && (strings.Contains(c.note.PathLower, lowerQuery) || strings.Contains(c.note.TitleLower, lowerQuery)) {
				matchCount = 1
			}
			hit.MatchCount = matchCount
		}

		hits = append(hits, hit)
		if len(hits) >= opts.MaxMatchRows {
			break
		}
	}

	return SearchResult{
		Query:     query,
		ElapsedMs: time.Since(start).Milliseconds(),
		Hits:      hits,
	}
}

type scoredCandidate struct {
	note  *IndexedNote
	score int
}

// collectCandidates implements §4.2's candidate-set selection: intersect
// postings for every query token that has a hit, processed in order of
// increasing bucket size (bailing out as soon as the running intersection
// empties out). A query that tokenizes to nothing falls back to a substring
// scan over path_lower/title_lower only; a query whose tokens have no hits
// falls back to that substring scan plus the quick-open subsequence match.
//
// Caller must hold at least a read lock.
func (idx *Index) collectCandidates(lowerQuery string) []paths.RelPath {
	tokens := tokenize(lowerQuery)

	if len(tokens) == 0 {
		return idx.substringFallback(lowerQuery)
	}

	buckets := make([]map[paths.RelPath]struct{}, 0, len(tokens))
	for _, t := range tokens {
		if b, ok := idx.inverted[t]; ok {
			buckets = append(buckets, b)
		}
	}

	if len(buckets) == 0 {
		return idx.quickOpenFallback(lowerQuery)
	}

	sort.Slice(buckets, func(i, j int) bool {
		return len(buckets[i]) < len(buckets[j])
	})

	out := make(map[paths.RelPath]struct{}, len(buckets[0]))
	for p := range buckets[0] {
		out[p] = struct{}{}
	}
	for _, b := range buckets[1:] {
		if len(out) == 0 {
			break
		}
		next := make(map[paths.RelPath]struct{})
		for p := range out {
			if _, ok := b[p]; ok {
				next[p] = struct{}{}
			}
		}
		out = next
	}

	result := make([]paths.RelPath, 0, len(out))
	for p := range out {
		result = append(result, p)
	}
	return result
}

// substringFallback matches the untokenizable-query branch: path_lower or
// title_lower containing the raw (untokenized) query.
func (idx *Index) substringFallback(lowerQuery string) []paths.RelPath {
	var out []paths.RelPath
	for p, n := range idx.notes {
		if strings.Contains(n.PathLower, lowerQuery) || strings.Contains(n.TitleLower, lowerQuery) {
			out = append(out, p)
		}
	}
	return out
}

// quickOpenFallback matches the no-token-hit branch: substring scan plus
// the quick-open subsequence fallback, so a query like "pln" still surfaces
// candidates even though it never appears verbatim in any posting.
func (idx *Index) quickOpenFallback(lowerQuery string) []paths.RelPath {
	var out []paths.RelPath
	for p, n := range idx.notes {
		if strings.Contains(n.PathLower, lowerQuery) || strings.Contains(n.TitleLower, lowerQuery) || quickOpenFallbackMatch(n, lowerQuery) {
			out = append(out, p)
		}
	}
	return out
}

// AllPathsSorted returns every indexed path in ascending lexicographic
// order.
func (idx *Index) AllPathsSorted() []paths.RelPath {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.allPathsSortedLocked()
}

func (idx *Index) allPathsSortedLocked() []paths.RelPath {
	all := make([]paths.RelPath, 0, len(idx.notes))
	for p := range idx.notes {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	return all
}

// quickOpenExpansionLimit implements clamp(max*16, 256, 4096): the cap on
// how many candidates the fallback-expansion step below is allowed to add
// before scoring, so a cold, permissive query can't force a full vault scan
// to be scored.
func quickOpenExpansionLimit(max int) int {
	limit := max * 16
	if limit < 256 {
		return 256
	}
	if limit > 4096 {
		return 4096
	}
	return limit
}

// QuickOpenPaths returns up to max RelPaths ranked by descending score,
// shorter path as tie-break, then lexicographic. max==0 returns an empty
// slice immediately. An empty (after trimming) query returns up to max
// paths in AllPathsSorted order instead of being scored.
func (idx *Index) QuickOpenPaths(query string, max int) []paths.RelPath {
	if max == 0 {
		return []paths.RelPath{}
	}

	trimmed := strings.TrimSpace(query)

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if trimmed == "" {
		all := idx.allPathsSortedLocked()
		if len(all) > max {
			all = all[:max]
		}
		return all
	}

	lowerQuery := strings.ToLower(trimmed)
	candidates := idx.collectCandidates(lowerQuery)

	expansionLimit := quickOpenExpansionLimit(max)
	if len(candidates) < expansionLimit {
		seen := make(map[paths.RelPath]struct{}, len(candidates))
		for _, p := range candidates {
			seen[p] = struct{}{}
		}
		for p, n := range idx.notes {
			if _, ok := seen[p]; ok {
				continue
			}
			if !quickOpenFallbackMatch(n, lowerQuery) {
				continue
			}
			seen[p] = struct{}{}
			candidates = append(candidates, p)
			if len(candidates) >= expansionLimit {
				break
			}
		}
	}

	type scored struct {
		path  paths.RelPath
		score int
	}
	all := make([]scored, 0, len(candidates))
	for _, p := range candidates {
		n, ok := idx.notes[p]
		if !ok {
			continue
		}
		score := scoreNote(n, lowerQuery)
		if score <= 0 {
			continue
		}
		all = append(all, scored{path: p, score: score})
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		if len(all[i].path) != len(all[j].path) {
			return len(all[i].path) < len(all[j].path)
		}
		return all[i].path < all[j].path
	})

	if len(all) > max {
		all = all[:max]
	}
	out := make([]paths.RelPath, len(all))
	for i, s := range all {
		out[i] = s.path
	}
	return out
}

// ResolveLinkTarget maps a raw wikilink inner-text to an indexed RelPath,
// trying (in order) the normalized path, "<path>.md", the file name, the
// stem, and lowercased equivalents, against path_lower/its trailing
// segment/title_lower.
func (idx *Index) ResolveLinkTarget(raw string) (paths.RelPath, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	if idxHash := strings.IndexByte(trimmed, '#'); idxHash >= 0 {
		trimmed = trimmed[:idxHash]
	}
	if trimmed == "" {
		return "", false
	}

	lower := strings.ToLower(trimmed)
	candidates := []string{lower, lower + ".md"}
	base := filepath.Base(lower)
	candidates = append(candidates, base)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	candidates = append(candidates, stem)

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	for _, cand := range candidates {
		for p, n := range idx.notes {
			if n.PathLower == cand {
				return p, true
			}
			if filepath.Base(n.PathLower) == cand {
				return p, true
			}
			if n.TitleLower == cand {
				return p, true
			}
		}
	}
	return "", false
}

// BacklinksFor returns up to max notes whose links_lower contains any of
// target's path, file name, stem, or title (all lowercased).
func (idx *Index) BacklinksFor(rel paths.RelPath, max int) []NoteSummary {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	target, ok := idx.notes[rel]
	if !ok {
		return nil
	}

	needles := map[string]struct{}{
		target.PathLower:               {},
		filepath.Base(target.PathLower): {},
		strings.TrimSuffix(filepath.Base(target.PathLower), filepath.Ext(target.PathLower)): {},
		target.TitleLower: {},
	}

	var hits []NoteSummary
	for p, n := range idx.notes {
		if p == rel {
			continue
		}
		matched := false
		for _, l := range n.LinksLower {
			ln := strings.TrimSpace(l)
			if idxHash := strings.IndexByte(ln, '#'); idxHash >= 0 {
				ln = ln[:idxHash]
			}
			if _, ok := needles[ln]; ok {
				matched = true
				break
			}
			if _, ok := needles[filepath.Base(ln)]; ok {
				matched = true
				break
			}
		}
		if matched {
			hits = append(hits, NoteSummary{Path: n.Path, Title: n.Title, Links: n.Links, Tags: n.Tags})
		}
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Path < hits[j].Path })
	if max > 0 && len(hits) > max {
		hits = hits[:max]
	}
	return hits
}
