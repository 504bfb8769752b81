package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xnote-dev/xnote/internal/knowledge"
	"github.com/xnote-dev/xnote/internal/knowledge/sqlite"
	"github.com/xnote-dev/xnote/internal/vault"
)

var indexNoCache bool

// buildIndex opens store's on-disk note-metadata cache and rebuilds idx
// from it, skipping re-tokenizing notes whose (mtime, size) haven't
// changed since the cache was last written. Pass noCache to force a full
// rescan (e.g. after a schema change or to rule out a stale cache).
func buildIndex(v *vault.Vault, noCache bool) (*knowledge.Index, error) {
	idx := knowledge.New()
	if noCache {
		return idx, idx.RebuildFromVault(v)
	}

	store, err := sqlite.Open(sqlite.CachePath(v.Root()))
	if err != nil {
		return nil, fmt.Errorf("open knowledge cache: %w", err)
	}
	defer store.Close()

	return idx, idx.RebuildFromVaultCached(v, store)
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the knowledge index and report how many notes were indexed",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := vault.Open(vaultFlag)
		if err != nil {
			return fmt.Errorf("open vault: %w", err)
		}

		idx, err := buildIndex(v, indexNoCache)
		if err != nil {
			return fmt.Errorf("build index: %w", err)
		}

		fmt.Printf("indexed %d notes under %s\n", idx.NoteCount(), v.Root())
		return nil
	},
}

func init() {
	indexCmd.Flags().BoolVar(&indexNoCache, "no-cache", false, "ignore the on-disk knowledge cache and rescan every note")
	searchCmd.Flags().BoolVar(&indexNoCache, "no-cache", false, "ignore the on-disk knowledge cache and rescan every note")
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the knowledge index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := vault.Open(vaultFlag)
		if err != nil {
			return fmt.Errorf("open vault: %w", err)
		}

		idx, err := buildIndex(v, indexNoCache)
		if err != nil {
			return fmt.Errorf("build index: %w", err)
		}

		result := idx.Search(v, args[0], knowledge.DefaultSearchOptions())
		fmt.Printf("%d hits in %dms\n", len(result.Hits), result.ElapsedMs)
		for _, hit := range result.Hits {
			fmt.Printf("  %-40s score=%d matches=%d\n", hit.Path, hit.Score, hit.MatchCount)
			for _, preview := range hit.LinePreviews {
				fmt.Printf("    %s\n", preview)
			}
		}
		return nil
	},
}
