package cli

import (
	"fmt"

	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	"github.com/xnote-dev/xnote/internal/vault"
)

var quickOpenCmd = &cobra.Command{
	Use:   "quick-open [query]",
	Short: "Fuzzy-pick a note from the vault",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := vault.Open(vaultFlag)
		if err != nil {
			return fmt.Errorf("open vault: %w", err)
		}

		idx, err := buildIndex(v, false)
		if err != nil {
			return fmt.Errorf("build index: %w", err)
		}

		query := ""
		if len(args) == 1 {
			query = args[0]
		}

		paths := idx.QuickOpenPaths(query, 200)
		if len(paths) == 0 {
			return fmt.Errorf("no notes found in vault")
		}

		picked, err := fuzzyfinder.Find(paths, func(i int) string { return string(paths[i]) })
		if err != nil {
			return fmt.Errorf("quick open: %w", err)
		}

		fmt.Println(paths[picked])
		return nil
	},
}
