package cli

import (
	"fmt"

	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/cobra"

	"github.com/xnote-dev/xnote/internal/vault"
)

var revealCmd = &cobra.Command{
	Use:   "reveal",
	Short: "Open the vault root in the system file manager",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := vault.Open(vaultFlag)
		if err != nil {
			return fmt.Errorf("open vault: %w", err)
		}
		return open.Run(v.Root())
	},
}
