package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/xnote-dev/xnote/internal/toolhost"
	"github.com/xnote-dev/xnote/internal/vault"
)

var toolsCopyAudit bool

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Print the AI tool descriptor bundle, or copy the audit log to the clipboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		if toolsCopyAudit {
			v, err := vault.Open(vaultFlag)
			if err != nil {
				return fmt.Errorf("open vault: %w", err)
			}
			data, err := os.ReadFile(toolhost.AuditLogPath(v))
			if err != nil {
				return fmt.Errorf("read audit log: %w", err)
			}
			if err := clipboard.WriteAll(string(data)); err != nil {
				return fmt.Errorf("copy audit log: %w", err)
			}
			fmt.Println("audit log copied to clipboard")
			return nil
		}

		registry := toolhost.WithXNoteDefaults()
		bundle := toolhost.GenerateDescriptorBundle(registry, 0)
		encoded, err := json.MarshalIndent(bundle, "", "  ")
		if err != nil {
			return fmt.Errorf("encode descriptor bundle: %w", err)
		}
		fmt.Println(string(encoded))
		return nil
	},
}

func init() {
	toolsCmd.Flags().BoolVar(&toolsCopyAudit, "copy-audit", false, "copy the AI tool audit log to the clipboard instead of printing the descriptor bundle")
}
