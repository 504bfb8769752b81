package cli

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/xnote-dev/xnote/internal/toolhost"
	"github.com/xnote-dev/xnote/internal/vault"
)

var (
	mcpAllowWrite       bool
	mcpAllowDestructive bool
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP server exposing the xnote AI tool registry over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := vault.Open(vaultFlag)
		if err != nil {
			return fmt.Errorf("open vault: %w", err)
		}

		idx, err := buildIndex(v, false)
		if err != nil {
			return fmt.Errorf("build index: %w", err)
		}

		registry := toolhost.WithXNoteDefaults()
		policy := toolhost.Policy{AllowWrite: mcpAllowWrite, AllowDestructive: mcpAllowDestructive}

		s := toolhost.NewMCPServer(registry, policy, v, idx)
		return server.ServeStdio(s)
	},
}

func init() {
	mcpCmd.Flags().BoolVar(&mcpAllowWrite, "allow-write", false, "permit write-safe tools (xnote.vault.write_note)")
	mcpCmd.Flags().BoolVar(&mcpAllowDestructive, "allow-destructive", false, "permit destructive tools")
}
