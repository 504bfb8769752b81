// Package cli wires xnote's internal subsystems into a cobra command
// tree, in the style of the teacher's own cmd/root.go.
package cli

import (
	"github.com/spf13/cobra"
)

var vaultFlag string

var rootCmd = &cobra.Command{
	Use:   "xnote",
	Short: "xnote manages a markdown knowledge vault",
	Long:  "xnote indexes, watches, and serves a markdown vault, and hosts out-of-process plugins and AI tool calls against it.",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&vaultFlag, "vault", "v", ".", "path to the vault root")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(quickOpenCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(pluginCmd)
	rootCmd.AddCommand(vcpCmd)
	rootCmd.AddCommand(revealCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(mcpCmd)
}

// Execute runs the xnote CLI.
func Execute() error {
	return rootCmd.Execute()
}
