package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xnote-dev/xnote/internal/plugin"
)

var (
	pluginCommand string
	pluginArgs    []string
	pluginEvent   string
	pluginTimeout int64
)

var pluginCmd = &cobra.Command{
	Use:   "plugin",
	Short: "Manage and trigger out-of-process plugins",
}

var pluginRunCmd = &cobra.Command{
	Use:   "run <plugin-id> <plugin-version>",
	Short: "Register a single plugin from flags and trigger one event against it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if pluginCommand == "" {
			return fmt.Errorf("--command is required")
		}

		registry := plugin.NewRegistry()
		manifest := plugin.PluginManifest{
			ID:               args[0],
			DisplayName:      args[0],
			Version:          args[1],
			ActivationEvents: []plugin.ActivationEvent{plugin.ActivationEvent(pluginEvent)},
			RuntimeConfig: plugin.RuntimeConfig{
				Command: pluginCommand,
				Args:    pluginArgs,
			},
		}
		if err := registry.RegisterManifest(manifest); err != nil {
			return fmt.Errorf("register manifest: %w", err)
		}

		results := registry.TriggerEvent(context.Background(), plugin.ActivationEvent(pluginEvent), pluginTimeout, nil)
		outcome, ok := results[args[0]]
		if !ok {
			return fmt.Errorf("plugin %s was not triggered (not subscribed to %q)", args[0], pluginEvent)
		}

		fmt.Printf("status=%v activated=%v elapsed_ms=%d", outcome.Status, outcome.Activated, outcome.ElapsedMs)
		if outcome.Failure != "" {
			fmt.Printf(" failure=%s detail=%s", outcome.Failure, outcome.Detail)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	defaultPolicy := plugin.DefaultPolicy()
	pluginRunCmd.Flags().StringVar(&pluginCommand, "command", "", "executable to spawn as the plugin process")
	pluginRunCmd.Flags().StringArrayVar(&pluginArgs, "arg", nil, "argument to pass to the plugin process (repeatable)")
	pluginRunCmd.Flags().StringVar(&pluginEvent, "event", "on_startup", "activation event to trigger")
	pluginRunCmd.Flags().Int64Var(&pluginTimeout, "timeout-ms", defaultPolicy.ActivationTimeoutMs, "activation timeout in milliseconds")
	pluginCmd.AddCommand(pluginRunCmd)
}
