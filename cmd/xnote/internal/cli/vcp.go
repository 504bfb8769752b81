package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xnote-dev/xnote/internal/vcpclient"
)

var (
	vcpChatEndpoint  string
	vcpAdminEndpoint string
)

var vcpCmd = &cobra.Command{
	Use:   "vcp-probe",
	Short: "Probe a VCPToolBox-compatible AI runtime's chat and admin endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		report := vcpclient.ProbeRuntime(vcpclient.RuntimeConfig{
			ChatEndpoint:  vcpChatEndpoint,
			AdminEndpoint: vcpAdminEndpoint,
			TimeoutMs:     2000,
		})

		fmt.Printf("chat:  %-20s %s\n", report.Chat.Category, report.Chat.Detail)
		fmt.Printf("admin: %-20s %s\n", report.Admin.Category, report.Admin.Detail)
		if len(report.Models) > 0 {
			fmt.Println("models:")
			for _, m := range report.Models {
				fmt.Printf("  - %s\n", m)
			}
		}
		return nil
	},
}

func init() {
	vcpCmd.Flags().StringVar(&vcpChatEndpoint, "chat-endpoint", vcpclient.DefaultChatEndpoint, "VCP chat completions endpoint")
	vcpCmd.Flags().StringVar(&vcpAdminEndpoint, "admin-endpoint", vcpclient.DefaultAdminEndpoint, "VCP admin endpoint")
}
