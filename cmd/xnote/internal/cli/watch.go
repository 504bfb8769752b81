package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xnote-dev/xnote/internal/watcher"
	"github.com/xnote-dev/xnote/internal/xlog"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the vault and print change batches as they're detected",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := xlog.Default("watcher")

		w, err := watcher.New(vaultFlag)
		if err != nil {
			return fmt.Errorf("start watcher: %w", err)
		}
		defer w.Close()

		log.Info("watching vault", "root", vaultFlag)
		for {
			changes, ok := w.RecvBatch(150*time.Millisecond, 256)
			if !ok {
				return nil
			}
			for _, c := range changes {
				log.Info("change", "kind", c.Kind, "path", c.Path, "from", c.From, "to", c.To)
			}
		}
	},
}
