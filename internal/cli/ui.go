package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/klubi/adminctl/internal/tui"
)

func newUICmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ui",
		Aliases: []string{"top", "dashboard"},
		Short:   "Launch the interactive terminal UI",
		Long: `Launch a terminal UI for browsing and editing the entities of the admin API.
Logs go to the configured log file while the UI owns the screen.`,
		Example: `  adminctl ui
  adminctl ui --server http://localhost:8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ui := tui.NewApp(a.cache, a.registry, a.logger, a.cfg.Server.URL)
			if err := ui.Run(); err != nil {
				return fmt.Errorf("UI error: %w", err)
			}
			return nil
		},
	}

	return cmd
}
