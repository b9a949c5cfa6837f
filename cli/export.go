package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"chatline/config"
	"chatline/model"
	"chatline/storage"
)

func newExportCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export [PATH]",
		Short: "Write the conversation to a JSON file",
		Long: `Write the instance's conversation to a JSON file. Without PATH the file
goes to ~/Downloads/chatline-<instance>-<timestamp>.json.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.openRestoredSession()
			if err != nil {
				return err
			}
			defer s.Close()

			path := storage.GenerateExportPath(s.cfg.Instance)
			if len(args) == 1 {
				path = config.ExpandPath(args[0])
			}

			snap := s.manager.Snapshot()
			export := &storage.Export{
				Instance:  snap.Namespace,
				SessionID: snap.SessionID,
				Messages:  model.ToStorage(snap.Messages),
			}
			if err := storage.ExportToJSON(path, export); err != nil {
				return fmt.Errorf("export failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d messages to %s\n", len(export.Messages), path)
			return nil
		},
	}
}
