package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"chatline/config"
	"chatline/storage"
)

const pingTimeout = 5 * time.Second

func newStatusCmd(opts *globalOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the instance's state and check the service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.openRestoredSession()
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			snap := s.manager.Snapshot()

			sessionID := snap.SessionID
			if sessionID == "" {
				sessionID = "(none)"
			}

			fmt.Fprintf(out, "Instance:  %s\n", snap.Namespace)
			fmt.Fprintf(out, "State:     %s\n", snap.State)
			fmt.Fprintf(out, "Session:   %s\n", sessionID)
			fmt.Fprintf(out, "Messages:  %d\n", len(snap.Messages))
			fmt.Fprintf(out, "Storage:   %s (%s)\n", s.cfg.StorageBackend, s.cfg.DataDir())
			fmt.Fprintf(out, "Server:    %s\n", s.client.BaseURL())

			if lock, err := storage.NewInstanceLock(s.cfg.DataDir(), snap.Namespace); err == nil {
				if locked, pid, err := lock.Check(); err == nil && locked {
					fmt.Fprintf(out, "Open in:   PID %d\n", pid)
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), pingTimeout)
			defer cancel()
			if health, err := s.client.Ping(ctx); err != nil {
				config.DebugLog.Debug().Err(err).Msg("health check failed")
				fmt.Fprintf(out, "Health:    unreachable (%v)\n", err)
			} else {
				fmt.Fprintf(out, "Health:    %s\n", health.Status)
			}

			if !all {
				return nil
			}

			namespaces, err := s.store.Namespaces()
			if err != nil {
				return fmt.Errorf("failed to list instances: %w", err)
			}
			fmt.Fprintln(out, "\nInstances:")
			for _, ns := range namespaces {
				marker := " "
				if ns == snap.Namespace {
					marker = "*"
				}
				fmt.Fprintf(out, " %s %s\n", marker, ns)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "also list every instance with stored state")
	return cmd
}
