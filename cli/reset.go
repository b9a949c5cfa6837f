package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResetCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "End the conversation and clear local state",
		Long: `Ask the service to forget the current session, then clear the instance's
messages and session id. Local state is cleared even when the service
cannot be reached.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			return s.withInstanceLock(func() error {
				s.manager.Reset(cmd.Context())
				fmt.Fprintf(cmd.OutOrStdout(), "Conversation reset for instance %q\n", s.cfg.Instance)
				return nil
			})
		},
	}
}
