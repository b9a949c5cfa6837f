package cli

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"chatline/config"
	"chatline/storage"
	"chatline/ui"
)

func newChatCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Open the interactive chat (default)",
		Long: `Open the full screen chat for the selected instance.

Keys:
  Enter       send the message
  Alt+Enter   insert a newline
  Ctrl+R      reset the conversation
  Alt+H       show all shortcuts
  Alt+Q       quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, opts)
		},
	}
}

func runChat(cmd *cobra.Command, opts *globalOptions) error {
	s, err := opts.openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	lock, err := storage.NewInstanceLock(s.cfg.DataDir(), s.cfg.Instance)
	if err != nil {
		return err
	}

	err = lock.Acquire()
	var locked *storage.LockedError
	if errors.As(err, &locked) {
		force, modalErr := runProgram(cmd, ui.NewInstanceLockedModal(locked.Namespace, locked.PID))
		if modalErr != nil {
			return modalErr
		}
		if !force.(ui.InstanceLockedModal).ForceDelete() {
			return locked
		}

		config.DebugLog.Warn().Str("instance", locked.Namespace).Int("pid", locked.PID).Msg("force deleting instance lock")
		if err := lock.ForceRelease(); err != nil {
			return fmt.Errorf("failed to delete lock file: %w", err)
		}
		err = lock.Acquire()
	}
	if err != nil {
		return err
	}
	defer s.releaseLock(lock)

	if err := s.loadManager(); err != nil {
		return err
	}

	_, err = runProgram(cmd, ui.NewAppView(s.cfg, s.manager, opts.version, opts.license))
	return err
}

func runProgram(cmd *cobra.Command, m tea.Model) (tea.Model, error) {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)

	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("chat exited: %w", err)
	}
	return final, nil
}
