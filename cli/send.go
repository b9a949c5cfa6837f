package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"chatline/model"
)

var errEmptyMessage = errors.New("message is empty")

func newSendCmd(opts *globalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "send MESSAGE...",
		Short: "Send one message and print the reply",
		Long: `Send one message on the instance's conversation and print the reply.
The exchange is recorded exactly as in the interactive chat. Pass "-" to
read the message from stdin.`,
		Example: `  $ chatline send "Hello there"
  $ echo "Summarise this" | chatline send -`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if text == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				text = string(data)
			}
			return runSend(cmd, opts, text, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the reply as JSON")
	return cmd
}

func runSend(cmd *cobra.Command, opts *globalOptions, text string, asJSON bool) error {
	s, err := opts.openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	return s.withInstanceLock(func() error {
		ex, ok := s.manager.Begin(text)
		if !ok {
			return errEmptyMessage
		}

		reply, sendErr := s.manager.Send(cmd.Context(), ex)
		msg, _ := s.manager.Settle(ex, reply, sendErr)

		if asJSON {
			if err := writeJSON(cmd.OutOrStdout(), model.ToStorage([]model.Message{msg})[0]); err != nil {
				return err
			}
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), msg.Text)
		}

		if msg.IsError {
			if sendErr == nil {
				sendErr = model.ErrNoReply
			}
			return fmt.Errorf("exchange failed: %w", sendErr)
		}
		return nil
	})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
