package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"chatline/model"
	"chatline/storage"
	"chatline/ui"
)

func newHistoryCmd(opts *globalOptions) *cobra.Command {
	var (
		search string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the instance's conversation",
		Example: `  $ chatline history
  $ chatline history --search "invoice"
  $ chatline history --json | jq '.[].text'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.openRestoredSession()
			if err != nil {
				return err
			}
			defer s.Close()

			messages := model.ToStorage(s.manager.Messages())
			out := cmd.OutOrStdout()

			if search != "" {
				matches := storage.SearchMessages(messages, search)
				if asJSON {
					return writeJSON(out, matches)
				}
				printMatches(out, matches)
				return nil
			}

			if asJSON {
				return writeJSON(out, messages)
			}
			printHistory(out, messages)
			return nil
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "fuzzy search message text")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func senderLabel(sender string) string {
	if sender == storage.SenderUser {
		return ui.UserStyle.Render("You")
	}
	return ui.AssistantStyle.Render("Assistant")
}

func printHistory(w io.Writer, messages []storage.Message) {
	if len(messages) == 0 {
		fmt.Fprintln(w, "No messages yet.")
		return
	}

	for _, msg := range messages {
		fmt.Fprintf(w, "%s %s\n%s\n\n", ui.DimStyle.Render("["+msg.Timestamp+"]"), senderLabel(msg.Sender), msg.Text)
	}
}

func printMatches(w io.Writer, matches []storage.MessageMatch) {
	if len(matches) == 0 {
		fmt.Fprintln(w, "No matches.")
		return
	}

	for _, m := range matches {
		fmt.Fprintf(w, "#%d %s %s: %s\n", m.MessageIndex+1, ui.DimStyle.Render("["+m.Timestamp+"]"), senderLabel(m.Sender), m.Preview)
	}
}
