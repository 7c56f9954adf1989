package commands

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmichie/greenie/pkg/store"
)

var (
	sessionsUser string

	sessionsCmd = &cobra.Command{
		Use:   "sessions [session-id]",
		Short: "List saved chat sessions or show one session's messages",
		Long: `Without arguments, list saved chat sessions newest first. With a
session ID, print that session's messages oldest first. Requires
database.path to be configured.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSessionsCommand,
	}
)

// InitSessionsCommand registers the sessions command
func InitSessionsCommand(rootCmd *cobra.Command) {
	sessionsCmd.Flags().StringVarP(&sessionsUser, "user", "u", "", "only list this user's sessions")
	rootCmd.AddCommand(sessionsCmd)
}

func runSessionsCommand(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	if len(args) == 1 {
		messages, err := a.history.GetChatMessages(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printMessages(cmd.OutOrStdout(), messages)
		return nil
	}

	sessions, err := a.history.GetChatSessions(cmd.Context(), sessionsUser)
	if err != nil {
		return err
	}
	return printSessions(cmd.OutOrStdout(), sessions)
}

func printSessions(w io.Writer, sessions []store.Session) error {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSER\tCREATED\tTITLE")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, s.UserID, s.CreatedAt.Local().Format(time.DateTime), s.Title)
	}
	return tw.Flush()
}

func printMessages(w io.Writer, messages []store.Message) {
	if len(messages) == 0 {
		fmt.Fprintln(w, "No messages found.")
		return
	}

	for _, m := range messages {
		fmt.Fprintf(w, "[%s] %s:\n%s\n", m.Timestamp.Local().Format(time.DateTime), m.Role, m.Content)
		if m.ImagePath != "" {
			fmt.Fprintf(w, "(image: %s)\n", m.ImagePath)
		}
		fmt.Fprintln(w)
	}
}
