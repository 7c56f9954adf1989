package commands

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mmichie/greenie/pkg/vision"
	"github.com/mmichie/greenie/ui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat in the terminal",
	Long:  `Start an interactive chat with the ecology assistant. Logs go to the log directory only.`,
	RunE:  runChatCommand,
}

// InitChatCommand registers the chat command
func InitChatCommand(rootCmd *cobra.Command) {
	rootCmd.AddCommand(chatCmd)
}

func runChatCommand(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		width, height = 80, 24
	}

	return ui.StartChat(cmd.Context(), a.pipeline, vision.Load, width, height)
}
