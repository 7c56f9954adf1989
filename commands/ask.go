package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmichie/greenie/pkg/agent"
)

var (
	askImage string
	askTrace bool

	askCmd = &cobra.Command{
		Use:   "ask [message]",
		Short: "Ask the ecology assistant a question",
		Long: `Ask the ecology assistant a question. The message can be given as
arguments or piped on stdin. Attach a photo with --image.`,
		RunE: runAskCommand,
	}
)

// InitAskCommand registers the ask command
func InitAskCommand(rootCmd *cobra.Command) {
	askCmd.Flags().StringVarP(&askImage, "image", "i", "", "path to a photo to include")
	askCmd.Flags().BoolVar(&askTrace, "trace", false, "print the plan and draft before the answer")
	rootCmd.AddCommand(askCmd)
}

func runAskCommand(cmd *cobra.Command, args []string) error {
	message, err := readInput(args, os.Stdin)
	if err != nil {
		return err
	}
	if err := checkEmptyInput(message); err != nil {
		return err
	}

	img, err := loadImage(askImage)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), appOptions{console: true})
	if err != nil {
		return err
	}
	defer a.Close()

	if !askTrace {
		fmt.Fprintln(cmd.OutOrStdout(), a.pipeline.Run(cmd.Context(), message, img))
		return nil
	}

	printTrace(cmd.OutOrStdout(), a.pipeline.Process(cmd.Context(), message, img))
	return nil
}

func printTrace(w io.Writer, t agent.Trace) {
	section := func(title, body string, err error) {
		fmt.Fprintf(w, "== %s ==\n", title)
		if err != nil {
			fmt.Fprintf(w, "(degraded: %v)\n", err)
		}
		fmt.Fprintf(w, "%s\n\n", body)
	}

	section("Plan", t.Plan.Plan.Instructions, t.Plan.Err)
	section("Draft", t.Draft.Response, t.Draft.Err)
	section("Answer", t.Final.Response, t.Final.Err)
}
