package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmichie/greenie/pkg/vision"
)

var (
	identifyCmd = &cobra.Command{
		Use:   "identify <image>",
		Short: "Identify the plant in a photo",
		Args:  cobra.ExactArgs(1),
		RunE:  runIdentifyCommand,
	}

	diagnoseCmd = &cobra.Command{
		Use:   "diagnose <image>",
		Short: "Diagnose plant health issues in a photo",
		Args:  cobra.ExactArgs(1),
		RunE:  runDiagnoseCommand,
	}

	analyzeCmd = &cobra.Command{
		Use:   "analyze <image> [question]",
		Short: "Analyze a photo, optionally answering a question about it",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAnalyzeCommand,
	}
)

// InitImageCommands registers identify, diagnose and analyze
func InitImageCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(identifyCmd, diagnoseCmd, analyzeCmd)
}

func runIdentifyCommand(cmd *cobra.Command, args []string) error {
	return runImageCommand(cmd, args[0], func(a *app, img *vision.Image) vision.Analysis {
		return a.analyzer.IdentifyPlant(cmd.Context(), img)
	})
}

func runDiagnoseCommand(cmd *cobra.Command, args []string) error {
	return runImageCommand(cmd, args[0], func(a *app, img *vision.Image) vision.Analysis {
		return a.analyzer.DiagnosePlantIssue(cmd.Context(), img)
	})
}

func runAnalyzeCommand(cmd *cobra.Command, args []string) error {
	question, err := readInput(args[1:], nil)
	if err != nil {
		return err
	}
	return runImageCommand(cmd, args[0], func(a *app, img *vision.Image) vision.Analysis {
		return a.analyzer.Analyze(cmd.Context(), img, question)
	})
}

func runImageCommand(cmd *cobra.Command, path string, analyze func(*app, *vision.Image) vision.Analysis) error {
	img, err := loadImage(path)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), appOptions{console: true})
	if err != nil {
		return err
	}
	defer a.Close()

	result := analyze(a, img)
	if !result.Success {
		return errors.New(result.Error)
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.Analysis)
	return nil
}
