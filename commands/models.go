package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mmichie/greenie/pkg/aikit/provider"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List supported Gemini models",
	RunE:  runModelsCommand,
}

// InitModelsCommand registers the models command
func InitModelsCommand(rootCmd *cobra.Command) {
	rootCmd.AddCommand(modelsCmd)
}

func runModelsCommand(cmd *cobra.Command, args []string) error {
	names := make([]string, 0, len(provider.SupportedGeminiModels))
	for name, caps := range provider.SupportedGeminiModels {
		if caps.Supported {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	active := provider.DefaultGeminiModel
	if appConfig != nil && appConfig.Gemini.Model != "" {
		active = appConfig.Gemini.Model
	}

	out := cmd.OutOrStdout()
	for _, name := range names {
		marker := " "
		if name == active {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %s\n", marker, name)
	}
	return nil
}
