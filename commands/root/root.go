package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmichie/greenie/commands"
	"github.com/mmichie/greenie/internal/config"
)

var (
	cfgFile string
	verbose bool
	v       = config.New()
)

// RootCmd is the root command for greenie
var RootCmd = &cobra.Command{
	Use:   "greenie",
	Short: "greenie is an AI ecology assistant",
	Long: `greenie answers questions about plants, wildlife, habitats and soil. Each
question is planned, answered with optional web search and photo analysis,
then reviewed before it is returned.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			v.Set("log.level", "debug")
		}

		cfg, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		commands.SetConfig(cfg)

		if verbose && v.ConfigFileUsed() != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), "Using config file:", v.ConfigFileUsed())
		}
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.greenie.yaml)")
	RootCmd.PersistentFlags().String("model", "", "Gemini model to use (gemini-1.5-flash or gemini-1.5-pro)")
	RootCmd.PersistentFlags().String("db", "", "SQLite database for chat history (empty disables history)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	_ = v.BindPFlag("gemini.model", RootCmd.PersistentFlags().Lookup("model"))
	_ = v.BindPFlag("database.path", RootCmd.PersistentFlags().Lookup("db"))

	commands.InitAskCommand(RootCmd)
	commands.InitImageCommands(RootCmd)
	commands.InitServeCommand(RootCmd)
	commands.InitSessionsCommand(RootCmd)
	commands.InitChatCommand(RootCmd)
	commands.InitModelsCommand(RootCmd)

	RootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of greenie",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "greenie v%s\n", commands.Version)
	},
}
