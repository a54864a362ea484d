package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"shed/config"
)

var (
	configPath string
	dataDir    string
	settings   *viper.Viper
)

var rootCmd = &cobra.Command{
	Use:   "shed",
	Short: "Shed - lorebook entries that change with the story",
	Long: `Shed keeps lorebook entries in step with a story. Each entry keeps its
original text (the slough) and the latest generated version (the skin);
shedding rewrites the entry according to its pattern and the recent story.

Examples:
  shed serve                  # HTTP API and toast stream
  shed seed world.yaml        # load entries and story paragraphs
  shed molt marcus            # shed one entry now
  shed unshed marcus          # restore the original text
  shed tui                    # terminal panel`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		v, err := config.New(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("data-dir") {
			v.Set("data.dir", dataDir)
		}
		settings = v
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./shed.toml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory for stored state (overrides data.dir)")

	rootCmd.AddCommand(serveCmd, moltCmd, unshedCmd, tuiCmd, seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintln(os.Stderr, "Hint:", hint)
		}
		os.Exit(1)
	}
}
