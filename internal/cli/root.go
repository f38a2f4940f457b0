// Package cli holds the ecoscan command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yungbote/ecoscan-backend/internal/app"
)

// Version is stamped at build time with -ldflags "-X .../internal/cli.Version=...".
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "ecoscan",
	Short: "EcoScan - environmental image scanning backend",
	Long: `EcoScan classifies uploaded photos with an external image classifier, keeps the
environmentally relevant concepts, and pairs each with a fact and a practical tip.

Configuration comes from environment variables (PORT, ECOSCAN_PROVIDER,
CLARIFAI_API_KEY, ...) and optionally a YAML file passed with --config.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ecoscan %s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (keys are lower-cased env names)")
	rootCmd.AddCommand(versionCmd, serveCmd, topicsCmd, classifyCmd, cacheCmd)
}

func loadViper() (*viper.Viper, error) {
	return app.NewViper(cfgFile)
}
