package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build-time variables set via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags.
var (
	settingsPath string
	envFile      string
	verbose      bool
	quiet        bool
)

var rootCmd = &cobra.Command{
	Use:   "markpigeon-publish",
	Short: "Publish MarkPigeon document bundles to GitHub Pages",
	Long: `markpigeon-publish takes a converted document bundle (one HTML file plus
its assets directory) and synchronizes it to a GitHub repository served via
Pages. Only changed files are uploaded; assets always land before the
document so visitors never see a page with missing images.

The GitHub token is read from the environment (GITHUB_TOKEN by default,
optionally loaded from a .env file). It is never written to disk or logged.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("markpigeon-publish %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsPath, "config", "markpigeon.yaml", "path to settings file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "path to .env file with the GitHub token")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "detailed output")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "minimal output (errors only)")

	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		return err
	}
	return nil
}
