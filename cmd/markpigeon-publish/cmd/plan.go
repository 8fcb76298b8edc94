package cmd

import (
	"github.com/spf13/cobra"

	"github.com/markpigeon/publish/pkg/pigeonpub"
)

var planCmd = &cobra.Command{
	Use:   "plan <document.html> [assets-dir]",
	Short: "Show what publish would upload, without writing anything",
	Long: `Diffs the local bundle against the remote repository and prints the
per-file actions. Unchanged files are detected by fingerprint alone — no
remote content is downloaded. If the repository does not exist yet, every
file plans as a create.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}
		token, err := loadToken(s)
		if err != nil {
			return err
		}

		b, err := loadBundleArgs(args)
		if err != nil {
			return err
		}

		pub := newPublisher(s, token)
		plan, err := pub.Plan(cmd.Context(), b)
		if err != nil {
			return err
		}

		for _, a := range plan.Actions() {
			info("  %-7s %s", a.Kind, a.Path)
		}
		info("")
		info("%d file(s), %d upload(s) needed.", len(plan.Assets)+1, plan.Uploads())
		return nil
	},
}

// loadBundleArgs builds a bundle from positional arguments, defaulting the
// assets directory to the MarkPigeon converter convention assets_<doc>.
func loadBundleArgs(args []string) (*pigeonpub.Bundle, error) {
	assetsDir := ""
	if len(args) > 1 {
		assetsDir = args[1]
	} else if guess := guessAssetsDir(args[0]); guess != "" {
		assetsDir = guess
	}
	return pigeonpub.LoadBundle(args[0], assetsDir)
}

func init() {
	rootCmd.AddCommand(planCmd)
}
