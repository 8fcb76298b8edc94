package cmd

import (
	"github.com/spf13/cobra"

	gh "github.com/markpigeon/publish/internal/github"
)

var starCmd = &cobra.Command{
	Use:   "star",
	Short: "Star the MarkPigeon repository on GitHub",
	Long: `Stars the upstream MarkPigeon project repository for the authenticated
account, and remembers it in the settings file so the app stops asking.
Entirely optional.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}
		token, err := loadToken(s)
		if err != nil {
			return err
		}

		client := gh.New(token)
		if _, err := client.Login(cmd.Context()); err != nil {
			return err
		}
		if err := client.Star(cmd.Context()); err != nil {
			return err
		}

		s.Starred = true
		if err := saveSettings(s); err != nil {
			// The star went through; a settings write failure is only a nag.
			errorf("saving settings: %s", err)
		}

		info("Thanks for the star! ⭐")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(starCmd)
}
