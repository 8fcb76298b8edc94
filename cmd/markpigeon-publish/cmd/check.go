package cmd

import (
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the GitHub token works",
	Long: `Makes one authenticated call to confirm the token is valid and carries
write access, then reports the account it belongs to. Nothing is created
or modified.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}
		token, err := loadToken(s)
		if err != nil {
			return err
		}

		pub := newPublisher(s, token)
		id, err := pub.CheckConnection(cmd.Context())
		if err != nil {
			return err
		}

		info("Connected as %s.", id.Login)
		detail("repo: %s, visibility: %s", s.Repo, s.Visibility)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
