package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/markpigeon/publish/pkg/pigeonpub"
)

var (
	publishPrivate bool
	publishWorkers int
	publishWait    time.Duration
	publishAckFlag bool
)

var publishCmd = &cobra.Command{
	Use:   "publish <document.html> [assets-dir]",
	Short: "Publish a document bundle and print its public URL",
	Long: `Synchronizes the bundle to the configured GitHub repository, creating the
repository and enabling Pages on first use. Assets upload before the
document; unchanged files are skipped. Prints the public URL on success.

Publishing makes the document reachable by anyone with the link. The first
run requires either 'privacy_acknowledged: true' in the settings file or
the --acknowledge-public flag.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}
		if publishAckFlag {
			s.PrivacyAcknowledged = true
		}
		if cmd.Flags().Changed("private") {
			if publishPrivate {
				s.Visibility = "private"
			} else {
				s.Visibility = "public"
			}
		}
		if cmd.Flags().Changed("workers") {
			s.Workers = publishWorkers
		}

		token, err := loadToken(s)
		if err != nil {
			return err
		}

		b, err := loadBundleArgs(args)
		if err != nil {
			return err
		}
		detail("bundle: %s + %d asset(s)", b.Document.Path, len(b.Assets))

		pub := newPublisher(s, token)
		pub.Events = func(ev pigeonpub.Event) {
			switch ev.Kind {
			case pigeonpub.FileStarted:
				detail("uploading  %s", ev.Path)
			case pigeonpub.FileCompleted:
				info("  %-9s %s", ev.Outcome.Status, ev.Path)
			case pigeonpub.FileFailed:
				errorf("%s: %s", ev.Path, ev.Outcome.Err)
			}
		}

		result, err := pub.Publish(cmd.Context(), b)
		if err != nil {
			return err
		}

		for _, w := range result.Warnings {
			info("note: %s", w)
		}
		info("")
		info("Published: %s", result.URL)
		if result.Pages != pigeonpub.PagesActive && publishWait > 0 {
			info("Waiting for pages activation (up to %s)...", publishWait)
			waitCtx, cancel := context.WithTimeout(cmd.Context(), publishWait)
			defer cancel()
			state, waitErr := pub.WaitPages(waitCtx, 5*time.Second)
			if waitErr != nil {
				info("Pages still %s — the link goes live once propagation finishes.", state)
			} else {
				info("Pages active.")
			}
		}

		if result.Failed() {
			return fmt.Errorf("publish partially failed: %d file(s) did not upload", countFailed(result))
		}
		return nil
	},
}

func countFailed(r *pigeonpub.Result) int {
	n := 0
	for _, o := range r.Files {
		if o.Status == pigeonpub.StatusFailed {
			n++
		}
	}
	return n
}

// guessAssetsDir returns the converter's sibling assets directory for a
// document ("assets_<name>"), or "" if it does not exist.
func guessAssetsDir(docPath string) string {
	base := strings.TrimSuffix(filepath.Base(docPath), filepath.Ext(docPath))
	dir := filepath.Join(filepath.Dir(docPath), "assets_"+base)
	if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
		return dir
	}
	return ""
}

func init() {
	publishCmd.Flags().BoolVar(&publishPrivate, "private", false, "create the repository private (existing repos are never changed)")
	publishCmd.Flags().IntVar(&publishWorkers, "workers", 0, "concurrent asset uploads (default from settings)")
	publishCmd.Flags().DurationVar(&publishWait, "wait", 0, "block until pages activation finishes, up to this long")
	publishCmd.Flags().BoolVar(&publishAckFlag, "acknowledge-public", false, "acknowledge that the published document is publicly reachable")

	rootCmd.AddCommand(publishCmd)
}
