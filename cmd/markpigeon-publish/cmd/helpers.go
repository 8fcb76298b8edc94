package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	gh "github.com/markpigeon/publish/internal/github"
	"github.com/markpigeon/publish/pkg/pigeonpub"
)

// loadSettings reads and validates the settings file. A missing file yields
// defaults, so first-run needs nothing but a token in the environment.
func loadSettings() (*pigeonpub.Settings, error) {
	s, err := pigeonpub.LoadSettings(settingsPath)
	if err != nil {
		return nil, fmt.Errorf("loading settings %s: %w", settingsPath, err)
	}
	return s, nil
}

// saveSettings writes the settings file back.
func saveSettings(s *pigeonpub.Settings) error {
	return pigeonpub.SaveSettings(settingsPath, s)
}

// loadToken resolves the GitHub token: .env file first (if present), then
// the environment variable the settings name. The token value itself is
// never printed anywhere.
func loadToken(s *pigeonpub.Settings) (string, error) {
	_ = godotenv.Load(envFile)
	token := os.Getenv(s.TokenEnv)
	if token == "" {
		return "", fmt.Errorf("no GitHub token — set %s or add it to %s", s.TokenEnv, envFile)
	}
	return token, nil
}

// newPublisher wires a Publisher against the real GitHub API.
func newPublisher(s *pigeonpub.Settings, token string) *pigeonpub.Publisher {
	return &pigeonpub.Publisher{
		Store:    gh.New(token),
		Settings: *s,
		Logger:   newLogger(),
	}
}

// newLogger builds a slog logger matching the verbosity flags.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// info prints a line unless quiet mode is active.
func info(format string, args ...any) {
	if !quiet {
		fmt.Printf(format+"\n", args...)
	}
}

// detail prints a line only in verbose mode.
func detail(format string, args ...any) {
	if verbose {
		fmt.Printf("  "+format+"\n", args...)
	}
}

// errorf prints an error message to stderr.
func errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
