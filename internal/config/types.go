package config

// DefaultRepoName is the repository created for first-time users.
const DefaultRepoName = "markpigeon-shelf"

// DefaultTokenEnv is the environment variable consulted for the GitHub token
// when the settings file does not name one.
const DefaultTokenEnv = "GITHUB_TOKEN"

// DefaultWorkers bounds concurrent asset uploads. Kept small so a large
// bundle does not trip GitHub's secondary rate limits.
const DefaultWorkers = 3

// Settings represents the markpigeon.yaml settings file.
//
// The GitHub token itself is never stored here — only the name of the
// environment variable that holds it. Tokens must not end up in files that
// users casually commit or share.
type Settings struct {
	Version             int    `yaml:"version"`
	Repo                string `yaml:"repo,omitempty"`
	Visibility          string `yaml:"visibility,omitempty"` // "public" or "private"
	Workers             int    `yaml:"workers,omitempty"`
	PrivacyAcknowledged bool   `yaml:"privacy_acknowledged"`
	Starred             bool   `yaml:"starred,omitempty"`
	TokenEnv            string `yaml:"token_env,omitempty"`
}

// Default returns settings with every optional field at its default.
func Default() Settings {
	return Settings{
		Version:    1,
		Repo:       DefaultRepoName,
		Visibility: "public",
		Workers:    DefaultWorkers,
		TokenEnv:   DefaultTokenEnv,
	}
}

// Private reports whether new repositories should be created private.
func (s Settings) Private() bool {
	return s.Visibility == "private"
}
