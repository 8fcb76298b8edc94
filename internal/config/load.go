package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// repoNamePattern matches repository names GitHub accepts.
var repoNamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Load reads and validates a markpigeon.yaml settings file.
// A missing file is not an error: defaults are returned so first-run
// works without any setup step.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		s := Default()
		return &s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading settings %s: %w", path, err)
	}

	s := Default()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing settings %s: %w", path, err)
	}
	applyDefaults(&s)

	if errs := Validate(&s); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	return &s, nil
}

// Save writes the settings file atomically (write to temp, then rename).
func Save(path string, s *Settings) error {
	if errs := Validate(s); len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating settings directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".markpigeon-*.yaml")
	if err != nil {
		return fmt.Errorf("creating temp settings file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing settings: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("saving settings %s: %w", path, err)
	}
	return nil
}

func applyDefaults(s *Settings) {
	if s.Repo == "" {
		s.Repo = DefaultRepoName
	}
	if s.Visibility == "" {
		s.Visibility = "public"
	}
	if s.Workers == 0 {
		s.Workers = DefaultWorkers
	}
	if s.TokenEnv == "" {
		s.TokenEnv = DefaultTokenEnv
	}
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("settings validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate checks settings for semantic correctness.
// Returns a list of validation error messages (empty if valid).
func Validate(s *Settings) []string {
	var errs []string

	if s.Version != 1 {
		errs = append(errs, fmt.Sprintf("unsupported version %d — only version 1 is supported", s.Version))
	}

	if s.Repo == "" {
		errs = append(errs, "'repo' is required")
	} else if !repoNamePattern.MatchString(s.Repo) {
		errs = append(errs, fmt.Sprintf("invalid repo name '%s' — use letters, digits, '.', '_' or '-'", s.Repo))
	}

	switch s.Visibility {
	case "public", "private":
	default:
		errs = append(errs, fmt.Sprintf("invalid visibility '%s' — must be 'public' or 'private'", s.Visibility))
	}

	if s.Workers < 1 {
		errs = append(errs, fmt.Sprintf("workers must be at least 1, got %d", s.Workers))
	} else if s.Workers > 16 {
		errs = append(errs, fmt.Sprintf("workers must be at most 16, got %d — more would trip GitHub's burst limits", s.Workers))
	}

	if s.TokenEnv == "" {
		errs = append(errs, "'token_env' is required")
	}

	return errs
}
