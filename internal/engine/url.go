package engine

import (
	"fmt"
	"strings"
)

// BuildURL constructs the public pages URL for a published document.
// Pure string construction; the only failure mode is malformed input.
func BuildURL(owner, repo, docPath string) (string, error) {
	if owner == "" {
		return "", fmt.Errorf("empty owner")
	}
	if repo == "" {
		return "", fmt.Errorf("empty repository name")
	}
	docPath = strings.TrimPrefix(docPath, "/")
	if docPath == "" {
		return "", fmt.Errorf("empty document path")
	}
	for _, part := range []string{owner, repo, docPath} {
		if part == ".." || strings.HasPrefix(part, "../") || strings.HasSuffix(part, "/..") || strings.Contains(part, "/../") {
			return "", fmt.Errorf("path traversal in %q", part)
		}
		if strings.ContainsAny(part, " \t\n") {
			return "", fmt.Errorf("whitespace in %q", part)
		}
	}
	return fmt.Sprintf("https://%s.github.io/%s/%s", owner, repo, docPath), nil
}
