// Package bundle loads the local document bundle produced by the converter:
// one HTML file plus a sibling directory of assets. The bundle is an
// immutable snapshot — content and fingerprints are captured once per
// publish invocation.
package bundle

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// File is a single bundle entry addressed by its repository-relative path.
type File struct {
	Path    string // repository-relative, forward slashes
	Content []byte
	SHA     string // git blob SHA of Content
}

// Bundle is the local snapshot to publish: the document plus its assets.
type Bundle struct {
	Document File
	Assets   []File
}

// LoadError reports a problem assembling the bundle.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("bundle: %s: %s", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load reads the document at docPath and, if assetsDir is non-empty, every
// file under it. Asset paths in the bundle are prefixed with the assets
// directory's base name so the repository layout mirrors the local one —
// the document's relative links must keep working unmodified.
func Load(docPath, assetsDir string) (*Bundle, error) {
	content, err := os.ReadFile(docPath)
	if err != nil {
		return nil, &LoadError{Path: docPath, Err: err}
	}

	b := &Bundle{
		Document: File{
			Path:    filepath.Base(docPath),
			Content: content,
			SHA:     BlobSHA(content),
		},
	}

	if assetsDir == "" {
		return b, nil
	}

	info, err := os.Stat(assetsDir)
	if err != nil {
		return nil, &LoadError{Path: assetsDir, Err: err}
	}
	if !info.IsDir() {
		return nil, &LoadError{Path: assetsDir, Err: fmt.Errorf("not a directory")}
	}

	base := filepath.Base(assetsDir)
	err = filepath.Walk(assetsDir, func(p string, fi os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if fi.IsDir() {
			// Hidden directories are skipped wholesale.
			if p != assetsDir && strings.HasPrefix(fi.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(fi.Name(), ".") {
			return nil
		}

		rel, relErr := filepath.Rel(assetsDir, p)
		if relErr != nil {
			return relErr
		}
		repoPath, pathErr := cleanRelPath(base, rel)
		if pathErr != nil {
			return pathErr
		}

		data, readErr := os.ReadFile(p)
		if readErr != nil {
			return readErr
		}
		b.Assets = append(b.Assets, File{Path: repoPath, Content: data, SHA: BlobSHA(data)})
		return nil
	})
	if err != nil {
		return nil, &LoadError{Path: assetsDir, Err: err}
	}

	// Deterministic order regardless of walk order.
	sort.Slice(b.Assets, func(i, j int) bool {
		return b.Assets[i].Path < b.Assets[j].Path
	})

	return b, nil
}

// Paths returns every repository-relative path in the bundle, assets first.
func (b *Bundle) Paths() []string {
	out := make([]string, 0, len(b.Assets)+1)
	for _, a := range b.Assets {
		out = append(out, a.Path)
	}
	return append(out, b.Document.Path)
}

// cleanRelPath joins base and rel into a forward-slash repository path,
// rejecting anything that would escape the assets directory.
func cleanRelPath(base, rel string) (string, error) {
	p := path.Join(base, filepath.ToSlash(rel))
	if p == "" || strings.HasPrefix(p, "..") || strings.Contains(p, "/../") {
		return "", fmt.Errorf("path '%s' escapes the assets directory", rel)
	}
	return p, nil
}
