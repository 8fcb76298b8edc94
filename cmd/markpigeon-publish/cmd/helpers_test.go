package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/markpigeon/publish/pkg/pigeonpub"
)

func TestGuessAssetsDir(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "report.html")
	if err := os.WriteFile(doc, []byte("<html>"), 0644); err != nil {
		t.Fatal(err)
	}

	if got := guessAssetsDir(doc); got != "" {
		t.Errorf("no assets dir exists, got %q", got)
	}

	assets := filepath.Join(dir, "assets_report")
	if err := os.Mkdir(assets, 0755); err != nil {
		t.Fatal(err)
	}
	if got := guessAssetsDir(doc); got != assets {
		t.Errorf("got %q, want %q", got, assets)
	}
}

func TestLoadToken(t *testing.T) {
	s := &pigeonpub.Settings{TokenEnv: "MARKPIGEON_TEST_TOKEN"}

	t.Setenv("MARKPIGEON_TEST_TOKEN", "")
	if _, err := loadToken(s); err == nil {
		t.Error("expected error when token env is empty")
	}

	t.Setenv("MARKPIGEON_TEST_TOKEN", "tok")
	token, err := loadToken(s)
	if err != nil {
		t.Fatalf("loadToken: %v", err)
	}
	if token != "tok" {
		t.Errorf("token = %q", token)
	}
}
