package engine

import (
	"testing"

	"github.com/markpigeon/publish/internal/bundle"
	"github.com/markpigeon/publish/internal/remote"
)

func testBundle() *bundle.Bundle {
	doc := []byte("<html><img src='./assets_doc/1.png'></html>")
	png := []byte("fake png data")
	return &bundle.Bundle{
		Document: bundle.File{Path: "doc.html", Content: doc, SHA: bundle.BlobSHA(doc)},
		Assets: []bundle.File{
			{Path: "assets_doc/1.png", Content: png, SHA: bundle.BlobSHA(png)},
		},
	}
}

func TestBuildPlan_decisionTable(t *testing.T) {
	b := testBundle()

	tests := []struct {
		name    string
		idx     remote.Index
		wantDoc ActionKind
		wantPng ActionKind
		wantSHA string
	}{
		{
			name:    "empty remote creates everything",
			idx:     remote.Index{},
			wantDoc: ActionCreate,
			wantPng: ActionCreate,
		},
		{
			name: "identical fingerprints skip",
			idx: remote.Index{
				"doc.html":         b.Document.SHA,
				"assets_doc/1.png": b.Assets[0].SHA,
			},
			wantDoc: ActionSkip,
			wantPng: ActionSkip,
		},
		{
			name: "changed content updates with the remote token",
			idx: remote.Index{
				"doc.html":         "0000000000000000000000000000000000000000",
				"assets_doc/1.png": b.Assets[0].SHA,
			},
			wantDoc: ActionUpdate,
			wantPng: ActionSkip,
			wantSHA: "0000000000000000000000000000000000000000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := BuildPlan(b, tt.idx)
			if p.Document.Kind != tt.wantDoc {
				t.Errorf("document action = %s, want %s", p.Document.Kind, tt.wantDoc)
			}
			if p.Assets[0].Kind != tt.wantPng {
				t.Errorf("asset action = %s, want %s", p.Assets[0].Kind, tt.wantPng)
			}
			if tt.wantSHA != "" && p.Document.SHA != tt.wantSHA {
				t.Errorf("document token = %q, want %q", p.Document.SHA, tt.wantSHA)
			}
			if tt.wantDoc != ActionUpdate && p.Document.SHA != "" {
				t.Errorf("unexpected token %q on %s", p.Document.SHA, tt.wantDoc)
			}
		})
	}
}

func TestBuildPlan_documentLast(t *testing.T) {
	b := testBundle()
	p := BuildPlan(b, remote.Index{})
	actions := p.Actions()
	last := actions[len(actions)-1]
	if !last.Document || last.Path != "doc.html" {
		t.Fatalf("document must be the final action, got %+v", last)
	}
}

// Scenario: unchanged asset from the last publish, brand new document.
func TestBuildPlan_unchangedAssetNewDocument(t *testing.T) {
	b := testBundle()
	idx := remote.Index{"assets_doc/1.png": b.Assets[0].SHA}

	p := BuildPlan(b, idx)
	if p.Assets[0].Kind != ActionSkip {
		t.Errorf("asset = %s, want skip", p.Assets[0].Kind)
	}
	if p.Document.Kind != ActionCreate {
		t.Errorf("document = %s, want create", p.Document.Kind)
	}
	if p.Uploads() != 1 {
		t.Errorf("uploads = %d, want 1", p.Uploads())
	}
}

func TestBuildPlan_remoteOnlyFilesUntouched(t *testing.T) {
	b := testBundle()
	idx := remote.Index{
		"stale/old.png": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
	}
	p := BuildPlan(b, idx)
	for _, a := range p.Actions() {
		if a.Path == "stale/old.png" {
			t.Fatal("plan must never touch remote-only files")
		}
	}
}
