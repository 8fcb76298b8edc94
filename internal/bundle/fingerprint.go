package bundle

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// BlobSHA returns the git blob object ID for content. This is the same value
// the GitHub Contents API reports as a file's "sha", which lets the planner
// compare local files against the remote index without downloading anything:
// equal SHA means identical bytes, and the remote SHA doubles as the version
// token an overwrite must present.
func BlobSHA(content []byte) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}
