package cache

import (
	"github.com/inful/mdfp"
)

// Fingerprint returns the content fingerprint of a document. The raw bytes
// are hashed, so every front matter key takes part, `fingerprint` included.
func Fingerprint(content []byte) string {
	return mdfp.CalculateFingerprint(string(content))
}
