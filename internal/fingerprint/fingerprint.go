// Package fingerprint computes content digests used to detect no-op writes.
//
// The digest covers only the content-relevant fields (description, readme,
// upstream updated_at). Volatile display fields such as the star count are
// deliberately excluded: popularity churn alone never touches the index.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Compute returns the hex digest over a record's mutable content fields.
// Deterministic: identical inputs always produce identical digests.
func Compute(description, readmeContent string, updatedAt time.Time) string {
	h := sha256.New()
	h.Write([]byte(description))
	h.Write([]byte(readmeContent))
	h.Write([]byte(updatedAt.UTC().Format(time.RFC3339)))
	return hex.EncodeToString(h.Sum(nil))
}

// Changed reports whether two digests differ. An empty old digest (no prior
// write) always counts as changed.
func Changed(old, current string) bool {
	return old == "" || old != current
}
