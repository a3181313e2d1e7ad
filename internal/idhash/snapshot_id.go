package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"markets-lab/internal/caip"
	"markets-lab/internal/domain"
)

// ComputeSnapshotID computes a deterministic snapshot_id using SHA256.
// Formula: SHA256(category|fetched_at|id1,id2,...)
// Returns hex-encoded hash (64 characters).
func ComputeSnapshotID(category domain.Category, fetchedAt int64, ids []caip.AssetID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}

	data := fmt.Sprintf("%s|%d|%s",
		string(category),
		fetchedAt,
		strings.Join(parts, ","),
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
