package report

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// MarshalReplacement serialises a Replacement to JSON.
func MarshalReplacement(r *Replacement) ([]byte, error) {
	return json.Marshal(r)
}

// UnmarshalReplacement deserialises a Replacement from JSON.
func UnmarshalReplacement(data []byte) (*Replacement, error) {
	var r Replacement
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// MarshalSnapshot serialises a Snapshot to JSON.
func MarshalSnapshot(s *Snapshot) ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalSnapshot deserialises a Snapshot from JSON.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// HashHTML returns the SHA-256 hex digest of raw HTML bytes.
func HashHTML(html []byte) string {
	h := sha256.Sum256(html)
	return fmt.Sprintf("%x", h)
}
