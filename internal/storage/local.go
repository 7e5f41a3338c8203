package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// LocalProofStore writes proof blobs to a directory on disk. It stands in
// for the external object storage collaborator; the returned reference is
// the relative file name.
type LocalProofStore struct {
	dir string
}

// NewLocalProofStore creates the store, making the directory if needed
func NewLocalProofStore(dir string) (*LocalProofStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &LocalProofStore{dir: dir}, nil
}

// Store writes the blob and returns its reference. Content-addressed names
// make replayed uploads harmless.
func (s *LocalProofStore) Store(_ context.Context, blob []byte, orderID string) (string, error) {
	sum := sha256.Sum256(blob)
	name := fmt.Sprintf("%s-%s", orderID, hex.EncodeToString(sum[:8]))

	if err := os.WriteFile(filepath.Join(s.dir, name), blob, 0o644); err != nil {
		return "", err
	}

	return name, nil
}
