// Package artifacts stores issued documents on the local filesystem.
package artifacts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/ezirisk/ezirisk-engine/pkg/services"
)

// LocalStore writes rendered documents under a configured directory. Paths
// include the survey version so re-issued versions never overwrite the
// document of a superseded one.
type LocalStore struct {
	dir string
}

var _ services.ArtifactStore = (*LocalStore)(nil)

// NewLocalStore creates a store rooted at dir.
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir}
}

func (s *LocalStore) Save(_ context.Context, surveyID uuid.UUID, version int, data []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}
	path := filepath.Join(s.dir, fmt.Sprintf("%s-v%d.html", surveyID, version))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	return path, nil
}
