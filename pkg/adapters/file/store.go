// Package file persists submissions as JSON files on disk.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/aretw0/timbre/pkg/domain"
)

const (
	resultPrefix = "responses-"
	resultExt    = ".json"
)

// validSpecID guards file names built from client-supplied IDs.
var validSpecID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// FileName returns the file name used for specID.
func FileName(specID string) string {
	return resultPrefix + specID + resultExt
}

func checkSpecID(specID string) error {
	if !validSpecID.MatchString(specID) {
		return fmt.Errorf("invalid spec id %q", specID)
	}
	return nil
}

func write(dir string, sub domain.Submission) (string, error) {
	if err := checkSpecID(sub.SpecID); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(sub, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal submission: %w", err)
	}

	path := filepath.Join(dir, FileName(sub.SpecID))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return path, nil
}

// Store implements ports.ResultStore on a directory.
type Store struct {
	dir string
}

// NewStore creates a store writing into dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the backing directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes the submission, replacing any previous file.
func (s *Store) Save(ctx context.Context, sub domain.Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := write(s.dir, sub)
	return err
}

// Load reads the submission for specID.
func (s *Store) Load(ctx context.Context, specID string) (*domain.Submission, error) {
	if err := checkSpecID(specID); err != nil {
		return nil, domain.ErrSubmissionNotFound
	}
	data, err := os.ReadFile(filepath.Join(s.dir, FileName(specID)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read submission %s: %w", specID, err)
	}

	var sub domain.Submission
	if err := json.Unmarshal(data, &sub); err != nil {
		return nil, fmt.Errorf("failed to unmarshal submission %s: %w", specID, err)
	}
	return &sub, nil
}

// List returns the spec IDs found in the directory.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", s.dir, err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, resultPrefix) || filepath.Ext(name) != resultExt {
			continue
		}
		ids = append(ids, strings.TrimSuffix(strings.TrimPrefix(name, resultPrefix), resultExt))
	}
	sort.Strings(ids)
	return ids, nil
}
