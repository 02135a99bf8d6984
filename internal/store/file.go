package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// FileStore keeps each project in its own directory under the data dir:
//
//	data/<project>/<idx>_<name>.json      stage artifacts
//	data/<project>/progress/<name>.json   checkpoints
//
// Writes go through a temp file + rename so a crash mid-write never leaves
// a torn artifact behind.
type FileStore struct {
	root string
}

// NewFileStore creates the data dir if needed.
func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		return nil, eris.New("store: data dir not configured")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, eris.Wrapf(err, "store: create data dir %s", root)
	}
	return &FileStore{root: root}, nil
}

func (s *FileStore) ReadJSON(ctx context.Context, projectID, name string, out any) error {
	path, err := s.findArtifact(projectID, name)
	if err != nil {
		return err
	}
	return readJSONFile(path, out)
}

func (s *FileStore) WriteJSON(ctx context.Context, projectID string, index int, name string, data any) (string, error) {
	dir := filepath.Join(s.root, projectID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "store: create project dir %s", projectID)
	}

	// Replace any earlier write of the same artifact, whatever its index.
	if old, err := s.findArtifact(projectID, name); err == nil {
		fresh := filepath.Join(dir, artifactFilename(index, name))
		if old != fresh {
			_ = os.Remove(old)
		}
	}

	path := filepath.Join(dir, artifactFilename(index, name))
	if err := writeJSONFile(path, data); err != nil {
		return "", err
	}
	return path, nil
}

func (s *FileStore) ReadProgress(ctx context.Context, projectID, name string, out any) error {
	path := filepath.Join(s.root, projectID, "progress", name+".json")
	return readJSONFile(path, out)
}

func (s *FileStore) WriteProgress(ctx context.Context, projectID, name string, data any) error {
	dir := filepath.Join(s.root, projectID, "progress")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "store: create progress dir for %s", projectID)
	}
	return writeJSONFile(filepath.Join(dir, name+".json"), data)
}

func (s *FileStore) ListProjects(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, eris.Wrap(err, "store: list projects")
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *FileStore) Close() error {
	return nil
}

func artifactFilename(index int, name string) string {
	if index < 0 {
		return name + ".json"
	}
	return fmt.Sprintf("%02d_%s.json", index, name)
}

// findArtifact locates an artifact by name regardless of its index prefix.
func (s *FileStore) findArtifact(projectID, name string) (string, error) {
	dir := filepath.Join(s.root, projectID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", eris.Wrapf(err, "store: read project dir %s", projectID)
	}

	want := name + ".json"
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		fn := e.Name()
		if fn == want || strings.HasSuffix(fn, "_"+want) {
			return filepath.Join(dir, fn), nil
		}
	}
	return "", ErrNotFound
}

func readJSONFile(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return eris.Wrapf(err, "store: read %s", path)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return eris.Wrapf(err, "store: decode %s", path)
	}
	return nil
}

func writeJSONFile(path string, data any) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "store: encode %s", path)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return eris.Wrapf(err, "store: write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return eris.Wrapf(err, "store: rename %s", path)
	}
	return nil
}
