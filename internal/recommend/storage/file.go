// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
)

const fileSuffix = ".gob.gz"

// FileStore keeps artifacts as files in a directory.
type FileStore struct {
	baseDir string
	mu      sync.RWMutex

	// latest version per name
	versions map[string]int
}

var _ Store = (*FileStore)(nil)

// NewFileStore opens (creating if needed) a store rooted at baseDir.
func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil { //nolint:gosec // 0750 is acceptable for model storage
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	s := &FileStore{
		baseDir:  baseDir,
		versions: make(map[string]int),
	}
	if err := s.Refresh(); err != nil {
		return nil, fmt.Errorf("scan existing models: %w", err)
	}
	return s, nil
}

// Refresh rescans the directory. Serving processes call it before checking
// for a newer version written by a separate trainer process.
func (s *FileStore) Refresh() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.scan()
	if err != nil {
		return err
	}
	versions := make(map[string]int, len(all))
	for name, vs := range all {
		versions[name] = vs[0]
	}
	s.versions = versions
	return nil
}

// scan returns every version per name, newest first.
func (s *FileStore) scan() (map[string][]int, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]int)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileSuffix) {
			continue
		}
		name, version := parseModelFilename(strings.TrimSuffix(entry.Name(), fileSuffix))
		if name == "" {
			continue
		}
		out[name] = append(out[name], version)
	}
	for name := range out {
		sort.Sort(sort.Reverse(sort.IntSlice(out[name])))
	}
	return out, nil
}

// parseModelFilename splits "movie_recommender_v3" into its name and version.
func parseModelFilename(base string) (name string, version int) {
	idx := strings.LastIndex(base, "_v")
	if idx <= 0 {
		return "", 0
	}
	v, err := strconv.Atoi(base[idx+2:])
	if err != nil || v <= 0 {
		return "", 0
	}
	return base[:idx], v
}

// Save implements Store.
//
//nolint:gocritic // meta passed by value is acceptable for this write operation
func (s *FileStore) Save(ctx context.Context, name string, model any, meta ModelMetadata) (ModelMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	version := s.versions[name] + 1
	meta.Name = name
	meta.Version = version

	env, err := encode(model, meta)
	if err != nil {
		return ModelMetadata{}, err
	}
	data, err := marshalEnvelope(env)
	if err != nil {
		return ModelMetadata{}, err
	}

	tmp, err := os.CreateTemp(s.baseDir, "."+name+"-*.tmp")
	if err != nil {
		return ModelMetadata{}, fmt.Errorf("create temp model file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }() //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close() //nolint:errcheck // write error already returned
		return ModelMetadata{}, fmt.Errorf("write model file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close() //nolint:errcheck // sync error already returned
		return ModelMetadata{}, fmt.Errorf("sync model file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return ModelMetadata{}, fmt.Errorf("close model file: %w", err)
	}
	if err := os.Rename(tmpName, s.modelPath(name, version)); err != nil {
		return ModelMetadata{}, fmt.Errorf("publish model file: %w", err)
	}

	s.versions[name] = version
	return env.Metadata, nil
}

// Load implements Store.
func (s *FileStore) Load(ctx context.Context, name string, version int, target any) (*ModelMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if version == 0 {
		var ok bool
		if version, ok = s.versions[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, name)
		}
	}

	data, err := os.ReadFile(s.modelPath(name, version))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s v%d", ErrModelNotFound, name, version)
	}
	if err != nil {
		return nil, fmt.Errorf("open model file: %w", err)
	}

	env, err := unmarshalEnvelope(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return decode(env, target)
}

// LatestVersion implements Store.
func (s *FileStore) LatestVersion(name string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	version, ok := s.versions[name]
	return version, ok
}

// List implements Store.
func (s *FileStore) List(ctx context.Context) ([]ModelMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	models := make([]ModelMetadata, 0, len(s.versions))
	for name, version := range s.versions {
		f, err := os.Open(s.modelPath(name, version)) //nolint:gosec // path built from the store's own directory
		if err != nil {
			continue
		}
		env, err := unmarshalEnvelope(f)
		_ = f.Close() //nolint:errcheck // read-only file
		if err != nil {
			continue
		}
		models = append(models, env.Metadata)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].Name < models[j].Name })
	return models, nil
}

// Prune implements Store.
func (s *FileStore) Prune(ctx context.Context, name string, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keep < 1 {
		keep = 1
	}
	all, err := s.scan()
	if err != nil {
		return fmt.Errorf("read directory: %w", err)
	}
	versions := all[name]
	for i := keep; i < len(versions); i++ {
		if err := os.Remove(s.modelPath(name, versions[i])); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("delete model %s v%d: %w", name, versions[i], err)
		}
	}
	return nil
}

// Close implements Store.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) modelPath(name string, version int) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("%s_v%d%s", name, version, fileSuffix))
}
