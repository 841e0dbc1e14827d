package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const (
	fileSuffix = ".json"
	dirPerm    = 0o700
)

// FileStore keeps one file per checkpoint under a directory. Writes go to a
// temporary file that is synced and renamed over the target, so a crash
// leaves either the old or the new checkpoint.
type FileStore struct {
	fs  afero.Fs
	dir string
}

// NewFileStore returns a FileStore rooted at dir on fs.
func NewFileStore(fs afero.Fs, dir string) (*FileStore, error) {
	if err := fs.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("create checkpoint dir %v: %w", dir, err)
	}
	return &FileStore{fs: fs, dir: dir}, nil
}

func (s *FileStore) path(id string) (string, error) {
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("store: invalid checkpoint id %q", id)
	}
	return filepath.Join(s.dir, id+fileSuffix), nil
}

func (s *FileStore) Get(_ context.Context, id string) ([]byte, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}
	body, err := afero.ReadFile(s.fs, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoint %v: %w", path, err)
	}
	return body, nil
}

func (s *FileStore) Put(_ context.Context, id string, body []byte) (err error) {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	tmpf, err := afero.TempFile(s.fs, s.dir, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("%w: create tmp file", err)
	}
	defer func() {
		if err != nil {
			_ = tmpf.Close()
			_ = s.fs.Remove(tmpf.Name())
		}
	}()
	if _, err := tmpf.Write(body); err != nil {
		return fmt.Errorf("%w: write tmp file", err)
	}
	if err := tmpf.Sync(); err != nil {
		return fmt.Errorf("%w: sync tmp file", err)
	}
	if err := tmpf.Close(); err != nil {
		return fmt.Errorf("%w: close tmp file", err)
	}
	if err := s.fs.Rename(tmpf.Name(), path); err != nil {
		return fmt.Errorf("%w: rename tmp file %v to %v", err, tmpf.Name(), path)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove checkpoint %v: %w", path, err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
