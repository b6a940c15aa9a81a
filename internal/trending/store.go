package trending

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

var ErrNotFound = errors.New("snapshot not found")

const (
	SongsKey  = "songs"
	AlbumsKey = "albums"
)

// Store persists snapshot documents by key.
type Store interface {
	Get(key string) ([]byte, error)
	Put(key string, data []byte) error
}

var fileNames = map[string]string{
	SongsKey:  "trending_songs.json",
	AlbumsKey: "trending_albums.json",
}

// FileStore keeps every snapshot in its own JSON file inside Dir.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (s *FileStore) path(key string) (string, error) {
	name, ok := fileNames[key]
	if !ok {
		return "", fmt.Errorf("unknown snapshot %q", key)
	}
	return filepath.Join(s.Dir, name), nil
}

func (s *FileStore) Get(key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// Put replaces the snapshot atomically: the document is written next to its
// final location and renamed over it.
func (s *FileStore) Put(key string, data []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.Dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
