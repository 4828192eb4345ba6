package store

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/joseph-ayodele/market-views/internal/common"
)

var _ BlobStore = (*FileStore)(nil)

// FileStore keeps the catalog in a local file. The version token is the sha1 of the
// content, so a write fails if anything changed the file after it was read.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Describe() string { return "file://" + s.path }

func (s *FileStore) Get(ctx context.Context) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return Blob{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *FileStore) Put(ctx context.Context, content, version, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read()
	switch {
	case err == nil:
		if version != current.Version {
			return "", conflict(s.path, nil)
		}
	case IsNotFound(err):
		if version != "" {
			return "", conflict(s.path, err)
		}
	default:
		return "", common.NewAppError(common.KindRemoteWriteError, "read before write "+s.path, err)
	}

	if err := writeAtomic(s.path, []byte(content)); err != nil {
		return "", common.NewAppError(common.KindRemoteWriteError, "write "+s.path, err)
	}
	return versionOf([]byte(content)), nil
}

func (s *FileStore) read() (Blob, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Blob{}, notFound(s.path, nil)
	}
	if err != nil {
		return Blob{}, common.NewAppError(common.KindRemoteReadError, "read "+s.path, err)
	}
	return Blob{Content: string(b), Version: versionOf(b)}, nil
}

func versionOf(b []byte) string {
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
