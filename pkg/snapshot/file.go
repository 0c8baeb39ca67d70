package snapshot

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vango-dev/vtree/internal/errors"
)

// FileStore stores snapshots as files in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.New("S001").WithDetailf("create %s", dir).Wrap(err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the store's directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Put writes data to a temporary file and renames it into place.
func (s *FileStore) Put(ctx context.Context, name string, data []byte) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.CreateTemp(s.dir, "."+name+".*")
	if err != nil {
		return errors.New("S001").WithDetailf("put %s", name).Wrap(err)
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.New("S001").WithDetailf("put %s", name).Wrap(err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.New("S001").WithDetailf("put %s", name).Wrap(err)
	}
	if err := os.Rename(tmp, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmp)
		return errors.New("S001").WithDetailf("put %s", name).Wrap(err)
	}
	return nil
}

// Get reads the snapshot file.
func (s *FileStore) Get(ctx context.Context, name string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errors.New("S001").WithDetailf("get %s", name).Wrap(ErrNotFound)
	}
	if err != nil {
		return nil, errors.New("S001").WithDetailf("get %s", name).Wrap(err)
	}
	return data, nil
}
