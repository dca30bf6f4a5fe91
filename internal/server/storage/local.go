package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/mymee/internal/filex"
)

// LocalStorage writes files into one directory served under publicPrefix.
type LocalStorage struct {
	root         string
	publicPrefix string
}

func NewLocalStorage(dir, publicPrefix string) (*LocalStorage, error) {
	root, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	if publicPrefix == "" {
		publicPrefix = "/uploads"
	}
	return &LocalStorage{root: root, publicPrefix: strings.TrimRight(publicPrefix, "/")}, nil
}

// Root is the absolute upload directory.
func (s *LocalStorage) Root() string { return s.root }

// PublicPrefix is the URL path the directory is served under.
func (s *LocalStorage) PublicPrefix() string { return s.publicPrefix }

func (s *LocalStorage) Save(ctx context.Context, name, _ string, r io.Reader) (string, error) {
	file := uniqueName(name)
	path, err := filex.SafeJoin(s.root, file)
	if err != nil {
		return "", err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close upload: %w", err)
	}

	return s.publicPrefix + "/" + file, nil
}

// Delete ignores references that do not belong to this storage.
func (s *LocalStorage) Delete(ctx context.Context, ref string) error {
	name, ok := strings.CutPrefix(ref, s.publicPrefix+"/")
	if !ok || name == "" {
		return nil
	}
	path, err := filex.SafeJoin(s.root, name)
	if err != nil {
		return err
	}
	return filex.RemoveIfExists(path)
}
