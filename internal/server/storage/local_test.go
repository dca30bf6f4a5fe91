package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestLocalStorage_SaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(filepath.Join(dir, "uploads"), "/uploads/")
	require.NoError(t, err)
	assert.Equal(t, "/uploads", s.PublicPrefix())

	ref, err := s.Save(context.Background(), "Icon.PNG", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(ref, "/uploads/"), ref)
	require.True(t, strings.HasSuffix(ref, ".png"), ref)

	path := filepath.Join(s.Root(), strings.TrimPrefix(ref, "/uploads/"))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(b))

	require.NoError(t, s.Delete(context.Background(), ref))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, s.Delete(context.Background(), ref), "second delete is a no-op")
}

func TestLocalStorage_UniqueNames(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "")
	require.NoError(t, err)

	a, err := s.Save(context.Background(), "same.jpg", "", strings.NewReader("1"))
	require.NoError(t, err)
	b, err := s.Save(context.Background(), "same.jpg", "", strings.NewReader("2"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestLocalStorage_DropsOddExtensions(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)

	ref, err := s.Save(context.Background(), "../../etc/passwd.sh;rm", "", strings.NewReader("x"))
	require.NoError(t, err)
	name := strings.TrimPrefix(ref, "/uploads/")
	assert.NotContains(t, name, "/")
	assert.NotContains(t, name, ";")
}

func TestLocalStorage_SaveWriteErrorCleansUp(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)

	_, err = s.Save(context.Background(), "a.png", "", errReader{})
	require.Error(t, err)

	entries, err := os.ReadDir(s.Root())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalStorage_DeleteIgnoresForeignAndRejectsTraversal(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)

	assert.NoError(t, s.Delete(context.Background(), ""))
	assert.NoError(t, s.Delete(context.Background(), "https://cdn.example.com/x.png"))
	assert.Error(t, s.Delete(context.Background(), "/uploads/../../secret"))
}

func TestGetRandomStorageKey(t *testing.T) {
	k := GetRandomStorageKey("photo.JPEG", time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC))
	assert.Regexp(t, `^uploads/2025/3/7/[0-9a-f-]{36}\.jpeg$`, k)
}
