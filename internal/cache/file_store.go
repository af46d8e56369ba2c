package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"chat-forwarder/internal/ports"
)

// FileStore хранит строки в файлах cache_<key>.json, по строке на значение.
// Расширение .json оставлено ради совместимости с уже развернутыми кэшами.
type FileStore struct {
	dir string
}

// NewFileStore создает хранилище в каталоге dir, создавая его при необходимости.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

var _ ports.LineStore = (*FileStore)(nil)

// Path возвращает путь к файлу ключа.
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.dir, "cache_"+key+".json")
}

// ReadLines реализует ports.LineStore.
func (s *FileStore) ReadLines(_ context.Context, key string) ([]string, bool, error) {
	data, err := os.ReadFile(s.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", s.Path(key), err)
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	if text == "" {
		return []string{}, true, nil
	}
	return strings.Split(text, "\n"), true, nil
}

// WriteLines записывает во временный файл и переименовывает его поверх
// старого, чтобы прерванная запись не оставляла половину кэша.
func (s *FileStore) WriteLines(_ context.Context, key string, lines []string) error {
	path := s.Path(key)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(strings.Join(lines, "\n")); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
