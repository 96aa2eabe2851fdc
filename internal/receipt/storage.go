package receipt

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// Storage defines the interface for file storage operations
type Storage interface {
	// Save saves a file and returns the path/filename
	Save(filename string, data []byte) (string, error)

	// Get retrieves a file by path
	Get(path string) ([]byte, error)

	// URL returns a URL the OCR bridge can download the file from
	URL(path string) (string, error)

	// Delete removes a file
	Delete(path string) error
}

// LocalStorage implements the Storage interface using local filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new LocalStorage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolving storage directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: abs,
	}, nil
}

// resolve joins path onto the base directory, refusing anything that escapes it
func (l *LocalStorage) resolve(path string) (string, error) {
	if !filepath.IsLocal(path) {
		return "", fmt.Errorf("invalid storage path: %q", path)
	}
	return filepath.Join(l.basePath, path), nil
}

// Save saves a file to local storage
func (l *LocalStorage) Save(filename string, data []byte) (string, error) {
	path, err := l.resolve(filename)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return filename, nil
}

// Get retrieves a file from local storage
func (l *LocalStorage) Get(path string) ([]byte, error) {
	fullPath, err := l.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// URL returns a file:// URL for a stored file. The path is relative to the
// storage root, so the OCR bridge must be rooted at Root().
func (l *LocalStorage) URL(path string) (string, error) {
	fullPath, err := l.resolve(path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(fullPath); err != nil {
		return "", fmt.Errorf("stat file: %w", err)
	}
	u := url.URL{Scheme: "file", Path: "/" + filepath.ToSlash(path)}
	return u.String(), nil
}

// Root returns the absolute storage directory
func (l *LocalStorage) Root() string {
	return l.basePath
}

// Delete removes a file from local storage
func (l *LocalStorage) Delete(path string) error {
	fullPath, err := l.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}
