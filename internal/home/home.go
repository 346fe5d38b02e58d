package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the reader home directory.
	DefaultDirName = ".reader"

	// DataDirName is the subdirectory for uploaded books.
	DataDirName = "data"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// AssetsDirName is the per-book subdirectory holding extracted images.
	AssetsDirName = "assets"
)

// Dir represents the reader home directory structure.
//
//	~/.reader/
//	  config.yaml
//	  defradb/
//	  data/books/<book-id>/<archive>.epub
//	  data/books/<book-id>/cover.<ext>
//	  data/books/<book-id>/assets/<image>
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.reader).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// DataPath returns the path to the data directory.
func (d *Dir) DataPath() string {
	return filepath.Join(d.path, DataDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// DefraPath returns the directory persisted into the DefraDB container.
func (d *Dir) DefraPath() string {
	return filepath.Join(d.path, "defradb")
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	// Create data directory (this also creates the parent)
	if err := os.MkdirAll(d.BooksDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}

// BooksDir returns the directory holding one subdirectory per book.
func (d *Dir) BooksDir() string {
	return filepath.Join(d.DataPath(), "books")
}

// BookDir returns the directory for a single book's files.
func (d *Dir) BookDir(bookID string) string {
	return filepath.Join(d.BooksDir(), bookID)
}

// EnsureBookDir creates the directory for a book.
func (d *Dir) EnsureBookDir(bookID string) error {
	return os.MkdirAll(d.BookDir(bookID), 0o755)
}

// ArchivePath returns where an uploaded archive is stored.
// Only the basename of filename is used.
func (d *Dir) ArchivePath(bookID, filename string) string {
	return filepath.Join(d.BookDir(bookID), filepath.Base(filename))
}

// AssetsDirFor returns the assets directory that sits next to an archive.
// Asset location follows the archive, so books stored outside the home
// directory still resolve their images.
func AssetsDirFor(archivePath string) string {
	return filepath.Join(filepath.Dir(archivePath), AssetsDirName)
}

// RemoveBookDir deletes every file belonging to a book.
func (d *Dir) RemoveBookDir(bookID string) error {
	if bookID == "" {
		return fmt.Errorf("empty book id")
	}
	return os.RemoveAll(d.BookDir(bookID))
}
