package books

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/reader/internal/epub"
	"github.com/jackzampolin/reader/internal/home"
)

// Upload is an archive submitted for addition to the library.
type Upload struct {
	Filename    string
	Title       string
	Author      string
	Description string
	Body        io.Reader
}

// Library stores archives under the home directory and records them.
type Library struct {
	home   *home.Dir
	store  Store
	logger *slog.Logger
}

// NewLibrary creates a library rooted at h.
func NewLibrary(h *home.Dir, store Store, logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.Default()
	}
	return &Library{home: h, store: store, logger: logger}
}

// Store returns the underlying record store.
func (l *Library) Store() Store {
	return l.store
}

// Add saves the archive to data/books/<id>/<filename>, extracts its cover
// and creates the record. Nothing is left on disk if any step fails.
func (l *Library) Add(ctx context.Context, up Upload) (*Book, error) {
	filename := filepath.Base(up.Filename)
	if !strings.EqualFold(filepath.Ext(filename), ".epub") {
		return nil, fmt.Errorf("%w: %s is not an .epub file", ErrInvalidArchive, up.Filename)
	}

	id := uuid.NewString()
	logger := l.logger.With("book_id", id)

	if err := l.home.EnsureBookDir(id); err != nil {
		return nil, fmt.Errorf("create book directory: %w", err)
	}

	book, err := l.save(ctx, id, filename, up)
	if err != nil {
		if rerr := l.home.RemoveBookDir(id); rerr != nil {
			logger.Warn("failed to clean up book directory", "error", rerr)
		}
		return nil, err
	}

	logger.Info("book added", "filename", filename, "title", book.Title, "cover", book.HasCover())
	return book, nil
}

func (l *Library) save(ctx context.Context, id, filename string, up Upload) (*Book, error) {
	archivePath := l.home.ArchivePath(id, filename)
	if err := writeFile(archivePath, up.Body); err != nil {
		return nil, fmt.Errorf("save archive: %w", err)
	}

	coverPath, err := epub.ExtractCover(archivePath, l.home.BookDir(id))
	switch {
	case errors.Is(err, epub.ErrNoCover):
		coverPath = ""
	case errors.Is(err, epub.ErrArchiveRead):
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	case err != nil:
		return nil, fmt.Errorf("extract cover: %w", err)
	}

	title := strings.TrimSpace(up.Title)
	if title == "" {
		title = strings.TrimSuffix(filename, filepath.Ext(filename))
	}

	book := &Book{
		ID:          id,
		Title:       title,
		Author:      strings.TrimSpace(up.Author),
		Description: strings.TrimSpace(up.Description),
		Filename:    filename,
		ArchivePath: archivePath,
		CoverPath:   coverPath,
		UploadedAt:  time.Now().UTC(),
	}
	if err := l.store.Create(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

// Remove deletes the record and every file of the book. Pages and reading
// progress are owned by other stores and must be removed by the caller.
func (l *Library) Remove(ctx context.Context, id string) error {
	if err := l.store.Delete(ctx, id); err != nil {
		return err
	}
	if err := l.home.RemoveBookDir(id); err != nil {
		return fmt.Errorf("remove files of %s: %w", id, err)
	}
	l.logger.Info("book removed", "book_id", id)
	return nil
}

func writeFile(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
