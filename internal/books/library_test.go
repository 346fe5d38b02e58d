package books

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackzampolin/reader/internal/home"
	"github.com/jackzampolin/reader/internal/testutil"
)

func newLibrary(t *testing.T) (*Library, *home.Dir, *MemoryStore) {
	t.Helper()
	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatalf("home.New() error = %v", err)
	}
	store := NewMemoryStore()
	return NewLibrary(h, store, testutil.Logger()), h, store
}

func TestLibrary_Add(t *testing.T) {
	lib, h, store := newLibrary(t)
	ctx := context.Background()

	data := testutil.NewEPUB().
		Raw("OEBPS/images/cover.jpg", testutil.PNG).
		Chapter("OEBPS/ch1.xhtml", "One", testutil.Paragraphs("p", 3)).
		Bytes(t)

	book, err := lib.Add(ctx, Upload{
		Filename: "dune.epub",
		Author:   " Frank Herbert ",
		Body:     bytes.NewReader(data),
	})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if book.Title != "dune" {
		t.Errorf("Title = %q, want title derived from filename", book.Title)
	}
	if book.Author != "Frank Herbert" {
		t.Errorf("Author = %q", book.Author)
	}
	if book.PageCount != 0 {
		t.Errorf("PageCount = %d, want 0 before pagination", book.PageCount)
	}
	if book.UploadedAt.IsZero() {
		t.Error("UploadedAt not set")
	}

	wantArchive := filepath.Join(h.BookDir(book.ID), "dune.epub")
	if book.ArchivePath != wantArchive {
		t.Errorf("ArchivePath = %q, want %q", book.ArchivePath, wantArchive)
	}
	got, err := os.ReadFile(book.ArchivePath)
	if err != nil || !bytes.Equal(got, data) {
		t.Errorf("stored archive differs from upload (err=%v)", err)
	}

	if !book.HasCover() || filepath.Base(book.CoverPath) != "cover.jpg" {
		t.Errorf("CoverPath = %q", book.CoverPath)
	}

	stored, err := store.Get(ctx, book.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.ArchivePath != book.ArchivePath {
		t.Errorf("stored book = %+v", stored)
	}
}

func TestLibrary_AddWithoutCover(t *testing.T) {
	lib, _, _ := newLibrary(t)

	data := testutil.NewEPUB().Chapter("ch1.xhtml", "One", "<p>a</p>").Bytes(t)
	book, err := lib.Add(context.Background(), Upload{Filename: "a.epub", Title: "A Title", Body: bytes.NewReader(data)})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if book.HasCover() {
		t.Errorf("CoverPath = %q, want none", book.CoverPath)
	}
	if book.Title != "A Title" {
		t.Errorf("Title = %q", book.Title)
	}
}

func TestLibrary_AddRejects(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		body     string
	}{
		{"wrong extension", "book.pdf", "%PDF-1.4"},
		{"not a zip", "book.epub", "plain text"},
		{"empty", "book.epub", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib, h, store := newLibrary(t)

			_, err := lib.Add(context.Background(), Upload{Filename: tt.filename, Body: strings.NewReader(tt.body)})
			if !errors.Is(err, ErrInvalidArchive) {
				t.Fatalf("Add() error = %v, want ErrInvalidArchive", err)
			}

			entries, _ := os.ReadDir(h.BooksDir())
			if len(entries) != 0 {
				t.Errorf("book directories left behind: %d", len(entries))
			}
			if list, _ := store.List(context.Background()); len(list) != 0 {
				t.Errorf("records created: %d", len(list))
			}
		})
	}
}

func TestLibrary_AddStripsDirectories(t *testing.T) {
	lib, h, _ := newLibrary(t)

	data := testutil.NewEPUB().Chapter("ch1.xhtml", "One", "<p>a</p>").Bytes(t)
	book, err := lib.Add(context.Background(), Upload{Filename: "../../evil.epub", Body: bytes.NewReader(data)})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if filepath.Dir(book.ArchivePath) != h.BookDir(book.ID) {
		t.Errorf("ArchivePath = %q escapes the book directory", book.ArchivePath)
	}
}

func TestLibrary_Remove(t *testing.T) {
	lib, h, store := newLibrary(t)
	ctx := context.Background()

	data := testutil.NewEPUB().Chapter("ch1.xhtml", "One", "<p>a</p>").Bytes(t)
	book, err := lib.Add(ctx, Upload{Filename: "a.epub", Body: bytes.NewReader(data)})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if err := lib.Remove(ctx, book.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := os.Stat(h.BookDir(book.ID)); !os.IsNotExist(err) {
		t.Errorf("book directory still present: %v", err)
	}
	if _, err := store.Get(ctx, book.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}

	if err := lib.Remove(ctx, book.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Remove() error = %v, want ErrNotFound", err)
	}
}
