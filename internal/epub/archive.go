package epub

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DefaultMaxEntryBytes caps the decompressed size of a single archive entry.
const DefaultMaxEntryBytes int64 = 256 * 1024 * 1024

// EntryKind classifies an archive entry by name.
type EntryKind int

const (
	KindIgnored EntryKind = iota
	KindImage
	KindDocument
)

func (k EntryKind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindDocument:
		return "document"
	default:
		return "ignored"
	}
}

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".svg"}

// Classify reports whether an entry is an image asset, a content document,
// or something to skip. Documents whose name contains "toc" in any case are
// navigation files and are skipped.
func Classify(name string) EntryKind {
	lower := strings.ToLower(name)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return KindImage
		}
	}
	if (strings.HasSuffix(lower, ".xhtml") || strings.HasSuffix(lower, ".html")) && !strings.Contains(lower, "toc") {
		return KindDocument
	}
	return KindIgnored
}

// AssetName returns the file name an entry or reference is stored under:
// its last path element. It returns "" when there is no usable basename.
func AssetName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	base := path.Base(name)
	switch base {
	case "", ".", "..", "/":
		return ""
	}
	return base
}

// Document is a content document read from an archive.
type Document struct {
	Name string
	Data []byte
}

// WalkResult is the output of walking one archive.
type WalkResult struct {
	// Documents in archive order.
	Documents []Document
	// Assets lists the file names written to the asset directory, in the
	// order they were written. A name appears once per entry, so later
	// duplicates that overwrote an earlier file are listed again.
	Assets  []string
	Ignored int
}

// Walker reads archives with a per-entry size limit.
type Walker struct {
	MaxEntryBytes int64
}

// Walk walks archivePath with the default entry limit.
func Walk(ctx context.Context, archivePath, assetDir string) (*WalkResult, error) {
	return Walker{}.Walk(ctx, archivePath, assetDir)
}

// Walk iterates the archive's entries in order. Image entries are copied to
// assetDir under their basename, overwriting existing files. Content
// documents are returned in order.
func (w Walker) Walk(ctx context.Context, archivePath, assetDir string) (*WalkResult, error) {
	limit := w.MaxEntryBytes
	if limit <= 0 {
		limit = DefaultMaxEntryBytes
	}

	zr, err := zip.OpenReader(archivePath)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, fmt.Errorf("%w: %s: %v", ErrArchiveRead, archivePath, err)
	}
	defer zr.Close()

	if err := os.MkdirAll(assetDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", ErrAssetWrite, assetDir, err)
	}

	result := &WalkResult{}
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch Classify(f.Name) {
		case KindImage:
			name := AssetName(f.Name)
			if name == "" {
				result.Ignored++
				continue
			}
			if err := copyEntry(f, filepath.Join(assetDir, name), limit); err != nil {
				return nil, err
			}
			result.Assets = append(result.Assets, name)

		case KindDocument:
			data, err := readEntry(f, limit)
			if err != nil {
				return nil, err
			}
			result.Documents = append(result.Documents, Document{Name: f.Name, Data: data})

		default:
			result.Ignored++
		}
	}

	return result, nil
}

func readEntry(f *zip.File, limit int64) ([]byte, error) {
	if f.UncompressedSize64 > uint64(limit) {
		return nil, fmt.Errorf("%w: entry %s too large: %d bytes (max %d)", ErrArchiveRead, f.Name, f.UncompressedSize64, limit)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open entry %s: %v", ErrArchiveRead, f.Name, err)
	}
	defer rc.Close()

	// The declared size may be forged; read one byte past the limit to tell.
	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read entry %s: %v", ErrArchiveRead, f.Name, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: entry %s exceeds %d bytes", ErrArchiveRead, f.Name, limit)
	}
	return data, nil
}

func copyEntry(f *zip.File, dest string, limit int64) error {
	data, err := readEntry(f, limit)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrAssetWrite, dest, err)
	}
	return nil
}

var coverExtensions = []string{".jpg", ".jpeg", ".png"}

// ExtractCover copies the first entry whose name contains "cover" and has a
// jpg, jpeg or png extension to destDir/cover.<ext>. It returns the written
// path or ErrNoCover.
func ExtractCover(archivePath, destDir string) (string, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return "", fmt.Errorf("%w: %s: %v", ErrArchiveRead, archivePath, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		lower := strings.ToLower(f.Name)
		if !strings.Contains(lower, "cover") {
			continue
		}
		for _, ext := range coverExtensions {
			if !strings.HasSuffix(lower, ext) {
				continue
			}
			if err := os.MkdirAll(destDir, 0o755); err != nil {
				return "", fmt.Errorf("%w: create %s: %v", ErrAssetWrite, destDir, err)
			}
			dest := filepath.Join(destDir, "cover"+ext)
			if err := copyEntry(f, dest, DefaultMaxEntryBytes); err != nil {
				return "", err
			}
			return dest, nil
		}
	}
	return "", ErrNoCover
}
