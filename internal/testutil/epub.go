package testutil

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// PNG is a minimal byte payload with a PNG signature, enough for asset tests.
var PNG = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

// EPUB builds a ZIP-based e-book archive for tests. Entries are written in
// the order they are added, after the mimetype and container entries.
type EPUB struct {
	entries []epubEntry
}

type epubEntry struct {
	name string
	data []byte
}

// NewEPUB starts an archive with the mimetype and META-INF/container.xml entries.
func NewEPUB() *EPUB {
	return &EPUB{
		entries: []epubEntry{{
			name: "META-INF/container.xml",
			data: []byte(`<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`),
		}},
	}
}

// Chapter adds an XHTML document with the given title and body markup.
func (e *EPUB) Chapter(name, title, body string) *EPUB {
	return e.Raw(name, []byte(XHTML(title, body)))
}

// Raw adds an entry with arbitrary name and contents.
func (e *EPUB) Raw(name string, data []byte) *EPUB {
	e.entries = append(e.entries, epubEntry{name: name, data: data})
	return e
}

// Bytes returns the encoded archive.
func (e *EPUB) Bytes(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	// mimetype must be first and stored uncompressed
	w, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		t.Fatalf("create mimetype: %v", err)
	}
	if _, err := w.Write([]byte("application/epub+zip")); err != nil {
		t.Fatalf("write mimetype: %v", err)
	}

	for _, entry := range e.entries {
		w, err := zw.Create(entry.name)
		if err != nil {
			t.Fatalf("create %s: %v", entry.name, err)
		}
		if _, err := w.Write(entry.data); err != nil {
			t.Fatalf("write %s: %v", entry.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
	return buf.Bytes()
}

// Write stores the archive at dir/name and returns its path.
func (e *EPUB) Write(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, e.Bytes(t), 0o644); err != nil {
		t.Fatalf("write epub: %v", err)
	}
	return p
}

// XHTML wraps body markup in a minimal XHTML document.
func XHTML(title, body string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>%s</title></head>
<body>
%s
</body>
</html>`, title, body)
}

// Paragraphs returns n paragraphs "<p>prefix i</p>" numbered from 1.
func Paragraphs(prefix string, n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "<p>%s %d</p>\n", prefix, i)
	}
	return b.String()
}
