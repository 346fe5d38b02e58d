package epub

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackzampolin/reader/internal/testutil"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want EntryKind
	}{
		{"OEBPS/images/cover.jpg", KindImage},
		{"OEBPS/images/PHOTO.JPEG", KindImage},
		{"img/a.png", KindImage},
		{"img/anim.gif", KindImage},
		{"img/logo.SVG", KindImage},
		{"OEBPS/chapter1.xhtml", KindDocument},
		{"OEBPS/Text/part2.HTML", KindDocument},
		{"OEBPS/toc.xhtml", KindIgnored},
		{"OEBPS/TOC.html", KindIgnored},
		{"OEBPS/Text/photocopy.xhtml", KindIgnored}, // "toc" appears inside the name
		{"OEBPS/content.opf", KindIgnored},
		{"OEBPS/toc.ncx", KindIgnored},
		{"OEBPS/styles/style.css", KindIgnored},
		{"mimetype", KindIgnored},
		{"OEBPS/images/", KindIgnored},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.name); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestAssetName(t *testing.T) {
	tests := map[string]string{
		"a.png":              "a.png",
		"OEBPS/images/a.png": "a.png",
		"../../evil.png":     "evil.png",
		`..\..\win.png`:      "win.png",
		"/abs/path/x.gif":    "x.gif",
		"":                   "",
		".":                  "",
		"..":                 "",
		"/":                  "",
	}
	for in, want := range tests {
		if got := AssetName(in); got != want {
			t.Errorf("AssetName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWalk_ClassifiesAndExtracts(t *testing.T) {
	dir := t.TempDir()
	archive := testutil.NewEPUB().
		Raw("OEBPS/content.opf", []byte("<package/>")).
		Raw("OEBPS/toc.xhtml", []byte(testutil.XHTML("Contents", "<p>toc</p>"))).
		Chapter("OEBPS/ch1.xhtml", "One", "<p>first</p>").
		Raw("OEBPS/images/fig.png", testutil.PNG).
		Chapter("OEBPS/ch2.html", "Two", "<p>second</p>").
		Raw("OEBPS/style.css", []byte("p{}")).
		Write(t, dir, "book.epub")

	assetDir := filepath.Join(dir, "assets")
	res, err := Walk(context.Background(), archive, assetDir)
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	if len(res.Documents) != 2 {
		t.Fatalf("documents = %d, want 2", len(res.Documents))
	}
	if res.Documents[0].Name != "OEBPS/ch1.xhtml" || res.Documents[1].Name != "OEBPS/ch2.html" {
		t.Errorf("document order = %s, %s", res.Documents[0].Name, res.Documents[1].Name)
	}
	if len(res.Assets) != 1 || res.Assets[0] != "fig.png" {
		t.Errorf("assets = %v", res.Assets)
	}
	// container.xml, content.opf, toc.xhtml, style.css, mimetype
	if res.Ignored != 5 {
		t.Errorf("ignored = %d, want 5", res.Ignored)
	}

	got, err := os.ReadFile(filepath.Join(assetDir, "fig.png"))
	if err != nil {
		t.Fatalf("asset not extracted: %v", err)
	}
	if string(got) != string(testutil.PNG) {
		t.Error("asset content mismatch")
	}
}

func TestWalk_AssetPathSafety(t *testing.T) {
	dir := t.TempDir()
	archive := testutil.NewEPUB().
		Raw("../../evil.png", []byte("evil")).
		Raw("deep/nested/dirs/pic.jpg", []byte("pic")).
		Write(t, dir, "book.epub")

	assetDir := filepath.Join(dir, "books", "b1", "assets")
	if _, err := Walk(context.Background(), archive, assetDir); err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	for _, name := range []string{"evil.png", "pic.jpg"} {
		if _, err := os.Stat(filepath.Join(assetDir, name)); err != nil {
			t.Errorf("%s not in asset dir: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "books", "evil.png")); !os.IsNotExist(err) {
		t.Errorf("evil.png escaped the asset directory")
	}
	if _, err := os.Stat(filepath.Join(assetDir, "deep")); !os.IsNotExist(err) {
		t.Errorf("nested directories were created in the asset directory")
	}
}

func TestWalk_DuplicateBasenameLastWins(t *testing.T) {
	dir := t.TempDir()
	archive := testutil.NewEPUB().
		Raw("a/pic.png", []byte("first")).
		Raw("b/pic.png", []byte("second")).
		Write(t, dir, "book.epub")

	assetDir := filepath.Join(dir, "assets")
	res, err := Walk(context.Background(), archive, assetDir)
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if len(res.Assets) != 2 {
		t.Errorf("assets = %v, want two writes", res.Assets)
	}
	got, _ := os.ReadFile(filepath.Join(assetDir, "pic.png"))
	if string(got) != "second" {
		t.Errorf("pic.png = %q, want %q", got, "second")
	}
}

func TestWalk_OverwritesExistingAsset(t *testing.T) {
	dir := t.TempDir()
	assetDir := filepath.Join(dir, "assets")
	if err := os.MkdirAll(assetDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(assetDir, "pic.png"), []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	archive := testutil.NewEPUB().Raw("pic.png", []byte("fresh")).Write(t, dir, "book.epub")
	if _, err := Walk(context.Background(), archive, assetDir); err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	got, _ := os.ReadFile(filepath.Join(assetDir, "pic.png"))
	if string(got) != "fresh" {
		t.Errorf("pic.png = %q, want fresh", got)
	}
}

func TestWalk_Errors(t *testing.T) {
	dir := t.TempDir()

	corrupt := filepath.Join(dir, "corrupt.epub")
	if err := os.WriteFile(corrupt, []byte("this is not a zip archive"), 0o644); err != nil {
		t.Fatal(err)
	}

	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	valid := testutil.NewEPUB().Raw("pic.png", testutil.PNG).Write(t, dir, "valid.epub")

	tests := []struct {
		name     string
		archive  string
		assetDir string
		want     error
	}{
		{"missing archive", filepath.Join(dir, "nope.epub"), filepath.Join(dir, "a1"), ErrArchiveRead},
		{"corrupt archive", corrupt, filepath.Join(dir, "a2"), ErrArchiveRead},
		{"asset dir under a file", valid, filepath.Join(blocker, "assets"), ErrAssetWrite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Walk(context.Background(), tt.archive, tt.assetDir)
			if !errors.Is(err, tt.want) {
				t.Errorf("Walk() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestWalk_EntryLimit(t *testing.T) {
	dir := t.TempDir()
	archive := testutil.NewEPUB().
		Chapter("ch1.xhtml", "One", testutil.Paragraphs("long", 50)).
		Write(t, dir, "book.epub")

	_, err := Walker{MaxEntryBytes: 64}.Walk(context.Background(), archive, filepath.Join(dir, "assets"))
	if !errors.Is(err, ErrArchiveRead) {
		t.Errorf("Walk() error = %v, want ErrArchiveRead", err)
	}
}

func TestWalk_ContextCancelled(t *testing.T) {
	dir := t.TempDir()
	archive := testutil.NewEPUB().Chapter("ch1.xhtml", "One", "<p>x</p>").Write(t, dir, "book.epub")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Walk(ctx, archive, filepath.Join(dir, "assets")); !errors.Is(err, context.Canceled) {
		t.Errorf("Walk() error = %v, want context.Canceled", err)
	}
}

func TestExtractCover(t *testing.T) {
	dir := t.TempDir()
	archive := testutil.NewEPUB().
		Raw("OEBPS/images/fig1.png", []byte("fig")).
		Raw("OEBPS/images/Cover.JPG", []byte("cover")).
		Raw("OEBPS/images/cover-back.png", []byte("back")).
		Write(t, dir, "book.epub")

	got, err := ExtractCover(archive, filepath.Join(dir, "out"))
	if err != nil {
		t.Fatalf("ExtractCover() error = %v", err)
	}
	if filepath.Base(got) != "cover.jpg" {
		t.Errorf("cover path = %s", got)
	}
	data, _ := os.ReadFile(got)
	if string(data) != "cover" {
		t.Errorf("cover content = %q", data)
	}
}

func TestExtractCover_None(t *testing.T) {
	dir := t.TempDir()
	archive := testutil.NewEPUB().
		Raw("OEBPS/images/fig1.png", []byte("fig")).
		Raw("OEBPS/cover.xhtml", []byte("<p/>")).
		Write(t, dir, "book.epub")

	if _, err := ExtractCover(archive, dir); !errors.Is(err, ErrNoCover) {
		t.Errorf("ExtractCover() error = %v, want ErrNoCover", err)
	}
}
