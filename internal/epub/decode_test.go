package epub

import (
	"bytes"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func mustParse(t *testing.T, body string) *html.Node {
	t.Helper()
	n, err := html.Parse(strings.NewReader("<html><body>" + body + "</body></html>"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return n
}

func TestToUTF8(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{
			name: "utf-8 passthrough",
			in:   []byte("<p>naïve café</p>"),
			want: "<p>naïve café</p>",
		},
		{
			name: "xml prolog latin-1",
			in:   []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><p>caf\xe9</p>"),
			want: "café",
		},
		{
			name: "meta charset windows-1252",
			in:   []byte("<html><head><meta charset=\"windows-1252\"></head><body><p>\x93quoted\x94</p></body></html>"),
			want: "\u201cquoted\u201d",
		},
		{
			name: "invalid utf-8 replaced",
			in:   []byte("<?xml version=\"1.0\" encoding=\"UTF-8\"?><p>bad \xff byte</p>"),
			want: "bad \uFFFD byte",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := toUTF8(tt.in)
			if err != nil {
				t.Fatalf("toUTF8() error = %v", err)
			}
			if !bytes.Contains(got, []byte(tt.want)) {
				t.Errorf("toUTF8() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestPaginate_Latin1Document(t *testing.T) {
	data := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n<html><head><title>Caf\xe9</title></head><body><p>na\xefve</p></body></html>")
	pages, err := Paginate(data, Options{})
	if err != nil {
		t.Fatalf("Paginate() error = %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("pages = %d", len(pages))
	}
	if pages[0].Title != "Café" || pages[0].HTML != "<p>naïve</p>" {
		t.Errorf("page = %+v", pages[0])
	}
}
