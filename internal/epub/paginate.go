package epub

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// DefaultBlocksPerPage is the number of ordinary blocks per page.
	DefaultBlocksPerPage = 25

	// DefaultAssetBaseURL prefixes rewritten image references.
	DefaultAssetBaseURL = "/api/book-reader"
)

// Options configures pagination of a book's documents.
type Options struct {
	BookID        string
	AssetBaseURL  string
	BlocksPerPage int
}

func (o Options) withDefaults() Options {
	if o.BlocksPerPage <= 0 {
		o.BlocksPerPage = DefaultBlocksPerPage
	}
	if o.AssetBaseURL == "" {
		o.AssetBaseURL = DefaultAssetBaseURL
	}
	o.AssetBaseURL = strings.TrimSuffix(o.AssetBaseURL, "/")
	return o
}

// AssetURL returns the URL a page uses to reference an extracted asset.
func (o Options) AssetURL(name string) string {
	o = o.withDefaults()
	return o.AssetBaseURL + "/" + url.PathEscape(o.BookID) + "/assets/" + url.PathEscape(name)
}

// Fragment is an unnumbered page produced from one document.
type Fragment struct {
	Title string
	HTML  string
}

// Page is a numbered page produced from a whole archive.
type Page struct {
	Number int
	Title  string
	HTML   string
}

// Result is the pagination of every document of an archive.
type Result struct {
	Pages     []Page
	Documents int
	// Skipped names the documents that could not be decoded.
	Skipped []string
}

// paginateDocument is the per-document step of PaginateAll.
var paginateDocument = Paginate

// PaginateAll paginates docs in order and numbers the pages continuously
// from 1. Documents failing with ErrParse are skipped and recorded.
func PaginateAll(docs []Document, opts Options) (*Result, error) {
	res := &Result{Documents: len(docs)}
	for _, doc := range docs {
		frags, err := paginateDocument(doc.Data, opts)
		if errors.Is(err, ErrParse) {
			res.Skipped = append(res.Skipped, doc.Name)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("paginate %s: %w", doc.Name, err)
		}
		for _, f := range frags {
			res.Pages = append(res.Pages, Page{
				Number: len(res.Pages) + 1,
				Title:  f.Title,
				HTML:   f.HTML,
			})
		}
	}
	return res, nil
}

// Paginate splits one content document into pages. Headings h1-h3,
// paragraphs and blockquotes are taken in document order, nested ones
// included. A paragraph holding a single image becomes a page of its own;
// other blocks are grouped BlocksPerPage at a time.
func Paginate(data []byte, opts Options) ([]Fragment, error) {
	opts = opts.withDefaults()

	data, err := toUTF8(data)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	title := documentTitle(doc)
	pb := newPageBuilder(opts.BlocksPerPage)
	var pages []Fragment
	emit := func(content string) {
		pages = append(pages, Fragment{Title: title, HTML: content})
	}

	for _, block := range selectBlocks(doc) {
		clone := cloneNode(block)
		rewriteImages(clone, opts)

		markup, err := render(clone)
		if err != nil {
			return nil, fmt.Errorf("%w: render: %v", ErrParse, err)
		}

		if isFullImage(clone) {
			if pending, ok := pb.flush(); ok {
				emit(pending)
			}
			emit(strings.TrimSpace(markup))
			continue
		}

		if pb.add(markup) {
			pending, _ := pb.flush()
			emit(pending)
		}
	}
	if pending, ok := pb.flush(); ok {
		emit(pending)
	}

	return pages, nil
}

type builderState int

const (
	stateEmpty builderState = iota
	stateAccumulating
)

// pageBuilder accumulates block markup until a page is flushed.
type pageBuilder struct {
	threshold int
	state     builderState
	blocks    int
	buf       strings.Builder
}

func newPageBuilder(threshold int) *pageBuilder {
	return &pageBuilder{threshold: threshold}
}

// add appends a block and reports whether the page is full.
func (b *pageBuilder) add(markup string) bool {
	b.buf.WriteString(markup)
	b.buf.WriteByte('\n')
	b.blocks++
	b.state = stateAccumulating
	return b.blocks >= b.threshold
}

// flush returns the trimmed pending content and resets the builder.
// ok is false when nothing was pending.
func (b *pageBuilder) flush() (content string, ok bool) {
	if b.state == stateEmpty {
		return "", false
	}
	content = strings.TrimSpace(b.buf.String())
	b.buf.Reset()
	b.blocks = 0
	b.state = stateEmpty
	return content, true
}

var blockAtoms = map[atom.Atom]bool{
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.P:          true,
	atom.Blockquote: true,
}

// selectBlocks returns block elements in depth-first document order.
func selectBlocks(n *html.Node) []*html.Node {
	var blocks []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && blockAtoms[n.DataAtom] {
			blocks = append(blocks, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return blocks
}

func documentTitle(doc *html.Node) string {
	t := findElement(doc, atom.Title)
	if t == nil {
		return ""
	}
	var b strings.Builder
	for c := t.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func cloneNode(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(cloneNode(child))
	}
	return c
}

// rewriteImages points every relative img src at the book's asset route.
// Absolute URLs and data URIs are left alone.
func rewriteImages(n *html.Node, opts Options) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Img {
		for i, a := range n.Attr {
			if a.Namespace != "" || a.Key != "src" {
				continue
			}
			if name := assetRef(a.Val); name != "" {
				n.Attr[i].Val = opts.AssetURL(name)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rewriteImages(c, opts)
	}
}

// assetRef returns the basename an image reference points to, or "" when
// the reference is not to a file inside the archive.
func assetRef(src string) string {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}
	if u, err := url.Parse(src); err == nil {
		if u.Scheme != "" || u.Host != "" {
			return ""
		}
		src = u.Path
	}
	return AssetName(src)
}

// isFullImage reports whether a block is a paragraph whose only element
// child is an img and which holds no other image.
func isFullImage(n *html.Node) bool {
	if n.DataAtom != atom.P {
		return false
	}
	var only *html.Node
	children := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			children++
			only = c
		}
	}
	return children == 1 && only.DataAtom == atom.Img && countImages(n) == 1
}

func countImages(n *html.Node) int {
	count := 0
	if n.Type == html.ElementNode && n.DataAtom == atom.Img {
		count++
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count += countImages(c)
	}
	return count
}

func render(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
