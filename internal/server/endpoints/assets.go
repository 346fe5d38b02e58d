package endpoints

import (
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/reader/internal/api"
	"github.com/jackzampolin/reader/internal/home"
	"github.com/jackzampolin/reader/internal/svcctx"
)

var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".webp": "image/webp",
	".bmp":  "image/bmp",
}

// contentTypeFor picks a content type from the file extension.
func contentTypeFor(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ct, ok := imageTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// serveLocalFile streams path with a content type chosen by extension.
// Missing files are 404.
func serveLocalFile(w http.ResponseWriter, r *http.Request, path, notFound string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		writeError(w, http.StatusNotFound, notFound)
		return
	}
	w.Header().Set("Content-Type", contentTypeFor(path))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, path)
}

// AssetEndpoint handles GET /api/book-reader/{book_id}/assets/{filename}.
type AssetEndpoint struct{}

var _ api.Endpoint = (*AssetEndpoint)(nil)

func (e *AssetEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/book-reader/{book_id}/assets/{filename}", e.handler
}

func (e *AssetEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get a book asset
//	@Description	Serve an image extracted while paginating the book. Only plain file names are accepted.
//	@Tags			reader
//	@Produce		octet-stream
//	@Param			book_id		path	string	true	"Book ID"
//	@Param			filename	path	string	true	"Asset file name"
//	@Success		200
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/book-reader/{book_id}/assets/{filename} [get]
func (e *AssetEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")
	if !isPlainFilename(name) {
		writeError(w, http.StatusBadRequest, "invalid asset name")
		return
	}

	library := svcctx.LibraryFrom(r.Context())
	if library == nil {
		writeError(w, http.StatusServiceUnavailable, "library not initialized")
		return
	}

	book, err := library.Store().Get(r.Context(), r.PathValue("book_id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	serveLocalFile(w, r, filepath.Join(home.AssetsDirFor(book.ArchivePath), name), "asset not found")
}

// isPlainFilename rejects anything that could leave the assets directory.
func isPlainFilename(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}

func (e *AssetEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "asset <book-id> <filename> <output-file>",
		Short: "Download an extracted book image",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/api/book-reader/%s/assets/%s", url.PathEscape(args[0]), url.PathEscape(args[1]))
			return downloadTo(cmd, getServerURL(), path, args[2])
		},
	}
}

// downloadTo saves the response body of path to a local file.
func downloadTo(cmd *cobra.Command, serverURL, path, outFile string) error {
	f, err := os.Create(outFile)
	if err != nil {
		return err
	}
	if err := api.NewClient(serverURL).Download(cmd.Context(), path, f); err != nil {
		f.Close()
		os.Remove(outFile)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("Saved %s\n", outFile)
	return nil
}
