package endpoints

import (
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/reader/internal/api"
	"github.com/jackzampolin/reader/internal/svcctx"
)

// BookCoverEndpoint handles GET /api/books/{book_id}/cover.
type BookCoverEndpoint struct{}

var _ api.Endpoint = (*BookCoverEndpoint)(nil)

func (e *BookCoverEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/books/{book_id}/cover", e.handler
}

func (e *BookCoverEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get book cover
//	@Description	Serve the cover image extracted at upload
//	@Tags			books
//	@Produce		image/jpeg,image/png
//	@Param			book_id	path	string	true	"Book ID"
//	@Success		200
//	@Failure		404	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/books/{book_id}/cover [get]
func (e *BookCoverEndpoint) handler(w http.ResponseWriter, r *http.Request) {
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
	if !book.HasCover() {
		writeError(w, http.StatusNotFound, "book has no cover")
		return
	}

	serveLocalFile(w, r, book.CoverPath, "cover not found")
}

func (e *BookCoverEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "cover <book-id> <output-file>",
		Short: "Download a book's cover image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return downloadTo(cmd, getServerURL(), "/api/books/"+url.PathEscape(args[0])+"/cover", args[1])
		},
	}
}
