package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/reader/internal/api"
	"github.com/jackzampolin/reader/internal/books"
	"github.com/jackzampolin/reader/internal/progress"
	"github.com/jackzampolin/reader/internal/svcctx"
)

// ListBooksResponse is the response for listing books.
type ListBooksResponse struct {
	Books []books.Book `json:"books"`
	Total int          `json:"total"`
}

// ListBooksEndpoint handles GET /api/books.
type ListBooksEndpoint struct{}

var _ api.Endpoint = (*ListBooksEndpoint)(nil)

func (e *ListBooksEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/books", e.handler
}

func (e *ListBooksEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List books
//	@Description	List uploaded books, newest first
//	@Tags			books
//	@Produce		json
//	@Success		200	{object}	ListBooksResponse
//	@Failure		500	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/books [get]
func (e *ListBooksEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	library := svcctx.LibraryFrom(r.Context())
	if library == nil {
		writeError(w, http.StatusServiceUnavailable, "library not initialized")
		return
	}

	list, err := library.Store().List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []books.Book{}
	}

	writeJSON(w, http.StatusOK, ListBooksResponse{Books: list, Total: len(list)})
}

func (e *ListBooksEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all books",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ListBooksResponse
			if err := client.Get(cmd.Context(), "/api/books", &resp); err != nil {
				return err
			}
			if api.IsStructuredOutput() {
				return api.Output(resp)
			}
			if resp.Total == 0 {
				fmt.Println("No books.")
				return nil
			}
			fmt.Printf("%-36s  %5s  %s\n", "ID", "PAGES", "TITLE")
			for _, b := range resp.Books {
				fmt.Printf("%-36s  %5d  %s\n", b.ID, b.PageCount, b.Title)
			}
			return nil
		},
	}
}

// BookResponse is a book plus, when requested, one reader's progress in it.
type BookResponse struct {
	*books.Book
	HasCover bool               `json:"has_cover"`
	Progress *progress.Progress `json:"progress,omitempty"`
}

// GetBookEndpoint handles GET /api/books/{book_id}.
type GetBookEndpoint struct{}

var _ api.Endpoint = (*GetBookEndpoint)(nil)

func (e *GetBookEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/books/{book_id}", e.handler
}

func (e *GetBookEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get book by ID
//	@Description	Get a book's metadata, with the reader's progress when reader is given
//	@Tags			books
//	@Produce		json
//	@Param			book_id	path		string	true	"Book ID"
//	@Param			reader	query		string	false	"Reader ID"
//	@Success		200		{object}	BookResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/books/{book_id} [get]
func (e *GetBookEndpoint) handler(w http.ResponseWriter, r *http.Request) {
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

	resp := BookResponse{Book: book, HasCover: book.HasCover()}
	if readerID := r.URL.Query().Get("reader"); readerID != "" {
		if store := svcctx.ProgressFrom(r.Context()); store != nil {
			p, err := store.Get(r.Context(), readerID, book.ID)
			switch {
			case err == nil:
				resp.Progress = p
			case !errors.Is(err, progress.ErrNotFound):
				svcctx.LoggerFrom(r.Context()).Warn("failed to load progress",
					"book_id", book.ID, "reader_id", readerID, "error", err)
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *GetBookEndpoint) Command(getServerURL func() string) *cobra.Command {
	var readerID string
	cmd := &cobra.Command{
		Use:   "get <book-id>",
		Short: "Get book details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/books/" + url.PathEscape(args[0])
			if readerID != "" {
				path += "?reader=" + url.QueryEscape(readerID)
			}

			client := api.NewClient(getServerURL())
			var resp BookResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			if api.IsStructuredOutput() {
				return api.Output(resp)
			}
			printBook(resp.Book)
			fmt.Printf("  Cover:    %t\n", resp.HasCover)
			if p := resp.Progress; p != nil {
				fmt.Printf("  Progress: page %d (reader %s, favorite %t, %s)\n",
					p.Page+1, p.ReaderID, p.Favorite, p.LastRead.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&readerID, "reader", "", "Include this reader's progress")
	return cmd
}

func printBook(b *books.Book) {
	if b == nil {
		return
	}
	fmt.Printf("Book: %s\n", b.ID)
	fmt.Printf("  Title:    %s\n", b.Title)
	if b.Author != "" {
		fmt.Printf("  Author:   %s\n", b.Author)
	}
	fmt.Printf("  File:     %s\n", b.Filename)
	fmt.Printf("  Pages:    %d\n", b.PageCount)
	fmt.Printf("  Uploaded: %s\n", b.UploadedAt.Format("2006-01-02 15:04:05"))
}
