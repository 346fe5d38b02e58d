package endpoints

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/reader/internal/api"
	"github.com/jackzampolin/reader/internal/pagecache"
	"github.com/jackzampolin/reader/internal/reader"
	"github.com/jackzampolin/reader/internal/svcctx"
)

// PageResponse is one page of a window.
type PageResponse struct {
	PageNum int    `json:"page_num"`
	Title   string `json:"title"`
	HTML    string `json:"html"`
}

// WindowResponse is a run of pages plus the book's page total.
type WindowResponse struct {
	Pages      []PageResponse `json:"pages"`
	TotalPages int            `json:"total_pages"`
}

func windowResponse(win pagecache.Window) WindowResponse {
	resp := WindowResponse{Pages: make([]PageResponse, 0, len(win.Pages)), TotalPages: win.Total}
	for _, p := range win.Pages {
		resp.Pages = append(resp.Pages, PageResponse{PageNum: p.PageNum, Title: p.Title, HTML: p.HTML})
	}
	return resp
}

// GetPagesEndpoint handles GET /api/book-reader/{book_id}/{page}.
type GetPagesEndpoint struct{}

var _ api.Endpoint = (*GetPagesEndpoint)(nil)

func (e *GetPagesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/book-reader/{book_id}/{page}", e.handler
}

func (e *GetPagesEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Read pages
//	@Description	Return window {page} of {size} pages (pages page*size+1 through page*size+size).
//	@Description	The book is paginated on first read. A window past the end has no pages.
//	@Tags			reader
//	@Produce		json
//	@Param			book_id	path		string	true	"Book ID"
//	@Param			page	path		int		true	"0-based window index"
//	@Param			size	query		int		false	"Pages per window (default 1, max 100)"
//	@Param			reader	query		string	false	"Reader ID; records reading progress"
//	@Success		200		{object}	WindowResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/book-reader/{book_id}/{page} [get]
func (e *GetPagesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("page"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid page index")
		return
	}
	size := 1
	if s := r.URL.Query().Get("size"); s != "" {
		if size, err = strconv.Atoi(s); err != nil {
			writeError(w, http.StatusBadRequest, "invalid size")
			return
		}
	}

	coordinator := svcctx.CoordinatorFrom(r.Context())
	if coordinator == nil {
		writeError(w, http.StatusServiceUnavailable, "reader not initialized")
		return
	}

	bookID := r.PathValue("book_id")
	win, err := coordinator.GetWindow(r.Context(), bookID, index, size)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if readerID := r.URL.Query().Get("reader"); readerID != "" && len(win.Pages) > 0 {
		if store := svcctx.ProgressFrom(r.Context()); store != nil {
			store.Record(readerID, bookID, win.Pages[0].PageNum-1)
		}
	}

	writeJSON(w, http.StatusOK, windowResponse(win))
}

func (e *GetPagesEndpoint) Command(getServerURL func() string) *cobra.Command {
	var size int
	var readerID string
	cmd := &cobra.Command{
		Use:   "get <book-id> [window]",
		Short: "Read a window of pages",
		Long: `Read a window of pages. Window 0 with size 1 is the first page.

The first read of a book splits it into pages, which can take a while for
large archives.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index := "0"
			if len(args) == 2 {
				index = args[1]
			}
			q := url.Values{}
			q.Set("size", strconv.Itoa(size))
			if readerID != "" {
				q.Set("reader", readerID)
			}
			path := fmt.Sprintf("/api/book-reader/%s/%s?%s", url.PathEscape(args[0]), url.PathEscape(index), q.Encode())

			client := api.NewClient(getServerURL())
			var resp WindowResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			if api.IsStructuredOutput() {
				return api.Output(resp)
			}
			if len(resp.Pages) == 0 {
				fmt.Printf("No pages in this window (book has %d pages)\n", resp.TotalPages)
				return nil
			}
			for _, p := range resp.Pages {
				fmt.Printf("--- Page %d/%d: %s ---\n", p.PageNum, resp.TotalPages, p.Title)
				fmt.Println(p.HTML)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&size, "size", 1, "Pages per window (max 100)")
	cmd.Flags().StringVar(&readerID, "reader", "", "Record progress for this reader")
	return cmd
}

// BuildPagesEndpoint handles POST /api/book-reader/{book_id}/pages.
type BuildPagesEndpoint struct{}

var _ api.Endpoint = (*BuildPagesEndpoint)(nil)

func (e *BuildPagesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/book-reader/{book_id}/pages", e.handler
}

func (e *BuildPagesEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Paginate a book
//	@Description	Split the book into pages now instead of on first read. Cached books return immediately.
//	@Tags			reader
//	@Produce		json
//	@Param			book_id	path		string	true	"Book ID"
//	@Success		200		{object}	reader.Extraction
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/book-reader/{book_id}/pages [post]
func (e *BuildPagesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	coordinator := svcctx.CoordinatorFrom(r.Context())
	if coordinator == nil {
		writeError(w, http.StatusServiceUnavailable, "reader not initialized")
		return
	}

	ext, err := coordinator.EnsurePaginated(r.Context(), r.PathValue("book_id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ext)
}

func (e *BuildPagesEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "build <book-id>",
		Short: "Paginate a book ahead of its first read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var ext reader.Extraction
			if err := client.Post(cmd.Context(), "/api/book-reader/"+url.PathEscape(args[0])+"/pages", nil, &ext); err != nil {
				return err
			}
			if api.IsStructuredOutput() {
				return api.Output(ext)
			}
			if ext.Cached {
				fmt.Printf("Book %s already paginated: %d pages\n", ext.BookID, ext.Pages)
				return nil
			}
			fmt.Printf("Paginated book %s: %d pages from %d documents, %d assets in %s\n",
				ext.BookID, ext.Pages, ext.Documents, ext.Assets, ext.Duration)
			for _, name := range ext.Skipped {
				fmt.Printf("  skipped: %s\n", name)
			}
			return nil
		},
	}
}

// InvalidateResponse confirms a page cache invalidation.
type InvalidateResponse struct {
	BookID string `json:"book_id"`
	Status string `json:"status"`
}

// InvalidatePagesEndpoint handles DELETE /api/book-reader/{book_id}/pages.
type InvalidatePagesEndpoint struct{}

var _ api.Endpoint = (*InvalidatePagesEndpoint)(nil)

func (e *InvalidatePagesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/book-reader/{book_id}/pages", e.handler
}

func (e *InvalidatePagesEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Invalidate page cache
//	@Description	Delete the book's pages; the next read paginates it again
//	@Tags			reader
//	@Produce		json
//	@Param			book_id	path		string	true	"Book ID"
//	@Success		200		{object}	InvalidateResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/book-reader/{book_id}/pages [delete]
func (e *InvalidatePagesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	coordinator := svcctx.CoordinatorFrom(r.Context())
	if coordinator == nil {
		writeError(w, http.StatusServiceUnavailable, "reader not initialized")
		return
	}

	bookID := r.PathValue("book_id")
	if err := coordinator.Invalidate(r.Context(), bookID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, InvalidateResponse{BookID: bookID, Status: "invalidated"})
}

func (e *InvalidatePagesEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate <book-id>",
		Short: "Drop a book's cached pages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp InvalidateResponse
			if err := client.Delete(cmd.Context(), "/api/book-reader/"+url.PathEscape(args[0])+"/pages", &resp); err != nil {
				return err
			}
			if api.IsStructuredOutput() {
				return api.Output(resp)
			}
			fmt.Printf("Invalidated pages for %s\n", resp.BookID)
			return nil
		},
	}
}
