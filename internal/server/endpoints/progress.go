package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/reader/internal/api"
	"github.com/jackzampolin/reader/internal/progress"
	"github.com/jackzampolin/reader/internal/svcctx"
)

// GetProgressEndpoint handles GET /api/progress/{book_id}.
type GetProgressEndpoint struct{}

var _ api.Endpoint = (*GetProgressEndpoint)(nil)

func (e *GetProgressEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/progress/{book_id}", e.handler
}

func (e *GetProgressEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary	Get reading progress
//	@Tags		progress
//	@Produce	json
//	@Param		book_id	path		string	true	"Book ID"
//	@Param		reader	query		string	true	"Reader ID"
//	@Success	200		{object}	progress.Progress
//	@Failure	400		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Failure	503		{object}	ErrorResponse
//	@Router		/api/progress/{book_id} [get]
func (e *GetProgressEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	readerID := r.URL.Query().Get("reader")
	if readerID == "" {
		writeError(w, http.StatusBadRequest, "reader is required")
		return
	}

	store := svcctx.ProgressFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "progress store not initialized")
		return
	}

	p, err := store.Get(r.Context(), readerID, r.PathValue("book_id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (e *GetProgressEndpoint) Command(getServerURL func() string) *cobra.Command {
	var readerID string
	cmd := &cobra.Command{
		Use:   "get <book-id>",
		Short: "Show a reader's position in a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var p progress.Progress
			path := "/api/progress/" + url.PathEscape(args[0]) + "?reader=" + url.QueryEscape(readerID)
			if err := client.Get(cmd.Context(), path, &p); err != nil {
				return err
			}
			if api.IsStructuredOutput() {
				return api.Output(p)
			}
			printProgress(&p)
			return nil
		},
	}
	cmd.Flags().StringVar(&readerID, "reader", "", "Reader ID (required)")
	cmd.MarkFlagRequired("reader")
	return cmd
}

// SaveProgressRequest sets a reader's position and favorite flag.
type SaveProgressRequest struct {
	Page     int  `json:"page"`
	Favorite bool `json:"favorite"`
}

// SaveProgressEndpoint handles PUT /api/progress/{book_id}.
type SaveProgressEndpoint struct{}

var _ api.Endpoint = (*SaveProgressEndpoint)(nil)

func (e *SaveProgressEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PUT", "/api/progress/{book_id}", e.handler
}

func (e *SaveProgressEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Save reading progress
//	@Description	Set the reader's 0-based page index and favorite flag for a book
//	@Tags			progress
//	@Accept			json
//	@Produce		json
//	@Param			book_id	path		string				true	"Book ID"
//	@Param			reader	query		string				true	"Reader ID"
//	@Param			request	body		SaveProgressRequest	true	"Progress"
//	@Success		200		{object}	progress.Progress
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/progress/{book_id} [put]
func (e *SaveProgressEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	readerID := r.URL.Query().Get("reader")
	if readerID == "" {
		writeError(w, http.StatusBadRequest, "reader is required")
		return
	}

	var req SaveProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Page < 0 {
		writeError(w, http.StatusBadRequest, "page must not be negative")
		return
	}

	library := svcctx.LibraryFrom(r.Context())
	store := svcctx.ProgressFrom(r.Context())
	if library == nil || store == nil {
		writeError(w, http.StatusServiceUnavailable, "services not initialized")
		return
	}

	book, err := library.Store().Get(r.Context(), r.PathValue("book_id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	p := progress.Progress{
		ReaderID: readerID,
		BookID:   book.ID,
		Page:     req.Page,
		Favorite: req.Favorite,
		LastRead: time.Now().UTC(),
	}
	if err := store.Save(r.Context(), p); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (e *SaveProgressEndpoint) Command(getServerURL func() string) *cobra.Command {
	var readerID string
	var favorite bool
	cmd := &cobra.Command{
		Use:   "set <book-id> <page>",
		Short: "Set a reader's position in a book",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var page int
			if _, err := fmt.Sscanf(args[1], "%d", &page); err != nil {
				return fmt.Errorf("invalid page %q", args[1])
			}

			client := api.NewClient(getServerURL())
			var p progress.Progress
			path := "/api/progress/" + url.PathEscape(args[0]) + "?reader=" + url.QueryEscape(readerID)
			if err := client.Put(cmd.Context(), path, SaveProgressRequest{Page: page, Favorite: favorite}, &p); err != nil {
				return err
			}
			if api.IsStructuredOutput() {
				return api.Output(p)
			}
			printProgress(&p)
			return nil
		},
	}
	cmd.Flags().StringVar(&readerID, "reader", "", "Reader ID (required)")
	cmd.Flags().BoolVar(&favorite, "favorite", false, "Mark the book as a favorite")
	cmd.MarkFlagRequired("reader")
	return cmd
}

func printProgress(p *progress.Progress) {
	fmt.Printf("Reader %s in %s\n", p.ReaderID, p.BookID)
	fmt.Printf("  Page:      %d\n", p.Page)
	fmt.Printf("  Favorite:  %t\n", p.Favorite)
	fmt.Printf("  Last read: %s\n", p.LastRead.Format("2006-01-02 15:04:05"))
}
