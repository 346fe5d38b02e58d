package endpoints

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/reader/internal/api"
	"github.com/jackzampolin/reader/internal/svcctx"
)

// DeleteBookResponse confirms a deletion.
type DeleteBookResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// DeleteBookEndpoint handles DELETE /api/books/{book_id}.
type DeleteBookEndpoint struct{}

var _ api.Endpoint = (*DeleteBookEndpoint)(nil)

func (e *DeleteBookEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/books/{book_id}", e.handler
}

func (e *DeleteBookEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Delete a book
//	@Description	Delete a book with its pages, reading progress and files
//	@Tags			books
//	@Produce		json
//	@Param			book_id	path		string	true	"Book ID"
//	@Success		200		{object}	DeleteBookResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/books/{book_id} [delete]
func (e *DeleteBookEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	library := svcctx.LibraryFrom(ctx)
	coordinator := svcctx.CoordinatorFrom(ctx)
	store := svcctx.ProgressFrom(ctx)
	if library == nil || coordinator == nil || store == nil {
		writeError(w, http.StatusServiceUnavailable, "services not initialized")
		return
	}

	bookID := r.PathValue("book_id")

	// The book lock is held throughout, so no extraction can recreate
	// files of a book that is going away.
	err := coordinator.Delete(ctx, bookID, func(ctx context.Context) error {
		if err := store.DeleteBook(ctx, bookID); err != nil {
			return err
		}
		return library.Remove(ctx, bookID)
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, DeleteBookResponse{ID: bookID, Status: "deleted"})
}

func (e *DeleteBookEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <book-id>",
		Short: "Delete a book and everything derived from it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp DeleteBookResponse
			if err := client.Delete(cmd.Context(), "/api/books/"+url.PathEscape(args[0]), &resp); err != nil {
				return err
			}
			if api.IsStructuredOutput() {
				return api.Output(resp)
			}
			fmt.Printf("Deleted book %s\n", resp.ID)
			return nil
		},
	}
}
