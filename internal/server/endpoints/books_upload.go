package endpoints

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/reader/internal/api"
	"github.com/jackzampolin/reader/internal/books"
	"github.com/jackzampolin/reader/internal/svcctx"
)

// UploadBookEndpoint handles POST /api/books with a multipart EPUB upload.
type UploadBookEndpoint struct{}

var _ api.Endpoint = (*UploadBookEndpoint)(nil)

func (e *UploadBookEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/books", e.handler
}

func (e *UploadBookEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Upload a book
//	@Description	Upload an EPUB archive. Pages are produced on first read.
//	@Tags			books
//	@Accept			mpfd
//	@Produce		json
//	@Param			file		formData	file	true	"EPUB archive"
//	@Param			title		formData	string	false	"Book title (derived from filename if not provided)"
//	@Param			author		formData	string	false	"Book author"
//	@Param			description	formData	string	false	"Book description"
//	@Success		201			{object}	books.Book
//	@Failure		400			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Failure		503			{object}	ErrorResponse
//	@Router			/api/books [post]
func (e *UploadBookEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	// Larger archives spill to temp files
	const maxMemory = 32 << 20
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, fh, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	library := svcctx.LibraryFrom(r.Context())
	if library == nil {
		writeError(w, http.StatusServiceUnavailable, "library not initialized")
		return
	}

	book, err := library.Add(r.Context(), books.Upload{
		Filename:    fh.Filename,
		Title:       r.FormValue("title"),
		Author:      r.FormValue("author"),
		Description: r.FormValue("description"),
		Body:        file,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, book)
}

func (e *UploadBookEndpoint) Command(getServerURL func() string) *cobra.Command {
	var title, author, description string
	cmd := &cobra.Command{
		Use:   "add <file.epub>",
		Short: "Upload an EPUB to the library",
		Long: `Upload an EPUB archive to the library.

Title is derived from the filename if not provided. The book is split into
pages the first time it is read, or with 'reader api pages build'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var book books.Book
			if err := client.Upload(cmd.Context(), "/api/books", args[0], map[string]string{
				"title":       title,
				"author":      author,
				"description": description,
			}, &book); err != nil {
				return err
			}
			if api.IsStructuredOutput() {
				return api.Output(book)
			}
			fmt.Printf("Added book %s\n", book.ID)
			fmt.Printf("  Title: %s\n", book.Title)
			if book.Author != "" {
				fmt.Printf("  Author: %s\n", book.Author)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Book title (derived from filename if not provided)")
	cmd.Flags().StringVar(&author, "author", "", "Book author")
	cmd.Flags().StringVar(&description, "description", "", "Book description")
	return cmd
}
