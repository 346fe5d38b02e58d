package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/reader/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running reader server via HTTP.

These commands require a running server (reader serve).
Use --server to specify a custom server URL.

Examples:
  reader api health                   # Check server health
  reader api books add book.epub      # Upload a book
  reader api books list               # List all books
  reader api pages get <id> 0         # Read the first page`,
}

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "Book management commands",
}

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "Read and manage paginated books",
}

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Reading progress commands",
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Extraction metrics commands",
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8080", "Server URL",
	)

	// Health endpoints at top level of api
	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ReadyEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.StatusEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.SwaggerEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.SwaggerUIEndpoint{}).Command(getServerURL))

	// Books as subcommand group
	booksCmd.AddCommand((&endpoints.UploadBookEndpoint{}).Command(getServerURL))
	booksCmd.AddCommand((&endpoints.ListBooksEndpoint{}).Command(getServerURL))
	booksCmd.AddCommand((&endpoints.GetBookEndpoint{}).Command(getServerURL))
	booksCmd.AddCommand((&endpoints.BookCoverEndpoint{}).Command(getServerURL))
	booksCmd.AddCommand((&endpoints.DeleteBookEndpoint{}).Command(getServerURL))

	// Pages as subcommand group
	pagesCmd.AddCommand((&endpoints.GetPagesEndpoint{}).Command(getServerURL))
	pagesCmd.AddCommand((&endpoints.BuildPagesEndpoint{}).Command(getServerURL))
	pagesCmd.AddCommand((&endpoints.InvalidatePagesEndpoint{}).Command(getServerURL))
	pagesCmd.AddCommand((&endpoints.AssetEndpoint{}).Command(getServerURL))

	// Progress as subcommand group
	progressCmd.AddCommand((&endpoints.GetProgressEndpoint{}).Command(getServerURL))
	progressCmd.AddCommand((&endpoints.SaveProgressEndpoint{}).Command(getServerURL))

	// Metrics as subcommand group
	metricsCmd.AddCommand((&endpoints.ListMetricsEndpoint{}).Command(getServerURL))
	metricsCmd.AddCommand((&endpoints.MetricsSummaryEndpoint{}).Command(getServerURL))

	apiCmd.AddCommand(booksCmd)
	apiCmd.AddCommand(pagesCmd)
	apiCmd.AddCommand(progressCmd)
	apiCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(apiCmd)
}
