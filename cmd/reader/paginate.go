package main

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"golang.org/x/net/html"

	"github.com/jackzampolin/reader/internal/api"
	"github.com/jackzampolin/reader/internal/epub"
)

var (
	paginateBlocks    int
	paginateAssetsDir string
	paginateFull      bool
)

// paginateReport is the structured output of the paginate command.
type paginateReport struct {
	Archive   string      `json:"archive" yaml:"archive"`
	Documents int         `json:"documents" yaml:"documents"`
	Skipped   []string    `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Assets    []string    `json:"assets,omitempty" yaml:"assets,omitempty"`
	Pages     []epub.Page `json:"pages" yaml:"pages"`
}

var paginateCmd = &cobra.Command{
	Use:   "paginate <file.epub>",
	Short: "Split an EPUB into pages without a server",
	Long: `Split an EPUB into pages locally and print the result.

Nothing is stored. Images are extracted to a temporary directory unless
--assets names one to keep.

Examples:
  reader paginate book.epub                      # Page list with previews
  reader paginate book.epub --blocks-per-page 10 # Smaller pages
  reader paginate book.epub --full -o json       # Every page's HTML as JSON`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := getHome()
		if err != nil {
			return err
		}
		cm, err := loadConfig(h)
		if err != nil {
			return err
		}
		cfg := cm.Get().Pagination
		if paginateBlocks > 0 {
			cfg.BlocksPerPage = paginateBlocks
		}

		assetDir := paginateAssetsDir
		if assetDir == "" {
			tmp, err := os.MkdirTemp("", "reader-paginate-*")
			if err != nil {
				return err
			}
			defer os.RemoveAll(tmp)
			assetDir = tmp
		}

		walked, err := epub.Walker{MaxEntryBytes: cfg.MaxEntryBytes}.Walk(cmd.Context(), args[0], assetDir)
		if err != nil {
			return err
		}
		res, err := epub.PaginateAll(walked.Documents, epub.Options{
			BookID:        "preview",
			AssetBaseURL:  cfg.AssetBaseURL,
			BlocksPerPage: cfg.BlocksPerPage,
		})
		if err != nil {
			return err
		}

		report := paginateReport{
			Archive:   args[0],
			Documents: res.Documents,
			Skipped:   res.Skipped,
			Assets:    walked.Assets,
			Pages:     res.Pages,
		}
		if api.IsStructuredOutput() {
			if !paginateFull {
				for i := range report.Pages {
					report.Pages[i].HTML = preview(report.Pages[i].HTML, 120)
				}
			}
			return api.Output(report)
		}

		fmt.Printf("%s: %d pages from %d documents, %d assets (%d blocks per page)\n",
			args[0], len(res.Pages), res.Documents, len(walked.Assets), cfg.BlocksPerPage)
		for _, name := range res.Skipped {
			fmt.Printf("  skipped: %s\n", name)
		}
		for _, p := range res.Pages {
			if paginateFull {
				fmt.Printf("--- Page %d: %s ---\n%s\n", p.Number, p.Title, p.HTML)
				continue
			}
			fmt.Printf("%5d  %-30s  %s\n", p.Number, preview(p.Title, 30), preview(p.HTML, 60))
		}
		return nil
	},
}

// preview returns the first n characters of the visible text of markup.
func preview(markup string, n int) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		switch tt {
		case html.TextToken:
			b.Write(z.Text())
		case html.SelfClosingTagToken, html.StartTagToken:
			if name, _ := z.TagName(); string(name) == "img" {
				b.WriteString("[image] ")
			}
		}
	}
	text := strings.Join(strings.Fields(b.String()), " ")
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	return string([]rune(text)[:n-1]) + "…"
}

func init() {
	paginateCmd.Flags().IntVar(&paginateBlocks, "blocks-per-page", 0, "Blocks per page (default from config)")
	paginateCmd.Flags().StringVar(&paginateAssetsDir, "assets", "", "Keep extracted images in this directory")
	paginateCmd.Flags().BoolVar(&paginateFull, "full", false, "Print every page's full HTML")

	rootCmd.AddCommand(paginateCmd)
}
