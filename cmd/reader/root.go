package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/reader/internal/api"
	"github.com/jackzampolin/reader/internal/config"
	"github.com/jackzampolin/reader/internal/home"
	"github.com/jackzampolin/reader/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "reader",
	Short: "E-book reading service",
	Long: `Reader serves uploaded EPUB books page by page.

Each book is split into pages the first time it is read:
  - Chapters are walked in archive order
  - Paragraphs, headings and lists are grouped into pages of a fixed size
  - Images get a page of their own and are served from the book's assets
  - Pages are cached, so every later read is a lookup`,
	Version:      version.GitRelease,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.reader/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "reader home directory (default: ~/.reader)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "text", "output format: text, yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads --config, or the home directory's config.yaml when it
// exists, falling back to viper's search path.
func loadConfig(h *home.Dir) (*config.Manager, error) {
	path := cfgFile
	if path == "" && h != nil && h.ConfigExists() {
		path = h.ConfigPath()
	}
	return config.NewManager(path)
}
