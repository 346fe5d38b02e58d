package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/jackzampolin/reader/docs/swagger"
	"github.com/jackzampolin/reader/internal/server"
)

var (
	serveHost     string
	servePort     string
	serveMemory   bool
	serveDefraURL string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the reader server",
	Long: `Start the reader HTTP server.

By default this also starts the DefraDB container that stores books, pages,
reading progress and extraction metrics. When the server shuts down (via
Ctrl+C or SIGTERM), DefraDB is also stopped.

With --defra-url the server uses an already running DefraDB and leaves it
alone on shutdown. With --memory nothing is persisted except uploaded files.

Edits to pagination.blocks_per_page and log_level in the config file apply
without a restart; books are paginated again on their next read.

Examples:
  reader serve                      # Start on default port 8080
  reader serve --port 3000          # Start on custom port
  reader serve --host 0.0.0.0       # Bind to all interfaces
  reader serve --memory             # No DefraDB, in-memory stores`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		h, err := getHome()
		if err != nil {
			return err
		}

		cm, err := loadConfig(h)
		if err != nil {
			return err
		}
		cfg := cm.Get()

		level := new(slog.LevelVar)
		level.Set(cfg.SlogLevel())
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		cm.WatchConfig()

		srv, err := server.New(server.Config{
			Host:          serveHost,
			Port:          servePort,
			Home:          h,
			DefraConfig:   dockerConfig(h, cfg),
			DefraURL:      serveDefraURL,
			Memory:        serveMemory,
			ConfigManager: cm,
			LogLevel:      level,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on")
	serveCmd.Flags().BoolVar(&serveMemory, "memory", false, "Keep books, pages and progress in memory (no DefraDB)")
	serveCmd.Flags().StringVar(&serveDefraURL, "defra-url", "", "Use a running DefraDB instead of managing a container")
	serveCmd.MarkFlagsMutuallyExclusive("memory", "defra-url")

	rootCmd.AddCommand(serveCmd)
}
