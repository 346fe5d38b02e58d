package schema

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackzampolin/reader/internal/defra"
)

// Initialize applies every collection schema to DefraDB. Collections that
// already exist are left untouched, so it is safe on every startup.
func Initialize(ctx context.Context, client *defra.Client, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	schemas, err := All()
	if err != nil {
		return fmt.Errorf("failed to load schemas: %w", err)
	}

	added := 0
	for _, s := range schemas {
		err := client.AddSchema(ctx, s.SDL)
		switch {
		case err == nil:
			added++
			logger.Debug("schema added", "name", s.Name)
		case isAlreadyExistsError(err):
			logger.Debug("schema already exists", "name", s.Name)
		default:
			return fmt.Errorf("failed to add schema %s: %w", s.Name, err)
		}
	}

	logger.Info("schemas initialized", "total", len(schemas), "added", added)
	return nil
}

// DefraDB is reached over HTTP, so the only signal is the response body.
func isAlreadyExistsError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "already exists")
}
