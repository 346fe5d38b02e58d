// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/jackzampolin/reader/internal/books"
	"github.com/jackzampolin/reader/internal/config"
	"github.com/jackzampolin/reader/internal/defra"
	"github.com/jackzampolin/reader/internal/home"
	"github.com/jackzampolin/reader/internal/jobs"
	"github.com/jackzampolin/reader/internal/metrics"
	"github.com/jackzampolin/reader/internal/progress"
	"github.com/jackzampolin/reader/internal/reader"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
// DefraClient, DefraSink and MetricsQuery are nil when the server runs
// with in-memory stores.
type Services struct {
	DefraClient  *defra.Client
	DefraSink    *defra.Sink
	Library      *books.Library
	Coordinator  *reader.Coordinator
	Progress     progress.Store
	Pool         *jobs.CPUWorkerPool
	Config       *config.Manager
	MetricsQuery *metrics.Query
	Logger       *slog.Logger
	Home         *home.Dir
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// DefraClientFrom extracts the DefraDB client from context.
func DefraClientFrom(ctx context.Context) *defra.Client {
	if s := ServicesFrom(ctx); s != nil {
		return s.DefraClient
	}
	return nil
}

// LibraryFrom extracts the book library from context.
func LibraryFrom(ctx context.Context) *books.Library {
	if s := ServicesFrom(ctx); s != nil {
		return s.Library
	}
	return nil
}

// CoordinatorFrom extracts the pagination coordinator from context.
func CoordinatorFrom(ctx context.Context) *reader.Coordinator {
	if s := ServicesFrom(ctx); s != nil {
		return s.Coordinator
	}
	return nil
}

// ProgressFrom extracts the reading progress store from context.
func ProgressFrom(ctx context.Context) progress.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Progress
	}
	return nil
}

// PoolFrom extracts the extraction worker pool from context.
func PoolFrom(ctx context.Context) *jobs.CPUWorkerPool {
	if s := ServicesFrom(ctx); s != nil {
		return s.Pool
	}
	return nil
}

// ConfigFrom extracts the config manager from context.
func ConfigFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.Config
	}
	return nil
}

// MetricsQueryFrom extracts the metrics query helper from context.
func MetricsQueryFrom(ctx context.Context) *metrics.Query {
	if s := ServicesFrom(ctx); s != nil {
		return s.MetricsQuery
	}
	return nil
}

// LoggerFrom extracts the logger from context, falling back to the default
// logger.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil && s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}
