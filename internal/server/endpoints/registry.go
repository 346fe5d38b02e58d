package endpoints

import (
	"github.com/jackzampolin/reader/internal/api"
	"github.com/jackzampolin/reader/internal/defra"
)

// Config holds dependencies needed by some endpoints.
type Config struct {
	// DefraManager is nil in memory mode or with an external DefraDB.
	DefraManager *defra.DockerManager
}

// All returns all endpoint instances.
func All(cfg Config) []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{DefraManager: cfg.DefraManager},

		// Book endpoints
		&UploadBookEndpoint{},
		&ListBooksEndpoint{},
		&GetBookEndpoint{},
		&BookCoverEndpoint{},
		&DeleteBookEndpoint{},

		// Reader endpoints
		&GetPagesEndpoint{},
		&BuildPagesEndpoint{},
		&InvalidatePagesEndpoint{},
		&AssetEndpoint{},

		// Progress endpoints
		&GetProgressEndpoint{},
		&SaveProgressEndpoint{},

		// Metrics endpoints
		&ListMetricsEndpoint{},
		&MetricsSummaryEndpoint{},

		// Swagger endpoints
		&SwaggerEndpoint{},
		&SwaggerUIEndpoint{},
	}
}
