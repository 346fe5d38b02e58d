package endpoints

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/reader/internal/api"
	"github.com/jackzampolin/reader/internal/metrics"
	"github.com/jackzampolin/reader/internal/svcctx"
)

// ListMetricsResponse lists extraction runs, newest first.
type ListMetricsResponse struct {
	Metrics []metrics.Metric `json:"metrics"`
}

func metricsFilter(r *http.Request) (metrics.Filter, error) {
	q := r.URL.Query()
	f := metrics.Filter{BookID: q.Get("book_id")}
	if s := q.Get("success"); s != "" {
		ok, err := strconv.ParseBool(s)
		if err != nil {
			return f, fmt.Errorf("invalid success %q", s)
		}
		f.Success = &ok
	}
	return f, nil
}

// ListMetricsEndpoint handles GET /api/metrics.
type ListMetricsEndpoint struct{}

var _ api.Endpoint = (*ListMetricsEndpoint)(nil)

func (e *ListMetricsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/metrics", e.handler
}

func (e *ListMetricsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List extraction metrics
//	@Description	One record per pagination run. Requires DefraDB.
//	@Tags			metrics
//	@Produce		json
//	@Param			book_id	query		string	false	"Filter by book"
//	@Param			success	query		bool	false	"Filter by outcome"
//	@Param			limit	query		int		false	"Maximum records (default 50)"
//	@Success		200		{object}	ListMetricsResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/metrics [get]
func (e *ListMetricsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	query := svcctx.MetricsQueryFrom(r.Context())
	if query == nil {
		writeError(w, http.StatusServiceUnavailable, "metrics require DefraDB")
		return
	}

	f, err := metricsFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if limit, err = strconv.Atoi(s); err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}

	list, err := query.List(r.Context(), f, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListMetricsResponse{Metrics: list})
}

func (e *ListMetricsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var bookID string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent extraction runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("limit", strconv.Itoa(limit))
			if bookID != "" {
				q.Set("book_id", bookID)
			}

			client := api.NewClient(getServerURL())
			var resp ListMetricsResponse
			if err := client.Get(cmd.Context(), "/api/metrics?"+q.Encode(), &resp); err != nil {
				return err
			}
			if api.IsStructuredOutput() {
				return api.Output(resp)
			}
			for _, m := range resp.Metrics {
				status := "ok"
				if !m.Success {
					status = "error: " + m.Error
				}
				fmt.Printf("%s  %-36s  %4d pages  %8s  %s\n",
					m.CreatedAt.Format("2006-01-02 15:04:05"), m.BookID, m.Pages, m.Duration, status)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&bookID, "book", "", "Filter by book ID")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum records")
	return cmd
}

// MetricsSummaryEndpoint handles GET /api/metrics/summary.
type MetricsSummaryEndpoint struct{}

var _ api.Endpoint = (*MetricsSummaryEndpoint)(nil)

func (e *MetricsSummaryEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/metrics/summary", e.handler
}

func (e *MetricsSummaryEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Summarize extraction metrics
//	@Description	Counts and latency percentiles across pagination runs. Requires DefraDB.
//	@Tags			metrics
//	@Produce		json
//	@Param			book_id	query		string	false	"Filter by book"
//	@Param			success	query		bool	false	"Filter by outcome"
//	@Success		200		{object}	metrics.Summary
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/metrics/summary [get]
func (e *MetricsSummaryEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	query := svcctx.MetricsQueryFrom(r.Context())
	if query == nil {
		writeError(w, http.StatusServiceUnavailable, "metrics require DefraDB")
		return
	}

	f, err := metricsFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := query.Summary(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (e *MetricsSummaryEndpoint) Command(getServerURL func() string) *cobra.Command {
	var bookID string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize extraction runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/metrics/summary"
			if bookID != "" {
				path += "?book_id=" + url.QueryEscape(bookID)
			}

			client := api.NewClient(getServerURL())
			var s metrics.Summary
			if err := client.Get(cmd.Context(), path, &s); err != nil {
				return err
			}
			if api.IsStructuredOutput() {
				return api.Output(s)
			}
			fmt.Printf("Runs:    %d (%d ok, %d failed)\n", s.Count, s.SuccessCount, s.ErrorCount)
			fmt.Printf("Pages:   %d\n", s.TotalPages)
			fmt.Printf("Skipped: %d documents\n", s.SkippedDocuments)
			fmt.Printf("Latency: avg %.2fs  p50 %.2fs  p95 %.2fs  max %.2fs\n",
				s.LatencyAvg, s.LatencyP50, s.LatencyP95, s.LatencyMax)
			return nil
		},
	}
	cmd.Flags().StringVar(&bookID, "book", "", "Filter by book ID")
	return cmd
}
