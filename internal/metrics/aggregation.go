package metrics

import "sort"

// Summary aggregates a set of extraction runs.
type Summary struct {
	Count        int `json:"count"`
	SuccessCount int `json:"success_count"`
	ErrorCount   int `json:"error_count"`

	TotalPages       int `json:"total_pages"`
	SkippedDocuments int `json:"skipped_documents"`

	// Latency in seconds, successful runs only
	LatencyAvg float64 `json:"latency_avg"`
	LatencyP50 float64 `json:"latency_p50"`
	LatencyP95 float64 `json:"latency_p95"`
	LatencyMax float64 `json:"latency_max"`
}

// Summarize aggregates metrics.
func Summarize(metrics []Metric) *Summary {
	s := &Summary{Count: len(metrics)}

	var latencies []float64
	for _, m := range metrics {
		if !m.Success {
			s.ErrorCount++
			continue
		}
		s.SuccessCount++
		s.TotalPages += m.Pages
		s.SkippedDocuments += m.SkippedDocuments
		latencies = append(latencies, m.Duration.Seconds())
	}

	if len(latencies) > 0 {
		sort.Float64s(latencies)
		var sum float64
		for _, l := range latencies {
			sum += l
		}
		s.LatencyAvg = sum / float64(len(latencies))
		s.LatencyP50 = percentile(latencies, 50)
		s.LatencyP95 = percentile(latencies, 95)
		s.LatencyMax = latencies[len(latencies)-1]
	}
	return s
}

// percentile calculates the p-th percentile from a sorted slice of values.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	idx := (p / 100.0) * float64(len(sorted)-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	// Linear interpolation
	weight := idx - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
