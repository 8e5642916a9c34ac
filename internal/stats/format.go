package stats

import (
	"fmt"
	"io"
	"time"
)

// WriteText writes the per-step report in human-readable form.
func WriteText(w io.Writer, runID string, summaries []Summary) {
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No steps completed")
		return
	}

	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "stepload - Run %s\n", runID)
	fmt.Fprintln(w, "==============================")
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "%7s %10s %10s %10s %9s %9s %7s %7s %7s %9s\n",
		"users", "total", "ok", "failed", "success", "avg", "p50", "p95", "p99", "req/s")

	var total, failed int64
	for _, s := range summaries {
		fmt.Fprintf(w, "%7d %10s %10s %10s %8.1f%% %7.1fms %5dms %5dms %5dms %9.1f\n",
			s.Users, formatCount(s.Total), formatCount(s.Successful), formatCount(s.Failed),
			s.SuccessRate*100, s.AvgLatencyMs,
			s.P50LatencyMs, s.P95LatencyMs, s.P99LatencyMs, s.RequestsPerSec)
		total += s.Total
		failed += s.Failed
	}

	var elapsed time.Duration
	for _, s := range summaries {
		elapsed += s.Elapsed
	}

	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Steps:          %d\n", len(summaries))
	fmt.Fprintf(w, "Total Requests: %s\n", formatCount(total))
	fmt.Fprintf(w, "Total Failures: %s\n", formatCount(failed))
	fmt.Fprintf(w, "Measured Time:  %v\n", elapsed.Round(time.Millisecond))
}

func formatCount(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%d,%03d", n/1000, n%1000)
}
