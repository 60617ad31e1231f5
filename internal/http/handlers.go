package http

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"lunchreports/internal/core"
	"lunchreports/internal/log"
	"lunchreports/internal/render"
)

var templateFuncs = template.FuncMap{
	"rowClass": func(k render.RowKind) string {
		switch k {
		case render.RowGroup:
			return "group-row"
		case render.RowTotal:
			return "total-row"
		}
		return ""
	},
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(health)
}

// handleReady reports whether templates are loaded and the store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if err := s.store.Ping(ctx); err != nil {
		checks["storage"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["storage"] = "ok"
	}

	if s.publisher != nil {
		checks["exports"] = "ok"
	} else {
		checks["exports"] = "not_configured"
	}

	stats := s.reportCache.Stats()
	checks["cache"] = map[string]interface{}{
		"report_entries": stats.Entries,
		"status":         "ok",
	}
	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	response := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}

	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(response)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()
	cacheStats := s.reportCache.Stats()
	uptime := time.Since(s.appMetrics.uptime)

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_request_duration_microseconds_avg Average request duration\n")
	fmt.Fprintf(w, "# TYPE http_request_duration_microseconds_avg gauge\n")
	fmt.Fprintf(w, "http_request_duration_microseconds_avg %d\n\n", traceMetrics.AverageResponseTime)

	fmt.Fprintf(w, "# HELP orders_created_total Total number of orders placed\n")
	fmt.Fprintf(w, "# TYPE orders_created_total counter\n")
	fmt.Fprintf(w, "orders_created_total %d\n\n", s.appMetrics.ordersCreated.Load())

	fmt.Fprintf(w, "# HELP exports_queued_total Total number of report exports queued\n")
	fmt.Fprintf(w, "# TYPE exports_queued_total counter\n")
	fmt.Fprintf(w, "exports_queued_total %d\n\n", s.appMetrics.exportsQueued.Load())

	fmt.Fprintf(w, "# HELP reports_rendered_total Total number of reports rendered\n")
	fmt.Fprintf(w, "# TYPE reports_rendered_total counter\n")
	fmt.Fprintf(w, "reports_rendered_total %d\n\n", s.appMetrics.reportsRendered.Load())

	fmt.Fprintf(w, "# HELP report_failures_total Total number of failed report requests\n")
	fmt.Fprintf(w, "# TYPE report_failures_total counter\n")
	fmt.Fprintf(w, "report_failures_total %d\n\n", s.appMetrics.renderFailures.Load())

	fmt.Fprintf(w, "# HELP cache_hits_total Total report cache hits\n")
	fmt.Fprintf(w, "# TYPE cache_hits_total counter\n")
	fmt.Fprintf(w, "cache_hits_total %d\n\n", cacheStats.Hits)

	fmt.Fprintf(w, "# HELP cache_misses_total Total report cache misses\n")
	fmt.Fprintf(w, "# TYPE cache_misses_total counter\n")
	fmt.Fprintf(w, "cache_misses_total %d\n\n", cacheStats.Misses)

	fmt.Fprintf(w, "# HELP cache_entries Current report cache entries\n")
	fmt.Fprintf(w, "# TYPE cache_entries gauge\n")
	fmt.Fprintf(w, "cache_entries %d\n\n", cacheStats.Entries)

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rateLimitMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", rateLimitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP blocked_requests_total Total requests blocked by method\n")
	fmt.Fprintf(w, "# TYPE blocked_requests_total counter\n")
	fmt.Fprintf(w, "blocked_requests_total %d\n\n", securityMetrics.BlockedRequests)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n\n", uptime.Seconds())
}

type indexPage struct {
	Items    []core.LunchItem
	Teachers []string
	Students []string
	Exports  bool
	Error    string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)
	if s.templates == nil {
		logger.ErrorContext(ctx, "Templates not loaded",
			log.FieldPath, r.URL.Path,
			log.FieldComponent, log.ComponentTemplate,
			log.FieldErrorType, log.ErrorTypeConfiguration)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	page := indexPage{Exports: s.publisher != nil}
	items, err := s.reports.ListItems(ctx)
	if err == nil {
		page.Items = items
		var roster *core.Roster
		roster, err = s.reports.Roster(ctx)
		if err == nil {
			for _, e := range core.Entries(roster) {
				if e.Key != core.Unassigned {
					page.Teachers = append(page.Teachers, e.Key)
				}
				for _, name := range e.Value {
					if name != e.Key {
						page.Students = append(page.Students, name)
					}
				}
			}
		}
	}
	status := http.StatusOK
	if err != nil {
		logger.ErrorContext(ctx, "Index data unavailable",
			log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeOf(err))
		status = statusFor(err)
		page.Error = userMessage(status)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, "index.html", page); err != nil {
		logger.ErrorContext(ctx, "Index template execution failed",
			log.FieldError, err.Error(),
			"template", "index.html")
	}
}
