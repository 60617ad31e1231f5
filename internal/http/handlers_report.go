package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"lunchreports/internal/cache"
	"lunchreports/internal/core"
	"lunchreports/internal/log"
	"lunchreports/internal/render"
)

type reportPage struct {
	Kind    core.ReportKind
	Heading string
	Tables  []render.Table
	PDFURL  string
}

// reportHandler serves one report kind as a PDF attachment, an HTML page
// or JSON, chosen by the format query parameter.
func (s *Server) reportHandler(kind core.ReportKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := ParseReportParams(r.URL.Query())
		if err != nil {
			BadRequestError(err.Error()).Write(w)
			return
		}
		switch params.Format {
		case FormatJSON:
			s.serveReportJSON(w, r, kind, params.Items)
		case FormatHTML:
			s.serveReportHTML(w, r, kind, params.Items)
		default:
			s.serveReportPDF(w, r, kind, params.Items)
		}
	}
}

func (s *Server) serveReportPDF(w http.ResponseWriter, r *http.Request, kind core.ReportKind, items []string) {
	out, err := s.renderPDF(r.Context(), kind, items)
	if err != nil {
		s.reportFailed(w, r, kind, items, err)
		return
	}
	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", attachment(out.Filename))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Body)
}

// renderPDF returns the cached rendering for the selection, building it at
// most once across concurrent requests. A rendering that raced with an
// order is returned but not cached.
func (s *Server) renderPDF(ctx context.Context, kind core.ReportKind, items []string) (cache.Rendered, error) {
	key := cache.ReportKey(kind, FormatPDF, items)
	if hit, ok := s.reportCache.Get(key); ok {
		log.FromContext(ctx).DebugContext(ctx, "Report cache hit", log.FieldReportKind, string(kind))
		return hit, nil
	}

	v, err, _ := s.builds.Do(key, func() (interface{}, error) {
		gen := s.cacheGen.Load()
		bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportBuildTimeout)
		defer cancel()

		heading, tables, err := s.reports.Tables(bctx, kind, items)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := render.PDF(&buf, heading, tables); err != nil {
			return nil, fmt.Errorf("render pdf: %w", err)
		}
		out := cache.Rendered{
			Body:        buf.Bytes(),
			ContentType: "application/pdf",
			Filename:    kind.AttachmentName() + ".pdf",
		}
		if s.cacheGen.Load() == gen {
			s.reportCache.Set(key, out)
		}
		s.appMetrics.reportsRendered.Add(1)
		return out, nil
	})
	if err != nil {
		return cache.Rendered{}, err
	}
	return v.(cache.Rendered), nil
}

func (s *Server) serveReportHTML(w http.ResponseWriter, r *http.Request, kind core.ReportKind, items []string) {
	if s.templates == nil {
		InternalServerError("templates not loaded").Write(w)
		return
	}
	heading, tables, err := s.reports.Tables(r.Context(), kind, items)
	if err != nil {
		s.reportFailed(w, r, kind, items, err)
		return
	}
	s.appMetrics.reportsRendered.Add(1)

	q := url.Values{"format": {FormatPDF}}
	for _, name := range items {
		q.Add("lunch_items", name)
	}
	page := reportPage{
		Kind:    kind,
		Heading: heading,
		Tables:  tables,
		PDFURL:  r.URL.Path + "?" + q.Encode(),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "report.html", page); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Report template execution failed",
			log.FieldError, err.Error(),
			"template", "report.html")
	}
}

func (s *Server) serveReportJSON(w http.ResponseWriter, r *http.Request, kind core.ReportKind, items []string) {
	var (
		report interface{}
		err    error
	)
	if kind == core.KindCombined {
		report, err = s.reports.BuildCombinedReport(r.Context(), items)
	} else {
		report, err = s.reports.BuildSingleItemReport(r.Context(), items)
	}
	if err != nil {
		s.reportFailed(w, r, kind, items, err)
		return
	}
	s.appMetrics.reportsRendered.Add(1)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Report encoding failed", log.FieldError, err.Error())
	}
}

func (s *Server) reportFailed(w http.ResponseWriter, r *http.Request, kind core.ReportKind, items []string, err error) {
	s.appMetrics.renderFailures.Add(1)
	status := statusFor(err)
	s.events.LogError(r.Context(), "Report request failed", err, log.ComponentReport, log.OpRender,
		log.NewFields().WithReport(string(kind), items))
	ErrorResponse(status, userMessage(status)).Write(w)
}
