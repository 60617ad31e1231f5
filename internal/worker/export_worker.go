package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lunchreports/internal/amqp"
	"lunchreports/internal/core"
	"lunchreports/internal/render"
)

// Exporter writes a rendered report somewhere outside the service and
// returns a reference to where it landed.
type Exporter interface {
	Export(ctx context.Context, heading string, tables []render.Table) (string, error)
}

// ReportBuilder builds a report of the given kind and lays it out as tables.
type ReportBuilder interface {
	Tables(ctx context.Context, kind core.ReportKind, names []string) (string, []render.Table, error)
}

// ExportWorker handles report export requests taken off the queue.
type ExportWorker struct {
	reports  ReportBuilder
	exporter Exporter
	timeout  time.Duration
}

func NewExportWorker(reports ReportBuilder, exporter Exporter, timeout time.Duration) *ExportWorker {
	return &ExportWorker{
		reports:  reports,
		exporter: exporter,
		timeout:  timeout,
	}
}

// HandleExport builds the requested report and exports it. A returned
// error makes the broker redeliver the message.
func (w *ExportWorker) HandleExport(ctx context.Context, msg *amqp.ReportExportMessage) error {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	slog.InfoContext(ctx, "Processing export message",
		"kind", msg.Kind,
		"items", msg.Items,
		"requested_at", msg.RequestedAt)

	start := time.Now()
	heading, tables, err := w.reports.Tables(ctx, msg.Kind, msg.Items)
	if err != nil {
		return fmt.Errorf("build %s report: %w", msg.Kind, err)
	}

	ref, err := w.exporter.Export(ctx, heading, tables)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to export report",
			"kind", msg.Kind,
			"heading", heading,
			"error", err)
		return fmt.Errorf("export %s report: %w", msg.Kind, err)
	}

	slog.InfoContext(ctx, "Report exported",
		"kind", msg.Kind,
		"heading", heading,
		"export_ref", ref,
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}
