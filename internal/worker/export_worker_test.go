package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lunchreports/internal/amqp"
	"lunchreports/internal/core"
	"lunchreports/internal/render"
	"lunchreports/internal/seed"
	"lunchreports/internal/services"
	"lunchreports/internal/storage/memory"
)

const schoolSeed = `
items: [Pizza, Water]
teachers:
  - name: Ms. Lee
    students: [Ann, Bo]
students: [Cy]
orders:
  - {item: Pizza, student: Ann, quantity: 2}
  - {item: Pizza, student: Cy, quantity: 3}
  - {item: Water, teacher: Ms. Lee}
`

type recordingExporter struct {
	heading string
	tables  []render.Table
	err     error
	calls   int
}

func (e *recordingExporter) Export(_ context.Context, heading string, tables []render.Table) (string, error) {
	e.calls++
	if e.err != nil {
		return "", e.err
	}
	e.heading = heading
	e.tables = tables
	return "'Lunch Reports'!A1", nil
}

func newWorker(t *testing.T, exporter Exporter) (*ExportWorker, *memory.Store) {
	t.Helper()
	f, err := seed.Parse([]byte(schoolSeed))
	require.NoError(t, err)
	store := memory.New()
	require.NoError(t, seed.Apply(context.Background(), store, f))
	return NewExportWorker(services.NewReportService(store, nil), exporter, time.Second), store
}

func TestHandleExport_Combined(t *testing.T) {
	exporter := &recordingExporter{}
	w, _ := newWorker(t, exporter)

	err := w.HandleExport(context.Background(), amqp.NewReportExportMessage(core.KindCombined, nil))
	require.NoError(t, err)

	assert.Equal(t, "Pizza, Water Report", exporter.heading)
	require.Len(t, exporter.tables, 1)
	table := exporter.tables[0]
	assert.Equal(t, []string{"Teacher", "Name", "Pizza", "Water"}, table.Header)
	last := table.Rows[len(table.Rows)-1]
	assert.Equal(t, render.RowTotal, last.Kind)
	assert.Equal(t, []string{"Total", "", "5", "1"}, last.Cells)
}

func TestHandleExport_SingleItemSelection(t *testing.T) {
	exporter := &recordingExporter{}
	w, _ := newWorker(t, exporter)

	err := w.HandleExport(context.Background(), amqp.NewReportExportMessage(core.KindSingleItem, []string{"Water"}))
	require.NoError(t, err)

	assert.Equal(t, "Lunch Order Report by Item", exporter.heading)
	require.Len(t, exporter.tables, 1)
	assert.Equal(t, "Water (total 1)", exporter.tables[0].Title)
}

func TestHandleExport_ExporterFailure(t *testing.T) {
	exporter := &recordingExporter{err: errors.New("quota exceeded")}
	w, _ := newWorker(t, exporter)

	err := w.HandleExport(context.Background(), amqp.NewReportExportMessage(core.KindCombined, nil))
	assert.ErrorContains(t, err, "quota exceeded")
	assert.Equal(t, 1, exporter.calls)
}

func TestHandleExport_StorageUnavailable(t *testing.T) {
	exporter := &recordingExporter{}
	w, store := newWorker(t, exporter)
	require.NoError(t, store.Close())

	err := w.HandleExport(context.Background(), amqp.NewReportExportMessage(core.KindSingleItem, nil))
	assert.ErrorIs(t, err, core.ErrStorageUnavailable)
	assert.Zero(t, exporter.calls)
}

func TestPDFDirExporter(t *testing.T) {
	dir := t.TempDir()
	w, _ := newWorker(t, PDFDirExporter{Dir: dir})

	require.NoError(t, w.HandleExport(context.Background(), amqp.NewReportExportMessage(core.KindCombined, []string{"Pizza"})))

	raw, err := os.ReadFile(filepath.Join(dir, "Pizza Report.pdf"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "%PDF-"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "Pizza, Water Report", fileName("Pizza, Water Report"))
	assert.Equal(t, "A_B Report", fileName("A/B Report"))
	assert.Equal(t, "report", fileName("  "))
}
