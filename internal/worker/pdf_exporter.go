package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lunchreports/internal/render"
)

// PDFDirExporter writes each exported report as <heading>.pdf into Dir.
// The worker falls back to it when no spreadsheet is configured.
type PDFDirExporter struct {
	Dir string
}

func (e PDFDirExporter) Export(ctx context.Context, heading string, tables []render.Table) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	path := filepath.Join(e.Dir, fileName(heading)+".pdf")
	tmp, err := os.CreateTemp(e.Dir, ".export-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := render.PDF(tmp, heading, tables); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("move export into place: %w", err)
	}
	return path, nil
}

// fileName keeps a heading usable as a file name on every platform.
func fileName(heading string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(heading))
	if name == "" {
		return "report"
	}
	return name
}
