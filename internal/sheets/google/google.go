// Package google exports lunch reports to a Google Sheets tab.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"lunchreports/internal/render"
)

// Options configures the exporter. One of ServiceAccountJSON or
// ServiceAccountFile is required unless ClientOptions supplies auth.
type Options struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string

	// ClientOptions are appended when creating the Sheets service.
	ClientOptions []goption.ClientOption
}

// Client overwrites one tab of a spreadsheet with a rendered report.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

func New(ctx context.Context, opts Options) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName := strings.TrimSpace(opts.SheetName)
	if sheetName == "" {
		sheetName = "Lunch Reports"
	}

	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Falls back to GOOGLE_APPLICATION_CREDENTIALS when no credentials are given.
func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	clientOpts := []goption.ClientOption{goption.WithScopes(gsheet.SpreadsheetsScope)}

	serviceAccountJSON := strings.TrimSpace(opts.ServiceAccountJSON)
	serviceAccountFile := strings.TrimSpace(opts.ServiceAccountFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		clientOpts = append(clientOpts, goption.WithCredentialsJSON([]byte(serviceAccountJSON)))
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		credentialsJSON, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		clientOpts = append(clientOpts, goption.WithCredentialsJSON(credentialsJSON))
	case len(opts.ClientOptions) == 0:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	clientOpts = append(clientOpts, opts.ClientOptions...)
	service, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Export clears the report tab and writes the tables from A1. It returns
// the A1 range that now holds the report.
func (c *Client) Export(ctx context.Context, heading string, tables []render.Table) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	values := tableValues(heading, tables)
	sheet := quoteSheetName(c.sheetName)

	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, sheet, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("clear sheet %s: %w", c.sheetName, err)
	}

	ref := fmt.Sprintf("%s!A1:%s%d", sheet, columnName(width(values)), len(values))
	vr := &gsheet.ValueRange{Values: values}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, ref, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update sheet %s: %w", c.sheetName, err)
	}

	slog.InfoContext(ctx, "Report exported to Google Sheets",
		"spreadsheet_id", c.spreadsheetID,
		"range", ref,
		"rows", len(values))
	return ref, nil
}
