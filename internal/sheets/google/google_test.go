package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"lunchreports/internal/render"
)

func sampleTables() []render.Table {
	return []render.Table{{
		Title:  "Pizza Report",
		Header: []string{"Teacher", "Name", "Pizza"},
		Rows: []render.Row{
			{Kind: render.RowLine, Cells: []string{"Ms. Lee", "Ann", "3"}},
			{Kind: render.RowTotal, Cells: []string{"Total", "", "8"}},
		},
	}}
}

func TestTableValues(t *testing.T) {
	values := tableValues("Combined Lunch Order Report", sampleTables())
	assert.Equal(t, [][]interface{}{
		{"Combined Lunch Order Report"},
		{},
		{"Pizza Report"},
		{"Teacher", "Name", "Pizza"},
		{"Ms. Lee", "Ann", 3},
		{"Total", "", 8},
	}, values)
	assert.Equal(t, 3, width(values))
}

func TestColumnName(t *testing.T) {
	cases := map[int]string{1: "A", 3: "C", 26: "Z", 27: "AA", 52: "AZ", 703: "AAA"}
	for n, want := range cases {
		assert.Equal(t, want, columnName(n), n)
	}
}

func TestQuoteSheetName(t *testing.T) {
	assert.Equal(t, "'Lunch Reports'", quoteSheetName("Lunch Reports"))
	assert.Equal(t, "'Lee''s class'", quoteSheetName("Lee's class"))
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{})
	assert.ErrorContains(t, err, "missing GOOGLE_SPREADSHEET_ID")
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Options{SpreadsheetID: "sheet"})
	assert.ErrorContains(t, err, "missing service account credentials")
}

func TestNew_MissingCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Options{SpreadsheetID: "sheet", ServiceAccountFile: "/nonexistent/sa.json"})
	assert.ErrorContains(t, err, "read service account file")
}

type fakeSheets struct {
	mu       sync.Mutex
	calls    []string
	lastBody gsheet.ValueRange
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":clear"):
		f.calls = append(f.calls, "clear")
	case r.Method == http.MethodPut:
		f.calls = append(f.calls, "update")
		_ = json.NewDecoder(r.Body).Decode(&f.lastBody)
	default:
		http.Error(w, "unexpected "+r.Method+" "+r.URL.Path, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte("{}"))
}

func TestExport(t *testing.T) {
	fake := &fakeSheets{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	client, err := New(context.Background(), Options{
		SpreadsheetID: "sheet-123",
		SheetName:     "Lunch Reports",
		ClientOptions: []goption.ClientOption{
			goption.WithEndpoint(srv.URL + "/"),
			goption.WithoutAuthentication(),
			goption.WithHTTPClient(srv.Client()),
		},
	})
	require.NoError(t, err)

	ref, err := client.Export(context.Background(), "Pizza Report", sampleTables())
	require.NoError(t, err)
	assert.Equal(t, "'Lunch Reports'!A1:C6", ref)
	assert.Equal(t, []string{"clear", "update"}, fake.calls)
	require.Len(t, fake.lastBody.Values, 6)
	assert.Equal(t, "Pizza Report", fake.lastBody.Values[0][0])
}

func TestExport_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":500,"message":"boom"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := New(context.Background(), Options{
		SpreadsheetID: "sheet-123",
		ClientOptions: []goption.ClientOption{
			goption.WithEndpoint(srv.URL + "/"),
			goption.WithoutAuthentication(),
			goption.WithHTTPClient(srv.Client()),
		},
	})
	require.NoError(t, err)

	_, err = client.Export(context.Background(), "Pizza Report", sampleTables())
	assert.ErrorContains(t, err, "clear sheet Lunch Reports")
}
