package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	goption "google.golang.org/api/option"

	ports "fintrack/internal/sheets"
)

func TestSheetRange(t *testing.T) {
	tests := map[string]string{
		"Expenses":     "Expenses!A:H",
		"My Expenses":  "'My Expenses'!A:H",
		"Bob's ledger": "'Bob''s ledger'!A:H",
	}
	for sheet, want := range tests {
		if got := sheetRange(sheet, "A:H"); got != want {
			t.Errorf("sheetRange(%q) = %q, want %q", sheet, got, want)
		}
	}
}

func TestNewRequiresConfig(t *testing.T) {
	ctx := context.Background()
	if _, err := New(ctx, Config{}, nil); err == nil {
		t.Error("expected error without spreadsheet id")
	}
	if _, err := New(ctx, Config{SpreadsheetID: "abc"}, nil); err == nil {
		t.Error("expected error without credentials")
	}
	if _, err := New(ctx, Config{SpreadsheetID: "abc", CredentialsFile: "/does/not/exist.json"}, nil); err == nil {
		t.Error("expected error for unreadable credentials file")
	}
}

func TestExportAppendsRow(t *testing.T) {
	var (
		gotPath  string
		gotQuery string
		gotBody  struct {
			Values [][]any `json:"values"`
		}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"spreadsheetId":"sheet-1","updates":{"updatedRange":"Expenses!A7:H7","updatedRows":1}}`)
	}))
	defer srv.Close()

	c, err := New(context.Background(), Config{
		SpreadsheetID: "sheet-1",
		Options: []goption.ClientOption{
			goption.WithEndpoint(srv.URL + "/"),
			goption.WithoutAuthentication(),
			goption.WithHTTPClient(srv.Client()),
		},
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	row := ports.ExpenseRow{
		ID:          "exp-1",
		UserID:      "user-1",
		Date:        time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC),
		Description: "Groceries",
		Amount:      15.5,
		Category:    "Food",
		Items:       3,
		Source:      "scan",
	}
	ref, err := c.Export(context.Background(), row)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if ref != "Expenses!A7:H7" {
		t.Errorf("ref = %q", ref)
	}
	if !strings.Contains(gotPath, "/spreadsheets/sheet-1/values/") || !strings.HasSuffix(gotPath, ":append") {
		t.Errorf("unexpected path %q", gotPath)
	}
	if !strings.Contains(gotQuery, "valueInputOption=USER_ENTERED") || !strings.Contains(gotQuery, "insertDataOption=INSERT_ROWS") {
		t.Errorf("unexpected query %q", gotQuery)
	}
	if len(gotBody.Values) != 1 || len(gotBody.Values[0]) != len(ports.Header) {
		t.Fatalf("unexpected body %+v", gotBody)
	}
	if gotBody.Values[0][0] != "2024-03-14" || gotBody.Values[0][7] != "exp-1" {
		t.Errorf("row cells = %v", gotBody.Values[0])
	}
}

func TestExportRejectsRowWithoutID(t *testing.T) {
	c := &Client{sheetName: "Expenses"}
	if _, err := c.Export(context.Background(), ports.ExpenseRow{}); err == nil {
		t.Error("expected error")
	}
}
