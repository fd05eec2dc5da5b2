package feed

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// spreadsheetIDRe matches the document ID of an editable sheet URL.
// Published links (/d/e/...) are not readable through the API.
var spreadsheetIDRe = regexp.MustCompile(`docs\.google\.com/spreadsheets/d/([A-Za-z0-9_-]+)`)

// sheetRange covers the schedule columns of the first sheet.
const sheetRange = "A:Z"

// SpreadsheetID extracts the document ID from a Google Sheets URL.
func SpreadsheetID(url string) (string, bool) {
	m := spreadsheetIDRe.FindStringSubmatch(url)
	if m == nil || m[1] == "e" {
		return "", false
	}
	return m[1], true
}

// SheetsSource reads a schedule through the Google Sheets API using a
// service account.
type SheetsSource struct {
	svc *sheets.Service
}

// NewSheetsSource creates a Sheets API source from a service account key file.
func NewSheetsSource(ctx context.Context, credentialsPath string) (*SheetsSource, error) {
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("reading sheets credentials: %w", err)
	}
	cfg, err := google.JWTConfigFromJSON(data, sheets.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parsing sheets credentials: %w", err)
	}
	svc, err := sheets.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}
	return &SheetsSource{svc: svc}, nil
}

func (s *SheetsSource) Fetch(ctx context.Context, url string) ([][]string, error) {
	id, ok := SpreadsheetID(url)
	if !ok {
		return nil, fmt.Errorf("not a spreadsheet URL: %s", url)
	}
	resp, err := s.svc.Spreadsheets.Values.Get(id, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("reading spreadsheet %s: %w", id, err)
	}
	return valuesToRows(resp.Values), nil
}

// valuesToRows converts API cell values to trimmed strings.
func valuesToRows(values [][]interface{}) [][]string {
	rows := make([][]string, 0, len(values))
	for _, v := range values {
		row := make([]string, len(v))
		for i, cell := range v {
			row[i] = strings.TrimSpace(fmt.Sprint(cell))
		}
		rows = append(rows, row)
	}
	return rows
}
