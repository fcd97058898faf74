// Package sheets implements the spreadsheet task source on the Google Sheets
// API. Each domain's tasks live on one tab of one spreadsheet; the first row
// is the header row and supplies the column names the vocabulary maps.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/d-royes/tasksync/internal/engine"
	"github.com/d-royes/tasksync/internal/models"
	"github.com/d-royes/tasksync/internal/translate"
)

const defaultTab = "Tasks"

// Client is a SpreadsheetSource backed by the Google Sheets API.
type Client struct {
	srv *sheets.Service

	// modifiedHeader names the engine-maintained last-modified column; its
	// cells are parsed into RemoteRow.ModifiedAt.
	modifiedHeader string
	loc            *time.Location

	mu      sync.Mutex
	headers map[string][]string // sheetID -> cached header row
}

// NewClient creates a sheets client from an authenticated HTTP client
// (see the gauth package).
func NewClient(ctx context.Context, httpClient *http.Client, modifiedHeader string, loc *time.Location) (*Client, error) {
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewClientWithService(srv, modifiedHeader, loc), nil
}

// NewClientWithService wraps an existing sheets service (tests inject one
// pointed at a local server).
func NewClientWithService(srv *sheets.Service, modifiedHeader string, loc *time.Location) *Client {
	if loc == nil {
		loc = time.Local
	}
	return &Client{
		srv:            srv,
		modifiedHeader: modifiedHeader,
		loc:            loc,
		headers:        make(map[string][]string),
	}
}

// splitSheetID splits "spreadsheetID/Tab" into its parts. The tab defaults
// when absent.
func splitSheetID(sheetID string) (spreadsheet, tab string) {
	if i := strings.IndexByte(sheetID, '/'); i >= 0 {
		return sheetID[:i], sheetID[i+1:]
	}
	return sheetID, defaultTab
}

// ListRows returns every data row of the sheet in one call. The values API
// returns the full range without pagination, which is the snapshot guarantee
// the matcher depends on.
func (c *Client) ListRows(ctx context.Context, sheetID string) ([]models.RemoteRow, error) {
	spreadsheet, tab := splitSheetID(sheetID)

	resp, err := c.srv.Spreadsheets.Values.Get(spreadsheet, tab).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return nil, classify("list rows", err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}

	headers := make([]string, len(resp.Values[0]))
	for i, h := range resp.Values[0] {
		headers[i] = strings.TrimSpace(fmt.Sprintf("%v", h))
	}
	c.mu.Lock()
	c.headers[sheetID] = headers
	c.mu.Unlock()

	rows := make([]models.RemoteRow, 0, len(resp.Values)-1)
	for idx, raw := range resp.Values[1:] {
		if isEmptyRow(raw) {
			continue
		}
		columns := make(map[string]any, len(headers))
		for i, h := range headers {
			if h == "" || i >= len(raw) {
				continue
			}
			columns[h] = raw[i]
		}
		row := models.RemoteRow{
			// Data rows start at sheet row 2, below the header.
			RowID:   fmt.Sprintf("%s!%d", tab, idx+2),
			SheetID: sheetID,
			Columns: columns,
		}
		if c.modifiedHeader != "" {
			if ts, err := translate.ParseRemoteDate(columns[c.modifiedHeader], c.loc); err == nil && ts != nil {
				row.ModifiedAt = *ts
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ApplyChanges writes the changed cells of each row in a single batch call.
func (c *Client) ApplyChanges(ctx context.Context, sheetID string, changes []models.RowChange) error {
	if len(changes) == 0 {
		return nil
	}
	spreadsheet, tab := splitSheetID(sheetID)

	headers, err := c.headerRow(ctx, sheetID, spreadsheet, tab)
	if err != nil {
		return err
	}
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		if h != "" {
			index[h] = i
		}
	}

	var data []*sheets.ValueRange
	for _, change := range changes {
		rowNum, err := rowNumber(change.RowID)
		if err != nil {
			return fmt.Errorf("apply changes: %w", err)
		}
		for header, value := range change.Columns {
			col, ok := index[header]
			if !ok {
				return fmt.Errorf("apply changes: sheet %s has no column %q", sheetID, header)
			}
			data = append(data, &sheets.ValueRange{
				Range:  fmt.Sprintf("%s!%s%d", tab, columnLetter(col), rowNum),
				Values: [][]any{{value}},
			})
		}
	}

	_, err = c.srv.Spreadsheets.Values.BatchUpdate(spreadsheet, &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "USER_ENTERED",
		Data:             data,
	}).Context(ctx).Do()
	if err != nil {
		return classify("batch update", err)
	}
	return nil
}

// headerRow returns the cached header row, fetching it on first use.
func (c *Client) headerRow(ctx context.Context, sheetID, spreadsheet, tab string) ([]string, error) {
	c.mu.Lock()
	cached, ok := c.headers[sheetID]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	resp, err := c.srv.Spreadsheets.Values.Get(spreadsheet, tab+"!1:1").Context(ctx).Do()
	if err != nil {
		return nil, classify("fetch header row", err)
	}
	if len(resp.Values) == 0 {
		return nil, fmt.Errorf("sheet %s has no header row", sheetID)
	}
	headers := make([]string, len(resp.Values[0]))
	for i, h := range resp.Values[0] {
		headers[i] = strings.TrimSpace(fmt.Sprintf("%v", h))
	}
	c.mu.Lock()
	c.headers[sheetID] = headers
	c.mu.Unlock()
	return headers, nil
}

// rowNumber extracts the sheet row number from a RowID like "Tasks!7".
func rowNumber(rowID string) (int, error) {
	i := strings.LastIndexByte(rowID, '!')
	if i < 0 {
		return 0, fmt.Errorf("malformed row id %q", rowID)
	}
	n, err := strconv.Atoi(rowID[i+1:])
	if err != nil || n < 2 {
		return 0, fmt.Errorf("malformed row id %q", rowID)
	}
	return n, nil
}

// columnLetter converts a zero-based column index to A1 letters.
func columnLetter(col int) string {
	letters := ""
	for col >= 0 {
		letters = string(rune('A'+col%26)) + letters
		col = col/26 - 1
	}
	return letters
}

func isEmptyRow(raw []any) bool {
	for _, v := range raw {
		if s := strings.TrimSpace(fmt.Sprintf("%v", v)); s != "" && s != "<nil>" {
			return false
		}
	}
	return true
}

// classify sorts API failures into the engine's retry taxonomy: rate limits,
// 5xx, and network timeouts are transient; everything else is terminal.
func classify(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusTooManyRequests, http.StatusRequestTimeout,
			http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return &engine.TransientError{Op: op, Err: err}
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return &engine.TransientError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
