package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/core"
)

// Header is the first row of the mirror sheet; column A holds the transaction ID.
var Header = []any{"ID", "User", "Date", "Type", "Category", "Description", "Amount"}

// sheetsAPI is the slice of the Sheets API the mirror uses.
type sheetsAPI interface {
	read(ctx context.Context, rng string) ([][]any, error)
	appendRow(ctx context.Context, rng string, row []any) error
	sheetID(ctx context.Context, title string) (int64, error)
	deleteRow(ctx context.Context, sheetID, index int64) error
}

// Mirror keeps a spreadsheet copy of stored transactions, one row each.
type Mirror struct {
	api           sheetsAPI
	spreadsheetID string
	sheet         string
}

// NewMirror builds a mirror using service account credentials from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewMirror(ctx context.Context, spreadsheetID, sheet string) (*Mirror, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if strings.TrimSpace(sheet) == "" {
		sheet = "Transactions"
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Mirror{
		api:           &serviceAPI{svc: svc, spreadsheetID: spreadsheetID},
		spreadsheetID: spreadsheetID,
		sheet:         sheet,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline service account credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading service account credentials", "path", serviceAccountFile)
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
		goption.WithHTTPClient(newPooledHTTPClient()))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func newPooledHTTPClient() *http.Client {
	dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
	return &http.Client{
		Transport: &http.Transport{
			DialContext:           dialer.DialContext,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			MaxConnsPerHost:       50,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			ForceAttemptHTTP2:     true,
		},
		Timeout: 60 * time.Second,
	}
}

// EnsureHeader writes the header row when the sheet is empty.
func (m *Mirror) EnsureHeader(ctx context.Context) error {
	values, err := m.api.read(ctx, m.sheet+"!A1:G1")
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if len(values) > 0 && len(values[0]) > 0 {
		return nil
	}
	return m.api.appendRow(ctx, m.sheet+"!A:G", Header)
}

// AppendTransaction adds one row for tx. Rows already present for the same
// ID are left alone, so replays are idempotent.
func (m *Mirror) AppendTransaction(ctx context.Context, tx core.Transaction) error {
	idx, err := m.find(ctx, tx.ID)
	if err != nil {
		return err
	}
	if idx >= 0 {
		slog.DebugContext(ctx, "Transaction already mirrored", "id", tx.ID, "row", idx+1)
		return nil
	}
	if err := m.api.appendRow(ctx, m.sheet+"!A:G", Row(tx)); err != nil {
		return fmt.Errorf("append row to %s: %w", m.sheet, err)
	}
	return nil
}

// DeleteTransaction removes the row whose column A equals id. A missing row is not an error.
func (m *Mirror) DeleteTransaction(ctx context.Context, id string) error {
	idx, err := m.find(ctx, id)
	if err != nil {
		return err
	}
	if idx < 0 {
		slog.InfoContext(ctx, "Transaction not in mirror, nothing to delete", "id", id)
		return nil
	}
	sheetID, err := m.api.sheetID(ctx, m.sheet)
	if err != nil {
		return err
	}
	if err := m.api.deleteRow(ctx, sheetID, int64(idx)); err != nil {
		return fmt.Errorf("delete row %d from %s: %w", idx+1, m.sheet, err)
	}
	return nil
}

func (m *Mirror) find(ctx context.Context, id string) (int, error) {
	values, err := m.api.read(ctx, m.sheet+"!A:A")
	if err != nil {
		return -1, fmt.Errorf("read ids from %s: %w", m.sheet, err)
	}
	return RowIndex(values, id), nil
}

// Row encodes a transaction in Header order.
func Row(tx core.Transaction) []any {
	return []any{
		tx.ID,
		tx.UserID,
		tx.DayKey(),
		tx.Type.String(),
		tx.Category,
		tx.Description,
		tx.Amount.StringFixed(2),
	}
}

// RowIndex returns the zero-based row whose first cell equals id, or -1.
func RowIndex(values [][]any, id string) int {
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i
		}
	}
	return -1
}

type serviceAPI struct {
	svc           *gsheet.Service
	spreadsheetID string
}

func (s *serviceAPI) read(ctx context.Context, rng string) ([][]any, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (s *serviceAPI) appendRow(ctx context.Context, rng string, row []any) error {
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	return err
}

func (s *serviceAPI) sheetID(ctx context.Context, title string) (int64, error) {
	ss, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return sh.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", title)
}

func (s *serviceAPI) deleteRow(ctx context.Context, sheetID, index int64) error {
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: index,
					EndIndex:   index + 1,
				},
			},
		}},
	}
	_, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
	return err
}
