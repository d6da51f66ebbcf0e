// Package storage writes leads to a Google Sheet and seeds the dedup
// set from rows already recorded there.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/leadhunt/ytleads/internal/domain"
)

// Header is the fixed output schema. Column 3 (channelUrl) doubles as
// the dedup key.
var Header = []string{"channelTitle", "emails", "channelUrl", "keyword"}

// SheetWriter implements domain.Sink against the Google Sheets API
// using service-account credentials.
type SheetWriter struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
	logger        *slog.Logger
}

func NewSheetWriter(ctx context.Context, credentialsFile, spreadsheetID, sheetName string, logger *slog.Logger) (*SheetWriter, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &SheetWriter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger,
	}, nil
}

// Prepare ensures the worksheet exists with the expected header row and
// returns the channel URLs already recorded. A mismatched header means
// the sheet holds foreign data: it is cleared and the header rewritten
// before anything is appended.
func (w *SheetWriter) Prepare(ctx context.Context) ([]string, error) {
	if err := w.ensureWorksheet(ctx); err != nil {
		return nil, err
	}

	resp, err := w.svc.Spreadsheets.Values.Get(w.spreadsheetID, w.sheetName).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", w.sheetName, err)
	}

	if len(resp.Values) == 0 || !headerMatches(resp.Values[0]) {
		w.logger.Warn("header missing or incorrect, clearing sheet and rewriting header", "sheet", w.sheetName)
		if _, err := w.svc.Spreadsheets.Values.Clear(w.spreadsheetID, w.sheetName, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
			return nil, fmt.Errorf("clear sheet %q: %w", w.sheetName, err)
		}
		header := make([]interface{}, len(Header))
		for i, h := range Header {
			header[i] = h
		}
		if err := w.appendValues(ctx, [][]interface{}{header}); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
		return nil, nil
	}

	var urls []string
	for _, row := range resp.Values[1:] {
		if len(row) < 3 {
			continue
		}
		if u, ok := row[2].(string); ok && u != "" {
			urls = append(urls, u)
		}
	}
	return urls, nil
}

// AppendLeads batch-writes one row per lead in the fixed schema.
func (w *SheetWriter) AppendLeads(ctx context.Context, leads []domain.Lead) error {
	if len(leads) == 0 {
		return nil
	}
	values := make([][]interface{}, 0, len(leads))
	for _, l := range leads {
		values = append(values, []interface{}{
			l.Title, strings.Join(l.Emails, ", "), l.URL, l.Keyword,
		})
	}
	if err := w.appendValues(ctx, values); err != nil {
		return fmt.Errorf("append %d rows: %w", len(values), err)
	}
	return nil
}

func (w *SheetWriter) appendValues(ctx context.Context, values [][]interface{}) error {
	_, err := w.svc.Spreadsheets.Values.
		Append(w.spreadsheetID, w.sheetName, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

// ensureWorksheet adds the worksheet tab when the spreadsheet does not
// have it yet.
func (w *SheetWriter) ensureWorksheet(ctx context.Context) error {
	ss, err := w.svc.Spreadsheets.Get(w.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("open spreadsheet %s: %w", w.spreadsheetID, err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == w.sheetName {
			return nil
		}
	}

	w.logger.Info("worksheet not found, creating it", "sheet", w.sheetName)
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: w.sheetName},
			},
		}},
	}
	if _, err := w.svc.Spreadsheets.BatchUpdate(w.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("create worksheet %q: %w", w.sheetName, err)
	}
	return nil
}

func headerMatches(row []interface{}) bool {
	if len(row) < len(Header) {
		return false
	}
	for i, want := range Header {
		got, ok := row[i].(string)
		if !ok || got != want {
			return false
		}
	}
	return true
}
