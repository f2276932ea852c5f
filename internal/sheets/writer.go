package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/rsawant/fieldledger/internal/common"
	"github.com/rsawant/fieldledger/internal/service"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// entryHeaders is the header row written to every company tab.
var entryHeaders = []any{
	"Entry ID", "Date", "User Name", "Type", "Client",
	"Location", "Orders", "Amount", "Remarks", "User ID",
	"Time", "Company", "GPS Location", "Entry Timestamp", "Last Modified",
}

// Writer implements the Store interface for Google Sheets. Each company
// gets its own tab in a single spreadsheet; rows are append-only.
type Writer struct {
	service   *sheets.Service
	logger    *slog.Logger
	knownTabs map[string]bool
	config    Config
	mu        sync.Mutex
}

// NewWriter creates a new Google Sheets store.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	svc, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Writer{
		config:    config,
		service:   svc,
		logger:    logger,
		knownTabs: make(map[string]bool),
	}, nil
}

// Append writes a single entry row to the company's tab. It reports
// whether the write succeeded; failures are logged, not returned, so a
// Sheets outage never takes down message handling.
func (w *Writer) Append(ctx context.Context, row []any, company string) bool {
	if company == "" {
		w.logger.Error("append called without a company")
		return false
	}

	if err := w.ensureTab(ctx, company); err != nil {
		w.logger.Error("failed to prepare company tab", "company", company, "error", err)
		return false
	}

	padded := padRow(row)

	retryOpts := service.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	err := common.WithRetry(ctx, func() error {
		return w.appendRow(ctx, company, padded)
	}, retryOpts)
	if err != nil {
		w.logger.Error("failed to append row", "company", company, "error", err)
		return false
	}

	w.logger.Info("appended entry row", "company", company)
	return true
}

// CheckConnection verifies the spreadsheet is reachable.
func (w *Writer) CheckConnection(ctx context.Context) error {
	_, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
	}
	return nil
}

func (w *Writer) appendRow(ctx context.Context, company string, row []any) error {
	valueRange := &sheets.ValueRange{
		Values: [][]any{row},
	}

	_, err := w.service.Spreadsheets.Values.
		Append(w.config.SpreadsheetID, company+"!A:O", valueRange).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", company, err)
	}
	return nil
}

// ensureTab creates the company's tab with headers if it does not exist.
func (w *Writer) ensureTab(ctx context.Context, company string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.knownTabs[company] {
		return nil
	}

	spreadsheet, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to access spreadsheet: %w", err)
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == company {
			w.knownTabs[company] = true
			return nil
		}
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{
						Title: company,
						GridProperties: &sheets.GridProperties{
							RowCount:    1000,
							ColumnCount: int64(len(entryHeaders)),
						},
					},
				},
			},
		},
	}

	if _, err := w.service.Spreadsheets.BatchUpdate(w.config.SpreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to create tab %s: %w", company, err)
	}

	headerRange := &sheets.ValueRange{Values: [][]any{entryHeaders}}
	_, err = w.service.Spreadsheets.Values.
		Update(w.config.SpreadsheetID, company+"!A1", headerRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("unable to write headers for %s: %w", company, err)
	}

	w.logger.Info("created company tab", "company", company)
	w.knownTabs[company] = true
	return nil
}

// padRow extends the row to the full column width so timestamp columns
// always land in the right place.
func padRow(row []any) []any {
	padded := make([]any, len(entryHeaders))
	copy(padded, row)
	for i := len(row); i < len(entryHeaders); i++ {
		padded[i] = ""
	}

	now := time.Now().Format(time.RFC3339)
	if padded[13] == "" || padded[13] == nil {
		padded[13] = now
	}
	padded[14] = now

	return padded
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		oauthConfig := &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{sheets.SpreadsheetsScope},
		}

		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}

		tokenSource = oauthConfig.TokenSource(ctx, token)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}
