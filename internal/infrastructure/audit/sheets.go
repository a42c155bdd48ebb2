package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

// DefaultSheetsBaseURL is the Google Sheets v4 values endpoint root
const DefaultSheetsBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"

// Sink appends one classified entry to its audit stream
type Sink interface {
	Append(ctx context.Context, entry Entry) error
}

// SheetsSinkConfig contains configuration for the Google Sheets sink
type SheetsSinkConfig struct {
	// SpreadsheetID of the target workbook
	SpreadsheetID string
	// BaseURL override for tests; empty uses DefaultSheetsBaseURL
	BaseURL string
	// Token is the OAuth2 bearer token with spreadsheets scope
	Token string
	// Logger for progress output
	Logger *zap.Logger
	// HTTPClient override for tests; nil uses http.DefaultClient
	HTTPClient *http.Client
}

// SheetsSink appends rows to a Google Sheets workbook, one sheet per
// stream.
type SheetsSink struct {
	config  *SheetsSinkConfig
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// appendBody is the values:append request payload
type appendBody struct {
	Values [][]string `json:"values"`
}

// NewSheetsSink creates a Google Sheets backed audit sink
func NewSheetsSink(config *SheetsSinkConfig) *SheetsSink {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultSheetsBaseURL
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	client := config.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &SheetsSink{config: config, baseURL: baseURL, client: client, logger: logger}
}

// Append posts one row to the stream's sheet via values:append
func (s *SheetsSink) Append(ctx context.Context, entry Entry) error {
	endpoint := fmt.Sprintf("%s/%s/values/%s:append?valueInputOption=USER_ENTERED",
		s.baseURL,
		s.config.SpreadsheetID,
		url.PathEscape(fmt.Sprintf("%s!%s", entry.Stream, entry.CellRange)))

	payload, err := json.Marshal(appendBody{Values: [][]string{entry.Row}})
	if err != nil {
		return fmt.Errorf("failed to encode audit row: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build audit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.Token)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("audit append request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("audit append returned status %d", resp.StatusCode)
	}

	s.logger.Debug("audit row appended",
		zap.String("stream", string(entry.Stream)),
		zap.Int("cells", len(entry.Row)))

	return nil
}

var _ Sink = (*SheetsSink)(nil)
