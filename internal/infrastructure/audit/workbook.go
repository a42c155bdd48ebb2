package audit

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// WorkbookSinkConfig contains configuration for the local XLSX sink
type WorkbookSinkConfig struct {
	// Path of the workbook file. Created on first append.
	Path string
	// Logger for progress output
	Logger *zap.Logger
}

// WorkbookSink appends audit rows to a local XLSX workbook, one sheet
// per stream. Intended for deployments without Google Sheets access.
type WorkbookSink struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewWorkbookSink creates a local workbook audit sink
func NewWorkbookSink(config *WorkbookSinkConfig) *WorkbookSink {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkbookSink{path: config.Path, logger: logger}
}

// Append writes one row to the stream's sheet. The workbook is opened
// and saved per call so a crash never loses more than one row.
func (s *WorkbookSink) Append(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open()
	if err != nil {
		return err
	}
	defer f.Close()

	sheet := string(entry.Stream)
	index, err := f.GetSheetIndex(sheet)
	if err != nil {
		return fmt.Errorf("failed to look up sheet %s: %w", sheet, err)
	}
	if index < 0 {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	next := len(rows) + 1

	for col, value := range entry.Row {
		cell, err := excelize.CoordinatesToCellName(col+1, next)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("failed to write cell %s: %w", cell, err)
		}
	}

	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	s.logger.Debug("audit row appended to workbook",
		zap.String("stream", sheet),
		zap.Int("row", next))

	return nil
}

// open loads the existing workbook or starts a fresh one
func (s *WorkbookSink) open() (*excelize.File, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return excelize.NewFile(), nil
	}
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	return f, nil
}

var _ Sink = (*WorkbookSink)(nil)
