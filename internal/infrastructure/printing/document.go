package printing

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tinkori/invoicegen/internal/domain/invoice"
)

// Document is a generated PDF artifact on disk. The file persists
// until delivery succeeds; a failed delivery leaves it in place for
// inspection.
type Document struct {
	// Path is the absolute location of the PDF file
	Path string
	// Size is the file size in bytes at generation time
	Size int64
}

// Validate re-checks that the file still exists and is non-empty.
// Delivery calls this before opening any network connection.
func (d *Document) Validate() error {
	info, err := os.Stat(d.Path)
	if err != nil {
		return NewRenderError(ErrCodeWriteFailed, "document file missing: "+d.Path, err)
	}
	if info.Size() == 0 {
		return NewRenderError(ErrCodeWriteFailed, "document file is empty: "+d.Path, nil)
	}
	return nil
}

// Bytes reads the full PDF content
func (d *Document) Bytes() ([]byte, error) {
	return os.ReadFile(d.Path)
}

// Remove deletes the file from disk
func (d *Document) Remove() error {
	return os.Remove(d.Path)
}

// GeneratorConfig contains configuration for the document generator
type GeneratorConfig struct {
	// OutputDir is where generated PDFs are written.
	// Defaults to the system temp directory.
	OutputDir string
	// Margins for the rendered page
	Margins Margins
	// Logger for progress output
	Logger *zap.Logger
}

// Generator produces invoice PDF documents from invoice transactions
type Generator struct {
	renderer  PDFRenderer
	engine    *TemplateEngine
	outputDir string
	margins   Margins
	logger    *zap.Logger
}

// NewGenerator creates a document generator backed by the given renderer
func NewGenerator(renderer PDFRenderer, config *GeneratorConfig) (*Generator, error) {
	if config == nil {
		config = &GeneratorConfig{}
	}

	outputDir := config.OutputDir
	if outputDir == "" {
		outputDir = os.TempDir()
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, NewRenderError(ErrCodeWriteFailed, "failed to create output directory", err)
	}

	margins := config.Margins
	if margins == (Margins{}) {
		margins = DefaultMargins()
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	engine, err := NewTemplateEngine()
	if err != nil {
		return nil, err
	}

	return &Generator{
		renderer:  renderer,
		engine:    engine,
		outputDir: outputDir,
		margins:   margins,
		logger:    logger,
	}, nil
}

// Render produces the invoice PDF and writes it to the output
// directory under a unique name. The returned document is validated to
// exist and be non-empty before it is handed to delivery.
func (g *Generator) Render(ctx context.Context, inv invoice.Invoice, payable decimal.Decimal, now time.Time) (*Document, error) {
	html, err := g.engine.RenderInvoice(inv, payable, now)
	if err != nil {
		return nil, err
	}

	result, err := g.renderer.Render(ctx, &RenderRequest{
		HTML:    html,
		Title:   "Invoice - " + inv.CustomerName,
		Margins: g.margins,
	})
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("%s%cinvoice_%s.pdf", g.outputDir, os.PathSeparator, uuid.NewString())

	file, err := os.Create(path)
	if err != nil {
		return nil, NewRenderError(ErrCodeWriteFailed, "failed to create PDF file", err)
	}

	if _, err := file.Write(result.PDFData); err != nil {
		file.Close()
		os.Remove(path)
		return nil, NewRenderError(ErrCodeWriteFailed, "failed to write PDF file", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return nil, NewRenderError(ErrCodeWriteFailed, "failed to close PDF file", err)
	}

	doc := &Document{Path: path, Size: int64(len(result.PDFData))}
	if err := doc.Validate(); err != nil {
		os.Remove(path)
		return nil, err
	}

	g.logger.Info("invoice PDF generated",
		zap.String("path", doc.Path),
		zap.Int64("bytes", doc.Size),
		zap.Int("pages", result.PageCount),
		zap.Duration("duration", result.RenderDuration))

	return doc, nil
}
