package delivery

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/tinkori/invoicegen/internal/domain/shared"
)

// RelayCourierConfig contains configuration for the generic email relay
type RelayCourierConfig struct {
	// URL of the relay endpoint
	URL string
	// SMTP credentials forwarded to the relay, which performs the
	// actual send on our behalf
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	// From is the sender address, may include a display name
	From string
	// CC and BCC receive a copy of every invoice
	CC  []string
	BCC []string
	// Timeout for one delivery attempt
	Timeout time.Duration
	// Logger for progress output
	Logger *zap.Logger
	// HTTPClient override for tests; nil uses http.DefaultClient
	HTTPClient *http.Client
}

// RelayCourier posts the invoice as a multipart form to a generic
// email relay service. The relay holds no state: SMTP credentials
// travel with each request.
type RelayCourier struct {
	config *RelayCourierConfig
	client *http.Client
	logger *zap.Logger
}

// NewRelayCourier creates a relay-backed courier
func NewRelayCourier(config *RelayCourierConfig) *RelayCourier {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	client := config.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &RelayCourier{config: config, client: client, logger: logger}
}

// Deliver posts the invoice to the relay and deletes the document on
// a 2xx response.
func (c *RelayCourier) Deliver(ctx context.Context, d Dispatch) error {
	if err := validateDispatch(d); err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx, c.config.Timeout)
	defer cancel()

	pdfData, err := d.Doc.Bytes()
	if err != nil {
		return shared.NewDomainError(shared.CodeDeliveryFailed, "failed to read document: "+err.Error())
	}

	body, contentType, err := c.buildForm(d, pdfData)
	if err != nil {
		return shared.NewDomainError(shared.CodeDeliveryFailed, "failed to build form: "+err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, body)
	if err != nil {
		return shared.NewDomainError(shared.CodeDeliveryFailed, "failed to build request: "+err.Error())
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("relay delivery failed", zap.String("url", c.config.URL), zap.Error(err))
		return shared.NewDomainError(shared.CodeDeliveryFailed, "relay request failed: "+err.Error())
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("relay rejected delivery",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody))
		return shared.NewDomainError(shared.CodeDeliveryFailed,
			"relay returned status "+strconv.Itoa(resp.StatusCode))
	}

	c.logger.Info("invoice delivered via relay",
		zap.String("to", d.Recipient),
		zap.Int("status", resp.StatusCode))

	if err := d.Doc.Remove(); err != nil {
		c.logger.Warn("failed to remove delivered document", zap.String("path", d.Doc.Path), zap.Error(err))
	}
	return nil
}

// buildForm assembles the multipart form the relay expects: the
// addressing fields, the SMTP credentials, and the PDF file part.
func (c *RelayCourier) buildForm(d Dispatch, pdfData []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fields := map[string]string{
		"to":            d.Recipient,
		"from":          c.config.From,
		"subject":       subject(d),
		"body":          htmlBody(d),
		"isHtml":        "true",
		"emailHost":     c.config.SMTPHost,
		"emailPort":     strconv.Itoa(c.config.SMTPPort),
		"emailUser":     c.config.SMTPUser,
		"emailPassword": c.config.SMTPPassword,
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}
	for _, cc := range c.config.CC {
		if err := writer.WriteField("cc", cc); err != nil {
			return nil, "", err
		}
	}
	for _, bcc := range c.config.BCC {
		if err := writer.WriteField("bcc", bcc); err != nil {
			return nil, "", err
		}
	}

	part, err := writer.CreateFormFile("file", filepath.Base(d.Doc.Path))
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(pdfData); err != nil {
		return nil, "", err
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return &buf, writer.FormDataContentType(), nil
}

var _ Courier = (*RelayCourier)(nil)
