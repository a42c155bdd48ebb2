package delivery

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tinkori/invoicegen/internal/domain/shared"
)

// DefaultMailerooURL is the Maileroo v2 send endpoint
const DefaultMailerooURL = "https://smtp.maileroo.com/api/v2/emails"

// mailerooAddress is one address entry in the Maileroo payload
type mailerooAddress struct {
	Address     string `json:"address"`
	DisplayName string `json:"display_name,omitempty"`
}

// mailerooAttachment is one attachment entry, content base64-encoded
type mailerooAttachment struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Content     string `json:"content"`
}

// mailerooRequest is the JSON body for the send endpoint. CC is an
// object for a single address and an array for several; the API
// accepts both shapes.
type mailerooRequest struct {
	From        mailerooAddress      `json:"from"`
	To          []mailerooAddress    `json:"to"`
	CC          any                  `json:"cc,omitempty"`
	BCC         []mailerooAddress    `json:"bcc,omitempty"`
	Subject     string               `json:"subject"`
	HTML        string               `json:"html"`
	Plain       string               `json:"plain,omitempty"`
	Attachments []mailerooAttachment `json:"attachments,omitempty"`
	Tracking    *bool                `json:"tracking,omitempty"`
}

// MailerooCourierConfig contains configuration for the Maileroo API
type MailerooCourierConfig struct {
	// URL of the send endpoint; empty uses DefaultMailerooURL
	URL string
	// APIKey authenticates via the X-API-Key header
	APIKey string
	// From is the sender address, optionally "Name <addr>"
	From string
	// CC and BCC receive a copy of every invoice
	CC  []string
	BCC []string
	// Tracking enables open/click tracking when set
	Tracking *bool
	// Timeout for one delivery attempt
	Timeout time.Duration
	// Logger for progress output
	Logger *zap.Logger
	// HTTPClient override for tests; nil uses http.DefaultClient
	HTTPClient *http.Client
}

// MailerooCourier delivers invoices through the Maileroo
// transactional email API.
type MailerooCourier struct {
	config *MailerooCourierConfig
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewMailerooCourier creates a Maileroo-backed courier
func NewMailerooCourier(config *MailerooCourierConfig) *MailerooCourier {
	url := config.URL
	if url == "" {
		url = DefaultMailerooURL
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	client := config.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &MailerooCourier{config: config, url: url, client: client, logger: logger}
}

// Deliver posts the invoice to Maileroo and deletes the document on
// any 2xx response.
func (c *MailerooCourier) Deliver(ctx context.Context, d Dispatch) error {
	if err := validateDispatch(d); err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx, c.config.Timeout)
	defer cancel()

	pdfData, err := d.Doc.Bytes()
	if err != nil {
		return shared.NewDomainError(shared.CodeDeliveryFailed, "failed to read document: "+err.Error())
	}

	payload, err := json.Marshal(c.buildRequest(d, pdfData))
	if err != nil {
		return shared.NewDomainError(shared.CodeDeliveryFailed, "failed to encode payload: "+err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return shared.NewDomainError(shared.CodeDeliveryFailed, "failed to build request: "+err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.config.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("maileroo delivery failed", zap.Error(err))
		return shared.NewDomainError(shared.CodeDeliveryFailed, "maileroo request failed: "+err.Error())
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("maileroo rejected delivery",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody))
		return shared.NewDomainError(shared.CodeDeliveryFailed,
			"maileroo returned status "+strconv.Itoa(resp.StatusCode))
	}

	c.logger.Info("invoice delivered via maileroo",
		zap.String("to", d.Recipient),
		zap.Int("status", resp.StatusCode))

	if err := d.Doc.Remove(); err != nil {
		c.logger.Warn("failed to remove delivered document", zap.String("path", d.Doc.Path), zap.Error(err))
	}
	return nil
}

// buildRequest assembles the Maileroo JSON payload
func (c *MailerooCourier) buildRequest(d Dispatch, pdfData []byte) mailerooRequest {
	req := mailerooRequest{
		From:    parseFromAddress(c.config.From),
		To:      []mailerooAddress{{Address: d.Recipient, DisplayName: d.CustomerName}},
		Subject: subject(d),
		HTML:    htmlBody(d),
		Plain:   plainBody(d),
		Attachments: []mailerooAttachment{{
			FileName:    attachmentName(d),
			ContentType: "application/pdf",
			Content:     base64.StdEncoding.EncodeToString(pdfData),
		}},
		Tracking: c.config.Tracking,
	}

	// Single CC goes as an object, multiple as an array
	switch len(c.config.CC) {
	case 0:
	case 1:
		req.CC = mailerooAddress{Address: c.config.CC[0]}
	default:
		ccs := make([]mailerooAddress, 0, len(c.config.CC))
		for _, cc := range c.config.CC {
			ccs = append(ccs, mailerooAddress{Address: cc})
		}
		req.CC = ccs
	}

	for _, bcc := range c.config.BCC {
		req.BCC = append(req.BCC, mailerooAddress{Address: bcc})
	}

	return req
}

// parseFromAddress splits "Display Name <addr@host>" into its parts
func parseFromAddress(from string) mailerooAddress {
	open := strings.Index(from, "<")
	end := strings.Index(from, ">")
	if open >= 0 && end > open {
		return mailerooAddress{
			Address:     strings.TrimSpace(from[open+1 : end]),
			DisplayName: strings.TrimSpace(from[:open]),
		}
	}
	return mailerooAddress{Address: strings.TrimSpace(from)}
}

var _ Courier = (*MailerooCourier)(nil)
