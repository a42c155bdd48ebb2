package delivery

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/smtp"
	"time"

	"go.uber.org/zap"

	"github.com/tinkori/invoicegen/internal/domain/shared"
)

// Mailer abstracts the SMTP send so tests can run without a server
type Mailer interface {
	SendMail(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

// netMailer is the production Mailer backed by net/smtp
type netMailer struct{}

func (netMailer) SendMail(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	return smtp.SendMail(addr, auth, from, to, msg)
}

// SMTPCourierConfig contains configuration for direct SMTP delivery
type SMTPCourierConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	// From is the sender address
	From string
	// DisplayName is the sender display name
	DisplayName string
	// CC and BCC receive a copy of every invoice
	CC  []string
	BCC []string
	// Timeout for one delivery attempt
	Timeout time.Duration
	// Logger for progress output
	Logger *zap.Logger
	// Mailer override for tests; nil uses net/smtp
	Mailer Mailer
}

// SMTPCourier delivers invoices over SMTP with the PDF attached
type SMTPCourier struct {
	config *SMTPCourierConfig
	mailer Mailer
	logger *zap.Logger
}

// NewSMTPCourier creates an SMTP-backed courier
func NewSMTPCourier(config *SMTPCourierConfig) *SMTPCourier {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	mailer := config.Mailer
	if mailer == nil {
		mailer = netMailer{}
	}
	return &SMTPCourier{config: config, mailer: mailer, logger: logger}
}

// Deliver sends the invoice email and deletes the document on success
func (c *SMTPCourier) Deliver(ctx context.Context, d Dispatch) error {
	if err := validateDispatch(d); err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx, c.config.Timeout)
	defer cancel()

	pdfData, err := d.Doc.Bytes()
	if err != nil {
		return shared.NewDomainError(shared.CodeDeliveryFailed, "failed to read document: "+err.Error())
	}

	recipients := append([]string{d.Recipient}, c.config.CC...)
	recipients = append(recipients, c.config.BCC...)

	msg := c.buildMessage(d, pdfData)

	addr := fmt.Sprintf("%s:%d", c.config.Host, c.config.Port)
	var auth smtp.Auth
	if c.config.User != "" {
		auth = smtp.PlainAuth("", c.config.User, c.config.Password, c.config.Host)
	}

	// net/smtp has no context support; run the send in a goroutine and
	// honor the deadline from here.
	done := make(chan error, 1)
	go func() {
		done <- c.mailer.SendMail(addr, auth, c.config.From, recipients, msg)
	}()

	select {
	case <-ctx.Done():
		return shared.NewDomainError(shared.CodeDeliveryFailed, "smtp delivery timed out")
	case err = <-done:
	}
	if err != nil {
		c.logger.Error("smtp delivery failed",
			zap.String("host", c.config.Host),
			zap.Error(err))
		return shared.NewDomainError(shared.CodeDeliveryFailed, "smtp delivery failed: "+err.Error())
	}

	c.logger.Info("invoice delivered over smtp",
		zap.String("to", d.Recipient),
		zap.Int64("bytes", d.Doc.Size))

	if err := d.Doc.Remove(); err != nil {
		c.logger.Warn("failed to remove delivered document", zap.String("path", d.Doc.Path), zap.Error(err))
	}
	return nil
}

// buildMessage assembles the MIME multipart message with the PDF
// attached as base64.
func (c *SMTPCourier) buildMessage(d Dispatch, pdfData []byte) []byte {
	const boundary = "invoicegen-mixed-boundary"

	var buf bytes.Buffer

	from := c.config.From
	if c.config.DisplayName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", c.config.DisplayName), c.config.From)
	}

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", d.Recipient)
	for _, cc := range c.config.CC {
		fmt.Fprintf(&buf, "Cc: %s\r\n", cc)
	}
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject(d)))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n", boundary)
	buf.WriteString("\r\n")

	// HTML body part
	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(htmlBody(d))
	buf.WriteString("\r\n")

	// PDF attachment part
	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: application/pdf\r\n")
	buf.WriteString("Content-Transfer-Encoding: base64\r\n")
	fmt.Fprintf(&buf, "Content-Disposition: attachment; filename=%q\r\n", attachmentName(d))
	buf.WriteString("\r\n")

	encoded := base64.StdEncoding.EncodeToString(pdfData)
	// RFC 2045 line length limit
	for len(encoded) > 76 {
		buf.WriteString(encoded[:76])
		buf.WriteString("\r\n")
		encoded = encoded[76:]
	}
	buf.WriteString(encoded)
	buf.WriteString("\r\n")

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)

	return buf.Bytes()
}

var _ Courier = (*SMTPCourier)(nil)
