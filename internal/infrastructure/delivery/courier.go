// Package delivery sends generated invoice documents to the customer.
//
// Four interchangeable couriers implement the Courier interface:
//
//   - SMTPCourier talks to an SMTP server directly
//   - RelayCourier posts a multipart form to a generic email relay
//   - SecureRelayCourier posts an AEAD-sealed JSON payload to a
//     hardened relay
//   - MailerooCourier uses the Maileroo transactional email API
//
// All couriers share the same contract: the dispatch is validated
// before any network connection is opened, and the document file is
// deleted only after the courier reports success.
package delivery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tinkori/invoicegen/internal/domain/shared"
	"github.com/tinkori/invoicegen/internal/infrastructure/printing"
)

// defaultDeliveryTimeout bounds a single delivery attempt when the
// caller's context carries no deadline of its own.
const defaultDeliveryTimeout = 30 * time.Second

// Dispatch is one delivery order: a document plus the addressing
// details needed to send it.
type Dispatch struct {
	// Recipient is the customer email address
	Recipient string
	// CustomerName is used in the greeting
	CustomerName string
	// Status is the invoice classification label, used in the subject
	Status string
	// Date is the pre-formatted transaction timestamp
	Date string
	// Doc is the generated PDF artifact
	Doc *printing.Document
}

// Courier delivers an invoice document. Implementations delete the
// document file on success and leave it in place on failure.
type Courier interface {
	Deliver(ctx context.Context, d Dispatch) error
}

// validateDispatch checks the dispatch before any network I/O.
// A missing recipient or an empty/missing document file is refused
// outright so no connection is ever opened for a doomed send.
func validateDispatch(d Dispatch) error {
	if strings.TrimSpace(d.Recipient) == "" {
		return shared.ErrMissingRecipient
	}
	if d.Doc == nil {
		return shared.ErrEmptyDocument
	}
	if err := d.Doc.Validate(); err != nil {
		return shared.NewDomainError(shared.CodeInvalidInput, err.Error())
	}
	return nil
}

// subject builds the email subject line
func subject(d Dispatch) string {
	return "Invoice - " + d.Status
}

// htmlBody builds the HTML email body
func htmlBody(d Dispatch) string {
	return fmt.Sprintf("<p>Hi %s,<br/>Your invoice (%s) dated %s is attached.</p>",
		d.CustomerName, d.Status, d.Date)
}

// plainBody builds the plain-text email body
func plainBody(d Dispatch) string {
	return fmt.Sprintf("Hi %s,\n\nYour invoice (%s) dated %s is attached.\n",
		d.CustomerName, d.Status, d.Date)
}

// attachmentName is the file name presented to the recipient
func attachmentName(d Dispatch) string {
	return "invoice_" + d.Status + ".pdf"
}

// withTimeout applies the courier timeout unless the caller already
// set a deadline.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout == 0 {
		timeout = defaultDeliveryTimeout
	}
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
