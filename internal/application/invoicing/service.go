// Package invoicing orchestrates one invoice transaction end to end:
// compute the payable amount, render the PDF, deliver it, and record
// the audit row.
package invoicing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tinkori/invoicegen/internal/domain/invoice"
	"github.com/tinkori/invoicegen/internal/domain/shared"
	"github.com/tinkori/invoicegen/internal/infrastructure/delivery"
	"github.com/tinkori/invoicegen/internal/infrastructure/metrics"
	"github.com/tinkori/invoicegen/internal/infrastructure/printing"
)

// controllerDateLayout is the timestamp format used in emails and
// audit rows. The document itself uses its own layout.
const controllerDateLayout = "02-01-2006 15:04"

// Generator renders the invoice PDF artifact
type Generator interface {
	Render(ctx context.Context, inv invoice.Invoice, payable decimal.Decimal, now time.Time) (*printing.Document, error)
}

// Recorder appends the audit row for a transaction
type Recorder interface {
	Record(ctx context.Context, inv invoice.Invoice, ts time.Time)
}

// Receipt is the outcome of one processed transaction
type Receipt struct {
	// Payable is the final computed amount
	Payable decimal.Decimal
	// Message is the confirmation returned to the caller
	Message string
}

// ServiceConfig contains the orchestration policy knobs
type ServiceConfig struct {
	// DeliveryStrategy name, used only for instrumentation labels
	DeliveryStrategy string
	// AuditOnDeliveryFailure records the audit row even when delivery
	// fails. The transaction did happen; the trail should say so.
	AuditOnDeliveryFailure bool
	// Logger for progress output
	Logger *zap.Logger
	// Clock override for tests; nil uses time.Now
	Clock func() time.Time
}

// Service runs the invoice pipeline. Stateless between transactions.
type Service struct {
	generator Generator
	courier   delivery.Courier
	recorder  Recorder
	config    ServiceConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewService wires the pipeline stages together
func NewService(generator Generator, courier delivery.Courier, recorder Recorder, config ServiceConfig) *Service {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := config.Clock
	if now == nil {
		now = time.Now
	}
	return &Service{
		generator: generator,
		courier:   courier,
		recorder:  recorder,
		config:    config,
		logger:    logger,
		now:       now,
	}
}

// Generate processes one invoice transaction. The timestamp is taken
// once at the start so the document, the email, and the audit row all
// carry the same moment. A render failure aborts before delivery and
// audit; a delivery failure still audits when the policy says so.
func (s *Service) Generate(ctx context.Context, inv invoice.Invoice) (*Receipt, error) {
	start := s.now()
	payable := invoice.ComputePayable(inv)

	s.logger.Info("processing invoice transaction",
		zap.String("customer", inv.CustomerName),
		zap.String("status", inv.Status),
		zap.String("issued_by", inv.IssuedBy),
		zap.String("payable", payable.String()))

	renderStart := s.now()
	doc, err := s.generator.Render(ctx, inv, payable, start)
	if err != nil {
		metrics.ObserveRender(metrics.ResultError, s.now().Sub(renderStart))
		metrics.ObserveGenerate(metrics.ResultError, s.now().Sub(start))
		s.logger.Error("invoice generation failed", zap.Error(err))
		return nil, shared.NewDomainError(shared.CodeGenerationFailed, err.Error())
	}
	metrics.ObserveRender(metrics.ResultSuccess, s.now().Sub(renderStart))

	date := start.Format(controllerDateLayout)

	deliveryStart := s.now()
	err = s.courier.Deliver(ctx, delivery.Dispatch{
		Recipient:    inv.CustomerEmail,
		CustomerName: inv.CustomerName,
		Status:       inv.Status,
		Date:         date,
		Doc:          doc,
	})
	if err != nil {
		metrics.ObserveDelivery(s.config.DeliveryStrategy, metrics.ResultError, s.now().Sub(deliveryStart))
		metrics.ObserveGenerate(metrics.ResultError, s.now().Sub(start))
		s.logger.Error("invoice delivery failed",
			zap.String("to", inv.CustomerEmail),
			zap.String("document", doc.Path),
			zap.Error(err))

		if s.config.AuditOnDeliveryFailure {
			s.recorder.Record(ctx, inv, start)
		}
		return nil, err
	}
	metrics.ObserveDelivery(s.config.DeliveryStrategy, metrics.ResultSuccess, s.now().Sub(deliveryStart))

	s.recorder.Record(ctx, inv, start)

	metrics.ObserveGenerate(metrics.ResultSuccess, s.now().Sub(start))
	s.logger.Info("invoice transaction complete",
		zap.String("customer", inv.CustomerName),
		zap.String("payable", payable.String()))

	return &Receipt{
		Payable: payable,
		Message: "Invoice generated & emailed successfully",
	}, nil
}
