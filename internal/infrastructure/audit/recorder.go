package audit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tinkori/invoicegen/internal/domain/invoice"
	"github.com/tinkori/invoicegen/internal/infrastructure/metrics"
)

// defaultAppendTimeout bounds one sink append so a hung audit backend
// cannot stall the response.
const defaultAppendTimeout = 10 * time.Second

// Recorder classifies transactions and hands them to the configured
// sink. All failures are logged and swallowed; the invoice outcome
// never depends on the audit trail.
type Recorder struct {
	sink    Sink
	timeout time.Duration
	logger  *zap.Logger
}

// NewRecorder creates a recorder over the given sink. A nil sink
// disables recording entirely.
func NewRecorder(sink Sink, timeout time.Duration, logger *zap.Logger) *Recorder {
	if timeout == 0 {
		timeout = defaultAppendTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{sink: sink, timeout: timeout, logger: logger}
}

// Record classifies the transaction and appends its row. Unroutable
// transactions are dropped silently; append failures are logged at
// warn level and swallowed.
func (r *Recorder) Record(ctx context.Context, inv invoice.Invoice, ts time.Time) {
	if r.sink == nil {
		return
	}

	entry, ok := Classify(inv, ts.Format(TimestampLayout))
	if !ok {
		metrics.IncAudit("none", metrics.ResultDropped)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.sink.Append(ctx, entry); err != nil {
		metrics.IncAudit(string(entry.Stream), metrics.ResultError)
		r.logger.Warn("audit append failed",
			zap.String("stream", string(entry.Stream)),
			zap.Error(err))
		return
	}

	metrics.IncAudit(string(entry.Stream), metrics.ResultSuccess)
	r.logger.Info("transaction audited",
		zap.String("stream", string(entry.Stream)))
}
