// Package audit records every invoice transaction as an append-only
// row in a classified stream. Recording is fire-and-forget: an audit
// failure never fails the invoice.
package audit

import (
	"strconv"

	"github.com/tinkori/invoicegen/internal/domain/invoice"
)

// Stream identifies one audit destination sheet
type Stream string

const (
	// StreamOrder receives everything a customer raises themselves
	StreamOrder Stream = "ORDER_LOG"
	// StreamSales receives staff-issued invoices with status "Placed"
	StreamSales Stream = "SP_LOG"
	// StreamQuotation receives staff-issued quotations
	StreamQuotation Stream = "QUOTATION_LOG"
	// StreamCompliance receives staff-issued invoices sent with
	// logging disabled
	StreamCompliance Stream = "CP_LOG"
)

// Cell ranges per stream shape. The order stream carries a short row,
// the staff streams carry the full transaction row.
const (
	rangeOrder = "A:H"
	rangeFull  = "A:P"
)

// TimestampLayout is the row timestamp format
const TimestampLayout = "02-01-2006 15:04"

// Entry is one classified audit row ready for a sink
type Entry struct {
	Stream    Stream
	CellRange string
	Row       []string
}

// Classify routes an invoice transaction to its audit stream and
// builds the row. The second return is false when the transaction is
// not auditable and must be dropped silently.
//
// Routing rules, in order:
//
//  1. Issuer "Customer" (case-insensitive) always goes to ORDER_LOG,
//     regardless of the logging toggle or status.
//  2. With logging enabled, staff-issued invoices go to SP_LOG for
//     status "Placed" and QUOTATION_LOG for "Quotation". Status
//     "Order_Placed" and anything unrecognized is dropped.
//  3. With logging disabled, staff-issued invoices go to CP_LOG.
func Classify(inv invoice.Invoice, timestamp string) (Entry, bool) {
	summary := invoice.ItemsSummary(inv.Items)

	if inv.IssuedByCustomer() {
		return Entry{
			Stream:    StreamOrder,
			CellRange: rangeOrder,
			Row: []string{
				timestamp,
				summary,
				inv.Status,
				inv.CustomerName,
				inv.CustomerPhone,
				inv.CustomerEmail,
				inv.CustomerAddress,
				inv.IssuedBy,
				inv.OwnerMessage,
			},
		}, true
	}

	if !inv.LoggingEnabled {
		return Entry{
			Stream:    StreamCompliance,
			CellRange: rangeFull,
			Row:       fullRow(inv, timestamp, summary),
		}, true
	}

	if inv.StatusEquals(invoice.StatusOrderPlaced) {
		return Entry{}, false
	}

	switch {
	case inv.StatusEquals(invoice.StatusPlaced):
		return Entry{Stream: StreamSales, CellRange: rangeFull, Row: fullRow(inv, timestamp, summary)}, true
	case inv.StatusEquals(invoice.StatusQuotation):
		return Entry{Stream: StreamQuotation, CellRange: rangeFull, Row: fullRow(inv, timestamp, summary)}, true
	}

	return Entry{}, false
}

// fullRow builds the sixteen-cell row used by the staff streams
func fullRow(inv invoice.Invoice, timestamp, summary string) []string {
	return []string{
		timestamp,
		summary,
		inv.CustomerName,
		inv.CustomerPhone,
		inv.CustomerEmail,
		inv.CustomerAddress,
		inv.Status,
		inv.OwnerMessage,
		inv.PaymentMethod,
		inv.PaymentDetails,
		inv.IssuedBy,
		strconv.FormatBool(inv.ApplyOverallDiscount),
		inv.OverallDiscount.String(),
		string(inv.OverallDiscountKind),
		inv.Adjustment.String(),
		string(inv.AdjustmentKind),
	}
}
