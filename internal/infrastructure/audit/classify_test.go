package audit

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinkori/invoicegen/internal/domain/invoice"
)

const ts = "05-03-2026 14:30"

func staffInvoice(status string, loggingEnabled bool) invoice.Invoice {
	return invoice.Invoice{
		CustomerName:    "Jane Doe",
		CustomerPhone:   "+8801712345678",
		CustomerEmail:   "jane@example.com",
		CustomerAddress: "12 Market Road",
		Status:          status,
		IssuedBy:        "owner",
		OwnerMessage:    "note",
		PaymentMethod:   "bKash",
		PaymentDetails:  "01712345678",
		Items: []invoice.LineItem{
			{Name: "Widget", Quantity: 2, UnitPrice: decimal.NewFromInt(10)},
		},
		ApplyOverallDiscount: true,
		OverallDiscount:      decimal.NewFromInt(5),
		OverallDiscountKind:  invoice.DiscountPercent,
		Adjustment:           decimal.NewFromInt(2),
		AdjustmentKind:       invoice.DiscountFlat,
		LoggingEnabled:       loggingEnabled,
	}
}

func TestClassifyCustomerAlwaysOrderStream(t *testing.T) {
	// Issuer "Customer" wins over every other rule, logging toggle and
	// status included.
	for _, logging := range []bool{true, false} {
		for _, status := range []string{"Placed", "Quotation", "Order_Placed", "anything"} {
			inv := staffInvoice(status, logging)
			inv.IssuedBy = "customer"

			entry, ok := Classify(inv, ts)
			require.True(t, ok)
			assert.Equal(t, StreamOrder, entry.Stream)
			assert.Equal(t, "A:H", entry.CellRange)
		}
	}
}

func TestClassifyOrderRowShape(t *testing.T) {
	inv := staffInvoice("Placed", true)
	inv.IssuedBy = "Customer"

	entry, ok := Classify(inv, ts)
	require.True(t, ok)

	require.Len(t, entry.Row, 9)
	assert.Equal(t, ts, entry.Row[0])
	assert.Equal(t, "Widget x2 @ 10", entry.Row[1])
	assert.Equal(t, "Placed", entry.Row[2])
	assert.Equal(t, "Jane Doe", entry.Row[3])
	assert.Equal(t, "Customer", entry.Row[7])
	assert.Equal(t, "note", entry.Row[8])
}

func TestClassifyStaffStreams(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		logging bool
		stream  Stream
		routed  bool
	}{
		{"placed with logging", "Placed", true, StreamSales, true},
		{"placed lowercase", "placed", true, StreamSales, true},
		{"quotation with logging", "Quotation", true, StreamQuotation, true},
		{"order placed dropped", "Order_Placed", true, "", false},
		{"unknown status dropped", "Draft", true, "", false},
		{"logging off goes to compliance", "Placed", false, StreamCompliance, true},
		{"logging off order placed still compliance", "Order_Placed", false, StreamCompliance, true},
		{"logging off unknown status still compliance", "Draft", false, StreamCompliance, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, ok := Classify(staffInvoice(tt.status, tt.logging), ts)
			assert.Equal(t, tt.routed, ok)
			if tt.routed {
				assert.Equal(t, tt.stream, entry.Stream)
				assert.Equal(t, "A:P", entry.CellRange)
			}
		})
	}
}

func TestClassifyFullRowShape(t *testing.T) {
	entry, ok := Classify(staffInvoice("Placed", true), ts)
	require.True(t, ok)

	require.Len(t, entry.Row, 16)
	assert.Equal(t, []string{
		ts,
		"Widget x2 @ 10",
		"Jane Doe",
		"+8801712345678",
		"jane@example.com",
		"12 Market Road",
		"Placed",
		"note",
		"bKash",
		"01712345678",
		"owner",
		"true",
		"5",
		"PERCENT",
		"2",
		"FLAT",
	}, entry.Row)
}
