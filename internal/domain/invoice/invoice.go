package invoice

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DiscountKind identifies how a discount value is interpreted.
type DiscountKind string

const (
	// DiscountFlat subtracts the value as an absolute amount.
	DiscountFlat DiscountKind = "FLAT"
	// DiscountPercent subtracts value percent of the amount.
	DiscountPercent DiscountKind = "PERCENT"
)

// IsValid reports whether the kind is one of the known values.
// The empty string is accepted and behaves like FLAT.
func (k DiscountKind) IsValid() bool {
	switch k {
	case DiscountFlat, DiscountPercent, "":
		return true
	}
	return false
}

// IssuerCustomer is the distinguished issuer value that routes a
// transaction to the order audit stream regardless of any other field.
const IssuerCustomer = "Customer"

// Well-known status labels. Status is a free-form token; these are the
// values the audit router gives special treatment.
const (
	StatusPlaced      = "Placed"
	StatusQuotation   = "Quotation"
	StatusOrderPlaced = "Order_Placed"
)

// LineItem is a single ordered position. Immutable once submitted.
type LineItem struct {
	Name         string
	Quantity     int
	UnitPrice    decimal.Decimal
	Discount     decimal.Decimal
	DiscountKind DiscountKind
}

// Invoice is one invoice transaction as submitted by the caller. It is
// consumed synchronously by the generation pipeline and discarded; no
// state is retained between transactions.
type Invoice struct {
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   string
	CustomerAddress string

	// Status is a free-form classification token, e.g. "Placed",
	// "Quotation", "Order_Placed".
	Status string

	// IssuedBy identifies who raised the invoice. "Customer" is a
	// distinguished value, compared case-insensitively.
	IssuedBy string

	OwnerMessage   string
	PaymentMethod  string
	PaymentDetails string

	Items []LineItem

	ApplyOverallDiscount bool
	OverallDiscount      decimal.Decimal
	OverallDiscountKind  DiscountKind

	// Adjustment is applied unconditionally after the overall discount
	// stage, regardless of ApplyOverallDiscount.
	Adjustment     decimal.Decimal
	AdjustmentKind DiscountKind

	// LoggingEnabled drives audit routing. Defaults to true for
	// submissions that do not set it explicitly.
	LoggingEnabled bool
}

// IssuedByCustomer reports whether the issuer is the distinguished
// "Customer" value, compared case-insensitively.
func (inv *Invoice) IssuedByCustomer() bool {
	return strings.EqualFold(inv.IssuedBy, IssuerCustomer)
}

// StatusEquals compares the status label case-insensitively.
func (inv *Invoice) StatusEquals(status string) bool {
	return strings.EqualFold(inv.Status, status)
}
