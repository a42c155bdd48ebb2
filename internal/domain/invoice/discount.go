package invoice

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ApplyDiscount subtracts a discount from amount. PERCENT subtracts
// value percent of the amount; every other kind, including the empty
// string and unrecognized tokens, subtracts the value as-is. The result
// is not clamped: negative outcomes are valid and flow through the
// pipeline unchanged.
func ApplyDiscount(amount, value decimal.Decimal, kind DiscountKind) decimal.Decimal {
	if kind == DiscountPercent {
		return amount.Sub(amount.Mul(value).Div(hundred))
	}
	return amount.Sub(value)
}

// LineTotal computes price*quantity for one line item with the item's
// own discount applied.
func LineTotal(item LineItem) decimal.Decimal {
	gross := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
	return ApplyDiscount(gross, item.Discount, item.DiscountKind)
}

// Subtotal accumulates LineTotal over all items. This is the figure
// shown as "Subtotal" on the rendered document; the overall discount
// and adjustment stages are intentionally excluded so the document can
// itemize them.
func Subtotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(LineTotal(item))
	}
	return total
}

// ComputePayable computes the final payable amount for an invoice.
// The stage order is fixed:
//
//  1. per item: unit price * quantity, then the item's own discount;
//  2. the overall discount, only if the toggle is enabled;
//  3. the adjustment, always.
//
// Pure function: no side effects, identical inputs yield identical
// output.
func ComputePayable(inv Invoice) decimal.Decimal {
	total := Subtotal(inv.Items)

	if inv.ApplyOverallDiscount {
		total = ApplyDiscount(total, inv.OverallDiscount, inv.OverallDiscountKind)
	}

	return ApplyDiscount(total, inv.Adjustment, inv.AdjustmentKind)
}
