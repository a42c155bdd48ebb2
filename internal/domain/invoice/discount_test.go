package invoice

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestApplyDiscount(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		value  string
		kind   DiscountKind
		want   string
	}{
		{"percent", "200", "10", DiscountPercent, "180"},
		{"flat", "200", "10", DiscountFlat, "190"},
		{"empty kind behaves as flat", "200", "10", "", "190"},
		{"unrecognized kind behaves as flat", "200", "10", "COUPON", "190"},
		{"zero discount", "200", "0", DiscountPercent, "200"},
		{"percent over 100 is not clamped", "50", "150", DiscountPercent, "-25"},
		{"flat larger than amount goes negative", "10", "25", DiscountFlat, "-15"},
		{"percent of fraction", "18", "2", DiscountPercent, "17.64"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyDiscount(dec(tt.amount), dec(tt.value), tt.kind)
			assert.True(t, dec(tt.want).Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestComputePayable_NoDiscounts(t *testing.T) {
	// Worked example: 2 x 10.00, nothing else => 20.00.
	inv := Invoice{
		Items: []LineItem{
			{Name: "Widget", Quantity: 2, UnitPrice: dec("10.00"), Discount: decimal.Zero, DiscountKind: DiscountFlat},
		},
	}

	got := ComputePayable(inv)
	assert.True(t, dec("20.00").Equal(got), "got %s", got)
}

func TestComputePayable_AllStages(t *testing.T) {
	// Worked example: 2 x 10.00 with 10% item discount => 18.00;
	// overall 5 FLAT => 13.00; adjustment 2 PERCENT => 12.74.
	inv := Invoice{
		Items: []LineItem{
			{Name: "Widget", Quantity: 2, UnitPrice: dec("10.00"), Discount: dec("10"), DiscountKind: DiscountPercent},
		},
		ApplyOverallDiscount: true,
		OverallDiscount:      dec("5"),
		OverallDiscountKind:  DiscountFlat,
		Adjustment:           dec("2"),
		AdjustmentKind:       DiscountPercent,
	}

	got := ComputePayable(inv)
	assert.True(t, dec("12.74").Equal(got), "got %s", got)
}

func TestComputePayable_AdjustmentAppliesWithoutOverall(t *testing.T) {
	// The adjustment stage runs even when the overall toggle is off,
	// and the overall discount fields are ignored entirely.
	inv := Invoice{
		Items: []LineItem{
			{Name: "Widget", Quantity: 1, UnitPrice: dec("100"), DiscountKind: DiscountFlat},
		},
		ApplyOverallDiscount: false,
		OverallDiscount:      dec("50"),
		OverallDiscountKind:  DiscountFlat,
		Adjustment:           dec("7"),
		AdjustmentKind:       DiscountFlat,
	}

	got := ComputePayable(inv)
	assert.True(t, dec("93").Equal(got), "got %s", got)
}

func TestComputePayable_MultipleItems(t *testing.T) {
	inv := Invoice{
		Items: []LineItem{
			{Name: "A", Quantity: 3, UnitPrice: dec("5"), Discount: dec("1"), DiscountKind: DiscountFlat},
			{Name: "B", Quantity: 2, UnitPrice: dec("20"), Discount: dec("25"), DiscountKind: DiscountPercent},
		},
	}

	// 3*5 - 1 = 14; 2*20 * 0.75 = 30; total 44.
	got := ComputePayable(inv)
	assert.True(t, dec("44").Equal(got), "got %s", got)
}

func TestComputePayable_NegativeTotalAllowed(t *testing.T) {
	inv := Invoice{
		Items: []LineItem{
			{Name: "Cheap", Quantity: 1, UnitPrice: dec("5"), DiscountKind: DiscountFlat},
		},
		Adjustment:     dec("10"),
		AdjustmentKind: DiscountFlat,
	}

	got := ComputePayable(inv)
	assert.True(t, got.IsNegative())
	assert.True(t, dec("-5").Equal(got), "got %s", got)
}

func TestComputePayable_Idempotent(t *testing.T) {
	inv := Invoice{
		Items: []LineItem{
			{Name: "Widget", Quantity: 2, UnitPrice: dec("10.00"), Discount: dec("10"), DiscountKind: DiscountPercent},
		},
		ApplyOverallDiscount: true,
		OverallDiscount:      dec("5"),
		OverallDiscountKind:  DiscountFlat,
		Adjustment:           dec("2"),
		AdjustmentKind:       DiscountPercent,
	}

	first := ComputePayable(inv)
	second := ComputePayable(inv)
	require.True(t, first.Equal(second))
}

func TestSubtotal_ExcludesOverallAndAdjustment(t *testing.T) {
	inv := Invoice{
		Items: []LineItem{
			{Name: "Widget", Quantity: 2, UnitPrice: dec("10.00"), Discount: dec("10"), DiscountKind: DiscountPercent},
		},
		ApplyOverallDiscount: true,
		OverallDiscount:      dec("5"),
		OverallDiscountKind:  DiscountFlat,
		Adjustment:           dec("2"),
		AdjustmentKind:       DiscountPercent,
	}

	subtotal := Subtotal(inv.Items)
	payable := ComputePayable(inv)

	assert.True(t, dec("18.00").Equal(subtotal), "got %s", subtotal)
	assert.True(t, subtotal.GreaterThan(payable))
}
