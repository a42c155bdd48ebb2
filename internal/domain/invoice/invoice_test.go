package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiscountKindIsValid(t *testing.T) {
	assert.True(t, DiscountFlat.IsValid())
	assert.True(t, DiscountPercent.IsValid())
	assert.True(t, DiscountKind("").IsValid())
	assert.False(t, DiscountKind("COUPON").IsValid())
	assert.False(t, DiscountKind("percent").IsValid())
}

func TestIssuedByCustomer(t *testing.T) {
	tests := []struct {
		issuedBy string
		want     bool
	}{
		{"Customer", true},
		{"customer", true},
		{"CUSTOMER", true},
		{"Owner", false},
		{"", false},
	}

	for _, tt := range tests {
		inv := Invoice{IssuedBy: tt.issuedBy}
		assert.Equal(t, tt.want, inv.IssuedByCustomer(), "issuedBy=%q", tt.issuedBy)
	}
}

func TestItemsSummary(t *testing.T) {
	items := []LineItem{
		{Name: "Widget", Quantity: 2, UnitPrice: dec("10")},
		{Name: "Gadget", Quantity: 1, UnitPrice: dec("99.5")},
	}

	assert.Equal(t, "Widget x2 @ 10\nGadget x1 @ 99.5", ItemsSummary(items))
	assert.Equal(t, "", ItemsSummary(nil))
}
