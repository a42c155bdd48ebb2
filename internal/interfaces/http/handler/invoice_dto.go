package handler

import (
	"github.com/shopspring/decimal"

	"github.com/tinkori/invoicegen/internal/domain/invoice"
)

// ItemRequest is one line item in a generation request
type ItemRequest struct {
	Name         string          `json:"name" binding:"required"`
	Quantity     int             `json:"quantity" binding:"required,min=1"`
	Price        decimal.Decimal `json:"price"`
	Discount     decimal.Decimal `json:"discount"`
	DiscountType string          `json:"discountType" binding:"omitempty,discountkind"`
}

// GenerateInvoiceRequest is the generation request payload
type GenerateInvoiceRequest struct {
	CustomerName    string `json:"customerName" binding:"required"`
	CustomerPhone   string `json:"customerPhone"`
	CustomerEmail   string `json:"customerEmail" binding:"required,email"`
	CustomerAddress string `json:"customerAddress"`

	InvoiceStatus string `json:"invoiceStatus" binding:"required"`
	IssuedBy      string `json:"issuedBy"`
	OwnerMessage  string `json:"ownerMessage"`

	PaymentMethod  string `json:"paymentMethod"`
	PaymentDetails string `json:"paymentDetails"`

	Items []ItemRequest `json:"items" binding:"required,min=1,dive"`

	ApplyOverallDiscount bool            `json:"applyOverallDiscount"`
	OverallDiscount      decimal.Decimal `json:"overallDiscount"`
	OverallDiscountType  string          `json:"overallDiscountType" binding:"omitempty,discountkind"`

	AdjustmentAmount     decimal.Decimal `json:"adjustmentAmount"`
	AdjustmentAmountType string          `json:"adjustmentAmountType" binding:"omitempty,discountkind"`

	// EnableLogging defaults to true when omitted
	EnableLogging *bool `json:"enableLogging"`
}

// GenerateInvoiceResponse is the confirmation payload
type GenerateInvoiceResponse struct {
	Message string `json:"message"`
	Payable string `json:"payable"`
}

// ToDomain maps the request to the domain transaction
func (r *GenerateInvoiceRequest) ToDomain() invoice.Invoice {
	items := make([]invoice.LineItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, invoice.LineItem{
			Name:         item.Name,
			Quantity:     item.Quantity,
			UnitPrice:    item.Price,
			Discount:     item.Discount,
			DiscountKind: invoice.DiscountKind(item.DiscountType),
		})
	}

	loggingEnabled := true
	if r.EnableLogging != nil {
		loggingEnabled = *r.EnableLogging
	}

	return invoice.Invoice{
		CustomerName:         r.CustomerName,
		CustomerPhone:        r.CustomerPhone,
		CustomerEmail:        r.CustomerEmail,
		CustomerAddress:      r.CustomerAddress,
		Status:               r.InvoiceStatus,
		IssuedBy:             r.IssuedBy,
		OwnerMessage:         r.OwnerMessage,
		PaymentMethod:        r.PaymentMethod,
		PaymentDetails:       r.PaymentDetails,
		Items:                items,
		ApplyOverallDiscount: r.ApplyOverallDiscount,
		OverallDiscount:      r.OverallDiscount,
		OverallDiscountKind:  invoice.DiscountKind(r.OverallDiscountType),
		Adjustment:           r.AdjustmentAmount,
		AdjustmentKind:       invoice.DiscountKind(r.AdjustmentAmountType),
		LoggingEnabled:       loggingEnabled,
	}
}
