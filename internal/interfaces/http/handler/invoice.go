package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tinkori/invoicegen/internal/application/invoicing"
	"github.com/tinkori/invoicegen/internal/domain/invoice"
)

// InvoiceService runs one invoice transaction through the pipeline
type InvoiceService interface {
	Generate(ctx context.Context, inv invoice.Invoice) (*invoicing.Receipt, error)
}

// InvoiceHandler handles invoice generation requests
type InvoiceHandler struct {
	BaseHandler
	service InvoiceService
	logger  *zap.Logger
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(service InvoiceService, logger *zap.Logger) *InvoiceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceHandler{service: service, logger: logger}
}

// RegisterValidators installs the custom binding validators. Call once
// at startup before serving requests.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("discountkind", func(fl validator.FieldLevel) bool {
		return invoice.DiscountKind(fl.Field().String()).IsValid()
	})
}

// RegisterRoutes registers invoice routes
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/invoice")
	{
		invoices.POST("/generate", h.Generate)
	}
}

// Generate processes one invoice transaction: compute, render,
// deliver, audit.
func (h *InvoiceHandler) Generate(c *gin.Context) {
	var req GenerateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	receipt, err := h.service.Generate(c.Request.Context(), req.ToDomain())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, GenerateInvoiceResponse{
		Message: receipt.Message,
		Payable: receipt.Payable.String(),
	})
}
