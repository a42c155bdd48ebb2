package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinkori/invoicegen/internal/application/invoicing"
	"github.com/tinkori/invoicegen/internal/domain/invoice"
	"github.com/tinkori/invoicegen/internal/domain/shared"
	"github.com/tinkori/invoicegen/internal/interfaces/http/middleware"
)

// stubService captures the submitted transaction
type stubService struct {
	got     invoice.Invoice
	receipt *invoicing.Receipt
	err     error
}

func (s *stubService) Generate(_ context.Context, inv invoice.Invoice) (*invoicing.Receipt, error) {
	s.got = inv
	if s.err != nil {
		return nil, s.err
	}
	return s.receipt, nil
}

func setupRouter(t *testing.T, svc *stubService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, RegisterValidators())

	engine := gin.New()
	engine.Use(middleware.RequestID())
	NewInvoiceHandler(svc, nil).RegisterRoutes(engine.Group(""))
	return engine
}

func validRequest() map[string]any {
	return map[string]any{
		"customerName":  "Jane Doe",
		"customerEmail": "jane@example.com",
		"invoiceStatus": "Placed",
		"issuedBy":      "owner",
		"items": []map[string]any{
			{"name": "Widget", "quantity": 2, "price": 10},
		},
	}
}

func postJSON(t *testing.T, engine *gin.Engine, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/invoice/generate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestGenerateInvoice(t *testing.T) {
	svc := &stubService{receipt: &invoicing.Receipt{
		Payable: decimal.NewFromInt(20),
		Message: "Invoice generated & emailed successfully",
	}}
	engine := setupRouter(t, svc)

	w := postJSON(t, engine, validRequest())
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool                    `json:"success"`
		Data    GenerateInvoiceResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Invoice generated & emailed successfully", resp.Data.Message)
	assert.Equal(t, "20", resp.Data.Payable)

	// Submitted transaction reached the service intact
	assert.Equal(t, "Jane Doe", svc.got.CustomerName)
	assert.Equal(t, "Placed", svc.got.Status)
	require.Len(t, svc.got.Items, 1)
	assert.Equal(t, 2, svc.got.Items[0].Quantity)
}

func TestGenerateInvoiceLoggingDefaultsOn(t *testing.T) {
	svc := &stubService{receipt: &invoicing.Receipt{}}
	engine := setupRouter(t, svc)

	w := postJSON(t, engine, validRequest())
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, svc.got.LoggingEnabled)

	payload := validRequest()
	payload["enableLogging"] = false
	w = postJSON(t, engine, payload)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, svc.got.LoggingEnabled)
}

func TestGenerateInvoiceValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"missing email", func(p map[string]any) { delete(p, "customerEmail") }},
		{"bad email", func(p map[string]any) { p["customerEmail"] = "not-an-email" }},
		{"missing name", func(p map[string]any) { delete(p, "customerName") }},
		{"missing items", func(p map[string]any) { delete(p, "items") }},
		{"empty items", func(p map[string]any) { p["items"] = []map[string]any{} }},
		{"zero quantity", func(p map[string]any) {
			p["items"] = []map[string]any{{"name": "Widget", "quantity": 0, "price": 10}}
		}},
		{"unknown discount kind", func(p map[string]any) {
			p["items"] = []map[string]any{{"name": "Widget", "quantity": 1, "price": 10, "discountType": "HALF"}}
		}},
		{"unknown overall kind", func(p map[string]any) { p["overallDiscountType"] = "NOPE" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{receipt: &invoicing.Receipt{}}
			engine := setupRouter(t, svc)

			payload := validRequest()
			tt.mutate(payload)

			w := postJSON(t, engine, payload)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestGenerateInvoiceAcceptsKnownDiscountKinds(t *testing.T) {
	for _, kind := range []string{"FLAT", "PERCENT"} {
		svc := &stubService{receipt: &invoicing.Receipt{}}
		engine := setupRouter(t, svc)

		payload := validRequest()
		payload["items"] = []map[string]any{
			{"name": "Widget", "quantity": 1, "price": 10, "discount": 2, "discountType": kind},
		}

		w := postJSON(t, engine, payload)
		assert.Equal(t, http.StatusOK, w.Code, kind)
	}
}

func TestGenerateInvoiceDomainErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"generation failure", shared.NewDomainError(shared.CodeGenerationFailed, "render broke"), http.StatusInternalServerError},
		{"delivery failure", shared.NewDomainError(shared.CodeDeliveryFailed, "mail bounced"), http.StatusBadGateway},
		{"invalid input", shared.ErrMissingRecipient, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{err: tt.err}
			engine := setupRouter(t, svc)

			w := postJSON(t, engine, validRequest())
			assert.Equal(t, tt.status, w.Code)

			var resp struct {
				Success bool `json:"success"`
				Error   struct {
					Code      string `json:"code"`
					RequestID string `json:"request_id"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error.RequestID)
		})
	}
}

func TestGenerateInvoiceMalformedJSON(t *testing.T) {
	svc := &stubService{receipt: &invoicing.Receipt{}}
	engine := setupRouter(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/invoice/generate", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
