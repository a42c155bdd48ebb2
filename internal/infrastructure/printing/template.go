package printing

import (
	"bytes"
	"embed"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tinkori/invoicegen/internal/domain/invoice"
)

//go:embed templates/*.html
var templateFS embed.FS

const invoiceTemplatePath = "templates/invoice_a4.html"

// pdfDateLayout is the timestamp format printed on the document itself.
const pdfDateLayout = "02 Jan 2006 15:04"

// templateItem is one line item prepared for rendering
type templateItem struct {
	Name         string
	Quantity     int
	UnitPrice    decimal.Decimal
	Discount     decimal.Decimal
	DiscountKind invoice.DiscountKind
	Total        decimal.Decimal
}

// templateData carries everything the invoice template binds
type templateData struct {
	Name    string
	Phone   string
	Address string
	Date    string
	Status  string

	Items    []templateItem
	Subtotal decimal.Decimal

	ApplyOverallDiscount bool
	OverallDiscount      decimal.Decimal
	OverallDiscountKind  invoice.DiscountKind
	Adjustment           decimal.Decimal
	AdjustmentKind       invoice.DiscountKind

	Amount decimal.Decimal

	PaymentMethod  string
	PaymentDetails string
	IssuedBy       string
	OwnerMessage   string
}

// TemplateEngine renders invoice data into the embedded HTML template
type TemplateEngine struct {
	tmpl *template.Template
}

// NewTemplateEngine parses the embedded invoice template
func NewTemplateEngine() (*TemplateEngine, error) {
	content, err := templateFS.ReadFile(invoiceTemplatePath)
	if err != nil {
		return nil, NewRenderError(ErrCodeInvalidHTML, "failed to read embedded template", err)
	}

	tmpl, err := template.New("invoice").Funcs(templateFuncs()).Parse(string(content))
	if err != nil {
		return nil, NewRenderError(ErrCodeInvalidHTML, "failed to parse embedded template", err)
	}

	return &TemplateEngine{tmpl: tmpl}, nil
}

// RenderInvoice produces the invoice HTML for the given transaction.
// The payable amount is passed in rather than recomputed so the figure
// on the document is exactly the one the pipeline decided on.
func (e *TemplateEngine) RenderInvoice(inv invoice.Invoice, payable decimal.Decimal, now time.Time) (string, error) {
	items := make([]templateItem, 0, len(inv.Items))
	for _, item := range inv.Items {
		items = append(items, templateItem{
			Name:         item.Name,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
			Discount:     item.Discount,
			DiscountKind: item.DiscountKind,
			Total:        invoice.LineTotal(item),
		})
	}

	data := templateData{
		Name:                 inv.CustomerName,
		Phone:                inv.CustomerPhone,
		Address:              inv.CustomerAddress,
		Date:                 now.Format(pdfDateLayout),
		Status:               inv.Status,
		Items:                items,
		Subtotal:             invoice.Subtotal(inv.Items),
		ApplyOverallDiscount: inv.ApplyOverallDiscount,
		OverallDiscount:      inv.OverallDiscount,
		OverallDiscountKind:  inv.OverallDiscountKind,
		Adjustment:           inv.Adjustment,
		AdjustmentKind:       inv.AdjustmentKind,
		Amount:               payable,
		PaymentMethod:        inv.PaymentMethod,
		PaymentDetails:       inv.PaymentDetails,
		IssuedBy:             inv.IssuedBy,
		OwnerMessage:         inv.OwnerMessage,
	}

	var buf bytes.Buffer
	if err := e.tmpl.Execute(&buf, data); err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "failed to execute template", err)
	}

	return buf.String(), nil
}

// templateFuncs returns the function map available to the template
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatMoney": formatMoney,
		"titleCase":   titleCase,
		"upper":       strings.ToUpper,
		"lower":       strings.ToLower,
		"isPercent":   isPercent,
	}
}

// formatMoney formats a decimal value with thousand separators
// Example: 1234.5 -> "1,234.50"
func formatMoney(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	parts := strings.Split(d.StringFixed(2), ".")
	intPart := parts[0]
	decPart := "00"
	if len(parts) > 1 {
		decPart = parts[1]
	}

	var result strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(c)
	}

	return sign + result.String() + "." + decPart
}

// titleCase converts string to title case using proper Unicode handling
func titleCase(s string) string {
	caser := cases.Title(language.English)
	return caser.String(s)
}

func isPercent(kind invoice.DiscountKind) bool {
	return kind == invoice.DiscountPercent
}
