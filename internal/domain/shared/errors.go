package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes for the invoice pipeline, one per failure class.
// Validation and generation errors abort the transaction, delivery
// errors are surfaced without rollback, configuration errors are fatal
// at startup or on first use.
const (
	CodeInvalidInput     = "INVALID_INPUT"
	CodeGenerationFailed = "GENERATION_FAILED"
	CodeDeliveryFailed   = "DELIVERY_FAILED"
	CodeConfigInvalid    = "CONFIG_INVALID"
)

// Common domain errors
var (
	ErrInvalidInput     = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrMissingRecipient = NewDomainError(CodeInvalidInput, "Recipient email is required")
	ErrEmptyDocument    = NewDomainError(CodeInvalidInput, "Rendered document is missing or empty")
)
