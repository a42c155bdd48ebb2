package delivery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinkori/invoicegen/internal/domain/shared"
	"github.com/tinkori/invoicegen/internal/infrastructure/printing"
)

// writeTestDoc creates a PDF artifact on disk for delivery tests
func writeTestDoc(t *testing.T, content []byte) *printing.Document {
	t.Helper()
	path := filepath.Join(t.TempDir(), "invoice_test.pdf")
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return &printing.Document{Path: path, Size: int64(len(content))}
}

func testDispatch(t *testing.T) Dispatch {
	return Dispatch{
		Recipient:    "customer@example.com",
		CustomerName: "Jane Doe",
		Status:       "Placed",
		Date:         "05-03-2026 14:30",
		Doc:          writeTestDoc(t, []byte("%PDF-1.7 fake")),
	}
}

func TestValidateDispatch(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validateDispatch(testDispatch(t)))
	})

	t.Run("missing recipient", func(t *testing.T) {
		d := testDispatch(t)
		d.Recipient = "   "
		assert.ErrorIs(t, validateDispatch(d), shared.ErrMissingRecipient)
	})

	t.Run("nil document", func(t *testing.T) {
		d := testDispatch(t)
		d.Doc = nil
		err := validateDispatch(d)
		assert.ErrorIs(t, err, shared.ErrEmptyDocument)
		assertValidationCode(t, err)
	})

	t.Run("empty document file", func(t *testing.T) {
		d := testDispatch(t)
		d.Doc = writeTestDoc(t, nil)
		assertValidationCode(t, validateDispatch(d))
	})

	t.Run("missing document file", func(t *testing.T) {
		d := testDispatch(t)
		require.NoError(t, os.Remove(d.Doc.Path))
		assertValidationCode(t, validateDispatch(d))
	})
}

// assertValidationCode verifies a dispatch precondition failure is
// classed as invalid input, not as a generation or delivery error.
func assertValidationCode(t *testing.T, err error) {
	t.Helper()
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, shared.CodeInvalidInput, domainErr.Code)
}

func TestSubjectAndBodies(t *testing.T) {
	d := testDispatch(t)

	assert.Equal(t, "Invoice - Placed", subject(d))
	assert.Contains(t, htmlBody(d), "Jane Doe")
	assert.Contains(t, htmlBody(d), "05-03-2026 14:30")
	assert.Contains(t, plainBody(d), "Placed")
	assert.Equal(t, "invoice_Placed.pdf", attachmentName(d))
}
