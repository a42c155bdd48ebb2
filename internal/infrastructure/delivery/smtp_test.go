package delivery

import (
	"context"
	"net/smtp"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMailer records the send instead of talking to a server
type fakeMailer struct {
	addr  string
	from  string
	to    []string
	msg   []byte
	err   error
	calls int
}

func (f *fakeMailer) SendMail(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
	f.calls++
	f.addr = addr
	f.from = from
	f.to = to
	f.msg = msg
	return f.err
}

func newSMTPCourier(mailer *fakeMailer) *SMTPCourier {
	return NewSMTPCourier(&SMTPCourierConfig{
		Host:        "smtp.example.com",
		Port:        587,
		User:        "sender@example.com",
		Password:    "secret",
		From:        "sender@example.com",
		DisplayName: "Billing",
		CC:          []string{"accounts@example.com"},
		BCC:         []string{"archive@example.com"},
		Mailer:      mailer,
	})
}

func TestSMTPCourierDeliver(t *testing.T) {
	mailer := &fakeMailer{}
	courier := newSMTPCourier(mailer)

	d := testDispatch(t)
	require.NoError(t, courier.Deliver(context.Background(), d))

	assert.Equal(t, "smtp.example.com:587", mailer.addr)
	assert.Equal(t, "sender@example.com", mailer.from)
	assert.Equal(t, []string{"customer@example.com", "accounts@example.com", "archive@example.com"}, mailer.to)

	msg := string(mailer.msg)
	assert.Contains(t, msg, "To: customer@example.com")
	assert.Contains(t, msg, "Cc: accounts@example.com")
	assert.NotContains(t, msg, "archive@example.com")
	assert.Contains(t, msg, "Invoice - Placed")
	assert.Contains(t, msg, "Content-Type: application/pdf")

	// Document removed after successful delivery
	_, err := os.Stat(d.Doc.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestSMTPCourierDeliverFailureKeepsDocument(t *testing.T) {
	mailer := &fakeMailer{err: assert.AnError}
	courier := newSMTPCourier(mailer)

	d := testDispatch(t)
	err := courier.Deliver(context.Background(), d)
	require.Error(t, err)

	_, statErr := os.Stat(d.Doc.Path)
	assert.NoError(t, statErr)
}

func TestSMTPCourierRefusesEmptyDocumentBeforeSending(t *testing.T) {
	mailer := &fakeMailer{}
	courier := newSMTPCourier(mailer)

	d := testDispatch(t)
	d.Doc = writeTestDoc(t, nil)

	require.Error(t, courier.Deliver(context.Background(), d))
	assert.Zero(t, mailer.calls)
}

func TestSMTPCourierRefusesMissingRecipient(t *testing.T) {
	mailer := &fakeMailer{}
	courier := newSMTPCourier(mailer)

	d := testDispatch(t)
	d.Recipient = ""

	require.Error(t, courier.Deliver(context.Background(), d))
	assert.Zero(t, mailer.calls)
}
