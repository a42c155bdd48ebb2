package delivery

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/chacha20poly1305"
)

var testKey = make([]byte, 32)

func newSecureRelayCourier(t *testing.T, url, cipherName string) *SecureRelayCourier {
	t.Helper()
	courier, err := NewSecureRelayCourier(&SecureRelayCourierConfig{
		URL:          url,
		Cipher:       cipherName,
		Key:          testKey,
		SMTPHost:     "smtp.example.com",
		SMTPPort:     587,
		SMTPUser:     "mailer",
		SMTPPassword: "hunter2",
		From:         "sender@example.com",
	})
	require.NoError(t, err)
	return courier
}

func openEnvelope(t *testing.T, aead cipher.AEAD, body []byte) securePayload {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(body, &env))
	assert.Equal(t, envelopeVersion, env.V)

	plaintext, err := aead.Open(nil, env.Nonce, env.Cipher, nil)
	require.NoError(t, err)

	var payload securePayload
	require.NoError(t, json.Unmarshal(plaintext, &payload))
	return payload
}

func TestSecureRelayCourierDeliverAESGCM(t *testing.T) {
	var body []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		body, err = io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	courier := newSecureRelayCourier(t, server.URL, CipherAESGCM)
	d := testDispatch(t)
	require.NoError(t, courier.Deliver(context.Background(), d))

	block, err := aes.NewCipher(testKey)
	require.NoError(t, err)
	aead, err := cipher.NewGCM(block)
	require.NoError(t, err)

	payload := openEnvelope(t, aead, body)
	assert.Equal(t, "customer@example.com", payload.To)
	assert.Equal(t, "Invoice - Placed", payload.Subject)
	assert.Equal(t, "invoice_Placed.pdf", payload.FileName)

	// The relay performs the actual send, so the SMTP account must
	// arrive inside the sealed payload.
	assert.Equal(t, "smtp.example.com", payload.SMTPHost)
	assert.Equal(t, 587, payload.SMTPPort)
	assert.Equal(t, "mailer", payload.SMTPUser)
	assert.Equal(t, "hunter2", payload.SMTPPassword)

	pdf, err := base64.StdEncoding.DecodeString(payload.Attachment)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7 fake"), pdf)

	_, statErr := os.Stat(d.Doc.Path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSecureRelayCourierDeliverChaCha20(t *testing.T) {
	var body []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	courier := newSecureRelayCourier(t, server.URL, CipherChaCha20Poly1305)
	d := testDispatch(t)
	require.NoError(t, courier.Deliver(context.Background(), d))

	aead, err := chacha20poly1305.New(testKey)
	require.NoError(t, err)

	payload := openEnvelope(t, aead, body)
	assert.Equal(t, "customer@example.com", payload.To)
	assert.Equal(t, "smtp.example.com", payload.SMTPHost)
}

func TestNewSecureRelayCourierRejectsBadConfig(t *testing.T) {
	_, err := NewSecureRelayCourier(&SecureRelayCourierConfig{Cipher: CipherAESGCM, Key: []byte("short")})
	assert.Error(t, err)

	_, err = NewSecureRelayCourier(&SecureRelayCourierConfig{Cipher: "rot13", Key: testKey})
	assert.Error(t, err)
}

func TestSecureRelayCourierNon2xxKeepsDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	courier := newSecureRelayCourier(t, server.URL, CipherAESGCM)
	d := testDispatch(t)

	require.Error(t, courier.Deliver(context.Background(), d))
	_, statErr := os.Stat(d.Doc.Path)
	assert.NoError(t, statErr)
}

func TestSecureRelayCourierRefusesEmptyDocumentBeforeNetwork(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	courier := newSecureRelayCourier(t, server.URL, CipherAESGCM)
	d := testDispatch(t)
	d.Doc = writeTestDoc(t, nil)

	require.Error(t, courier.Deliver(context.Background(), d))
	assert.Zero(t, requests)
}
