package delivery

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/tinkori/invoicegen/internal/domain/shared"
)

// Cipher names accepted by NewSecureRelayCourier
const (
	CipherAESGCM           = "aes-gcm"
	CipherChaCha20Poly1305 = "chacha20poly1305"
)

// envelopeVersion is the current sealed payload format version
const envelopeVersion = 1

// envelope is the wire structure carrying the sealed payload
type envelope struct {
	V      int    `json:"v"`
	Nonce  []byte `json:"nonce"`
	Cipher []byte `json:"cipher"`
}

// securePayload is the plaintext sealed into the envelope. The relay
// holds no credentials of its own, so the SMTP account travels inside
// the ciphertext alongside the message.
type securePayload struct {
	To           string `json:"to"`
	From         string `json:"from"`
	Subject      string `json:"subject"`
	Body         string `json:"body"`
	Attachment   string `json:"attachment"`
	ContentType  string `json:"content_type"`
	FileName     string `json:"file_name"`
	SMTPHost     string `json:"email_host"`
	SMTPPort     int    `json:"email_port"`
	SMTPUser     string `json:"email_user"`
	SMTPPassword string `json:"email_password"`
}

// SecureRelayCourierConfig contains configuration for the encrypted relay
type SecureRelayCourierConfig struct {
	// URL of the relay endpoint
	URL string
	// Cipher selects the AEAD: CipherAESGCM or CipherChaCha20Poly1305
	Cipher string
	// Key is the shared symmetric key, 32 bytes
	Key []byte
	// SMTP credentials sealed into each payload so the relay can
	// perform the actual send
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	// From is the sender address
	From string
	// Timeout for one delivery attempt
	Timeout time.Duration
	// Logger for progress output
	Logger *zap.Logger
	// HTTPClient override for tests; nil uses http.DefaultClient
	HTTPClient *http.Client
}

// SecureRelayCourier seals the whole email payload with an AEAD and
// posts the envelope as JSON. The relay holds the matching key and
// performs the send; email content never crosses the wire in clear.
type SecureRelayCourier struct {
	config *SecureRelayCourierConfig
	aead   cipher.AEAD
	client *http.Client
	logger *zap.Logger
}

// NewSecureRelayCourier creates the courier and constructs the AEAD
// up front, so a bad key or cipher name fails at startup rather than
// on the first invoice.
func NewSecureRelayCourier(config *SecureRelayCourierConfig) (*SecureRelayCourier, error) {
	aead, err := newAEAD(config.Cipher, config.Key)
	if err != nil {
		return nil, shared.NewDomainError(shared.CodeConfigInvalid, err.Error())
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	client := config.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return &SecureRelayCourier{
		config: config,
		aead:   aead,
		client: client,
		logger: logger,
	}, nil
}

// newAEAD builds the selected AEAD from the shared key
func newAEAD(name string, key []byte) (cipher.AEAD, error) {
	switch name {
	case CipherChaCha20Poly1305:
		if len(key) != chacha20poly1305.KeySize {
			return nil, fmt.Errorf("chacha20poly1305 requires a %d-byte key, got %d", chacha20poly1305.KeySize, len(key))
		}
		return chacha20poly1305.New(key)
	case CipherAESGCM, "":
		if len(key) != 32 {
			return nil, fmt.Errorf("aes-gcm requires a 32-byte key, got %d", len(key))
		}
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return cipher.NewGCM(block)
	default:
		return nil, fmt.Errorf("unknown cipher %q", name)
	}
}

// Deliver seals and posts the invoice, deleting the document on a 2xx
// response.
func (c *SecureRelayCourier) Deliver(ctx context.Context, d Dispatch) error {
	if err := validateDispatch(d); err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx, c.config.Timeout)
	defer cancel()

	pdfData, err := d.Doc.Bytes()
	if err != nil {
		return shared.NewDomainError(shared.CodeDeliveryFailed, "failed to read document: "+err.Error())
	}

	sealed, err := c.seal(d, pdfData)
	if err != nil {
		return shared.NewDomainError(shared.CodeDeliveryFailed, "failed to seal payload: "+err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(sealed))
	if err != nil {
		return shared.NewDomainError(shared.CodeDeliveryFailed, "failed to build request: "+err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("secure relay delivery failed", zap.String("url", c.config.URL), zap.Error(err))
		return shared.NewDomainError(shared.CodeDeliveryFailed, "secure relay request failed: "+err.Error())
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("secure relay rejected delivery", zap.Int("status", resp.StatusCode))
		return shared.NewDomainError(shared.CodeDeliveryFailed,
			"secure relay returned status "+strconv.Itoa(resp.StatusCode))
	}

	c.logger.Info("invoice delivered via secure relay",
		zap.String("to", d.Recipient),
		zap.String("cipher", c.config.Cipher))

	if err := d.Doc.Remove(); err != nil {
		c.logger.Warn("failed to remove delivered document", zap.String("path", d.Doc.Path), zap.Error(err))
	}
	return nil
}

// seal encrypts the full payload under a fresh random nonce and wraps
// it in the versioned envelope.
func (c *SecureRelayCourier) seal(d Dispatch, pdfData []byte) ([]byte, error) {
	payload := securePayload{
		To:           d.Recipient,
		From:         c.config.From,
		Subject:      subject(d),
		Body:         htmlBody(d),
		Attachment:   base64.StdEncoding.EncodeToString(pdfData),
		ContentType:  "application/pdf",
		FileName:     attachmentName(d),
		SMTPHost:     c.config.SMTPHost,
		SMTPPort:     c.config.SMTPPort,
		SMTPUser:     c.config.SMTPUser,
		SMTPPassword: c.config.SMTPPassword,
	}

	plaintext, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	return json.Marshal(envelope{
		V:      envelopeVersion,
		Nonce:  nonce,
		Cipher: c.aead.Seal(nil, nonce, plaintext, nil),
	})
}

var _ Courier = (*SecureRelayCourier)(nil)
