package config

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Log      LogConfig
	HTTP     HTTPConfig
	PDF      PDFConfig
	Email    EmailConfig
	Delivery DeliveryConfig
	Audit    AuditConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
}

// PDFConfig holds document generation settings
type PDFConfig struct {
	Renderer        string // chromedp, wkhtmltopdf
	OutputDir       string // empty = os.TempDir()
	RenderTimeout   time.Duration
	ChromeRemoteURL string // optional remote Chrome instance
	ChromeNoSandbox bool   // required when running as root in Docker
	WkhtmltopdfPath string
}

// EmailConfig holds the fixed sender identity and secondary recipients
// shared by every delivery strategy. CC and BCC are deployment
// configuration, not per-request data.
type EmailConfig struct {
	From        string
	DisplayName string
	CC          []string
	BCC         []string
}

// DeliveryConfig selects and configures the active delivery strategy
type DeliveryConfig struct {
	Strategy    string // smtp, relay, secure_relay, maileroo
	Timeout     time.Duration
	SMTP        SMTPConfig
	Relay       RelayConfig
	SecureRelay SecureRelayConfig
	Maileroo    MailerooConfig
}

// SMTPConfig holds SMTP credentials. Used directly by the smtp
// strategy and forwarded as form fields by the relay strategies.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
}

// RelayConfig holds the multipart relay endpoint
type RelayConfig struct {
	URL string
}

// SecureRelayConfig holds the encrypted JSON relay settings. Key is
// hex-encoded pre-shared key material; its decoded length must equal
// the selected cipher's key size.
type SecureRelayConfig struct {
	URL    string
	Cipher string // aes-gcm, chacha20poly1305
	Key    string
}

// MailerooConfig holds the transactional email API settings
type MailerooConfig struct {
	URL      string
	APIKey   string
	Tracking bool
}

// AuditConfig holds audit row-store settings
type AuditConfig struct {
	Sink          string // sheets, workbook, none
	SpreadsheetID string
	BaseURL       string
	Token         string
	WorkbookPath  string
	Timeout       time.Duration
	// OnDeliveryFailure controls whether the audit row is still
	// written when delivery fails. The original behavior audited
	// unconditionally, so this defaults to true.
	OnDeliveryFailure bool
}

// KeyBytes decodes the hex-encoded pre-shared key
func (c *SecureRelayConfig) KeyBytes() ([]byte, error) {
	key, err := hex.DecodeString(c.Key)
	if err != nil {
		return nil, fmt.Errorf("secure relay key is not valid hex: %w", err)
	}
	return key, nil
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with INVOICEGEN_ prefix (e.g., INVOICEGEN_DELIVERY_SMTP_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("INVOICEGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
		},
		PDF: PDFConfig{
			Renderer:        v.GetString("pdf.renderer"),
			OutputDir:       v.GetString("pdf.output_dir"),
			RenderTimeout:   v.GetDuration("pdf.render_timeout"),
			ChromeRemoteURL: v.GetString("pdf.chrome_remote_url"),
			ChromeNoSandbox: v.GetBool("pdf.chrome_no_sandbox"),
			WkhtmltopdfPath: v.GetString("pdf.wkhtmltopdf_path"),
		},
		Email: EmailConfig{
			From:        v.GetString("email.from"),
			DisplayName: v.GetString("email.display_name"),
			CC:          v.GetStringSlice("email.cc"),
			BCC:         v.GetStringSlice("email.bcc"),
		},
		Delivery: DeliveryConfig{
			Strategy: v.GetString("delivery.strategy"),
			Timeout:  v.GetDuration("delivery.timeout"),
			SMTP: SMTPConfig{
				Host:     v.GetString("delivery.smtp.host"),
				Port:     v.GetInt("delivery.smtp.port"),
				User:     v.GetString("delivery.smtp.user"),
				Password: v.GetString("delivery.smtp.password"),
			},
			Relay: RelayConfig{
				URL: v.GetString("delivery.relay.url"),
			},
			SecureRelay: SecureRelayConfig{
				URL:    v.GetString("delivery.secure_relay.url"),
				Cipher: v.GetString("delivery.secure_relay.cipher"),
				Key:    v.GetString("delivery.secure_relay.key"),
			},
			Maileroo: MailerooConfig{
				URL:      v.GetString("delivery.maileroo.url"),
				APIKey:   v.GetString("delivery.maileroo.api_key"),
				Tracking: v.GetBool("delivery.maileroo.tracking"),
			},
		},
		Audit: AuditConfig{
			Sink:              v.GetString("audit.sink"),
			SpreadsheetID:     v.GetString("audit.spreadsheet_id"),
			BaseURL:           v.GetString("audit.base_url"),
			Token:             v.GetString("audit.token"),
			WorkbookPath:      v.GetString("audit.workbook_path"),
			Timeout:           v.GetDuration("audit.timeout"),
			OnDeliveryFailure: v.GetBool("audit.on_delivery_failure"),
		},
	}

	// audit.on_delivery_failure defaults to true; viper's zero value
	// would silently flip the policy, so default it before validation.
	if !v.IsSet("audit.on_delivery_failure") {
		cfg.Audit.OnDeliveryFailure = true
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "invoicegen"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"POST", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "X-Request-ID"}
	}
	if cfg.PDF.Renderer == "" {
		cfg.PDF.Renderer = "chromedp"
	}
	if cfg.PDF.RenderTimeout == 0 {
		cfg.PDF.RenderTimeout = 30 * time.Second
	}
	if cfg.PDF.WkhtmltopdfPath == "" {
		cfg.PDF.WkhtmltopdfPath = "wkhtmltopdf"
	}
	if cfg.Delivery.Strategy == "" {
		cfg.Delivery.Strategy = "relay"
	}
	if cfg.Delivery.Timeout == 0 {
		cfg.Delivery.Timeout = 30 * time.Second
	}
	if cfg.Delivery.SMTP.Port == 0 {
		cfg.Delivery.SMTP.Port = 587
	}
	if cfg.Delivery.SecureRelay.Cipher == "" {
		cfg.Delivery.SecureRelay.Cipher = "aes-gcm"
	}
	if cfg.Delivery.Maileroo.URL == "" {
		cfg.Delivery.Maileroo.URL = "https://smtp.maileroo.com/api/v2/emails"
	}
	if cfg.Audit.Sink == "" {
		cfg.Audit.Sink = "sheets"
	}
	if cfg.Audit.BaseURL == "" {
		cfg.Audit.BaseURL = "https://sheets.googleapis.com/v4/spreadsheets"
	}
	if cfg.Audit.WorkbookPath == "" {
		cfg.Audit.WorkbookPath = "audit.xlsx"
	}
	if cfg.Audit.Timeout == 0 {
		cfg.Audit.Timeout = 10 * time.Second
	}
}

// validate performs validation on the configuration. Strategy and sink
// misconfiguration is fatal here rather than per-request.
func (c *Config) validate() error {
	switch c.PDF.Renderer {
	case "chromedp", "wkhtmltopdf":
	default:
		return fmt.Errorf("pdf.renderer must be 'chromedp' or 'wkhtmltopdf', got %q", c.PDF.Renderer)
	}

	switch c.Delivery.Strategy {
	case "smtp":
		if c.Delivery.SMTP.Host == "" {
			return fmt.Errorf("delivery.smtp.host is required for the smtp strategy")
		}
	case "relay":
		if c.Delivery.Relay.URL == "" {
			return fmt.Errorf("delivery.relay.url is required for the relay strategy")
		}
	case "secure_relay":
		if c.Delivery.SecureRelay.URL == "" {
			return fmt.Errorf("delivery.secure_relay.url is required for the secure_relay strategy")
		}
		if c.Delivery.SecureRelay.Key == "" {
			return fmt.Errorf("delivery.secure_relay.key is required for the secure_relay strategy")
		}
		if _, err := c.Delivery.SecureRelay.KeyBytes(); err != nil {
			return err
		}
		switch c.Delivery.SecureRelay.Cipher {
		case "aes-gcm", "chacha20poly1305":
		default:
			return fmt.Errorf("delivery.secure_relay.cipher must be 'aes-gcm' or 'chacha20poly1305', got %q",
				c.Delivery.SecureRelay.Cipher)
		}
	case "maileroo":
		if c.Delivery.Maileroo.APIKey == "" {
			return fmt.Errorf("delivery.maileroo.api_key is required for the maileroo strategy")
		}
	default:
		return fmt.Errorf("delivery.strategy must be one of smtp, relay, secure_relay, maileroo; got %q",
			c.Delivery.Strategy)
	}

	switch c.Audit.Sink {
	case "sheets":
		if c.Audit.SpreadsheetID == "" {
			return fmt.Errorf("audit.spreadsheet_id is required for the sheets sink")
		}
	case "workbook", "none":
	default:
		return fmt.Errorf("audit.sink must be one of sheets, workbook, none; got %q", c.Audit.Sink)
	}

	if c.App.Env == "production" {
		if c.Email.From == "" {
			return fmt.Errorf("email.from is required in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	return nil
}
