package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tinkori/invoicegen/internal/application/invoicing"
	"github.com/tinkori/invoicegen/internal/infrastructure/audit"
	"github.com/tinkori/invoicegen/internal/infrastructure/config"
	"github.com/tinkori/invoicegen/internal/infrastructure/delivery"
	"github.com/tinkori/invoicegen/internal/infrastructure/logger"
	"github.com/tinkori/invoicegen/internal/infrastructure/metrics"
	"github.com/tinkori/invoicegen/internal/infrastructure/printing"
	"github.com/tinkori/invoicegen/internal/interfaces/http/handler"
	"github.com/tinkori/invoicegen/internal/interfaces/http/middleware"
	"github.com/tinkori/invoicegen/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	log.Info("Starting application",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	metrics.Init()

	// Document generation pipeline
	renderer, err := newRenderer(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize PDF renderer", zap.Error(err))
	}
	defer renderer.Close()

	generator, err := printing.NewGenerator(renderer, &printing.GeneratorConfig{
		OutputDir: cfg.PDF.OutputDir,
		Margins:   printing.DefaultMargins(),
		Logger:    log,
	})
	if err != nil {
		log.Fatal("Failed to initialize document generator", zap.Error(err))
	}

	// Delivery strategy
	courier, err := newCourier(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize delivery courier", zap.Error(err))
	}

	// Audit sink
	sink, err := newAuditSink(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize audit sink", zap.Error(err))
	}
	recorder := audit.NewRecorder(sink, cfg.Audit.Timeout, log)

	service := invoicing.NewService(generator, courier, recorder, invoicing.ServiceConfig{
		DeliveryStrategy:       cfg.Delivery.Strategy,
		AuditOnDeliveryFailure: cfg.Audit.OnDeliveryFailure,
		Logger:                 log,
	})

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := handler.RegisterValidators(); err != nil {
		log.Fatal("Failed to register validators", zap.Error(err))
	}

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	router.NewRouter(engine).
		Register(handler.NewInvoiceHandler(service, log)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newRenderer builds the PDF renderer selected by configuration
func newRenderer(cfg *config.Config, log *zap.Logger) (printing.PDFRenderer, error) {
	switch cfg.PDF.Renderer {
	case "wkhtmltopdf":
		return printing.NewWkhtmltopdfRenderer(&printing.WkhtmltopdfConfig{
			BinaryPath:     cfg.PDF.WkhtmltopdfPath,
			DefaultTimeout: cfg.PDF.RenderTimeout,
			Logger:         log,
		})
	default:
		return printing.NewChromedpRenderer(&printing.ChromedpConfig{
			DefaultTimeout: cfg.PDF.RenderTimeout,
			RemoteURL:      cfg.PDF.ChromeRemoteURL,
			NoSandbox:      cfg.PDF.ChromeNoSandbox,
			Logger:         log,
		})
	}
}

// newCourier builds the delivery courier selected by configuration
func newCourier(cfg *config.Config, log *zap.Logger) (delivery.Courier, error) {
	switch cfg.Delivery.Strategy {
	case "smtp":
		return delivery.NewSMTPCourier(&delivery.SMTPCourierConfig{
			Host:        cfg.Delivery.SMTP.Host,
			Port:        cfg.Delivery.SMTP.Port,
			User:        cfg.Delivery.SMTP.User,
			Password:    cfg.Delivery.SMTP.Password,
			From:        cfg.Email.From,
			DisplayName: cfg.Email.DisplayName,
			CC:          cfg.Email.CC,
			BCC:         cfg.Email.BCC,
			Timeout:     cfg.Delivery.Timeout,
			Logger:      log,
		}), nil
	case "relay":
		return delivery.NewRelayCourier(&delivery.RelayCourierConfig{
			URL:          cfg.Delivery.Relay.URL,
			SMTPHost:     cfg.Delivery.SMTP.Host,
			SMTPPort:     cfg.Delivery.SMTP.Port,
			SMTPUser:     cfg.Delivery.SMTP.User,
			SMTPPassword: cfg.Delivery.SMTP.Password,
			From:         cfg.Email.From,
			CC:           cfg.Email.CC,
			BCC:          cfg.Email.BCC,
			Timeout:      cfg.Delivery.Timeout,
			Logger:       log,
		}), nil
	case "secure_relay":
		key, err := cfg.Delivery.SecureRelay.KeyBytes()
		if err != nil {
			return nil, err
		}
		return delivery.NewSecureRelayCourier(&delivery.SecureRelayCourierConfig{
			URL:          cfg.Delivery.SecureRelay.URL,
			Cipher:       cfg.Delivery.SecureRelay.Cipher,
			Key:          key,
			SMTPHost:     cfg.Delivery.SMTP.Host,
			SMTPPort:     cfg.Delivery.SMTP.Port,
			SMTPUser:     cfg.Delivery.SMTP.User,
			SMTPPassword: cfg.Delivery.SMTP.Password,
			From:         cfg.Email.From,
			Timeout:      cfg.Delivery.Timeout,
			Logger:       log,
		})
	case "maileroo":
		tracking := cfg.Delivery.Maileroo.Tracking
		return delivery.NewMailerooCourier(&delivery.MailerooCourierConfig{
			URL:      cfg.Delivery.Maileroo.URL,
			APIKey:   cfg.Delivery.Maileroo.APIKey,
			From:     cfg.Email.From,
			CC:       cfg.Email.CC,
			BCC:      cfg.Email.BCC,
			Tracking: &tracking,
			Timeout:  cfg.Delivery.Timeout,
			Logger:   log,
		}), nil
	default:
		return delivery.NewRelayCourier(&delivery.RelayCourierConfig{
			URL:     cfg.Delivery.Relay.URL,
			Timeout: cfg.Delivery.Timeout,
			Logger:  log,
		}), nil
	}
}

// newAuditSink builds the audit sink selected by configuration. A nil
// sink disables auditing entirely.
func newAuditSink(cfg *config.Config, log *zap.Logger) (audit.Sink, error) {
	switch cfg.Audit.Sink {
	case "sheets":
		return audit.NewSheetsSink(&audit.SheetsSinkConfig{
			SpreadsheetID: cfg.Audit.SpreadsheetID,
			BaseURL:       cfg.Audit.BaseURL,
			Token:         cfg.Audit.Token,
			Logger:        log,
		}), nil
	case "workbook":
		return audit.NewWorkbookSink(&audit.WorkbookSinkConfig{
			Path:   cfg.Audit.WorkbookPath,
			Logger: log,
		}), nil
	default:
		return nil, nil
	}
}
