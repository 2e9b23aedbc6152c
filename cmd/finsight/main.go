package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"finsight/internal/amqp"
	"finsight/internal/assistant"
	"finsight/internal/classifier"
	"finsight/internal/cli"
	apphttp "finsight/internal/http"
	"finsight/internal/log"
	"finsight/internal/receipt"
	"finsight/internal/services"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentApp)

	ctx, stop := cli.SignalContext()
	defer stop()

	result, err := cli.OpenLedger(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize ledger backend", log.FieldError, err, "backend", cfg.LedgerBackend)
		os.Exit(1)
	}

	classifierStore := classifier.NewStore(cfg.ClassifierModelPath, logger)
	go func() {
		if _, err := classifierStore.Model(); err != nil {
			logger.Error("Classifier model unavailable", log.FieldError, err)
		}
	}()

	coordinator := cli.NewCoordinator(cfg, logger)

	// An empty path runs "tesseract" from PATH; a missing binary only
	// degrades image receipts to empty text.
	recognizer := receipt.TesseractRecognizer{Binary: cfg.TesseractPath, Languages: cfg.TesseractLanguages}

	var completer assistant.Completer
	if client, err := assistant.NewOpenAIClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAITimeout); err == nil {
		completer = client
		logger.Info("Chat completions enabled", log.FieldModel, cfg.OpenAIModel)
	} else {
		logger.Info("Chat completions disabled, using rule-based replies", "reason", err.Error())
	}

	var publisher services.EventPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger.WithComponent(log.ComponentAMQP))
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		publisher = amqpClient
	} else {
		logger.Info("AMQP disabled - ledger events will not be published")
	}

	ledgerService := services.NewLedgerService(result.Ledger, classifierStore, coordinator, publisher, logger.WithComponent(log.ComponentLedger))
	ledgerService.SetTaxSettings(cli.TaxSettings(cfg))
	if result.Cleanup != nil {
		ledgerService.OnClose(result.Cleanup)
	}
	if amqpClient != nil {
		ledgerService.OnClose(amqpClient.Close)
	}
	defer func() {
		if err := ledgerService.Close(); err != nil {
			logger.Error("Failed to release resources", log.FieldError, err)
		}
	}()

	srv := apphttp.NewServer(apphttp.Options{
		Addr:           ":" + cfg.Port,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		DefaultPeriods: cfg.ForecastDefaultPeriods,
		MaxPeriods:     cfg.ForecastMaxPeriods,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		Logger:         logger,
	}, apphttp.Deps{
		Classifier: classifierStore,
		Forecaster: coordinator,
		Receipts:   receipt.NewExtractor(recognizer, logger),
		Assistant:  assistant.New(completer, logger),
		Ledger:     ledgerService,
	})
	srv.MaxHeaderBytes = 1 << 16

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting finsight server", "port", cfg.Port, "backend", cfg.LedgerBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", log.FieldError, err)
	}
	logger.Info("Server stopped gracefully")
}
