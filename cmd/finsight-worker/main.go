package main

import (
	"os"

	"finsight/internal/amqp"
	"finsight/internal/cli"
	"finsight/internal/log"
	"finsight/internal/services"
	"finsight/internal/worker"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentWorker)
	logger.Info("Starting finsight-worker")

	ctx, stop := cli.SignalContext()
	defer stop()

	if cfg.LedgerBackend == "memory" {
		logger.Warn("Memory ledger is process-local; the worker will only see its own empty ledger")
	}
	result, err := cli.OpenLedger(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize ledger backend", log.FieldError, err, "backend", cfg.LedgerBackend)
		os.Exit(1)
	}

	coordinator := cli.NewCoordinator(cfg, logger)

	// Read-only: no classifier, no publisher.
	ledgerService := services.NewLedgerService(result.Ledger, nil, coordinator, nil, logger.WithComponent(log.ComponentLedger))
	if result.Cleanup != nil {
		ledgerService.OnClose(result.Cleanup)
	}
	defer func() {
		if err := ledgerService.Close(); err != nil {
			logger.Error("Failed to release resources", log.FieldError, err)
		}
	}()

	var consumer worker.Consumer
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger.WithComponent(log.ComponentAMQP))
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		ledgerService.OnClose(amqpClient.Close)
		consumer = amqpClient
	} else {
		logger.Info("AMQP disabled - running scheduled scans only")
	}

	riskWorker := worker.NewRiskWorker(ledgerService, coordinator, worker.Options{
		Months:   cfg.RiskScanMonths,
		Periods:  cfg.ForecastDefaultPeriods,
		Schedule: cfg.RiskScanSchedule,
		Logger:   logger,
	})

	if _, err := riskWorker.Scan(ctx, "startup"); err != nil {
		logger.Error("Startup risk scan failed", log.FieldError, err)
	}

	if err := riskWorker.Run(ctx, consumer); err != nil {
		logger.Error("Risk worker stopped", log.FieldError, err)
		return
	}
	logger.Info("Worker shutdown complete")
}
