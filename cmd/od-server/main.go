package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/tuanvumaihuynh/orderdesk/internal/config"
	"github.com/tuanvumaihuynh/orderdesk/internal/event"
	"github.com/tuanvumaihuynh/orderdesk/internal/http"
	"github.com/tuanvumaihuynh/orderdesk/internal/log"
	"github.com/tuanvumaihuynh/orderdesk/internal/model"
	"github.com/tuanvumaihuynh/orderdesk/internal/relay"
	"github.com/tuanvumaihuynh/orderdesk/internal/repository"
	"github.com/tuanvumaihuynh/orderdesk/internal/service"
	"github.com/tuanvumaihuynh/orderdesk/internal/sheets"
	"github.com/tuanvumaihuynh/orderdesk/internal/shipping"
	"github.com/tuanvumaihuynh/orderdesk/internal/storage/db"
	"github.com/tuanvumaihuynh/orderdesk/internal/storage/mq"
	"github.com/tuanvumaihuynh/orderdesk/internal/telemetry"
	"github.com/tuanvumaihuynh/orderdesk/internal/worker"
	"github.com/tuanvumaihuynh/orderdesk/pkg/cmdutil"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("error running orderdesk server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	time.Local = time.UTC

	type Config struct {
		Log      config.Log
		Postgres config.Postgres
		HTTP     config.HTTP
		Relay    config.Relay
		Kafka    config.Kafka
		Otel     config.Otel
		Auth     config.Auth
		Orders   config.Orders
		Shipping config.Shipping
		Sheets   config.Sheets
	}
	cfg, err := config.New[Config]()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := log.NewSlogLogger(cfg.Log)

	sheetSources := make([]sheets.Source, 0, len(cfg.Sheets.Sources))
	for _, raw := range cfg.Sheets.Sources {
		src, err := sheets.ParseSource(raw)
		if err != nil {
			return fmt.Errorf("error parsing SHEETS_SOURCES: %w", err)
		}
		sheetSources = append(sheetSources, src)
	}

	cleanupTracer, err := telemetry.InitTracer(ctx, cfg.Otel)
	if err != nil {
		return fmt.Errorf("error initializing tracer: %w", err)
	}
	defer func() {
		if err := cleanupTracer(ctx); err != nil {
			logger.ErrorContext(ctx, "error cleaning up tracer", slog.Any("error", err))
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	pgxPool, err := db.NewPgxPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("error creating pgx pool: %w", err)
	}
	defer pgxPool.Close()

	dbClient := db.NewClient(pgxPool)

	kafkaProducer, err := mq.NewKafkaProducer(ctx, cfg.Kafka)
	if err != nil {
		return fmt.Errorf("error creating kafka producer: %w", err)
	}
	defer kafkaProducer.Close()

	kafkaConsumer, err := mq.NewKafkaConsumer(ctx, cfg.Kafka, logger)
	if err != nil {
		return fmt.Errorf("error creating kafka consumer: %w", err)
	}

	locationRepository := repository.NewLocationRepository(dbClient)
	deliveryPriceRepository := repository.NewDeliveryPriceRepository(dbClient)
	productRepository := repository.NewProductRepository(dbClient)
	stockRepository := repository.NewStockRepository(dbClient)
	orderRepository := repository.NewOrderRepository(dbClient)
	shippingAccountRepository := repository.NewShippingAccountRepository(dbClient)
	userRepository := repository.NewUserRepository(dbClient)
	roleRepository := repository.NewRoleRepository(dbClient)
	sessionRepository := repository.NewSessionRepository(dbClient)
	reportRepository := repository.NewReportRepository(dbClient)
	outboxMsgRepository := repository.NewOutboxMsgRepository(dbClient)

	dispatcher := shipping.NewDispatcher(
		logger,
		shippingAccountRepository,
		map[model.ShippingProvider]shipping.Provider{
			model.ShippingProviderEcoTrack: shipping.NewEcoTrack(cfg.Shipping),
			model.ShippingProviderNoest:    shipping.NewNoest(cfg.Shipping),
		},
		shipping.NewMetrics(registry),
	)

	locationService := service.NewLocationService(locationRepository)
	deliveryService := service.NewDeliveryService(locationService, deliveryPriceRepository)
	productService := service.NewProductService(
		dbClient,
		cfg.Orders.LowStockThreshold,
		productRepository,
		stockRepository,
		outboxMsgRepository,
	)
	orderService := service.NewOrderService(
		cfg.Orders,
		logger,
		dbClient,
		locationService,
		deliveryService,
		dispatcher,
		orderRepository,
		productRepository,
		stockRepository,
		shippingAccountRepository,
		outboxMsgRepository,
	)
	importService := service.NewImportService(
		logger,
		sheets.NewClient(cfg.Sheets),
		orderService,
		orderRepository,
		productRepository,
	)
	authService := service.NewAuthService(cfg.Auth, logger, userRepository, sessionRepository)
	userService := service.NewUserService(cfg.Auth, logger, dbClient, userRepository, roleRepository, sessionRepository)

	created, err := userService.Bootstrap(ctx, cfg.Auth.BootstrapEmail, cfg.Auth.BootstrapPassword)
	if err != nil {
		return fmt.Errorf("error bootstrapping admin user: %w", err)
	}
	if created {
		logger.InfoContext(ctx, "bootstrap admin user created", slog.String("email", cfg.Auth.BootstrapEmail))
	}

	interruptChan := cmdutil.InterruptChan()
	var wg sync.WaitGroup

	wg.Go(func() {
		svc := event.New(cfg.Shipping, logger, kafkaConsumer, orderService, event.NewMetrics(registry))
		cleanup, err := svc.Run(ctx)
		if err != nil {
			panic(fmt.Errorf("error running event service: %w", err))
		}
		logger.InfoContext(ctx, "event service started", slog.Bool("auto_dispatch", cfg.Shipping.AutoDispatch))

		<-interruptChan

		logger.InfoContext(ctx, "event service is shutting down")
		cleanup()

		logger.InfoContext(ctx, "event service is stopped")
	})

	wg.Go(func() {
		svc := http.New(cfg.HTTP, logger, registry, dbClient, http.Services{
			Auth:            authService,
			Users:           userService,
			Locations:       locationService,
			Delivery:        deliveryService,
			Products:        productService,
			Orders:          orderService,
			ShippingAccount: service.NewShippingAccountService(shippingAccountRepository),
			Imports:         importService,
			Reports:         service.NewReportService(reportRepository),
		})
		cleanup, err := svc.Run(ctx)
		if err != nil {
			panic(fmt.Errorf("error running http service: %w", err))
		}

		logger.InfoContext(ctx, "http service started", slog.String("address", fmt.Sprintf(":%d", cfg.HTTP.Port)))

		<-interruptChan

		logger.InfoContext(ctx, "http service is shutting down")
		if err := cleanup(ctx); err != nil {
			logger.ErrorContext(ctx, "error shutting down http service", slog.Any("error", err))
		}

		logger.InfoContext(ctx, "http service is stopped")
	})

	wg.Go(func() {
		svc := relay.NewService(cfg.Relay, logger, dbClient, outboxMsgRepository, kafkaProducer, relay.NewMetrics(registry))
		cleanup := svc.Run(ctx)
		logger.InfoContext(ctx, "relay service started")

		<-interruptChan

		logger.InfoContext(ctx, "relay service is shutting down")
		cleanup()

		logger.InfoContext(ctx, "relay service is stopped")
	})

	workers := []*worker.Worker{
		worker.New("session-sweeper", cfg.Auth.SweepInterval, logger, worker.SweepSessions(logger, authService)),
	}
	if len(sheetSources) > 0 {
		workers = append(workers,
			worker.New("sheet-sync", cfg.Sheets.SyncInterval, logger, worker.SyncSheets(importService, sheetSources)))
	}
	for _, w := range workers {
		wg.Go(func() {
			cleanup := w.Run(ctx)

			<-interruptChan

			cleanup()
		})
	}
	logger.InfoContext(ctx, "workers started", slog.Int("count", len(workers)))

	wg.Wait()

	return nil
}
