package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/yourorg/gateway-normalizer/internal/adapter"
	"github.com/yourorg/gateway-normalizer/internal/adapter/httppost"
	"github.com/yourorg/gateway-normalizer/internal/builder"
	"github.com/yourorg/gateway-normalizer/internal/circuitbreaker"
	"github.com/yourorg/gateway-normalizer/internal/config"
	"github.com/yourorg/gateway-normalizer/internal/logger"
	"github.com/yourorg/gateway-normalizer/internal/merchant"
	"github.com/yourorg/gateway-normalizer/internal/monitor"
	"github.com/yourorg/gateway-normalizer/internal/orchestrator"
	"github.com/yourorg/gateway-normalizer/internal/processor"
	"github.com/yourorg/gateway-normalizer/internal/reporting"
	"github.com/yourorg/gateway-normalizer/internal/schema"
	"github.com/yourorg/gateway-normalizer/internal/telemetry"
	"github.com/yourorg/gateway-normalizer/internal/transaction"
	"github.com/yourorg/gateway-normalizer/internal/validation"
)

// defaultMerchantID names the merchant configured from the environment.
const defaultMerchantID = "default"

func setupRouter(s *server, serviceName string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(requestID())

	router.GET("/healthz", healthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	v1.POST("/transactions", s.processTransaction)
	v1.GET("/report", s.report)
	return router
}

// newServer wires the processing pipeline for cfg on top of transport and store.
func newServer(cfg *config.Config, transport adapter.Transport, store reporting.Store) (*server, error) {
	repo := merchant.NewInMemoryRepository()
	err := repo.AddConfig(merchant.Config{
		ID:      defaultMerchantID,
		Gateway: cfg.Gateway.ID,
		Credentials: transaction.Credentials{
			AccountNumber:  cfg.Gateway.AccountNumber,
			TransactionKey: cfg.Gateway.TransactionKey,
		},
		TestMode: cfg.Gateway.TestMode,
	})
	if err != nil {
		return nil, err
	}

	if cfg.Circuit.FailureThreshold > 0 {
		cb := circuitbreaker.NewCircuitBreaker(circuitbreaker.Config{
			FailureThreshold: cfg.Circuit.FailureThreshold,
			ResetTimeout:     cfg.Circuit.OpenTimeout,
		})
		transport = circuitbreaker.Guard(transport, cb)
	}

	var opts []processor.Option
	if cfg.Gateway.EndpointOverride != "" {
		opts = append(opts, processor.WithEndpoint(cfg.Gateway.ID, cfg.Gateway.EndpointOverride))
	}

	var validationOpts []validation.Option
	if cfg.Validation.FollowUpRules {
		validationOpts = append(validationOpts, validation.WithRules(schema.FollowUpRules()...))
	}

	contract := monitor.NewTransactionRequestMonitor()
	if cfg.Contract.SchemaPath != "" {
		contract, err = monitor.NewContractMonitor(cfg.Contract.SchemaPath)
		if err != nil {
			return nil, err
		}
	}

	return &server{
		monitor:      contract,
		builder:      builder.NewBuilder(repo),
		orchestrator: orchestrator.NewOrchestrator(validation.New(validationOpts...), processor.NewProcessor(transport, opts...), store),
		store:        store,
		reporter:     reporting.NewRetrospectiveReporter(),
	}, nil
}

func openStore(ctx context.Context, cfg *config.Config) (reporting.Store, func(), error) {
	if cfg.Reporting.DatabaseURL == "" {
		return reporting.NewMemoryStore(), func() {}, nil
	}
	pg, err := reporting.OpenPostgresStore(ctx, cfg.Reporting.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return pg, func() { _ = pg.Close() }, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("development")
		logger.L().Fatal("failed to load config", zap.Error(err))
	}

	logger.Init(cfg.App.Environment)
	defer logger.Sync()
	log := logger.L()

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	tel, err := telemetry.Init(telemetry.Config{
		Enabled:     cfg.OTel.Enabled,
		ServiceName: cfg.OTel.ServiceName,
		Environment: cfg.App.Environment,
	})
	if err != nil {
		log.Fatal("failed to init telemetry", zap.Error(err))
	}

	store, closeStore, err := openStore(context.Background(), cfg)
	if err != nil {
		log.Fatal("failed to open report store", zap.Error(err))
	}
	defer closeStore()

	s, err := newServer(cfg, httppost.NewWithTimeout(cfg.Gateway.Timeout), store)
	if err != nil {
		log.Fatal("failed to configure gateway", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           setupRouter(s, cfg.OTel.ServiceName),
		ReadHeaderTimeout: 2 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		log.Info("starting server", zap.String("addr", srv.Addr), zap.String("gateway", cfg.Gateway.ID), zap.Bool("test_mode", cfg.Gateway.TestMode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to run server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	if err := tel.Shutdown(ctx); err != nil {
		log.Error("failed to flush traces", zap.Error(err))
	}
}
