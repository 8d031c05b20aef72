package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	appevent "github.com/erp/accounting/internal/application/event"
	appfin "github.com/erp/accounting/internal/application/finance"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/infrastructure/auth"
	"github.com/erp/accounting/internal/infrastructure/cache"
	"github.com/erp/accounting/internal/infrastructure/config"
	"github.com/erp/accounting/internal/infrastructure/event"
	"github.com/erp/accounting/internal/infrastructure/logger"
	"github.com/erp/accounting/internal/infrastructure/persistence"
	"github.com/erp/accounting/internal/infrastructure/scheduler"
	"github.com/erp/accounting/internal/infrastructure/telemetry"
	"github.com/erp/accounting/internal/interfaces/http/handler"
	"github.com/erp/accounting/internal/interfaces/http/middleware"
	"github.com/erp/accounting/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	_ "github.com/erp/accounting/docs"
)

//	@title			ERP Accounting API
//	@version		1.0
//	@description	Multi-tenant general ledger, invoicing and bank reconciliation

//	@contact.name	API Support
//	@contact.url	https://github.com/erp/accounting

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token issued by the identity service. Format: "Bearer {token}"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logCfg := &logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Telemetry first so the OTLP log bridge can join the application logger
	providers, err := telemetry.Setup(ctx, cfg.Telemetry, bootLog)
	if err != nil {
		return fmt.Errorf("failed to start telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			bootLog.Error("telemetry shutdown failed", zap.Error(err))
		}
	}()

	log := bootLog
	if core := providers.ZapCore(cfg.Telemetry.ServiceName); core != nil {
		if log, err = logger.New(logCfg, core); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting ERP accounting",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	db, err := persistence.NewDatabase(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		if err := telemetry.InstrumentGorm(db.DB, cfg.Database.DBName, log); err != nil {
			return fmt.Errorf("failed to instrument database: %w", err)
		}
	}

	meter := otel.Meter(cfg.Telemetry.ServiceName)
	metrics, err := telemetry.NewLedgerMetrics(meter, log)
	if err != nil {
		return fmt.Errorf("failed to create ledger metrics: %w", err)
	}
	defer func() { _ = metrics.Close() }()

	// Events: serializer, outbox, in-process bus
	serializer := event.NewEventSerializer()
	event.RegisterAllEvents(serializer)
	outboxRepo := event.NewGormOutboxRepository(db.DB)
	bus := event.NewInMemoryEventBus(log)
	txScope := persistence.NewGormTransactionScope(db.DB, event.NewOutboxPublisher(serializer))

	if err := metrics.ObserveOutbox(meter, func(ctx context.Context) (map[string]int64, error) {
		counts, err := outboxRepo.CountByStatus(ctx)
		if err != nil {
			return nil, err
		}
		out := make(map[string]int64, len(counts))
		for status, n := range counts {
			out[string(status)] = n
		}
		return out, nil
	}); err != nil {
		return fmt.Errorf("failed to observe outbox: %w", err)
	}

	deps := appfin.ServiceDeps{
		TxScope:    txScope,
		Authorizer: appfin.NewContextAuthorizer(),
		Dispatcher: appfin.NewEventDispatcher(bus, outboxRepo, log),
		Recorder:   metrics,
		Logger:     log,
	}
	accountService := appfin.NewAccountService(deps)
	periodService := appfin.NewPeriodService(deps)
	journalService := appfin.NewJournalService(deps)
	invoiceService := appfin.NewInvoiceService(deps)
	bankService := appfin.NewBankService(deps)

	// Listeners: the balance projector and the collaborator integrations.
	// Redelivery by the relay is absorbed by the idempotency store.
	idempotencyStore, err := cache.NewIdempotencyStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = idempotencyStore.Close() }()

	integration := integrationConfig(cfg.Integration)
	idempotency := shared.IdempotencyConfig{Enabled: cfg.Event.IdempotencyEnabled, TTL: cfg.Event.IdempotencyTTL}
	idempotencyMetrics := &event.IdempotencyMetrics{}
	handlers := map[string]shared.EventHandler{
		"balance_projector":        appfin.NewBalanceProjector(txScope, log),
		"sales_order_confirmed":    appfin.NewSalesOrderConfirmedListener(invoiceService, integration, metrics, log),
		"goods_received":           appfin.NewGoodsReceivedListener(invoiceService, integration, metrics, log),
		"expense_claim_reimbursed": appfin.NewExpenseClaimReimbursedListener(invoiceService, integration, metrics, log),
		"subscription_renewed":     appfin.NewSubscriptionRenewedListener(invoiceService, integration, metrics, log),
		"payroll_run_completed":    appfin.NewPayrollRunCompletedListener(journalService, accountService, integration, metrics, log),
		"asset_depreciated":        appfin.NewAssetDepreciatedListener(journalService, accountService, integration, metrics, log),
	}
	for name, h := range handlers {
		wrapped := event.NewIdempotentHandler(h, idempotencyStore, log,
			event.WithHandlerName(name),
			event.WithIdempotencyConfig(idempotency),
			event.WithIdempotencyMetrics(idempotencyMetrics),
		)
		bus.Subscribe(wrapped)
		log.Debug("Event handler registered", zap.String("handler", name), zap.Strings("event_types", h.EventTypes()))
	}

	// Bearer token verification, optionally against the shared revocation list
	var verifierOpts []auth.VerifierOption
	revocations, err := auth.NewRevocationList(ctx, cfg, log)
	if err != nil {
		return err
	}
	if revocations != nil {
		verifierOpts = append(verifierOpts, auth.WithRevocationList(revocations))
	}
	verifier, err := auth.NewTokenVerifier(cfg.JWT, verifierOpts...)
	if err != nil {
		return fmt.Errorf("failed to create token verifier: %w", err)
	}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	authCfg := middleware.DefaultAuthConfig(verifier)
	authCfg.Logger = log
	engine, err := router.NewEngine(router.EngineConfig{
		Logger:           log,
		Meter:            meter,
		Tracing:          middleware.TracingConfig{ServiceName: cfg.Telemetry.ServiceName, Enabled: cfg.Telemetry.Enabled},
		Auth:             authCfg,
		ProfilingEnabled: cfg.Telemetry.ProfilingEnabled,
		MaxBodySize:      cfg.HTTP.MaxBodySize,
		SwaggerEnabled:   cfg.HTTP.SwaggerEnabled,
		TrustedProxies:   cfg.HTTP.TrustedProxies,
	}, handler.NewHealthHandler(db), router.Handlers{
		Accounts:    handler.NewAccountHandler(accountService),
		Periods:     handler.NewPeriodHandler(periodService),
		Journals:    handler.NewJournalHandler(journalService),
		Invoices:    handler.NewInvoiceHandler(invoiceService),
		Bank:        handler.NewBankHandler(bankService),
		Outbox:      handler.NewOutboxHandler(appevent.NewOutboxService(outboxRepo, log)),
		Integration: handler.NewIntegrationHandler(appevent.NewIngestService(serializer, bus, deps.Authorizer, event.IntegrationEventTypes, log)),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Event.RelayEnabled {
		relay := event.NewOutboxRelay(outboxRepo, bus, serializer, event.OutboxRelayConfig{
			BatchSize:         cfg.Event.RelayBatchSize,
			PollInterval:      cfg.Event.RelayPollInterval,
			PendingGrace:      cfg.Event.RelayPendingGrace,
			ProcessingTimeout: cfg.Event.RelayProcessingTimeout,
			CleanupEnabled:    cfg.Event.CleanupEnabled,
			CleanupRetention:  cfg.Event.CleanupRetention,
			CleanupInterval:   cfg.Event.CleanupInterval,
		}, log)
		g.Go(func() error { return relay.Run(gctx) })
	}

	schedCfg, err := scheduler.ConfigFrom(cfg.Scheduler)
	if err != nil {
		return err
	}
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	overdue := scheduler.NewOverdueScheduler(schedCfg, invoiceRepo, invoiceService, log)
	g.Go(func() error { return overdue.Run(gctx) })

	if err := g.Wait(); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
		return err
	}
	log.Info("Server exited gracefully", zap.Any("idempotency", idempotencyMetrics.Stats()))
	return nil
}

// integrationConfig converts the configured integration settings
func integrationConfig(c config.IntegrationConfig) appfin.IntegrationConfig {
	out := appfin.DefaultIntegrationConfig()
	if c.DefaultCurrency != "" {
		out.DefaultCurrency = c.DefaultCurrency
	}
	if c.InvoiceDueDays > 0 {
		out.InvoiceDueDays = c.InvoiceDueDays
	}
	accounts := []struct {
		dst *string
		src string
	}{
		{&out.Accounts.SalaryExpense, c.Accounts.SalaryExpense},
		{&out.Accounts.SalaryPayable, c.Accounts.SalaryPayable},
		{&out.Accounts.DeductionsPayable, c.Accounts.DeductionsPayable},
		{&out.Accounts.DepreciationExpense, c.Accounts.DepreciationExpense},
		{&out.Accounts.AccumulatedDepreciation, c.Accounts.AccumulatedDepreciation},
	}
	for _, a := range accounts {
		if a.src != "" {
			*a.dst = a.src
		}
	}
	return out
}
