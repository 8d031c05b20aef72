//go:build integration

// Package integration runs the ledger services against a real PostgreSQL
// started with testcontainers, where row locks and the period exclusion
// constraint actually apply.
package integration

import (
	"context"
	"database/sql"
	"testing"
	"time"

	appfin "github.com/erp/accounting/internal/application/finance"
	"github.com/erp/accounting/internal/infrastructure/event"
	"github.com/erp/accounting/internal/infrastructure/migration"
	"github.com/erp/accounting/internal/infrastructure/persistence"
	"github.com/erp/accounting/migrations"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB is a migrated PostgreSQL container
type TestDB struct {
	DB    *gorm.DB
	SqlDB *sql.DB
}

// NewTestDB starts a fresh container and applies the embedded migrations
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("ledger_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(20)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m, err := migration.New(sqlDB, migrations.FS, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, m.Up())

	return &TestDB{DB: db, SqlDB: sqlDB}
}

// services are the ledger services of one test, sharing a unit of work
type services struct {
	tenantID uuid.UUID
	ctx      context.Context
	accounts *appfin.AccountService
	periods  *appfin.PeriodService
	journals *appfin.JournalService
	invoices *appfin.InvoiceService
	bank     *appfin.BankService
}

func newServices(t *testing.T, tdb *TestDB) *services {
	t.Helper()
	log := zaptest.NewLogger(t)

	serializer := event.NewEventSerializer()
	event.RegisterAllEvents(serializer)
	outboxRepo := event.NewGormOutboxRepository(tdb.DB)
	bus := event.NewInMemoryEventBus(log)
	txScope := persistence.NewGormTransactionScope(tdb.DB, event.NewOutboxPublisher(serializer))
	bus.Subscribe(appfin.NewBalanceProjector(txScope, log))

	deps := appfin.ServiceDeps{
		TxScope:    txScope,
		Dispatcher: appfin.NewEventDispatcher(bus, outboxRepo, log),
		Logger:     log,
	}
	tenantID := uuid.New()
	return &services{
		tenantID: tenantID,
		ctx: appfin.ContextWithPrincipal(context.Background(), &appfin.Principal{
			UserID:      uuid.New(),
			TenantID:    tenantID,
			Username:    "integration",
			Permissions: []string{"finance:*"},
		}),
		accounts: appfin.NewAccountService(deps),
		periods:  appfin.NewPeriodService(deps),
		journals: appfin.NewJournalService(deps),
		invoices: appfin.NewInvoiceService(deps),
		bank:     appfin.NewBankService(deps),
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
