package event

import (
	"context"
	"sync"
	"testing"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testEventType = "TestLedgerEvent"

type testEvent struct {
	shared.BaseDomainEvent
	Amount string `json:"amount"`
}

func newTestEvent(tenantID uuid.UUID) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(testEventType, "TestAggregate", uuid.New(), tenantID),
		Amount:          "100.00",
	}
}

// recordingHandler records every event it sees and fails with err when set
type recordingHandler struct {
	mu     sync.Mutex
	types  []string
	err    error
	events []shared.DomainEvent
}

func (h *recordingHandler) Handle(_ context.Context, evt shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, evt)
	return h.err
}

func (h *recordingHandler) EventTypes() []string { return h.types }

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.OutboxEntryModel{}))
	return db
}

func newTestSerializer() *EventSerializer {
	s := NewEventSerializer()
	s.Register(testEventType, &testEvent{})
	return s
}
