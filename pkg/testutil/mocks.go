package testutil

import (
	"context"
	"database/sql/driver"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/attendly/attendance-backend/internal/audit"
	"github.com/attendly/attendance-backend/pkg/database"
)

// MockDB wraps sqlmock for repository unit tests
type MockDB struct {
	DB   *database.DB
	Mock sqlmock.Sqlmock
}

// NewMockDB creates a mocked database connection
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "postgres")
	t.Cleanup(func() { _ = sqlxDB.Close() })

	return &MockDB{
		DB:   &database.DB{DB: sqlxDB},
		Mock: mock,
	}
}

// ExpectationsMet asserts all expectations were satisfied
func (m *MockDB) ExpectationsMet(t *testing.T) {
	t.Helper()
	require.NoError(t, m.Mock.ExpectationsWereMet())
}

// AnyTime matches any time.Time argument in sqlmock expectations
type AnyTime struct{}

// Match implements sqlmock.Argument
func (AnyTime) Match(v driver.Value) bool {
	_, ok := v.(time.Time)
	return ok
}

// RecordedAudit captures audit events for assertions.
type RecordedAudit struct {
	mu     sync.Mutex
	Events []audit.Event
}

// Record implements audit.Recorder
func (r *RecordedAudit) Record(_ context.Context, event audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, event)
}

// Actions returns the recorded action names in order
func (r *RecordedAudit) Actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	actions := make([]string, len(r.Events))
	for i, e := range r.Events {
		actions[i] = e.Action
	}
	return actions
}

// CapturedBroker records published domain events.
type CapturedBroker struct {
	mu        sync.Mutex
	Published []PublishedEvent
	Err       error
}

// PublishedEvent is one captured publish call
type PublishedEvent struct {
	RoutingKey string
	Event      interface{}
}

// Publish implements the events.Broker interface
func (b *CapturedBroker) Publish(_ context.Context, routingKey string, event interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.Err != nil {
		return b.Err
	}
	b.Published = append(b.Published, PublishedEvent{RoutingKey: routingKey, Event: event})
	return nil
}

// RoutingKeys returns the captured routing keys in order
func (b *CapturedBroker) RoutingKeys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	keys := make([]string, len(b.Published))
	for i, p := range b.Published {
		keys[i] = p.RoutingKey
	}
	return keys
}
