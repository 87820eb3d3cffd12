package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/huangang/gymdesk/internal/config"
	"github.com/huangang/gymdesk/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := models.Open(&config.DatabaseConfig{Driver: "sqlite", DSN: "file::memory:"})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, models.Migrate(db))
	return db
}

func newTestPipeline(db *gorm.DB) *Pipeline {
	return &Pipeline{Audit: NewAuditLogger(db), Hub: NewSSEHub()}
}

var adminSession = Session{UserID: 1, UID: "admin-uid", Email: "admin@gym.test", Role: models.RoleAdmin}

// countStoreCalls counts every statement gorm issues on db from now on.
func countStoreCalls(t *testing.T, db *gorm.DB) *int64 {
	t.Helper()
	var n int64
	inc := func(*gorm.DB) { atomic.AddInt64(&n, 1) }

	cb := db.Callback()
	require.NoError(t, cb.Create().Before("gorm:create").Register("test:count_create", inc))
	require.NoError(t, cb.Query().Before("gorm:query").Register("test:count_query", inc))
	require.NoError(t, cb.Update().Before("gorm:update").Register("test:count_update", inc))
	require.NoError(t, cb.Delete().Before("gorm:delete").Register("test:count_delete", inc))
	require.NoError(t, cb.Row().Before("gorm:row").Register("test:count_row", inc))
	require.NoError(t, cb.Raw().Before("gorm:raw").Register("test:count_raw", inc))
	return &n
}

// failCreates makes inserts into table fail when reject returns true for the
// row being written.
func failCreates(t *testing.T, db *gorm.DB, name, table string, reject func(dest interface{}) bool) {
	t.Helper()
	err := db.Callback().Create().Before("gorm:create").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table == table && reject(tx.Statement.Dest) {
			tx.AddError(errors.New("injected write failure"))
		}
	})
	require.NoError(t, err)
}

func auditActions(t *testing.T, db *gorm.DB) []string {
	t.Helper()
	var actions []string
	require.NoError(t, db.Model(&models.LogEntry{}).Order("id").Pluck("action", &actions).Error)
	return actions
}

type fakeNetwork struct{ err error }

func (f fakeNetwork) Online(ctx context.Context) error { return f.err }

type fakeProber struct {
	err   error
	calls int32
}

func (f *fakeProber) Probe(ctx context.Context) error {
	atomic.AddInt32(&f.calls, 1)
	return f.err
}

type recordingQueue struct {
	mu    sync.Mutex
	tasks []*DeliveryTask
	err   error
}

func (q *recordingQueue) Enqueue(task *DeliveryTask) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.tasks = append(q.tasks, task)
	return nil
}

func (q *recordingQueue) IsAsync() bool { return false }
func (q *recordingQueue) Close() error  { return nil }

func (q *recordingQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// seedMembers creates members directly in the store.
func seedMembers(t *testing.T, db *gorm.DB, members ...models.Member) {
	t.Helper()
	for i := range members {
		require.NoError(t, db.Create(&members[i]).Error)
	}
}
