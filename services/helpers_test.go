package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestLedger(t *testing.T) *GormLedger {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Shared-cache memory DBs lock at table level; one connection avoids
	// SQLITE_LOCKED and serializes every store call.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	ledger := NewGormLedger(db)
	require.NoError(t, ledger.Migrate())
	return ledger
}

type sentMessage struct {
	ChatID string
	Text   string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	fail bool
}

func (f *fakeNotifier) Notify(_ context.Context, chatID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("telegram is down")
	}
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (f *fakeNotifier) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func (f *fakeNotifier) to(chatID string) []string {
	var out []string
	for _, m := range f.messages() {
		if m.ChatID == chatID {
			out = append(out, m.Text)
		}
	}
	return out
}

func defaultTable(t *testing.T) *MilestoneTable {
	t.Helper()
	table, err := NewMilestoneTable(DefaultMilestones)
	require.NoError(t, err)
	return table
}
