package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dealio-backend/internal/model"
	"dealio-backend/internal/ws"

	"go.uber.org/zap"
)

func newDispatcher(t *testing.T, f *fixture) *OutboxDispatcher {
	t.Helper()
	t.Setenv("RECEIPT_DIR", t.TempDir())
	return NewOutboxDispatcher(f.outboxRepo, f.saleRepo, f.cache, ws.NewHub(zap.NewNop()), zap.NewNop())
}

func TestDispatcherDrainsSaleEffects(t *testing.T) {
	f := newFixture(t)
	d := newDispatcher(t, f)

	sale, err := f.pos.ProcessSale(cashCheckout(f.location.ID, f.variant.ID, 1), f.actor)
	if err != nil {
		t.Fatalf("ProcessSale: %v", err)
	}

	d.ProcessDue(context.Background())

	// Everything marked DONE, nothing left due.
	due, err := f.outboxRepo.FindDue(time.Now().Add(time.Second), 10)
	if err != nil {
		t.Fatalf("FindDue: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("due entries after drain = %d, want 0", len(due))
	}
	var doneCount int64
	f.db.Model(&model.OutboxEntry{}).Where("status = ?", model.OutboxDone).Count(&doneCount)
	if doneCount != 4 {
		t.Fatalf("done entries = %d, want 4", doneCount)
	}

	// The receipt file landed under RECEIPT_DIR.
	path := filepath.Join(os.Getenv("RECEIPT_DIR"), sale.SaleNumber+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read receipt: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("receipt file is empty")
	}

	// The audit handler persisted its row.
	var auditCount int64
	f.db.Model(&model.AuditLog{}).Where("entity_id = ?", sale.ID.String()).Count(&auditCount)
	if auditCount != 1 {
		t.Fatalf("audit rows = %d, want 1", auditCount)
	}
}

func TestDispatcherBacksOffAndParks(t *testing.T) {
	f := newFixture(t)
	d := newDispatcher(t, f)

	// A receipt entry pointing at a sale that does not exist always fails.
	payload, _ := json.Marshal(map[string]string{"sale_id": "7f9c36f1-0000-0000-0000-000000000000"})
	entry := &model.OutboxEntry{
		OrganizationID: f.org.ID,
		Kind:           model.OutboxReceipt,
		Payload:        payload,
		NextAttemptAt:  time.Now(),
	}
	if err := f.outboxRepo.Create(f.db, entry); err != nil {
		t.Fatalf("seed entry: %v", err)
	}

	ctx := context.Background()
	d.ProcessDue(ctx)

	var reloaded model.OutboxEntry
	if err := f.db.First(&reloaded, "id = ?", entry.ID).Error; err != nil {
		t.Fatalf("reload entry: %v", err)
	}
	if reloaded.Status != model.OutboxPending || reloaded.Attempts != 1 {
		t.Fatalf("after first failure: status=%s attempts=%d, want PENDING/1", reloaded.Status, reloaded.Attempts)
	}
	if !reloaded.NextAttemptAt.After(time.Now().Add(time.Second)) {
		t.Fatalf("next attempt %s not backed off", reloaded.NextAttemptAt)
	}
	if reloaded.LastError == "" {
		t.Fatal("last error not recorded")
	}

	// A backed-off entry is not due yet.
	due, err := f.outboxRepo.FindDue(time.Now(), 10)
	if err != nil {
		t.Fatalf("FindDue: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("due = %d, want 0 while backing off", len(due))
	}

	// Force the remaining attempts; the entry parks as FAILED and stops
	// being retried.
	for i := 0; i < outboxMaxAttempts-1; i++ {
		f.db.Model(&model.OutboxEntry{}).Where("id = ?", entry.ID).
			Update("next_attempt_at", time.Now().Add(-time.Second))
		d.ProcessDue(ctx)
	}
	if err := f.db.First(&reloaded, "id = ?", entry.ID).Error; err != nil {
		t.Fatalf("reload entry: %v", err)
	}
	if reloaded.Status != model.OutboxFailed || reloaded.Attempts != outboxMaxAttempts {
		t.Fatalf("after exhaustion: status=%s attempts=%d, want FAILED/%d",
			reloaded.Status, reloaded.Attempts, outboxMaxAttempts)
	}

	f.db.Model(&model.OutboxEntry{}).Where("id = ?", entry.ID).
		Update("next_attempt_at", time.Now().Add(-time.Second))
	due, err = f.outboxRepo.FindDue(time.Now(), 10)
	if err != nil {
		t.Fatalf("FindDue: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("parked entry still due: %d", len(due))
	}
}

func TestDispatcherKickDoesNotBlock(t *testing.T) {
	f := newFixture(t)
	d := newDispatcher(t, f)

	for i := 0; i < 10; i++ {
		d.Kick()
	}
}
