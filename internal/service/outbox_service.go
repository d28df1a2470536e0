package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"dealio-backend/internal/model"
	"dealio-backend/internal/repository"
	"dealio-backend/internal/ws"
	"dealio-backend/pkg/cache"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	outboxMaxAttempts = 5
	outboxBaseBackoff = time.Second
	outboxPollEvery   = 2 * time.Second
	outboxBatchSize   = 50
)

// OutboxDispatcher drains persisted side-effect intents. Entries are retried
// with capped exponential backoff and parked as FAILED after the attempt
// budget; a failed side effect never touches the committed sale.
type OutboxDispatcher struct {
	outboxRepo repository.OutboxRepository
	saleRepo   repository.SaleRepository
	cache      cache.Cache
	hub        *ws.Hub
	log        *zap.Logger
	receiptDir string
	kick       chan struct{}
}

func NewOutboxDispatcher(
	outboxRepo repository.OutboxRepository,
	saleRepo repository.SaleRepository,
	c cache.Cache,
	hub *ws.Hub,
	log *zap.Logger,
) *OutboxDispatcher {
	receiptDir := os.Getenv("RECEIPT_DIR")
	if receiptDir == "" {
		receiptDir = "receipts"
	}
	return &OutboxDispatcher{
		outboxRepo: outboxRepo,
		saleRepo:   saleRepo,
		cache:      c,
		hub:        hub,
		log:        log,
		receiptDir: receiptDir,
		kick:       make(chan struct{}, 1),
	}
}

// Kick wakes the worker without blocking; called right after a sale commits so
// side effects usually run within request latency.
func (d *OutboxDispatcher) Kick() {
	select {
	case d.kick <- struct{}{}:
	default:
	}
}

// Run polls for due entries until the context is cancelled.
func (d *OutboxDispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(outboxPollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-d.kick:
		}
		d.ProcessDue(ctx)
	}
}

// ProcessDue handles one batch of due entries. Exported so tests and the
// inline post-commit path can drive it directly.
func (d *OutboxDispatcher) ProcessDue(ctx context.Context) {
	entries, err := d.outboxRepo.FindDue(time.Now(), outboxBatchSize)
	if err != nil {
		d.log.Error("outbox poll failed", zap.Error(err))
		return
	}

	for i := range entries {
		entry := &entries[i]
		if err := d.handle(ctx, entry); err != nil {
			d.recordFailure(entry, err)
			continue
		}
		if err := d.outboxRepo.MarkDone(entry.ID); err != nil {
			d.log.Error("outbox mark-done failed",
				zap.String("id", entry.ID.String()), zap.Error(err))
		}
	}
}

func (d *OutboxDispatcher) recordFailure(entry *model.OutboxEntry, cause error) {
	attempts := entry.Attempts + 1
	terminal := attempts >= outboxMaxAttempts
	backoff := time.Duration(math.Pow(2, float64(attempts))) * outboxBaseBackoff
	next := time.Now().Add(backoff)

	if err := d.outboxRepo.RecordFailure(entry.ID, attempts, next, cause.Error(), terminal); err != nil {
		d.log.Error("outbox failure bookkeeping failed",
			zap.String("id", entry.ID.String()), zap.Error(err))
		return
	}
	if terminal {
		d.log.Error("outbox entry parked after max attempts",
			zap.String("id", entry.ID.String()),
			zap.String("kind", string(entry.Kind)),
			zap.Error(cause))
	} else {
		d.log.Warn("outbox entry failed, will retry",
			zap.String("id", entry.ID.String()),
			zap.String("kind", string(entry.Kind)),
			zap.Int("attempts", attempts),
			zap.Error(cause))
	}
}

func (d *OutboxDispatcher) handle(ctx context.Context, entry *model.OutboxEntry) error {
	switch entry.Kind {
	case model.OutboxReceipt:
		return d.handleReceipt(entry)
	case model.OutboxCacheInvalidate:
		return d.handleCacheInvalidate(ctx, entry)
	case model.OutboxRealtimeEvent:
		return d.handleRealtimeEvent(entry)
	case model.OutboxAuditLog:
		return d.handleAuditLog(entry)
	default:
		return fmt.Errorf("unknown outbox kind %q", entry.Kind)
	}
}

func (d *OutboxDispatcher) handleReceipt(entry *model.OutboxEntry) error {
	var payload struct {
		SaleID string `json:"sale_id"`
	}
	if err := json.Unmarshal(entry.Payload, &payload); err != nil {
		return err
	}
	saleID, err := uuid.Parse(payload.SaleID)
	if err != nil {
		return err
	}

	sale, err := d.saleRepo.FindByID(entry.OrganizationID, saleID)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(d.receiptDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(d.receiptDir, sale.SaleNumber+".txt")
	return os.WriteFile(path, []byte(renderReceipt(sale)), 0o644)
}

func renderReceipt(sale *model.Sale) string {
	out := fmt.Sprintf("RECEIPT %s\n%s\n\n", sale.SaleNumber, sale.CreatedAt.Format(time.RFC1123))
	for _, item := range sale.Items {
		name := item.VariantID.String()
		if item.Variant != nil {
			name = item.Variant.SKU
		}
		out += fmt.Sprintf("%-24s x%-3d %10s\n", name, item.Quantity,
			item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).StringFixed(2))
	}
	out += fmt.Sprintf("\nSubtotal: %s\nDiscount: %s\nTax:      %s\nTotal:    %s\n",
		sale.Subtotal.StringFixed(2),
		sale.DiscountAmount.StringFixed(2),
		sale.TaxAmount.StringFixed(2),
		sale.FinalAmount.StringFixed(2))
	if sale.PointsEarned > 0 || sale.PointsRedeemed > 0 {
		out += fmt.Sprintf("Points earned: %d, redeemed: %d\n", sale.PointsEarned, sale.PointsRedeemed)
	}
	return out
}

func (d *OutboxDispatcher) handleCacheInvalidate(ctx context.Context, entry *model.OutboxEntry) error {
	var payload struct {
		Keys []string `json:"keys"`
	}
	if err := json.Unmarshal(entry.Payload, &payload); err != nil {
		return err
	}
	return d.cache.Invalidate(ctx, payload.Keys...)
}

func (d *OutboxDispatcher) handleRealtimeEvent(entry *model.OutboxEntry) error {
	var payload struct {
		Channel string          `json:"channel"`
		Event   json.RawMessage `json:"event"`
	}
	if err := json.Unmarshal(entry.Payload, &payload); err != nil {
		return err
	}
	if d.hub == nil {
		return errors.New("realtime hub unavailable")
	}
	return d.hub.Publish(payload.Channel, payload.Event)
}

func (d *OutboxDispatcher) handleAuditLog(entry *model.OutboxEntry) error {
	var payload struct {
		MemberID   string `json:"member_id"`
		Action     string `json:"action"`
		EntityType string `json:"entity_type"`
		EntityID   string `json:"entity_id"`
		Detail     string `json:"detail"`
	}
	if err := json.Unmarshal(entry.Payload, &payload); err != nil {
		return err
	}

	logEntry := &model.AuditLog{
		OrganizationID: entry.OrganizationID,
		Action:         payload.Action,
		EntityType:     payload.EntityType,
		EntityID:       payload.EntityID,
		Detail:         payload.Detail,
	}
	if memberID, err := uuid.Parse(payload.MemberID); err == nil {
		logEntry.MemberID = memberID
	}
	return d.outboxRepo.CreateAuditLog(logEntry)
}
