package repository

import (
	"time"

	"dealio-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OutboxRepository interface {
	Create(tx *gorm.DB, entries ...*model.OutboxEntry) error
	FindDue(now time.Time, limit int) ([]model.OutboxEntry, error)
	MarkDone(id uuid.UUID) error
	RecordFailure(id uuid.UUID, attempts int, nextAttemptAt time.Time, lastError string, terminal bool) error

	CreateAuditLog(entry *model.AuditLog) error
}

type outboxRepo struct {
	db *gorm.DB
}

func NewOutboxRepo(db *gorm.DB) OutboxRepository {
	return &outboxRepo{db}
}

func (r *outboxRepo) Create(tx *gorm.DB, entries ...*model.OutboxEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return tx.Create(entries).Error
}

func (r *outboxRepo) FindDue(now time.Time, limit int) ([]model.OutboxEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []model.OutboxEntry
	err := r.db.Where("status = ? AND next_attempt_at <= ?", model.OutboxPending, now).
		Order("next_attempt_at ASC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *outboxRepo) MarkDone(id uuid.UUID) error {
	return r.db.Model(&model.OutboxEntry{}).
		Where("id = ? AND status = ?", id, model.OutboxPending).
		Update("status", model.OutboxDone).Error
}

func (r *outboxRepo) RecordFailure(id uuid.UUID, attempts int, nextAttemptAt time.Time, lastError string, terminal bool) error {
	status := model.OutboxPending
	if terminal {
		status = model.OutboxFailed
	}
	return r.db.Model(&model.OutboxEntry{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          status,
			"attempts":        attempts,
			"next_attempt_at": nextAttemptAt,
			"last_error":      lastError,
		}).Error
}

func (r *outboxRepo) CreateAuditLog(entry *model.AuditLog) error {
	return r.db.Create(entry).Error
}
