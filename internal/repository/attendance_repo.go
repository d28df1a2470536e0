package repository

import (
	"time"

	"dealio-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AttendanceRepository interface {
	Create(attendance *model.Attendance) error
	FindOpen(orgID, memberID uuid.UUID) (*model.Attendance, error)
	Close(id uuid.UUID, clockOutAt time.Time, note string) error
	FindByMember(orgID, memberID uuid.UUID, limit int) ([]model.Attendance, error)
	FindAll(orgID uuid.UUID, limit int) ([]model.Attendance, error)
}

type attendanceRepo struct {
	db *gorm.DB
}

func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db}
}

func (r *attendanceRepo) Create(attendance *model.Attendance) error {
	return r.db.Create(attendance).Error
}

func (r *attendanceRepo) FindOpen(orgID, memberID uuid.UUID) (*model.Attendance, error) {
	var attendance model.Attendance
	err := r.db.First(&attendance,
		"organization_id = ? AND member_id = ? AND clock_out_at IS NULL", orgID, memberID).Error
	return &attendance, err
}

func (r *attendanceRepo) Close(id uuid.UUID, clockOutAt time.Time, note string) error {
	updates := map[string]interface{}{"clock_out_at": clockOutAt}
	if note != "" {
		updates["note"] = note
	}
	return r.db.Model(&model.Attendance{}).Where("id = ?", id).Updates(updates).Error
}

func (r *attendanceRepo) FindByMember(orgID, memberID uuid.UUID, limit int) ([]model.Attendance, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []model.Attendance
	err := r.db.Where("organization_id = ? AND member_id = ?", orgID, memberID).
		Order("clock_in_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *attendanceRepo) FindAll(orgID uuid.UUID, limit int) ([]model.Attendance, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []model.Attendance
	err := r.db.Where("organization_id = ?", orgID).
		Order("clock_in_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}
