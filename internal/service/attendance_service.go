package service

import (
	"errors"
	"time"

	"dealio-backend/internal/model"
	"dealio-backend/internal/repository"
	"dealio-backend/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClockInRequest struct {
	LocationID *uuid.UUID `json:"location_id"`
	Note       string     `json:"note"`
}

type ClockOutRequest struct {
	Note string `json:"note"`
}

type AttendanceService interface {
	ClockIn(req *ClockInRequest, actor Actor) (*model.Attendance, error)
	ClockOut(req *ClockOutRequest, actor Actor) (*model.Attendance, error)
	History(memberID uuid.UUID, limit int, actor Actor) ([]model.Attendance, error)
	ListAll(orgID uuid.UUID, limit int) ([]model.Attendance, error)
}

type attendanceService struct {
	attendanceRepo repository.AttendanceRepository
	locationRepo   repository.LocationRepository
}

func NewAttendanceService(attendanceRepo repository.AttendanceRepository, locationRepo repository.LocationRepository) AttendanceService {
	return &attendanceService{attendanceRepo: attendanceRepo, locationRepo: locationRepo}
}

func (s *attendanceService) ClockIn(req *ClockInRequest, actor Actor) (*model.Attendance, error) {
	if _, err := s.attendanceRepo.FindOpen(actor.OrganizationID, actor.ID); err == nil {
		return nil, apperr.Conflict("already clocked in")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Internal("failed to check open attendance", err)
	}

	if req.LocationID != nil {
		if _, err := s.locationRepo.FindByID(actor.OrganizationID, *req.LocationID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("location not found")
			}
			return nil, apperr.Internal("failed to load location", err)
		}
	}

	row := &model.Attendance{
		OrganizationID: actor.OrganizationID,
		MemberID:       actor.ID,
		LocationID:     req.LocationID,
		ClockInAt:      time.Now(),
		Note:           req.Note,
	}
	row.CreatedBy = actor.ID.String()
	row.UpdatedBy = actor.ID.String()

	if err := s.attendanceRepo.Create(row); err != nil {
		return nil, apperr.Internal("failed to clock in", err)
	}
	return row, nil
}

func (s *attendanceService) ClockOut(req *ClockOutRequest, actor Actor) (*model.Attendance, error) {
	open, err := s.attendanceRepo.FindOpen(actor.OrganizationID, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("no open attendance record")
		}
		return nil, apperr.Internal("failed to load open attendance", err)
	}

	now := time.Now()
	if err := s.attendanceRepo.Close(open.ID, now, req.Note); err != nil {
		return nil, apperr.Internal("failed to clock out", err)
	}
	open.ClockOutAt = &now
	if req.Note != "" {
		open.Note = req.Note
	}
	return open, nil
}

func (s *attendanceService) History(memberID uuid.UUID, limit int, actor Actor) ([]model.Attendance, error) {
	// Cashiers can only see their own log.
	if actor.Role == model.RoleCashier && memberID != actor.ID {
		return nil, apperr.Forbidden("cannot view another member's attendance")
	}
	return s.attendanceRepo.FindByMember(actor.OrganizationID, memberID, limit)
}

func (s *attendanceService) ListAll(orgID uuid.UUID, limit int) ([]model.Attendance, error) {
	return s.attendanceRepo.FindAll(orgID, limit)
}
