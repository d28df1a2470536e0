package service

import (
	"testing"

	"dealio-backend/internal/model"
	"dealio-backend/internal/repository"
	"dealio-backend/pkg/apperr"

	"github.com/google/uuid"
)

func newAttendanceService(f *fixture) AttendanceService {
	return NewAttendanceService(repository.NewAttendanceRepo(f.db), repository.NewLocationRepo(f.db))
}

func TestClockInOutCycle(t *testing.T) {
	f := newFixture(t)
	svc := newAttendanceService(f)

	row, err := svc.ClockIn(&ClockInRequest{LocationID: &f.location.ID, Note: "morning shift"}, f.actor)
	if err != nil {
		t.Fatalf("ClockIn: %v", err)
	}
	if row.ClockOutAt != nil {
		t.Fatal("fresh row already closed")
	}

	if _, err := svc.ClockIn(&ClockInRequest{}, f.actor); !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("second clock-in = %v, want Conflict", err)
	}

	closed, err := svc.ClockOut(&ClockOutRequest{Note: "done"}, f.actor)
	if err != nil {
		t.Fatalf("ClockOut: %v", err)
	}
	if closed.ClockOutAt == nil {
		t.Fatal("clock-out did not close the row")
	}
	if closed.Note != "done" {
		t.Fatalf("note = %q, want %q", closed.Note, "done")
	}

	// A closed row frees the member to clock in again.
	if _, err := svc.ClockIn(&ClockInRequest{}, f.actor); err != nil {
		t.Fatalf("clock-in after clock-out: %v", err)
	}
}

func TestClockOutWithoutOpenRow(t *testing.T) {
	f := newFixture(t)
	svc := newAttendanceService(f)

	if _, err := svc.ClockOut(&ClockOutRequest{}, f.actor); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("ClockOut = %v, want NotFound", err)
	}
}

func TestClockInUnknownLocation(t *testing.T) {
	f := newFixture(t)
	svc := newAttendanceService(f)

	bogus := uuid.New()
	if _, err := svc.ClockIn(&ClockInRequest{LocationID: &bogus}, f.actor); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("ClockIn = %v, want NotFound", err)
	}
}

func TestCashierCannotViewOthersHistory(t *testing.T) {
	f := newFixture(t)
	svc := newAttendanceService(f)

	cashier := Actor{ID: uuid.New(), OrganizationID: f.org.ID, Role: model.RoleCashier}

	if _, err := svc.History(uuid.New(), 10, cashier); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("History = %v, want Forbidden", err)
	}
	if _, err := svc.History(cashier.ID, 10, cashier); err != nil {
		t.Fatalf("own history: %v", err)
	}
}
