package service

import (
	"testing"
	"time"

	"dealio-backend/internal/model"
	"dealio-backend/internal/repository"
	"dealio-backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newFinanceService(f *fixture) FinanceService {
	return NewFinanceService(repository.NewExpenseRepo(f.db), f.saleRepo)
}

func TestExpenseLifecycle(t *testing.T) {
	f := newFixture(t)
	svc := newFinanceService(f)

	expense := &model.Expense{
		Category:    model.ExpenseRent,
		Description: "August rent",
		Amount:      decimal.NewFromInt(500),
	}
	if err := svc.CreateExpense(expense, f.actor); err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	if expense.IncurredAt.IsZero() {
		t.Fatal("IncurredAt not defaulted")
	}

	expense.Amount = decimal.NewFromInt(550)
	updated, err := svc.UpdateExpense(expense.ID, expense, f.actor)
	if err != nil {
		t.Fatalf("UpdateExpense: %v", err)
	}
	mustEqualDecimal(t, "550", updated.Amount, "updated amount")

	if err := svc.DeleteExpense(expense.ID, f.actor); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}
	expenses, err := svc.ListExpenses(f.org.ID, nil, nil)
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(expenses) != 0 {
		t.Fatalf("expenses = %d after delete, want 0", len(expenses))
	}
}

func TestExpenseRejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t)
	svc := newFinanceService(f)

	err := svc.CreateExpense(&model.Expense{
		Category: model.ExpenseOther,
		Amount:   decimal.Zero,
	}, f.actor)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("zero amount = %v, want Validation", err)
	}
}

func TestExpenseUnknownCategory(t *testing.T) {
	f := newFixture(t)
	svc := newFinanceService(f)

	err := svc.CreateExpense(&model.Expense{
		Category: "GAMBLING",
		Amount:   decimal.NewFromInt(10),
	}, f.actor)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("unknown category = %v, want Validation", err)
	}
}

func TestDeleteExpenseNotFound(t *testing.T) {
	f := newFixture(t)
	svc := newFinanceService(f)

	if err := svc.DeleteExpense(uuid.New(), f.actor); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("DeleteExpense = %v, want NotFound", err)
	}
}

func TestFinanceSummaryNetsRevenueAndExpenses(t *testing.T) {
	f := newFixture(t)
	svc := newFinanceService(f)

	// A completed cash sale contributes 22.00 of revenue (20.00 + 10% tax).
	if _, err := f.pos.ProcessSale(cashCheckout(f.location.ID, f.variant.ID, 2), f.actor); err != nil {
		t.Fatalf("seed sale: %v", err)
	}
	if err := svc.CreateExpense(&model.Expense{
		Category: model.ExpenseSupplies,
		Amount:   decimal.NewFromInt(5),
	}, f.actor); err != nil {
		t.Fatalf("seed expense: %v", err)
	}

	now := time.Now()
	summary, err := svc.Summary(f.org.ID, now.AddDate(0, 0, -1), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	mustEqualDecimal(t, "22.00", summary.Revenue, "revenue")
	mustEqualDecimal(t, "5", summary.Expenses, "expenses")
	mustEqualDecimal(t, "17.00", summary.Net, "net")
}

func TestFinanceSummaryRejectsInvertedRange(t *testing.T) {
	f := newFixture(t)
	svc := newFinanceService(f)

	now := time.Now()
	if _, err := svc.Summary(f.org.ID, now, now.AddDate(0, 0, -1)); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("inverted range = %v, want Validation", err)
	}
}
