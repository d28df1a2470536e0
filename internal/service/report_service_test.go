package service

import (
	"testing"

	"dealio-backend/internal/repository"
	"dealio-backend/pkg/apperr"
)

func newReportService(f *fixture) ReportService {
	return NewReportService(repository.NewProductRepo(f.db), f.stockRepo, f.saleRepo)
}

func TestDashboardStats(t *testing.T) {
	f := newFixture(t)
	svc := newReportService(f)

	if _, err := f.pos.ProcessSale(cashCheckout(f.location.ID, f.variant.ID, 2), f.actor); err != nil {
		t.Fatalf("seed sale: %v", err)
	}

	stats, err := svc.Dashboard(f.org.ID)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if stats.TotalProducts != 1 {
		t.Fatalf("total products = %d, want 1", stats.TotalProducts)
	}
	if stats.LowStockCount != 0 {
		t.Fatalf("low stock = %d, want 0", stats.LowStockCount)
	}
	// 3 units remain at a unit cost of 6.00.
	mustEqualDecimal(t, "18.00", stats.StockValuation, "stock valuation")
	mustEqualDecimal(t, "22.00", stats.TodayRevenue, "today's revenue")
}

func TestSalesChartRanges(t *testing.T) {
	f := newFixture(t)
	svc := newReportService(f)

	if _, err := f.pos.ProcessSale(cashCheckout(f.location.ID, f.variant.ID, 1), f.actor); err != nil {
		t.Fatalf("seed sale: %v", err)
	}

	for _, rangeKey := range []string{"", "7d", "1m", "3m"} {
		chart, err := svc.SalesChart(f.org.ID, rangeKey)
		if err != nil {
			t.Fatalf("SalesChart(%q): %v", rangeKey, err)
		}
		if len(chart.Daily) != 1 {
			t.Fatalf("SalesChart(%q) rows = %d, want 1", rangeKey, len(chart.Daily))
		}
		if chart.Daily[0].Count != 1 {
			t.Fatalf("SalesChart(%q) count = %d, want 1", rangeKey, chart.Daily[0].Count)
		}
	}

	if _, err := svc.SalesChart(f.org.ID, "90d"); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("bad range = %v, want Validation", err)
	}
}

func TestMovementChartCountsBothDirections(t *testing.T) {
	f := newFixture(t)
	svc := newReportService(f)
	stockSvc := newStockService(f)

	if _, err := f.pos.ProcessSale(cashCheckout(f.location.ID, f.variant.ID, 2), f.actor); err != nil {
		t.Fatalf("seed sale: %v", err)
	}
	if err := stockSvc.Adjust(&AdjustStockRequest{
		LocationID: f.location.ID,
		VariantID:  f.variant.ID,
		Delta:      4,
		Note:       "recount",
	}, f.actor); err != nil {
		t.Fatalf("seed adjustment: %v", err)
	}

	chart, err := svc.MovementChart(f.org.ID, "7d")
	if err != nil {
		t.Fatalf("MovementChart: %v", err)
	}
	if len(chart.Daily) != 1 {
		t.Fatalf("rows = %d, want 1", len(chart.Daily))
	}
	if chart.Daily[0].Inbound != 4 || chart.Daily[0].Outbound != 2 {
		t.Fatalf("daily = %+v, want inbound 4 / outbound 2", chart.Daily[0])
	}
}
