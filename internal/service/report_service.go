package service

import (
	"time"

	"dealio-backend/internal/repository"
	"dealio-backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DashboardStats is the landing-page summary card set.
type DashboardStats struct {
	TotalProducts  int64           `json:"total_products"`
	LowStockCount  int64           `json:"low_stock_count"`
	StockValuation decimal.Decimal `json:"stock_valuation"`
	TodayRevenue   decimal.Decimal `json:"today_revenue"`
}

type SalesChart struct {
	StartDate time.Time                  `json:"start_date"`
	EndDate   time.Time                  `json:"end_date"`
	Daily     []repository.DailySalesRow `json:"daily"`
}

type MovementChart struct {
	StartDate time.Time                     `json:"start_date"`
	EndDate   time.Time                     `json:"end_date"`
	Daily     []repository.DailyMovementRow `json:"daily"`
}

type ReportService interface {
	Dashboard(orgID uuid.UUID) (*DashboardStats, error)
	SalesChart(orgID uuid.UUID, rangeKey string) (*SalesChart, error)
	MovementChart(orgID uuid.UUID, rangeKey string) (*MovementChart, error)
}

type reportService struct {
	productRepo repository.ProductRepository
	stockRepo   repository.StockRepository
	saleRepo    repository.SaleRepository
}

func NewReportService(productRepo repository.ProductRepository, stockRepo repository.StockRepository, saleRepo repository.SaleRepository) ReportService {
	return &reportService{productRepo: productRepo, stockRepo: stockRepo, saleRepo: saleRepo}
}

func (s *reportService) Dashboard(orgID uuid.UUID) (*DashboardStats, error) {
	totalProducts, err := s.productRepo.Count(orgID)
	if err != nil {
		return nil, apperr.Internal("failed to count products", err)
	}
	lowStock, err := s.stockRepo.CountLowStock(orgID)
	if err != nil {
		return nil, apperr.Internal("failed to count low stock", err)
	}
	valuation, err := s.stockRepo.Valuation(orgID)
	if err != nil {
		return nil, apperr.Internal("failed to compute stock valuation", err)
	}

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	todayRevenue, err := s.saleRepo.RevenueBetween(orgID, dayStart, now)
	if err != nil {
		return nil, apperr.Internal("failed to sum today's revenue", err)
	}

	return &DashboardStats{
		TotalProducts:  totalProducts,
		LowStockCount:  lowStock,
		StockValuation: valuation,
		TodayRevenue:   todayRevenue,
	}, nil
}

// resolveRange maps a chart range key to a start date relative to now.
// Accepted keys are "7d", "1m" and "3m"; the default is the last 7 days.
func resolveRange(rangeKey string, now time.Time) (time.Time, error) {
	switch rangeKey {
	case "", "7d":
		return now.AddDate(0, 0, -7), nil
	case "1m":
		return now.AddDate(0, -1, 0), nil
	case "3m":
		return now.AddDate(0, -3, 0), nil
	default:
		return time.Time{}, apperr.Validation("range must be one of 7d, 1m, 3m")
	}
}

func (s *reportService) SalesChart(orgID uuid.UUID, rangeKey string) (*SalesChart, error) {
	now := time.Now()
	start, err := resolveRange(rangeKey, now)
	if err != nil {
		return nil, err
	}
	daily, err := s.saleRepo.DailySales(orgID, start, now)
	if err != nil {
		return nil, apperr.Internal("failed to aggregate daily sales", err)
	}
	return &SalesChart{StartDate: start, EndDate: now, Daily: daily}, nil
}

func (s *reportService) MovementChart(orgID uuid.UUID, rangeKey string) (*MovementChart, error) {
	now := time.Now()
	start, err := resolveRange(rangeKey, now)
	if err != nil {
		return nil, err
	}
	daily, err := s.stockRepo.DailyMovement(orgID, start, now)
	if err != nil {
		return nil, apperr.Internal("failed to aggregate stock movement", err)
	}
	return &MovementChart{StartDate: start, EndDate: now, Daily: daily}, nil
}
