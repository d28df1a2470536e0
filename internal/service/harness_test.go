package service

import (
	"fmt"
	"sync/atomic"
	"testing"

	"dealio-backend/internal/model"
	"dealio-backend/internal/repository"
	"dealio-backend/pkg/cache"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testDBSeq atomic.Int64

// newTestDB opens an isolated in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:svc_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(
		&model.Organization{}, &model.User{},
		&model.Product{}, &model.ProductVariant{},
		&model.Location{}, &model.StockRecord{}, &model.StockMovement{},
		&model.Sale{}, &model.SaleItem{},
		&model.Customer{}, &model.LoyaltyTransaction{},
		&model.Supplier{}, &model.Expense{}, &model.Attendance{},
		&model.MpesaPaymentRequest{},
		&model.OutboxEntry{}, &model.AuditLog{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// fixture is a seeded single-org world: one location, one sellable variant
// with stock, and an acting owner.
type fixture struct {
	db       *gorm.DB
	org      *model.Organization
	location *model.Location
	product  *model.Product
	variant  *model.ProductVariant
	actor    Actor

	stockRepo    repository.StockRepository
	saleRepo     repository.SaleRepository
	customerRepo repository.CustomerRepository
	outboxRepo   repository.OutboxRepository
	mpesaRepo    repository.MpesaRepository

	cache cache.Cache
	pos   POSService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)

	org := &model.Organization{
		Name:             "Test Store",
		Currency:         "KES",
		PointsPerUnit:    decimal.NewFromInt(100),
		PointRedeemValue: decimal.NewFromInt(1),
		TaxRate:          decimal.NewFromInt(10),
	}
	if err := db.Create(org).Error; err != nil {
		t.Fatalf("seed org: %v", err)
	}

	location := &model.Location{
		OrganizationID: org.ID,
		Name:           "Main Store",
		Kind:           model.LocationStore,
	}
	if err := db.Create(location).Error; err != nil {
		t.Fatalf("seed location: %v", err)
	}

	product := &model.Product{
		OrganizationID: org.ID,
		SKU:            "TEA",
		Name:           "Tea Leaves",
		IsActive:       true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	variant := &model.ProductVariant{
		OrganizationID: org.ID,
		ProductID:      product.ID,
		SKU:            "TEA-250G",
		Name:           "250g pack",
		UnitPrice:      decimal.NewFromInt(10),
		UnitCost:       decimal.NewFromInt(6),
		IsActive:       true,
	}
	if err := db.Create(variant).Error; err != nil {
		t.Fatalf("seed variant: %v", err)
	}

	if err := db.Create(&model.StockRecord{
		OrganizationID:    org.ID,
		LocationID:        location.ID,
		VariantID:         variant.ID,
		CurrentQuantity:   5,
		AvailableQuantity: 5,
	}).Error; err != nil {
		t.Fatalf("seed stock: %v", err)
	}

	f := &fixture{
		db:       db,
		org:      org,
		location: location,
		product:  product,
		variant:  variant,
		actor: Actor{
			ID:             uuid.New(),
			OrganizationID: org.ID,
			Name:           "Owner",
			Email:          "owner@test",
			Role:           model.RoleOwner,
		},
		stockRepo:    repository.NewStockRepo(db),
		saleRepo:     repository.NewSaleRepo(db),
		customerRepo: repository.NewCustomerRepo(db),
		outboxRepo:   repository.NewOutboxRepo(db),
		mpesaRepo:    repository.NewMpesaRepo(db),
		cache:        cache.NewMemory(),
	}
	f.pos = NewPOSService(
		db,
		repository.NewProductRepo(db),
		f.stockRepo,
		f.saleRepo,
		f.customerRepo,
		repository.NewOrganizationRepo(db),
		f.outboxRepo,
		f.cache,
		nil,
		zap.NewNop(),
	)
	return f
}

// addVariant seeds another sellable variant with its own stock record.
func (f *fixture) addVariant(t *testing.T, sku string, price decimal.Decimal, available int) *model.ProductVariant {
	t.Helper()
	v := &model.ProductVariant{
		OrganizationID: f.org.ID,
		ProductID:      f.product.ID,
		SKU:            sku,
		UnitPrice:      price,
		IsActive:       true,
	}
	if err := f.db.Create(v).Error; err != nil {
		t.Fatalf("seed variant %s: %v", sku, err)
	}
	if err := f.db.Create(&model.StockRecord{
		OrganizationID:    f.org.ID,
		LocationID:        f.location.ID,
		VariantID:         v.ID,
		CurrentQuantity:   available,
		AvailableQuantity: available,
	}).Error; err != nil {
		t.Fatalf("seed stock %s: %v", sku, err)
	}
	return v
}

func (f *fixture) addCustomer(t *testing.T, points int) *model.Customer {
	t.Helper()
	c := &model.Customer{
		OrganizationID: f.org.ID,
		FullName:       "Jane Buyer",
		LoyaltyPoints:  points,
		IsActive:       true,
	}
	if err := f.db.Create(c).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return c
}

func (f *fixture) availableQty(t *testing.T, variantID uuid.UUID) int {
	t.Helper()
	record, err := f.stockRepo.FindRecord(f.org.ID, f.location.ID, variantID)
	if err != nil {
		t.Fatalf("read stock record: %v", err)
	}
	return record.AvailableQuantity
}

func (f *fixture) reloadCustomer(t *testing.T, id uuid.UUID) *model.Customer {
	t.Helper()
	c, err := f.customerRepo.FindByID(f.org.ID, id)
	if err != nil {
		t.Fatalf("reload customer: %v", err)
	}
	return c
}

func (f *fixture) setStockLevel(t *testing.T, variantID uuid.UUID, qty int) {
	t.Helper()
	err := f.db.Model(&model.StockRecord{}).
		Where("organization_id = ? AND location_id = ? AND variant_id = ?", f.org.ID, f.location.ID, variantID).
		Updates(map[string]interface{}{"current_quantity": qty, "available_quantity": qty}).Error
	if err != nil {
		t.Fatalf("set stock level: %v", err)
	}
}

func cashCheckout(locationID, variantID uuid.UUID, qty int) *CheckoutCommand {
	return &CheckoutCommand{
		LocationID:    locationID,
		Lines:         []CheckoutLine{{VariantID: variantID, Quantity: qty}},
		PaymentMethod: model.PayCash,
	}
}

func mustEqualDecimal(t *testing.T, want string, got decimal.Decimal, label string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("%s = %s, want %s", label, got, want)
	}
}
