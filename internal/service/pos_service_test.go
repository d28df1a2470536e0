package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"dealio-backend/internal/model"
	"dealio-backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestProcessSaleTotalsAndStock(t *testing.T) {
	f := newFixture(t)

	sale, err := f.pos.ProcessSale(cashCheckout(f.location.ID, f.variant.ID, 2), f.actor)
	if err != nil {
		t.Fatalf("ProcessSale: %v", err)
	}

	mustEqualDecimal(t, "20.00", sale.Subtotal, "subtotal")
	mustEqualDecimal(t, "2.00", sale.TaxAmount, "tax")
	mustEqualDecimal(t, "22.00", sale.FinalAmount, "final")
	if sale.PaymentStatus != model.PaymentCompleted {
		t.Fatalf("payment status = %s, want COMPLETED", sale.PaymentStatus)
	}

	wantNumber := fmt.Sprintf("S-%s-0001", time.Now().Format("20060102"))
	if sale.SaleNumber != wantNumber {
		t.Fatalf("sale number = %s, want %s", sale.SaleNumber, wantNumber)
	}

	if got := f.availableQty(t, f.variant.ID); got != 3 {
		t.Fatalf("available after sale = %d, want 3", got)
	}

	movements, err := f.stockRepo.MovementsBySale(sale.ID)
	if err != nil {
		t.Fatalf("MovementsBySale: %v", err)
	}
	if len(movements) != 1 {
		t.Fatalf("movements = %d, want 1", len(movements))
	}
	m := movements[0]
	if m.Type != model.MovementSale || m.QuantityDelta != -2 || m.QuantityAfter != 3 {
		t.Fatalf("movement = %s delta=%d after=%d, want SALE -2 3", m.Type, m.QuantityDelta, m.QuantityAfter)
	}
}

func TestSaleNumberSequence(t *testing.T) {
	f := newFixture(t)

	first, err := f.pos.ProcessSale(cashCheckout(f.location.ID, f.variant.ID, 1), f.actor)
	if err != nil {
		t.Fatalf("first sale: %v", err)
	}
	second, err := f.pos.ProcessSale(cashCheckout(f.location.ID, f.variant.ID, 1), f.actor)
	if err != nil {
		t.Fatalf("second sale: %v", err)
	}

	day := time.Now().Format("20060102")
	if first.SaleNumber != "S-"+day+"-0001" || second.SaleNumber != "S-"+day+"-0002" {
		t.Fatalf("sale numbers = %s, %s", first.SaleNumber, second.SaleNumber)
	}
}

func TestProcessSaleMergesDuplicateLines(t *testing.T) {
	f := newFixture(t)

	cmd := &CheckoutCommand{
		LocationID: f.location.ID,
		Lines: []CheckoutLine{
			{VariantID: f.variant.ID, Quantity: 1},
			{VariantID: f.variant.ID, Quantity: 2},
		},
		PaymentMethod: model.PayCash,
	}
	sale, err := f.pos.ProcessSale(cmd, f.actor)
	if err != nil {
		t.Fatalf("ProcessSale: %v", err)
	}

	if len(sale.Items) != 1 {
		t.Fatalf("items = %d, want 1 merged line", len(sale.Items))
	}
	if sale.Items[0].Quantity != 3 {
		t.Fatalf("merged quantity = %d, want 3", sale.Items[0].Quantity)
	}
	if got := f.availableQty(t, f.variant.ID); got != 2 {
		t.Fatalf("available = %d, want 2", got)
	}
}

func TestProcessSaleInsufficientStockIsAtomic(t *testing.T) {
	f := newFixture(t)
	scarce := f.addVariant(t, "TEA-1KG", decimal.NewFromInt(30), 1)

	cmd := &CheckoutCommand{
		LocationID: f.location.ID,
		Lines: []CheckoutLine{
			{VariantID: f.variant.ID, Quantity: 2},
			{VariantID: scarce.ID, Quantity: 2},
		},
		PaymentMethod: model.PayCash,
	}
	_, err := f.pos.ProcessSale(cmd, f.actor)
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("err = %v, want Conflict", err)
	}

	// Nothing may survive the rollback: not the plentiful line's decrement,
	// not the sale, not any movement.
	if got := f.availableQty(t, f.variant.ID); got != 5 {
		t.Fatalf("available = %d, want untouched 5", got)
	}
	var saleCount, movementCount int64
	f.db.Model(&model.Sale{}).Count(&saleCount)
	f.db.Model(&model.StockMovement{}).Count(&movementCount)
	if saleCount != 0 || movementCount != 0 {
		t.Fatalf("sales=%d movements=%d after failed checkout, want 0/0", saleCount, movementCount)
	}

	// The same request succeeds once stock arrives.
	f.setStockLevel(t, scarce.ID, 2)
	if _, err := f.pos.ProcessSale(cmd, f.actor); err != nil {
		t.Fatalf("retry after restock: %v", err)
	}
}

func TestProcessSaleLoyalty(t *testing.T) {
	f := newFixture(t)
	f.db.Model(f.org).Update("points_per_unit", decimal.NewFromInt(10))
	customer := f.addCustomer(t, 10)

	cmd := cashCheckout(f.location.ID, f.variant.ID, 2)
	cmd.CustomerID = &customer.ID
	cmd.PointsToRedeem = 5

	sale, err := f.pos.ProcessSale(cmd, f.actor)
	if err != nil {
		t.Fatalf("ProcessSale: %v", err)
	}

	// subtotal 20.00, redeem discount 5.00, tax 2.00 -> final 17.00, earns
	// floor(17/10) = 1 point
	mustEqualDecimal(t, "17.00", sale.FinalAmount, "final")
	if sale.PointsRedeemed != 5 || sale.PointsEarned != 1 {
		t.Fatalf("redeemed=%d earned=%d, want 5/1", sale.PointsRedeemed, sale.PointsEarned)
	}

	reloaded := f.reloadCustomer(t, customer.ID)
	if reloaded.LoyaltyPoints != 6 {
		t.Fatalf("balance = %d, want 10-5+1=6", reloaded.LoyaltyPoints)
	}
	mustEqualDecimal(t, "17.00", reloaded.TotalSpending, "total spending")

	history, err := f.customerRepo.LoyaltyTransactionsBySale(sale.ID)
	if err != nil {
		t.Fatalf("LoyaltyTransactionsBySale: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("loyalty rows = %d, want redeem+earn", len(history))
	}
}

func TestProcessSaleOverRedeemRollsBack(t *testing.T) {
	f := newFixture(t)
	pricey := f.addVariant(t, "TEA-5KG", decimal.NewFromInt(100), 5)
	customer := f.addCustomer(t, 10)

	cmd := cashCheckout(f.location.ID, pricey.ID, 1)
	cmd.CustomerID = &customer.ID
	cmd.PointsToRedeem = 50 // within the sale total, beyond the balance

	_, err := f.pos.ProcessSale(cmd, f.actor)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want Validation", err)
	}

	if got := f.availableQty(t, pricey.ID); got != 5 {
		t.Fatalf("available = %d, want untouched 5", got)
	}
	if got := f.reloadCustomer(t, customer.ID).LoyaltyPoints; got != 10 {
		t.Fatalf("balance = %d, want untouched 10", got)
	}
	var saleCount int64
	f.db.Model(&model.Sale{}).Count(&saleCount)
	if saleCount != 0 {
		t.Fatalf("sales = %d after rollback, want 0", saleCount)
	}
}

func TestRedeemWithoutCustomerRejected(t *testing.T) {
	f := newFixture(t)

	cmd := cashCheckout(f.location.ID, f.variant.ID, 1)
	cmd.PointsToRedeem = 3

	_, err := f.pos.ProcessSale(cmd, f.actor)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want Validation", err)
	}
}

func TestVoidRestoreRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.db.Model(f.org).Update("points_per_unit", decimal.NewFromInt(10))
	customer := f.addCustomer(t, 10)

	cmd := cashCheckout(f.location.ID, f.variant.ID, 2)
	cmd.CustomerID = &customer.ID
	cmd.PointsToRedeem = 5

	sale, err := f.pos.ProcessSale(cmd, f.actor)
	if err != nil {
		t.Fatalf("ProcessSale: %v", err)
	}
	if got := f.reloadCustomer(t, customer.ID).LoyaltyPoints; got != 6 {
		t.Fatalf("balance after sale = %d, want 6", got)
	}

	voided, err := f.pos.VoidSale(sale.ID, f.actor)
	if err != nil {
		t.Fatalf("VoidSale: %v", err)
	}
	if voided.PaymentStatus != model.PaymentCancelled {
		t.Fatalf("status = %s, want CANCELLED", voided.PaymentStatus)
	}
	if got := f.availableQty(t, f.variant.ID); got != 5 {
		t.Fatalf("available after void = %d, want 5", got)
	}
	after := f.reloadCustomer(t, customer.ID)
	if after.LoyaltyPoints != 10 {
		t.Fatalf("balance after void = %d, want original 10", after.LoyaltyPoints)
	}
	mustEqualDecimal(t, "0.00", after.TotalSpending, "spending after void")

	// Compensating entries are appended; the originals stay.
	movements, err := f.stockRepo.MovementsBySale(sale.ID)
	if err != nil {
		t.Fatalf("MovementsBySale: %v", err)
	}
	if len(movements) != 2 {
		t.Fatalf("movements after void = %d, want SALE+VOID", len(movements))
	}

	restored, err := f.pos.RestoreSale(sale.ID, f.actor)
	if err != nil {
		t.Fatalf("RestoreSale: %v", err)
	}
	if restored.PaymentStatus != model.PaymentCompleted {
		t.Fatalf("status = %s, want COMPLETED", restored.PaymentStatus)
	}
	if got := f.availableQty(t, f.variant.ID); got != 3 {
		t.Fatalf("available after restore = %d, want 3", got)
	}
	if got := f.reloadCustomer(t, customer.ID).LoyaltyPoints; got != 6 {
		t.Fatalf("balance after restore = %d, want 6", got)
	}
}

func TestVoidTwiceConflicts(t *testing.T) {
	f := newFixture(t)

	sale, err := f.pos.ProcessSale(cashCheckout(f.location.ID, f.variant.ID, 1), f.actor)
	if err != nil {
		t.Fatalf("ProcessSale: %v", err)
	}
	if _, err := f.pos.VoidSale(sale.ID, f.actor); err != nil {
		t.Fatalf("first void: %v", err)
	}
	if _, err := f.pos.VoidSale(sale.ID, f.actor); !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("second void err = %v, want Conflict", err)
	}
}

func TestRestoreFailsWhenStockGone(t *testing.T) {
	f := newFixture(t)

	sale, err := f.pos.ProcessSale(cashCheckout(f.location.ID, f.variant.ID, 4), f.actor)
	if err != nil {
		t.Fatalf("ProcessSale: %v", err)
	}
	if _, err := f.pos.VoidSale(sale.ID, f.actor); err != nil {
		t.Fatalf("VoidSale: %v", err)
	}

	// The returned units get sold to someone else.
	f.setStockLevel(t, f.variant.ID, 2)

	_, err = f.pos.RestoreSale(sale.ID, f.actor)
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("err = %v, want Conflict", err)
	}
	reloaded, err := f.pos.GetSale(f.org.ID, sale.ID)
	if err != nil {
		t.Fatalf("GetSale: %v", err)
	}
	if reloaded.PaymentStatus != model.PaymentCancelled {
		t.Fatalf("status = %s, want still CANCELLED", reloaded.PaymentStatus)
	}
	if got := f.availableQty(t, f.variant.ID); got != 2 {
		t.Fatalf("available = %d, want untouched 2", got)
	}
}

func TestConcurrentCheckoutsNeverOversell(t *testing.T) {
	f := newFixture(t)
	f.setStockLevel(t, f.variant.ID, 3)

	const buyers = 6
	var wg sync.WaitGroup
	errs := make([]error, buyers)

	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.pos.ProcessSale(cashCheckout(f.location.ID, f.variant.ID, 1), f.actor)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else if !apperr.IsKind(err, apperr.KindConflict) {
			t.Fatalf("unexpected checkout error: %v", err)
		}
	}
	if succeeded != 3 {
		t.Fatalf("succeeded = %d, want exactly 3", succeeded)
	}
	if got := f.availableQty(t, f.variant.ID); got != 0 {
		t.Fatalf("available = %d, want 0", got)
	}
}

func TestOutboxEntriesWrittenWithSale(t *testing.T) {
	f := newFixture(t)

	if _, err := f.pos.ProcessSale(cashCheckout(f.location.ID, f.variant.ID, 1), f.actor); err != nil {
		t.Fatalf("ProcessSale: %v", err)
	}

	entries, err := f.outboxRepo.FindDue(time.Now().Add(time.Second), 10)
	if err != nil {
		t.Fatalf("FindDue: %v", err)
	}
	kinds := make(map[model.OutboxKind]bool, len(entries))
	for _, e := range entries {
		kinds[e.Kind] = true
	}
	for _, want := range []model.OutboxKind{
		model.OutboxReceipt, model.OutboxCacheInvalidate,
		model.OutboxRealtimeEvent, model.OutboxAuditLog,
	} {
		if !kinds[want] {
			t.Fatalf("missing outbox kind %s in %v", want, kinds)
		}
	}
}

func TestListPOSProductsReadThroughCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.pos.ListPOSProducts(ctx, f.org.ID, f.location.ID)
	if err != nil {
		t.Fatalf("ListPOSProducts: %v", err)
	}
	if len(first) != 1 || first[0].Available != 5 {
		t.Fatalf("listing = %+v, want one entry with 5 available", first)
	}

	// A direct DB change is invisible until the key is invalidated.
	f.setStockLevel(t, f.variant.ID, 1)
	cached, err := f.pos.ListPOSProducts(ctx, f.org.ID, f.location.ID)
	if err != nil {
		t.Fatalf("cached read: %v", err)
	}
	if cached[0].Available != 5 {
		t.Fatalf("cached available = %d, want stale 5", cached[0].Available)
	}

	if err := f.cache.Invalidate(ctx, PosListingKey(f.org.ID, f.location.ID)); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	fresh, err := f.pos.ListPOSProducts(ctx, f.org.ID, f.location.ID)
	if err != nil {
		t.Fatalf("fresh read: %v", err)
	}
	if fresh[0].Available != 1 {
		t.Fatalf("fresh available = %d, want 1", fresh[0].Available)
	}
}

func TestCheckoutAfterSaleInvalidatesListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.pos.ListPOSProducts(ctx, f.org.ID, f.location.ID); err != nil {
		t.Fatalf("warm cache: %v", err)
	}
	if _, err := f.pos.ProcessSale(cashCheckout(f.location.ID, f.variant.ID, 2), f.actor); err != nil {
		t.Fatalf("ProcessSale: %v", err)
	}

	listing, err := f.pos.ListPOSProducts(ctx, f.org.ID, f.location.ID)
	if err != nil {
		t.Fatalf("ListPOSProducts: %v", err)
	}
	if listing[0].Available != 3 {
		t.Fatalf("available = %d, want post-sale 3", listing[0].Available)
	}
}

func TestValidateCartUnknownVariant(t *testing.T) {
	f := newFixture(t)

	cmd := cashCheckout(f.location.ID, f.variant.ID, 1)
	phantom := f.addVariant(t, "GONE", decimal.NewFromInt(1), 1)
	f.db.Delete(phantom)
	cmd.Lines = append(cmd.Lines, CheckoutLine{VariantID: phantom.ID, Quantity: 1})

	_, err := f.pos.ValidateCart(cmd, f.org.ID)
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want NotFound", err)
	}
}

func TestSaleNumbersScopedPerOrganization(t *testing.T) {
	f := newFixture(t)

	orgB := &model.Organization{
		Name:             "Second Store",
		Currency:         "KES",
		PointsPerUnit:    decimal.NewFromInt(100),
		PointRedeemValue: decimal.NewFromInt(1),
		TaxRate:          decimal.NewFromInt(10),
	}
	if err := f.db.Create(orgB).Error; err != nil {
		t.Fatalf("seed org B: %v", err)
	}
	locationB := &model.Location{OrganizationID: orgB.ID, Name: "Branch", Kind: model.LocationStore}
	if err := f.db.Create(locationB).Error; err != nil {
		t.Fatalf("seed location B: %v", err)
	}
	// Same SKUs as the first org: catalog identifiers are tenant-scoped.
	productB := &model.Product{OrganizationID: orgB.ID, SKU: "TEA", Name: "Tea Leaves", IsActive: true}
	if err := f.db.Create(productB).Error; err != nil {
		t.Fatalf("seed product B: %v", err)
	}
	variantB := &model.ProductVariant{
		OrganizationID: orgB.ID,
		ProductID:      productB.ID,
		SKU:            "TEA-250G",
		UnitPrice:      decimal.NewFromInt(10),
		UnitCost:       decimal.NewFromInt(6),
		IsActive:       true,
	}
	if err := f.db.Create(variantB).Error; err != nil {
		t.Fatalf("seed variant B: %v", err)
	}
	if err := f.db.Create(&model.StockRecord{
		OrganizationID:    orgB.ID,
		LocationID:        locationB.ID,
		VariantID:         variantB.ID,
		CurrentQuantity:   5,
		AvailableQuantity: 5,
	}).Error; err != nil {
		t.Fatalf("seed stock B: %v", err)
	}
	actorB := Actor{ID: uuid.New(), OrganizationID: orgB.ID, Name: "Owner B", Email: "b@test", Role: model.RoleOwner}

	saleA, err := f.pos.ProcessSale(cashCheckout(f.location.ID, f.variant.ID, 1), f.actor)
	if err != nil {
		t.Fatalf("first org sale: %v", err)
	}
	saleB, err := f.pos.ProcessSale(cashCheckout(locationB.ID, variantB.ID, 1), actorB)
	if err != nil {
		t.Fatalf("second org sale: %v", err)
	}

	wantNumber := fmt.Sprintf("S-%s-0001", time.Now().Format("20060102"))
	if saleA.SaleNumber != wantNumber || saleB.SaleNumber != wantNumber {
		t.Fatalf("sale numbers = %s / %s, want both %s", saleA.SaleNumber, saleB.SaleNumber, wantNumber)
	}
}

func TestSaleNumberCollisionIsConflict(t *testing.T) {
	f := newFixture(t)

	// A row carrying today's first number but stamped yesterday is invisible
	// to the per-day counter, so the next checkout recomputes 0001 and hits
	// the unique index instead.
	stale := &model.Sale{
		OrganizationID: f.org.ID,
		LocationID:     f.location.ID,
		MemberID:       f.actor.ID,
		SaleNumber:     fmt.Sprintf("S-%s-0001", time.Now().Format("20060102")),
		PaymentMethod:  model.PayCash,
		PaymentStatus:  model.PaymentCompleted,
	}
	stale.CreatedAt = time.Now().Add(-24 * time.Hour)
	if err := f.db.Create(stale).Error; err != nil {
		t.Fatalf("seed stale sale: %v", err)
	}

	_, err := f.pos.ProcessSale(cashCheckout(f.location.ID, f.variant.ID, 1), f.actor)
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("err = %v, want Conflict", err)
	}
	if got := f.availableQty(t, f.variant.ID); got != 5 {
		t.Fatalf("available after rollback = %d, want 5", got)
	}
}

func TestUpdateStatusGuardedByCurrentStatus(t *testing.T) {
	f := newFixture(t)

	sale, err := f.pos.ProcessSale(cashCheckout(f.location.ID, f.variant.ID, 1), f.actor)
	if err != nil {
		t.Fatalf("ProcessSale: %v", err)
	}

	rows, err := f.saleRepo.UpdateStatus(f.db, sale.ID, model.PaymentPending, model.PaymentCancelled, f.actor.ID.String())
	if err != nil {
		t.Fatalf("UpdateStatus stale: %v", err)
	}
	if rows != 0 {
		t.Fatalf("rows = %d, want 0 when the expected status no longer holds", rows)
	}
	current, err := f.saleRepo.FindByID(f.org.ID, sale.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if current.PaymentStatus != model.PaymentCompleted {
		t.Fatalf("status = %s, want COMPLETED untouched", current.PaymentStatus)
	}

	rows, err = f.saleRepo.UpdateStatus(f.db, sale.ID, model.PaymentCompleted, model.PaymentCancelled, f.actor.ID.String())
	if err != nil {
		t.Fatalf("UpdateStatus current: %v", err)
	}
	if rows != 1 {
		t.Fatalf("rows = %d, want 1", rows)
	}
}
