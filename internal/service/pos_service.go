package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dealio-backend/internal/model"
	"dealio-backend/internal/repository"
	"dealio-backend/pkg/apperr"
	"dealio-backend/pkg/cache"
	"dealio-backend/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const posListingTTL = 5 * time.Minute

// Dispatcher wakes the outbox worker after a transactional core commits.
type Dispatcher interface {
	Kick()
}

type CheckoutLine struct {
	VariantID uuid.UUID `json:"variant_id" validate:"uuid_required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// CheckoutCommand is the validated input of one POS checkout. It is also what
// an M-Pesa payment request stores and replays when the gateway confirms.
type CheckoutCommand struct {
	LocationID     uuid.UUID           `json:"location_id" validate:"uuid_required"`
	CustomerID     *uuid.UUID          `json:"customer_id,omitempty"`
	Lines          []CheckoutLine      `json:"lines" validate:"required,min=1,dive"`
	DiscountAmount decimal.Decimal     `json:"discount_amount"`
	PointsToRedeem int                 `json:"points_to_redeem" validate:"gte=0"`
	PaymentMethod  model.PaymentMethod `json:"payment_method" validate:"required,oneof=CASH MPESA CARD"`

	// ChannelKey is the realtime channel a waiting client session listens on.
	ChannelKey string `json:"channel_key,omitempty"`
}

// POSListing is the cached read model served to the register screen.
type POSListing struct {
	VariantID   uuid.UUID       `json:"variant_id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Available   int             `json:"available"`
}

type POSService interface {
	ProcessSale(cmd *CheckoutCommand, actor Actor) (*model.Sale, error)
	VoidSale(saleID uuid.UUID, actor Actor) (*model.Sale, error)
	RestoreSale(saleID uuid.UUID, actor Actor) (*model.Sale, error)
	GetSale(orgID, saleID uuid.UUID) (*model.Sale, error)
	ListSales(orgID uuid.UUID, limit int) ([]model.Sale, error)
	ListPOSProducts(ctx context.Context, orgID, locationID uuid.UUID) ([]POSListing, error)

	// ValidateCart runs the read-only cart checks without committing anything.
	// The M-Pesa initiation path uses it to price the push before any stock is
	// touched.
	ValidateCart(cmd *CheckoutCommand, orgID uuid.UUID) ([]model.ProductVariant, error)
	QuoteTotal(cmd *CheckoutCommand, orgID uuid.UUID) (decimal.Decimal, error)
}

type posService struct {
	db           *gorm.DB
	productRepo  repository.ProductRepository
	stockRepo    repository.StockRepository
	saleRepo     repository.SaleRepository
	customerRepo repository.CustomerRepository
	orgRepo      repository.OrganizationRepository
	outboxRepo   repository.OutboxRepository
	cache        cache.Cache
	dispatcher   Dispatcher
	log          *zap.Logger
}

func NewPOSService(
	db *gorm.DB,
	productRepo repository.ProductRepository,
	stockRepo repository.StockRepository,
	saleRepo repository.SaleRepository,
	customerRepo repository.CustomerRepository,
	orgRepo repository.OrganizationRepository,
	outboxRepo repository.OutboxRepository,
	c cache.Cache,
	dispatcher Dispatcher,
	log *zap.Logger,
) POSService {
	return &posService{
		db:           db,
		productRepo:  productRepo,
		stockRepo:    stockRepo,
		saleRepo:     saleRepo,
		customerRepo: customerRepo,
		orgRepo:      orgRepo,
		outboxRepo:   outboxRepo,
		cache:        c,
		dispatcher:   dispatcher,
		log:          log,
	}
}

// PosListingKey is the cache key for an organization's register listing.
func PosListingKey(orgID, locationID uuid.UUID) string {
	return fmt.Sprintf("pos:products:%s:%s", orgID, locationID)
}

func posListingPrefixKeys(orgID uuid.UUID, locationIDs ...uuid.UUID) []string {
	keys := make([]string, 0, len(locationIDs))
	for _, locID := range locationIDs {
		keys = append(keys, PosListingKey(orgID, locID))
	}
	return keys
}

// ValidateCart resolves each cart line against the catalog and checks the
// requested quantity against available stock. Read-only; the decrement inside
// the transaction re-checks at commit time.
func (s *posService) ValidateCart(cmd *CheckoutCommand, orgID uuid.UUID) ([]model.ProductVariant, error) {
	if errs := validator.ValidateStruct(cmd); len(errs) > 0 {
		return nil, apperr.ValidationFields("invalid checkout request", validator.FieldErrors(errs))
	}

	// duplicate lines for the same variant are merged, not rejected
	ids := make([]uuid.UUID, 0, len(cmd.Lines))
	qtyByVariant := make(map[uuid.UUID]int, len(cmd.Lines))
	for _, line := range cmd.Lines {
		if _, dup := qtyByVariant[line.VariantID]; !dup {
			ids = append(ids, line.VariantID)
		}
		qtyByVariant[line.VariantID] += line.Quantity
	}

	variants, err := s.productRepo.FindVariantsByIDs(orgID, ids)
	if err != nil {
		return nil, apperr.Internal("failed to load catalog entries", err)
	}
	byID := make(map[uuid.UUID]model.ProductVariant, len(variants))
	for _, v := range variants {
		byID[v.ID] = v
	}

	resolved := make([]model.ProductVariant, 0, len(ids))
	for _, id := range ids {
		v, ok := byID[id]
		if !ok {
			return nil, apperr.NotFound(fmt.Sprintf("variant %s not found", id))
		}
		if !v.IsActive {
			return nil, apperr.Validation(fmt.Sprintf("variant %s is inactive", v.SKU))
		}
		resolved = append(resolved, v)
	}

	for i, id := range ids {
		qty := qtyByVariant[id]
		record, err := s.stockRepo.FindRecord(orgID, cmd.LocationID, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.Conflict(fmt.Sprintf("no stock for %s at this location", resolved[i].SKU))
			}
			return nil, apperr.Internal("failed to read stock record", err)
		}
		if record.AvailableQuantity < qty {
			return nil, apperr.Conflict(fmt.Sprintf(
				"insufficient stock for %s: requested %d, available %d",
				resolved[i].SKU, qty, record.AvailableQuantity))
		}
	}

	return resolved, nil
}

// saleTotals carries the computed money columns of one checkout.
type saleTotals struct {
	Subtotal    decimal.Decimal
	TaxAmount   decimal.Decimal
	Discount    decimal.Decimal
	FinalAmount decimal.Decimal
	LineTax     []decimal.Decimal
}

// computeTotals applies the money rules: decimal arithmetic throughout,
// rounding to 2dp at line-total and grand-total only.
func computeTotals(cmd *CheckoutCommand, variants []model.ProductVariant, org *model.Organization) (*saleTotals, error) {
	qtyByVariant := make(map[uuid.UUID]int, len(cmd.Lines))
	for _, line := range cmd.Lines {
		qtyByVariant[line.VariantID] += line.Quantity
	}

	taxRate := org.TaxRate.Div(decimal.NewFromInt(100))
	subtotal := decimal.Zero
	taxTotal := decimal.Zero
	lineTax := make([]decimal.Decimal, len(variants))

	for i, v := range variants {
		qty := decimal.NewFromInt(int64(qtyByVariant[v.ID]))
		lineTotal := v.UnitPrice.Mul(qty).Round(2)
		subtotal = subtotal.Add(lineTotal)
		lineTax[i] = lineTotal.Mul(taxRate).Round(2)
		taxTotal = taxTotal.Add(lineTax[i])
	}

	discount := cmd.DiscountAmount
	if discount.IsNegative() {
		return nil, apperr.Validation("discount cannot be negative")
	}
	if cmd.PointsToRedeem > 0 {
		redeemValue := org.PointRedeemValue.Mul(decimal.NewFromInt(int64(cmd.PointsToRedeem)))
		discount = discount.Add(redeemValue)
	}

	final := subtotal.Sub(discount).Add(taxTotal).Round(2)
	if final.IsNegative() {
		return nil, apperr.Validation("discount exceeds sale total")
	}

	return &saleTotals{
		Subtotal:    subtotal.Round(2),
		TaxAmount:   taxTotal.Round(2),
		Discount:    discount.Round(2),
		FinalAmount: final,
		LineTax:     lineTax,
	}, nil
}

// QuoteTotal prices a cart without committing anything.
func (s *posService) QuoteTotal(cmd *CheckoutCommand, orgID uuid.UUID) (decimal.Decimal, error) {
	variants, err := s.ValidateCart(cmd, orgID)
	if err != nil {
		return decimal.Zero, err
	}
	org, err := s.orgRepo.FindByID(orgID)
	if err != nil {
		return decimal.Zero, apperr.Internal("failed to load organization settings", err)
	}
	totals, err := computeTotals(cmd, variants, org)
	if err != nil {
		return decimal.Zero, err
	}
	return totals.FinalAmount, nil
}

// ProcessSale runs the transactional core: stock decrement, sale header and
// line items, loyalty adjustment, and outbox intents commit or fail together.
func (s *posService) ProcessSale(cmd *CheckoutCommand, actor Actor) (*model.Sale, error) {
	orgID := actor.OrganizationID

	variants, err := s.ValidateCart(cmd, orgID)
	if err != nil {
		return nil, err
	}

	org, err := s.orgRepo.FindByID(orgID)
	if err != nil {
		return nil, apperr.Internal("failed to load organization settings", err)
	}

	totals, err := computeTotals(cmd, variants, org)
	if err != nil {
		return nil, err
	}

	if cmd.PointsToRedeem > 0 && cmd.CustomerID == nil {
		return nil, apperr.Validation("points redemption requires a customer")
	}

	qtyByVariant := make(map[uuid.UUID]int, len(cmd.Lines))
	for _, line := range cmd.Lines {
		qtyByVariant[line.VariantID] += line.Quantity
	}

	var sale *model.Sale
	err = s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		saleNumber, err := s.nextSaleNumber(tx, orgID, now)
		if err != nil {
			return apperr.Internal("failed to generate sale number", err)
		}

		pointsEarned := 0
		if cmd.CustomerID != nil && org.PointsPerUnit.IsPositive() {
			pointsEarned = int(totals.FinalAmount.Div(org.PointsPerUnit).IntPart())
		}

		sale = &model.Sale{
			OrganizationID: orgID,
			LocationID:     cmd.LocationID,
			CustomerID:     cmd.CustomerID,
			MemberID:       actor.ID,
			SaleNumber:     saleNumber,
			Subtotal:       totals.Subtotal,
			TaxAmount:      totals.TaxAmount,
			DiscountAmount: totals.Discount,
			FinalAmount:    totals.FinalAmount,
			PaymentStatus:  model.PaymentCompleted,
			PaymentMethod:  cmd.PaymentMethod,
			PointsEarned:   pointsEarned,
			PointsRedeemed: cmd.PointsToRedeem,
		}
		sale.CreatedBy = actor.ID.String()
		sale.UpdatedBy = actor.ID.String()

		for i, v := range variants {
			sale.Items = append(sale.Items, model.SaleItem{
				VariantID: v.ID,
				Quantity:  qtyByVariant[v.ID],
				UnitPrice: v.UnitPrice,
				UnitCost:  v.UnitCost,
				TaxAmount: totals.LineTax[i],
			})
		}

		if err := s.saleRepo.Create(tx, sale); err != nil {
			return translateSaleCreateErr(err)
		}

		// Stock: conditional decrement per line; zero rows affected is the
		// insufficient-stock path and aborts everything.
		for _, v := range variants {
			qty := qtyByVariant[v.ID]
			rows, err := s.stockRepo.DecrementAvailable(tx, orgID, cmd.LocationID, v.ID, qty)
			if err != nil {
				return apperr.Internal("stock decrement failed", err)
			}
			if rows == 0 {
				return apperr.Conflict(fmt.Sprintf("insufficient stock for %s", v.SKU))
			}

			after := 0
			if record, err := s.stockRepo.FindRecordTx(tx, orgID, cmd.LocationID, v.ID); err == nil {
				after = record.CurrentQuantity
			}

			movement := &model.StockMovement{
				OrganizationID: orgID,
				VariantID:      v.ID,
				Type:           model.MovementSale,
				QuantityDelta:  -qty,
				FromLocationID: &cmd.LocationID,
				RelatedSaleID:  &sale.ID,
				QuantityAfter:  after,
				OccurredAt:     now,
			}
			movement.CreatedBy = actor.ID.String()
			if err := s.stockRepo.CreateMovement(tx, movement); err != nil {
				return apperr.Internal("failed to record stock movement", err)
			}
		}

		if cmd.CustomerID != nil {
			if err := s.applyLoyalty(tx, sale, cmd.PointsToRedeem, pointsEarned, actor); err != nil {
				return err
			}
		}

		return s.enqueueSaleEffects(tx, sale, actor, "sale_completed")
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(sale)
	return sale, nil
}

// applyLoyalty mutates the customer balance inside the sale transaction and
// writes the immutable audit rows.
func (s *posService) applyLoyalty(tx *gorm.DB, sale *model.Sale, redeem, earned int, actor Actor) error {
	orgID := sale.OrganizationID
	customerID := *sale.CustomerID

	if _, err := s.customerRepo.FindByIDTx(tx, orgID, customerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("customer not found")
		}
		return apperr.Internal("failed to load customer", err)
	}

	if redeem > 0 {
		rows, err := s.customerRepo.DeductPoints(tx, orgID, customerID, redeem)
		if err != nil {
			return apperr.Internal("loyalty redemption failed", err)
		}
		if rows == 0 {
			return apperr.Validation("insufficient loyalty points")
		}
		lt := &model.LoyaltyTransaction{
			OrganizationID: orgID,
			CustomerID:     customerID,
			PointsChange:   -redeem,
			Reason:         model.LoyaltyRedeemed,
			RelatedSaleID:  &sale.ID,
		}
		lt.CreatedBy = actor.ID.String()
		if err := s.customerRepo.CreateLoyaltyTransaction(tx, lt); err != nil {
			return apperr.Internal("failed to record loyalty redemption", err)
		}
	}

	if earned > 0 {
		if err := s.customerRepo.AddPoints(tx, orgID, customerID, earned); err != nil {
			return apperr.Internal("loyalty earn failed", err)
		}
		lt := &model.LoyaltyTransaction{
			OrganizationID: orgID,
			CustomerID:     customerID,
			PointsChange:   earned,
			Reason:         model.LoyaltyEarned,
			RelatedSaleID:  &sale.ID,
		}
		lt.CreatedBy = actor.ID.String()
		if err := s.customerRepo.CreateLoyaltyTransaction(tx, lt); err != nil {
			return apperr.Internal("failed to record loyalty earn", err)
		}
	}

	if err := s.customerRepo.AddSpending(tx, orgID, customerID, sale.FinalAmount); err != nil {
		return apperr.Internal("failed to update customer spending", err)
	}
	return nil
}

// VoidSale cancels a COMPLETED sale, returning stock and reversing loyalty.
func (s *posService) VoidSale(saleID uuid.UUID, actor Actor) (*model.Sale, error) {
	orgID := actor.OrganizationID
	var sale *model.Sale

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		sale, err = s.saleRepo.FindByIDTx(tx, orgID, saleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("sale not found")
			}
			return apperr.Internal("failed to load sale", err)
		}

		if !sale.PaymentStatus.CanTransitionTo(model.PaymentCancelled) {
			return apperr.Conflict(fmt.Sprintf("cannot void a %s sale", sale.PaymentStatus))
		}

		now := time.Now()
		for _, item := range sale.Items {
			if err := s.stockRepo.Increment(tx, orgID, sale.LocationID, item.VariantID, item.Quantity, actor.ID.String()); err != nil {
				return apperr.Internal("stock reversal failed", err)
			}
			movement := &model.StockMovement{
				OrganizationID: orgID,
				VariantID:      item.VariantID,
				Type:           model.MovementVoid,
				QuantityDelta:  item.Quantity,
				ToLocationID:   &sale.LocationID,
				RelatedSaleID:  &sale.ID,
				OccurredAt:     now,
				Note:           "void " + sale.SaleNumber,
			}
			movement.CreatedBy = actor.ID.String()
			if err := s.stockRepo.CreateMovement(tx, movement); err != nil {
				return apperr.Internal("failed to record void movement", err)
			}
		}

		if sale.CustomerID != nil {
			if err := s.reverseLoyalty(tx, sale, actor); err != nil {
				return err
			}
		}

		rows, err := s.saleRepo.UpdateStatus(tx, sale.ID, sale.PaymentStatus, model.PaymentCancelled, actor.ID.String())
		if err != nil {
			return apperr.Internal("failed to update sale status", err)
		}
		if rows == 0 {
			return apperr.Conflict("sale was voided by another request")
		}
		sale.PaymentStatus = model.PaymentCancelled

		return s.enqueueSaleEffects(tx, sale, actor, "sale_voided")
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(sale)
	return sale, nil
}

func (s *posService) reverseLoyalty(tx *gorm.DB, sale *model.Sale, actor Actor) error {
	orgID := sale.OrganizationID
	customerID := *sale.CustomerID

	if sale.PointsEarned > 0 {
		rows, err := s.customerRepo.DeductPoints(tx, orgID, customerID, sale.PointsEarned)
		if err != nil {
			return apperr.Internal("loyalty reversal failed", err)
		}
		if rows == 0 {
			return apperr.Conflict("customer balance too low to reverse earned points")
		}
		lt := &model.LoyaltyTransaction{
			OrganizationID: orgID,
			CustomerID:     customerID,
			PointsChange:   -sale.PointsEarned,
			Reason:         model.LoyaltyVoidReversal,
			RelatedSaleID:  &sale.ID,
		}
		lt.CreatedBy = actor.ID.String()
		if err := s.customerRepo.CreateLoyaltyTransaction(tx, lt); err != nil {
			return apperr.Internal("failed to record loyalty reversal", err)
		}
	}

	if sale.PointsRedeemed > 0 {
		if err := s.customerRepo.AddPoints(tx, orgID, customerID, sale.PointsRedeemed); err != nil {
			return apperr.Internal("loyalty refund failed", err)
		}
		lt := &model.LoyaltyTransaction{
			OrganizationID: orgID,
			CustomerID:     customerID,
			PointsChange:   sale.PointsRedeemed,
			Reason:         model.LoyaltyVoidReversal,
			RelatedSaleID:  &sale.ID,
		}
		lt.CreatedBy = actor.ID.String()
		if err := s.customerRepo.CreateLoyaltyTransaction(tx, lt); err != nil {
			return apperr.Internal("failed to record loyalty refund", err)
		}
	}

	if err := s.customerRepo.AddSpending(tx, orgID, customerID, sale.FinalAmount.Neg()); err != nil {
		return apperr.Internal("failed to reverse customer spending", err)
	}
	return nil
}

// RestoreSale undoes a void, re-applying the original stock decrement and
// loyalty effects. Fails if the stock has since been sold.
func (s *posService) RestoreSale(saleID uuid.UUID, actor Actor) (*model.Sale, error) {
	orgID := actor.OrganizationID
	var sale *model.Sale

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		sale, err = s.saleRepo.FindByIDTx(tx, orgID, saleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("sale not found")
			}
			return apperr.Internal("failed to load sale", err)
		}

		if sale.PaymentStatus != model.PaymentCancelled {
			return apperr.Conflict(fmt.Sprintf("cannot restore a %s sale", sale.PaymentStatus))
		}

		now := time.Now()
		for _, item := range sale.Items {
			rows, err := s.stockRepo.DecrementAvailable(tx, orgID, sale.LocationID, item.VariantID, item.Quantity)
			if err != nil {
				return apperr.Internal("stock decrement failed", err)
			}
			if rows == 0 {
				return apperr.Conflict("insufficient stock to restore sale")
			}
			movement := &model.StockMovement{
				OrganizationID: orgID,
				VariantID:      item.VariantID,
				Type:           model.MovementSale,
				QuantityDelta:  -item.Quantity,
				FromLocationID: &sale.LocationID,
				RelatedSaleID:  &sale.ID,
				OccurredAt:     now,
				Note:           "restore " + sale.SaleNumber,
			}
			movement.CreatedBy = actor.ID.String()
			if err := s.stockRepo.CreateMovement(tx, movement); err != nil {
				return apperr.Internal("failed to record restore movement", err)
			}
		}

		if sale.CustomerID != nil {
			if err := s.reapplyLoyalty(tx, sale, actor); err != nil {
				return err
			}
		}

		rows, err := s.saleRepo.UpdateStatus(tx, sale.ID, model.PaymentCancelled, model.PaymentCompleted, actor.ID.String())
		if err != nil {
			return apperr.Internal("failed to update sale status", err)
		}
		if rows == 0 {
			return apperr.Conflict("sale was restored by another request")
		}
		sale.PaymentStatus = model.PaymentCompleted

		return s.enqueueSaleEffects(tx, sale, actor, "sale_restored")
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(sale)
	return sale, nil
}

func (s *posService) reapplyLoyalty(tx *gorm.DB, sale *model.Sale, actor Actor) error {
	orgID := sale.OrganizationID
	customerID := *sale.CustomerID

	if sale.PointsRedeemed > 0 {
		rows, err := s.customerRepo.DeductPoints(tx, orgID, customerID, sale.PointsRedeemed)
		if err != nil {
			return apperr.Internal("loyalty re-redemption failed", err)
		}
		if rows == 0 {
			return apperr.Conflict("customer balance too low to restore redemption")
		}
		lt := &model.LoyaltyTransaction{
			OrganizationID: orgID,
			CustomerID:     customerID,
			PointsChange:   -sale.PointsRedeemed,
			Reason:         model.LoyaltyRestore,
			RelatedSaleID:  &sale.ID,
		}
		lt.CreatedBy = actor.ID.String()
		if err := s.customerRepo.CreateLoyaltyTransaction(tx, lt); err != nil {
			return apperr.Internal("failed to record loyalty restore", err)
		}
	}

	if sale.PointsEarned > 0 {
		if err := s.customerRepo.AddPoints(tx, orgID, customerID, sale.PointsEarned); err != nil {
			return apperr.Internal("loyalty re-earn failed", err)
		}
		lt := &model.LoyaltyTransaction{
			OrganizationID: orgID,
			CustomerID:     customerID,
			PointsChange:   sale.PointsEarned,
			Reason:         model.LoyaltyRestore,
			RelatedSaleID:  &sale.ID,
		}
		lt.CreatedBy = actor.ID.String()
		if err := s.customerRepo.CreateLoyaltyTransaction(tx, lt); err != nil {
			return apperr.Internal("failed to record loyalty restore", err)
		}
	}

	if err := s.customerRepo.AddSpending(tx, orgID, customerID, sale.FinalAmount); err != nil {
		return apperr.Internal("failed to restore customer spending", err)
	}
	return nil
}

// nextSaleNumber generates the human-readable S-YYYYMMDD-NNNN number. The
// per-day sequence comes from a count inside the transaction; the unique index
// on (organization_id, sale_number) backs it.
func (s *posService) nextSaleNumber(tx *gorm.DB, orgID uuid.UUID, now time.Time) (string, error) {
	count, err := s.saleRepo.CountForDay(tx, orgID, now)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("S-%s-%04d", now.Format("20060102"), count+1), nil
}

func translateSaleCreateErr(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict("sale number collision, retry the checkout")
	}
	return apperr.Internal("failed to persist sale", err)
}

// enqueueSaleEffects writes the post-commit side-effect intents in the same
// transaction as the sale mutation they describe.
func (s *posService) enqueueSaleEffects(tx *gorm.DB, sale *model.Sale, actor Actor, event string) error {
	receiptPayload, _ := json.Marshal(map[string]string{"sale_id": sale.ID.String()})
	cachePayload, _ := json.Marshal(map[string][]string{
		"keys": posListingPrefixKeys(sale.OrganizationID, sale.LocationID),
	})
	realtimePayload, _ := json.Marshal(map[string]interface{}{
		"channel": "org:" + sale.OrganizationID.String(),
		"event": map[string]interface{}{
			"type":           event,
			"sale_id":        sale.ID,
			"sale_number":    sale.SaleNumber,
			"payment_status": sale.PaymentStatus,
			"final_amount":   sale.FinalAmount,
		},
	})
	auditPayload, _ := json.Marshal(map[string]string{
		"member_id":   actor.ID.String(),
		"action":      event,
		"entity_type": "sale",
		"entity_id":   sale.ID.String(),
		"detail":      fmt.Sprintf("%s %s by %s", event, sale.SaleNumber, actor.Name),
	})

	now := time.Now()
	entries := []*model.OutboxEntry{
		{OrganizationID: sale.OrganizationID, Kind: model.OutboxReceipt, Payload: receiptPayload, NextAttemptAt: now},
		{OrganizationID: sale.OrganizationID, Kind: model.OutboxCacheInvalidate, Payload: cachePayload, NextAttemptAt: now},
		{OrganizationID: sale.OrganizationID, Kind: model.OutboxRealtimeEvent, Payload: realtimePayload, NextAttemptAt: now},
		{OrganizationID: sale.OrganizationID, Kind: model.OutboxAuditLog, Payload: auditPayload, NextAttemptAt: now},
	}
	if err := s.outboxRepo.Create(tx, entries...); err != nil {
		return apperr.Internal("failed to enqueue side effects", err)
	}
	return nil
}

// afterCommit is best-effort: the committed sale must never look failed to the
// client because a side effect did.
func (s *posService) afterCommit(sale *model.Sale) {
	if err := s.cache.Invalidate(context.Background(),
		posListingPrefixKeys(sale.OrganizationID, sale.LocationID)...); err != nil {
		s.log.Warn("pos listing cache invalidation failed",
			zap.String("sale", sale.SaleNumber), zap.Error(err))
	}
	if s.dispatcher != nil {
		s.dispatcher.Kick()
	}
}

func (s *posService) GetSale(orgID, saleID uuid.UUID) (*model.Sale, error) {
	sale, err := s.saleRepo.FindByID(orgID, saleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("sale not found")
		}
		return nil, apperr.Internal("failed to load sale", err)
	}
	return sale, nil
}

func (s *posService) ListSales(orgID uuid.UUID, limit int) ([]model.Sale, error) {
	return s.saleRepo.FindAll(orgID, limit)
}

// ListPOSProducts serves the register screen through the cache; a miss rebuilds
// the listing from the catalog and stock tables.
func (s *posService) ListPOSProducts(ctx context.Context, orgID, locationID uuid.UUID) ([]POSListing, error) {
	key := PosListingKey(orgID, locationID)

	if raw, err := s.cache.Get(ctx, key); err == nil {
		var listings []POSListing
		if err := json.Unmarshal(raw, &listings); err == nil {
			return listings, nil
		}
	}

	variants, err := s.productRepo.FindActiveVariants(orgID)
	if err != nil {
		return nil, apperr.Internal("failed to load catalog", err)
	}
	records, err := s.stockRepo.FindByLocation(orgID, &locationID)
	if err != nil {
		return nil, apperr.Internal("failed to load stock", err)
	}
	availability := make(map[uuid.UUID]int, len(records))
	for _, record := range records {
		availability[record.VariantID] = record.AvailableQuantity
	}

	listings := make([]POSListing, 0, len(variants))
	for _, v := range variants {
		productName := ""
		if v.Product != nil {
			productName = v.Product.Name
		}
		listings = append(listings, POSListing{
			VariantID:   v.ID,
			SKU:         v.SKU,
			Name:        v.Name,
			ProductName: productName,
			UnitPrice:   v.UnitPrice,
			Available:   availability[v.ID],
		})
	}

	if raw, err := json.Marshal(listings); err == nil {
		if err := s.cache.Set(ctx, key, raw, posListingTTL); err != nil {
			s.log.Warn("pos listing cache write failed", zap.Error(err))
		}
	}
	return listings, nil
}
