package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"dealio-backend/internal/model"
	"dealio-backend/internal/ws"
	"dealio-backend/pkg/mpesa"

	"go.uber.org/zap"
)

// fakeGateway records pushes and hands back deterministic correlation IDs.
type fakeGateway struct {
	pushes []*mpesa.STKPushRequest
	seq    int
	err    error
}

func (g *fakeGateway) STKPush(ctx context.Context, req *mpesa.STKPushRequest) (*mpesa.STKPushResponse, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.pushes = append(g.pushes, req)
	g.seq++
	return &mpesa.STKPushResponse{
		MerchantRequestID: fmt.Sprintf("merchant-%d", g.seq),
		CheckoutRequestID: fmt.Sprintf("ws_CO_%d", g.seq),
		ResponseCode:      "0",
	}, nil
}

func newMpesaService(f *fixture, gateway mpesa.Client) MpesaService {
	return NewMpesaService(f.mpesaRepo, f.pos, gateway, ws.NewHub(zap.NewNop()), zap.NewNop())
}

func stkCallback(t *testing.T, checkoutRequestID string, resultCode int, receipt string) *STKCallback {
	t.Helper()
	raw := fmt.Sprintf(`{"Body":{"stkCallback":{
		"MerchantRequestID":"merchant-1",
		"CheckoutRequestID":%q,
		"ResultCode":%d,
		"ResultDesc":"desc",
		"CallbackMetadata":{"Item":[
			{"Name":"Amount","Value":22},
			{"Name":"MpesaReceiptNumber","Value":%q}
		]}}}}`, checkoutRequestID, resultCode, receipt)

	var cb STKCallback
	if err := json.Unmarshal([]byte(raw), &cb); err != nil {
		t.Fatalf("build callback: %v", err)
	}
	return &cb
}

func TestInitiatePaymentDefersStock(t *testing.T) {
	f := newFixture(t)
	gateway := &fakeGateway{}
	svc := newMpesaService(f, gateway)

	record, err := svc.InitiatePayment(context.Background(), &InitiatePaymentRequest{
		Checkout:    *cashCheckout(f.location.ID, f.variant.ID, 2),
		PhoneNumber: "254700000001",
	}, f.actor)
	if err != nil {
		t.Fatalf("InitiatePayment: %v", err)
	}

	if record.Status != model.MpesaPending {
		t.Fatalf("status = %s, want PENDING", record.Status)
	}
	if record.CheckoutRequestID != "ws_CO_1" {
		t.Fatalf("checkout request id = %s", record.CheckoutRequestID)
	}
	mustEqualDecimal(t, "22.00", record.Amount, "stored amount")
	if record.ChannelKey == "" {
		t.Fatal("channel key not assigned")
	}
	if len(gateway.pushes) != 1 || gateway.pushes[0].Amount != 22 {
		t.Fatalf("pushes = %+v, want one whole-unit push of 22", gateway.pushes)
	}

	// Initiation must not move stock; only the confirmed callback does.
	if got := f.availableQty(t, f.variant.ID); got != 5 {
		t.Fatalf("available = %d, want untouched 5", got)
	}
}

func TestCallbackSuccessCompletesSale(t *testing.T) {
	f := newFixture(t)
	svc := newMpesaService(f, &fakeGateway{})

	record, err := svc.InitiatePayment(context.Background(), &InitiatePaymentRequest{
		Checkout:    *cashCheckout(f.location.ID, f.variant.ID, 2),
		PhoneNumber: "254700000001",
	}, f.actor)
	if err != nil {
		t.Fatalf("InitiatePayment: %v", err)
	}

	if err := svc.HandleCallback(stkCallback(t, record.CheckoutRequestID, 0, "SFE0TEST1")); err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}

	var reloaded model.MpesaPaymentRequest
	if err := f.db.First(&reloaded, "id = ?", record.ID).Error; err != nil {
		t.Fatalf("reload record: %v", err)
	}
	if reloaded.Status != model.MpesaSuccess {
		t.Fatalf("status = %s, want SUCCESS", reloaded.Status)
	}
	if reloaded.SaleID == nil {
		t.Fatal("sale ID not linked")
	}
	if reloaded.MpesaReceipt != "SFE0TEST1" {
		t.Fatalf("receipt = %s, want SFE0TEST1", reloaded.MpesaReceipt)
	}

	sale, err := f.pos.GetSale(f.org.ID, *reloaded.SaleID)
	if err != nil {
		t.Fatalf("GetSale: %v", err)
	}
	if sale.PaymentMethod != model.PayMpesa || sale.PaymentStatus != model.PaymentCompleted {
		t.Fatalf("sale = %s/%s, want MPESA/COMPLETED", sale.PaymentMethod, sale.PaymentStatus)
	}
	if got := f.availableQty(t, f.variant.ID); got != 3 {
		t.Fatalf("available = %d, want 3", got)
	}
}

func TestDuplicateCallbackIsNoOp(t *testing.T) {
	f := newFixture(t)
	svc := newMpesaService(f, &fakeGateway{})

	record, err := svc.InitiatePayment(context.Background(), &InitiatePaymentRequest{
		Checkout:    *cashCheckout(f.location.ID, f.variant.ID, 1),
		PhoneNumber: "254700000001",
	}, f.actor)
	if err != nil {
		t.Fatalf("InitiatePayment: %v", err)
	}

	cb := stkCallback(t, record.CheckoutRequestID, 0, "SFE0TEST2")
	if err := svc.HandleCallback(cb); err != nil {
		t.Fatalf("first callback: %v", err)
	}
	if err := svc.HandleCallback(cb); err != nil {
		t.Fatalf("duplicate callback: %v", err)
	}

	var saleCount int64
	f.db.Model(&model.Sale{}).Count(&saleCount)
	if saleCount != 1 {
		t.Fatalf("sales = %d after duplicate delivery, want 1", saleCount)
	}
	if got := f.availableQty(t, f.variant.ID); got != 4 {
		t.Fatalf("available = %d, want single decrement to 4", got)
	}
}

func TestCallbackFailureLeavesStockAlone(t *testing.T) {
	f := newFixture(t)
	svc := newMpesaService(f, &fakeGateway{})

	record, err := svc.InitiatePayment(context.Background(), &InitiatePaymentRequest{
		Checkout:    *cashCheckout(f.location.ID, f.variant.ID, 1),
		PhoneNumber: "254700000001",
	}, f.actor)
	if err != nil {
		t.Fatalf("InitiatePayment: %v", err)
	}

	// 1032: request cancelled by user
	if err := svc.HandleCallback(stkCallback(t, record.CheckoutRequestID, 1032, "")); err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}

	var reloaded model.MpesaPaymentRequest
	if err := f.db.First(&reloaded, "id = ?", record.ID).Error; err != nil {
		t.Fatalf("reload record: %v", err)
	}
	if reloaded.Status != model.MpesaFailed {
		t.Fatalf("status = %s, want FAILED", reloaded.Status)
	}
	var saleCount int64
	f.db.Model(&model.Sale{}).Count(&saleCount)
	if saleCount != 0 {
		t.Fatalf("sales = %d, want 0", saleCount)
	}
	if got := f.availableQty(t, f.variant.ID); got != 5 {
		t.Fatalf("available = %d, want untouched 5", got)
	}
}

func TestCallbackForUnknownRequestAcked(t *testing.T) {
	f := newFixture(t)
	svc := newMpesaService(f, &fakeGateway{})

	if err := svc.HandleCallback(stkCallback(t, "ws_CO_unknown", 0, "X")); err != nil {
		t.Fatalf("unknown callback should ack quietly, got %v", err)
	}
}

func TestCallbackPaidButOutOfStockParksFailed(t *testing.T) {
	f := newFixture(t)
	svc := newMpesaService(f, &fakeGateway{})

	record, err := svc.InitiatePayment(context.Background(), &InitiatePaymentRequest{
		Checkout:    *cashCheckout(f.location.ID, f.variant.ID, 2),
		PhoneNumber: "254700000001",
	}, f.actor)
	if err != nil {
		t.Fatalf("InitiatePayment: %v", err)
	}

	// The stock sells out while the customer stares at the PIN prompt.
	f.setStockLevel(t, f.variant.ID, 1)

	if err := svc.HandleCallback(stkCallback(t, record.CheckoutRequestID, 0, "SFE0TEST3")); err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}

	var reloaded model.MpesaPaymentRequest
	if err := f.db.First(&reloaded, "id = ?", record.ID).Error; err != nil {
		t.Fatalf("reload record: %v", err)
	}
	if reloaded.Status != model.MpesaFailed {
		t.Fatalf("status = %s, want FAILED for reconciliation", reloaded.Status)
	}
	if reloaded.SaleID != nil {
		t.Fatal("no sale should be linked")
	}
	if got := f.availableQty(t, f.variant.ID); got != 1 {
		t.Fatalf("available = %d, want untouched 1", got)
	}
}
