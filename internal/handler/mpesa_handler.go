package handler

import (
	"dealio-backend/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type MpesaHandler struct {
	service service.MpesaService
	log     *zap.Logger
}

func NewMpesaHandler(s service.MpesaService, log *zap.Logger) *MpesaHandler {
	return &MpesaHandler{service: s, log: log}
}

func (h *MpesaHandler) InitiatePayment(c *fiber.Ctx) error {
	var req service.InitiatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	payment, err := h.service.InitiatePayment(c.Context(), &req, actorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "STK push sent", "data": payment})
}

// Callback receives the gateway webhook. The gateway retries on any non-ack
// response, so this always acknowledges; processing failures are logged and
// resolved out of band.
func (h *MpesaHandler) Callback(c *fiber.Ctx) error {
	var cb service.STKCallback
	if err := c.BodyParser(&cb); err != nil {
		h.log.Warn("unparseable payment callback", zap.Error(err))
		return c.JSON(fiber.Map{"ResultCode": 0, "ResultDesc": "Accepted"})
	}

	if err := h.service.HandleCallback(&cb); err != nil {
		h.log.Error("payment callback processing failed",
			zap.String("checkout_request_id", cb.Body.StkCallback.CheckoutRequestID),
			zap.Error(err))
	}
	return c.JSON(fiber.Map{"ResultCode": 0, "ResultDesc": "Accepted"})
}
