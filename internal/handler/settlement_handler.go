package handler

import (
	"net/http"
	"time"

	"github.com/Eursukkul/car-rental-microservice/internal/dto"
	"github.com/Eursukkul/car-rental-microservice/internal/middleware"
	"github.com/Eursukkul/car-rental-microservice/internal/models"
	"github.com/Eursukkul/car-rental-microservice/internal/service"
	"github.com/labstack/echo/v4"
)

var validMethods = map[models.PaymentMethod]bool{
	models.MethodCard:         true,
	models.MethodBankTransfer: true,
	models.MethodCash:         true,
	models.MethodWallet:       true,
}

type SettlementHandler struct {
	svc       service.SettlementService
	publisher EventPublisher
}

func NewSettlementHandler(svc service.SettlementService, publisher EventPublisher) *SettlementHandler {
	return &SettlementHandler{svc: svc, publisher: publisher}
}

func (h *SettlementHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/reservations/:id/payments", h.RecordPayment)
	g.POST("/reservations/:id/refunds", h.RecordRefund)
	g.GET("/reservations/:id/settlements", h.ListSettlements)
}

func (h *SettlementHandler) RecordPayment(c echo.Context) error {
	var req dto.PaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	method := models.PaymentMethod(req.Method)
	if !validMethods[method] {
		return echo.NewHTTPError(http.StatusBadRequest, "unsupported payment method")
	}

	reservationID := c.Param("id")
	entry, err := h.svc.RecordPayment(c.Request().Context(), reservationID, req.AmountCents, method, req.Metadata)
	if err != nil {
		return toHTTPError(err)
	}

	resp := dto.ToSettlementResponse(entry)
	h.emit(EventPaymentRecorded, middleware.ActorID(c), reservationID, resp)
	return c.JSON(http.StatusCreated, resp)
}

func (h *SettlementHandler) RecordRefund(c echo.Context) error {
	var req dto.RefundRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.OriginalEntryID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "original_entry_id is required")
	}

	actorID := middleware.ActorID(c)
	reservationID := c.Param("id")
	entry, err := h.svc.RecordRefund(c.Request().Context(), reservationID, req.OriginalEntryID, req.AmountCents, req.Reason, actorID)
	if err != nil {
		return toHTTPError(err)
	}

	resp := dto.ToSettlementResponse(entry)
	h.emit(EventRefundRecorded, actorID, reservationID, resp)
	return c.JSON(http.StatusCreated, resp)
}

func (h *SettlementHandler) ListSettlements(c echo.Context) error {
	entries, err := h.svc.ListSettlements(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.ToSettlementResponses(entries))
}

func (h *SettlementHandler) emit(routingKey, actorID, reservationID string, resp dto.SettlementResponse) {
	publish(h.publisher, routingKey, dto.SettlementEvent{
		ActorID:       actorID,
		ReservationID: reservationID,
		Entry:         resp,
		OccurredAt:    time.Now().UTC(),
	})
}
