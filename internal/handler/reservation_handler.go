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

type ReservationHandler struct {
	svc       service.ReservationService
	publisher EventPublisher
}

func NewReservationHandler(svc service.ReservationService, publisher EventPublisher) *ReservationHandler {
	return &ReservationHandler{svc: svc, publisher: publisher}
}

func (h *ReservationHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/reservations", h.CreateReservation)
	g.GET("/reservations/:id", h.GetReservation)
	g.PATCH("/reservations/:id/dates", h.UpdateDates)
	g.POST("/reservations/:id/cancel", h.CancelReservation)
	g.PATCH("/reservations/:id/status", h.ChangeStatus)
	g.GET("/vehicles/:id/reservations", h.ListByVehicle)
	g.GET("/users/me/reservations", h.ListMine)
}

func (h *ReservationHandler) CreateReservation(c echo.Context) error {
	var req dto.CreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.VehicleID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "vehicle_id is required")
	}
	start, err := models.ParseDate(req.StartDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "start_date must be YYYY-MM-DD")
	}
	end, err := models.ParseDate(req.EndDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "end_date must be YYYY-MM-DD")
	}

	actorID := middleware.ActorID(c)
	reservation, err := h.svc.CreateReservation(c.Request().Context(), req.VehicleID, actorID, start, end, req.TotalPriceCents)
	if err != nil {
		return toHTTPError(err)
	}

	resp := dto.ToReservationResponse(reservation)
	h.emit(EventReservationCreated, actorID, resp)
	return c.JSON(http.StatusCreated, resp)
}

func (h *ReservationHandler) GetReservation(c echo.Context) error {
	reservation, err := h.svc.GetReservation(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.ToReservationResponse(reservation))
}

func (h *ReservationHandler) UpdateDates(c echo.Context) error {
	var req dto.UpdateDatesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.StartDate == nil && req.EndDate == nil && req.TotalPriceCents == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "nothing to update")
	}

	var change service.DateChange
	if req.StartDate != nil {
		start, err := models.ParseDate(*req.StartDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		}
		change.StartDate = &start
	}
	if req.EndDate != nil {
		end, err := models.ParseDate(*req.EndDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "end_date must be YYYY-MM-DD")
		}
		change.EndDate = &end
	}
	change.TotalPriceCents = req.TotalPriceCents

	actorID := middleware.ActorID(c)
	reservation, err := h.svc.UpdateReservationDates(c.Request().Context(), c.Param("id"), change, actorID)
	if err != nil {
		return toHTTPError(err)
	}

	resp := dto.ToReservationResponse(reservation)
	h.emit(EventReservationDatesUpdated, actorID, resp)
	return c.JSON(http.StatusOK, resp)
}

func (h *ReservationHandler) CancelReservation(c echo.Context) error {
	actorID := middleware.ActorID(c)
	reservation, err := h.svc.CancelReservation(c.Request().Context(), c.Param("id"), actorID)
	if err != nil {
		return toHTTPError(err)
	}

	resp := dto.ToReservationResponse(reservation)
	h.emit(EventReservationCancelled, actorID, resp)
	return c.JSON(http.StatusOK, resp)
}

func (h *ReservationHandler) ChangeStatus(c echo.Context) error {
	var req dto.ChangeStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Status == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "status is required")
	}

	actorID := middleware.ActorID(c)
	reservation, err := h.svc.ChangeStatus(c.Request().Context(), c.Param("id"), models.ReservationStatus(req.Status), actorID)
	if err != nil {
		return toHTTPError(err)
	}

	resp := dto.ToReservationResponse(reservation)
	h.emit(EventReservationStatusChanged, actorID, resp)
	return c.JSON(http.StatusOK, resp)
}

func (h *ReservationHandler) ListByVehicle(c echo.Context) error {
	var status *models.ReservationStatus
	if s := c.QueryParam("status"); s != "" {
		rs := models.ReservationStatus(s)
		if !rs.IsValid() {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown status "+s)
		}
		status = &rs
	}

	reservations, err := h.svc.ListByVehicle(c.Request().Context(), c.Param("id"), status)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.ToReservationResponses(reservations))
}

func (h *ReservationHandler) ListMine(c echo.Context) error {
	reservations, err := h.svc.ListByRequester(c.Request().Context(), middleware.ActorID(c))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.ToReservationResponses(reservations))
}

func (h *ReservationHandler) emit(routingKey, actorID string, resp dto.ReservationResponse) {
	publish(h.publisher, routingKey, dto.ReservationEvent{
		ActorID:     actorID,
		Reservation: resp,
		OccurredAt:  time.Now().UTC(),
	})
}
