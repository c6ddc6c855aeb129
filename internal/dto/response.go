package dto

import (
	"time"

	"github.com/Eursukkul/car-rental-microservice/internal/models"
)

type ReservationResponse struct {
	ID              string                   `json:"id"`
	VehicleID       string                   `json:"vehicle_id"`
	RequesterID     string                   `json:"requester_id"`
	StartDate       string                   `json:"start_date"`
	EndDate         string                   `json:"end_date"`
	TotalPriceCents int64                    `json:"total_price_cents"`
	Status          models.ReservationStatus `json:"status"`
	PaymentStatus   models.PaymentStatus     `json:"payment_status"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

type SettlementResponse struct {
	ID            string                  `json:"id"`
	ReservationID string                  `json:"reservation_id"`
	AmountCents   int64                   `json:"amount_cents"`
	Method        models.PaymentMethod    `json:"method"`
	Status        models.SettlementStatus `json:"status"`
	Metadata      map[string]any          `json:"metadata,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
}

// ReservationEvent is the message body published for reservation changes.
type ReservationEvent struct {
	ActorID     string              `json:"actor_id"`
	Reservation ReservationResponse `json:"reservation"`
	OccurredAt  time.Time           `json:"occurred_at"`
}

type SettlementEvent struct {
	ActorID       string             `json:"actor_id"`
	ReservationID string             `json:"reservation_id"`
	Entry         SettlementResponse `json:"entry"`
	OccurredAt    time.Time          `json:"occurred_at"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func ToReservationResponse(r *models.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:              r.ID,
		VehicleID:       r.VehicleID,
		RequesterID:     r.RequesterID,
		StartDate:       r.StartDate.Format(models.DateLayout),
		EndDate:         r.EndDate.Format(models.DateLayout),
		TotalPriceCents: r.TotalPriceCents,
		Status:          r.Status,
		PaymentStatus:   r.PaymentStatus,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func ToReservationResponses(rs []models.Reservation) []ReservationResponse {
	resp := make([]ReservationResponse, len(rs))
	for i := range rs {
		resp[i] = ToReservationResponse(&rs[i])
	}
	return resp
}

func ToSettlementResponse(e *models.SettlementEntry) SettlementResponse {
	return SettlementResponse{
		ID:            e.ID,
		ReservationID: e.ReservationID,
		AmountCents:   e.AmountCents,
		Method:        e.Method,
		Status:        e.Status,
		Metadata:      e.Metadata,
		CreatedAt:     e.CreatedAt,
	}
}

func ToSettlementResponses(es []models.SettlementEntry) []SettlementResponse {
	resp := make([]SettlementResponse, len(es))
	for i := range es {
		resp[i] = ToSettlementResponse(&es[i])
	}
	return resp
}
