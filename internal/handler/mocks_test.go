package handler

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/Eursukkul/car-rental-microservice/internal/middleware"
	"github.com/Eursukkul/car-rental-microservice/internal/models"
	"github.com/Eursukkul/car-rental-microservice/internal/service"
	"github.com/labstack/echo/v4"
)

// --- Mock ReservationService ---

type mockReservationService struct {
	createFn      func(ctx context.Context, vehicleID, requesterID string, start, end time.Time, price int64) (*models.Reservation, error)
	updateFn      func(ctx context.Context, id string, change service.DateChange, actorID string) (*models.Reservation, error)
	cancelFn      func(ctx context.Context, id, actorID string) (*models.Reservation, error)
	changeFn      func(ctx context.Context, id string, target models.ReservationStatus, actorID string) (*models.Reservation, error)
	getFn         func(ctx context.Context, id string) (*models.Reservation, error)
	listVehicleFn func(ctx context.Context, vehicleID string, status *models.ReservationStatus) ([]models.Reservation, error)
	listMineFn    func(ctx context.Context, requesterID string) ([]models.Reservation, error)
}

func (m *mockReservationService) CreateReservation(ctx context.Context, vehicleID, requesterID string, start, end time.Time, price int64) (*models.Reservation, error) {
	return m.createFn(ctx, vehicleID, requesterID, start, end, price)
}
func (m *mockReservationService) UpdateReservationDates(ctx context.Context, id string, change service.DateChange, actorID string) (*models.Reservation, error) {
	return m.updateFn(ctx, id, change, actorID)
}
func (m *mockReservationService) CancelReservation(ctx context.Context, id, actorID string) (*models.Reservation, error) {
	return m.cancelFn(ctx, id, actorID)
}
func (m *mockReservationService) ChangeStatus(ctx context.Context, id string, target models.ReservationStatus, actorID string) (*models.Reservation, error) {
	return m.changeFn(ctx, id, target, actorID)
}
func (m *mockReservationService) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	return m.getFn(ctx, id)
}
func (m *mockReservationService) ListByVehicle(ctx context.Context, vehicleID string, status *models.ReservationStatus) ([]models.Reservation, error) {
	return m.listVehicleFn(ctx, vehicleID, status)
}
func (m *mockReservationService) ListByRequester(ctx context.Context, requesterID string) ([]models.Reservation, error) {
	return m.listMineFn(ctx, requesterID)
}

// --- Mock SettlementService ---

type mockSettlementService struct {
	paymentFn func(ctx context.Context, reservationID string, amount int64, method models.PaymentMethod, metadata map[string]any) (*models.SettlementEntry, error)
	refundFn  func(ctx context.Context, reservationID, entryID string, amount int64, reason, actorID string) (*models.SettlementEntry, error)
	listFn    func(ctx context.Context, reservationID string) ([]models.SettlementEntry, error)
}

func (m *mockSettlementService) RecordPayment(ctx context.Context, reservationID string, amount int64, method models.PaymentMethod, metadata map[string]any) (*models.SettlementEntry, error) {
	return m.paymentFn(ctx, reservationID, amount, method, metadata)
}
func (m *mockSettlementService) RecordRefund(ctx context.Context, reservationID, entryID string, amount int64, reason, actorID string) (*models.SettlementEntry, error) {
	return m.refundFn(ctx, reservationID, entryID, amount, reason, actorID)
}
func (m *mockSettlementService) ListSettlements(ctx context.Context, reservationID string) ([]models.SettlementEntry, error) {
	return m.listFn(ctx, reservationID)
}

// --- Mock EventPublisher ---

type published struct {
	routingKey string
	payload    any
}

type mockPublisher struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (p *mockPublisher) Publish(routingKey string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, published{routingKey: routingKey, payload: payload})
	return nil
}

var errBrokerDown = errors.New("broker down")

// --- Helpers ---

func newContext(method, target string, body io.Reader, actorID string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if actorID != "" {
		middleware.SetActorID(c, actorID)
	}
	return c, rec
}

func sampleReservation() *models.Reservation {
	return &models.Reservation{
		ID:              "res-1",
		VehicleID:       "car-1",
		RequesterID:     "user-1",
		StartDate:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC),
		TotalPriceCents: 300,
		Status:          models.StatusPending,
		PaymentStatus:   models.PaymentUnpaid,
		CreatedAt:       time.Now(),
	}
}
