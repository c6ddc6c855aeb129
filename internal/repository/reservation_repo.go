package repository

import (
	"context"

	"github.com/Eursukkul/car-rental-microservice/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReservationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, reservation *models.Reservation) error
	Save(ctx context.Context, tx *gorm.DB, reservation *models.Reservation) error
	FindByID(ctx context.Context, id string) (*models.Reservation, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Reservation, error)
	FindActiveByVehicle(ctx context.Context, tx *gorm.DB, vehicleID string, excludeID string) ([]models.Reservation, error)
	FindByVehicle(ctx context.Context, vehicleID string, status *models.ReservationStatus) ([]models.Reservation, error)
	FindByRequester(ctx context.Context, requesterID string) ([]models.Reservation, error)
	AppendStatusChange(ctx context.Context, tx *gorm.DB, change *models.StatusChange) error
}

type reservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) ReservationRepository {
	return &reservationRepository{db: db}
}

func (r *reservationRepository) Create(ctx context.Context, tx *gorm.DB, reservation *models.Reservation) error {
	return tx.WithContext(ctx).Create(reservation).Error
}

func (r *reservationRepository) Save(ctx context.Context, tx *gorm.DB, reservation *models.Reservation) error {
	return tx.WithContext(ctx).Save(reservation).Error
}

func (r *reservationRepository) FindByID(ctx context.Context, id string) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&reservation).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

// FindByIDForUpdate acquires a row-level lock on the reservation within the given transaction.
func (r *reservationRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&reservation).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

// FindActiveByVehicle returns every non-cancelled reservation of the vehicle,
// skipping excludeID when it is not empty.
func (r *reservationRepository) FindActiveByVehicle(ctx context.Context, tx *gorm.DB, vehicleID string, excludeID string) ([]models.Reservation, error) {
	var reservations []models.Reservation
	q := tx.WithContext(ctx).
		Where("vehicle_id = ? AND status <> ?", vehicleID, models.StatusCancelled)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Order("start_date ASC").Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepository) FindByVehicle(ctx context.Context, vehicleID string, status *models.ReservationStatus) ([]models.Reservation, error) {
	var reservations []models.Reservation
	q := r.db.WithContext(ctx).Where("vehicle_id = ?", vehicleID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if err := q.Order("start_date ASC, created_at ASC").Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepository) FindByRequester(ctx context.Context, requesterID string) ([]models.Reservation, error) {
	var reservations []models.Reservation
	if err := r.db.WithContext(ctx).
		Where("requester_id = ?", requesterID).
		Order("created_at DESC").
		Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepository) AppendStatusChange(ctx context.Context, tx *gorm.DB, change *models.StatusChange) error {
	return tx.WithContext(ctx).Create(change).Error
}
