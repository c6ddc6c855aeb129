package repository

import (
	"context"

	"github.com/Eursukkul/car-rental-microservice/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VehicleRepository interface {
	FindByID(ctx context.Context, id string) (*models.Vehicle, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Vehicle, error)
	IsAvailable(ctx context.Context, id string) (bool, error)
	OwnerOf(ctx context.Context, id string) (string, error)
	Upsert(ctx context.Context, vehicle *models.Vehicle) error
}

type vehicleRepository struct {
	db *gorm.DB
}

func NewVehicleRepository(db *gorm.DB) VehicleRepository {
	return &vehicleRepository{db: db}
}

func (r *vehicleRepository) FindByID(ctx context.Context, id string) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&vehicle).Error; err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// FindByIDForUpdate acquires a row-level lock on the vehicle within the given
// transaction, serializing reservation writes for that vehicle.
func (r *vehicleRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&vehicle).Error; err != nil {
		return nil, err
	}
	return &vehicle, nil
}

func (r *vehicleRepository) IsAvailable(ctx context.Context, id string) (bool, error) {
	vehicle, err := r.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	return vehicle.Available, nil
}

func (r *vehicleRepository) OwnerOf(ctx context.Context, id string) (string, error) {
	vehicle, err := r.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return vehicle.OwnerID, nil
}

// Upsert inserts the vehicle or overwrites the catalog-owned columns when it already exists.
func (r *vehicleRepository) Upsert(ctx context.Context, vehicle *models.Vehicle) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"owner_id", "plate_number", "model", "available", "updated_at"}),
	}).Create(vehicle).Error
}
