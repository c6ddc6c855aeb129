package repository

import (
	"context"

	"github.com/Eursukkul/car-rental-microservice/internal/models"
	"gorm.io/gorm"
)

type SettlementRepository interface {
	Create(ctx context.Context, tx *gorm.DB, entry *models.SettlementEntry) error
	UpdateStatus(ctx context.Context, tx *gorm.DB, entry *models.SettlementEntry) error
	FindByID(ctx context.Context, tx *gorm.DB, id string) (*models.SettlementEntry, error)
	FindByReservation(ctx context.Context, tx *gorm.DB, reservationID string) ([]models.SettlementEntry, error)
}

type settlementRepository struct {
	db *gorm.DB
}

func NewSettlementRepository(db *gorm.DB) SettlementRepository {
	return &settlementRepository{db: db}
}

func (r *settlementRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *settlementRepository) Create(ctx context.Context, tx *gorm.DB, entry *models.SettlementEntry) error {
	return tx.WithContext(ctx).Create(entry).Error
}

// UpdateStatus persists the mutable part of an entry: its status and metadata.
func (r *settlementRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, entry *models.SettlementEntry) error {
	return tx.WithContext(ctx).
		Model(entry).
		Select("status", "metadata", "updated_at").
		Updates(entry).Error
}

func (r *settlementRepository) FindByID(ctx context.Context, tx *gorm.DB, id string) (*models.SettlementEntry, error) {
	var entry models.SettlementEntry
	if err := r.conn(tx).WithContext(ctx).Where("id = ?", id).First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindByReservation returns entries in creation order. A nil tx reads outside any transaction.
func (r *settlementRepository) FindByReservation(ctx context.Context, tx *gorm.DB, reservationID string) ([]models.SettlementEntry, error) {
	var entries []models.SettlementEntry
	if err := r.conn(tx).WithContext(ctx).
		Where("reservation_id = ?", reservationID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
