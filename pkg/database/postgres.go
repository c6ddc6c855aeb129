package database

import (
	"fmt"
	"time"

	"github.com/Eursukkul/car-rental-microservice/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewPostgresDB opens the connection pool and brings the schema up to date.
func NewPostgresDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(1 * time.Minute)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates the tables and the no-overlap constraint. It is safe to run
// on every start.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Vehicle{},
		&models.User{},
		&models.Reservation{},
		&models.SettlementEntry{},
		&models.StatusChange{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	// btree_gist lets the exclusion constraint combine = on vehicle_id with && on the date range.
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS btree_gist`).Error; err != nil {
		return fmt.Errorf("create btree_gist extension: %w", err)
	}

	// Closed ranges: a reservation ending on the day another starts still conflicts.
	if err := db.Exec(`
		DO $$
		BEGIN
			IF NOT EXISTS (
				SELECT 1 FROM pg_constraint WHERE conname = 'reservations_no_overlap'
			) THEN
				ALTER TABLE reservations
				ADD CONSTRAINT reservations_no_overlap
				EXCLUDE USING gist (
					vehicle_id WITH =,
					daterange(start_date, end_date, '[]') WITH &&
				) WHERE (status <> 'CANCELLED');
			END IF;
		END
		$$;
	`).Error; err != nil {
		return fmt.Errorf("create no-overlap constraint: %w", err)
	}

	return nil
}
