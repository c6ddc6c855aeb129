package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Eursukkul/car-rental-microservice/internal/lock"
	"github.com/Eursukkul/car-rental-microservice/internal/models"
	"github.com/Eursukkul/car-rental-microservice/internal/repository"
	"gorm.io/gorm"
)

type SettlementService interface {
	RecordPayment(ctx context.Context, reservationID string, amountCents int64, method models.PaymentMethod, metadata map[string]any) (*models.SettlementEntry, error)
	RecordRefund(ctx context.Context, reservationID, originalEntryID string, amountCents int64, reason, actorID string) (*models.SettlementEntry, error)
	ListSettlements(ctx context.Context, reservationID string) ([]models.SettlementEntry, error)
}

type settlementService struct {
	tx           repository.TxManager
	reservations repository.ReservationRepository
	entries      repository.SettlementRepository
	users        repository.UserRepository
	locker       lock.Locker
	ledger       *Ledger
}

func NewSettlementService(
	tx repository.TxManager,
	reservations repository.ReservationRepository,
	entries repository.SettlementRepository,
	users repository.UserRepository,
	locker lock.Locker,
) SettlementService {
	return &settlementService{
		tx:           tx,
		reservations: reservations,
		entries:      entries,
		users:        users,
		locker:       locker,
		ledger:       NewLedger(entries),
	}
}

func (s *settlementService) RecordPayment(ctx context.Context, reservationID string, amountCents int64, method models.PaymentMethod, metadata map[string]any) (*models.SettlementEntry, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	return s.withReservation(ctx, reservationID, func(tx *gorm.DB, r *models.Reservation) (*models.SettlementEntry, error) {
		return s.ledger.RecordPayment(ctx, tx, r, amountCents, method, metadata)
	})
}

func (s *settlementService) RecordRefund(ctx context.Context, reservationID, originalEntryID string, amountCents int64, reason, actorID string) (*models.SettlementEntry, error) {
	role, err := s.users.RoleOf(ctx, actorID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("look up actor role: %w", err)
	}
	if role != models.RoleAdministrator {
		return nil, ErrForbidden
	}
	if err := ValidateRefund(amountCents, reason); err != nil {
		return nil, err
	}

	return s.withReservation(ctx, reservationID, func(tx *gorm.DB, r *models.Reservation) (*models.SettlementEntry, error) {
		return s.ledger.RecordRefund(ctx, tx, r, originalEntryID, amountCents, reason, actorID)
	})
}

func (s *settlementService) ListSettlements(ctx context.Context, reservationID string) ([]models.SettlementEntry, error) {
	if _, err := s.reservations.FindByID(ctx, reservationID); err != nil {
		return nil, notFoundAs(err, ErrReservationNotFound)
	}
	return s.entries.FindByReservation(ctx, nil, reservationID)
}

// withReservation serializes fn against every other settlement or lifecycle
// write on the same reservation and saves the reservation afterwards.
func (s *settlementService) withReservation(ctx context.Context, reservationID string, fn func(tx *gorm.DB, r *models.Reservation) (*models.SettlementEntry, error)) (*models.SettlementEntry, error) {
	release, err := s.locker.Lock(ctx, lock.ReservationKey(reservationID))
	if err != nil {
		return nil, fmt.Errorf("lock reservation %s: %w", reservationID, err)
	}
	defer release()

	var result *models.SettlementEntry
	err = s.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		reservation, err := s.reservations.FindByIDForUpdate(ctx, tx, reservationID)
		if err != nil {
			return notFoundAs(err, ErrReservationNotFound)
		}

		entry, err := fn(tx, reservation)
		if err != nil {
			return err
		}

		if err := s.reservations.Save(ctx, tx, reservation); err != nil {
			return fmt.Errorf("save reservation payment status: %w", err)
		}
		result = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
