package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Eursukkul/car-rental-microservice/internal/lock"
	"github.com/Eursukkul/car-rental-microservice/internal/models"
	"github.com/Eursukkul/car-rental-microservice/internal/repository"
	"gorm.io/gorm"
)

// DateChange carries the optional fields of a reservation update. Nil fields
// keep their current value.
type DateChange struct {
	StartDate       *time.Time
	EndDate         *time.Time
	TotalPriceCents *int64
}

type ReservationService interface {
	CreateReservation(ctx context.Context, vehicleID, requesterID string, start, end time.Time, totalPriceCents int64) (*models.Reservation, error)
	UpdateReservationDates(ctx context.Context, reservationID string, change DateChange, actorID string) (*models.Reservation, error)
	CancelReservation(ctx context.Context, reservationID, actorID string) (*models.Reservation, error)
	ChangeStatus(ctx context.Context, reservationID string, target models.ReservationStatus, actorID string) (*models.Reservation, error)
	GetReservation(ctx context.Context, id string) (*models.Reservation, error)
	ListByVehicle(ctx context.Context, vehicleID string, status *models.ReservationStatus) ([]models.Reservation, error)
	ListByRequester(ctx context.Context, requesterID string) ([]models.Reservation, error)
}

type reservationService struct {
	tx           repository.TxManager
	reservations repository.ReservationRepository
	vehicles     repository.VehicleRepository
	users        repository.UserRepository
	locker       lock.Locker
	overlap      *OverlapChecker
	lifecycle    *Lifecycle
}

func NewReservationService(
	tx repository.TxManager,
	reservations repository.ReservationRepository,
	vehicles repository.VehicleRepository,
	users repository.UserRepository,
	locker lock.Locker,
) ReservationService {
	return &reservationService{
		tx:           tx,
		reservations: reservations,
		vehicles:     vehicles,
		users:        users,
		locker:       locker,
		overlap:      NewOverlapChecker(reservations),
		lifecycle:    NewLifecycle(),
	}
}

func (s *reservationService) CreateReservation(ctx context.Context, vehicleID, requesterID string, start, end time.Time, totalPriceCents int64) (*models.Reservation, error) {
	if totalPriceCents < 0 {
		return nil, ErrInvalidAmount
	}
	rng := models.NewDateRange(start, end)
	if !rng.Valid() {
		return nil, ErrInvalidRange
	}

	// Collaborator lookups stay outside the critical section.
	available, err := s.vehicles.IsAvailable(ctx, vehicleID)
	if err != nil {
		return nil, notFoundAs(err, ErrVehicleNotFound)
	}
	if !available {
		return nil, ErrResourceUnavailable
	}
	exists, err := s.users.Exists(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("look up requester: %w", err)
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	release, err := s.locker.Lock(ctx, lock.VehicleKey(vehicleID))
	if err != nil {
		return nil, fmt.Errorf("lock vehicle %s: %w", vehicleID, err)
	}
	defer release()

	var result *models.Reservation
	err = s.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		// 1. Lock the vehicle row so other instances queue behind us
		if _, err := s.vehicles.FindByIDForUpdate(ctx, tx, vehicleID); err != nil {
			return notFoundAs(err, ErrVehicleNotFound)
		}

		// 2. Check the calendar
		conflict, err := s.overlap.HasConflict(ctx, tx, vehicleID, rng, "")
		if err != nil {
			return err
		}
		if conflict {
			return ErrResourceUnavailable
		}

		// 3. Persist
		reservation := &models.Reservation{
			VehicleID:       vehicleID,
			RequesterID:     requesterID,
			StartDate:       rng.Start,
			EndDate:         rng.End,
			TotalPriceCents: totalPriceCents,
			Status:          models.StatusPending,
			PaymentStatus:   models.PaymentUnpaid,
		}
		if err := s.reservations.Create(ctx, tx, reservation); err != nil {
			return translateWriteError(err)
		}
		result = reservation
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *reservationService) UpdateReservationDates(ctx context.Context, reservationID string, change DateChange, actorID string) (*models.Reservation, error) {
	if change.TotalPriceCents != nil && *change.TotalPriceCents < 0 {
		return nil, ErrInvalidAmount
	}

	current, err := s.reservations.FindByID(ctx, reservationID)
	if err != nil {
		return nil, notFoundAs(err, ErrReservationNotFound)
	}
	role, err := s.roleOf(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if current.RequesterID != actorID && role != models.RoleAdministrator {
		return nil, ErrForbidden
	}

	// Lock order is always vehicle, then reservation.
	releaseVehicle, err := s.locker.Lock(ctx, lock.VehicleKey(current.VehicleID))
	if err != nil {
		return nil, fmt.Errorf("lock vehicle %s: %w", current.VehicleID, err)
	}
	defer releaseVehicle()
	releaseReservation, err := s.locker.Lock(ctx, lock.ReservationKey(reservationID))
	if err != nil {
		return nil, fmt.Errorf("lock reservation %s: %w", reservationID, err)
	}
	defer releaseReservation()

	var result *models.Reservation
	err = s.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.vehicles.FindByIDForUpdate(ctx, tx, current.VehicleID); err != nil {
			return notFoundAs(err, ErrVehicleNotFound)
		}
		reservation, err := s.reservations.FindByIDForUpdate(ctx, tx, reservationID)
		if err != nil {
			return notFoundAs(err, ErrReservationNotFound)
		}
		if reservation.Status.IsTerminal() {
			return fmt.Errorf("%w: status is %s", ErrAlreadyTerminal, reservation.Status)
		}

		rng := reservation.Range()
		if change.StartDate != nil {
			rng.Start = models.TruncateToDate(*change.StartDate)
		}
		if change.EndDate != nil {
			rng.End = models.TruncateToDate(*change.EndDate)
		}
		if !rng.Valid() {
			return ErrInvalidRange
		}

		if !rng.Start.Equal(reservation.StartDate) || !rng.End.Equal(reservation.EndDate) {
			conflict, err := s.overlap.HasConflict(ctx, tx, reservation.VehicleID, rng, reservation.ID)
			if err != nil {
				return err
			}
			if conflict {
				return ErrResourceUnavailable
			}
		}

		reservation.StartDate = rng.Start
		reservation.EndDate = rng.End
		if change.TotalPriceCents != nil {
			reservation.TotalPriceCents = *change.TotalPriceCents
		}
		reservation.UpdatedAt = time.Now().UTC()
		if err := s.reservations.Save(ctx, tx, reservation); err != nil {
			return translateWriteError(err)
		}
		result = reservation
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *reservationService) CancelReservation(ctx context.Context, reservationID, actorID string) (*models.Reservation, error) {
	current, err := s.reservations.FindByID(ctx, reservationID)
	if err != nil {
		return nil, notFoundAs(err, ErrReservationNotFound)
	}
	role, err := s.roleOf(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if current.RequesterID != actorID && role != models.RoleAdministrator {
		return nil, ErrForbidden
	}

	return s.transition(ctx, reservationID, func(r *models.Reservation) (*models.StatusChange, error) {
		switch r.Status {
		case models.StatusCancelled:
			return nil, ErrAlreadyTerminal
		case models.StatusCompleted:
			return nil, ErrCannotCancelCompleted
		}
		return s.lifecycle.Cancel(r, actorID)
	})
}

func (s *reservationService) ChangeStatus(ctx context.Context, reservationID string, target models.ReservationStatus, actorID string) (*models.Reservation, error) {
	current, err := s.reservations.FindByID(ctx, reservationID)
	if err != nil {
		return nil, notFoundAs(err, ErrReservationNotFound)
	}
	role, err := s.roleOf(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleAdministrator {
		if role != models.RoleOperator {
			return nil, ErrForbidden
		}
		owner, err := s.vehicles.OwnerOf(ctx, current.VehicleID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("look up vehicle owner: %w", err)
		}
		if owner == "" || owner != actorID {
			return nil, ErrForbidden
		}
	}
	if !target.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, target)
	}

	return s.transition(ctx, reservationID, func(r *models.Reservation) (*models.StatusChange, error) {
		return s.lifecycle.Transition(r, target, actorID)
	})
}

// transition runs apply on the locked reservation and persists the result
// together with its audit record.
func (s *reservationService) transition(ctx context.Context, reservationID string, apply func(r *models.Reservation) (*models.StatusChange, error)) (*models.Reservation, error) {
	release, err := s.locker.Lock(ctx, lock.ReservationKey(reservationID))
	if err != nil {
		return nil, fmt.Errorf("lock reservation %s: %w", reservationID, err)
	}
	defer release()

	var result *models.Reservation
	err = s.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		reservation, err := s.reservations.FindByIDForUpdate(ctx, tx, reservationID)
		if err != nil {
			return notFoundAs(err, ErrReservationNotFound)
		}

		change, err := apply(reservation)
		if err != nil {
			return err
		}

		if err := s.reservations.Save(ctx, tx, reservation); err != nil {
			return err
		}
		if err := s.reservations.AppendStatusChange(ctx, tx, change); err != nil {
			return err
		}
		result = reservation
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// roleOf resolves the actor's role. Unknown actors get no role rather than an
// error so ownership checks can still apply.
func (s *reservationService) roleOf(ctx context.Context, actorID string) (models.Role, error) {
	role, err := s.users.RoleOf(ctx, actorID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("look up actor role: %w", err)
	}
	return role, nil
}

func (s *reservationService) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	reservation, err := s.reservations.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrReservationNotFound)
	}
	return reservation, nil
}

func (s *reservationService) ListByVehicle(ctx context.Context, vehicleID string, status *models.ReservationStatus) ([]models.Reservation, error) {
	return s.reservations.FindByVehicle(ctx, vehicleID, status)
}

func (s *reservationService) ListByRequester(ctx context.Context, requesterID string) ([]models.Reservation, error) {
	return s.reservations.FindByRequester(ctx, requesterID)
}
