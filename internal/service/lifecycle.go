package service

import (
	"fmt"
	"time"

	"github.com/Eursukkul/car-rental-microservice/internal/models"
)

// transitions lists the legal targets of every non-terminal status.
var transitions = map[models.ReservationStatus][]models.ReservationStatus{
	models.StatusPending:   {models.StatusConfirmed, models.StatusActive, models.StatusCancelled},
	models.StatusConfirmed: {models.StatusActive, models.StatusCancelled},
	models.StatusActive:    {models.StatusCompleted, models.StatusCancelled},
}

// CanTransition reports whether from -> to is a legal lifecycle move.
// Terminal statuses have no outgoing transitions, not even to themselves.
func CanTransition(from, to models.ReservationStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Lifecycle enforces transition topology only. Who may trigger a transition
// is decided by the caller.
type Lifecycle struct {
	now func() time.Time
}

func NewLifecycle() *Lifecycle {
	return &Lifecycle{now: time.Now}
}

// Transition moves the reservation to target and returns the audit record.
// The reservation is left untouched on error.
func (l *Lifecycle) Transition(r *models.Reservation, target models.ReservationStatus, actorID string) (*models.StatusChange, error) {
	if !CanTransition(r.Status, target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, target)
	}

	at := l.now().UTC()
	change := &models.StatusChange{
		ReservationID: r.ID,
		FromStatus:    r.Status,
		ToStatus:      target,
		ActorID:       actorID,
		CreatedAt:     at,
	}
	r.Status = target
	r.UpdatedAt = at
	return change, nil
}

func (l *Lifecycle) Cancel(r *models.Reservation, actorID string) (*models.StatusChange, error) {
	return l.Transition(r, models.StatusCancelled, actorID)
}
