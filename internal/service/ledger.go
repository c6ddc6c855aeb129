package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Eursukkul/car-rental-microservice/internal/models"
	"github.com/Eursukkul/car-rental-microservice/internal/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Ledger applies payments and refunds to a reservation and keeps its payment
// status in line with the money actually captured. Callers must hold the
// reservation's lock and pass the transaction the reservation row was locked in.
type Ledger struct {
	entries repository.SettlementRepository
	now     func() time.Time
}

func NewLedger(entries repository.SettlementRepository) *Ledger {
	return &Ledger{entries: entries, now: time.Now}
}

// NetPaid sums captured payments minus issued refunds.
func NetPaid(entries []models.SettlementEntry) int64 {
	var net int64
	for i := range entries {
		if entries[i].Captured() {
			net += entries[i].AmountCents
		}
	}
	return net
}

// DerivePaymentStatus maps net paid against the reservation total.
func DerivePaymentStatus(netPaid, totalPrice int64) models.PaymentStatus {
	switch {
	case netPaid <= 0:
		return models.PaymentUnpaid
	case netPaid >= totalPrice:
		return models.PaymentPaid
	default:
		return models.PaymentPartiallyPaid
	}
}

// RecordPayment books a payment. No gateway is involved, so the entry is
// completed immediately after it is created.
func (l *Ledger) RecordPayment(ctx context.Context, tx *gorm.DB, r *models.Reservation, amountCents int64, method models.PaymentMethod, metadata map[string]any) (*models.SettlementEntry, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	entry := &models.SettlementEntry{
		ReservationID: r.ID,
		AmountCents:   amountCents,
		Method:        method,
		Status:        models.SettlementPending,
		Metadata:      cloneMetadata(metadata),
	}
	if err := l.entries.Create(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("create payment entry: %w", err)
	}

	entry.Status = models.SettlementCompleted
	entry.UpdatedAt = l.now().UTC()
	if err := l.entries.UpdateStatus(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("complete payment entry: %w", err)
	}

	if err := l.refreshPaymentStatus(ctx, tx, r); err != nil {
		return nil, err
	}
	return entry, nil
}

// ValidateRefund checks the input-only preconditions of a refund.
func ValidateRefund(amountCents int64, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return ErrMissingRefundReason
	}
	if amountCents <= 0 {
		return ErrInvalidRefundAmount
	}
	return nil
}

// RecordRefund refunds amountCents of a completed payment entry.
//
// A full refund marks the original entry REFUNDED and the reservation
// REFUNDED; anything less marks both PARTIALLY_REFUNDED. The original entry's
// status is what stops it from being refunded twice.
func (l *Ledger) RecordRefund(ctx context.Context, tx *gorm.DB, r *models.Reservation, originalEntryID string, amountCents int64, reason, actorID string) (*models.SettlementEntry, error) {
	if err := ValidateRefund(amountCents, reason); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)

	original, err := l.entries.FindByID(ctx, tx, originalEntryID)
	if isMissing(err) {
		return nil, fmt.Errorf("%w: entry %s does not exist", ErrRefundTargetNotEligible, originalEntryID)
	}
	if err != nil {
		return nil, fmt.Errorf("load payment entry: %w", err)
	}
	if original.ReservationID != r.ID || !original.IsPayment() {
		return nil, fmt.Errorf("%w: entry %s is not a payment of reservation %s", ErrRefundTargetNotEligible, original.ID, r.ID)
	}
	if original.Status != models.SettlementCompleted {
		return nil, fmt.Errorf("%w: entry %s is %s", ErrRefundTargetNotEligible, original.ID, original.Status)
	}
	if amountCents > original.AmountCents {
		return nil, ErrInvalidRefundAmount
	}

	entries, err := l.entries.FindByReservation(ctx, tx, r.ID)
	if err != nil {
		return nil, fmt.Errorf("load settlement entries: %w", err)
	}
	if amountCents > NetPaid(entries) {
		return nil, ErrInvalidRefundAmount
	}

	refund := &models.SettlementEntry{
		ReservationID: r.ID,
		AmountCents:   -amountCents,
		Method:        original.Method,
		Status:        models.SettlementRefunded,
		Metadata: datatypes.JSONMap{
			models.MetaOriginalEntryID: original.ID,
			models.MetaReason:          reason,
			models.MetaRefundedBy:      actorID,
		},
	}
	if err := l.entries.Create(ctx, tx, refund); err != nil {
		return nil, fmt.Errorf("create refund entry: %w", err)
	}

	at := l.now().UTC()
	if original.Metadata == nil {
		original.Metadata = datatypes.JSONMap{}
	}
	original.Metadata[models.MetaRefundEntryID] = refund.ID
	original.Metadata[models.MetaRefundReason] = reason
	original.Metadata[models.MetaRefundedAmountCents] = amountCents
	original.UpdatedAt = at

	if amountCents == original.AmountCents {
		original.Status = models.SettlementRefunded
		r.PaymentStatus = models.PaymentRefunded
	} else {
		original.Status = models.SettlementPartiallyRefunded
		r.PaymentStatus = models.PaymentPartiallyRefunded
	}
	r.UpdatedAt = at

	if err := l.entries.UpdateStatus(ctx, tx, original); err != nil {
		return nil, fmt.Errorf("mark payment entry refunded: %w", err)
	}
	return refund, nil
}

func (l *Ledger) refreshPaymentStatus(ctx context.Context, tx *gorm.DB, r *models.Reservation) error {
	entries, err := l.entries.FindByReservation(ctx, tx, r.ID)
	if err != nil {
		return fmt.Errorf("load settlement entries: %w", err)
	}
	r.PaymentStatus = DerivePaymentStatus(NetPaid(entries), r.TotalPriceCents)
	r.UpdatedAt = l.now().UTC()
	return nil
}

func cloneMetadata(in map[string]any) datatypes.JSONMap {
	if len(in) == 0 {
		return nil
	}
	out := make(datatypes.JSONMap, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
