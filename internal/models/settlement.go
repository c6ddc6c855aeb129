package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SettlementStatus string

const (
	SettlementPending           SettlementStatus = "PENDING"
	SettlementCompleted         SettlementStatus = "COMPLETED"
	SettlementFailed            SettlementStatus = "FAILED"
	SettlementRefunded          SettlementStatus = "REFUNDED"
	SettlementPartiallyRefunded SettlementStatus = "PARTIALLY_REFUNDED"
)

type PaymentMethod string

const (
	MethodCard         PaymentMethod = "card"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCash         PaymentMethod = "cash"
	MethodWallet       PaymentMethod = "wallet"
)

// Metadata keys written by the ledger.
const (
	MetaOriginalEntryID     = "original_entry_id"
	MetaReason              = "reason"
	MetaRefundedBy          = "refunded_by"
	MetaRefundEntryID       = "refund_entry_id"
	MetaRefundReason        = "refund_reason"
	MetaRefundedAmountCents = "refunded_amount_cents"
)

// SettlementEntry is one payment (positive amount) or refund (negative amount)
// applied to a reservation. Only Status and Metadata change after creation.
type SettlementEntry struct {
	ID            string            `gorm:"type:uuid;primaryKey" json:"id"`
	ReservationID string            `gorm:"type:uuid;not null;index" json:"reservation_id"`
	AmountCents   int64             `gorm:"not null" json:"amount_cents"`
	Method        PaymentMethod     `gorm:"type:varchar(32);not null" json:"method"`
	Status        SettlementStatus  `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	Metadata      datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func (e *SettlementEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

func (e *SettlementEntry) IsPayment() bool { return e.AmountCents > 0 }

func (e *SettlementEntry) IsRefund() bool { return e.AmountCents < 0 }

// Captured reports whether the entry moved money: a payment that was
// completed (and possibly refunded later) or an issued refund.
func (e *SettlementEntry) Captured() bool {
	if e.IsRefund() {
		return e.Status == SettlementRefunded
	}
	switch e.Status {
	case SettlementCompleted, SettlementPartiallyRefunded, SettlementRefunded:
		return true
	}
	return false
}
