package dto

// Dates travel as calendar dates in YYYY-MM-DD form.

type CreateReservationRequest struct {
	VehicleID       string `json:"vehicle_id" validate:"required"`
	StartDate       string `json:"start_date" validate:"required"`
	EndDate         string `json:"end_date" validate:"required"`
	TotalPriceCents int64  `json:"total_price_cents" validate:"gte=0"`
}

// UpdateDatesRequest leaves omitted fields unchanged.
type UpdateDatesRequest struct {
	StartDate       *string `json:"start_date,omitempty"`
	EndDate         *string `json:"end_date,omitempty"`
	TotalPriceCents *int64  `json:"total_price_cents,omitempty"`
}

type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type PaymentRequest struct {
	AmountCents int64          `json:"amount_cents" validate:"gt=0"`
	Method      string         `json:"method" validate:"required"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type RefundRequest struct {
	OriginalEntryID string `json:"original_entry_id" validate:"required"`
	AmountCents     int64  `json:"amount_cents" validate:"gt=0"`
	Reason          string `json:"reason" validate:"required"`
}
