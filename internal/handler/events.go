package handler

import (
	"github.com/sirupsen/logrus"
)

const (
	EventReservationCreated       = "reservation.created"
	EventReservationDatesUpdated  = "reservation.dates_updated"
	EventReservationCancelled     = "reservation.cancelled"
	EventReservationStatusChanged = "reservation.status_changed"
	EventPaymentRecorded          = "settlement.payment_recorded"
	EventRefundRecorded           = "settlement.refund_recorded"
)

// EventPublisher is satisfied by *rabbitmq.Publisher.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

// publish is best effort: the write already committed, so a broker failure
// is logged and the request still succeeds.
func publish(p EventPublisher, routingKey string, payload any) {
	if p == nil {
		return
	}
	if err := p.Publish(routingKey, payload); err != nil {
		logrus.WithFields(logrus.Fields{
			"component":   "handler",
			"routing_key": routingKey,
		}).WithError(err).Warn("failed to publish event")
	}
}
