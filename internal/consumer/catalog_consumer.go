package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Eursukkul/car-rental-microservice/internal/models"
	"github.com/Eursukkul/car-rental-microservice/internal/repository"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

var errMalformed = errors.New("malformed catalog message")

type vehicleMessage struct {
	ID          string `json:"id"`
	OwnerID     string `json:"owner_id"`
	PlateNumber string `json:"plate_number"`
	Model       string `json:"model"`
	Available   *bool  `json:"available"`
}

type userMessage struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Active *bool  `json:"active"`
}

// CatalogConsumer keeps the local vehicle and user projections in sync with
// the catalog and identity services.
type CatalogConsumer struct {
	vehicles repository.VehicleRepository
	users    repository.UserRepository
	log      *logrus.Entry
	timeout  time.Duration
}

func NewCatalogConsumer(vehicles repository.VehicleRepository, users repository.UserRepository, log *logrus.Logger) *CatalogConsumer {
	return &CatalogConsumer{
		vehicles: vehicles,
		users:    users,
		log:      log.WithField("component", "catalog_consumer"),
		timeout:  10 * time.Second,
	}
}

// Start drains msgs in a goroutine until the channel closes.
func (cc *CatalogConsumer) Start(msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			cc.handleMessage(msg)
		}
		cc.log.Info("delivery channel closed, stopping consumer")
	}()
}

func (cc *CatalogConsumer) handleMessage(msg amqp.Delivery) {
	ctx, cancel := context.WithTimeout(context.Background(), cc.timeout)
	defer cancel()

	log := cc.log.WithField("routing_key", msg.RoutingKey)

	err := cc.apply(ctx, msg.RoutingKey, msg.Body)
	switch {
	case err == nil:
		log.Debug("synced")
		_ = msg.Ack(false)
	case errors.Is(err, errMalformed):
		log.WithError(err).Warn("dropping message")
		_ = msg.Nack(false, false)
	default:
		log.WithError(err).Error("failed to sync, requeueing")
		_ = msg.Nack(false, true)
	}
}

func (cc *CatalogConsumer) apply(ctx context.Context, routingKey string, body []byte) error {
	switch {
	case strings.HasPrefix(routingKey, "vehicle."):
		var m vehicleMessage
		if err := json.Unmarshal(body, &m); err != nil {
			return fmt.Errorf("%w: %v", errMalformed, err)
		}
		if m.ID == "" || m.OwnerID == "" {
			return fmt.Errorf("%w: vehicle id and owner_id are required", errMalformed)
		}
		vehicle := &models.Vehicle{
			ID:          m.ID,
			OwnerID:     m.OwnerID,
			PlateNumber: m.PlateNumber,
			Model:       m.Model,
			Available:   m.Available == nil || *m.Available,
		}
		// vehicle.deleted keeps the row so existing reservations still resolve.
		if routingKey == "vehicle.deleted" {
			vehicle.Available = false
		}
		return cc.vehicles.Upsert(ctx, vehicle)

	case strings.HasPrefix(routingKey, "user."):
		var m userMessage
		if err := json.Unmarshal(body, &m); err != nil {
			return fmt.Errorf("%w: %v", errMalformed, err)
		}
		role := models.Role(m.Role)
		if m.ID == "" || !models.IsValidRole(role) {
			return fmt.Errorf("%w: user id and a known role are required", errMalformed)
		}
		user := &models.User{
			ID:     m.ID,
			Email:  m.Email,
			Role:   role,
			Active: m.Active == nil || *m.Active,
		}
		if routingKey == "user.deleted" {
			user.Active = false
		}
		return cc.users.Upsert(ctx, user)

	default:
		return fmt.Errorf("%w: unexpected routing key %q", errMalformed, routingKey)
	}
}
