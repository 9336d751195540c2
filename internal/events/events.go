// internal/events/events.go
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	TypeStatusChanged    = "application.status_changed"
	TypePaymentConfirmed = "payment.confirmed"
)

// Event describes a committed change to an application. System is set when
// no user caused the change.
type Event struct {
	Type           string     `json:"type"`
	ApplicationID  uuid.UUID  `json:"application_id"`
	PreviousStatus string     `json:"previous_status"`
	NewStatus      string     `json:"new_status"`
	ActorID        *uuid.UUID `json:"actor_id"`
	System         bool       `json:"system"`
	Reason         string     `json:"reason"`
	OccurredAt     time.Time  `json:"occurred_at"`
}

// Publisher delivers events after the owning transaction has committed.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
	Close() error
}

// LogPublisher writes events to the process log. It is used when no broker
// is configured.
type LogPublisher struct {
	logger logrus.FieldLogger
}

func NewLogPublisher(logger logrus.FieldLogger) *LogPublisher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, events ...Event) error {
	for _, e := range events {
		fields := logrus.Fields{
			"event_type":      e.Type,
			"application_id":  e.ApplicationID,
			"previous_status": e.PreviousStatus,
			"new_status":      e.NewStatus,
			"occurred_at":     e.OccurredAt,
		}
		if e.ActorID != nil {
			fields["actor_id"] = *e.ActorID
		}
		if e.System {
			fields["system"] = true
		}
		p.logger.WithFields(fields).Info("Application event")
	}
	return nil
}

func (p *LogPublisher) Close() error { return nil }
