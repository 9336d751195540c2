// internal/services/notification_service.go
package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/G-alileo/e-visa-application-system/internal/events"
)

// NotificationService forwards committed workflow changes to the event
// publisher. Delivery failures are logged and never fail the workflow.
type NotificationService struct {
	publisher events.Publisher
}

func NewNotificationService(publisher events.Publisher) *NotificationService {
	if publisher == nil {
		publisher = events.NewLogPublisher(nil)
	}
	return &NotificationService{publisher: publisher}
}

func (s *NotificationService) Notify(ctx context.Context, evts ...events.Event) {
	if s == nil || len(evts) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, evts...); err != nil {
		ids := make([]string, len(evts))
		for i, e := range evts {
			ids[i] = e.ApplicationID.String()
		}
		logrus.WithError(err).WithFields(logrus.Fields{
			"application_ids": ids,
			"event_type":      evts[0].Type,
			"count":           len(evts),
		}).Warn("Failed to publish application events")
	}
}
