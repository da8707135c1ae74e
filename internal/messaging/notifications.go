// internal/messaging/notifications.go
package messaging

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/agrimarket-backend/internal/services"
)

// NotificationPublisher is a services.NotificationQueue backed by Kafka.
type NotificationPublisher struct {
	producer *Producer
}

func NewNotificationPublisher(producer *Producer) *NotificationPublisher {
	return &NotificationPublisher{producer: producer}
}

func (p *NotificationPublisher) Enqueue(ctx context.Context, job services.NotificationJob) error {
	return p.producer.Publish(ctx, job.NotificationID.String(), job)
}

func (p *NotificationPublisher) Close() error {
	return p.producer.Close()
}

// NotificationHandler decodes jobs and delivers them. Undecodable payloads
// and delivery failures are logged and skipped so one bad message cannot stall
// the partition; the outcome is already recorded on the communication log.
func NotificationHandler(svc *services.NotificationService) func(ctx context.Context, payload []byte) error {
	return func(ctx context.Context, payload []byte) error {
		var job services.NotificationJob
		if err := json.Unmarshal(payload, &job); err != nil {
			logrus.WithError(err).Error("Discarding malformed notification message")
			return nil
		}

		if err := svc.Deliver(ctx, job); err != nil {
			logrus.WithError(err).
				WithField("notification_id", job.NotificationID.String()).
				Warn("Notification delivery failed")
		}
		return nil
	}
}
