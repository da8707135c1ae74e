// internal/services/notification_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/agrimarket-backend/internal/config"
	"github.com/javajoker/agrimarket-backend/internal/models"
	"github.com/javajoker/agrimarket-backend/internal/telemetry"
)

// Sender delivers a single message over one channel.
type Sender interface {
	Channel() models.NotificationChannel
	Provider() string
	Send(ctx context.Context, contact, subject, body string) error
}

// Dispatcher accepts notifications without ever failing the caller.
type Dispatcher interface {
	Dispatch(ctx context.Context, req DispatchRequest)
}

// NotificationQueue hands jobs to whatever performs delivery.
type NotificationQueue interface {
	Enqueue(ctx context.Context, job NotificationJob) error
}

type DispatchRequest struct {
	OrderID   *uuid.UUID
	Channel   models.NotificationChannel
	Recipient models.NotificationRecipient
	Contact   string
	Subject   string
	Message   string
}

// NotificationJob is the unit of work carried by a queue. It is also the
// Kafka message payload.
type NotificationJob struct {
	NotificationID uuid.UUID                  `json:"notificationId"`
	OrderID        *uuid.UUID                 `json:"orderId,omitempty"`
	Channel        models.NotificationChannel `json:"channel"`
	Contact        string                     `json:"contact"`
	Subject        string                     `json:"subject,omitempty"`
	Message        string                     `json:"message"`
}

type NotificationService struct {
	db      *gorm.DB
	senders map[models.NotificationChannel]Sender
	queue   NotificationQueue
	metrics *telemetry.Metrics
}

func NewNotificationService(db *gorm.DB, senders ...Sender) *NotificationService {
	s := &NotificationService{
		db:      db,
		senders: make(map[models.NotificationChannel]Sender),
		metrics: telemetry.Default(),
	}
	for _, sender := range senders {
		s.senders[sender.Channel()] = sender
	}
	return s
}

// UseQueue switches Dispatch to asynchronous delivery. Without a queue,
// Dispatch delivers inline.
func (s *NotificationService) UseQueue(queue NotificationQueue) {
	s.queue = queue
}

// NewSendersFromConfig builds the real senders for every configured channel
// and log-only senders for the rest.
func NewSendersFromConfig(cfg *config.Config) []Sender {
	var senders []Sender

	if cfg.SMS.APIKey != "" && cfg.SMS.Username != "" {
		senders = append(senders, NewAfricasTalkingSender(cfg.SMS, nil))
	} else {
		logrus.Warn("SMS gateway not configured, SMS notifications will only be logged")
		senders = append(senders, NewLogSender(models.NotificationChannelSMS))
	}

	if cfg.Email.SMTPHost != "" {
		senders = append(senders, NewEmailSender(cfg.Email))
	} else {
		logrus.Warn("SMTP not configured, email notifications will only be logged")
		senders = append(senders, NewLogSender(models.NotificationChannelEmail))
	}

	return senders
}

// Dispatch records a Pending communication entry and hands it off for
// delivery. Failures are logged and recorded, never returned.
func (s *NotificationService) Dispatch(ctx context.Context, req DispatchRequest) {
	logger := logrus.WithFields(logrus.Fields{
		"channel":   req.Channel,
		"recipient": req.Recipient,
	})
	if req.OrderID != nil {
		logger = logger.WithField("order_id", req.OrderID.String())
	}

	record := &models.OrderNotification{
		OrderID:   req.OrderID,
		Channel:   req.Channel,
		Recipient: req.Recipient,
		Contact:   req.Contact,
		Subject:   req.Subject,
		Message:   req.Message,
		Status:    models.NotificationStatusPending,
		Provider:  s.providerFor(req.Channel),
	}
	if req.Contact == "" {
		record.Status = models.NotificationStatusFailed
		record.Error = ErrMissingContact.Error()
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		logger.WithError(err).Error("Failed to record notification")
		return
	}

	if record.Status == models.NotificationStatusFailed {
		s.metrics.NotificationDelivered(ctx, string(req.Channel), string(record.Status))
		logger.Warn("Notification has no contact")
		return
	}

	job := NotificationJob{
		NotificationID: record.ID,
		OrderID:        req.OrderID,
		Channel:        req.Channel,
		Contact:        req.Contact,
		Subject:        req.Subject,
		Message:        req.Message,
	}

	if s.queue == nil {
		_ = s.Deliver(ctx, job)
		return
	}

	if err := s.queue.Enqueue(ctx, job); err != nil {
		logger.WithError(err).Error("Failed to enqueue notification")
		s.finish(ctx, job, err)
	}
}

// Forward returns a job handler that passes jobs on to queue. A job the
// queue refuses is marked Failed.
func (s *NotificationService) Forward(queue NotificationQueue) func(context.Context, NotificationJob) error {
	return func(ctx context.Context, job NotificationJob) error {
		err := queue.Enqueue(ctx, job)
		if err != nil {
			logrus.WithError(err).WithField("notification_id", job.NotificationID.String()).Error("Failed to forward notification")
			s.finish(ctx, job, err)
		}
		return err
	}
}

// Deliver sends a queued job and records the outcome on its log entry.
func (s *NotificationService) Deliver(ctx context.Context, job NotificationJob) error {
	var err error
	sender, ok := s.senders[job.Channel]
	if !ok {
		err = fmt.Errorf("no sender configured for channel %s", job.Channel)
	} else {
		err = sender.Send(ctx, job.Contact, job.Subject, job.Message)
	}

	s.finish(ctx, job, err)
	return err
}

// SendDirect delivers synchronously and returns the delivery error. It backs
// manual messages sent from the admin console.
func (s *NotificationService) SendDirect(ctx context.Context, req DispatchRequest) (*models.OrderNotification, error) {
	record := &models.OrderNotification{
		OrderID:   req.OrderID,
		Channel:   req.Channel,
		Recipient: req.Recipient,
		Contact:   req.Contact,
		Subject:   req.Subject,
		Message:   req.Message,
		Status:    models.NotificationStatusPending,
		Provider:  s.providerFor(req.Channel),
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to record notification: %w", err)
	}

	err := s.Deliver(ctx, NotificationJob{
		NotificationID: record.ID,
		OrderID:        req.OrderID,
		Channel:        req.Channel,
		Contact:        req.Contact,
		Subject:        req.Subject,
		Message:        req.Message,
	})

	if reloadErr := s.db.WithContext(ctx).Where("id = ?", record.ID).First(record).Error; reloadErr != nil {
		logrus.WithError(reloadErr).Warn("Failed to reload notification")
	}

	return record, err
}

func (s *NotificationService) finish(ctx context.Context, job NotificationJob, sendErr error) {
	updates := map[string]interface{}{}
	status := models.NotificationStatusSent
	if sendErr != nil {
		status = models.NotificationStatusFailed
		updates["error"] = sendErr.Error()
	} else {
		updates["sent_at"] = time.Now()
	}
	updates["status"] = status

	logger := logrus.WithFields(logrus.Fields{
		"notification_id": job.NotificationID.String(),
		"channel":         job.Channel,
		"status":          status,
	})

	// The request context may already be cancelled when a worker runs.
	if err := s.db.WithContext(context.WithoutCancel(ctx)).Model(&models.OrderNotification{}).
		Where("id = ?", job.NotificationID).
		Updates(updates).Error; err != nil {
		logger.WithError(err).Error("Failed to update notification status")
	}

	s.metrics.NotificationDelivered(ctx, string(job.Channel), string(status))

	if sendErr != nil {
		logger.WithError(sendErr).Warn("Notification delivery failed")
		return
	}
	logger.Debug("Notification delivered")
}

func (s *NotificationService) providerFor(channel models.NotificationChannel) string {
	if sender, ok := s.senders[channel]; ok {
		return sender.Provider()
	}
	return ""
}

// LogSender only logs messages. It stands in for unconfigured channels.
type LogSender struct {
	channel models.NotificationChannel
}

func NewLogSender(channel models.NotificationChannel) *LogSender {
	return &LogSender{channel: channel}
}

func (l *LogSender) Channel() models.NotificationChannel { return l.channel }

func (l *LogSender) Provider() string { return "log" }

func (l *LogSender) Send(ctx context.Context, contact, subject, body string) error {
	logrus.WithFields(logrus.Fields{
		"channel": l.channel,
		"contact": contact,
		"subject": subject,
	}).Info("Notification would be sent")
	return nil
}
