package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/javajoker/agrimarket-backend/internal/models"
	"github.com/javajoker/agrimarket-backend/internal/services"
	"github.com/javajoker/agrimarket-backend/internal/testutil"
)

type memoryWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *memoryWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *memoryWriter) Close() error {
	w.closed = true
	return nil
}

func TestNotificationPublisherEnqueue(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	otel.SetTracerProvider(sdktrace.NewTracerProvider())

	writer := &memoryWriter{}
	publisher := NewNotificationPublisher(NewProducerWithWriter(writer, "order.notifications"))

	orderID := uuid.New()
	job := services.NotificationJob{
		NotificationID: uuid.New(),
		OrderID:        &orderID,
		Channel:        models.NotificationChannelSMS,
		Contact:        testutil.BuyerPhone,
		Message:        "Order received",
	}
	require.NoError(t, publisher.Enqueue(context.Background(), job))

	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	assert.Equal(t, job.NotificationID.String(), string(msg.Key))
	assert.NotEmpty(t, NewMessageCarrier(&msg).Get("traceparent"))

	var decoded services.NotificationJob
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, job, decoded)

	require.NoError(t, publisher.Close())
	assert.True(t, writer.closed)
}

func TestNotificationPublisherPropagatesWriteErrors(t *testing.T) {
	writer := &memoryWriter{err: errors.New("leader not available")}
	publisher := NewNotificationPublisher(NewProducerWithWriter(writer, "order.notifications"))

	err := publisher.Enqueue(context.Background(), services.NotificationJob{NotificationID: uuid.New()})
	assert.EqualError(t, err, "leader not available")
}

func TestMessageCarrier(t *testing.T) {
	msg := kafka.Message{}
	carrier := NewMessageCarrier(&msg)

	carrier.Set("traceparent", "a")
	carrier.Set("tracestate", "b")
	carrier.Set("traceparent", "c")

	assert.Equal(t, "c", carrier.Get("traceparent"))
	assert.Equal(t, "b", carrier.Get("tracestate"))
	assert.Empty(t, carrier.Get("baggage"))
	assert.Equal(t, []string{"traceparent", "tracestate"}, carrier.Keys())
}

func TestNotificationHandler(t *testing.T) {
	db := testutil.NewDB(t)
	notifications := services.NewNotificationService(db, services.NewLogSender(models.NotificationChannelSMS))
	handler := NotificationHandler(notifications)

	// Malformed payloads are skipped rather than stalling the partition.
	assert.NoError(t, handler(context.Background(), []byte("not json")))

	record := &models.OrderNotification{
		Channel:   models.NotificationChannelSMS,
		Recipient: models.NotificationRecipientCustomer,
		Contact:   testutil.BuyerPhone,
		Message:   "Order received",
		Status:    models.NotificationStatusPending,
	}
	require.NoError(t, db.Create(record).Error)

	payload, err := json.Marshal(services.NotificationJob{
		NotificationID: record.ID,
		Channel:        record.Channel,
		Contact:        record.Contact,
		Message:        record.Message,
	})
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), payload))

	require.NoError(t, db.Where("id = ?", record.ID).First(record).Error)
	assert.Equal(t, models.NotificationStatusSent, record.Status)
}
