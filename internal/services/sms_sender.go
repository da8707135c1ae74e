// internal/services/sms_sender.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/javajoker/agrimarket-backend/internal/config"
	"github.com/javajoker/agrimarket-backend/internal/models"
)

const africasTalkingMessagingPath = "/version1/messaging"

// AfricasTalkingSender sends SMS through the Africa's Talking bulk messaging API.
type AfricasTalkingSender struct {
	cfg    config.SMSConfig
	client *http.Client
}

type africasTalkingResponse struct {
	SMSMessageData struct {
		Message    string `json:"Message"`
		Recipients []struct {
			StatusCode int    `json:"statusCode"`
			Number     string `json:"number"`
			Status     string `json:"status"`
			Cost       string `json:"cost"`
			MessageID  string `json:"messageId"`
		} `json:"Recipients"`
	} `json:"SMSMessageData"`
}

// NewAfricasTalkingSender uses an instrumented client when client is nil.
func NewAfricasTalkingSender(cfg config.SMSConfig, client *http.Client) *AfricasTalkingSender {
	if client == nil {
		client = &http.Client{
			Timeout:   time.Duration(cfg.Timeout) * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &AfricasTalkingSender{cfg: cfg, client: client}
}

func (s *AfricasTalkingSender) Channel() models.NotificationChannel {
	return models.NotificationChannelSMS
}

func (s *AfricasTalkingSender) Provider() string {
	return "africastalking"
}

func (s *AfricasTalkingSender) Send(ctx context.Context, phone, _, message string) error {
	form := url.Values{}
	form.Set("username", s.cfg.Username)
	form.Set("to", phone)
	form.Set("message", message)
	if s.cfg.SenderID != "" {
		form.Set("from", s.cfg.SenderID)
	}

	endpoint := strings.TrimRight(s.cfg.BaseURL, "/") + africasTalkingMessagingPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build SMS request: %w", err)
	}
	req.Header.Set("apiKey", s.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("failed to read SMS response: %w", err)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("SMS gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result africasTalkingResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to decode SMS response: %w", err)
	}

	if len(result.SMSMessageData.Recipients) == 0 {
		return fmt.Errorf("SMS not accepted: %s", result.SMSMessageData.Message)
	}
	for _, recipient := range result.SMSMessageData.Recipients {
		if recipient.Status != "Success" {
			return fmt.Errorf("SMS to %s rejected: %s", recipient.Number, recipient.Status)
		}
	}

	return nil
}
