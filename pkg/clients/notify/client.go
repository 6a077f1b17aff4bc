package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/couvoir/internal/config"
)

// Client exposes the webhook delivery operation used by the application.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
	webhookURL string
}

// NewClient builds a webhook client using the provided configuration values.
func NewClient(cfg config.NotifyConfig) *APIClient {
	restyClient := resty.New()
	restyClient.
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	if cfg.Token != "" {
		restyClient.SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.Token))
	}

	return &APIClient{
		httpClient: restyClient,
		webhookURL: cfg.WebhookURL,
	}
}

// Message is the payload posted to the reminder webhook.
type Message struct {
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Tags  []string `json:"tags,omitempty"`
}

// apiError represents an error payload returned by the webhook endpoint.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Send posts the message to the configured webhook URL.
func (c *APIClient) Send(ctx context.Context, msg Message) error {
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(msg).
		SetError(apiErr).
		Post(c.webhookURL)
	if err != nil {
		return fmt.Errorf("send reminder webhook: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		detail := apiErr.Error
		if detail == "" {
			detail = apiErr.Message
		}
		return fmt.Errorf("reminder webhook error: status=%d, message=%s", resp.StatusCode(), detail)
	}

	return nil
}
