package notify

import (
	"context"
	"time"

	"alpha-roller-go/internal/config"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Webhook posts events as JSON to an external endpoint. Publishing is
// asynchronous; a slow or dead endpoint never stalls the transaction
// pipeline, and delivery failures are only logged.
type Webhook struct {
	client  *resty.Client
	url     string
	botName string
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewWebhook builds a webhook notifier from config. The limiter keeps a
// chatty campaign from flooding the endpoint.
func NewWebhook(cfg *config.Notifier, logger *zap.Logger) *Webhook {
	botName := cfg.BotName
	if botName == "" {
		botName = "AlphaRoller"
	}

	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second)

	return &Webhook{
		client:  client,
		url:     cfg.WebhookURL,
		botName: botName,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst),
		logger:  logger.Named("webhook"),
	}
}

// Enabled reports whether an endpoint is configured.
func (w *Webhook) Enabled() bool { return w.url != "" }

type webhookPayload struct {
	Bot   string `json:"bot"`
	Event Event  `json:"event"`
}

// Publish sends the event in the background.
func (w *Webhook) Publish(event Event) {
	if !w.Enabled() {
		return
	}
	go w.send(event)
}

func (w *Webhook) send(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := w.limiter.Wait(ctx); err != nil {
		w.logger.Debug("dropping notification, rate limiter wait failed", zap.Error(err))
		return
	}

	resp, err := w.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(webhookPayload{Bot: w.botName, Event: event}).
		Post(w.url)
	if err != nil {
		w.logger.Warn("failed to deliver notification", zap.String("action", event.Action), zap.Error(err))
		return
	}
	if resp.IsError() {
		w.logger.Warn("notification endpoint rejected event",
			zap.String("action", event.Action),
			zap.Int("status", resp.StatusCode()))
	}
}
