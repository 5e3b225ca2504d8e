// Package push delivers mobile push notifications through an FCM-compatible
// HTTP API.
package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Alijeyrad/odonto_backend/config"
)

var ErrNoTargets = errors.New("push: no targets")

type Message struct {
	Title string
	Body  string
	Data  map[string]string
}

// Result is the outcome for one device token.
type Result struct {
	Token     string
	MessageID string
	Err       string
}

func (r Result) OK() bool { return r.Err == "" }

// Sender is implemented by every push backend.
type Sender interface {
	// Send delivers m to each token and reports one Result per token, in order.
	Send(ctx context.Context, tokens []string, m Message) ([]Result, error)
	// SendTopic broadcasts m to every device subscribed to topic.
	SendTopic(ctx context.Context, topic string, m Message) (string, error)
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmRequest struct {
	To              string            `json:"to,omitempty"`
	RegistrationIDs []string          `json:"registration_ids,omitempty"`
	Notification    fcmNotification   `json:"notification"`
	Data            map[string]string `json:"data,omitempty"`
}

type fcmResponse struct {
	Success   int   `json:"success"`
	Failure   int   `json:"failure"`
	MessageID int64 `json:"message_id"`
	Results   []struct {
		MessageID string `json:"message_id"`
		Error     string `json:"error"`
	} `json:"results"`
}

// Client talks to the provider's /fcm/send endpoint.
type Client struct {
	http *resty.Client
}

var _ Sender = (*Client)(nil)

func New(cfg config.PushConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	http := resty.New().
		SetBaseURL(cfg.Endpoint).
		SetTimeout(timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		}).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("Authorization", "key="+cfg.ServerKey)

	return &Client{http: http}
}

func (c *Client) Send(ctx context.Context, tokens []string, m Message) ([]Result, error) {
	if len(tokens) == 0 {
		return nil, ErrNoTargets
	}

	var out fcmResponse
	if err := c.post(ctx, fcmRequest{
		RegistrationIDs: tokens,
		Notification:    fcmNotification{Title: m.Title, Body: m.Body},
		Data:            m.Data,
	}, &out); err != nil {
		return nil, err
	}

	results := make([]Result, len(tokens))
	for i, tok := range tokens {
		results[i] = Result{Token: tok}
		if i >= len(out.Results) {
			results[i].Err = "missing result"
			continue
		}
		results[i].MessageID = out.Results[i].MessageID
		results[i].Err = out.Results[i].Error
	}
	return results, nil
}

func (c *Client) SendTopic(ctx context.Context, topic string, m Message) (string, error) {
	if topic == "" {
		return "", ErrNoTargets
	}

	var out fcmResponse
	if err := c.post(ctx, fcmRequest{
		To:           "/topics/" + topic,
		Notification: fcmNotification{Title: m.Title, Body: m.Body},
		Data:         m.Data,
	}, &out); err != nil {
		return "", err
	}
	return fmt.Sprint(out.MessageID), nil
}

func (c *Client) post(ctx context.Context, body fcmRequest, out *fcmResponse) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(out).
		Post("/fcm/send")
	if err != nil {
		return fmt.Errorf("push: request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("push: provider returned %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// Nop logs instead of delivering. It is used when push is disabled.
type Nop struct{}

var _ Sender = Nop{}

func (Nop) Send(ctx context.Context, tokens []string, m Message) ([]Result, error) {
	slog.DebugContext(ctx, "push disabled, dropping message", "targets", len(tokens), "title", m.Title)
	results := make([]Result, len(tokens))
	for i, tok := range tokens {
		results[i] = Result{Token: tok}
	}
	return results, nil
}

func (Nop) SendTopic(ctx context.Context, topic string, m Message) (string, error) {
	slog.DebugContext(ctx, "push disabled, dropping broadcast", "topic", topic, "title", m.Title)
	return "", nil
}
