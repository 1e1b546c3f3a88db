// Package push delivers notification payloads to devices through Firebase
// Cloud Messaging. Delivery is best-effort; callers log failures and move on.
package push

import (
	"context"
	"errors"
	"fmt"

	"firebase.google.com/go/v4/messaging"
	"github.com/anonto42/nano-midea/notifier/internal/models"
	"go.uber.org/zap"
)

// ErrUnregisteredToken marks a token the provider no longer accepts
var ErrUnregisteredToken = errors.New("push token unregistered")

// Provider sends one payload to one device token and returns the provider message id
type Provider interface {
	Send(ctx context.Context, token string, payload models.PushPayload) (string, error)
}

// MessageSender is the subset of *messaging.Client used here
type MessageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMProvider implements Provider on Firebase Cloud Messaging
type FCMProvider struct {
	client MessageSender
}

// NewFCMProvider creates a new FCMProvider
func NewFCMProvider(client MessageSender) *FCMProvider {
	return &FCMProvider{client: client}
}

// Send builds an FCM message for token and submits it
func (p *FCMProvider) Send(ctx context.Context, token string, payload models.PushPayload) (string, error) {
	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Data: payload.Data,
	}

	id, err := p.client.Send(ctx, msg)
	if err != nil {
		if messaging.IsUnregistered(err) {
			return "", fmt.Errorf("%w: %v", ErrUnregisteredToken, err)
		}
		return "", fmt.Errorf("fcm send: %w", err)
	}
	return id, nil
}

// DisabledProvider drops every payload; used when push delivery is switched off
type DisabledProvider struct {
	logger *zap.Logger
}

// NewDisabledProvider creates a new DisabledProvider
func NewDisabledProvider(logger *zap.Logger) *DisabledProvider {
	return &DisabledProvider{logger: logger}
}

// Send logs and discards the payload
func (p *DisabledProvider) Send(_ context.Context, _ string, payload models.PushPayload) (string, error) {
	p.logger.Debug("push disabled, payload dropped",
		zap.String("title", payload.Title),
		zap.String("type", payload.Data[models.FieldType]),
	)
	return "", nil
}
