package notifier

import (
	"context"
	"errors"

	"github.com/anonto42/nano-midea/notifier/internal/models"
	"github.com/anonto42/nano-midea/notifier/internal/push"
	"github.com/anonto42/nano-midea/notifier/internal/repositories"
	"go.uber.org/zap"
)

// Dispatcher performs best-effort push delivery for written notifications.
// Nothing it does is reported back to the caller.
type Dispatcher struct {
	users      repositories.UserRepository
	provider   push.Provider
	pruneStale bool
	logger     *zap.Logger
}

// NewDispatcher creates a new Dispatcher. With pruneStale set, tokens the
// provider reports as unregistered are cleared from the user document.
func NewDispatcher(users repositories.UserRepository, provider push.Provider, pruneStale bool, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{users: users, provider: provider, pruneStale: pruneStale, logger: logger}
}

// Dispatch resolves the recipient's token and submits a kind-specific payload
func (d *Dispatcher) Dispatch(ctx context.Context, recipientID string, kind models.Kind, c models.Correlation) {
	log := d.logger.With(
		zap.String("kind", string(kind)),
		zap.String("recipient_id", recipientID),
		zap.String("actor_id", c.ActorID),
	)

	recipient, err := d.users.GetIdentity(ctx, recipientID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.Info("push skipped, recipient not found")
			return
		}
		log.Warn("push skipped, recipient lookup failed", zap.Error(err))
		return
	}
	if !recipient.HasDeliveryToken() {
		log.Info("push skipped, recipient has no delivery token")
		return
	}

	payload := models.NewPushPayload(kind, c)
	messageID, err := d.provider.Send(ctx, recipient.DeliveryToken, payload)
	if err != nil {
		log.Warn("push delivery failed", zap.Error(err))
		if errors.Is(err, push.ErrUnregisteredToken) && d.pruneStale {
			d.pruneToken(ctx, recipientID, log)
		}
		return
	}
	log.Info("push notification sent", zap.String("message_id", messageID))
}

func (d *Dispatcher) pruneToken(ctx context.Context, recipientID string, log *zap.Logger) {
	if err := d.users.ClearDeliveryToken(ctx, recipientID); err != nil {
		log.Warn("failed to clear stale delivery token", zap.Error(err))
		return
	}
	log.Info("stale delivery token cleared")
}
