// Package notifier turns content-graph mutations (likes, follows, comments)
// into notification entities and best-effort push messages, and keeps the
// derived like counter of posts in step with the likes set.
//
// Router is the only entry point. It never returns errors: every failure is
// logged at the boundary because the mutation that triggered the event has
// already committed.
package notifier

import (
	"context"
	"time"

	"github.com/anonto42/nano-midea/notifier/internal/models"
	"go.uber.org/zap"
)

// DefaultHandlerTimeout bounds one router step when none is configured
const DefaultHandlerTimeout = 30 * time.Second

// Router dispatches store events to the notification pipeline and the counter updater
type Router struct {
	pipeline *Pipeline
	counter  *CounterUpdater
	timeout  time.Duration
	logger   *zap.Logger
}

// NewRouter creates a new Router
func NewRouter(pipeline *Pipeline, counter *CounterUpdater, timeout time.Duration, logger *zap.Logger) *Router {
	if timeout <= 0 {
		timeout = DefaultHandlerTimeout
	}
	return &Router{pipeline: pipeline, counter: counter, timeout: timeout, logger: logger}
}

// OnPostUpdated runs the like notification flow and, independently, the like counter update
func (r *Router) OnPostUpdated(ctx context.Context, ev models.PostUpdatedEvent) {
	log := r.logger.With(
		zap.String("event", "post.updated"),
		zap.String("event_id", ev.EventID),
		zap.String("post_id", ev.PostID),
	)
	before := models.PostFromDocument(ev.PostID, ev.Before)
	after := models.PostFromDocument(ev.PostID, ev.After)

	r.run(ctx, log, "like notification", func(ctx context.Context) error {
		return r.pipeline.NotifyLikes(ctx, before, after)
	})
	r.run(ctx, log, "like count update", func(ctx context.Context) error {
		count, written, err := r.counter.Update(ctx, after)
		if err == nil && written {
			log.Debug("like count updated", zap.Int("like_count", count))
		}
		return err
	})
}

// OnUserUpdated runs the follow notification flow
func (r *Router) OnUserUpdated(ctx context.Context, ev models.UserUpdatedEvent) {
	log := r.logger.With(
		zap.String("event", "user.updated"),
		zap.String("event_id", ev.EventID),
		zap.String("user_id", ev.UserID),
	)
	before := models.UserFromDocument(ev.UserID, ev.Before)
	after := models.UserFromDocument(ev.UserID, ev.After)

	r.run(ctx, log, "follower notification", func(ctx context.Context) error {
		return r.pipeline.NotifyFollowers(ctx, before, after)
	})
}

// OnCommentCreated runs the comment notification flow
func (r *Router) OnCommentCreated(ctx context.Context, ev models.CommentCreatedEvent) {
	log := r.logger.With(
		zap.String("event", "comment.created"),
		zap.String("event_id", ev.EventID),
		zap.String("post_id", ev.PostID),
		zap.String("comment_id", ev.CommentID),
	)
	comment := models.CommentFromDocument(ev.PostID, ev.CommentID, ev.Value)
	r.run(ctx, log, "comment notification", func(ctx context.Context) error {
		return r.pipeline.NotifyComment(ctx, comment)
	})
}

// run is the catch-and-log boundary: errors and panics from step end here.
// Each step runs under its own timeout derived from ctx.
func (r *Router) run(ctx context.Context, log *zap.Logger, step string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	defer func() {
		if p := recover(); p != nil {
			log.Error(step+" panicked", zap.Any("panic", p), zap.Stack("stack"))
		}
	}()
	if err := fn(ctx); err != nil {
		log.Error(step+" failed", zap.Error(err))
	}
}
