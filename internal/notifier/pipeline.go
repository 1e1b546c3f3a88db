package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/anonto42/nano-midea/notifier/internal/models"
	"go.uber.org/zap"
)

// Pipeline runs the like, follow and comment notification flows:
// detect the delta, drop self-actions, resolve the actor, write the
// notification, then attempt push delivery.
type Pipeline struct {
	resolver   *Resolver
	writer     *Writer
	dispatcher *Dispatcher
	policy     DeltaPolicy
	logger     *zap.Logger
}

// NewPipeline creates a new Pipeline
func NewPipeline(resolver *Resolver, writer *Writer, dispatcher *Dispatcher, policy DeltaPolicy, logger *zap.Logger) *Pipeline {
	if policy == "" {
		policy = DeltaAll
	}
	return &Pipeline{
		resolver:   resolver,
		writer:     writer,
		dispatcher: dispatcher,
		policy:     policy,
		logger:     logger,
	}
}

// NotifyLikes notifies the post owner about likes added between before and after
func (p *Pipeline) NotifyLikes(ctx context.Context, before, after models.Post) error {
	log := p.logger.With(zap.String("kind", string(models.KindLike)), zap.String("post_id", after.ID))

	added := AddedMembers(before.Likes, after.Likes)
	if len(added) == 0 {
		return nil
	}
	if after.OwnerID == "" {
		log.Info("post has no owner, like notification skipped")
		return nil
	}

	likers := ExcludeSelf(added, after.OwnerID, p.policy)
	if len(likers) == 0 {
		log.Debug("self-like ignored", zap.String("owner_id", after.OwnerID))
		return nil
	}

	var errs []error
	for _, likerID := range likers {
		if err := p.notifyLike(ctx, after, likerID, log); err != nil {
			errs = append(errs, fmt.Errorf("liker %s: %w", likerID, err))
		}
	}
	return errors.Join(errs...)
}

func (p *Pipeline) notifyLike(ctx context.Context, post models.Post, likerID string, log *zap.Logger) error {
	liker, err := p.resolver.ResolveIdentity(ctx, likerID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.Info("liker user not found", zap.String("actor_id", likerID))
			return nil
		}
		return fmt.Errorf("resolve liker: %w", err)
	}
	return p.deliver(ctx, models.NewLikeNotification(post, liker), log)
}

// NotifyFollowers notifies userID about followers added between before and after
func (p *Pipeline) NotifyFollowers(ctx context.Context, before, after models.User) error {
	log := p.logger.With(zap.String("kind", string(models.KindFollow)), zap.String("user_id", after.ID))

	added := AddedMembers(before.Followers, after.Followers)
	if len(added) == 0 {
		return nil
	}

	followers := ExcludeSelf(added, after.ID, p.policy)
	if len(followers) == 0 {
		log.Debug("self-follow ignored")
		return nil
	}

	var errs []error
	for _, followerID := range followers {
		if err := p.notifyFollow(ctx, after.ID, followerID, log); err != nil {
			errs = append(errs, fmt.Errorf("follower %s: %w", followerID, err))
		}
	}
	return errors.Join(errs...)
}

func (p *Pipeline) notifyFollow(ctx context.Context, userID, followerID string, log *zap.Logger) error {
	follower, err := p.resolver.ResolveIdentity(ctx, followerID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.Info("follower user not found", zap.String("actor_id", followerID))
			return nil
		}
		return fmt.Errorf("resolve follower: %w", err)
	}
	return p.deliver(ctx, models.NewFollowNotification(userID, follower), log)
}

// NotifyComment notifies the owner of the parent post about a new comment
func (p *Pipeline) NotifyComment(ctx context.Context, comment models.Comment) error {
	log := p.logger.With(
		zap.String("kind", string(models.KindComment)),
		zap.String("post_id", comment.PostID),
		zap.String("comment_id", comment.ID),
	)

	if comment.AuthorID == "" {
		log.Info("comment has no author, notification skipped")
		return nil
	}

	post, err := p.resolver.ResolvePost(ctx, comment.PostID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.Info("post not found")
			return nil
		}
		return fmt.Errorf("resolve post: %w", err)
	}
	if post.OwnerID == "" {
		log.Info("post has no owner, comment notification skipped")
		return nil
	}
	if comment.AuthorID == post.OwnerID {
		log.Debug("self-comment ignored")
		return nil
	}

	commenter, err := p.resolver.ResolveIdentity(ctx, comment.AuthorID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.Info("commenter user not found", zap.String("actor_id", comment.AuthorID))
			return nil
		}
		return fmt.Errorf("resolve commenter: %w", err)
	}
	return p.deliver(ctx, models.NewCommentNotification(*post, comment, commenter), log)
}

// deliver writes n and, once it is stored, hands it to the dispatcher.
// A duplicate under dedupe is neither an error nor pushed again.
func (p *Pipeline) deliver(ctx context.Context, n *models.Notification, log *zap.Logger) error {
	id, err := p.writer.Write(ctx, n)
	if err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			log.Info("duplicate notification suppressed", zap.String("idempotency_key", n.IdempotencyKey))
			return nil
		}
		return fmt.Errorf("write %s notification: %w", n.Kind, err)
	}
	log.Info("notification created",
		zap.String("notification_id", id),
		zap.String("actor_id", n.ActorID),
		zap.String("recipient_id", n.RecipientID),
	)

	p.dispatcher.Dispatch(ctx, n.RecipientID, n.Kind, n.Correlation())
	return nil
}
