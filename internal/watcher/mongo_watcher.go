// Package watcher subscribes to MongoDB change streams and feeds the
// resulting document events to the notifier.
//
// Update events need pre- and post-images: enable changeStreamPreAndPostImages
// on the posts and users collections (MongoDB 6.0+). Without a pre-image the
// event is handled as if nothing changed, so no notifications are produced but
// derived counters are still refreshed. Events without a post-image are dropped.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/nano-midea/notifier/internal/models"
	"github.com/anonto42/nano-midea/notifier/internal/repositories"
	"github.com/panjf2000/ants/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// releaseTimeout bounds how long Close waits for in-flight handlers
const releaseTimeout = 30 * time.Second

// EventRouter receives decoded store events
type EventRouter interface {
	OnPostUpdated(ctx context.Context, ev models.PostUpdatedEvent)
	OnUserUpdated(ctx context.Context, ev models.UserUpdatedEvent)
	OnCommentCreated(ctx context.Context, ev models.CommentCreatedEvent)
}

// ChangeEvent is the subset of a change stream document the watcher reads
type ChangeEvent struct {
	ID                       bson.Raw `bson:"_id"`
	OperationType            string   `bson:"operationType"`
	DocumentKey              bson.M   `bson:"documentKey"`
	FullDocument             bson.M   `bson:"fullDocument"`
	FullDocumentBeforeChange bson.M   `bson:"fullDocumentBeforeChange"`
}

// Watcher runs one change stream per watched collection and hands each
// event to a pooled handler, so events are processed concurrently.
type Watcher struct {
	db     *mongo.Database
	router EventRouter
	pool   *ants.Pool
	logger *zap.Logger
}

// NewWatcher creates a new Watcher with a handler pool of poolSize workers
func NewWatcher(db *mongo.Database, router EventRouter, poolSize int, logger *zap.Logger) (*Watcher, error) {
	pool, err := ants.NewPool(poolSize,
		ants.WithPanicHandler(func(p interface{}) {
			logger.Error("watcher handler panic recovered", zap.Any("panic", p), zap.Stack("stack"))
		}),
		ants.WithNonblocking(false),
		ants.WithExpiryDuration(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create watcher pool: %w", err)
	}
	return &Watcher{db: db, router: router, pool: pool, logger: logger}, nil
}

// Run watches posts, users and comments until ctx is cancelled or a stream fails
func (w *Watcher) Run(ctx context.Context) error {
	updates := mongo.Pipeline{{{Key: "$match", Value: bson.M{
		"operationType": bson.M{"$in": bson.A{"update", "replace"}},
	}}}}
	inserts := mongo.Pipeline{{{Key: "$match", Value: bson.M{"operationType": "insert"}}}}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.watch(ctx, models.CollectionPosts, updates, func(ctx context.Context, ev ChangeEvent) {
			post, ok := PostUpdatedFromChange(ev)
			if !ok {
				w.logger.Warn("post update without post-image ignored", zap.String("event_id", eventID(ev)))
				return
			}
			w.router.OnPostUpdated(ctx, post)
		})
	})
	g.Go(func() error {
		return w.watch(ctx, models.CollectionUsers, updates, func(ctx context.Context, ev ChangeEvent) {
			user, ok := UserUpdatedFromChange(ev)
			if !ok {
				w.logger.Warn("user update without post-image ignored", zap.String("event_id", eventID(ev)))
				return
			}
			w.router.OnUserUpdated(ctx, user)
		})
	})
	g.Go(func() error {
		return w.watch(ctx, models.CollectionComments, inserts, func(ctx context.Context, ev ChangeEvent) {
			comment, ok := CommentCreatedFromChange(ev)
			if !ok {
				w.logger.Warn("comment insert without parent post id ignored", zap.String("event_id", eventID(ev)))
				return
			}
			w.router.OnCommentCreated(ctx, comment)
		})
	})
	return g.Wait()
}

func (w *Watcher) watch(ctx context.Context, collection string, pipeline mongo.Pipeline, handle func(context.Context, ChangeEvent)) error {
	stream, err := w.db.Collection(collection).Watch(ctx, pipeline, changeStreamOptions())
	if err != nil {
		return fmt.Errorf("watch %s: %w", collection, err)
	}
	defer stream.Close(context.Background())

	log := w.logger.With(zap.String("collection", collection))
	log.Info("change stream started")

	for stream.Next(ctx) {
		var ev ChangeEvent
		if err := stream.Decode(&ev); err != nil {
			log.Warn("undecodable change event skipped", zap.Error(err))
			continue
		}
		// Handlers outlive the stream iteration but not the watcher.
		if err := w.pool.Submit(func() { handle(ctx, ev) }); err != nil {
			log.Error("failed to submit change event", zap.Error(err))
		}
	}

	if err := stream.Err(); err != nil && !errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("change stream %s: %w", collection, err)
	}
	log.Info("change stream stopped")
	return nil
}

// changeStreamOptions asks for the stored pre- and post-image of each change
// rather than a lookup of the current document.
func changeStreamOptions() *options.ChangeStreamOptions {
	return options.ChangeStream().
		SetFullDocument(options.WhenAvailable).
		SetFullDocumentBeforeChange(options.WhenAvailable)
}

// Close waits for in-flight handlers and releases the pool
func (w *Watcher) Close() {
	if err := w.pool.ReleaseTimeout(releaseTimeout); err != nil {
		w.logger.Warn("watcher pool shutdown timeout", zap.Error(err))
	}
}

// PostUpdatedFromChange converts a posts update into a PostUpdatedEvent.
// ok is false when the event carries no post-image.
func PostUpdatedFromChange(ev ChangeEvent) (models.PostUpdatedEvent, bool) {
	before, after, ok := snapshots(ev)
	if !ok {
		return models.PostUpdatedEvent{}, false
	}
	return models.PostUpdatedEvent{
		EventID: eventID(ev),
		PostID:  repositories.MongoID(ev.DocumentKey["_id"]),
		Before:  before,
		After:   after,
	}, true
}

// UserUpdatedFromChange converts a users update into a UserUpdatedEvent.
// ok is false when the event carries no post-image.
func UserUpdatedFromChange(ev ChangeEvent) (models.UserUpdatedEvent, bool) {
	before, after, ok := snapshots(ev)
	if !ok {
		return models.UserUpdatedEvent{}, false
	}
	return models.UserUpdatedEvent{
		EventID: eventID(ev),
		UserID:  repositories.MongoID(ev.DocumentKey["_id"]),
		Before:  before,
		After:   after,
	}, true
}

// CommentCreatedFromChange converts a comments insert into a CommentCreatedEvent.
// ok is false when the comment does not name its parent post.
func CommentCreatedFromChange(ev ChangeEvent) (models.CommentCreatedEvent, bool) {
	value := repositories.NormalizeMongoDocument(ev.FullDocument)
	postID := value.String(models.FieldPostID)
	if postID == "" {
		return models.CommentCreatedEvent{}, false
	}
	return models.CommentCreatedEvent{
		EventID:   eventID(ev),
		PostID:    postID,
		CommentID: repositories.MongoID(ev.DocumentKey["_id"]),
		Value:     value,
	}, true
}

// snapshots returns the pre- and post-image of the change itself. A missing
// pre-image makes before equal to after so the event yields no delta; a
// missing post-image yields ok=false.
func snapshots(ev ChangeEvent) (before, after models.Document, ok bool) {
	if ev.FullDocument == nil {
		return nil, nil, false
	}
	after = repositories.NormalizeMongoDocument(ev.FullDocument)
	if ev.FullDocumentBeforeChange == nil {
		return after, after, true
	}
	return repositories.NormalizeMongoDocument(ev.FullDocumentBeforeChange), after, true
}

func eventID(ev ChangeEvent) string {
	if len(ev.ID) == 0 {
		return ""
	}
	if data, ok := ev.ID.Lookup("_data").StringValueOK(); ok {
		return data
	}
	return ev.ID.String()
}
