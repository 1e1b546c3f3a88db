package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anonto42/nano-midea/notifier/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func postEvent(before, after models.Document) models.PostUpdatedEvent {
	return models.PostUpdatedEvent{EventID: "evt-1", PostID: "p1", Before: before, After: after}
}

func TestRouterOnPostUpdated_NotifiesAndCounts(t *testing.T) {
	f := newFixture()
	f.identity("u2", "alice", "")
	f.identity("u1", "owner", "")
	f.notifications.On("CreateNotification", mock.Anything, notificationFor(models.KindLike, "u2", "u1")).Return("n1", nil)
	f.posts.On("SetLikeCount", mock.Anything, "p1", 1).Return(nil)

	f.router(false).OnPostUpdated(context.Background(), postEvent(
		models.Document{"uid": "u1", "likes": []any{}, "likeCount": float64(0)},
		models.Document{"uid": "u1", "likes": []any{"u2"}, "likeCount": float64(0)},
	))
	f.assertExpectations(t)
}

func TestRouterOnPostUpdated_CounterRunsWhenNotificationFails(t *testing.T) {
	f := newFixture()
	f.users.On("GetIdentity", mock.Anything, "u2").Return(nil, errors.New("store unavailable"))
	f.posts.On("SetLikeCount", mock.Anything, "p1", 1).Return(nil)

	f.router(false).OnPostUpdated(context.Background(), postEvent(
		models.Document{"uid": "u1"},
		models.Document{"uid": "u1", "likes": []any{"u2"}},
	))
	f.assertExpectations(t)
}

func TestRouterOnPostUpdated_PanicRecovered(t *testing.T) {
	f := newFixture()
	f.users.On("GetIdentity", mock.Anything, "u2").Return(nil, nil).Run(func(mock.Arguments) {
		panic("boom")
	})
	f.posts.On("SetLikeCount", mock.Anything, "p1", 1).Return(nil)

	assert.NotPanics(t, func() {
		f.router(false).OnPostUpdated(context.Background(), postEvent(
			models.Document{"uid": "u1"},
			models.Document{"uid": "u1", "likes": []any{"u2"}},
		))
	})
	f.posts.AssertExpectations(t)
}

func TestRouterOnPostUpdated_CounterOutlivesSlowPush(t *testing.T) {
	f := newFixture()
	f.identity("u2", "alice", "")
	f.identity("u1", "owner", "tok-u1")
	f.notifications.On("CreateNotification", mock.Anything, notificationFor(models.KindLike, "u2", "u1")).Return("n1", nil)
	f.provider.On("Send", mock.Anything, "tok-u1", payloadOf(models.KindLike)).
		Return("", context.DeadlineExceeded).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		})
	f.posts.On("SetLikeCount", mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Err() == nil
	}), "p1", 1).Return(nil)

	router := NewRouter(f.pipeline(DeltaAll, false), NewCounterUpdater(f.posts), 50*time.Millisecond, zap.NewNop())
	router.OnPostUpdated(context.Background(), postEvent(
		models.Document{"uid": "u1"},
		models.Document{"uid": "u1", "likes": []any{"u2"}},
	))
	f.assertExpectations(t)
}

func TestRouterOnPostUpdated_SelfLikeStillCounted(t *testing.T) {
	f := newFixture()
	f.posts.On("SetLikeCount", mock.Anything, "p1", 1).Return(nil)

	f.router(false).OnPostUpdated(context.Background(), postEvent(
		models.Document{"uid": "u1"},
		models.Document{"uid": "u1", "likes": []any{"u1"}},
	))
	f.assertExpectations(t)
	f.notifications.AssertNotCalled(t, "CreateNotification", mock.Anything, mock.Anything)
}

func TestRouterOnPostUpdated_CounterWriteSkippedWhenCurrent(t *testing.T) {
	f := newFixture()

	// The counter's own write arrives as another update with unchanged likes.
	f.router(false).OnPostUpdated(context.Background(), postEvent(
		models.Document{"uid": "u1", "likes": []any{"u2"}, "likeCount": float64(0)},
		models.Document{"uid": "u1", "likes": []any{"u2"}, "likeCount": float64(1)},
	))
	f.posts.AssertNotCalled(t, "SetLikeCount", mock.Anything, mock.Anything, mock.Anything)
	f.users.AssertNotCalled(t, "GetIdentity", mock.Anything, mock.Anything)
}

func TestRouterOnPostUpdated_MissingLikesCountsZero(t *testing.T) {
	f := newFixture()
	f.posts.On("SetLikeCount", mock.Anything, "p1", 0).Return(nil)

	f.router(false).OnPostUpdated(context.Background(), postEvent(
		models.Document{"uid": "u1", "caption": "old"},
		models.Document{"uid": "u1", "caption": "new"},
	))
	f.assertExpectations(t)
}

func TestRouterOnPostUpdated_RedeliveryWithDedupe(t *testing.T) {
	f := newFixture()
	f.identity("u2", "alice", "")
	f.identity("u1", "owner", "tok-u1")
	f.notifications.On("CreateNotification", mock.Anything, notificationFor(models.KindLike, "u2", "u1")).Return("n1", nil).Once()
	f.notifications.On("CreateNotification", mock.Anything, notificationFor(models.KindLike, "u2", "u1")).Return("", models.ErrDuplicate).Once()
	f.provider.On("Send", mock.Anything, "tok-u1", payloadOf(models.KindLike)).Return("m1", nil).Once()
	f.posts.On("SetLikeCount", mock.Anything, "p1", 1).Return(nil).Twice()

	router := f.router(true)
	ev := postEvent(models.Document{"uid": "u1"}, models.Document{"uid": "u1", "likes": []any{"u2"}})
	router.OnPostUpdated(context.Background(), ev)
	router.OnPostUpdated(context.Background(), ev)

	f.assertExpectations(t)
	f.provider.AssertNumberOfCalls(t, "Send", 1)
}

func TestRouterOnUserUpdated(t *testing.T) {
	f := newFixture()
	f.identity("u2", "alice", "")
	f.identity("u1", "owner", "")
	f.notifications.On("CreateNotification", mock.Anything, notificationFor(models.KindFollow, "u2", "u1")).Return("n1", nil)

	f.router(false).OnUserUpdated(context.Background(), models.UserUpdatedEvent{
		EventID: "evt-2",
		UserID:  "u1",
		Before:  models.Document{"followers": []any{}},
		After:   models.Document{"followers": []any{"u2"}},
	})
	f.assertExpectations(t)
}

func TestRouterOnCommentCreated(t *testing.T) {
	f := newFixture()
	post := models.Post{ID: "p1", OwnerID: "u1"}
	f.posts.On("GetPost", mock.Anything, "p1").Return(&post, nil)
	f.identity("u2", "alice", "")
	f.identity("u1", "owner", "")
	f.notifications.On("CreateNotification", mock.Anything, mock.MatchedBy(func(n *models.Notification) bool {
		return n.Kind == models.KindComment && n.CommentID == "c1" && n.CommentText == "hello"
	})).Return("n1", nil)

	f.router(false).OnCommentCreated(context.Background(), models.CommentCreatedEvent{
		EventID:   "evt-3",
		PostID:    "p1",
		CommentID: "c1",
		Value:     models.Document{"uid": "u2", "text": "hello"},
	})
	f.assertExpectations(t)
}

func TestCounterUpdater(t *testing.T) {
	posts := &mockPostRepo{}
	posts.On("SetLikeCount", mock.Anything, "p1", 2).Return(errors.New("write failed"))
	counter := NewCounterUpdater(posts)

	count, written, err := counter.Update(context.Background(), models.Post{ID: "p1", Likes: []string{"u2", "u3"}})
	require.Error(t, err)
	assert.Equal(t, 2, count)
	assert.False(t, written)

	current := 2
	count, written, err = counter.Update(context.Background(), models.Post{ID: "p1", Likes: []string{"u2", "u3"}, LikeCount: &current})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.False(t, written)
	posts.AssertNumberOfCalls(t, "SetLikeCount", 1)
}

func TestCounterUpdater_SameSnapshotTwice(t *testing.T) {
	posts := &mockPostRepo{}
	posts.On("SetLikeCount", mock.Anything, "p1", 1).Return(nil)
	counter := NewCounterUpdater(posts)
	after := models.Post{ID: "p1", Likes: []string{"u2"}}

	first, _, err := counter.Update(context.Background(), after)
	require.NoError(t, err)
	second, _, err := counter.Update(context.Background(), after)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, second)
}
