package notifier

import (
	"context"

	"github.com/anonto42/nano-midea/notifier/internal/models"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// --- mocks ---

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) GetIdentity(ctx context.Context, id string) (*models.Identity, error) {
	args := m.Called(ctx, id)
	if u, _ := args.Get(0).(*models.Identity); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserRepo) ClearDeliveryToken(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockPostRepo struct{ mock.Mock }

func (m *mockPostRepo) GetPost(ctx context.Context, id string) (*models.Post, error) {
	args := m.Called(ctx, id)
	if p, _ := args.Get(0).(*models.Post); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockPostRepo) SetLikeCount(ctx context.Context, id string, count int) error {
	return m.Called(ctx, id, count).Error(0)
}

type mockNotificationRepo struct{ mock.Mock }

func (m *mockNotificationRepo) CreateNotification(ctx context.Context, n *models.Notification) (string, error) {
	args := m.Called(ctx, n)
	return args.String(0), args.Error(1)
}

type mockProvider struct{ mock.Mock }

func (m *mockProvider) Send(ctx context.Context, token string, payload models.PushPayload) (string, error) {
	args := m.Called(ctx, token, payload)
	return args.String(0), args.Error(1)
}

// --- helpers ---

type fixture struct {
	users         *mockUserRepo
	posts         *mockPostRepo
	notifications *mockNotificationRepo
	provider      *mockProvider
}

func newFixture() *fixture {
	return &fixture{
		users:         &mockUserRepo{},
		posts:         &mockPostRepo{},
		notifications: &mockNotificationRepo{},
		provider:      &mockProvider{},
	}
}

func (f *fixture) pipeline(policy DeltaPolicy, dedupe bool) *Pipeline {
	logger := zap.NewNop()
	return NewPipeline(
		NewResolver(f.users, f.posts),
		NewWriter(f.notifications, dedupe),
		NewDispatcher(f.users, f.provider, true, logger),
		policy,
		logger,
	)
}

func (f *fixture) router(dedupe bool) *Router {
	return NewRouter(f.pipeline(DeltaAll, dedupe), NewCounterUpdater(f.posts), 0, zap.NewNop())
}

func (f *fixture) assertExpectations(t mock.TestingT) {
	f.users.AssertExpectations(t)
	f.posts.AssertExpectations(t)
	f.notifications.AssertExpectations(t)
	f.provider.AssertExpectations(t)
}

func (f *fixture) identity(id, name, token string) {
	f.users.On("GetIdentity", mock.Anything, id).
		Return(&models.Identity{ID: id, DisplayName: name, DeliveryToken: token}, nil)
}

func notificationFor(kind models.Kind, actorID, recipientID string) interface{} {
	return mock.MatchedBy(func(n *models.Notification) bool {
		return n.Kind == kind && n.ActorID == actorID && n.RecipientID == recipientID
	})
}

func payloadOf(kind models.Kind) interface{} {
	return mock.MatchedBy(func(p models.PushPayload) bool {
		return p.Data[models.FieldType] == string(kind)
	})
}
