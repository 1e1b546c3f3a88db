package handlers

import (
	"context"
	"net/http"

	"github.com/anonto42/nano-midea/notifier/internal/models"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// headerCloudEventID carries the delivery id in CloudEvents binary mode
const headerCloudEventID = "Ce-Id"

// EventRouter receives decoded store events
type EventRouter interface {
	OnPostUpdated(ctx context.Context, ev models.PostUpdatedEvent)
	OnUserUpdated(ctx context.Context, ev models.UserUpdatedEvent)
	OnCommentCreated(ctx context.Context, ev models.CommentCreatedEvent)
}

// TriggerHandler accepts push deliveries of document change events
type TriggerHandler struct {
	router EventRouter
}

// NewTriggerHandler creates a new TriggerHandler
func NewTriggerHandler(router EventRouter) *TriggerHandler {
	return &TriggerHandler{router: router}
}

// changeEnvelope is the body of an update delivery
type changeEnvelope struct {
	Before models.Document `json:"before"`
	After  models.Document `json:"after" validate:"required"`
}

// createEnvelope is the body of a create delivery
type createEnvelope struct {
	Value models.Document `json:"value" validate:"required"`
}

// RegisterTriggerRoutes registers trigger routes
func (h *TriggerHandler) RegisterTriggerRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/updated", h.PostUpdated)
	g.POST("/users/:user_id/updated", h.UserUpdated)
	g.POST("/posts/:post_id/comments/:comment_id/created", h.CommentCreated)
}

// PostUpdated handles a posts/{postId} update
func (h *TriggerHandler) PostUpdated(c echo.Context) error {
	var body changeEnvelope
	if err := bindEnvelope(c, &body); err != nil {
		return err
	}

	h.router.OnPostUpdated(c.Request().Context(), models.PostUpdatedEvent{
		EventID: eventID(c),
		PostID:  c.Param("post_id"),
		Before:  body.Before,
		After:   body.After,
	})
	return c.NoContent(http.StatusNoContent)
}

// UserUpdated handles a users/{userId} update
func (h *TriggerHandler) UserUpdated(c echo.Context) error {
	var body changeEnvelope
	if err := bindEnvelope(c, &body); err != nil {
		return err
	}

	h.router.OnUserUpdated(c.Request().Context(), models.UserUpdatedEvent{
		EventID: eventID(c),
		UserID:  c.Param("user_id"),
		Before:  body.Before,
		After:   body.After,
	})
	return c.NoContent(http.StatusNoContent)
}

// CommentCreated handles a posts/{postId}/comments/{commentId} creation
func (h *TriggerHandler) CommentCreated(c echo.Context) error {
	var body createEnvelope
	if err := bindEnvelope(c, &body); err != nil {
		return err
	}

	h.router.OnCommentCreated(c.Request().Context(), models.CommentCreatedEvent{
		EventID:   eventID(c),
		PostID:    c.Param("post_id"),
		CommentID: c.Param("comment_id"),
		Value:     body.Value,
	})
	return c.NoContent(http.StatusNoContent)
}

func bindEnvelope(c echo.Context, body interface{}) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid event body").SetInternal(err)
	}
	if err := c.Validate(body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func eventID(c echo.Context) string {
	if id := c.Request().Header.Get(headerCloudEventID); id != "" {
		return id
	}
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return uuid.NewString()
}
