package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"healthcare-messaging-server/internal/messaging"
)

type stubMessageService struct {
	err         error
	lastActor   messaging.UserID
	lastPartner messaging.UserID
}

func (s *stubMessageService) Send(_ context.Context, actor, receiver messaging.UserID, _ string) (messaging.Message, error) {
	s.lastActor, s.lastPartner = actor, receiver
	return messaging.Message{}, s.err
}

func (s *stubMessageService) ListConversations(_ context.Context, actor messaging.UserID) ([]messaging.Conversation, error) {
	s.lastActor = actor
	return nil, s.err
}

func (s *stubMessageService) OpenConversation(_ context.Context, actor, counterpart messaging.UserID) (messaging.Thread, error) {
	s.lastActor, s.lastPartner = actor, counterpart
	return messaging.Thread{}, s.err
}

func (s *stubMessageService) MessagesSince(_ context.Context, actor messaging.UserID, _ time.Time) ([]messaging.Message, error) {
	s.lastActor = actor
	return nil, s.err
}

func (s *stubMessageService) MarkMessageRead(_ context.Context, actor messaging.UserID, _ messaging.MessageID) (messaging.Message, error) {
	s.lastActor = actor
	return messaging.Message{}, s.err
}

func (s *stubMessageService) UnreadCount(_ context.Context, actor messaging.UserID) (int64, error) {
	s.lastActor = actor
	return 0, s.err
}

func newStubRouter(service MessageService, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewMessageHandler(service, slog.New(slog.NewTextHandler(io.Discard, nil)))

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set("userID", userID)
		}
		c.Next()
	})
	router.GET("/conversations", handler.GetConversations)
	router.GET("/unread-count", handler.GetUnreadCount)
	return router
}

func TestStoreFailuresAreInternalErrors(t *testing.T) {
	service := &stubMessageService{err: &messaging.StoreError{Op: "find by sender", Err: errors.New("connection refused")}}
	router := newStubRouter(service, "user-42")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conversations", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, messaging.UserID("user-42"), service.lastActor)
	require.NotContains(t, rec.Body.String(), "connection refused")
}

func TestMissingActorIsPassedThroughAsUnauthenticated(t *testing.T) {
	service := &stubMessageService{err: messaging.ErrUnauthenticated}
	router := newStubRouter(service, "")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/unread-count", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, messaging.UserID(""), service.lastActor)
}
