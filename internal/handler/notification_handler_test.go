package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tunehive.app/backend/internal/gateway"
	"tunehive.app/backend/internal/model"
	"tunehive.app/backend/internal/service"
	"tunehive.app/backend/pkg/apperror"
)

// fakeNotificationService records the arguments handlers pass down and
// replies with canned results.
type fakeNotificationService struct {
	page        *service.NotificationPage
	unreadCount int64
	err         error

	gotPage   int
	gotLimit  int
	gotID     string
	gotUserID string
}

func (f *fakeNotificationService) CreateMessageNotification(context.Context, string, string, string, string, string) (*model.Notification, error) {
	return nil, nil
}

func (f *fakeNotificationService) CreateGroupMessageNotification(context.Context, []string, string, string, string, string, string) ([]model.Notification, error) {
	return nil, nil
}

func (f *fakeNotificationService) CreatePostLikeNotification(context.Context, string, string, string, string, string, string) (*model.Notification, error) {
	return nil, nil
}

func (f *fakeNotificationService) CreatePostCommentNotification(context.Context, string, string, string, string, string, string, string) (*model.Notification, error) {
	return nil, nil
}

func (f *fakeNotificationService) CreateFanbasePostLikeNotification(context.Context, string, string, string, string, string, string, string) (*model.Notification, error) {
	return nil, nil
}

func (f *fakeNotificationService) CreateFanbasePostCommentNotification(context.Context, string, string, string, string, string, string, string, string) (*model.Notification, error) {
	return nil, nil
}

func (f *fakeNotificationService) GetUserNotifications(_ context.Context, userID string, page, limit int) (*service.NotificationPage, error) {
	f.gotUserID = userID
	f.gotPage = page
	f.gotLimit = limit
	return f.page, f.err
}

func (f *fakeNotificationService) GetUnreadCount(_ context.Context, userID string) (int64, error) {
	f.gotUserID = userID
	return f.unreadCount, f.err
}

func (f *fakeNotificationService) MarkAsRead(_ context.Context, notificationID, userID string) error {
	f.gotID = notificationID
	f.gotUserID = userID
	return f.err
}

func (f *fakeNotificationService) MarkAllAsRead(_ context.Context, userID string) error {
	f.gotUserID = userID
	return f.err
}

func (f *fakeNotificationService) DeleteNotification(_ context.Context, notificationID, userID string) error {
	f.gotID = notificationID
	f.gotUserID = userID
	return f.err
}

func (f *fakeNotificationService) CleanupOldNotifications(context.Context, int) (int64, error) {
	return 0, nil
}

func setupRouter(svc service.NotificationService, userID primitive.ObjectID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewNotificationHandler(svc, gateway.New(gateway.NewRegistry(), svc, zerolog.Nop()))

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if !userID.IsZero() {
			c.Set("user_id", userID.Hex())
		}
	})
	router.GET("/api/notifications", h.GetNotifications)
	router.GET("/api/notifications/unread-count", h.UnreadCount)
	router.PUT("/api/notifications/:id/read", h.MarkAsRead)
	router.PUT("/api/notifications/read-all", h.MarkAllAsRead)
	router.DELETE("/api/notifications/:id", h.DeleteNotification)
	router.GET("/api/notifications/online-count", h.OnlineCount)
	return router
}

func perform(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestGetNotifications_DefaultsAndPassthrough(t *testing.T) {
	svc := &fakeNotificationService{
		page: &service.NotificationPage{
			Notifications:      []model.Notification{},
			CurrentPage:        1,
			TotalPages:         1,
			TotalNotifications: 0,
		},
	}
	userID := primitive.NewObjectID()
	router := setupRouter(svc, userID)

	w := perform(router, http.MethodGet, "/api/notifications")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, svc.gotPage)
	assert.Equal(t, 20, svc.gotLimit)
	assert.Equal(t, userID.Hex(), svc.gotUserID)

	w = perform(router, http.MethodGet, "/api/notifications?page=3&limit=5")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, svc.gotPage)
	assert.Equal(t, 5, svc.gotLimit)
}

func TestGetNotifications_Unauthenticated(t *testing.T) {
	router := setupRouter(&fakeNotificationService{}, primitive.NilObjectID)

	w := perform(router, http.MethodGet, "/api/notifications")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUnreadCount(t *testing.T) {
	svc := &fakeNotificationService{unreadCount: 7}
	router := setupRouter(svc, primitive.NewObjectID())

	w := perform(router, http.MethodGet, "/api/notifications/unread-count")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]int64
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(7), body["count"])
}

func TestMarkAsRead_NotFoundMapsTo404(t *testing.T) {
	svc := &fakeNotificationService{err: apperror.ErrNotFound}
	userID := primitive.NewObjectID()
	router := setupRouter(svc, userID)

	notificationID := primitive.NewObjectID().Hex()
	w := perform(router, http.MethodPut, "/api/notifications/"+notificationID+"/read")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, notificationID, svc.gotID)
	assert.Equal(t, userID.Hex(), svc.gotUserID)
}

func TestMarkAsRead_InvalidIDMapsTo400(t *testing.T) {
	svc := &fakeNotificationService{err: apperror.Wrap(apperror.ErrInvalidInput, "malformed id")}
	router := setupRouter(svc, primitive.NewObjectID())

	w := perform(router, http.MethodPut, "/api/notifications/nope/read")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarkAllAsRead(t *testing.T) {
	svc := &fakeNotificationService{}
	userID := primitive.NewObjectID()
	router := setupRouter(svc, userID)

	w := perform(router, http.MethodPut, "/api/notifications/read-all")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID.Hex(), svc.gotUserID)
}

func TestDeleteNotification(t *testing.T) {
	svc := &fakeNotificationService{}
	router := setupRouter(svc, primitive.NewObjectID())

	notificationID := primitive.NewObjectID().Hex()
	w := perform(router, http.MethodDelete, "/api/notifications/"+notificationID)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, notificationID, svc.gotID)
}

func TestOnlineCount_NoAuthRequiredFields(t *testing.T) {
	router := setupRouter(&fakeNotificationService{}, primitive.NewObjectID())

	w := perform(router, http.MethodGet, "/api/notifications/online-count")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 0, body["onlineUsers"])
}
