package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tunehive.app/backend/internal/model"
	"tunehive.app/backend/pkg/apperror"
)

// fakeNotificationRepo is an in-memory stand-in for the Mongo repository.
type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications []*model.Notification
}

func (f *fakeNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	n.ID = primitive.NewObjectID()
	n.CreatedAt = now
	n.UpdatedAt = now
	f.notifications = append(f.notifications, n)
	return nil
}

func (f *fakeNotificationRepo) CreateMany(ctx context.Context, ns []*model.Notification) error {
	for _, n := range ns {
		if err := f.Create(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeNotificationRepo) FindByRecipient(_ context.Context, recipientID primitive.ObjectID, page, limit int) ([]model.Notification, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []model.Notification
	for _, n := range f.notifications {
		if n.RecipientID == recipientID {
			matched = append(matched, *n)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (page - 1) * limit
	if start >= len(matched) {
		return []model.Notification{}, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func likeContentID(n *model.Notification) primitive.ObjectID {
	switch p := n.Data.(type) {
	case *model.PostLikePayload:
		return p.PostID
	case *model.FanbasePostLikePayload:
		return p.FanbasePostID
	}
	return primitive.NilObjectID
}

func (f *fakeNotificationRepo) FindLike(_ context.Context, recipientID, senderID primitive.ObjectID, notificationType model.NotificationType, _ string, contentID primitive.ObjectID) (*model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.notifications {
		if n.RecipientID == recipientID && n.SenderID == senderID && n.Type == notificationType && likeContentID(n) == contentID {
			copied := *n
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeNotificationRepo) CountUnread(_ context.Context, recipientID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, n := range f.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationRepo) MarkAsRead(_ context.Context, id, recipientID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.notifications {
		if n.ID == id && n.RecipientID == recipientID {
			n.IsRead = true
			return nil
		}
	}
	return apperror.ErrNotFound
}

func (f *fakeNotificationRepo) MarkAllAsRead(_ context.Context, recipientID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var modified int64
	for _, n := range f.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			n.IsRead = true
			modified++
		}
	}
	return modified, nil
}

func (f *fakeNotificationRepo) Delete(_ context.Context, id, recipientID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, n := range f.notifications {
		if n.ID == id && n.RecipientID == recipientID {
			f.notifications = append(f.notifications[:i], f.notifications[i+1:]...)
			return nil
		}
	}
	return apperror.ErrNotFound
}

func (f *fakeNotificationRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []*model.Notification
	var deleted int64
	for _, n := range f.notifications {
		if n.CreatedAt.Before(cutoff) {
			deleted++
		} else {
			kept = append(kept, n)
		}
	}
	f.notifications = kept
	return deleted, nil
}

func (f *fakeNotificationRepo) EnsureIndexes(context.Context) error { return nil }

func (f *fakeNotificationRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.notifications)
}

func newTestService() (NotificationService, *fakeNotificationRepo) {
	repo := &fakeNotificationRepo{}
	return NewNotificationService(repo, zerolog.Nop()), repo
}

func newID() string { return primitive.NewObjectID().Hex() }

func TestCreateMessageNotification_SelfSuppressed(t *testing.T) {
	svc, repo := newTestService()
	userID := newID()

	n, err := svc.CreateMessageNotification(context.Background(), userID, userID, "alice", newID(), "hey")
	require.NoError(t, err)
	assert.Nil(t, n)
	assert.Equal(t, 0, repo.count())
}

func TestCreateLikeAndCommentNotifications_SelfSuppressed(t *testing.T) {
	svc, repo := newTestService()
	userID := newID()
	ctx := context.Background()

	n, err := svc.CreatePostLikeNotification(ctx, userID, userID, "alice", newID(), "Song", "Artist")
	require.NoError(t, err)
	assert.Nil(t, n)

	n, err = svc.CreatePostCommentNotification(ctx, userID, userID, "alice", newID(), "Song", "Artist", "nice")
	require.NoError(t, err)
	assert.Nil(t, n)

	n, err = svc.CreateFanbasePostLikeNotification(ctx, userID, userID, "alice", newID(), "Indieheads", "release day", newID())
	require.NoError(t, err)
	assert.Nil(t, n)

	n, err = svc.CreateFanbasePostCommentNotification(ctx, userID, userID, "alice", newID(), "Indieheads", "release day", newID(), "agreed")
	require.NoError(t, err)
	assert.Nil(t, n)

	assert.Equal(t, 0, repo.count())
}

func TestCreateMessageNotification_TruncatesLongText(t *testing.T) {
	svc, _ := newTestService()

	long := strings.Repeat("a", 60)
	n, err := svc.CreateMessageNotification(context.Background(), newID(), newID(), "alice", newID(), long)
	require.NoError(t, err)
	require.NotNil(t, n)

	payload, ok := n.Data.(*model.MessagePayload)
	require.True(t, ok)
	assert.Equal(t, strings.Repeat("a", 50)+"...", payload.MessageText)
	assert.Contains(t, n.Message, strings.Repeat("a", 50)+"...")
	assert.NotContains(t, n.Message, strings.Repeat("a", 51))
}

func TestCreateMessageNotification_ShortTextVerbatim(t *testing.T) {
	svc, _ := newTestService()

	exactly50 := strings.Repeat("b", 50)
	n, err := svc.CreateMessageNotification(context.Background(), newID(), newID(), "alice", newID(), exactly50)
	require.NoError(t, err)
	require.NotNil(t, n)

	payload := n.Data.(*model.MessagePayload)
	assert.Equal(t, exactly50, payload.MessageText)
}

func TestCreatePostLikeNotification_Deduplicates(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	recipient, sender, post := newID(), newID(), newID()

	first, err := svc.CreatePostLikeNotification(ctx, recipient, sender, "alice", post, "Song", "Artist")
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := svc.CreatePostLikeNotification(ctx, recipient, sender, "alice", post, "Song", "Artist")
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, repo.count())
}

func TestCreatePostLikeNotification_DifferentPostsNotDeduplicated(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	recipient, sender := newID(), newID()

	_, err := svc.CreatePostLikeNotification(ctx, recipient, sender, "alice", newID(), "Song", "Artist")
	require.NoError(t, err)
	_, err = svc.CreatePostLikeNotification(ctx, recipient, sender, "alice", newID(), "Other", "Artist")
	require.NoError(t, err)

	assert.Equal(t, 2, repo.count())
}

func TestCreateFanbasePostLikeNotification_Deduplicates(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	recipient, sender, fanbase, fanbasePost := newID(), newID(), newID(), newID()

	first, err := svc.CreateFanbasePostLikeNotification(ctx, recipient, sender, "alice", fanbase, "Indieheads", "release day", fanbasePost)
	require.NoError(t, err)
	second, err := svc.CreateFanbasePostLikeNotification(ctx, recipient, sender, "alice", fanbase, "Indieheads", "release day", fanbasePost)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, repo.count())
}

func TestCreatePostCommentNotification_NoDedup(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	recipient, sender, post := newID(), newID(), newID()

	first, err := svc.CreatePostCommentNotification(ctx, recipient, sender, "alice", post, "Song", "Artist", "first comment")
	require.NoError(t, err)
	second, err := svc.CreatePostCommentNotification(ctx, recipient, sender, "alice", post, "Song", "Artist", "second comment")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, repo.count())
}

func TestCreateGroupMessageNotification_ExcludesSender(t *testing.T) {
	svc, repo := newTestService()
	sender, memberB, memberC := newID(), newID(), newID()

	inserted, err := svc.CreateGroupMessageNotification(context.Background(),
		[]string{sender, memberB, memberC}, sender, "alice", newID(), "Indie Swap", "new drop!")
	require.NoError(t, err)

	require.Len(t, inserted, 2)
	assert.Equal(t, 2, repo.count())
	recipients := []string{inserted[0].RecipientID.Hex(), inserted[1].RecipientID.Hex()}
	assert.ElementsMatch(t, []string{memberB, memberC}, recipients)
}

func TestCreateGroupMessageNotification_OnlySenderYieldsEmptySet(t *testing.T) {
	svc, repo := newTestService()
	sender := newID()

	inserted, err := svc.CreateGroupMessageNotification(context.Background(),
		[]string{sender}, sender, "alice", newID(), "Solo", "talking to myself")
	require.NoError(t, err)
	assert.Empty(t, inserted)
	assert.Equal(t, 0, repo.count())
}

func TestGetUserNotifications_InvalidID(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.GetUserNotifications(context.Background(), "not-an-object-id", 1, 20)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestGetUserNotifications_PaginationMetadata(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	recipient := newID()

	for i := 0; i < 25; i++ {
		_, err := svc.CreatePostCommentNotification(ctx, recipient, newID(), "alice", newID(), "Song", "Artist", "hi")
		require.NoError(t, err)
	}

	page, err := svc.GetUserNotifications(ctx, recipient, 1, 10)
	require.NoError(t, err)
	assert.Len(t, page.Notifications, 10)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, int64(25), page.TotalNotifications)
	assert.Equal(t, int64(25), page.UnreadCount)

	// Out-of-range params are clamped, not rejected.
	page, err = svc.GetUserNotifications(ctx, recipient, 0, 999)
	require.NoError(t, err)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Len(t, page.Notifications, 20)
}

func TestMarkAsRead_WrongUserIsNotFound(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	recipient := newID()

	n, err := svc.CreateMessageNotification(ctx, recipient, newID(), "alice", newID(), "hello")
	require.NoError(t, err)

	err = svc.MarkAsRead(ctx, n.ID.Hex(), newID())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.False(t, repo.notifications[0].IsRead)

	require.NoError(t, svc.MarkAsRead(ctx, n.ID.Hex(), recipient))
	assert.True(t, repo.notifications[0].IsRead)
}

func TestMarkAllAsRead_ZeroesUnreadCount(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	recipient := newID()

	for i := 0; i < 3; i++ {
		_, err := svc.CreateMessageNotification(ctx, recipient, newID(), "alice", newID(), "hello")
		require.NoError(t, err)
	}

	require.NoError(t, svc.MarkAllAsRead(ctx, recipient))

	count, err := svc.GetUnreadCount(ctx, recipient)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestDeleteNotification_OwnershipEnforced(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	recipient := newID()

	n, err := svc.CreateMessageNotification(ctx, recipient, newID(), "alice", newID(), "hello")
	require.NoError(t, err)

	err = svc.DeleteNotification(ctx, n.ID.Hex(), newID())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, 1, repo.count())

	require.NoError(t, svc.DeleteNotification(ctx, n.ID.Hex(), recipient))
	assert.Equal(t, 0, repo.count())
}

func TestCleanupOldNotifications_RespectsCutoff(t *testing.T) {
	svc, repo := newTestService()
	recipient := primitive.NewObjectID()

	old := &model.Notification{
		ID:          primitive.NewObjectID(),
		RecipientID: recipient,
		Type:        model.NotificationTypeMessage,
		CreatedAt:   time.Now().AddDate(0, 0, -31),
	}
	recent := &model.Notification{
		ID:          primitive.NewObjectID(),
		RecipientID: recipient,
		Type:        model.NotificationTypeMessage,
		CreatedAt:   time.Now().AddDate(0, 0, -29),
	}
	repo.notifications = append(repo.notifications, old, recent)

	deleted, err := svc.CleanupOldNotifications(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	require.Equal(t, 1, repo.count())
	assert.Equal(t, recent.ID, repo.notifications[0].ID)
}

func TestCleanupOldNotifications_RejectsNonPositiveDays(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CleanupOldNotifications(context.Background(), 0)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}
