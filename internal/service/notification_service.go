package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tunehive.app/backend/internal/model"
	"tunehive.app/backend/internal/repository"
	"tunehive.app/backend/pkg/apperror"
)

// maxSnippetLen caps message/comment text stored in notification records.
const maxSnippetLen = 50

// NotificationPage is one page of a recipient's notifications, newest first.
type NotificationPage struct {
	Notifications      []model.Notification `json:"notifications"`
	CurrentPage        int                  `json:"currentPage"`
	TotalPages         int                  `json:"totalPages"`
	TotalNotifications int64                `json:"totalNotifications"`
	UnreadCount        int64                `json:"unreadCount"`
}

type NotificationService interface {
	CreateMessageNotification(ctx context.Context, recipientID, senderID, senderUsername, chatID, messageText string) (*model.Notification, error)
	CreateGroupMessageNotification(ctx context.Context, memberIDs []string, senderID, senderUsername, groupChatID, groupName, messageText string) ([]model.Notification, error)
	CreatePostLikeNotification(ctx context.Context, recipientID, senderID, senderUsername, postID, songName, artistName string) (*model.Notification, error)
	CreatePostCommentNotification(ctx context.Context, recipientID, senderID, senderUsername, postID, songName, artistName, commentText string) (*model.Notification, error)
	CreateFanbasePostLikeNotification(ctx context.Context, recipientID, senderID, senderUsername, fanbaseID, fanbaseName, postTopic, fanbasePostID string) (*model.Notification, error)
	CreateFanbasePostCommentNotification(ctx context.Context, recipientID, senderID, senderUsername, fanbaseID, fanbaseName, postTopic, fanbasePostID, commentText string) (*model.Notification, error)
	GetUserNotifications(ctx context.Context, userID string, page, limit int) (*NotificationPage, error)
	GetUnreadCount(ctx context.Context, userID string) (int64, error)
	MarkAsRead(ctx context.Context, notificationID, userID string) error
	MarkAllAsRead(ctx context.Context, userID string) error
	DeleteNotification(ctx context.Context, notificationID, userID string) error
	CleanupOldNotifications(ctx context.Context, daysOld int) (int64, error)
}

type notificationService struct {
	repo   repository.NotificationRepository
	logger zerolog.Logger
}

func NewNotificationService(repo repository.NotificationRepository, logger zerolog.Logger) NotificationService {
	return &notificationService{
		repo:   repo,
		logger: logger.With().Str("component", "notification-service").Logger(),
	}
}

// truncate shortens text to maxSnippetLen runes, marking the cut with an
// ellipsis.
func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= maxSnippetLen {
		return text
	}
	return string(runes[:maxSnippetLen]) + "..."
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperror.Wrap(apperror.ErrInvalidInput, "malformed id %q", id)
	}
	return oid, nil
}

// CreateMessageNotification persists a message-type record. Sending a
// message to yourself is silently suppressed and returns nil.
func (s *notificationService) CreateMessageNotification(ctx context.Context, recipientID, senderID, senderUsername, chatID, messageText string) (*model.Notification, error) {
	if recipientID == senderID {
		return nil, nil
	}

	recipient, err := parseID(recipientID)
	if err != nil {
		return nil, err
	}
	sender, err := parseID(senderID)
	if err != nil {
		return nil, err
	}
	chat, err := parseID(chatID)
	if err != nil {
		return nil, err
	}

	snippet := truncate(messageText)
	notification := &model.Notification{
		RecipientID:    recipient,
		SenderID:       sender,
		SenderUsername: senderUsername,
		Type:           model.NotificationTypeMessage,
		Title:          "New Message",
		Message:        fmt.Sprintf("%s sent you a message: %s", senderUsername, snippet),
		Data: &model.MessagePayload{
			ChatID:      chat,
			MessageText: snippet,
		},
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, err
	}
	return notification, nil
}

// CreateGroupMessageNotification persists one record per member, excluding
// the sender, in a single batched insert. Returns the inserted set; an empty
// slice when no member is eligible.
func (s *notificationService) CreateGroupMessageNotification(ctx context.Context, memberIDs []string, senderID, senderUsername, groupChatID, groupName, messageText string) ([]model.Notification, error) {
	sender, err := parseID(senderID)
	if err != nil {
		return nil, err
	}
	group, err := parseID(groupChatID)
	if err != nil {
		return nil, err
	}

	snippet := truncate(messageText)
	message := fmt.Sprintf("%s sent a message in %s: %s", senderUsername, groupName, snippet)

	var batch []*model.Notification
	for _, memberID := range memberIDs {
		if memberID == senderID {
			continue
		}
		member, err := parseID(memberID)
		if err != nil {
			return nil, err
		}
		batch = append(batch, &model.Notification{
			RecipientID:    member,
			SenderID:       sender,
			SenderUsername: senderUsername,
			Type:           model.NotificationTypeGroupMessage,
			Title:          "New Group Message",
			Message:        message,
			Data: &model.GroupMessagePayload{
				GroupChatID: group,
				GroupName:   groupName,
				MessageText: snippet,
			},
		})
	}

	if err := s.repo.CreateMany(ctx, batch); err != nil {
		return nil, err
	}

	inserted := make([]model.Notification, len(batch))
	for i, n := range batch {
		inserted[i] = *n
	}
	return inserted, nil
}

// CreatePostLikeNotification is dedup-checked: a repeat like of the same
// post by the same sender returns the existing record instead of inserting
// a duplicate.
func (s *notificationService) CreatePostLikeNotification(ctx context.Context, recipientID, senderID, senderUsername, postID, songName, artistName string) (*model.Notification, error) {
	if recipientID == senderID {
		return nil, nil
	}

	recipient, err := parseID(recipientID)
	if err != nil {
		return nil, err
	}
	sender, err := parseID(senderID)
	if err != nil {
		return nil, err
	}
	post, err := parseID(postID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindLike(ctx, recipient, sender, model.NotificationTypePostLike, "data.post_id", post)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	notification := &model.Notification{
		RecipientID:    recipient,
		SenderID:       sender,
		SenderUsername: senderUsername,
		Type:           model.NotificationTypePostLike,
		Title:          "New Like",
		Message:        fmt.Sprintf("%s liked your post %q by %s", senderUsername, songName, artistName),
		Data: &model.PostLikePayload{
			PostID:     post,
			SongName:   songName,
			ArtistName: artistName,
		},
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, err
	}
	return notification, nil
}

// CreatePostCommentNotification always inserts; every comment is a distinct
// event.
func (s *notificationService) CreatePostCommentNotification(ctx context.Context, recipientID, senderID, senderUsername, postID, songName, artistName, commentText string) (*model.Notification, error) {
	if recipientID == senderID {
		return nil, nil
	}

	recipient, err := parseID(recipientID)
	if err != nil {
		return nil, err
	}
	sender, err := parseID(senderID)
	if err != nil {
		return nil, err
	}
	post, err := parseID(postID)
	if err != nil {
		return nil, err
	}

	snippet := truncate(commentText)
	notification := &model.Notification{
		RecipientID:    recipient,
		SenderID:       sender,
		SenderUsername: senderUsername,
		Type:           model.NotificationTypePostComment,
		Title:          "New Comment",
		Message:        fmt.Sprintf("%s commented on your post %q: %s", senderUsername, songName, snippet),
		Data: &model.PostCommentPayload{
			PostID:      post,
			SongName:    songName,
			ArtistName:  artistName,
			CommentText: snippet,
		},
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, err
	}
	return notification, nil
}

func (s *notificationService) CreateFanbasePostLikeNotification(ctx context.Context, recipientID, senderID, senderUsername, fanbaseID, fanbaseName, postTopic, fanbasePostID string) (*model.Notification, error) {
	if recipientID == senderID {
		return nil, nil
	}

	recipient, err := parseID(recipientID)
	if err != nil {
		return nil, err
	}
	sender, err := parseID(senderID)
	if err != nil {
		return nil, err
	}
	fanbase, err := parseID(fanbaseID)
	if err != nil {
		return nil, err
	}
	fanbasePost, err := parseID(fanbasePostID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindLike(ctx, recipient, sender, model.NotificationTypeFanbasePostLike, "data.fanbase_post_id", fanbasePost)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	notification := &model.Notification{
		RecipientID:    recipient,
		SenderID:       sender,
		SenderUsername: senderUsername,
		Type:           model.NotificationTypeFanbasePostLike,
		Title:          "New Fanbase Like",
		Message:        fmt.Sprintf("%s liked your post in %s", senderUsername, fanbaseName),
		Data: &model.FanbasePostLikePayload{
			FanbaseID:     fanbase,
			FanbaseName:   fanbaseName,
			PostTopic:     postTopic,
			FanbasePostID: fanbasePost,
		},
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, err
	}
	return notification, nil
}

func (s *notificationService) CreateFanbasePostCommentNotification(ctx context.Context, recipientID, senderID, senderUsername, fanbaseID, fanbaseName, postTopic, fanbasePostID, commentText string) (*model.Notification, error) {
	if recipientID == senderID {
		return nil, nil
	}

	recipient, err := parseID(recipientID)
	if err != nil {
		return nil, err
	}
	sender, err := parseID(senderID)
	if err != nil {
		return nil, err
	}
	fanbase, err := parseID(fanbaseID)
	if err != nil {
		return nil, err
	}
	fanbasePost, err := parseID(fanbasePostID)
	if err != nil {
		return nil, err
	}

	snippet := truncate(commentText)
	notification := &model.Notification{
		RecipientID:    recipient,
		SenderID:       sender,
		SenderUsername: senderUsername,
		Type:           model.NotificationTypeFanbasePostComment,
		Title:          "New Fanbase Comment",
		Message:        fmt.Sprintf("%s commented on your post in %s: %s", senderUsername, fanbaseName, snippet),
		Data: &model.FanbasePostCommentPayload{
			FanbaseID:     fanbase,
			FanbaseName:   fanbaseName,
			PostTopic:     postTopic,
			FanbasePostID: fanbasePost,
			CommentText:   snippet,
		},
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, err
	}
	return notification, nil
}

func (s *notificationService) GetUserNotifications(ctx context.Context, userID string, page, limit int) (*NotificationPage, error) {
	user, err := parseID(userID)
	if err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	notifications, total, err := s.repo.FindByRecipient(ctx, user, page, limit)
	if err != nil {
		return nil, err
	}

	unread, err := s.repo.CountUnread(ctx, user)
	if err != nil {
		return nil, err
	}

	return &NotificationPage{
		Notifications:      notifications,
		CurrentPage:        page,
		TotalPages:         int(math.Ceil(float64(total) / float64(limit))),
		TotalNotifications: total,
		UnreadCount:        unread,
	}, nil
}

func (s *notificationService) GetUnreadCount(ctx context.Context, userID string) (int64, error) {
	user, err := parseID(userID)
	if err != nil {
		return 0, err
	}
	return s.repo.CountUnread(ctx, user)
}

func (s *notificationService) MarkAsRead(ctx context.Context, notificationID, userID string) error {
	id, err := parseID(notificationID)
	if err != nil {
		return err
	}
	user, err := parseID(userID)
	if err != nil {
		return err
	}
	return s.repo.MarkAsRead(ctx, id, user)
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID string) error {
	user, err := parseID(userID)
	if err != nil {
		return err
	}
	_, err = s.repo.MarkAllAsRead(ctx, user)
	return err
}

func (s *notificationService) DeleteNotification(ctx context.Context, notificationID, userID string) error {
	id, err := parseID(notificationID)
	if err != nil {
		return err
	}
	user, err := parseID(userID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, id, user)
}

// CleanupOldNotifications removes records older than the cutoff. The TTL
// index does the same job server-side; this keeps deployments without TTL
// monitors (and tests) honest.
func (s *notificationService) CleanupOldNotifications(ctx context.Context, daysOld int) (int64, error) {
	if daysOld <= 0 {
		return 0, apperror.Wrap(apperror.ErrInvalidInput, "daysOld must be positive, got %d", daysOld)
	}

	cutoff := time.Now().AddDate(0, 0, -daysOld)
	deleted, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		s.logger.Info().Int64("deleted", deleted).Int("days_old", daysOld).Msg("cleaned up old notifications")
	}
	return deleted, nil
}
