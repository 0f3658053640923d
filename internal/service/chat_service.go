package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tunehive.app/backend/internal/gateway"
	"tunehive.app/backend/internal/model"
	"tunehive.app/backend/internal/repository"
	"tunehive.app/backend/pkg/apperror"
)

// ChatNotifier is the gateway surface the chat service pushes through.
// Sends are best-effort: the notifier logs and swallows its own failures,
// so a message send never fails because notification delivery did.
type ChatNotifier interface {
	SendMessageNotification(ctx context.Context, n gateway.MessageNotification)
	SendGroupMessageNotification(ctx context.Context, n gateway.GroupMessageNotification)
}

type ChatService interface {
	CreateChat(ctx context.Context, creatorID primitive.ObjectID, participantID string) (*model.Chat, error)
	CreateGroupChat(ctx context.Context, ownerID primitive.ObjectID, name string, memberIDs []string) (*model.GroupChat, error)
	SendMessage(ctx context.Context, chatID string, senderID primitive.ObjectID, senderUsername, text string) (*model.ChatMessage, error)
	SendGroupMessage(ctx context.Context, groupChatID string, senderID primitive.ObjectID, senderUsername, text string) (*model.ChatMessage, error)
}

type chatService struct {
	repo        repository.ChatRepository
	redisClient *redis.Client
	notifier    ChatNotifier
	rateWindow  time.Duration
	logger      zerolog.Logger
}

func NewChatService(repo repository.ChatRepository, redisClient *redis.Client, notifier ChatNotifier, rateWindow time.Duration, logger zerolog.Logger) ChatService {
	return &chatService{
		repo:        repo,
		redisClient: redisClient,
		notifier:    notifier,
		rateWindow:  rateWindow,
		logger:      logger.With().Str("component", "chat-service").Logger(),
	}
}

func (s *chatService) CreateChat(ctx context.Context, creatorID primitive.ObjectID, participantID string) (*model.Chat, error) {
	participant, err := primitive.ObjectIDFromHex(participantID)
	if err != nil {
		return nil, apperror.Wrap(apperror.ErrInvalidInput, "malformed participant id %q", participantID)
	}
	if participant == creatorID {
		return nil, apperror.Wrap(apperror.ErrInvalidInput, "cannot open a chat with yourself")
	}

	chat := &model.Chat{ParticipantIDs: []primitive.ObjectID{creatorID, participant}}
	if err := s.repo.CreateChat(ctx, chat); err != nil {
		return nil, err
	}
	return chat, nil
}

func (s *chatService) CreateGroupChat(ctx context.Context, ownerID primitive.ObjectID, name string, memberIDs []string) (*model.GroupChat, error) {
	members := []primitive.ObjectID{ownerID}
	for _, memberID := range memberIDs {
		member, err := primitive.ObjectIDFromHex(memberID)
		if err != nil {
			return nil, apperror.Wrap(apperror.ErrInvalidInput, "malformed member id %q", memberID)
		}
		if member != ownerID {
			members = append(members, member)
		}
	}

	group := &model.GroupChat{
		Name:      name,
		OwnerID:   ownerID,
		MemberIDs: members,
	}
	if err := s.repo.CreateGroupChat(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// SendMessage persists the message and then hands the notification to the
// gateway asynchronously. The fresh background context keeps an HTTP client
// disconnect from cancelling the in-flight notification write.
func (s *chatService) SendMessage(ctx context.Context, chatID string, senderID primitive.ObjectID, senderUsername, text string) (*model.ChatMessage, error) {
	chat, err := s.loadChat(ctx, chatID, senderID)
	if err != nil {
		return nil, err
	}

	recipient, ok := chat.OtherParticipant(senderID)
	if !ok {
		return nil, apperror.ErrForbidden
	}

	message := &model.ChatMessage{
		ChatID:         chat.ID,
		SenderID:       senderID,
		SenderUsername: senderUsername,
		Text:           text,
	}
	if err := s.repo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	go s.notifier.SendMessageNotification(context.Background(), gateway.MessageNotification{
		RecipientID:    recipient.Hex(),
		SenderID:       senderID.Hex(),
		SenderUsername: senderUsername,
		ChatID:         chat.ID.Hex(),
		MessageText:    text,
	})

	return message, nil
}

func (s *chatService) SendGroupMessage(ctx context.Context, groupChatID string, senderID primitive.ObjectID, senderUsername, text string) (*model.ChatMessage, error) {
	group, err := s.loadGroupChat(ctx, groupChatID, senderID)
	if err != nil {
		return nil, err
	}

	message := &model.ChatMessage{
		ChatID:         group.ID,
		SenderID:       senderID,
		SenderUsername: senderUsername,
		Text:           text,
	}
	if err := s.repo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	memberIDs := make([]string, len(group.MemberIDs))
	for i, id := range group.MemberIDs {
		memberIDs[i] = id.Hex()
	}

	go s.notifier.SendGroupMessageNotification(context.Background(), gateway.GroupMessageNotification{
		MemberIDs:      memberIDs,
		SenderID:       senderID.Hex(),
		SenderUsername: senderUsername,
		GroupChatID:    group.ID.Hex(),
		GroupName:      group.Name,
		MessageText:    text,
	})

	return message, nil
}

func (s *chatService) loadChat(ctx context.Context, chatID string, senderID primitive.ObjectID) (*model.Chat, error) {
	if err := s.checkRateLimit(ctx, senderID); err != nil {
		return nil, err
	}

	id, err := primitive.ObjectIDFromHex(chatID)
	if err != nil {
		return nil, apperror.Wrap(apperror.ErrInvalidInput, "malformed chat id %q", chatID)
	}
	return s.repo.FindChatByID(ctx, id)
}

func (s *chatService) loadGroupChat(ctx context.Context, groupChatID string, senderID primitive.ObjectID) (*model.GroupChat, error) {
	if err := s.checkRateLimit(ctx, senderID); err != nil {
		return nil, err
	}

	id, err := primitive.ObjectIDFromHex(groupChatID)
	if err != nil {
		return nil, apperror.Wrap(apperror.ErrInvalidInput, "malformed group chat id %q", groupChatID)
	}

	group, err := s.repo.FindGroupChatByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(senderID) {
		return nil, apperror.ErrForbidden
	}
	return group, nil
}

func (s *chatService) checkRateLimit(ctx context.Context, senderID primitive.ObjectID) error {
	allowed, err := CheckAndSetRateLimit(ctx, s.redisClient, senderID, "send_message", s.rateWindow)
	if err != nil {
		// Redis being down should not take chat down with it.
		s.logger.Warn().Err(err).Msg("rate limit check failed, allowing send")
		return nil
	}
	if !allowed {
		return apperror.ErrRateLimitExceeded
	}
	return nil
}
