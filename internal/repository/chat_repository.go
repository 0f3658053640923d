package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"tunehive.app/backend/internal/model"
	"tunehive.app/backend/pkg/apperror"
)

type ChatRepository interface {
	CreateChat(ctx context.Context, chat *model.Chat) error
	FindChatByID(ctx context.Context, id primitive.ObjectID) (*model.Chat, error)
	CreateGroupChat(ctx context.Context, group *model.GroupChat) error
	FindGroupChatByID(ctx context.Context, id primitive.ObjectID) (*model.GroupChat, error)
	CreateMessage(ctx context.Context, message *model.ChatMessage) error
}

type mongoChatRepository struct {
	chats    *mongo.Collection
	groups   *mongo.Collection
	messages *mongo.Collection
}

func NewChatRepository(db *mongo.Database) ChatRepository {
	return &mongoChatRepository{
		chats:    db.Collection("chats"),
		groups:   db.Collection("group_chats"),
		messages: db.Collection("chat_messages"),
	}
}

func (r *mongoChatRepository) CreateChat(ctx context.Context, chat *model.Chat) error {
	chat.ID = primitive.NewObjectID()
	chat.CreatedAt = time.Now()
	_, err := r.chats.InsertOne(ctx, chat)
	return err
}

func (r *mongoChatRepository) FindChatByID(ctx context.Context, id primitive.ObjectID) (*model.Chat, error) {
	var chat model.Chat
	err := r.chats.FindOne(ctx, bson.M{"_id": id}).Decode(&chat)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &chat, nil
}

func (r *mongoChatRepository) CreateGroupChat(ctx context.Context, group *model.GroupChat) error {
	group.ID = primitive.NewObjectID()
	group.CreatedAt = time.Now()
	_, err := r.groups.InsertOne(ctx, group)
	return err
}

func (r *mongoChatRepository) FindGroupChatByID(ctx context.Context, id primitive.ObjectID) (*model.GroupChat, error) {
	var group model.GroupChat
	err := r.groups.FindOne(ctx, bson.M{"_id": id}).Decode(&group)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &group, nil
}

func (r *mongoChatRepository) CreateMessage(ctx context.Context, message *model.ChatMessage) error {
	message.ID = primitive.NewObjectID()
	message.CreatedAt = time.Now()
	_, err := r.messages.InsertOne(ctx, message)
	return err
}
