package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Chat is a direct conversation between exactly two users.
type Chat struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	ParticipantIDs []primitive.ObjectID `bson:"participant_ids" json:"participantIds"`
	CreatedAt      time.Time            `bson:"created_at" json:"createdAt"`
}

// OtherParticipant returns the participant that is not the given user, or
// false when the user is not part of the chat.
func (c *Chat) OtherParticipant(userID primitive.ObjectID) (primitive.ObjectID, bool) {
	isMember := false
	var other primitive.ObjectID
	for _, id := range c.ParticipantIDs {
		if id == userID {
			isMember = true
		} else {
			other = id
		}
	}
	return other, isMember && !other.IsZero()
}

// GroupChat owns its member list; the notification gateway never tracks
// group membership and is handed the list on every group send.
type GroupChat struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name      string               `bson:"name" json:"name"`
	OwnerID   primitive.ObjectID   `bson:"owner_id" json:"ownerId"`
	MemberIDs []primitive.ObjectID `bson:"member_ids" json:"memberIds"`
	CreatedAt time.Time            `bson:"created_at" json:"createdAt"`
}

func (g *GroupChat) HasMember(userID primitive.ObjectID) bool {
	for _, id := range g.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

type ChatMessage struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ChatID         primitive.ObjectID `bson:"chat_id" json:"chatId"`
	SenderID       primitive.ObjectID `bson:"sender_id" json:"senderId"`
	SenderUsername string             `bson:"sender_username" json:"senderUsername"`
	Text           string             `bson:"text" json:"text"`
	CreatedAt      time.Time          `bson:"created_at" json:"createdAt"`
}

type CreateChatRequest struct {
	ParticipantID string `json:"participantId" binding:"required"`
}

type CreateGroupChatRequest struct {
	Name      string   `json:"name" binding:"required,min=1,max=100"`
	MemberIDs []string `json:"memberIds" binding:"required,min=1"`
}

type SendMessageRequest struct {
	Text string `json:"text" binding:"required,min=1,max=2000"`
}
