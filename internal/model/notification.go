package model

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationType string

const (
	NotificationTypeMessage            NotificationType = "message"
	NotificationTypeGroupMessage       NotificationType = "group_message"
	NotificationTypePostLike           NotificationType = "post_like"
	NotificationTypePostComment        NotificationType = "post_comment"
	NotificationTypeFanbasePostLike    NotificationType = "fanbase_post_like"
	NotificationTypeFanbasePostComment NotificationType = "fanbase_post_comment"
	NotificationTypeAdminWarning       NotificationType = "admin_warning"
)

// NotificationPayload is the variant part of a notification. Exactly one
// concrete payload type exists per NotificationType, so a consumer can never
// read fields that are not valid for the kind at hand.
type NotificationPayload interface {
	notificationPayload()
}

type MessagePayload struct {
	ChatID      primitive.ObjectID `bson:"chat_id" json:"chatId"`
	MessageText string             `bson:"message_text" json:"messageText"`
}

type GroupMessagePayload struct {
	GroupChatID primitive.ObjectID `bson:"group_chat_id" json:"groupChatId"`
	GroupName   string             `bson:"group_name" json:"groupName"`
	MessageText string             `bson:"message_text" json:"messageText"`
}

type PostLikePayload struct {
	PostID     primitive.ObjectID `bson:"post_id" json:"postId"`
	SongName   string             `bson:"song_name" json:"songName"`
	ArtistName string             `bson:"artist_name" json:"artistName"`
}

type PostCommentPayload struct {
	PostID      primitive.ObjectID `bson:"post_id" json:"postId"`
	SongName    string             `bson:"song_name" json:"songName"`
	ArtistName  string             `bson:"artist_name" json:"artistName"`
	CommentText string             `bson:"comment_text" json:"commentText"`
}

type FanbasePostLikePayload struct {
	FanbaseID     primitive.ObjectID `bson:"fanbase_id" json:"fanbaseId"`
	FanbaseName   string             `bson:"fanbase_name" json:"fanbaseName"`
	PostTopic     string             `bson:"post_topic" json:"postTopic"`
	FanbasePostID primitive.ObjectID `bson:"fanbase_post_id" json:"fanbasePostId"`
}

type FanbasePostCommentPayload struct {
	FanbaseID     primitive.ObjectID `bson:"fanbase_id" json:"fanbaseId"`
	FanbaseName   string             `bson:"fanbase_name" json:"fanbaseName"`
	PostTopic     string             `bson:"post_topic" json:"postTopic"`
	FanbasePostID primitive.ObjectID `bson:"fanbase_post_id" json:"fanbasePostId"`
	CommentText   string             `bson:"comment_text" json:"commentText"`
}

type AdminWarningPayload struct {
	Reason string `bson:"reason" json:"reason"`
}

func (*MessagePayload) notificationPayload()            {}
func (*GroupMessagePayload) notificationPayload()       {}
func (*PostLikePayload) notificationPayload()           {}
func (*PostCommentPayload) notificationPayload()        {}
func (*FanbasePostLikePayload) notificationPayload()    {}
func (*FanbasePostCommentPayload) notificationPayload() {}
func (*AdminWarningPayload) notificationPayload()       {}

// Notification is a durable record addressed to a single recipient.
// SenderUsername is a snapshot taken at creation time; it is not kept in
// sync with later username changes.
type Notification struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	RecipientID    primitive.ObjectID  `bson:"recipient_id" json:"recipientId"`
	SenderID       primitive.ObjectID  `bson:"sender_id" json:"senderId"`
	SenderUsername string              `bson:"sender_username" json:"senderUsername"`
	Type           NotificationType    `bson:"type" json:"type"`
	Title          string              `bson:"title" json:"title"`
	Message        string              `bson:"message" json:"message"`
	Data           NotificationPayload `bson:"data,omitempty" json:"data,omitempty"`
	IsRead         bool                `bson:"is_read" json:"isRead"`
	CreatedAt      time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time           `bson:"updated_at" json:"updatedAt"`
}

// notificationDoc mirrors Notification with the payload left raw so it can
// be decoded after the type discriminator is known.
type notificationDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	RecipientID    primitive.ObjectID `bson:"recipient_id"`
	SenderID       primitive.ObjectID `bson:"sender_id"`
	SenderUsername string             `bson:"sender_username"`
	Type           NotificationType   `bson:"type"`
	Title          string             `bson:"title"`
	Message        string             `bson:"message"`
	Data           bson.Raw           `bson:"data,omitempty"`
	IsRead         bool               `bson:"is_read"`
	CreatedAt      time.Time          `bson:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at"`
}

func (n *Notification) UnmarshalBSON(data []byte) error {
	var doc notificationDoc
	if err := bson.Unmarshal(data, &doc); err != nil {
		return err
	}

	payload, err := DecodePayload(doc.Type, doc.Data)
	if err != nil {
		return err
	}

	n.ID = doc.ID
	n.RecipientID = doc.RecipientID
	n.SenderID = doc.SenderID
	n.SenderUsername = doc.SenderUsername
	n.Type = doc.Type
	n.Title = doc.Title
	n.Message = doc.Message
	n.Data = payload
	n.IsRead = doc.IsRead
	n.CreatedAt = doc.CreatedAt
	n.UpdatedAt = doc.UpdatedAt
	return nil
}

// DecodePayload resolves the concrete payload variant for a notification
// type. A missing payload decodes to nil.
func DecodePayload(t NotificationType, raw bson.Raw) (NotificationPayload, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	switch t {
	case NotificationTypeMessage:
		var p MessagePayload
		if err := bson.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return &p, nil
	case NotificationTypeGroupMessage:
		var p GroupMessagePayload
		if err := bson.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return &p, nil
	case NotificationTypePostLike:
		var p PostLikePayload
		if err := bson.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return &p, nil
	case NotificationTypePostComment:
		var p PostCommentPayload
		if err := bson.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return &p, nil
	case NotificationTypeFanbasePostLike:
		var p FanbasePostLikePayload
		if err := bson.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return &p, nil
	case NotificationTypeFanbasePostComment:
		var p FanbasePostCommentPayload
		if err := bson.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return &p, nil
	case NotificationTypeAdminWarning:
		var p AdminWarningPayload
		if err := bson.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return &p, nil
	default:
		return nil, fmt.Errorf("unknown notification type %q", t)
	}
}
