package gateway

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tunehive.app/backend/internal/model"
)

// NotificationStore is the durable half of every dual-path send. The
// gateway persists through it but never depends on whether a recipient is
// online, and vice versa.
type NotificationStore interface {
	CreateMessageNotification(ctx context.Context, recipientID, senderID, senderUsername, chatID, messageText string) (*model.Notification, error)
	CreateGroupMessageNotification(ctx context.Context, memberIDs []string, senderID, senderUsername, groupChatID, groupName, messageText string) ([]model.Notification, error)
	CreatePostLikeNotification(ctx context.Context, recipientID, senderID, senderUsername, postID, songName, artistName string) (*model.Notification, error)
	CreatePostCommentNotification(ctx context.Context, recipientID, senderID, senderUsername, postID, songName, artistName, commentText string) (*model.Notification, error)
	CreateFanbasePostLikeNotification(ctx context.Context, recipientID, senderID, senderUsername, fanbaseID, fanbaseName, postTopic, fanbasePostID string) (*model.Notification, error)
	CreateFanbasePostCommentNotification(ctx context.Context, recipientID, senderID, senderUsername, fanbaseID, fanbaseName, postTopic, fanbasePostID, commentText string) (*model.Notification, error)
}

// MessageNotification carries everything a direct-message push needs.
type MessageNotification struct {
	RecipientID    string `json:"recipientId"`
	SenderID       string `json:"senderId"`
	SenderUsername string `json:"senderUsername"`
	ChatID         string `json:"chatId"`
	MessageText    string `json:"messageText"`
}

// GroupMessageNotification carries a group push. The caller owns group
// membership and supplies the full member list.
type GroupMessageNotification struct {
	MemberIDs      []string `json:"memberIds"`
	SenderID       string   `json:"senderId"`
	SenderUsername string   `json:"senderUsername"`
	GroupChatID    string   `json:"groupChatId"`
	GroupName      string   `json:"groupName"`
	MessageText    string   `json:"messageText"`
}

type PostLikeNotification struct {
	RecipientID    string `json:"recipientId"`
	SenderID       string `json:"senderId"`
	SenderUsername string `json:"senderUsername"`
	PostID         string `json:"postId"`
	SongName       string `json:"songName"`
	ArtistName     string `json:"artistName"`
}

type PostCommentNotification struct {
	RecipientID    string `json:"recipientId"`
	SenderID       string `json:"senderId"`
	SenderUsername string `json:"senderUsername"`
	PostID         string `json:"postId"`
	SongName       string `json:"songName"`
	ArtistName     string `json:"artistName"`
	CommentText    string `json:"commentText"`
}

type FanbasePostLikeNotification struct {
	RecipientID    string `json:"recipientId"`
	SenderID       string `json:"senderId"`
	SenderUsername string `json:"senderUsername"`
	FanbaseID      string `json:"fanbaseId"`
	FanbaseName    string `json:"fanbaseName"`
	PostTopic      string `json:"postTopic"`
	FanbasePostID  string `json:"fanbasePostId"`
}

type FanbasePostCommentNotification struct {
	RecipientID    string `json:"recipientId"`
	SenderID       string `json:"senderId"`
	SenderUsername string `json:"senderUsername"`
	FanbaseID      string `json:"fanbaseId"`
	FanbaseName    string `json:"fanbaseName"`
	PostTopic      string `json:"postTopic"`
	FanbasePostID  string `json:"fanbasePostId"`
	CommentText    string `json:"commentText"`
}

// Gateway owns the live side of notification delivery: it accepts WebSocket
// connections, binds them to users on join, and fans events out to every
// connection a recipient has open. Durable records go through the
// NotificationStore; the two paths are isolated so one failing never
// suppresses the other.
type Gateway struct {
	presence Registry
	store    NotificationStore
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

func New(presence Registry, store NotificationStore, logger zerolog.Logger) *Gateway {
	return &Gateway{
		presence: presence,
		store:    store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger.With().Str("component", "notification-gateway").Logger(),
	}
}

// HandleWebSocket upgrades the request. The connection stays unidentified
// until the client sends a join event carrying its user id.
func (g *Gateway) HandleWebSocket(c *gin.Context) {
	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		g.logger.Warn().Err(err).Msg("failed to upgrade websocket")
		return
	}

	client := newClient(g, conn)
	g.logger.Debug().Str("client_id", client.ID()).Msg("websocket client connected")
	client.start()
}

func (g *Gateway) handleJoin(userID string, client *Client) {
	if _, err := primitive.ObjectIDFromHex(userID); err != nil {
		g.logger.Warn().Str("client_id", client.ID()).Str("user_id", userID).Msg("ignoring join with malformed user id")
		return
	}

	g.presence.Bind(userID, client)
	g.logger.Info().
		Str("client_id", client.ID()).
		Str("user_id", userID).
		Int("online_users", g.presence.OnlineCount()).
		Msg("client joined")
}

func (g *Gateway) handleDisconnect(client *Client) {
	userID, ok := g.presence.Unbind(client)
	if !ok {
		g.logger.Debug().Str("client_id", client.ID()).Msg("unidentified client disconnected")
		return
	}

	g.logger.Info().
		Str("client_id", client.ID()).
		Str("user_id", userID).
		Int("online_users", g.presence.OnlineCount()).
		Msg("client disconnected")
}

// SendNotificationToUser pushes a persisted record to every connection the
// recipient has open. Offline recipients are skipped, never queued; the
// durable record is the recovery path.
func (g *Gateway) SendNotificationToUser(userID string, notification *model.Notification) {
	g.emit(userID, Event{Type: EventNewNotification, Data: notification})
}

func (g *Gateway) emit(userID string, event Event) {
	for _, client := range g.presence.ConnectionsFor(userID) {
		if !client.trySend(event) {
			g.logger.Warn().
				Str("client_id", client.ID()).
				Str("user_id", userID).
				Str("event_type", event.Type).
				Msg("send buffer full, dropping event")
		}
	}
}

// persist runs one durable write and swallows the error. Notification
// persistence is secondary to the producing action and must never fail it.
func (g *Gateway) persist(what string, fn func() error) {
	if err := fn(); err != nil {
		g.logger.Error().Err(err).Msg("failed to persist " + what)
	}
}

// SendMessageNotification emits a live new_message event to the recipient's
// connections and unconditionally persists a durable record. Neither path
// waits on or aborts the other.
func (g *Gateway) SendMessageNotification(ctx context.Context, n MessageNotification) {
	g.emit(n.RecipientID, Event{Type: EventNewMessage, Data: n})
	g.persist("message notification", func() error {
		_, err := g.store.CreateMessageNotification(ctx, n.RecipientID, n.SenderID, n.SenderUsername, n.ChatID, n.MessageText)
		return err
	})
}

// SendGroupMessageNotification fans the live event out to every member
// except the sender and batch-persists the durable records.
func (g *Gateway) SendGroupMessageNotification(ctx context.Context, n GroupMessageNotification) {
	for _, memberID := range n.MemberIDs {
		if memberID == n.SenderID {
			continue
		}
		g.emit(memberID, Event{Type: EventNewMessage, Data: n})
	}
	g.persist("group message notifications", func() error {
		_, err := g.store.CreateGroupMessageNotification(ctx, n.MemberIDs, n.SenderID, n.SenderUsername, n.GroupChatID, n.GroupName, n.MessageText)
		return err
	})
}

func (g *Gateway) SendPostLikeNotification(ctx context.Context, n PostLikeNotification) {
	g.emit(n.RecipientID, Event{Type: EventPostLiked, Data: n})
	g.persist("post like notification", func() error {
		_, err := g.store.CreatePostLikeNotification(ctx, n.RecipientID, n.SenderID, n.SenderUsername, n.PostID, n.SongName, n.ArtistName)
		return err
	})
}

func (g *Gateway) SendPostCommentNotification(ctx context.Context, n PostCommentNotification) {
	g.emit(n.RecipientID, Event{Type: EventPostCommented, Data: n})
	g.persist("post comment notification", func() error {
		_, err := g.store.CreatePostCommentNotification(ctx, n.RecipientID, n.SenderID, n.SenderUsername, n.PostID, n.SongName, n.ArtistName, n.CommentText)
		return err
	})
}

func (g *Gateway) SendFanbasePostLikeNotification(ctx context.Context, n FanbasePostLikeNotification) {
	g.emit(n.RecipientID, Event{Type: EventPostLiked, Data: n})
	g.persist("fanbase post like notification", func() error {
		_, err := g.store.CreateFanbasePostLikeNotification(ctx, n.RecipientID, n.SenderID, n.SenderUsername, n.FanbaseID, n.FanbaseName, n.PostTopic, n.FanbasePostID)
		return err
	})
}

func (g *Gateway) SendFanbasePostCommentNotification(ctx context.Context, n FanbasePostCommentNotification) {
	g.emit(n.RecipientID, Event{Type: EventPostCommented, Data: n})
	g.persist("fanbase post comment notification", func() error {
		_, err := g.store.CreateFanbasePostCommentNotification(ctx, n.RecipientID, n.SenderID, n.SenderUsername, n.FanbaseID, n.FanbaseName, n.PostTopic, n.FanbasePostID, n.CommentText)
		return err
	})
}

func (g *Gateway) IsUserOnline(userID string) bool {
	return g.presence.IsOnline(userID)
}

func (g *Gateway) OnlineUsersCount() int {
	return g.presence.OnlineCount()
}
