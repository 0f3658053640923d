package gateway

// Inbound event types.
const (
	EventJoin = "join"
)

// Outbound event types.
const (
	EventNewNotification = "new_notification"
	EventNewMessage      = "new_message"
	EventPostLiked       = "post_liked"
	EventPostCommented   = "post_commented"
)

// Event is the wire envelope for gateway traffic in both directions.
type Event struct {
	Type   string      `json:"type"`
	UserID string      `json:"userId,omitempty"`
	Data   interface{} `json:"data,omitempty"`
}
