package domain

import "time"

type Message struct {
	MessageID      string    `json:"id" dynamodbav:"message_id" bson:"_id"`
	SenderID       string    `json:"sender_id" dynamodbav:"sender_id" bson:"sender_id"`
	ReceiverID     string    `json:"receiver_id" dynamodbav:"receiver_id" bson:"receiver_id"`
	ConversationID string    `json:"conversation_id" dynamodbav:"conversation_id" bson:"conversation_id"`
	Content        string    `json:"content" dynamodbav:"content" bson:"content"`
	IsRead         bool      `json:"is_read" dynamodbav:"is_read" bson:"is_read"`
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at" bson:"created_at"`
}

// ConversationID is the order-independent key shared by both directions
// of a two-user thread.
func ConversationID(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "#" + b
}

// Partner returns the other participant of m from userID's point of view.
func (m *Message) Partner(userID string) string {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

type Conversation struct {
	Partner       UserSummary `json:"user"`
	LastMessage   Message     `json:"last_message"`
	LastMessageAt time.Time   `json:"last_message_time"`
	UnreadCount   int         `json:"unread_count"`
}

type SendMessageRequest struct {
	ReceiverID string `json:"receiver_id" validate:"required"`
	Content    string `json:"content" validate:"required,max=2000"`
}
