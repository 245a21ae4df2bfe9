package domain

import "time"

type NotificationType string

const (
	NotificationLike     NotificationType = "like"
	NotificationComment  NotificationType = "comment"
	NotificationFollow   NotificationType = "follow"
	NotificationResource NotificationType = "resource"
	NotificationMessage  NotificationType = "message"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationLike, NotificationComment, NotificationFollow, NotificationResource, NotificationMessage:
		return true
	}
	return false
}

type Notification struct {
	NotificationID string           `json:"id" dynamodbav:"notification_id" bson:"_id"`
	UserID         string           `json:"recipient_id" dynamodbav:"user_id" bson:"user_id"`
	SenderID       string           `json:"sender_id" dynamodbav:"sender_id" bson:"sender_id"`
	Type           NotificationType `json:"type" dynamodbav:"type" bson:"type"`
	PostID         string           `json:"post_id,omitempty" dynamodbav:"post_id,omitempty" bson:"post_id,omitempty"`
	ResourceID     string           `json:"resource_id,omitempty" dynamodbav:"resource_id,omitempty" bson:"resource_id,omitempty"`
	IsRead         bool             `json:"is_read" dynamodbav:"is_read" bson:"is_read"`
	CreatedAt      time.Time        `json:"created" dynamodbav:"created_at" bson:"created_at"`
	UpdatedAt      time.Time        `json:"updated" dynamodbav:"updated_at" bson:"updated_at"`

	Sender *UserSummary `json:"sender,omitempty" dynamodbav:"-" bson:"-"`
}
