package domain

import "time"

type Resource struct {
	ResourceID  string    `json:"id" dynamodbav:"resource_id" bson:"_id"`
	UserID      string    `json:"user_id" dynamodbav:"user_id" bson:"user_id"`
	Title       string    `json:"title" dynamodbav:"title" bson:"title"`
	Category    string    `json:"category" dynamodbav:"category" bson:"category"`
	FileKey     string    `json:"file_key" dynamodbav:"file_key" bson:"file_key"`
	ContentType string    `json:"content_type" dynamodbav:"content_type" bson:"content_type"`
	Size        int64     `json:"size" dynamodbav:"size" bson:"size"`
	CreatedAt   time.Time `json:"created" dynamodbav:"created_at" bson:"created_at"`

	Author *UserSummary `json:"author,omitempty" dynamodbav:"-" bson:"-"`
}

type UploadResourceRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Category string `json:"category" validate:"required,max=100"`
}
