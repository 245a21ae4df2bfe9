package realtime

import "encoding/json"

// Server → client events.
const (
	EventReceiveMessage      = "receive-message"
	EventReceiveNotification = "receive-notification"
	EventNotificationsRead   = "notifications-read"
	EventMessageSent         = "message-sent"
	EventError               = "error"
)

// Client → server events.
const (
	EventUserOnline  = "user-online"
	EventUserOffline = "user-offline"
	EventSendMessage = "send-message"
)

// Frame is the JSON object exchanged on the socket in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// EncodeFrame marshals payload under the given event name.
func EncodeFrame(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: data})
}

// Envelope carries an encoded frame between instances.
type Envelope struct {
	Origin string          `json:"origin"`
	UserID string          `json:"user_id"`
	Event  string          `json:"event"`
	Frame  json.RawMessage `json:"frame"`
}
