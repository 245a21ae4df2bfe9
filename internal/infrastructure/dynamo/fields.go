package dynamo

// DynamoDB attribute names used in expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldUserID         = "user_id"
	fieldPostID         = "post_id"
	fieldResourceID     = "resource_id"
	fieldNotificationID = "notification_id"
	fieldMessageID      = "message_id"
	fieldSenderID       = "sender_id"
	fieldReceiverID     = "receiver_id"
	fieldConversationID = "conversation_id"
	fieldEmail          = "email"
	fieldFollowers      = "followers"
	fieldFollowing      = "following"
	fieldIsRead         = "is_read"
	fieldVersion        = "version"
	fieldUpdatedAt      = "updated_at"

	// fieldFeed is a constant-valued partition attribute so a GSI can list
	// every post (or resource) ordered by id.
	fieldFeed = "feed"
	// fieldSearchText holds a lower-cased copy of the searchable text.
	fieldSearchText = "search_text"
)

const (
	feedPosts     = "post"
	feedResources = "resource"
)

const (
	indexEmail               = "email-index"
	indexPostFeed            = "feed-post_id-index"
	indexPostsByUser         = "user_id-post_id-index"
	indexResourceFeed        = "feed-resource_id-index"
	indexResourcesByUser     = "user_id-resource_id-index"
	indexNotificationsByUser = "user_id-notification_id-index"
	indexConversation        = "conversation_id-message_id-index"
	indexSent                = "sender_id-message_id-index"
	indexReceived            = "receiver_id-message_id-index"
)
