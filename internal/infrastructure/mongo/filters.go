package mongoinfra

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/devconnect-api/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	newestFirst = bson.D{{Key: "_id", Value: -1}}
	oldestFirst = bson.D{{Key: "_id", Value: 1}}
)

func byID(id string) bson.M { return bson.M{"_id": id} }

// containsFold matches field values containing q, case-insensitively.
// q is quoted so user input never acts as a pattern.
func containsFold(q string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
}

func threadFilter(a, b string) bson.M {
	return bson.M{"conversation_id": domain.ConversationID(a, b)}
}

func involvingFilter(userID string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"sender_id": userID},
		bson.M{"receiver_id": userID},
	}}
}

func unreadMessagesFilter(receiverID string) bson.M {
	return bson.M{"receiver_id": receiverID, "is_read": false}
}

func unreadThreadFilter(readerID, otherID string) bson.M {
	return bson.M{
		"conversation_id": domain.ConversationID(readerID, otherID),
		"receiver_id":     readerID,
		"is_read":         false,
	}
}

func unreadNotificationsFilter(userID string) bson.M {
	return bson.M{"user_id": userID, "is_read": false}
}

// feedFilter pages backwards from cursor, which is the last id returned.
func feedFilter(cursor string) bson.M {
	if cursor == "" {
		return bson.M{}
	}
	return bson.M{"_id": bson.M{"$lt": cursor}}
}

// versionFilter matches the post only if it still has the version read.
func versionFilter(postID string, version int) bson.M {
	return bson.M{"_id": postID, "version": version}
}

func notFound(what string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return err
}
