package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/devconnect-api/internal/domain"
)

// NotificationRepo provides typed DynamoDB operations for the notifications table.
type NotificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewNotificationRepo(client *dynamodb.Client, tableName string) *NotificationRepo {
	return &NotificationRepo{client: client, tableName: tableName}
}

func (r *NotificationRepo) Put(ctx context.Context, n *domain.Notification) error {
	item, err := attributevalue.MarshalMap(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *NotificationRepo) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldNotificationID, notificationID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("notification: %w", domain.ErrNotFound)
	}
	var n domain.Notification
	if err := attributevalue.UnmarshalMap(out.Item, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// ListByUser returns the newest notifications for userID, at most limit.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexNotificationsByUser),
		KeyConditionExpression:    aws.String("#u = :u"),
		ExpressionAttributeNames:  map[string]string{"#u": fieldUserID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":u": strVal(userID)},
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, err
	}
	var notifications []domain.Notification
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *NotificationRepo) unreadQuery(userID string) *dynamodb.QueryInput {
	return &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexNotificationsByUser),
		KeyConditionExpression: aws.String("#u = :u"),
		FilterExpression:       aws.String("#r = :f"),
		ExpressionAttributeNames: map[string]string{
			"#u": fieldUserID,
			"#r": fieldIsRead,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":u": strVal(userID),
			":f": &types.AttributeValueMemberBOOL{Value: false},
		},
	}
}

func (r *NotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	return countAll(ctx, r.client, r.unreadQuery(userID))
}

func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID string) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldIsRead:    true,
		fieldUpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	ue.Names["#id"] = fieldNotificationID
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldNotificationID, notificationID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("notification: %w", domain.ErrNotFound)
	}
	return err
}

// MarkAllRead flips every unread notification of userID and returns how
// many were changed.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID string) (int, error) {
	input := r.unreadQuery(userID)
	input.ProjectionExpression = aws.String("#id")
	input.ExpressionAttributeNames["#id"] = fieldNotificationID
	items, err := queryAll(ctx, r.client, input)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, item := range items {
		id, ok := item[fieldNotificationID].(*types.AttributeValueMemberS)
		if !ok {
			continue
		}
		if err := r.MarkRead(ctx, id.Value); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
