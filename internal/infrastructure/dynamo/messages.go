package dynamo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/devconnect-api/internal/domain"
)

// batchWriteLimit is the DynamoDB cap on requests per BatchWriteItem call.
const batchWriteLimit = 25

// MessageRepo provides typed DynamoDB operations for the messages table.
type MessageRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewMessageRepo(client *dynamodb.Client, tableName string) *MessageRepo {
	return &MessageRepo{client: client, tableName: tableName}
}

func (r *MessageRepo) Put(ctx context.Context, m *domain.Message) error {
	item, err := attributevalue.MarshalMap(m)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *MessageRepo) Get(ctx context.Context, messageID string) (*domain.Message, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldMessageID, messageID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("message: %w", domain.ErrNotFound)
	}
	var m domain.Message
	if err := attributevalue.UnmarshalMap(out.Item, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MessageRepo) byIndex(index, attr, value string, ascending bool) *dynamodb.QueryInput {
	return &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": strVal(value)},
		ScanIndexForward:          aws.Bool(ascending),
	}
}

func (r *MessageRepo) list(ctx context.Context, input *dynamodb.QueryInput) ([]domain.Message, error) {
	items, err := queryAll(ctx, r.client, input)
	if err != nil {
		return nil, err
	}
	var msgs []domain.Message
	if err := attributevalue.UnmarshalListOfMaps(items, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Thread returns both directions between a and b, oldest first.
func (r *MessageRepo) Thread(ctx context.Context, a, b string) ([]domain.Message, error) {
	return r.list(ctx, r.byIndex(indexConversation, fieldConversationID, domain.ConversationID(a, b), true))
}

// ListForUser returns every message userID sent or received, newest first.
func (r *MessageRepo) ListForUser(ctx context.Context, userID string) ([]domain.Message, error) {
	sent, err := r.list(ctx, r.byIndex(indexSent, fieldSenderID, userID, false))
	if err != nil {
		return nil, err
	}
	received, err := r.list(ctx, r.byIndex(indexReceived, fieldReceiverID, userID, false))
	if err != nil {
		return nil, err
	}
	all := append(sent, received...)
	sort.Slice(all, func(i, j int) bool { return all[i].MessageID > all[j].MessageID })
	return all, nil
}

func (r *MessageRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	input := r.byIndex(indexReceived, fieldReceiverID, userID, false)
	input.FilterExpression = aws.String("#r = :f")
	input.ExpressionAttributeNames["#r"] = fieldIsRead
	input.ExpressionAttributeValues[":f"] = &types.AttributeValueMemberBOOL{Value: false}
	return countAll(ctx, r.client, input)
}

// MarkThreadRead flips is_read on unread messages from otherID to readerID.
func (r *MessageRepo) MarkThreadRead(ctx context.Context, readerID, otherID string) (int, error) {
	input := r.byIndex(indexConversation, fieldConversationID, domain.ConversationID(readerID, otherID), true)
	input.FilterExpression = aws.String("#to = :me AND #r = :f")
	input.ProjectionExpression = aws.String("#id")
	input.ExpressionAttributeNames["#to"] = fieldReceiverID
	input.ExpressionAttributeNames["#r"] = fieldIsRead
	input.ExpressionAttributeNames["#id"] = fieldMessageID
	input.ExpressionAttributeValues[":me"] = strVal(readerID)
	input.ExpressionAttributeValues[":f"] = &types.AttributeValueMemberBOOL{Value: false}
	items, err := queryAll(ctx, r.client, input)
	if err != nil {
		return 0, err
	}

	ue, err := buildUpdateExpr(map[string]interface{}{fieldIsRead: true})
	if err != nil {
		return 0, err
	}
	n := 0
	for _, item := range items {
		id, ok := item[fieldMessageID].(*types.AttributeValueMemberS)
		if !ok {
			continue
		}
		_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                 aws.String(r.tableName),
			Key:                       strKey(fieldMessageID, id.Value),
			UpdateExpression:          aws.String(ue.Expr),
			ExpressionAttributeNames:  ue.Names,
			ExpressionAttributeValues: ue.Values,
		})
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (r *MessageRepo) Delete(ctx context.Context, messageID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      strKey(fieldMessageID, messageID),
		ConditionExpression:      aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": fieldMessageID},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("message: %w", domain.ErrNotFound)
	}
	return err
}

// DeleteThread removes every message between a and b and returns the count.
func (r *MessageRepo) DeleteThread(ctx context.Context, a, b string) (int, error) {
	input := r.byIndex(indexConversation, fieldConversationID, domain.ConversationID(a, b), true)
	input.ProjectionExpression = aws.String("#id")
	input.ExpressionAttributeNames["#id"] = fieldMessageID
	items, err := queryAll(ctx, r.client, input)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for start := 0; start < len(items); start += batchWriteLimit {
		end := min(start+batchWriteLimit, len(items))
		reqs := make([]types.WriteRequest, 0, end-start)
		for _, item := range items[start:end] {
			reqs = append(reqs, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: map[string]types.AttributeValue{fieldMessageID: item[fieldMessageID]}},
			})
		}
		if err := r.batchWrite(ctx, reqs); err != nil {
			return deleted, err
		}
		deleted += len(reqs)
	}
	return deleted, nil
}

// batchWrite retries unprocessed items with a short linear backoff.
func (r *MessageRepo) batchWrite(ctx context.Context, reqs []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{r.tableName: reqs}
	for attempt := 0; len(pending) > 0; attempt++ {
		if attempt == 5 {
			return fmt.Errorf("batch write messages: unprocessed items remain")
		}
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 50 * time.Millisecond):
			}
		}
		out, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return err
		}
		pending = out.UnprocessedItems
	}
	return nil
}
