package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/devconnect-api/internal/domain"
)

// PostRepo stores posts with their comment tree embedded in the item.
type PostRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewPostRepo(client *dynamodb.Client, tableName string) *PostRepo {
	return &PostRepo{client: client, tableName: tableName}
}

func (r *PostRepo) item(p *domain.Post) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return nil, fmt.Errorf("marshal post: %w", err)
	}
	item[fieldFeed] = strVal(feedPosts)
	item[fieldSearchText] = strVal(searchText(p.Content))
	return item, nil
}

func (r *PostRepo) Create(ctx context.Context, p *domain.Post) error {
	p.Recount()
	item, err := r.item(p)
	if err != nil {
		return err
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": fieldPostID},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("post %s already exists: %w", p.PostID, domain.ErrConflict)
	}
	return err
}

func (r *PostRepo) Get(ctx context.Context, postID string) (*domain.Post, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldPostID, postID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("post: %w", domain.ErrNotFound)
	}
	var p domain.Post
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Save replaces the post if nobody else wrote it since it was read.
// On success p.Version is advanced.
func (r *PostRepo) Save(ctx context.Context, p *domain.Post) error {
	p.Recount()
	expected := p.Version
	p.Version++
	item, err := r.item(p)
	if err != nil {
		p.Version = expected
		return err
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("#v = :v"),
		ExpressionAttributeNames: map[string]string{"#v": fieldVersion},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberN{Value: fmt.Sprint(expected)},
		},
	})
	if err != nil {
		p.Version = expected
		if isConditionFailed(err) {
			return fmt.Errorf("post %s changed concurrently: %w", p.PostID, domain.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *PostRepo) Delete(ctx context.Context, postID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      strKey(fieldPostID, postID),
		ConditionExpression:      aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": fieldPostID},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("post: %w", domain.ErrNotFound)
	}
	return err
}

// Feed returns posts newest-first. cursor is the opaque value returned by
// the previous page; empty means start from the newest post.
func (r *PostRepo) Feed(ctx context.Context, limit int, cursor string) ([]domain.Post, string, error) {
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexPostFeed),
		KeyConditionExpression:    aws.String("#f = :f"),
		ExpressionAttributeNames:  map[string]string{"#f": fieldFeed},
		ExpressionAttributeValues: map[string]types.AttributeValue{":f": strVal(feedPosts)},
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(int32(limit)),
	}
	if cursor != "" {
		postID, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
		}
		input.ExclusiveStartKey = map[string]types.AttributeValue{
			fieldPostID: strVal(postID),
			fieldFeed:   strVal(feedPosts),
		}
	}
	out, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, "", err
	}
	var posts []domain.Post
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &posts); err != nil {
		return nil, "", err
	}
	next := ""
	if v, ok := out.LastEvaluatedKey[fieldPostID].(*types.AttributeValueMemberS); ok {
		next = encodeCursor(v.Value)
	}
	return posts, next, nil
}

func (r *PostRepo) ListByUser(ctx context.Context, userID string) ([]domain.Post, error) {
	items, err := queryAll(ctx, r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexPostsByUser),
		KeyConditionExpression:    aws.String("#u = :u"),
		ExpressionAttributeNames:  map[string]string{"#u": fieldUserID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":u": strVal(userID)},
		ScanIndexForward:          aws.Bool(false),
	})
	if err != nil {
		return nil, err
	}
	var posts []domain.Post
	if err := attributevalue.UnmarshalListOfMaps(items, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *PostRepo) Search(ctx context.Context, q string, limit int) ([]domain.Post, error) {
	items, err := scanMatching(ctx, r.client, r.tableName, q, limit)
	if err != nil {
		return nil, err
	}
	var posts []domain.Post
	if err := attributevalue.UnmarshalListOfMaps(items, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}
