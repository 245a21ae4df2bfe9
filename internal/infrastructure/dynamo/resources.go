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

// ResourceRepo provides typed DynamoDB operations for the resources table.
type ResourceRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewResourceRepo(client *dynamodb.Client, tableName string) *ResourceRepo {
	return &ResourceRepo{client: client, tableName: tableName}
}

func (r *ResourceRepo) Create(ctx context.Context, res *domain.Resource) error {
	item, err := attributevalue.MarshalMap(res)
	if err != nil {
		return fmt.Errorf("marshal resource: %w", err)
	}
	item[fieldFeed] = strVal(feedResources)
	item[fieldSearchText] = strVal(searchText(res.Title, res.Category))
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *ResourceRepo) Get(ctx context.Context, resourceID string) (*domain.Resource, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldResourceID, resourceID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("resource: %w", domain.ErrNotFound)
	}
	var res domain.Resource
	if err := attributevalue.UnmarshalMap(out.Item, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *ResourceRepo) Delete(ctx context.Context, resourceID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      strKey(fieldResourceID, resourceID),
		ConditionExpression:      aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": fieldResourceID},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("resource: %w", domain.ErrNotFound)
	}
	return err
}

// List returns every resource newest-first.
func (r *ResourceRepo) List(ctx context.Context) ([]domain.Resource, error) {
	return r.query(ctx, indexResourceFeed, fieldFeed, feedResources)
}

func (r *ResourceRepo) ListByUser(ctx context.Context, userID string) ([]domain.Resource, error) {
	return r.query(ctx, indexResourcesByUser, fieldUserID, userID)
}

func (r *ResourceRepo) query(ctx context.Context, index, attr, value string) ([]domain.Resource, error) {
	items, err := queryAll(ctx, r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": strVal(value)},
		ScanIndexForward:          aws.Bool(false),
	})
	if err != nil {
		return nil, err
	}
	var out []domain.Resource
	if err := attributevalue.UnmarshalListOfMaps(items, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ResourceRepo) Search(ctx context.Context, q string, limit int) ([]domain.Resource, error) {
	items, err := scanMatching(ctx, r.client, r.tableName, q, limit)
	if err != nil {
		return nil, err
	}
	var out []domain.Resource
	if err := attributevalue.UnmarshalListOfMaps(items, &out); err != nil {
		return nil, err
	}
	return out, nil
}
