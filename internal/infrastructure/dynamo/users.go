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

// batchGetLimit is the DynamoDB cap on keys per BatchGetItem call.
const batchGetLimit = 100

// UserRepo provides typed DynamoDB operations for the users table.
type UserRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewUserRepo(client *dynamodb.Client, tableName string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName}
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	item[fieldSearchText] = strVal(searchText(u.Name))
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": fieldUserID},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("user %s already exists: %w", u.UserID, domain.ErrConflict)
	}
	return err
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldUserID, userID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexEmail),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": fieldEmail},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": strVal(email)},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Items[0], &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetMany returns the users that exist among ids, in no particular order.
func (r *UserRepo) GetMany(ctx context.Context, ids []string) ([]domain.User, error) {
	ids = dedupe(ids)
	var users []domain.User
	for start := 0; start < len(ids); start += batchGetLimit {
		end := min(start+batchGetLimit, len(ids))
		keys := make([]map[string]types.AttributeValue, 0, end-start)
		for _, id := range ids[start:end] {
			keys = append(keys, strKey(fieldUserID, id))
		}
		request := map[string]types.KeysAndAttributes{r.tableName: {Keys: keys}}
		for attempt := 0; len(request) > 0 && attempt < 5; attempt++ {
			out, err := r.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: request})
			if err != nil {
				return nil, err
			}
			var page []domain.User
			if err := attributevalue.UnmarshalListOfMaps(out.Responses[r.tableName], &page); err != nil {
				return nil, err
			}
			users = append(users, page...)
			request = out.UnprocessedKeys
		}
		if len(request) > 0 {
			return nil, fmt.Errorf("batch get users: unprocessed keys remain")
		}
	}
	return users, nil
}

// AddFollow records follower → followee on both documents. The two updates
// are independent; a failure between them leaves a one-sided edge.
func (r *UserRepo) AddFollow(ctx context.Context, followerID, followeeID string) error {
	if err := r.updateSet(ctx, "ADD", followerID, fieldFollowing, followeeID); err != nil {
		return err
	}
	return r.updateSet(ctx, "ADD", followeeID, fieldFollowers, followerID)
}

func (r *UserRepo) RemoveFollow(ctx context.Context, followerID, followeeID string) error {
	if err := r.updateSet(ctx, "DELETE", followerID, fieldFollowing, followeeID); err != nil {
		return err
	}
	return r.updateSet(ctx, "DELETE", followeeID, fieldFollowers, followerID)
}

func (r *UserRepo) updateSet(ctx context.Context, op, userID, field, member string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey(fieldUserID, userID),
		UpdateExpression:    aws.String(fmt.Sprintf("%s #set :m SET #u = :now", op)),
		ConditionExpression: aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#set": field,
			"#u":   fieldUpdatedAt,
			"#id":  fieldUserID,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":m":   &types.AttributeValueMemberSS{Value: []string{member}},
			":now": strVal(time.Now().UTC().Format(time.RFC3339Nano)),
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	return err
}

func (r *UserRepo) Search(ctx context.Context, q string, limit int) ([]domain.User, error) {
	items, err := scanMatching(ctx, r.client, r.tableName, q, limit)
	if err != nil {
		return nil, err
	}
	var users []domain.User
	if err := attributevalue.UnmarshalListOfMaps(items, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
