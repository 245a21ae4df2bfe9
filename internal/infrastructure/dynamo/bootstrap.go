package dynamo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/devconnect-api/internal/config"
)

// Bootstrap creates all DynamoDB tables and GSIs if they don't already exist.
// Safe to call on every startup; tables that already exist are skipped.
func Bootstrap(ctx context.Context, client *dynamodb.Client, tables config.DynamoTables) {
	for _, input := range tableDefinitions(tables) {
		createTable(ctx, client, input)
	}
}

func tableDefinitions(tables config.DynamoTables) []*dynamodb.CreateTableInput {
	return []*dynamodb.CreateTableInput{
		{
			TableName:   aws.String(tables.Users),
			BillingMode: types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{
				attr(fieldUserID),
				attr(fieldEmail),
			},
			KeySchema: hashKey(fieldUserID),
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
				gsi(indexEmail, fieldEmail, ""),
			},
		},
		{
			TableName:   aws.String(tables.Posts),
			BillingMode: types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{
				attr(fieldPostID),
				attr(fieldUserID),
				attr(fieldFeed),
			},
			KeySchema: hashKey(fieldPostID),
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
				gsi(indexPostFeed, fieldFeed, fieldPostID),
				gsi(indexPostsByUser, fieldUserID, fieldPostID),
			},
		},
		{
			TableName:   aws.String(tables.Resources),
			BillingMode: types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{
				attr(fieldResourceID),
				attr(fieldUserID),
				attr(fieldFeed),
			},
			KeySchema: hashKey(fieldResourceID),
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
				gsi(indexResourceFeed, fieldFeed, fieldResourceID),
				gsi(indexResourcesByUser, fieldUserID, fieldResourceID),
			},
		},
		{
			TableName:   aws.String(tables.Notifications),
			BillingMode: types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{
				attr(fieldNotificationID),
				attr(fieldUserID),
			},
			KeySchema: hashKey(fieldNotificationID),
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
				gsi(indexNotificationsByUser, fieldUserID, fieldNotificationID),
			},
		},
		{
			TableName:   aws.String(tables.Messages),
			BillingMode: types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{
				attr(fieldMessageID),
				attr(fieldConversationID),
				attr(fieldSenderID),
				attr(fieldReceiverID),
			},
			KeySchema: hashKey(fieldMessageID),
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
				gsi(indexConversation, fieldConversationID, fieldMessageID),
				gsi(indexSent, fieldSenderID, fieldMessageID),
				gsi(indexReceived, fieldReceiverID, fieldMessageID),
			},
		},
	}
}

func attr(name string) types.AttributeDefinition {
	return types.AttributeDefinition{AttributeName: aws.String(name), AttributeType: types.ScalarAttributeTypeS}
}

func hashKey(name string) []types.KeySchemaElement {
	return []types.KeySchemaElement{{AttributeName: aws.String(name), KeyType: types.KeyTypeHash}}
}

// gsi builds a GSI descriptor. If sortKey is empty, only a hash key is added.
func gsi(indexName, hashKey, sortKey string) types.GlobalSecondaryIndex {
	ks := []types.KeySchemaElement{
		{AttributeName: aws.String(hashKey), KeyType: types.KeyTypeHash},
	}
	if sortKey != "" {
		ks = append(ks, types.KeySchemaElement{
			AttributeName: aws.String(sortKey), KeyType: types.KeyTypeRange,
		})
	}
	return types.GlobalSecondaryIndex{
		IndexName:  aws.String(indexName),
		KeySchema:  ks,
		Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
	}
}

func createTable(ctx context.Context, client *dynamodb.Client, input *dynamodb.CreateTableInput) {
	_, err := client.CreateTable(ctx, input)
	if err != nil {
		// ResourceInUseException means the table already exists.
		var riue *types.ResourceInUseException
		if !errors.As(err, &riue) {
			slog.Warn("could not create table", "table", *input.TableName, "err", err)
		}
		return
	}
	waiter := dynamodb.NewTableExistsWaiter(client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: input.TableName}, 30*time.Second); err != nil {
		slog.Warn("table not active yet", "table", *input.TableName, "err", err)
		return
	}
	slog.Info("created table", "table", *input.TableName)
}
