package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/jaekwang-park/serverless-todo/internal/model"
)

const (
	attrUserID        = "userId"
	attrTodoID        = "todoId"
	attrName          = "name"
	attrDueDate       = "dueDate"
	attrDone          = "done"
	attrAttachmentURL = "attachmentUrl"
)

// DynamoDBAPI is the subset of *dynamodb.Client used by DynamoTodoStore.
type DynamoDBAPI interface {
	dynamodb.QueryAPIClient
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// DynamoTodoStore keeps todos in a table keyed by (userId, todoId) with a
// secondary index keyed by (userId, createdAt).
type DynamoTodoStore struct {
	client DynamoDBAPI
	table  string
	index  string
}

func NewDynamoTodoStore(client DynamoDBAPI, table, index string) *DynamoTodoStore {
	return &DynamoTodoStore{client: client, table: table, index: index}
}

type todoKey struct {
	UserID string `dynamodbav:"userId"`
	TodoID string `dynamodbav:"todoId"`
}

func (s *DynamoTodoStore) key(userID, todoID string) (map[string]types.AttributeValue, error) {
	key, err := attributevalue.MarshalMap(todoKey{UserID: userID, TodoID: todoID})
	if err != nil {
		return nil, fmt.Errorf("marshal key: %w", err)
	}
	return key, nil
}

func (s *DynamoTodoStore) List(ctx context.Context, userID string) ([]model.TodoItem, error) {
	keyCond := expression.Key(attrUserID).Equal(expression.Value(userID))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("%w: build expression: %w", ErrStoreUnavailable, err)
	}

	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:                 aws.String(s.table),
		IndexName:                 aws.String(s.index),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	})

	items := []model.TodoItem{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, mapDynamoError("query", err)
		}

		var batch []model.TodoItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("%w: unmarshal todos: %w", ErrStoreUnavailable, err)
		}
		items = append(items, batch...)
	}

	return items, nil
}

// Put writes item unconditionally, replacing any item with the same key.
func (s *DynamoTodoStore) Put(ctx context.Context, item model.TodoItem) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("%w: marshal todo: %w", ErrStoreUnavailable, err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	})
	if err != nil {
		return mapDynamoError("put", err)
	}
	return nil
}

// Delete removes the item if present. Deleting a missing key succeeds.
func (s *DynamoTodoStore) Delete(ctx context.Context, userID, todoID string) error {
	key, err := s.key(userID, todoID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       key,
	})
	if err != nil {
		return mapDynamoError("delete", err)
	}
	return nil
}

func (s *DynamoTodoStore) Update(ctx context.Context, userID, todoID string, upd model.TodoUpdate) error {
	update := expression.Set(expression.Name(attrName), expression.Value(upd.Name)).
		Set(expression.Name(attrDueDate), expression.Value(upd.DueDate)).
		Set(expression.Name(attrDone), expression.Value(upd.Done))

	return s.updateExisting(ctx, "update", userID, todoID, update)
}

func (s *DynamoTodoStore) SetAttachmentURL(ctx context.Context, userID, todoID, url string) error {
	update := expression.Set(expression.Name(attrAttachmentURL), expression.Value(url))

	return s.updateExisting(ctx, "set attachment", userID, todoID, update)
}

// updateExisting applies update to the item at (userID, todoID), refusing
// to create a partial item when the key does not exist.
func (s *DynamoTodoStore) updateExisting(ctx context.Context, op, userID, todoID string, update expression.UpdateBuilder) error {
	key, err := s.key(userID, todoID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name(attrTodoID))).
		Build()
	if err != nil {
		return fmt.Errorf("%w: build expression: %w", ErrStoreUnavailable, err)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       key,
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return mapDynamoError(op, err)
	}
	return nil
}

// mapDynamoError converts SDK errors into repository sentinel errors.
func mapDynamoError(op string, err error) error {
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return ErrNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: dynamodb %s %s: %w", ErrStoreUnavailable, op, apiErr.ErrorCode(), err)
	}
	return fmt.Errorf("%w: dynamodb %s: %w", ErrStoreUnavailable, op, err)
}

var _ TodoStore = (*DynamoTodoStore)(nil)
