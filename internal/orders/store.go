package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/minhtran-dev/shop-backend/internal/awsx"
)

const (
	// gsiPartition is the constant partition value of every order on the
	// created_at index, so a single Query scans the whole collection in
	// creation-time order.
	gsiPartition   = "ORDER"
	createdAtIndex = "created_at-index"

	// DefaultListLimit caps List results when the caller passes no limit.
	DefaultListLimit = 100
)

// createdAtLayout is RFC3339 with fixed-width nanoseconds so the stored
// strings sort lexicographically in timestamp order.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned when the referenced order does not exist.
var ErrNotFound = errors.New("order not found")

// Store encapsulates operations on the orders table.
type Store struct {
	client    awsx.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new orders Store.
func NewStore(client awsx.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Create persists a new order. CreatedAt is stamped here; UpdatedAt stays
// nil until the first mutation. The stored order is returned.
func (s *Store) Create(ctx context.Context, order Order) (*Order, error) {
	order.GSIPartition = gsiPartition
	order.CreatedAt = s.nowFunc().UTC()
	order.UpdatedAt = nil

	item, err := attributevalue.MarshalMap(order)
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}
	// fixed-width timestamp so the created_at index sorts correctly
	item["created_at"] = &types.AttributeValueMemberS{Value: order.CreatedAt.Format(createdAtLayout)}

	input := &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(order_id)"),
	}
	if _, err := s.client.PutItem(ctx, input); err != nil {
		return nil, fmt.Errorf("put item: %w", err)
	}
	return &order, nil
}

// Get fetches an order by id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, orderID string) (*Order, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// List returns orders sorted by creation time descending, optionally
// filtered by status, skipping offset items and returning at most limit.
func (s *Store) List(ctx context.Context, status string, limit, offset int) ([]Order, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	input := &dyn.QueryInput{
		TableName:              &s.tableName,
		IndexName:              awsString(createdAtIndex),
		KeyConditionExpression: awsString("gsi_pk = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: gsiPartition},
		},
		ScanIndexForward: awsBool(false), // newest first
	}
	if status != "" {
		input.FilterExpression = awsString("#s = :status")
		input.ExpressionAttributeNames = map[string]string{"#s": "status"}
		input.ExpressionAttributeValues[":status"] = &types.AttributeValueMemberS{Value: status}
	}

	want := offset + limit
	var items []map[string]types.AttributeValue
	for {
		out, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("query orders: %w", err)
		}
		items = append(items, out.Items...)
		if len(out.LastEvaluatedKey) == 0 || len(items) >= want {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	if offset >= len(items) {
		return []Order{}, nil
	}
	items = items[offset:]
	if len(items) > limit {
		items = items[:limit]
	}

	result := make([]Order, 0, len(items))
	for _, item := range items {
		var o Order
		if err := attributevalue.UnmarshalMap(item, &o); err != nil {
			return nil, fmt.Errorf("unmarshal order: %w", err)
		}
		result = append(result, o)
	}
	return result, nil
}

// Update replaces every client-editable field and stamps UpdatedAt, then
// re-reads the document so server-assigned fields are reflected in the
// returned order. Returns ErrNotFound if the order does not exist.
func (s *Store) Update(ctx context.Context, orderID string, order Order) (*Order, error) {
	itemsAV, err := attributevalue.Marshal(order.Items)
	if err != nil {
		return nil, fmt.Errorf("marshal items: %w", err)
	}
	now := s.nowFunc().UTC()

	expr := "SET customer_name = :cn, customer_email = :ce, customer_phone = :cp, #items = :it, total_amount = :ta, updated_at = :ua"
	names := map[string]string{"#items": "items"}
	values := map[string]types.AttributeValue{
		":cn": &types.AttributeValueMemberS{Value: order.CustomerName},
		":ce": &types.AttributeValueMemberS{Value: order.CustomerEmail},
		":cp": &types.AttributeValueMemberS{Value: order.CustomerPhone},
		":it": itemsAV,
		":ta": &types.AttributeValueMemberN{Value: formatFloat(order.TotalAmount)},
		":ua": &types.AttributeValueMemberS{Value: now.Format(createdAtLayout)},
	}
	// an omitted status keeps the stored one
	if order.Status != "" {
		expr += ", #s = :st"
		names["#s"] = "status"
		values[":st"] = &types.AttributeValueMemberS{Value: order.Status}
	}

	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:          &expr,
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ConditionExpression:       awsString("attribute_exists(order_id)"),
	}
	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		if isConditionalCheckFailed(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update item: %w", err)
	}
	return s.Get(ctx, orderID)
}

// UpdateStatus changes only the status and UpdatedAt of an order and
// returns the post-update document. Returns ErrNotFound if absent.
func (s *Store) UpdateStatus(ctx context.Context, orderID, status string) (*Order, error) {
	now := s.nowFunc().UTC()
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:         awsString("SET #s = :st, updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{"#s": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":st": &types.AttributeValueMemberS{Value: status},
			":ua": &types.AttributeValueMemberS{Value: now.Format(createdAtLayout)},
		},
		ConditionExpression: awsString("attribute_exists(order_id)"),
	}
	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		if isConditionalCheckFailed(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update status: %w", err)
	}
	return s.Get(ctx, orderID)
}

// Delete removes an order. Returns ErrNotFound if it does not exist.
func (s *Store) Delete(ctx context.Context, orderID string) error {
	input := &dyn.DeleteItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		ConditionExpression: awsString("attribute_exists(order_id)"),
	}
	if _, err := s.client.DeleteItem(ctx, input); err != nil {
		if isConditionalCheckFailed(err) {
			return ErrNotFound
		}
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// isConditionalCheckFailed detects a failed attribute_exists guard.
func isConditionalCheckFailed(err error) bool {
	var cc *types.ConditionalCheckFailedException
	if errors.As(err, &cc) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException"
}

func formatFloat(f float64) string { return fmt.Sprintf("%g", f) }

func awsString(s string) *string { return &s }
func awsBool(b bool) *bool       { return &b }
