package orders

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockDynamo is a small in-memory mock supporting the subset of PutItem,
// GetItem, UpdateItem, DeleteItem and Query that the Store issues. Items
// are keyed by order_id.
type mockDynamo struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{items: map[string]map[string]types.AttributeValue{}}
}

func pkOf(attrs map[string]types.AttributeValue) (string, error) {
	v, ok := attrs["order_id"]
	if !ok {
		return "", errors.New("no order_id attribute")
	}
	return v.(*types.AttributeValueMemberS).Value, nil
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk, err := pkOf(params.Item)
	if err != nil {
		return nil, err
	}
	if params.ConditionExpression != nil && *params.ConditionExpression == "attribute_not_exists(order_id)" {
		if _, exists := m.items[pk]; exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	m.items[pk] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk, err := pkOf(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.items[pk]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

// placeholder -> attribute name mapping for the update expressions the
// Store builds. Naive, but enough to mirror DynamoDB behavior in tests.
var updatePlaceholders = map[string]string{
	":cn": "customer_name",
	":ce": "customer_email",
	":cp": "customer_phone",
	":it": "items",
	":ta": "total_amount",
	":st": "status",
	":ua": "updated_at",
}

func (m *mockDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk, err := pkOf(params.Key)
	if err != nil {
		return nil, err
	}
	item, exists := m.items[pk]
	if params.ConditionExpression != nil && *params.ConditionExpression == "attribute_exists(order_id)" && !exists {
		return nil, &types.ConditionalCheckFailedException{}
	}
	if !exists {
		return nil, errors.New("item not found")
	}
	for ph, attr := range updatePlaceholders {
		if v, ok := params.ExpressionAttributeValues[ph]; ok {
			item[attr] = v
		}
	}
	m.items[pk] = item
	return &dyn.UpdateItemOutput{Attributes: item}, nil
}

func (m *mockDynamo) DeleteItem(ctx context.Context, params *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk, err := pkOf(params.Key)
	if err != nil {
		return nil, err
	}
	if _, exists := m.items[pk]; !exists {
		if params.ConditionExpression != nil && *params.ConditionExpression == "attribute_exists(order_id)" {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	delete(m.items, pk)
	return &dyn.DeleteItemOutput{}, nil
}

func (m *mockDynamo) Query(ctx context.Context, params *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var statusFilter string
	if params.FilterExpression != nil {
		statusFilter = params.ExpressionAttributeValues[":status"].(*types.AttributeValueMemberS).Value
	}

	var out []map[string]types.AttributeValue
	for _, item := range m.items {
		if statusFilter != "" {
			st, ok := item["status"].(*types.AttributeValueMemberS)
			if !ok || st.Value != statusFilter {
				continue
			}
		}
		out = append(out, item)
	}
	// created_at stored fixed-width, so string order is timestamp order
	sort.Slice(out, func(i, j int) bool {
		a := out[i]["created_at"].(*types.AttributeValueMemberS).Value
		b := out[j]["created_at"].(*types.AttributeValueMemberS).Value
		return strings.Compare(a, b) > 0 // descending
	})
	return &dyn.QueryOutput{Items: out}, nil
}

func fixedClock(start time.Time, step time.Duration) func() time.Time {
	var calls int
	return func() time.Time {
		t := start.Add(time.Duration(calls) * step)
		calls++
		return t
	}
}

func sampleOrder(id string) Order {
	return Order{
		ID:            id,
		CustomerName:  "Nguyen Van A",
		CustomerEmail: "a@example.com",
		CustomerPhone: "0901234567",
		Items: []Item{
			{ProductName: "banh mi", Quantity: 2, Price: 1.5},
		},
		TotalAmount: 3.0,
		Status:      StatusPending,
	}
}

func TestCreateThenGet_RoundTrip(t *testing.T) {
	mock := newMockDynamo()
	store := NewStore(mock, "orders")
	start := time.Date(2025, 11, 16, 10, 0, 0, 0, time.UTC)
	store.nowFunc = func() time.Time { return start }

	created, err := store.Create(context.Background(), sampleOrder("order-1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created.CreatedAt.Equal(start) {
		t.Fatalf("createdAt not stamped: got %v", created.CreatedAt)
	}
	if created.UpdatedAt != nil {
		t.Fatalf("updatedAt must be nil at creation, got %v", created.UpdatedAt)
	}

	got, err := store.Get(context.Background(), "order-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected order, got nil")
	}
	if got.CustomerName != "Nguyen Van A" || got.CustomerEmail != "a@example.com" {
		t.Fatalf("customer fields mismatch: %+v", got)
	}
	if len(got.Items) != 1 || got.Items[0].ProductName != "banh mi" || got.Items[0].Quantity != 2 {
		t.Fatalf("items mismatch: %+v", got.Items)
	}
	if got.UpdatedAt != nil {
		t.Fatalf("updatedAt should round-trip as nil, got %v", got.UpdatedAt)
	}
	if !got.CreatedAt.Equal(start) {
		t.Fatalf("createdAt mismatch after round trip: %v", got.CreatedAt)
	}
}

func TestGet_Missing(t *testing.T) {
	store := NewStore(newMockDynamo(), "orders")
	got, err := store.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing order, got %+v", got)
	}
}

func TestUpdateStatus_ChangesOnlyStatusAndUpdatedAt(t *testing.T) {
	mock := newMockDynamo()
	store := NewStore(mock, "orders")
	start := time.Date(2025, 11, 16, 10, 0, 0, 0, time.UTC)
	store.nowFunc = fixedClock(start, time.Minute)

	if _, err := store.Create(context.Background(), sampleOrder("order-2")); err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := store.UpdateStatus(context.Background(), "order-2", StatusProcessing)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != StatusProcessing {
		t.Fatalf("status not updated: %s", updated.Status)
	}
	if updated.UpdatedAt == nil {
		t.Fatal("updatedAt not stamped")
	}
	if updated.CustomerName != "Nguyen Van A" || updated.TotalAmount != 3.0 || len(updated.Items) != 1 {
		t.Fatalf("other fields changed: %+v", updated)
	}
	if !updated.CreatedAt.Equal(start) {
		t.Fatalf("createdAt must not change, got %v", updated.CreatedAt)
	}
}

func TestUpdateStatus_NotFound(t *testing.T) {
	store := NewStore(newMockDynamo(), "orders")
	_, err := store.UpdateStatus(context.Background(), "missing", StatusCompleted)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdate_ReplacesFieldsAndStampsUpdatedAt(t *testing.T) {
	mock := newMockDynamo()
	store := NewStore(mock, "orders")
	store.nowFunc = fixedClock(time.Date(2025, 11, 16, 10, 0, 0, 0, time.UTC), time.Minute)

	if _, err := store.Create(context.Background(), sampleOrder("order-3")); err != nil {
		t.Fatalf("create: %v", err)
	}

	replacement := sampleOrder("order-3")
	replacement.CustomerName = "Tran Thi B"
	replacement.Items = []Item{{ProductName: "ca phe", Quantity: 1, Price: 2.0}}
	replacement.TotalAmount = 2.0
	replacement.Status = StatusCompleted

	updated, err := store.Update(context.Background(), "order-3", replacement)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.CustomerName != "Tran Thi B" || updated.TotalAmount != 2.0 || updated.Status != StatusCompleted {
		t.Fatalf("fields not replaced: %+v", updated)
	}
	if len(updated.Items) != 1 || updated.Items[0].ProductName != "ca phe" {
		t.Fatalf("items not replaced: %+v", updated.Items)
	}
	if updated.UpdatedAt == nil {
		t.Fatal("updatedAt not stamped")
	}
}

func TestUpdate_OmittedStatusKeepsStored(t *testing.T) {
	mock := newMockDynamo()
	store := NewStore(mock, "orders")

	seed := sampleOrder("order-5")
	seed.Status = StatusProcessing
	if _, err := store.Create(context.Background(), seed); err != nil {
		t.Fatalf("create: %v", err)
	}

	replacement := sampleOrder("order-5")
	replacement.Status = ""
	updated, err := store.Update(context.Background(), "order-5", replacement)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != StatusProcessing {
		t.Fatalf("omitted status must keep stored value, got %s", updated.Status)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	store := NewStore(newMockDynamo(), "orders")
	_, err := store.Update(context.Background(), "missing", sampleOrder("missing"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete_ThenGet(t *testing.T) {
	mock := newMockDynamo()
	store := NewStore(mock, "orders")

	if _, err := store.Create(context.Background(), sampleOrder("order-4")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Delete(context.Background(), "order-4"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := store.Get(context.Background(), "order-4")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected order gone, got %+v", got)
	}
	if err := store.Delete(context.Background(), "order-4"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestList_SortLimitOffsetAndFilter(t *testing.T) {
	mock := newMockDynamo()
	store := NewStore(mock, "orders")
	store.nowFunc = fixedClock(time.Date(2025, 11, 16, 10, 0, 0, 0, time.UTC), time.Minute)

	statuses := []string{StatusPending, StatusCompleted, StatusPending, StatusCancelled, StatusPending}
	for i, st := range statuses {
		o := sampleOrder(string(rune('a' + i))) // ids a..e
		o.Status = st
		if _, err := store.Create(context.Background(), o); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	all, err := store.List(context.Background(), "", 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 orders, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].CreatedAt.After(all[i-1].CreatedAt) {
			t.Fatalf("not sorted descending at %d", i)
		}
	}

	limited, err := store.List(context.Background(), "", 2, 0)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("limit not applied: got %d", len(limited))
	}
	// newest order was created last
	if limited[0].ID != "e" {
		t.Fatalf("expected newest order first, got %s", limited[0].ID)
	}

	offset, err := store.List(context.Background(), "", 10, 3)
	if err != nil {
		t.Fatalf("list offset: %v", err)
	}
	if len(offset) != 2 {
		t.Fatalf("offset not applied: got %d", len(offset))
	}

	pending, err := store.List(context.Background(), StatusPending, 10, 0)
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("expected 3 pending orders, got %d", len(pending))
	}
	for _, o := range pending {
		if o.Status != StatusPending {
			t.Fatalf("filter leaked status %s", o.Status)
		}
	}

	empty, err := store.List(context.Background(), "", 10, 100)
	if err != nil {
		t.Fatalf("list past end: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty result, got %d", len(empty))
	}
}
