package orders

import "time"

// Order statuses
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// ValidStatus reports whether s is a known order status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Item is a single order line item.
type Item struct {
	ProductName string  `json:"productName" dynamodbav:"product_name"`
	Quantity    int     `json:"quantity" dynamodbav:"quantity"`
	Price       float64 `json:"price" dynamodbav:"price"`
}

// Order represents the document stored in the orders DynamoDB table.
// GSIPartition is a constant attribute so the created_at index can serve
// whole-collection queries sorted by creation time.
type Order struct {
	ID            string     `json:"id" dynamodbav:"order_id"` // PK
	GSIPartition  string     `json:"-" dynamodbav:"gsi_pk"`
	CustomerName  string     `json:"customerName" dynamodbav:"customer_name"`
	CustomerEmail string     `json:"customerEmail" dynamodbav:"customer_email"`
	CustomerPhone string     `json:"customerPhone" dynamodbav:"customer_phone"`
	Items         []Item     `json:"items" dynamodbav:"items"`
	TotalAmount   float64    `json:"totalAmount" dynamodbav:"total_amount"`
	Status        string     `json:"status" dynamodbav:"status"` // pending | processing | completed | cancelled
	CreatedAt     time.Time  `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt     *time.Time `json:"updatedAt" dynamodbav:"updated_at"` // nil until the first mutation
}
