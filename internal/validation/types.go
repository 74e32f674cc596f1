package validation

// OrderItem is a single line item of an order payload.
type OrderItem struct {
	ProductName string   `json:"productName" validate:"required"`
	Quantity    int      `json:"quantity" validate:"required,min=1"`
	Price       *float64 `json:"price" validate:"required,gte=0"` // pointer so 0 still satisfies required
}

// OrderRequest is the payload for POST /api/orders and PUT /api/orders/:id.
type OrderRequest struct {
	CustomerName  string      `json:"customerName" validate:"required"`
	CustomerEmail string      `json:"customerEmail" validate:"required,email"`
	CustomerPhone string      `json:"customerPhone" validate:"required"`
	Items         []OrderItem `json:"items" validate:"required,min=1,dive"` // at least one item
	TotalAmount   *float64    `json:"totalAmount" validate:"required,gte=0"`
	Status        string      `json:"status" validate:"omitempty,oneof=pending processing completed cancelled"`
}

// StatusRequest is the payload for PATCH /api/orders/:id/status.
type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending processing completed cancelled"`
}

// FieldError is a single validation failure, addressed by the JSON field path.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
