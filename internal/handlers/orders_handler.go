package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/minhtran-dev/shop-backend/internal/awsx"
	"github.com/minhtran-dev/shop-backend/internal/orders"
	"github.com/minhtran-dev/shop-backend/internal/validation"
)

const storeNotInitializedMsg = "Order store is not initialized. Set ORDERS_TABLE and AWS credentials, or AWS_ENDPOINT_OVERRIDE for local development."

// OrdersConfig groups dependencies for the orders routes.
type OrdersConfig struct {
	Store     *orders.Store   // nil when the document store is not configured
	Publisher *awsx.Publisher // nil disables lifecycle event publishing
}

type ordersHandler struct {
	cfg      OrdersConfig
	validate *validatorv10.Validate
}

// RegisterOrdersRoutes registers the /api/orders resource.
func RegisterOrdersRoutes(r *gin.Engine, cfg OrdersConfig) {
	h := &ordersHandler{cfg: cfg, validate: validation.New()}

	g := r.Group("/api/orders")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.PATCH("/:id/status", h.patchStatus)
	g.DELETE("/:id", h.remove)
}

func (h *ordersHandler) list(c *gin.Context) {
	if h.cfg.Store == nil {
		respondError(c, http.StatusInternalServerError, storeNotInitializedMsg)
		return
	}

	limit := intQuery(c, "limit", orders.DefaultListLimit)
	offset := intQuery(c, "offset", 0)
	status := c.Query("status")

	result, err := h.cfg.Store.List(c.Request.Context(), status, limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to list orders: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
		"count":   len(result),
	})
}

func (h *ordersHandler) get(c *gin.Context) {
	if h.cfg.Store == nil {
		respondError(c, http.StatusInternalServerError, storeNotInitializedMsg)
		return
	}

	order, err := h.cfg.Store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to fetch order: "+err.Error())
		return
	}
	if order == nil {
		orderNotFound(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

func (h *ordersHandler) create(c *gin.Context) {
	if h.cfg.Store == nil {
		respondError(c, http.StatusInternalServerError, storeNotInitializedMsg)
		return
	}

	var req validation.OrderRequest
	if err := validation.BindAndValidate(c, &req, h.validate); err != nil {
		return
	}

	order := orderFromRequest(req)
	order.ID = uuid.NewString()
	if order.Status == "" {
		order.Status = orders.StatusPending
	}

	created, err := h.cfg.Store.Create(c.Request.Context(), order)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to create order: "+err.Error())
		return
	}

	h.publish(c.Request.Context(), awsx.EventOrderCreated, created.ID, created.Status)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Order created successfully",
		"data":    created,
	})
}

func (h *ordersHandler) update(c *gin.Context) {
	if h.cfg.Store == nil {
		respondError(c, http.StatusInternalServerError, storeNotInitializedMsg)
		return
	}

	var req validation.OrderRequest
	if err := validation.BindAndValidate(c, &req, h.validate); err != nil {
		return
	}

	updated, err := h.cfg.Store.Update(c.Request.Context(), c.Param("id"), orderFromRequest(req))
	if errors.Is(err, orders.ErrNotFound) {
		orderNotFound(c)
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to update order: "+err.Error())
		return
	}

	h.publish(c.Request.Context(), awsx.EventOrderUpdated, updated.ID, updated.Status)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Order updated successfully",
		"data":    updated,
	})
}

func (h *ordersHandler) patchStatus(c *gin.Context) {
	if h.cfg.Store == nil {
		respondError(c, http.StatusInternalServerError, storeNotInitializedMsg)
		return
	}

	var req validation.StatusRequest
	if err := validation.BindAndValidate(c, &req, h.validate); err != nil {
		return
	}

	updated, err := h.cfg.Store.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if errors.Is(err, orders.ErrNotFound) {
		orderNotFound(c)
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to update order status: "+err.Error())
		return
	}

	h.publish(c.Request.Context(), awsx.EventOrderStatusChanged, updated.ID, updated.Status)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Order status updated successfully",
		"data":    updated,
	})
}

func (h *ordersHandler) remove(c *gin.Context) {
	if h.cfg.Store == nil {
		respondError(c, http.StatusInternalServerError, storeNotInitializedMsg)
		return
	}

	id := c.Param("id")
	err := h.cfg.Store.Delete(c.Request.Context(), id)
	if errors.Is(err, orders.ErrNotFound) {
		orderNotFound(c)
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to delete order: "+err.Error())
		return
	}

	h.publish(c.Request.Context(), awsx.EventOrderDeleted, id, "")

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Order deleted successfully",
	})
}

// publish sends a lifecycle event when a publisher is configured. Publish
// failures are logged and never fail the request.
func (h *ordersHandler) publish(ctx context.Context, eventType, orderID, status string) {
	if h.cfg.Publisher == nil {
		return
	}
	ev := awsx.OrderEvent{Type: eventType, OrderID: orderID, Status: status}
	if err := h.cfg.Publisher.PublishOrderEvent(ctx, ev); err != nil {
		log.Printf("publish %s for order %s: %v", eventType, orderID, err)
	}
}

func orderFromRequest(req validation.OrderRequest) orders.Order {
	items := make([]orders.Item, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, orders.Item{
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       *it.Price,
		})
	}
	return orders.Order{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Items:         items,
		TotalAmount:   *req.TotalAmount,
		Status:        req.Status,
	}
}

func orderNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"success": false,
		"error":   "Order not found",
	})
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
