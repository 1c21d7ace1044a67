package handlers

import (
	"net/http"
	"time"

	"instaviz/internal/common"
	"instaviz/internal/models"
	"instaviz/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// OrderHandlers handles HTTP requests for orders
type OrderHandlers struct {
	orderService   services.OrderService
	invoiceService services.InvoiceService
}

// NewOrderHandlers creates a new order handlers instance
func NewOrderHandlers(orderService services.OrderService, invoiceService services.InvoiceService) *OrderHandlers {
	return &OrderHandlers{
		orderService:   orderService,
		invoiceService: invoiceService,
	}
}

// CreateOrder handles POST /orders
func (h *OrderHandlers) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req struct {
		PlanID          string                  `json:"plan_id"`
		CardType        string                  `json:"card_type"`
		Quantity        int                     `json:"quantity"`
		TotalAmount     float64                 `json:"total_amount"`
		Customization   models.Customization    `json:"customization"`
		ShippingAddress *models.ShippingAddress `json:"shipping_address"`
		Notes           *string                 `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	planID, err := common.ValidateUUID(req.PlanID, "plan_id")
	if err != nil {
		return common.SendValidationError(c, "plan_id", err.Error())
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	order, err := h.orderService.CreateOrder(ctx, services.CreateOrderInput{
		UserID:          userID,
		PlanID:          planID,
		CardType:        req.CardType,
		Quantity:        req.Quantity,
		TotalAmount:     req.TotalAmount,
		Customization:   req.Customization,
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
	})
	if err != nil {
		return common.SendError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Order created successfully",
		"order":   order,
	})
}

// ListOrders handles GET /orders. Admins see every order and may scope
// by user; everyone else sees only their own.
func (h *OrderHandlers) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var filter models.OrderFilter
	if common.IsAdminContext(ctx) {
		if userParam := c.QueryParam("user_id"); userParam != "" {
			scopedID, err := common.ValidateUUID(userParam, "user_id")
			if err != nil {
				return common.SendValidationError(c, "user_id", err.Error())
			}
			filter.UserID = &scopedID
		}
	} else {
		filter.UserID = &userID
	}

	if status := c.QueryParam("status"); status != "" {
		filter.Status = &status
	}
	if cardType := c.QueryParam("card_type"); cardType != "" {
		filter.CardType = &cardType
	}
	if start := c.QueryParam("start_date"); start != "" {
		t, err := time.Parse("2006-01-02", start)
		if err != nil {
			return common.SendValidationError(c, "start_date", "expected YYYY-MM-DD")
		}
		filter.StartDate = &t
	}
	if end := c.QueryParam("end_date"); end != "" {
		t, err := time.Parse("2006-01-02", end)
		if err != nil {
			return common.SendValidationError(c, "end_date", "expected YYYY-MM-DD")
		}
		filter.EndDate = &t
	}

	orders, err := h.orderService.ListOrders(ctx, filter)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"orders": orders})
}

// GetOrder handles GET /orders/:id
func (h *OrderHandlers) GetOrder(c echo.Context) error {
	order, err := h.loadOwnedOrder(c)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

// UpdateOrder handles PUT /orders/:id (pending orders only)
func (h *OrderHandlers) UpdateOrder(c echo.Context) error {
	ctx := c.Request().Context()

	order, err := h.loadOwnedOrder(c)
	if err != nil {
		return common.SendError(c, err)
	}

	var req struct {
		Quantity        *int                    `json:"quantity"`
		TotalAmount     *float64                `json:"total_amount"`
		Customization   models.Customization    `json:"customization"`
		ShippingAddress *models.ShippingAddress `json:"shipping_address"`
		Status          *string                 `json:"status"`
		Notes           *string                 `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	updated, err := h.orderService.UpdateOrder(ctx, order.ID, services.OrderEdits{
		Quantity:        req.Quantity,
		TotalAmount:     req.TotalAmount,
		Customization:   req.Customization,
		ShippingAddress: req.ShippingAddress,
		Status:          req.Status,
		Notes:           req.Notes,
	})
	if err != nil {
		return common.SendError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Order updated successfully",
		"order":   updated,
	})
}

// DeleteOrder handles DELETE /orders/:id (pending orders only)
func (h *OrderHandlers) DeleteOrder(c echo.Context) error {
	ctx := c.Request().Context()

	order, err := h.loadOwnedOrder(c)
	if err != nil {
		return common.SendError(c, err)
	}

	if err := h.orderService.DeleteOrder(ctx, order.ID); err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"message": "Order deleted successfully"})
}

// UpdateOrderStatus handles PATCH /admin/orders/:id/status (admin)
func (h *OrderHandlers) UpdateOrderStatus(c echo.Context) error {
	ctx := c.Request().Context()

	orderID, err := common.ValidateUUID(c.Param("id"), "order id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req struct {
		Status     string `json:"status"`
		AdminNotes string `json:"admin_notes"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if req.Status == "" {
		return common.SendValidationError(c, "status", "status is required")
	}

	order, err := h.orderService.UpdateOrderStatus(ctx, orderID, req.Status, req.AdminNotes)
	if err != nil {
		return common.SendError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Order status updated",
		"order":   order,
	})
}

// GetOrderStats handles GET /orders/stats/summary. Admins get the global view;
// users get their own slice.
func (h *OrderHandlers) GetOrderStats(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var scopeUser *uuid.UUID
	if !common.IsAdminContext(ctx) {
		scopeUser = &userID
	}

	stats, err := h.orderService.GetOrderStats(ctx, scopeUser)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// GetOrderInvoice handles POST /orders/:id/invoice
func (h *OrderHandlers) GetOrderInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	order, err := h.loadOwnedOrder(c)
	if err != nil {
		return common.SendError(c, err)
	}

	url, err := h.invoiceService.GenerateOrderInvoice(ctx, order.ID)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"invoice_url": url})
}

// loadOwnedOrder fetches the order in the path and enforces ownership:
// admins can reach any order, users only their own.
func (h *OrderHandlers) loadOwnedOrder(c echo.Context) (*models.Order, error) {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return nil, common.NewNotFound("order")
	}

	orderID, err := common.ValidateUUID(c.Param("id"), "order id")
	if err != nil {
		return nil, common.NewNotFound("order")
	}

	order, err := h.orderService.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID && !common.IsAdminContext(ctx) {
		return nil, common.NewNotFound("order")
	}
	return order, nil
}
