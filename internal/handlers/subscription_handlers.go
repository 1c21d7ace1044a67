package handlers

import (
	"net/http"

	"instaviz/internal/common"
	"instaviz/internal/models"
	"instaviz/internal/services"

	"github.com/labstack/echo/v4"
)

// SubscriptionHandlers handles HTTP requests for subscriptions
type SubscriptionHandlers struct {
	subscriptionService services.SubscriptionService
}

// NewSubscriptionHandlers creates a new subscription handlers instance
func NewSubscriptionHandlers(subscriptionService services.SubscriptionService) *SubscriptionHandlers {
	return &SubscriptionHandlers{subscriptionService: subscriptionService}
}

// Purchase handles POST /subscriptions/purchase
func (h *SubscriptionHandlers) Purchase(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req struct {
		PlanID   string `json:"plan_id"`
		Currency string `json:"currency"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	planID, err := common.ValidateUUID(req.PlanID, "plan_id")
	if err != nil {
		return common.SendValidationError(c, "plan_id", err.Error())
	}
	if req.Currency == "" {
		req.Currency = models.CurrencyRupees
	}

	result, err := h.subscriptionService.InitiatePurchase(ctx, userID, planID, req.Currency)
	if err != nil {
		return common.SendError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message":        "Subscription purchase initiated",
		"subscription":   result.Subscription,
		"razorpay_order": result.RazorpayOrder,
		"plan":           result.Plan,
	})
}

// Verify handles POST /subscriptions/verify
func (h *SubscriptionHandlers) Verify(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req struct {
		SubscriptionID    string `json:"subscription_id"`
		RazorpayOrderID   string `json:"razorpay_order_id"`
		RazorpayPaymentID string `json:"razorpay_payment_id"`
		RazorpaySignature string `json:"razorpay_signature"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	subscriptionID, err := common.ValidateUUID(req.SubscriptionID, "subscription_id")
	if err != nil {
		return common.SendValidationError(c, "subscription_id", err.Error())
	}

	subscription, err := h.subscriptionService.VerifyAndActivate(ctx, subscriptionID, userID, models.PaymentVerification{
		OrderID:   req.RazorpayOrderID,
		PaymentID: req.RazorpayPaymentID,
		Signature: req.RazorpaySignature,
	})
	if err != nil {
		return common.SendError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":      "Subscription activated successfully",
		"subscription": subscription,
	})
}

// GetActive handles GET /subscriptions/active
func (h *SubscriptionHandlers) GetActive(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	subscription, err := h.subscriptionService.GetActiveSubscription(ctx, userID)
	if err != nil {
		return common.SendError(c, err)
	}
	if subscription == nil {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"active":       false,
			"subscription": nil,
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"active":       true,
		"subscription": subscription,
	})
}

// Cancel handles POST /subscriptions/:id/cancel
func (h *SubscriptionHandlers) Cancel(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	subscriptionID, err := common.ValidateUUID(c.Param("id"), "subscription id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	subscription, err := h.subscriptionService.CancelSubscription(ctx, subscriptionID, userID)
	if err != nil {
		return common.SendError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":      "Subscription cancelled",
		"subscription": subscription,
	})
}

// ListMine handles GET /subscriptions
func (h *SubscriptionHandlers) ListMine(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	subscriptions, err := h.subscriptionService.ListUserSubscriptions(ctx, userID)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"subscriptions": subscriptions})
}

// ListAll handles GET /admin/subscriptions (admin)
func (h *SubscriptionHandlers) ListAll(c echo.Context) error {
	ctx := c.Request().Context()

	var filter models.SubscriptionFilter
	if status := c.QueryParam("status"); status != "" {
		filter.Status = &status
	}
	if userParam := c.QueryParam("user_id"); userParam != "" {
		userID, err := common.ValidateUUID(userParam, "user_id")
		if err != nil {
			return common.SendValidationError(c, "user_id", err.Error())
		}
		filter.UserID = &userID
	}

	subscriptions, err := h.subscriptionService.ListSubscriptions(ctx, filter)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"subscriptions": subscriptions})
}
