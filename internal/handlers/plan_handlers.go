package handlers

import (
	"net/http"

	"instaviz/internal/common"
	"instaviz/internal/models"
	"instaviz/internal/services"

	"github.com/labstack/echo/v4"
)

// PlanHandlers handles HTTP requests for plans
type PlanHandlers struct {
	planService services.PlanService
}

// NewPlanHandlers creates a new plan handlers instance
func NewPlanHandlers(planService services.PlanService) *PlanHandlers {
	return &PlanHandlers{planService: planService}
}

type planRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	DurationDays int      `json:"duration_days"`
	PriceRupees  float64  `json:"price_rupees"`
	PriceDollars float64  `json:"price_dollars"`
	CardTypes    []string `json:"card_types"`
	Features     []string `json:"features"`
	IsActive     bool     `json:"is_active"`
}

// ListPlans handles GET /plans. Non-admin callers only ever see the
// active catalogue.
func (h *PlanHandlers) ListPlans(c echo.Context) error {
	ctx := c.Request().Context()

	activeOnly := true
	if common.IsAdminContext(ctx) && c.QueryParam("include_inactive") == "true" {
		activeOnly = false
	}

	plans, err := h.planService.ListPlans(ctx, activeOnly)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"plans": plans})
}

// GetPlan handles GET /plans/:id
func (h *PlanHandlers) GetPlan(c echo.Context) error {
	ctx := c.Request().Context()

	planID, err := common.ValidateUUID(c.Param("id"), "plan id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	plan, err := h.planService.GetPlanByID(ctx, planID)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, plan)
}

// CreatePlan handles POST /plans (admin)
func (h *PlanHandlers) CreatePlan(c echo.Context) error {
	ctx := c.Request().Context()

	var req planRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.Title, "title"); err != nil {
		return common.SendValidationError(c, "title", err.Error())
	}
	if len(req.CardTypes) == 0 {
		return common.SendValidationError(c, "card_types", "at least one card type is required")
	}

	plan := &models.Plan{
		Title:        req.Title,
		Description:  req.Description,
		DurationDays: req.DurationDays,
		PriceRupees:  req.PriceRupees,
		PriceDollars: req.PriceDollars,
		CardTypes:    req.CardTypes,
		Features:     req.Features,
		IsActive:     req.IsActive,
	}
	if err := h.planService.CreatePlan(ctx, plan); err != nil {
		return common.SendError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Plan created successfully",
		"plan":    plan,
	})
}

// UpdatePlan handles PUT /plans/:id (admin)
func (h *PlanHandlers) UpdatePlan(c echo.Context) error {
	ctx := c.Request().Context()

	planID, err := common.ValidateUUID(c.Param("id"), "plan id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req planRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	plan := &models.Plan{
		ID:           planID,
		Title:        req.Title,
		Description:  req.Description,
		DurationDays: req.DurationDays,
		PriceRupees:  req.PriceRupees,
		PriceDollars: req.PriceDollars,
		CardTypes:    req.CardTypes,
		Features:     req.Features,
		IsActive:     req.IsActive,
	}
	if err := h.planService.UpdatePlan(ctx, plan); err != nil {
		return common.SendError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Plan updated successfully",
		"plan":    plan,
	})
}

// DeletePlan handles DELETE /plans/:id (admin)
func (h *PlanHandlers) DeletePlan(c echo.Context) error {
	ctx := c.Request().Context()

	planID, err := common.ValidateUUID(c.Param("id"), "plan id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.planService.DeletePlan(ctx, planID); err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"message": "Plan deleted successfully"})
}
