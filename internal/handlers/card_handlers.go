package handlers

import (
	"net/http"

	"instaviz/internal/common"
	"instaviz/internal/services"

	"github.com/labstack/echo/v4"
)

// CardHandlers handles HTTP requests for cards
type CardHandlers struct {
	cardService services.CardService
}

// NewCardHandlers creates a new card handlers instance
func NewCardHandlers(cardService services.CardService) *CardHandlers {
	return &CardHandlers{cardService: cardService}
}

// CreateCard handles POST /cards. This is the fan-out entry point:
// render the card, persist it, then open orders per the active plan.
func (h *CardHandlers) CreateCard(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req struct {
		ProfileID  string `json:"profile_id"`
		TemplateID string `json:"template_id"`
		ThemeID    string `json:"theme_id"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	profileID, err := common.ValidateUUID(req.ProfileID, "profile_id")
	if err != nil {
		return common.SendValidationError(c, "profile_id", err.Error())
	}
	if err := common.ValidateRequiredString(req.TemplateID, "template_id"); err != nil {
		return common.SendValidationError(c, "template_id", err.Error())
	}
	if err := common.ValidateRequiredString(req.ThemeID, "theme_id"); err != nil {
		return common.SendValidationError(c, "theme_id", err.Error())
	}

	result, err := h.cardService.CreateCard(ctx, userID, profileID, req.TemplateID, req.ThemeID)
	if err != nil {
		return common.SendError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": result.Message,
		"card":    result.Card,
		"orders":  result.Orders,
	})
}

// UpdateCard handles PUT /cards/:id. Template and theme are both
// optional; omitted fields keep the card's stored values and the card
// is regenerated through the render API either way.
func (h *CardHandlers) UpdateCard(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	cardID, err := common.ValidateUUID(c.Param("id"), "card id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req struct {
		TemplateID string `json:"template_id"`
		ThemeID    string `json:"theme_id"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	card, err := h.cardService.UpdateCard(ctx, userID, cardID, req.TemplateID, req.ThemeID)
	if err != nil {
		return common.SendError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Card updated successfully",
		"card":    card,
	})
}

// GetCard handles GET /cards/:id
func (h *CardHandlers) GetCard(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	cardID, err := common.ValidateUUID(c.Param("id"), "card id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	card, err := h.cardService.GetCardByID(ctx, cardID)
	if err != nil {
		return common.SendError(c, err)
	}
	if card.UserID != userID && !common.IsAdminContext(ctx) {
		return common.SendError(c, common.NewNotFound("card"))
	}
	return c.JSON(http.StatusOK, card)
}

// ListCards handles GET /cards
func (h *CardHandlers) ListCards(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	cards, err := h.cardService.ListUserCards(ctx, userID)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"cards": cards})
}
