package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"instaviz/internal/common"
	"instaviz/internal/models"
	"instaviz/internal/repositories"

	"github.com/google/uuid"
)

const digitalLinkValidity = 365 * 24 * time.Hour

// OrderTransitions is the per-card-type-group transition table. Digital
// orders fulfil instantly so they skip the print pipeline entirely;
// physical and NFC orders share the print pipeline. Missing keys are
// terminal states.
var OrderTransitions = map[string]map[string][]string{
	models.CardTypeDigital: {
		models.OrderStatusPending:     {models.OrderStatusLinkCreated, models.OrderStatusCancelled},
		models.OrderStatusLinkCreated: {models.OrderStatusCancelled},
	},
	"physical-nfc": {
		models.OrderStatusPending:         {models.OrderStatusPrintingPending, models.OrderStatusCancelled},
		models.OrderStatusPrintingPending: {models.OrderStatusPrinting, models.OrderStatusCancelled},
		models.OrderStatusPrinting:        {models.OrderStatusDispatched, models.OrderStatusCancelled},
		models.OrderStatusDispatched:      {models.OrderStatusDelivered, models.OrderStatusCancelled},
	},
}

func transitionGroup(cardType string) string {
	if cardType == models.CardTypeDigital {
		return models.CardTypeDigital
	}
	return "physical-nfc"
}

// allowedTransitions returns the valid next statuses for an order, nil
// for terminal states.
func allowedTransitions(cardType, from string) []string {
	return OrderTransitions[transitionGroup(cardType)][from]
}

// CreateOrderInput carries everything needed to open an order.
type CreateOrderInput struct {
	UserID          uuid.UUID
	PlanID          uuid.UUID
	CardType        string
	Quantity        int
	TotalAmount     float64
	Customization   models.Customization
	ShippingAddress *models.ShippingAddress
	Notes           *string
}

// OrderEdits carries the user-editable fields of a pending order. Nil
// fields are left untouched.
type OrderEdits struct {
	Quantity        *int
	TotalAmount     *float64
	Customization   models.Customization
	ShippingAddress *models.ShippingAddress
	Status          *string
	Notes           *string
}

// OrderService owns the order lifecycle: creation preconditions, the
// status state machine and the audit history.
type OrderService interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	GetOrderByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus, adminNotes string) (*models.Order, error)
	MarkLinkCreated(ctx context.Context, orderID uuid.UUID, reason string) (*models.Order, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, edits OrderEdits) (*models.Order, error)
	DeleteOrder(ctx context.Context, orderID uuid.UUID) error
	GetOrderStats(ctx context.Context, userID *uuid.UUID) (*models.OrderStats, error)
}

type orderService struct {
	orderRepo        repositories.OrderRepository
	userRepo         repositories.UserRepository
	planRepo         repositories.PlanRepository
	subscriptionRepo repositories.SubscriptionRepository
	notificationSvc  NotificationService
	frontendURL      string
}

// NewOrderService creates a new OrderService instance.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	userRepo repositories.UserRepository,
	planRepo repositories.PlanRepository,
	subscriptionRepo repositories.SubscriptionRepository,
	notificationSvc NotificationService,
	frontendURL string,
) OrderService {
	return &orderService{
		orderRepo:        orderRepo,
		userRepo:         userRepo,
		planRepo:         planRepo,
		subscriptionRepo: subscriptionRepo,
		notificationSvc:  notificationSvc,
		frontendURL:      frontendURL,
	}
}

// CreateOrder validates every precondition before the first write: the
// user and plan must exist, the card type must be offered by the plan,
// and the user must hold an active subscription.
func (s *orderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if !models.ValidCardType(input.CardType) {
		return nil, common.NewInvalidState("invalid card type '%s'", input.CardType)
	}
	if input.Quantity < 1 {
		return nil, common.NewInvalidState("quantity must be at least 1")
	}
	if input.TotalAmount <= 0 {
		return nil, common.NewInvalidState("total amount must be greater than zero")
	}

	user, err := s.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, common.NewNotFound("user")
	}

	plan, err := s.planRepo.GetByID(ctx, input.PlanID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, common.NewNotFound("plan")
	}
	if !plan.OffersCardType(input.CardType) {
		return nil, common.NewInvalidState("plan '%s' does not include %s cards", plan.Title, input.CardType)
	}

	subscription, err := s.subscriptionRepo.GetActiveByUserID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if subscription == nil {
		return nil, common.NewInvalidState("an active subscription is required to place orders")
	}

	now := time.Now()
	order := &models.Order{
		ID:       uuid.New(),
		UserID:   input.UserID,
		PlanID:   input.PlanID,
		CardType: input.CardType,
		OrderDetails: models.OrderDetails{
			Quantity:      input.Quantity,
			Customization: input.Customization,
			TotalAmount:   input.TotalAmount,
		},
		ShippingAddress:       input.ShippingAddress,
		Status:                models.OrderStatusPending,
		Notes:                 input.Notes,
		WasSubscriptionActive: true,
		History: []models.HistoryEntry{{
			Status:    models.OrderStatusPending,
			ChangedAt: now,
			ChangedBy: models.ActorUser,
			Reason:    "Order created",
		}},
	}
	if order.IsDigital() {
		order.ShippingAddress = nil
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	s.notificationSvc.NotifyOrderCreated(ctx, order)
	return order, nil
}

func (s *orderService) GetOrderByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, common.NewNotFound("order")
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error) {
	return s.orderRepo.List(ctx, filter)
}

// UpdateOrderStatus drives the admin side of the state machine. Moving
// a digital order to "Link Created" builds the link in applyTransition,
// same as the card-creation flow does through MarkLinkCreated.
func (s *orderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus, adminNotes string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, common.NewNotFound("order")
	}

	if err := s.applyTransition(order, newStatus, models.ActorAdmin,
		fmt.Sprintf("Status changed from %s to %s", order.Status, newStatus), adminNotes); err != nil {
		return nil, err
	}
	if adminNotes != "" {
		order.AdminNotes = &adminNotes
	}

	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}

	s.notificationSvc.NotifyStatusChange(ctx, order, adminNotes)
	return order, nil
}

// MarkLinkCreated moves a digital order to "Link Created" on behalf of
// the card-creation flow. It runs the same transition table as the
// admin path and attaches the freshly built digital link.
func (s *orderService) MarkLinkCreated(ctx context.Context, orderID uuid.UUID, reason string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, common.NewNotFound("order")
	}
	if !order.IsDigital() {
		return nil, common.NewInvalidState("only digital orders can have a link created")
	}

	if reason == "" {
		reason = "Digital link generated from card creation"
	}
	if err := s.applyTransition(order, models.OrderStatusLinkCreated, models.ActorAdmin, reason, ""); err != nil {
		return nil, err
	}

	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}

	s.notificationSvc.NotifyStatusChange(ctx, order, "")
	return order, nil
}

// applyTransition validates newStatus against the table, mutates the
// order in place and appends the history entry. Side effects tied to
// specific statuses (digital link, delivery stamp) live here so every
// caller gets them.
func (s *orderService) applyTransition(order *models.Order, newStatus, actor, reason, notes string) error {
	allowed := allowedTransitions(order.CardType, order.Status)
	if !contains(allowed, newStatus) {
		return &common.InvalidTransitionError{
			CardType: order.CardType,
			From:     order.Status,
			To:       newStatus,
			Allowed:  allowed,
		}
	}

	now := time.Now()
	order.Status = newStatus

	switch newStatus {
	case models.OrderStatusLinkCreated:
		order.DigitalLink = &models.DigitalLink{
			URL:         fmt.Sprintf("%s/card/%s", strings.TrimSuffix(s.frontendURL, "/"), uuid.New().String()),
			ExpiresAt:   now.Add(digitalLinkValidity),
			AccessCount: 0,
		}
	case models.OrderStatusDelivered:
		order.Tracking.DeliveredAt = &now
	}

	order.History = append(order.History, models.HistoryEntry{
		Status:    newStatus,
		ChangedAt: now,
		ChangedBy: actor,
		Reason:    reason,
		Notes:     notes,
	})
	return nil
}

// UpdateOrder applies user edits to a pending order. A status included
// in the edits is written as-is with a user history entry; the table is
// not consulted on this path.
func (s *orderService) UpdateOrder(ctx context.Context, orderID uuid.UUID, edits OrderEdits) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, common.NewNotFound("order")
	}
	if order.Status != models.OrderStatusPending {
		return nil, common.NewInvalidState("only pending orders can be edited")
	}

	if edits.Quantity != nil {
		if *edits.Quantity < 1 {
			return nil, common.NewInvalidState("quantity must be at least 1")
		}
		order.OrderDetails.Quantity = *edits.Quantity
	}
	if edits.TotalAmount != nil {
		if *edits.TotalAmount <= 0 {
			return nil, common.NewInvalidState("total amount must be greater than zero")
		}
		order.OrderDetails.TotalAmount = *edits.TotalAmount
	}
	if len(edits.Customization) > 0 {
		if order.OrderDetails.Customization == nil {
			order.OrderDetails.Customization = models.Customization{}
		}
		for k, v := range edits.Customization {
			order.OrderDetails.Customization[k] = v
		}
	}
	if edits.ShippingAddress != nil && !order.IsDigital() {
		order.ShippingAddress = edits.ShippingAddress
	}
	if edits.Notes != nil {
		order.Notes = edits.Notes
	}
	if edits.Status != nil && *edits.Status != order.Status {
		order.Status = *edits.Status
		order.History = append(order.History, models.HistoryEntry{
			Status:    *edits.Status,
			ChangedAt: time.Now(),
			ChangedBy: models.ActorUser,
			Reason:    "Order updated by user",
		})
	}

	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// DeleteOrder removes a pending order. Anything past pending has
// entered fulfilment and must be cancelled instead.
func (s *orderService) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return common.NewNotFound("order")
	}
	if order.Status != models.OrderStatusPending {
		return common.NewInvalidState("only pending orders can be deleted")
	}
	return s.orderRepo.Delete(ctx, orderID)
}

// GetOrderStats aggregates counts and revenue by status plus counts by
// card type, optionally scoped to a single user.
func (s *orderService) GetOrderStats(ctx context.Context, userID *uuid.UUID) (*models.OrderStats, error) {
	byStatus, err := s.orderRepo.StatsByStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	byCardType, err := s.orderRepo.StatsByCardType(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &models.OrderStats{
		ByStatus:          byStatus,
		CardTypeBreakdown: byCardType,
	}
	for _, bucket := range byStatus {
		stats.TotalOrders += bucket.Count
		stats.TotalRevenue += bucket.TotalAmount
	}
	return stats, nil
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
