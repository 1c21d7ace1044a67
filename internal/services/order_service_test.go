package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"instaviz/internal/common"
	"instaviz/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type OrderServiceTestSuite struct {
	suite.Suite
	mockOrderRepo        *MockOrderRepository
	mockUserRepo         *MockUserRepository
	mockPlanRepo         *MockPlanRepository
	mockSubscriptionRepo *MockSubscriptionRepository
	mockNotificationSvc  *MockNotificationService
	service              OrderService
	ctx                  context.Context
}

func (suite *OrderServiceTestSuite) SetupTest() {
	suite.mockOrderRepo = new(MockOrderRepository)
	suite.mockUserRepo = new(MockUserRepository)
	suite.mockPlanRepo = new(MockPlanRepository)
	suite.mockSubscriptionRepo = new(MockSubscriptionRepository)
	suite.mockNotificationSvc = new(MockNotificationService)
	suite.service = NewOrderService(
		suite.mockOrderRepo,
		suite.mockUserRepo,
		suite.mockPlanRepo,
		suite.mockSubscriptionRepo,
		suite.mockNotificationSvc,
		"https://app.instaviz.example",
	)
	suite.ctx = context.Background()
}

func (suite *OrderServiceTestSuite) TearDownTest() {
	suite.mockOrderRepo.AssertExpectations(suite.T())
	suite.mockUserRepo.AssertExpectations(suite.T())
	suite.mockPlanRepo.AssertExpectations(suite.T())
	suite.mockSubscriptionRepo.AssertExpectations(suite.T())
	suite.mockNotificationSvc.AssertExpectations(suite.T())
}

func (suite *OrderServiceTestSuite) testPlan(cardTypes ...string) *models.Plan {
	return &models.Plan{
		ID:           uuid.New(),
		Title:        "Pro",
		DurationDays: 365,
		PriceRupees:  999,
		CardTypes:    cardTypes,
		IsActive:     true,
	}
}

func (suite *OrderServiceTestSuite) activeSubscription(userID uuid.UUID) *models.Subscription {
	start := time.Now().Add(-24 * time.Hour)
	end := time.Now().Add(30 * 24 * time.Hour)
	return &models.Subscription{
		ID:        uuid.New(),
		UserID:    userID,
		Status:    models.SubscriptionActive,
		StartDate: &start,
		EndDate:   &end,
	}
}

func (suite *OrderServiceTestSuite) TestCreateOrderSuccess() {
	userID := uuid.New()
	plan := suite.testPlan(models.CardTypePhysical)
	user := &models.User{ID: userID, Email: "owner@example.com"}

	suite.mockUserRepo.On("GetByID", suite.ctx, userID).Return(user, nil).Once()
	suite.mockPlanRepo.On("GetByID", suite.ctx, plan.ID).Return(plan, nil).Once()
	suite.mockSubscriptionRepo.On("GetActiveByUserID", suite.ctx, userID).
		Return(suite.activeSubscription(userID), nil).Once()
	suite.mockOrderRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.Order")).Return(nil).Once()
	suite.mockNotificationSvc.On("NotifyOrderCreated", suite.ctx, mock.AnythingOfType("*models.Order")).Once()

	order, err := suite.service.CreateOrder(suite.ctx, CreateOrderInput{
		UserID:      userID,
		PlanID:      plan.ID,
		CardType:    models.CardTypePhysical,
		Quantity:    2,
		TotalAmount: 999,
		ShippingAddress: &models.ShippingAddress{
			FullName: "Asha Rao",
			City:     "Bengaluru",
		},
	})

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.OrderStatusPending, order.Status)
	assert.True(suite.T(), order.WasSubscriptionActive)
	assert.NotNil(suite.T(), order.ShippingAddress)
	assert.Len(suite.T(), order.History, 1)
	assert.Equal(suite.T(), models.ActorUser, order.History[0].ChangedBy)
	assert.Equal(suite.T(), "Order created", order.History[0].Reason)
}

func (suite *OrderServiceTestSuite) TestCreateOrderDigitalDropsShippingAddress() {
	userID := uuid.New()
	plan := suite.testPlan(models.CardTypeDigital)

	suite.mockUserRepo.On("GetByID", suite.ctx, userID).Return(&models.User{ID: userID}, nil).Once()
	suite.mockPlanRepo.On("GetByID", suite.ctx, plan.ID).Return(plan, nil).Once()
	suite.mockSubscriptionRepo.On("GetActiveByUserID", suite.ctx, userID).
		Return(suite.activeSubscription(userID), nil).Once()
	suite.mockOrderRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.Order")).Return(nil).Once()
	suite.mockNotificationSvc.On("NotifyOrderCreated", suite.ctx, mock.AnythingOfType("*models.Order")).Once()

	order, err := suite.service.CreateOrder(suite.ctx, CreateOrderInput{
		UserID:          userID,
		PlanID:          plan.ID,
		CardType:        models.CardTypeDigital,
		Quantity:        1,
		TotalAmount:     499,
		ShippingAddress: &models.ShippingAddress{City: "Pune"},
	})

	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), order.ShippingAddress)
}

func (suite *OrderServiceTestSuite) TestCreateOrderInvalidCardType() {
	order, err := suite.service.CreateOrder(suite.ctx, CreateOrderInput{
		UserID:      uuid.New(),
		PlanID:      uuid.New(),
		CardType:    "hologram",
		Quantity:    1,
		TotalAmount: 100,
	})

	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), order)
	var invalidState *common.InvalidStateError
	assert.True(suite.T(), errors.As(err, &invalidState))
}

func (suite *OrderServiceTestSuite) TestCreateOrderPlanDoesNotOfferCardType() {
	userID := uuid.New()
	plan := suite.testPlan(models.CardTypeDigital)

	suite.mockUserRepo.On("GetByID", suite.ctx, userID).Return(&models.User{ID: userID}, nil).Once()
	suite.mockPlanRepo.On("GetByID", suite.ctx, plan.ID).Return(plan, nil).Once()

	order, err := suite.service.CreateOrder(suite.ctx, CreateOrderInput{
		UserID:      userID,
		PlanID:      plan.ID,
		CardType:    models.CardTypeNFC,
		Quantity:    1,
		TotalAmount: 100,
	})

	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), order)
	assert.Contains(suite.T(), err.Error(), "does not include")
}

func (suite *OrderServiceTestSuite) TestCreateOrderRequiresActiveSubscription() {
	userID := uuid.New()
	plan := suite.testPlan(models.CardTypePhysical)

	suite.mockUserRepo.On("GetByID", suite.ctx, userID).Return(&models.User{ID: userID}, nil).Once()
	suite.mockPlanRepo.On("GetByID", suite.ctx, plan.ID).Return(plan, nil).Once()
	suite.mockSubscriptionRepo.On("GetActiveByUserID", suite.ctx, userID).Return(nil, nil).Once()

	order, err := suite.service.CreateOrder(suite.ctx, CreateOrderInput{
		UserID:      userID,
		PlanID:      plan.ID,
		CardType:    models.CardTypePhysical,
		Quantity:    1,
		TotalAmount: 999,
	})

	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), order)
	assert.Contains(suite.T(), err.Error(), "active subscription")
	suite.mockOrderRepo.AssertNotCalled(suite.T(), "Create")
}

func (suite *OrderServiceTestSuite) TestUpdateOrderStatusPhysicalPipeline() {
	orderID := uuid.New()
	order := &models.Order{
		ID:       orderID,
		CardType: models.CardTypePhysical,
		Status:   models.OrderStatusPrinting,
		History:  []models.HistoryEntry{{Status: models.OrderStatusPending}},
	}

	suite.mockOrderRepo.On("GetByID", suite.ctx, orderID).Return(order, nil).Once()
	suite.mockOrderRepo.On("Update", suite.ctx, order).Return(nil).Once()
	suite.mockNotificationSvc.On("NotifyStatusChange", suite.ctx, order, "left the print shop").Once()

	updated, err := suite.service.UpdateOrderStatus(suite.ctx, orderID, models.OrderStatusDispatched, "left the print shop")

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.OrderStatusDispatched, updated.Status)
	assert.Equal(suite.T(), "left the print shop", *updated.AdminNotes)
	last := updated.History[len(updated.History)-1]
	assert.Equal(suite.T(), models.ActorAdmin, last.ChangedBy)
	assert.Equal(suite.T(), "Status changed from Printing to Dispatched", last.Reason)
}

func (suite *OrderServiceTestSuite) TestUpdateOrderStatusInvalidTransition() {
	orderID := uuid.New()
	order := &models.Order{
		ID:       orderID,
		CardType: models.CardTypeNFC,
		Status:   models.OrderStatusPending,
	}

	suite.mockOrderRepo.On("GetByID", suite.ctx, orderID).Return(order, nil).Once()

	updated, err := suite.service.UpdateOrderStatus(suite.ctx, orderID, models.OrderStatusDelivered, "")

	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), updated)
	var transitionErr *common.InvalidTransitionError
	assert.True(suite.T(), errors.As(err, &transitionErr))
	assert.Equal(suite.T(), models.OrderStatusPending, transitionErr.From)
	assert.Equal(suite.T(), models.OrderStatusDelivered, transitionErr.To)
	assert.Contains(suite.T(), transitionErr.Allowed, models.OrderStatusPrintingPending)
	assert.Contains(suite.T(), transitionErr.Allowed, models.OrderStatusCancelled)
	suite.mockOrderRepo.AssertNotCalled(suite.T(), "Update")
}

func (suite *OrderServiceTestSuite) TestUpdateOrderStatusTerminalStateHasNoExits() {
	orderID := uuid.New()
	order := &models.Order{
		ID:       orderID,
		CardType: models.CardTypePhysical,
		Status:   models.OrderStatusDelivered,
	}

	suite.mockOrderRepo.On("GetByID", suite.ctx, orderID).Return(order, nil).Once()

	updated, err := suite.service.UpdateOrderStatus(suite.ctx, orderID, models.OrderStatusCancelled, "")

	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), updated)
	var transitionErr *common.InvalidTransitionError
	assert.True(suite.T(), errors.As(err, &transitionErr))
	assert.Empty(suite.T(), transitionErr.Allowed)
}

func (suite *OrderServiceTestSuite) TestUpdateOrderStatusCompletesDigitalOrder() {
	orderID := uuid.New()
	order := &models.Order{
		ID:       orderID,
		CardType: models.CardTypeDigital,
		Status:   models.OrderStatusPending,
	}

	suite.mockOrderRepo.On("GetByID", suite.ctx, orderID).Return(order, nil).Once()
	suite.mockOrderRepo.On("Update", suite.ctx, order).Return(nil).Once()
	suite.mockNotificationSvc.On("NotifyStatusChange", suite.ctx, order, "render API unavailable, issued manually").Once()

	updated, err := suite.service.UpdateOrderStatus(suite.ctx, orderID, models.OrderStatusLinkCreated, "render API unavailable, issued manually")

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.OrderStatusLinkCreated, updated.Status)
	assert.NotNil(suite.T(), updated.DigitalLink)
	assert.Contains(suite.T(), updated.DigitalLink.URL, "https://app.instaviz.example/card/")
	assert.WithinDuration(suite.T(), time.Now().Add(365*24*time.Hour), updated.DigitalLink.ExpiresAt, time.Minute)
	last := updated.History[len(updated.History)-1]
	assert.Equal(suite.T(), models.ActorAdmin, last.ChangedBy)
	assert.Equal(suite.T(), "Status changed from Order Pending to Link Created", last.Reason)
}

func (suite *OrderServiceTestSuite) TestUpdateOrderStatusLinkCreatedOnlyForDigital() {
	orderID := uuid.New()
	order := &models.Order{
		ID:       orderID,
		CardType: models.CardTypePhysical,
		Status:   models.OrderStatusPending,
	}

	suite.mockOrderRepo.On("GetByID", suite.ctx, orderID).Return(order, nil).Once()

	updated, err := suite.service.UpdateOrderStatus(suite.ctx, orderID, models.OrderStatusLinkCreated, "")

	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), updated)
	var transitionErr *common.InvalidTransitionError
	assert.True(suite.T(), errors.As(err, &transitionErr))
	assert.NotContains(suite.T(), transitionErr.Allowed, models.OrderStatusLinkCreated)
	suite.mockOrderRepo.AssertNotCalled(suite.T(), "Update")
}

func (suite *OrderServiceTestSuite) TestUpdateOrderStatusDeliveredStampsTracking() {
	orderID := uuid.New()
	order := &models.Order{
		ID:       orderID,
		CardType: models.CardTypeNFC,
		Status:   models.OrderStatusDispatched,
	}

	suite.mockOrderRepo.On("GetByID", suite.ctx, orderID).Return(order, nil).Once()
	suite.mockOrderRepo.On("Update", suite.ctx, order).Return(nil).Once()
	suite.mockNotificationSvc.On("NotifyStatusChange", suite.ctx, order, "").Once()

	updated, err := suite.service.UpdateOrderStatus(suite.ctx, orderID, models.OrderStatusDelivered, "")

	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), updated.Tracking.DeliveredAt)
	assert.WithinDuration(suite.T(), time.Now(), *updated.Tracking.DeliveredAt, time.Second)
}

func (suite *OrderServiceTestSuite) TestMarkLinkCreatedBuildsDigitalLink() {
	orderID := uuid.New()
	order := &models.Order{
		ID:       orderID,
		CardType: models.CardTypeDigital,
		Status:   models.OrderStatusPending,
	}

	suite.mockOrderRepo.On("GetByID", suite.ctx, orderID).Return(order, nil).Once()
	suite.mockOrderRepo.On("Update", suite.ctx, order).Return(nil).Once()
	suite.mockNotificationSvc.On("NotifyStatusChange", suite.ctx, order, "").Once()

	updated, err := suite.service.MarkLinkCreated(suite.ctx, orderID, "")

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.OrderStatusLinkCreated, updated.Status)
	assert.NotNil(suite.T(), updated.DigitalLink)
	assert.Contains(suite.T(), updated.DigitalLink.URL, "https://app.instaviz.example/card/")
	assert.Equal(suite.T(), 0, updated.DigitalLink.AccessCount)
	assert.WithinDuration(suite.T(), time.Now().Add(365*24*time.Hour), updated.DigitalLink.ExpiresAt, time.Minute)
	last := updated.History[len(updated.History)-1]
	assert.Equal(suite.T(), "Digital link generated from card creation", last.Reason)
}

func (suite *OrderServiceTestSuite) TestMarkLinkCreatedRejectsPhysicalOrders() {
	orderID := uuid.New()
	order := &models.Order{
		ID:       orderID,
		CardType: models.CardTypePhysical,
		Status:   models.OrderStatusPending,
	}

	suite.mockOrderRepo.On("GetByID", suite.ctx, orderID).Return(order, nil).Once()

	updated, err := suite.service.MarkLinkCreated(suite.ctx, orderID, "")

	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), updated)
	assert.Contains(suite.T(), err.Error(), "only digital orders")
}

func (suite *OrderServiceTestSuite) TestMarkLinkCreatedRejectsRepeat() {
	orderID := uuid.New()
	order := &models.Order{
		ID:       orderID,
		CardType: models.CardTypeDigital,
		Status:   models.OrderStatusLinkCreated,
	}

	suite.mockOrderRepo.On("GetByID", suite.ctx, orderID).Return(order, nil).Once()

	updated, err := suite.service.MarkLinkCreated(suite.ctx, orderID, "")

	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), updated)
	var transitionErr *common.InvalidTransitionError
	assert.True(suite.T(), errors.As(err, &transitionErr))
}

func (suite *OrderServiceTestSuite) TestUpdateOrderOnlyPending() {
	orderID := uuid.New()
	order := &models.Order{
		ID:       orderID,
		CardType: models.CardTypePhysical,
		Status:   models.OrderStatusPrinting,
	}

	suite.mockOrderRepo.On("GetByID", suite.ctx, orderID).Return(order, nil).Once()

	qty := 3
	updated, err := suite.service.UpdateOrder(suite.ctx, orderID, OrderEdits{Quantity: &qty})

	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), updated)
	assert.Contains(suite.T(), err.Error(), "only pending orders")
}

func (suite *OrderServiceTestSuite) TestUpdateOrderAppliesEdits() {
	orderID := uuid.New()
	order := &models.Order{
		ID:       orderID,
		CardType: models.CardTypePhysical,
		Status:   models.OrderStatusPending,
		OrderDetails: models.OrderDetails{
			Quantity:    1,
			TotalAmount: 999,
			Customization: models.Customization{
				"name": "Asha Rao",
			},
		},
	}

	suite.mockOrderRepo.On("GetByID", suite.ctx, orderID).Return(order, nil).Once()
	suite.mockOrderRepo.On("Update", suite.ctx, order).Return(nil).Once()

	qty := 5
	updated, err := suite.service.UpdateOrder(suite.ctx, orderID, OrderEdits{
		Quantity:      &qty,
		Customization: models.Customization{"color": "navy"},
	})

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 5, updated.OrderDetails.Quantity)
	assert.Equal(suite.T(), "Asha Rao", updated.OrderDetails.Customization["name"])
	assert.Equal(suite.T(), "navy", updated.OrderDetails.Customization["color"])
}

func (suite *OrderServiceTestSuite) TestDeleteOrderOnlyPending() {
	orderID := uuid.New()
	order := &models.Order{
		ID:       orderID,
		CardType: models.CardTypeDigital,
		Status:   models.OrderStatusLinkCreated,
	}

	suite.mockOrderRepo.On("GetByID", suite.ctx, orderID).Return(order, nil).Once()

	err := suite.service.DeleteOrder(suite.ctx, orderID)

	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "only pending orders")
	suite.mockOrderRepo.AssertNotCalled(suite.T(), "Delete")
}

func (suite *OrderServiceTestSuite) TestDeleteOrderNotFound() {
	orderID := uuid.New()

	suite.mockOrderRepo.On("GetByID", suite.ctx, orderID).Return(nil, nil).Once()

	err := suite.service.DeleteOrder(suite.ctx, orderID)

	assert.Error(suite.T(), err)
	var notFound *common.NotFoundError
	assert.True(suite.T(), errors.As(err, &notFound))
}

func (suite *OrderServiceTestSuite) TestGetOrderStatsAggregatesTotals() {
	suite.mockOrderRepo.On("StatsByStatus", suite.ctx, (*uuid.UUID)(nil)).Return([]models.StatusBucket{
		{Status: models.OrderStatusPending, Count: 3, TotalAmount: 2997},
		{Status: models.OrderStatusDelivered, Count: 2, TotalAmount: 1998},
	}, nil).Once()
	suite.mockOrderRepo.On("StatsByCardType", suite.ctx, (*uuid.UUID)(nil)).Return([]models.CardTypeBucket{
		{CardType: models.CardTypePhysical, Count: 4},
		{CardType: models.CardTypeDigital, Count: 1},
	}, nil).Once()

	stats, err := suite.service.GetOrderStats(suite.ctx, nil)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 5, stats.TotalOrders)
	assert.Equal(suite.T(), float64(4995), stats.TotalRevenue)
	assert.Len(suite.T(), stats.ByStatus, 2)
	assert.Len(suite.T(), stats.CardTypeBreakdown, 2)
}

func TestOrderServiceTestSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceTestSuite))
}

func TestTransitionTableDigitalIsTwoStep(t *testing.T) {
	assert.ElementsMatch(t,
		[]string{models.OrderStatusLinkCreated, models.OrderStatusCancelled},
		allowedTransitions(models.CardTypeDigital, models.OrderStatusPending))
	assert.ElementsMatch(t,
		[]string{models.OrderStatusCancelled},
		allowedTransitions(models.CardTypeDigital, models.OrderStatusLinkCreated))
	assert.Empty(t, allowedTransitions(models.CardTypeDigital, models.OrderStatusCancelled))
}

func TestTransitionTablePhysicalAndNFCShareThePipeline(t *testing.T) {
	for _, cardType := range []string{models.CardTypePhysical, models.CardTypeNFC} {
		assert.ElementsMatch(t,
			[]string{models.OrderStatusPrintingPending, models.OrderStatusCancelled},
			allowedTransitions(cardType, models.OrderStatusPending))
		assert.ElementsMatch(t,
			[]string{models.OrderStatusDispatched, models.OrderStatusCancelled},
			allowedTransitions(cardType, models.OrderStatusPrinting))
		assert.ElementsMatch(t,
			[]string{models.OrderStatusDelivered, models.OrderStatusCancelled},
			allowedTransitions(cardType, models.OrderStatusDispatched))
		assert.Empty(t, allowedTransitions(cardType, models.OrderStatusDelivered))
		assert.Empty(t, allowedTransitions(cardType, models.OrderStatusCancelled))
	}
}
