package services

import (
	"context"
	"log"
	"math"
	"time"

	"instaviz/internal/caching"
	"instaviz/internal/common"
	"instaviz/internal/models"
	"instaviz/internal/repositories"

	"github.com/google/uuid"
	"github.com/labstack/gommon/random"
)

// currencyCodes maps billing currencies to their ISO codes for the
// payment gateway.
var currencyCodes = map[string]string{
	models.CurrencyRupees: "INR",
	models.CurrencyDollar: "USD",
}

// PurchaseResult is returned from InitiatePurchase: the pending
// subscription, the raw gateway order for client-side checkout, and a
// redacted plan summary.
type PurchaseResult struct {
	Subscription  *models.Subscription `json:"subscription"`
	RazorpayOrder *RazorpayOrder       `json:"razorpay_order"`
	Plan          models.PlanSummary   `json:"plan"`
}

// SubscriptionService handles plan purchase, payment verification and
// the subscription lifecycle.
type SubscriptionService interface {
	InitiatePurchase(ctx context.Context, userID, planID uuid.UUID, currency string) (*PurchaseResult, error)
	VerifyAndActivate(ctx context.Context, subscriptionID, userID uuid.UUID, payment models.PaymentVerification) (*models.Subscription, error)
	GetActiveSubscription(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID, userID uuid.UUID) (*models.Subscription, error)
	ListUserSubscriptions(ctx context.Context, userID uuid.UUID) ([]*models.Subscription, error)
	ListSubscriptions(ctx context.Context, filter models.SubscriptionFilter) ([]*models.Subscription, error)
}

type subscriptionService struct {
	subscriptionRepo repositories.SubscriptionRepository
	planRepo         repositories.PlanRepository
	userRepo         repositories.UserRepository
	razorpaySvc      RazorpayService
	cacheSvc         caching.CacheService
}

// NewSubscriptionService creates a new SubscriptionService instance.
func NewSubscriptionService(
	subscriptionRepo repositories.SubscriptionRepository,
	planRepo repositories.PlanRepository,
	userRepo repositories.UserRepository,
	razorpaySvc RazorpayService,
	cacheSvc caching.CacheService,
) SubscriptionService {
	return &subscriptionService{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		userRepo:         userRepo,
		razorpaySvc:      razorpaySvc,
		cacheSvc:         cacheSvc,
	}
}

// InitiatePurchase creates a gateway order for the plan price and
// persists a pending subscription referencing it. Gateway failures
// propagate; the caller retries the purchase.
func (s *subscriptionService) InitiatePurchase(ctx context.Context, userID, planID uuid.UUID, currency string) (*PurchaseResult, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, common.NewNotFound("user")
	}

	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, common.NewNotFound("plan")
	}
	if !plan.IsActive {
		return nil, common.NewInvalidState("plan is not available")
	}

	amount, ok := plan.PriceFor(currency)
	if !ok {
		return nil, common.NewInvalidState("invalid currency '%s': must be 'rupees' or 'dollar'", currency)
	}

	amountMinor := int64(math.Round(amount * 100))
	receipt := "rcpt_" + random.String(14, random.Hex)

	razorpayOrder, err := s.razorpaySvc.CreateOrder(ctx, &RazorpayOrderRequest{
		Amount:   amountMinor,
		Currency: currencyCodes[currency],
		Receipt:  receipt,
		Notes: map[string]string{
			"user_id": userID.String(),
			"plan_id": planID.String(),
		},
	})
	if err != nil {
		return nil, err
	}

	subscription := &models.Subscription{
		ID:     uuid.New(),
		UserID: userID,
		PlanID: planID,
		Status: models.SubscriptionPending,
		PaymentDetails: models.PaymentDetails{
			OrderID:  razorpayOrder.ID,
			Currency: currency,
			Amount:   amount,
		},
	}
	if err := s.subscriptionRepo.Create(ctx, subscription); err != nil {
		return nil, err
	}

	return &PurchaseResult{
		Subscription:  subscription,
		RazorpayOrder: razorpayOrder,
		Plan:          plan.Summary(),
	}, nil
}

// VerifyAndActivate checks the gateway's checkout signature and, on
// success, moves the subscription from pending to active. Only the
// subscription's owner can verify it; the ownership check runs before
// any gateway call or state change. A signature mismatch leaves the
// subscription pending so the caller can resubmit correct credentials.
func (s *subscriptionService) VerifyAndActivate(ctx context.Context, subscriptionID, userID uuid.UUID, payment models.PaymentVerification) (*models.Subscription, error) {
	subscription, err := s.subscriptionRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if subscription == nil || subscription.UserID != userID {
		return nil, common.NewNotFound("subscription")
	}
	if subscription.Status != models.SubscriptionPending {
		return nil, common.NewInvalidState("subscription is not in pending state")
	}
	if !payment.Complete() {
		return nil, common.NewInvalidState("payment verification data is incomplete")
	}
	if subscription.PaymentDetails.OrderID != payment.OrderID {
		return nil, common.NewInvalidState("order ID does not match subscription")
	}

	if !s.razorpaySvc.VerifyPaymentSignature(payment.OrderID, payment.PaymentID, payment.Signature) {
		return nil, &common.VerificationFailedError{Message: "payment verification failed"}
	}

	plan, err := s.planRepo.GetByID(ctx, subscription.PlanID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, common.NewNotFound("plan")
	}

	startDate := time.Now()
	endDate := startDate.AddDate(0, 0, plan.DurationDays)

	subscription.Status = models.SubscriptionActive
	subscription.StartDate = &startDate
	subscription.EndDate = &endDate
	subscription.PaymentDetails.PaymentID = payment.PaymentID
	subscription.PaymentDetails.Signature = payment.Signature

	if err := s.subscriptionRepo.Update(ctx, subscription); err != nil {
		return nil, err
	}
	s.invalidateActiveCache(ctx, subscription.UserID)

	subscription.Plan = plan
	return subscription, nil
}

// GetActiveSubscription returns the user's authoritative active
// subscription with its plan populated, or nil. Expiry is lazy: a
// subscription past its end date simply stops matching this query.
func (s *subscriptionService) GetActiveSubscription(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	if cached, err := s.cacheSvc.GetActiveSubscription(ctx, userID); err == nil && cached != nil {
		if cached.EndDate != nil && cached.EndDate.After(time.Now()) {
			return cached, nil
		}
	}

	subscription, err := s.subscriptionRepo.GetActiveByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if subscription == nil {
		return nil, nil
	}

	plan, err := s.planRepo.GetByID(ctx, subscription.PlanID)
	if err != nil {
		return nil, err
	}
	subscription.Plan = plan

	if err := s.cacheSvc.SetActiveSubscription(ctx, userID, subscription, caching.ActiveSubscriptionTTL); err != nil {
		log.Printf("WARN: failed to cache active subscription for user %s: %v", userID, err)
	}
	return subscription, nil
}

// CancelSubscription cancels an active subscription. The transition is
// irreversible.
func (s *subscriptionService) CancelSubscription(ctx context.Context, subscriptionID, userID uuid.UUID) (*models.Subscription, error) {
	subscription, err := s.subscriptionRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if subscription == nil || subscription.UserID != userID {
		return nil, common.NewNotFound("subscription")
	}
	if subscription.Status != models.SubscriptionActive {
		return nil, common.NewInvalidState("only active subscriptions can be cancelled")
	}

	subscription.Status = models.SubscriptionCancelled
	if err := s.subscriptionRepo.Update(ctx, subscription); err != nil {
		return nil, err
	}
	s.invalidateActiveCache(ctx, userID)
	return subscription, nil
}

func (s *subscriptionService) ListUserSubscriptions(ctx context.Context, userID uuid.UUID) ([]*models.Subscription, error) {
	return s.subscriptionRepo.ListByUser(ctx, userID)
}

func (s *subscriptionService) ListSubscriptions(ctx context.Context, filter models.SubscriptionFilter) ([]*models.Subscription, error) {
	return s.subscriptionRepo.List(ctx, filter)
}

func (s *subscriptionService) invalidateActiveCache(ctx context.Context, userID uuid.UUID) {
	if err := s.cacheSvc.DeleteActiveSubscription(ctx, userID); err != nil {
		log.Printf("WARN: failed to invalidate subscription cache for user %s: %v", userID, err)
	}
}
