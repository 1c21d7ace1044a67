package services

import (
	"context"
	"log"

	"instaviz/internal/common"
	"instaviz/internal/models"
	"instaviz/internal/repositories"

	"github.com/google/uuid"
)

// CardCreationResult is the orchestrator's response: the persisted card
// plus whatever orders the fan-out managed to open.
type CardCreationResult struct {
	Card    *models.Card    `json:"card"`
	Orders  []*models.Order `json:"orders"`
	Message string          `json:"message"`
}

// CardService orchestrates card creation: render the card externally,
// persist it, then fan out one order per card type on the user's active
// plan.
type CardService interface {
	CreateCard(ctx context.Context, userID, profileID uuid.UUID, templateID, themeID string) (*CardCreationResult, error)
	UpdateCard(ctx context.Context, userID, cardID uuid.UUID, templateID, themeID string) (*models.Card, error)
	GetCardByID(ctx context.Context, cardID uuid.UUID) (*models.Card, error)
	ListUserCards(ctx context.Context, userID uuid.UUID) ([]*models.Card, error)
}

type cardService struct {
	cardRepo        repositories.CardRepository
	profileRepo     repositories.ProfileRepository
	userRepo        repositories.UserRepository
	renderSvc       CardRenderService
	orderSvc        OrderService
	subscriptionSvc SubscriptionService
}

// NewCardService creates a new CardService instance.
func NewCardService(
	cardRepo repositories.CardRepository,
	profileRepo repositories.ProfileRepository,
	userRepo repositories.UserRepository,
	renderSvc CardRenderService,
	orderSvc OrderService,
	subscriptionSvc SubscriptionService,
) CardService {
	return &cardService{
		cardRepo:        cardRepo,
		profileRepo:     profileRepo,
		userRepo:        userRepo,
		renderSvc:       renderSvc,
		orderSvc:        orderSvc,
		subscriptionSvc: subscriptionSvc,
	}
}

// CreateCard renders and persists the card, then fans out orders. Once
// the card row exists the call succeeds; fan-out failures are logged
// per iteration and never abort the loop or fail the response.
func (s *cardService) CreateCard(ctx context.Context, userID, profileID uuid.UUID, templateID, themeID string) (*CardCreationResult, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, common.NewNotFound("user")
	}

	profile, err := s.profileRepo.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if profile == nil || profile.UserID != userID {
		return nil, common.NewNotFound("profile")
	}

	rendered, err := s.renderSvc.CreateCard(ctx, profile, templateID, themeID)
	if err != nil {
		return nil, err
	}

	card := &models.Card{
		ID:         uuid.New(),
		UserID:     userID,
		ProfileID:  profileID,
		TemplateID: templateID,
		ThemeID:    themeID,
		Status:     "created",
		Payload: models.JSONB{
			"user_name":        profile.ContactInfo.Name,
			"user_designation": profile.ContactInfo.Designation,
			"user_email":       profile.ContactInfo.Email,
		},
		Response: rendered.Raw,
	}
	if slug := rendered.CardSlug(); slug != "" {
		card.Slug = &slug
	}
	if err := s.cardRepo.Create(ctx, card); err != nil {
		return nil, err
	}

	orders := s.fanOutOrders(ctx, user, profile, rendered)

	return &CardCreationResult{
		Card:    card,
		Orders:  orders,
		Message: "Card created successfully! Orders have been created.",
	}, nil
}

// UpdateCard re-renders an existing card against the render API. An
// empty template or theme keeps the stored value, so callers can change
// one without restating the other. The slug survives a render response
// that does not carry one. No order fan-out happens on update.
func (s *cardService) UpdateCard(ctx context.Context, userID, cardID uuid.UUID, templateID, themeID string) (*models.Card, error) {
	card, err := s.cardRepo.GetByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if card == nil || card.UserID != userID {
		return nil, common.NewNotFound("card")
	}

	profile, err := s.profileRepo.GetByID(ctx, card.ProfileID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, common.NewNotFound("profile")
	}

	if templateID == "" {
		templateID = card.TemplateID
	}
	if themeID == "" {
		themeID = card.ThemeID
	}

	rendered, err := s.renderSvc.CreateCard(ctx, profile, templateID, themeID)
	if err != nil {
		return nil, err
	}

	card.TemplateID = templateID
	card.ThemeID = themeID
	card.Payload = models.JSONB{
		"user_name":        profile.ContactInfo.Name,
		"user_designation": profile.ContactInfo.Designation,
		"user_email":       profile.ContactInfo.Email,
	}
	card.Response = rendered.Raw
	if slug := rendered.CardSlug(); slug != "" {
		card.Slug = &slug
	}

	if err := s.cardRepo.Update(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

// fanOutOrders opens one order per card type on the user's active plan.
// No active subscription means no orders, which is not an error.
func (s *cardService) fanOutOrders(ctx context.Context, user *models.User, profile *models.Profile, rendered *RenderResponse) []*models.Order {
	subscription, err := s.subscriptionSvc.GetActiveSubscription(ctx, user.ID)
	if err != nil {
		log.Printf("WARN: order fan-out skipped for user %s: %v", user.ID, err)
		return nil
	}
	if subscription == nil || subscription.Plan == nil {
		return nil
	}
	plan := subscription.Plan

	// Orders are priced in the currency the subscription was bought in.
	amount, ok := plan.PriceFor(subscription.PaymentDetails.Currency)
	if !ok {
		amount = plan.PriceRupees
	}

	customization := models.Customization{
		"name":  common.FirstNonEmpty(profile.ContactInfo.Name, user.Name, "Instaviz Member"),
		"email": common.FirstNonEmpty(profile.ContactInfo.Email, user.Email),
		"phone": common.FirstNonEmpty(profile.ContactInfo.Phone, common.SafeString(user.Phone)),
	}

	var orders []*models.Order
	for _, cardType := range plan.CardTypes {
		input := CreateOrderInput{
			UserID:        user.ID,
			PlanID:        plan.ID,
			CardType:      cardType,
			Quantity:      1,
			TotalAmount:   amount,
			Customization: customization,
		}
		if cardType != models.CardTypeDigital {
			input.ShippingAddress = &models.ShippingAddress{
				FullName:     common.FirstNonEmpty(profile.ContactInfo.Name, user.Name),
				Email:        common.FirstNonEmpty(profile.ContactInfo.Email, user.Email),
				Phone:        common.FirstNonEmpty(profile.ContactInfo.Phone, common.SafeString(user.Phone)),
				AddressLine1: profile.ContactInfo.Address,
			}
		}

		order, err := s.orderSvc.CreateOrder(ctx, input)
		if err != nil {
			log.Printf("WARN: fan-out order for %s card failed (user %s): %v", cardType, user.ID, err)
			continue
		}

		if cardType == models.CardTypeDigital && rendered.Link != "" {
			updated, err := s.orderSvc.MarkLinkCreated(ctx, order.ID, "Digital link generated from card creation")
			if err != nil {
				log.Printf("WARN: digital link creation failed for order %s: %v", order.ID, err)
			} else {
				order = updated
			}
		}
		orders = append(orders, order)
	}
	return orders
}

func (s *cardService) GetCardByID(ctx context.Context, cardID uuid.UUID) (*models.Card, error) {
	card, err := s.cardRepo.GetByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, common.NewNotFound("card")
	}
	return card, nil
}

func (s *cardService) ListUserCards(ctx context.Context, userID uuid.UUID) ([]*models.Card, error) {
	return s.cardRepo.ListByUser(ctx, userID)
}
