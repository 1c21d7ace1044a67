package models

import (
	"time"

	"github.com/google/uuid"
)

// Order statuses. Which of these an order can move through depends on
// its card type; see services.OrderTransitions.
const (
	OrderStatusPending         = "Order Pending"
	OrderStatusLinkCreated     = "Link Created"
	OrderStatusPrintingPending = "Printing Pending"
	OrderStatusPrinting        = "Printing"
	OrderStatusDispatched      = "Dispatched"
	OrderStatusDelivered       = "Delivered"
	OrderStatusCancelled       = "Cancelled"
)

// History actors
const (
	ActorUser  = "user"
	ActorAdmin = "admin"
)

// Customization is the free-form personalization blob on an order.
type Customization map[string]interface{}

// OrderDetails groups the purchase line of an order.
type OrderDetails struct {
	Quantity      int           `json:"quantity"`
	Customization Customization `json:"customization"`
	TotalAmount   float64       `json:"total_amount"`
}

// ShippingAddress is required for physical and NFC cards, absent for
// digital ones.
type ShippingAddress struct {
	FullName     string `json:"full_name,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	AddressLine1 string `json:"address_line1,omitempty"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	ZipCode      string `json:"zip_code,omitempty"`
	Country      string `json:"country,omitempty"`
}

// DigitalLink is populated only for digital orders that reached
// "Link Created".
type DigitalLink struct {
	URL         string    `json:"url"`
	ExpiresAt   time.Time `json:"expires_at"`
	AccessCount int       `json:"access_count"`
}

// Tracking is populated for physical/NFC orders once dispatched.
type Tracking struct {
	TrackingNumber    string     `json:"tracking_number,omitempty"`
	Carrier           string     `json:"carrier,omitempty"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
	DeliveredAt       *time.Time `json:"delivered_at,omitempty"`
}

// HistoryEntry is one element of the append-only order audit trail.
type HistoryEntry struct {
	Status    string    `json:"status"`
	ChangedAt time.Time `json:"changed_at"`
	ChangedBy string    `json:"changed_by"`
	Reason    string    `json:"reason,omitempty"`
	Notes     string    `json:"notes,omitempty"`
}

type Order struct {
	ID                    uuid.UUID        `json:"id" db:"id"`
	UserID                uuid.UUID        `json:"user_id" db:"user_id"`
	PlanID                uuid.UUID        `json:"plan_id" db:"plan_id"`
	CardType              string           `json:"card_type" db:"card_type"`
	OrderDetails          OrderDetails     `json:"order_details" db:"order_details"`
	ShippingAddress       *ShippingAddress `json:"shipping_address" db:"shipping_address"`
	PaymentDetails        PaymentDetails   `json:"payment_details" db:"payment_details"`
	Status                string           `json:"status" db:"status"`
	DigitalLink           *DigitalLink     `json:"digital_link" db:"digital_link"`
	Tracking              Tracking         `json:"tracking" db:"tracking"`
	Notes                 *string          `json:"notes" db:"notes"`
	AdminNotes            *string          `json:"admin_notes" db:"admin_notes"`
	History               []HistoryEntry   `json:"history" db:"history"`
	WasSubscriptionActive bool             `json:"was_subscription_active" db:"was_subscription_active"`
	CreatedAt             time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at" db:"updated_at"`
}

// IsDigital reports whether the order fulfills a digital card.
func (o *Order) IsDigital() bool {
	return o.CardType == CardTypeDigital
}

// OrderFilter holds listing filters for order queries.
type OrderFilter struct {
	UserID    *uuid.UUID
	Status    *string
	CardType  *string
	StartDate *time.Time
	EndDate   *time.Time
}

// StatusBucket is one row of the by-status aggregation.
type StatusBucket struct {
	Status      string  `json:"status"`
	Count       int     `json:"count"`
	TotalAmount float64 `json:"total_amount"`
}

// CardTypeBucket is one row of the by-card-type aggregation.
type CardTypeBucket struct {
	CardType string `json:"card_type"`
	Count    int    `json:"count"`
}

// OrderStats is the read-only aggregation returned by the stats query.
type OrderStats struct {
	TotalOrders       int              `json:"total_orders"`
	TotalRevenue      float64          `json:"total_revenue"`
	ByStatus          []StatusBucket   `json:"by_status"`
	CardTypeBreakdown []CardTypeBucket `json:"card_type_breakdown"`
}
