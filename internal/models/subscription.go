package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscription statuses
const (
	SubscriptionPending   = "pending"
	SubscriptionActive    = "active"
	SubscriptionExpired   = "expired"
	SubscriptionCancelled = "cancelled"
)

// PaymentDetails mirrors the payment-gateway credentials attached to a
// subscription or order. OrderID is the gateway order id, not ours.
type PaymentDetails struct {
	OrderID   string  `json:"order_id,omitempty"`
	PaymentID string  `json:"payment_id,omitempty"`
	Signature string  `json:"signature,omitempty"`
	Currency  string  `json:"currency,omitempty"`
	Amount    float64 `json:"amount,omitempty"`
}

type Subscription struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	UserID         uuid.UUID      `json:"user_id" db:"user_id"`
	PlanID         uuid.UUID      `json:"plan_id" db:"plan_id"`
	Status         string         `json:"status" db:"status"`
	PaymentDetails PaymentDetails `json:"payment_details" db:"payment_details"`
	StartDate      *time.Time     `json:"start_date" db:"start_date"`
	EndDate        *time.Time     `json:"end_date" db:"end_date"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`

	// Plan is populated on reads that join the plan row.
	Plan *Plan `json:"plan,omitempty" db:"-"`
}

// SubscriptionFilter holds admin listing filters.
type SubscriptionFilter struct {
	UserID *uuid.UUID
	Status *string
}

// PaymentVerification carries the credentials the gateway hands the
// client after checkout.
type PaymentVerification struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

// Complete reports whether all three verification fields are present.
func (p PaymentVerification) Complete() bool {
	return p.OrderID != "" && p.PaymentID != "" && p.Signature != ""
}
