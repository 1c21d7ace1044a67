package models

import (
	"time"

	"github.com/google/uuid"
)

// JSONB represents a PostgreSQL JSONB document.
type JSONB map[string]interface{}

// Card is the rendered artifact produced by the external card-rendering
// service from a profile, template and theme. Its lifecycle is
// independent of orders, but creating one triggers the order fan-out.
type Card struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	ProfileID  uuid.UUID `json:"profile_id" db:"profile_id"`
	TemplateID string    `json:"template_id" db:"template_id"`
	ThemeID    string    `json:"theme_id" db:"theme_id"`
	Status     string    `json:"status" db:"status"`
	Payload    JSONB     `json:"payload" db:"payload"`
	Response   JSONB     `json:"response" db:"response"`
	Slug       *string   `json:"slug" db:"slug"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
