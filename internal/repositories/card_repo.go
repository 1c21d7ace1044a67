package repositories

import (
	"context"
	"encoding/json"
	"errors"

	"instaviz/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type CardRepository interface {
	Create(ctx context.Context, card *models.Card) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Card, error)
	Update(ctx context.Context, card *models.Card) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Card, error)
}

type cardRepo struct {
	db Database
}

func NewCardRepo(db Database) CardRepository {
	return &cardRepo{db: db}
}

func (r *cardRepo) Create(ctx context.Context, card *models.Card) error {
	payload, err := json.Marshal(card.Payload)
	if err != nil {
		return err
	}
	response, err := json.Marshal(card.Response)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO cards (id, user_id, profile_id, template_id, theme_id, status, payload, response, slug, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`
	_, err = r.db.Exec(ctx, query, card.ID, card.UserID, card.ProfileID, card.TemplateID, card.ThemeID, card.Status, payload, response, card.Slug)
	return err
}

func (r *cardRepo) scan(row pgx.Row) (*models.Card, error) {
	card := &models.Card{}
	var payload, response []byte
	err := row.Scan(&card.ID, &card.UserID, &card.ProfileID, &card.TemplateID, &card.ThemeID, &card.Status, &payload, &response, &card.Slug, &card.CreatedAt, &card.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &card.Payload); err != nil {
			return nil, err
		}
	}
	if len(response) > 0 {
		if err := json.Unmarshal(response, &card.Response); err != nil {
			return nil, err
		}
	}
	return card, nil
}

func (r *cardRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Card, error) {
	query := `
		SELECT id, user_id, profile_id, template_id, theme_id, status, payload, response, slug, created_at, updated_at
		FROM cards
		WHERE id = $1
	`
	return r.scan(r.db.QueryRow(ctx, query, id))
}

func (r *cardRepo) Update(ctx context.Context, card *models.Card) error {
	payload, err := json.Marshal(card.Payload)
	if err != nil {
		return err
	}
	response, err := json.Marshal(card.Response)
	if err != nil {
		return err
	}
	query := `
		UPDATE cards
		SET profile_id = $1, template_id = $2, theme_id = $3, status = $4, payload = $5, response = $6, slug = $7, updated_at = NOW()
		WHERE id = $8
	`
	_, err = r.db.Exec(ctx, query, card.ProfileID, card.TemplateID, card.ThemeID, card.Status, payload, response, card.Slug, card.ID)
	return err
}

func (r *cardRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Card, error) {
	query := `
		SELECT id, user_id, profile_id, template_id, theme_id, status, payload, response, slug, created_at, updated_at
		FROM cards
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []*models.Card
	for rows.Next() {
		card := &models.Card{}
		var payload, response []byte
		if err := rows.Scan(&card.ID, &card.UserID, &card.ProfileID, &card.TemplateID, &card.ThemeID, &card.Status, &payload, &response, &card.Slug, &card.CreatedAt, &card.UpdatedAt); err != nil {
			return nil, err
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &card.Payload); err != nil {
				return nil, err
			}
		}
		if len(response) > 0 {
			if err := json.Unmarshal(response, &card.Response); err != nil {
				return nil, err
			}
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}
