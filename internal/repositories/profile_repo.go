package repositories

import (
	"context"
	"encoding/json"
	"errors"

	"instaviz/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Profile, error)
}

type profileRepo struct {
	db Database
}

func NewProfileRepo(db Database) ProfileRepository {
	return &profileRepo{db: db}
}

func (r *profileRepo) Create(ctx context.Context, profile *models.Profile) error {
	contact, err := json.Marshal(profile.ContactInfo)
	if err != nil {
		return err
	}
	student, err := json.Marshal(profile.StudentDetails)
	if err != nil {
		return err
	}
	products, err := json.Marshal(profile.Products)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO profiles (id, user_id, contact_info, company_logo, student_details, products, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`
	_, err = r.db.Exec(ctx, query, profile.ID, profile.UserID, contact, profile.CompanyLogo, student, products, profile.IsActive)
	return err
}

func (r *profileRepo) scan(row pgx.Row) (*models.Profile, error) {
	profile := &models.Profile{}
	var contact, student, products []byte
	err := row.Scan(&profile.ID, &profile.UserID, &contact, &profile.CompanyLogo, &student, &products, &profile.IsActive, &profile.CreatedAt, &profile.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(contact) > 0 {
		if err := json.Unmarshal(contact, &profile.ContactInfo); err != nil {
			return nil, err
		}
	}
	if len(student) > 0 {
		if err := json.Unmarshal(student, &profile.StudentDetails); err != nil {
			return nil, err
		}
	}
	if len(products) > 0 {
		if err := json.Unmarshal(products, &profile.Products); err != nil {
			return nil, err
		}
	}
	return profile, nil
}

func (r *profileRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	query := `
		SELECT id, user_id, contact_info, company_logo, student_details, products, is_active, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`
	return r.scan(r.db.QueryRow(ctx, query, id))
}

func (r *profileRepo) Update(ctx context.Context, profile *models.Profile) error {
	contact, err := json.Marshal(profile.ContactInfo)
	if err != nil {
		return err
	}
	student, err := json.Marshal(profile.StudentDetails)
	if err != nil {
		return err
	}
	products, err := json.Marshal(profile.Products)
	if err != nil {
		return err
	}
	query := `
		UPDATE profiles
		SET contact_info = $1, company_logo = $2, student_details = $3, products = $4, is_active = $5, updated_at = NOW()
		WHERE id = $6
	`
	_, err = r.db.Exec(ctx, query, contact, profile.CompanyLogo, student, products, profile.IsActive, profile.ID)
	return err
}

func (r *profileRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM profiles WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

func (r *profileRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Profile, error) {
	query := `
		SELECT id, user_id, contact_info, company_logo, student_details, products, is_active, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*models.Profile
	for rows.Next() {
		profile := &models.Profile{}
		var contact, student, products []byte
		if err := rows.Scan(&profile.ID, &profile.UserID, &contact, &profile.CompanyLogo, &student, &products, &profile.IsActive, &profile.CreatedAt, &profile.UpdatedAt); err != nil {
			return nil, err
		}
		if len(contact) > 0 {
			if err := json.Unmarshal(contact, &profile.ContactInfo); err != nil {
				return nil, err
			}
		}
		if len(student) > 0 {
			if err := json.Unmarshal(student, &profile.StudentDetails); err != nil {
				return nil, err
			}
		}
		if len(products) > 0 {
			if err := json.Unmarshal(products, &profile.Products); err != nil {
				return nil, err
			}
		}
		profiles = append(profiles, profile)
	}
	return profiles, rows.Err()
}
