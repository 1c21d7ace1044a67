package models

import (
	"time"

	"github.com/google/uuid"
)

// ContactInfo holds the publicly displayed contact block of a profile.
// File-ish fields (Photo) hold MinIO object names, not URLs.
type ContactInfo struct {
	Name        string `json:"name,omitempty"`
	Designation string `json:"designation,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	Photo       string `json:"photo,omitempty"`
	Facebook    string `json:"facebook,omitempty"`
	LinkedIn    string `json:"linkedin,omitempty"`
	Twitter     string `json:"twitter,omitempty"`
	Instagram   string `json:"instagram,omitempty"`
	Website     string `json:"website,omitempty"`
}

// StudentDetails is the optional student section of a profile.
type StudentDetails struct {
	AboutMe    string   `json:"about_me,omitempty"`
	Skills     []string `json:"skills,omitempty"`
	ResumeFile string   `json:"resume_file,omitempty"`
}

// ProfileProduct is one showcased product with optional image/pdf
// attachments stored in MinIO.
type ProfileProduct struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	PDF         string `json:"pdf,omitempty"`
}

type Profile struct {
	ID             uuid.UUID        `json:"id" db:"id"`
	UserID         uuid.UUID        `json:"user_id" db:"user_id"`
	ContactInfo    ContactInfo      `json:"contact_info" db:"contact_info"`
	CompanyLogo    string           `json:"company_logo" db:"company_logo"`
	StudentDetails StudentDetails   `json:"student_details" db:"student_details"`
	Products       []ProfileProduct `json:"products" db:"products"`
	IsActive       bool             `json:"is_active" db:"is_active"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at" db:"updated_at"`
}
