package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"instaviz/internal/common"
	"instaviz/internal/models"
)

// renderRequiredFields mirrors the upstream contract; each entry maps a
// form field name to the accessor that produces its value.
var renderRequiredFields = []struct {
	Field string
	Value func(p *models.Profile) string
}{
	{"user_name", func(p *models.Profile) string { return p.ContactInfo.Name }},
	{"user_designation", func(p *models.Profile) string { return p.ContactInfo.Designation }},
	{"user_email", func(p *models.Profile) string { return p.ContactInfo.Email }},
	{"user_contact_number", func(p *models.Profile) string { return p.ContactInfo.Phone }},
	{"user_address", func(p *models.Profile) string { return p.ContactInfo.Address }},
	{"user_photo", func(p *models.Profile) string { return p.ContactInfo.Photo }},
	{"user_logo", func(p *models.Profile) string { return p.CompanyLogo }},
}

// RenderResponse is the single versioned schema every render call is
// parsed through. A body code other than 200 is an application error
// even when the HTTP status is 200.
type RenderResponse struct {
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Details []common.FieldError `json:"details,omitempty"`
	Status  string              `json:"status,omitempty"`
	Link    string              `json:"link,omitempty"`
	Slug    string              `json:"slug,omitempty"`

	// Raw is the undecoded body, stored alongside the card.
	Raw models.JSONB `json:"-"`
}

// CardSlug returns the card's public slug, deriving it from the share
// link when the upstream omits the dedicated field.
func (r *RenderResponse) CardSlug() string {
	if r.Slug != "" {
		return r.Slug
	}
	if idx := strings.Index(r.Link, "/dvc/"); idx >= 0 {
		return strings.Trim(r.Link[idx+len("/dvc/"):], "/")
	}
	return ""
}

// CardRenderService is the client for the external card-rendering API.
type CardRenderService interface {
	CreateCard(ctx context.Context, profile *models.Profile, templateID, themeID string) (*RenderResponse, error)
}

type cardRenderService struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	bucket     string
	minioSvc   MinioService
}

// NewCardRenderService creates a new CardRenderService instance.
// Profile attachments are streamed out of the given MinIO bucket into
// the multipart request.
func NewCardRenderService(baseURL, apiKey, bucket string, minioSvc MinioService) CardRenderService {
	return &cardRenderService{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		bucket:     bucket,
		minioSvc:   minioSvc,
	}
}

// CreateCard validates the profile against the upstream contract, posts
// the multipart render request and parses the response.
func (s *cardRenderService) CreateCard(ctx context.Context, profile *models.Profile, templateID, themeID string) (*RenderResponse, error) {
	if details := s.validateProfile(profile); len(details) > 0 {
		return nil, &common.UpstreamError{
			Service: "card-render",
			Code:    http.StatusUnprocessableEntity,
			Message: "profile is missing required card fields",
			Details: details,
		}
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := s.writeForm(ctx, writer, profile, templateID, themeID); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-API-Key", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &common.UpstreamError{Service: "card-render", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &common.UpstreamError{Service: "card-render", Err: err}
	}

	var parsed RenderResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &common.UpstreamError{
			Service: "card-render",
			Code:    resp.StatusCode,
			Message: fmt.Sprintf("unparseable response (HTTP %d)", resp.StatusCode),
			Err:     err,
		}
	}
	_ = json.Unmarshal(respBody, &parsed.Raw)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || parsed.Code != 200 {
		code := parsed.Code
		if code == 0 {
			code = resp.StatusCode
		}
		return nil, &common.UpstreamError{
			Service: "card-render",
			Code:    code,
			Message: parsed.Message,
			Details: parsed.Details,
		}
	}
	return &parsed, nil
}

// validateProfile runs the pre-flight required-field check and produces
// the same {loc, msg} detail shape the upstream would return.
func (s *cardRenderService) validateProfile(profile *models.Profile) []common.FieldError {
	var details []common.FieldError
	for _, rf := range renderRequiredFields {
		if strings.TrimSpace(rf.Value(profile)) == "" {
			details = append(details, common.FieldError{
				Loc: []string{"body", rf.Field},
				Msg: "field required",
			})
		}
	}
	return details
}

func (s *cardRenderService) writeForm(ctx context.Context, writer *multipart.Writer, profile *models.Profile, templateID, themeID string) error {
	fields := map[string]string{
		"template_id":         templateID,
		"theme_id":            themeID,
		"user_name":           profile.ContactInfo.Name,
		"user_designation":    profile.ContactInfo.Designation,
		"user_email":          profile.ContactInfo.Email,
		"user_contact_number": profile.ContactInfo.Phone,
		"user_address":        profile.ContactInfo.Address,
		"company_name":        profile.ContactInfo.CompanyName,
		"facebook":            profile.ContactInfo.Facebook,
		"linkedin":            profile.ContactInfo.LinkedIn,
		"twitter":             profile.ContactInfo.Twitter,
		"instagram":           profile.ContactInfo.Instagram,
		"website":             profile.ContactInfo.Website,
		"about_me":            profile.StudentDetails.AboutMe,
		"skills":              strings.Join(profile.StudentDetails.Skills, ","),
	}
	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := writer.WriteField(name, value); err != nil {
			return err
		}
	}

	if err := s.attach(ctx, writer, "user_photo", profile.ContactInfo.Photo, true); err != nil {
		return err
	}
	if err := s.attach(ctx, writer, "user_logo", profile.CompanyLogo, true); err != nil {
		return err
	}
	if err := s.attach(ctx, writer, "resume_file", profile.StudentDetails.ResumeFile, false); err != nil {
		return err
	}
	for i, product := range profile.Products {
		if err := writer.WriteField(fmt.Sprintf("product_name_%d", i+1), product.Name); err != nil {
			return err
		}
		if product.Description != "" {
			if err := writer.WriteField(fmt.Sprintf("product_description_%d", i+1), product.Description); err != nil {
				return err
			}
		}
		if err := s.attach(ctx, writer, fmt.Sprintf("product_image_%d", i+1), product.Image, false); err != nil {
			return err
		}
		if err := s.attach(ctx, writer, fmt.Sprintf("product_pdf_%d", i+1), product.PDF, false); err != nil {
			return err
		}
	}
	return nil
}

// attach streams one object from MinIO into a file part. Optional
// attachments that cannot be fetched are skipped with a log line;
// required ones fail the request.
func (s *cardRenderService) attach(ctx context.Context, writer *multipart.Writer, field, objectName string, required bool) error {
	if objectName == "" {
		return nil
	}

	obj, err := s.minioSvc.GetObject(ctx, s.bucket, objectName)
	if err != nil {
		if required {
			return &common.UpstreamError{Service: "card-render", Message: fmt.Sprintf("attachment %s unavailable", field), Err: err}
		}
		log.Printf("WARN: skipping attachment %s (%s): %v", field, objectName, err)
		return nil
	}
	defer obj.Close()

	part, err := writer.CreateFormFile(field, objectName)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, obj); err != nil {
		if required {
			return &common.UpstreamError{Service: "card-render", Message: fmt.Sprintf("attachment %s unavailable", field), Err: err}
		}
		log.Printf("WARN: skipping attachment %s (%s): %v", field, objectName, err)
	}
	return nil
}
