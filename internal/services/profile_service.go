package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"instaviz/internal/common"
	"instaviz/internal/models"
	"instaviz/internal/repositories"

	"github.com/google/uuid"
)

// Profile asset kinds accepted by UploadAsset.
const (
	AssetPhoto  = "photo"
	AssetLogo   = "logo"
	AssetResume = "resume"
)

// ProfileService manages card profiles and their MinIO-backed assets.
type ProfileService interface {
	CreateProfile(ctx context.Context, profile *models.Profile) error
	GetProfileByID(ctx context.Context, profileID, userID uuid.UUID) (*models.Profile, error)
	UpdateProfile(ctx context.Context, profile *models.Profile, userID uuid.UUID) error
	DeleteProfile(ctx context.Context, profileID, userID uuid.UUID) error
	ListUserProfiles(ctx context.Context, userID uuid.UUID) ([]*models.Profile, error)
	UploadAsset(ctx context.Context, profileID, userID uuid.UUID, kind, filename string, reader io.Reader, size int64, contentType string) (string, error)
	AssetURL(ctx context.Context, objectName string) (string, error)
}

type profileService struct {
	profileRepo repositories.ProfileRepository
	minioSvc    MinioService
	bucket      string
}

// NewProfileService creates a new ProfileService instance.
func NewProfileService(profileRepo repositories.ProfileRepository, minioSvc MinioService, bucket string) ProfileService {
	return &profileService{profileRepo: profileRepo, minioSvc: minioSvc, bucket: bucket}
}

func (s *profileService) CreateProfile(ctx context.Context, profile *models.Profile) error {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	profile.IsActive = true
	return s.profileRepo.Create(ctx, profile)
}

// GetProfileByID enforces ownership; a profile belonging to another
// user is indistinguishable from a missing one.
func (s *profileService) GetProfileByID(ctx context.Context, profileID, userID uuid.UUID) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if profile == nil || profile.UserID != userID {
		return nil, common.NewNotFound("profile")
	}
	return profile, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, profile *models.Profile, userID uuid.UUID) error {
	existing, err := s.GetProfileByID(ctx, profile.ID, userID)
	if err != nil {
		return err
	}
	profile.UserID = existing.UserID
	return s.profileRepo.Update(ctx, profile)
}

func (s *profileService) DeleteProfile(ctx context.Context, profileID, userID uuid.UUID) error {
	if _, err := s.GetProfileByID(ctx, profileID, userID); err != nil {
		return err
	}
	return s.profileRepo.Delete(ctx, profileID)
}

func (s *profileService) ListUserProfiles(ctx context.Context, userID uuid.UUID) ([]*models.Profile, error) {
	return s.profileRepo.ListByUser(ctx, userID)
}

// UploadAsset stores the file in MinIO and records the object name on
// the matching profile field. Returns the object name.
func (s *profileService) UploadAsset(ctx context.Context, profileID, userID uuid.UUID, kind, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	profile, err := s.GetProfileByID(ctx, profileID, userID)
	if err != nil {
		return "", err
	}

	objectName := fmt.Sprintf("profiles/%s/%s-%s%s", profileID, kind, uuid.New().String()[:8], filepath.Ext(filename))
	if err := s.minioSvc.Upload(ctx, s.bucket, objectName, reader, size, contentType); err != nil {
		return "", err
	}

	switch kind {
	case AssetPhoto:
		profile.ContactInfo.Photo = objectName
	case AssetLogo:
		profile.CompanyLogo = objectName
	case AssetResume:
		profile.StudentDetails.ResumeFile = objectName
	default:
		return "", common.NewInvalidState("unknown asset kind '%s'", kind)
	}

	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return "", err
	}
	return objectName, nil
}

// AssetURL returns a short-lived presigned download URL for an object.
func (s *profileService) AssetURL(ctx context.Context, objectName string) (string, error) {
	return s.minioSvc.GetPresignedURL(ctx, s.bucket, objectName, 15*time.Minute)
}
