package handlers

import (
	"net/http"

	"instaviz/internal/common"
	"instaviz/internal/models"
	"instaviz/internal/services"

	"github.com/labstack/echo/v4"
)

// ProfileHandlers handles HTTP requests for card profiles
type ProfileHandlers struct {
	profileService services.ProfileService
}

// NewProfileHandlers creates a new profile handlers instance
func NewProfileHandlers(profileService services.ProfileService) *ProfileHandlers {
	return &ProfileHandlers{profileService: profileService}
}

type profileRequest struct {
	ContactInfo    models.ContactInfo      `json:"contact_info"`
	CompanyLogo    string                  `json:"company_logo"`
	StudentDetails models.StudentDetails   `json:"student_details"`
	Products       []models.ProfileProduct `json:"products"`
}

// CreateProfile handles POST /profiles
func (h *ProfileHandlers) CreateProfile(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.ContactInfo.Name, "contact_info.name"); err != nil {
		return common.SendValidationError(c, "contact_info.name", err.Error())
	}

	profile := &models.Profile{
		UserID:         userID,
		ContactInfo:    req.ContactInfo,
		CompanyLogo:    req.CompanyLogo,
		StudentDetails: req.StudentDetails,
		Products:       req.Products,
	}
	if err := h.profileService.CreateProfile(ctx, profile); err != nil {
		return common.SendError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Profile created successfully",
		"profile": profile,
	})
}

// GetProfile handles GET /profiles/:id
func (h *ProfileHandlers) GetProfile(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	profileID, err := common.ValidateUUID(c.Param("id"), "profile id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	profile, err := h.profileService.GetProfileByID(ctx, profileID, userID)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, profile)
}

// UpdateProfile handles PUT /profiles/:id
func (h *ProfileHandlers) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	profileID, err := common.ValidateUUID(c.Param("id"), "profile id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	profile := &models.Profile{
		ID:             profileID,
		UserID:         userID,
		ContactInfo:    req.ContactInfo,
		CompanyLogo:    req.CompanyLogo,
		StudentDetails: req.StudentDetails,
		Products:       req.Products,
		IsActive:       true,
	}
	if err := h.profileService.UpdateProfile(ctx, profile, userID); err != nil {
		return common.SendError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Profile updated successfully",
		"profile": profile,
	})
}

// DeleteProfile handles DELETE /profiles/:id
func (h *ProfileHandlers) DeleteProfile(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	profileID, err := common.ValidateUUID(c.Param("id"), "profile id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.profileService.DeleteProfile(ctx, profileID, userID); err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"message": "Profile deleted successfully"})
}

// ListProfiles handles GET /profiles
func (h *ProfileHandlers) ListProfiles(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	profiles, err := h.profileService.ListUserProfiles(ctx, userID)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"profiles": profiles})
}

// UploadAsset handles POST /profiles/:id/assets. Multipart form with
// "kind" (photo, logo, resume) and "file".
func (h *ProfileHandlers) UploadAsset(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	profileID, err := common.ValidateUUID(c.Param("id"), "profile id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	kind := c.FormValue("kind")
	if kind != services.AssetPhoto && kind != services.AssetLogo && kind != services.AssetResume {
		return common.SendValidationError(c, "kind", "must be one of photo, logo, resume")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return common.SendValidationError(c, "file", "file is required")
	}
	src, err := fileHeader.Open()
	if err != nil {
		return common.SendClientError(c, "Could not read uploaded file")
	}
	defer src.Close()

	objectName, err := h.profileService.UploadAsset(ctx, profileID, userID, kind, fileHeader.Filename,
		src, fileHeader.Size, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		return common.SendError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Asset uploaded successfully",
		"object":  objectName,
	})
}
