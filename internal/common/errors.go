package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// FieldError carries one field-level validation detail, either produced
// locally or relayed verbatim from an upstream service.
type FieldError struct {
	Loc []string `json:"loc"`
	Msg string   `json:"msg"`
}

// NotFoundError signals that a referenced entity does not exist.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// NewNotFound builds a NotFoundError for the named resource.
func NewNotFound(resource string) error {
	return &NotFoundError{Resource: resource}
}

// InvalidStateError signals an operation not permitted in the entity's
// current lifecycle state.
type InvalidStateError struct {
	Message string
}

func (e *InvalidStateError) Error() string {
	return e.Message
}

// NewInvalidState builds an InvalidStateError.
func NewInvalidState(format string, args ...interface{}) error {
	return &InvalidStateError{Message: fmt.Sprintf(format, args...)}
}

// InvalidTransitionError signals an order status change not present in
// the per-card-type transition table.
type InvalidTransitionError struct {
	CardType string
	From     string
	To       string
	Allowed  []string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from '%s' to '%s' for %s cards. Allowed transitions: %s",
		e.From, e.To, e.CardType, strings.Join(e.Allowed, ", "))
}

// VerificationFailedError signals a payment signature mismatch.
type VerificationFailedError struct {
	Message string
}

func (e *VerificationFailedError) Error() string {
	return e.Message
}

// UpstreamError carries an external service's failure verbatim so the
// caller can surface field-level validation details.
type UpstreamError struct {
	Service string
	Code    int
	Message string
	Details []FieldError
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Service, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("%s request failed", e.Service)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// SendError maps a core error onto an HTTP response. Unknown errors
// become opaque 500s so internals never leak to clients.
func SendError(c echo.Context, err error) error {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return c.JSON(http.StatusNotFound, CreateErrorResponse("NOT_FOUND", nf.Error(), nil))
	}

	var is *InvalidStateError
	if errors.As(err, &is) {
		return c.JSON(http.StatusConflict, CreateErrorResponse("INVALID_STATE", is.Error(), nil))
	}

	var it *InvalidTransitionError
	if errors.As(err, &it) {
		resp := CreateErrorResponse("INVALID_TRANSITION", it.Error(), map[string]string{
			"from":    it.From,
			"to":      it.To,
			"allowed": strings.Join(it.Allowed, ", "),
		})
		return c.JSON(http.StatusUnprocessableEntity, resp)
	}

	var vf *VerificationFailedError
	if errors.As(err, &vf) {
		return c.JSON(http.StatusBadRequest, CreateErrorResponse("VERIFICATION_FAILED", vf.Error(), nil))
	}

	var up *UpstreamError
	if errors.As(err, &up) {
		status := http.StatusBadGateway
		if up.Code >= 400 && up.Code < 500 {
			status = up.Code
		}
		return c.JSON(status, map[string]interface{}{
			"error": map[string]interface{}{
				"code":    "UPSTREAM_FAILURE",
				"message": up.Error(),
				"details": up.Details,
			},
		})
	}

	return c.JSON(http.StatusInternalServerError, CreateErrorResponse("SERVER_ERROR", "operation could not be completed", nil))
}
