package handlers

import (
	"errors"

	"github.com/kheyma/kheyma-service/internal/service"
	apperrors "github.com/kheyma/kheyma-service/pkg/util/errorutil"
)

// toHTTPError maps service failures to the error envelope.
func toHTTPError(err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		details := make(map[string]any, len(verr.Fields))
		for field, msg := range verr.Fields {
			details[field] = msg
		}
		return apperrors.NewValidationError("Request validation failed", details)
	case errors.Is(err, service.ErrDuplicateLoginID):
		return apperrors.NewConflict(apperrors.CodeDuplicateLoginID, "An account with this email already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		return apperrors.NewInvalidCredentials()
	case errors.Is(err, service.ErrAccountDisabled):
		return apperrors.NewAccountDisabled()
	case errors.Is(err, service.ErrTooManyAttempts):
		return apperrors.NewTooManyAttempts()
	case errors.Is(err, service.ErrUserNotFound):
		return apperrors.NewNotFound("user")
	case errors.Is(err, service.ErrStoreUnavailable):
		return apperrors.NewServiceUnavailable(err)
	default:
		return apperrors.NewInternalError(err)
	}
}

func invalidPayload() error {
	return apperrors.NewValidationError("invalid payload", nil)
}
