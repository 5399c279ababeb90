package handlers

import (
	"errors"
	"net/http"

	"rewards-miniapp-backend/internal/models"
)

// statusFor maps core errors to HTTP status codes so every failure renders
// a specific message with the right status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrAccountNotFound),
		errors.Is(err, models.ErrRequestNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrAlreadyResolved),
		errors.Is(err, models.ErrUpgradePending),
		errors.Is(err, models.ErrUsernameTaken),
		errors.Is(err, models.ErrClaimNotReady):
		return http.StatusConflict
	case errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrInvalidStake),
		errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrBelowMinimum),
		errors.Is(err, models.ErrInsufficientBalance),
		errors.Is(err, models.ErrSelfReferral):
		return http.StatusBadRequest
	default:
		return http.StatusBadRequest
	}
}
