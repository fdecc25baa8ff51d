package console

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/kidsact/admin-console/internal/review"
)

var (
	// ErrReviewInFlight is returned when a submit is attempted while another is running.
	ErrReviewInFlight = errors.New("a review is already being submitted")
	// ErrNotReviewable is returned when opening a review on a ticket that is not pending.
	ErrNotReviewable = errors.New("ticket is not pending")
	// ErrNoReview is returned by draft operations when no review is open.
	ErrNoReview = errors.New("no review is open")
	// ErrTicketNotLoaded is returned when the ticket is not in the loaded list.
	ErrTicketNotLoaded = errors.New("ticket is not loaded")
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

const (
	validationFallback = "Please check the review form."
	unknownFallback    = "Something went wrong. Please try again."
)

// ErrorMessage renders err as a banner line.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var verr *review.ValidationError
	if errors.As(err, &verr) {
		if msg, ok := review.Describe(verr.Code); ok {
			return msg
		}
		return validationFallback
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if code, _ := apiErr.Details["code"].(string); code != "" {
			if msg, ok := review.Describe(code); ok {
				return msg
			}
		}
		if apiErr.Message != "" {
			if msg, ok := review.Describe(apiErr.Message); ok {
				return msg
			}
			return apiErr.Message
		}
		if text := http.StatusText(apiErr.Status); text != "" {
			return "Request failed: " + text
		}
		return unknownFallback
	}
	switch {
	case errors.Is(err, ErrReviewInFlight):
		return "The review is still being submitted."
	case errors.Is(err, ErrNotReviewable):
		return "Only pending tickets can be reviewed."
	}
	return unknownFallback
}
