package phosphene

import (
	"errors"

	"github.com/aixiera/phosphene-web/models"
)

// GenericFailureMessage is shown when a failure carries no backend detail
const GenericFailureMessage = "Simulation failed. Please try again."

type (
	APIError        = models.APIError
	NetworkError    = models.NetworkError
	DecodeError     = models.DecodeError
	ValidationError = models.ValidationError
)

// UserMessage returns the text to show the user for a failed simulation.
// Only a backend-supplied detail is passed through; everything else is generic
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *models.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}

	return GenericFailureMessage
}
