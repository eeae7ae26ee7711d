package recipe

import (
	"fmt"
	"net/http"

	apperrors "github.com/dictameal/backend/internal/errors"
)

const (
	// DegradedTitle marks a structuring result produced from a failure.
	DegradedTitle = "Error/Mock Recipe"
	// NotAvailable fills the scalar fields of a degraded record.
	NotAvailable = "N/A"
)

// Degraded builds the record returned in place of a failed structuring
// call. raw is the completion text when one was received, nil otherwise.
func Degraded(err error, raw *string) Recipe {
	preview := NotAvailable
	if raw != nil {
		preview = Preview(*raw)
	}
	return Recipe{
		Title:       DegradedTitle,
		Description: fmt.Sprintf("%s: %v. Raw: %s", apperrors.TypeOf(err), err, preview),
		Ingredients: []string{},
		Steps:       []string{},
		Duration:    NotAvailable,
		Origin:      NotAvailable,
		MealType:    NotAvailable,
	}
}

// IsDegraded reports whether r came from Degraded.
func IsDegraded(r Recipe) bool {
	return r.Title == DegradedTitle &&
		len(r.Ingredients) == 0 && len(r.Steps) == 0 &&
		r.Duration == NotAvailable && r.Origin == NotAvailable && r.MealType == NotAvailable
}

// invalidShape reports JSON that parsed but does not decode into a Recipe.
func invalidShape(err error) error {
	return &apperrors.AppError{
		Type:          apperrors.ErrorTypeValidation,
		Message:       "recipe has an invalid shape",
		StatusCode:    http.StatusUnprocessableEntity,
		ErrorCode:     "INVALID_SHAPE",
		IsOperational: true,
		Err:           err,
	}
}

// outcomeLabel names an error for logs and metric attributes.
func outcomeLabel(err error) string {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeCompletion:
		return "completion_error"
	case apperrors.ErrorTypeExtraction:
		return "extraction_error"
	case apperrors.ErrorTypeValidation:
		return "validation_error"
	default:
		return "unknown"
	}
}
