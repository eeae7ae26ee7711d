package recipe

import (
	"fmt"
	"strings"

	apperrors "github.com/dictameal/backend/internal/errors"
)

// requiredListKeys must hold non-empty lists in an edited recipe.
var requiredListKeys = []string{"ingredients", "steps"}

// ValidateEdit checks the shape an edit result must have before it is
// decoded: a string title and non-empty ingredient and step lists.
func ValidateEdit(obj Object) error {
	if !obj.Has("title") {
		return apperrors.NewValidationError("edited recipe has no title", "MISSING_TITLE",
			"Rephrase the instruction so the model returns a complete recipe.")
	}
	if kind(obj["title"]) != '"' {
		return apperrors.NewValidationError(
			fmt.Sprintf("edited recipe title must be a string, got %s", describeKind(obj["title"])),
			"INVALID_TITLE", "")
	}

	for _, key := range requiredListKeys {
		if !obj.Has(key) {
			return apperrors.NewValidationError(fmt.Sprintf("edited recipe has no %s", key), "MISSING_"+strings.ToUpper(key),
				"Rephrase the instruction so the model returns a complete recipe.")
		}
		if kind(obj[key]) != '[' {
			return apperrors.NewValidationError(
				fmt.Sprintf("edited recipe %s must be a list, got %s", key, describeKind(obj[key])),
				"INVALID_"+strings.ToUpper(key), "")
		}
	}
	return nil
}

// ValidateContent checks a decoded edit result. Lists made only of blank
// entries decode to empty and are rejected here.
func ValidateContent(r Recipe) error {
	if len(r.Ingredients) == 0 {
		return apperrors.NewValidationError("edited recipe has no ingredients", "EMPTY_INGREDIENTS",
			"An edit must keep at least one ingredient.")
	}
	if len(r.Steps) == 0 {
		return apperrors.NewValidationError("edited recipe has no steps", "EMPTY_STEPS",
			"An edit must keep at least one step.")
	}
	return nil
}

// Preserve carries caller-owned fields from original onto edited and
// returns the result. The model never sees image data, so any image_data
// in edited is invented and dropped. id and original_transcription are
// restored only when the model left them out. Neither argument is modified.
func Preserve(original, edited Recipe) Recipe {
	out := edited
	out.Ingredients = append([]string(nil), edited.Ingredients...)
	out.Steps = append([]string(nil), edited.Steps...)

	out.ImageData = cloneString(original.ImageData)

	if edited.ID == nil {
		out.ID = cloneInt(original.ID)
	} else {
		out.ID = cloneInt(edited.ID)
	}
	if edited.OriginalTranscription == nil {
		out.OriginalTranscription = cloneString(original.OriginalTranscription)
	} else {
		out.OriginalTranscription = cloneString(edited.OriginalTranscription)
	}
	return out
}
