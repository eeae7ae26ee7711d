package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	apperrors "github.com/dictameal/backend/internal/errors"
)

// Confidence represents certainty in the validation result
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

const (
	MaxTextLength        = 20000
	MaxInstructionLength = 2000
	MinDictationLength   = 30
)

// ContentValidationResult contains the outcome of validation
type ContentValidationResult struct {
	IsValid    bool       `json:"is_valid"`
	Confidence Confidence `json:"confidence"`
	Reason     string     `json:"reason"`
	Missing    []string   `json:"missing"`
}

// recipeKeywords for quick heuristic validation
var recipeKeywords = []string{
	// Cooking verbs
	"bake", "cook", "fry", "boil", "grill", "roast", "saute", "simmer", "steam",
	"mix", "whisk", "stir", "blend", "chop", "dice", "slice", "preheat", "prepare",
	// Quantities
	"ingredient", "cup", "tablespoon", "teaspoon", "tbsp", "tsp", "ounce", "oz", "gram", "ml", "liter",
	// Recipe terms
	"recipe", "dish", "meal", "serve", "serving", "minutes", "hours", "temperature", "degrees",
	// Common ingredients
	"flour", "sugar", "salt", "pepper", "oil", "butter", "egg", "milk", "water", "garlic", "onion",
	"pasta", "rice", "cheese", "tomato", "chicken", "beef",
}

// QuickValidate flags dictations that are probably too sparse to structure
// well on their own. IsValid false means "sparse": the text is still
// structured, callers only log it.
func QuickValidate(text string) ContentValidationResult {
	content := strings.TrimSpace(text)
	length := utf8.RuneCountInString(content)

	if length < MinDictationLength {
		reason := fmt.Sprintf("Dictation too short (%d chars). Need at least %d chars.", length, MinDictationLength)
		if length == 0 {
			reason = "No content provided"
		}
		return ContentValidationResult{
			IsValid:    false,
			Confidence: ConfidenceHigh,
			Reason:     reason,
			Missing:    []string{"sufficient content length"},
		}
	}

	lowerContent := strings.ToLower(content)
	found := 0
	for _, kw := range recipeKeywords {
		if strings.Contains(lowerContent, kw) {
			found++
		}
	}

	switch {
	case found == 0:
		return ContentValidationResult{
			IsValid:    false,
			Confidence: ConfidenceMedium,
			Reason:     "Content has sufficient length but no common recipe keywords found",
			Missing:    []string{"recipe keywords"},
		}
	case found < 3:
		return ContentValidationResult{
			IsValid:    true,
			Confidence: ConfidenceMedium,
			Reason:     "Content mentions few cooking terms",
			Missing:    []string{},
		}
	}

	return ContentValidationResult{
		IsValid:    true,
		Confidence: ConfidenceHigh,
		Reason:     "Content passed quick validation",
		Missing:    []string{},
	}
}

// ValidateStructureRequest checks the dictation sent for structuring.
func ValidateStructureRequest(text string) error {
	if strings.TrimSpace(text) == "" {
		return apperrors.NewBadRequestError("text is required", "EMPTY_TEXT", "Dictate or type the recipe before structuring it.")
	}
	if n := utf8.RuneCountInString(text); n > MaxTextLength {
		return apperrors.NewBadRequestError(
			fmt.Sprintf("text is too long (%d chars, max %d)", n, MaxTextLength),
			"TEXT_TOO_LONG",
			"Split the dictation into separate recipes.",
		)
	}
	return nil
}

// ValidateEditRequest checks an edit instruction and that the recipe is a
// JSON object.
func ValidateEditRequest(instruction string, recipe json.RawMessage) error {
	trimmed := bytes.TrimSpace(recipe)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return apperrors.NewBadRequestError("recipe is required", "MISSING_RECIPE", "Send the recipe to edit along with the instruction.")
	}
	if trimmed[0] != '{' {
		return apperrors.NewBadRequestError("recipe must be a JSON object", "INVALID_RECIPE", "Send the recipe as returned by the structure endpoint.")
	}
	if strings.TrimSpace(instruction) == "" {
		return apperrors.NewBadRequestError("instruction is required", "EMPTY_INSTRUCTION", "Describe the change, for example \"make it vegetarian\".")
	}
	if n := utf8.RuneCountInString(instruction); n > MaxInstructionLength {
		return apperrors.NewBadRequestError(
			fmt.Sprintf("instruction is too long (%d chars, max %d)", n, MaxInstructionLength),
			"INSTRUCTION_TOO_LONG",
			"Keep the instruction to a sentence or two.",
		)
	}
	return nil
}
