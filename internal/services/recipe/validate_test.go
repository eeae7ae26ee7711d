package recipe

import (
	"errors"
	"testing"

	apperrors "github.com/dictameal/backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(i int64) *int64   { return &i }

func TestValidateEdit(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		code string
	}{
		{"valid", `{"title":"A","ingredients":["x"],"steps":["y"]}`, ""},
		{"missing title", `{"ingredients":["x"],"steps":["y"]}`, "MISSING_TITLE"},
		{"null title", `{"title":null,"ingredients":["x"],"steps":["y"]}`, "MISSING_TITLE"},
		{"numeric title", `{"title":5,"ingredients":["x"],"steps":["y"]}`, "INVALID_TITLE"},
		{"missing ingredients", `{"title":"A","steps":["y"]}`, "MISSING_INGREDIENTS"},
		{"string steps", `{"title":"A","ingredients":["x"],"steps":"y"}`, "INVALID_STEPS"},
		{"object ingredients", `{"title":"A","ingredients":{"x":1},"steps":["y"]}`, "INVALID_INGREDIENTS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEdit(objectFrom(t, tt.raw))
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
			assert.Equal(t, tt.code, appErr.ErrorCode)
		})
	}
}

func TestValidateContent(t *testing.T) {
	assert.NoError(t, ValidateContent(Recipe{Ingredients: []string{"x"}, Steps: []string{"y"}}))

	err := ValidateContent(Recipe{Ingredients: []string{}, Steps: []string{"y"}})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	err = ValidateContent(Recipe{Ingredients: []string{"x"}})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestPreserve_ReinstatesImageData(t *testing.T) {
	original := Recipe{
		Title:       "Burger",
		Ingredients: []string{"beef"},
		Steps:       []string{"grill"},
		ImageData:   strPtr("base64-original"),
	}
	edited := Recipe{Title: "Veggie Burger", Ingredients: []string{"beans"}, Steps: []string{"grill"}}

	out := Preserve(original, edited)
	require.NotNil(t, out.ImageData)
	assert.Equal(t, "base64-original", *out.ImageData)
	assert.Equal(t, "Veggie Burger", out.Title)
}

func TestPreserve_DropsInventedImageData(t *testing.T) {
	original := Recipe{Title: "Soup"}
	edited := Recipe{Title: "Soup", ImageData: strPtr("hallucinated")}

	assert.Nil(t, Preserve(original, edited).ImageData)
}

func TestPreserve_IDAndTranscription(t *testing.T) {
	original := Recipe{ID: intPtr(9), OriginalTranscription: strPtr("dictated")}

	out := Preserve(original, Recipe{})
	assert.Equal(t, int64(9), *out.ID)
	assert.Equal(t, "dictated", *out.OriginalTranscription)

	out = Preserve(original, Recipe{ID: intPtr(10), OriginalTranscription: strPtr("model")})
	assert.Equal(t, int64(10), *out.ID)
	assert.Equal(t, "model", *out.OriginalTranscription)
}

func TestPreserve_DoesNotAlias(t *testing.T) {
	original := Recipe{ImageData: strPtr("img"), ID: intPtr(1)}
	edited := Recipe{Ingredients: []string{"a"}, Steps: []string{"b"}}

	out := Preserve(original, edited)
	*out.ImageData = "changed"
	*out.ID = 2
	out.Ingredients[0] = "changed"

	assert.Equal(t, "img", *original.ImageData)
	assert.Equal(t, int64(1), *original.ID)
	assert.Equal(t, "a", edited.Ingredients[0])
}

func TestDegraded(t *testing.T) {
	raw := "I am not JSON at all"
	r := Degraded(apperrors.NewExtractionError("no JSON object found", raw), &raw)

	assert.True(t, IsDegraded(r))
	assert.Equal(t, DegradedTitle, r.Title)
	assert.Contains(t, r.Description, "EXTRACTION_ERROR: no JSON object found")
	assert.Contains(t, r.Description, "Raw: I am not JSON at all")
	assert.Empty(t, r.Ingredients)
	assert.NotNil(t, r.Ingredients)
	assert.Equal(t, NotAvailable, r.Duration)
	assert.Equal(t, NotAvailable, r.Origin)
	assert.Equal(t, NotAvailable, r.MealType)
}

func TestDegraded_NoRaw(t *testing.T) {
	r := Degraded(errors.New("boom"), nil)
	assert.Equal(t, "INTERNAL_ERROR: boom. Raw: N/A", r.Description)
}

func TestIsDegraded_RealRecipe(t *testing.T) {
	assert.False(t, IsDegraded(Recipe{Title: "Carbonara", Ingredients: []string{"egg"}}))
}
