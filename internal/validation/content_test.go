package validation

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/dictameal/backend/internal/errors"
)

func TestQuickValidate(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantIsValid bool
		wantConf    Confidence
	}{
		{
			name:        "Empty content",
			text:        "   ",
			wantIsValid: false,
			wantConf:    ConfidenceHigh,
		},
		{
			name:        "Too short",
			text:        "pasta please",
			wantIsValid: false,
			wantConf:    ConfidenceHigh,
		},
		{
			name:        "Full dictation",
			text:        "Boil the spaghetti in salted water, then whisk two eggs with pecorino and black pepper.",
			wantIsValid: true,
			wantConf:    ConfidenceHigh,
		},
		{
			name:        "Few cooking terms",
			text:        "My grandmother's carbonara, the dish she made every sunday at noon.",
			wantIsValid: true,
			wantConf:    ConfidenceMedium,
		},
		{
			name:        "No keywords",
			text:        "This is a long note that talks about the weekend and nothing in particular at all.",
			wantIsValid: false,
			wantConf:    ConfidenceMedium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := QuickValidate(tt.text)
			assert.Equal(t, tt.wantIsValid, got.IsValid, got.Reason)
			assert.Equal(t, tt.wantConf, got.Confidence)
			assert.NotNil(t, got.Missing)
		})
	}
}

func TestQuickValidate_CountsRunes(t *testing.T) {
	// 29 multibyte runes is still too short even though it is more than 30 bytes.
	got := QuickValidate(strings.Repeat("ñ", MinDictationLength-1))
	assert.False(t, got.IsValid)
	assert.Contains(t, got.Reason, "29 chars")
}

func TestValidateStructureRequest(t *testing.T) {
	assert.NoError(t, ValidateStructureRequest("carbonara"))

	for name, text := range map[string]string{
		"EMPTY_TEXT":    " \n\t",
		"TEXT_TOO_LONG": strings.Repeat("a", MaxTextLength+1),
	} {
		t.Run(name, func(t *testing.T) {
			err := ValidateStructureRequest(text)
			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrorTypeBadRequest, appErr.Type)
			assert.Equal(t, name, appErr.ErrorCode)
			assert.Equal(t, 400, appErr.StatusCode)
		})
	}
}

func TestValidateEditRequest(t *testing.T) {
	recipe := json.RawMessage(`{"title":"Burger","ingredients":["beef"],"steps":["grill"]}`)

	tests := []struct {
		name        string
		instruction string
		recipe      json.RawMessage
		code        string
	}{
		{"valid", "make it vegetarian", recipe, ""},
		{"missing recipe", "make it vegetarian", nil, "MISSING_RECIPE"},
		{"null recipe", "make it vegetarian", json.RawMessage("null"), "MISSING_RECIPE"},
		{"array recipe", "make it vegetarian", json.RawMessage(`["beef"]`), "INVALID_RECIPE"},
		{"blank instruction", "  ", recipe, "EMPTY_INSTRUCTION"},
		{"long instruction", strings.Repeat("x", MaxInstructionLength+1), recipe, "INSTRUCTION_TOO_LONG"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEditRequest(tt.instruction, tt.recipe)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, appErr.ErrorCode)
		})
	}
}
