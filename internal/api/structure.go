package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	apperrors "github.com/dictameal/backend/internal/errors"
	"github.com/dictameal/backend/internal/metrics"
	"github.com/dictameal/backend/internal/services/recipe"
	"github.com/dictameal/backend/internal/validation"
)

type StructureRequest struct {
	Text      string `json:"text"`
	UseSearch bool   `json:"use_search"`
}

// HandleStructure always answers 200 with a recipe once the request is
// well formed; pipeline failures come back as the degraded record.
func (s *Server) HandleStructure(w http.ResponseWriter, r *http.Request) {
	var req StructureRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validation.ValidateStructureRequest(req.Text); err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	if check := validation.QuickValidate(req.Text); !check.IsValid {
		slog.InfoContext(ctx, "Sparse dictation",
			"reason", check.Reason,
			"confidence", check.Confidence,
			"use_search", req.UseSearch)
		metrics.RecipeSparseDictations.Add(ctx, 1, metric.WithAttributes(
			attribute.Bool("use_search", req.UseSearch),
		))
	}

	writeJSON(w, http.StatusOK, s.pipeline.Structure(ctx, req.Text, req.UseSearch))
}

type EditInstructionRequest struct {
	Recipe      json.RawMessage `json:"recipe"`
	Instruction string          `json:"instruction"`
}

func (s *Server) HandleEditInstruction(w http.ResponseWriter, r *http.Request) {
	var req EditInstructionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validation.ValidateEditRequest(req.Instruction, req.Recipe); err != nil {
		writeError(w, r, err)
		return
	}

	var original recipe.Recipe
	if err := json.Unmarshal(req.Recipe, &original); err != nil {
		writeError(w, r, apperrors.NewBadRequestError("recipe has an invalid shape: "+err.Error(), "INVALID_RECIPE",
			"Send the recipe as returned by the structure endpoint."))
		return
	}

	edited, err := s.pipeline.Edit(r.Context(), original, req.Instruction)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, edited)
}
