package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/dictameal/backend/internal/errors"
	"github.com/dictameal/backend/internal/services/recipe"
)

type DeletedResponse struct {
	Status string `json:"status"`
}

func (s *Server) HandleCreateRecipe(w http.ResponseWriter, r *http.Request) {
	if s.recipes == nil {
		writeError(w, r, unavailable("recipe storage"))
		return
	}

	in, err := decodeRecipe(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.recipes.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, created)
}

// HandleListRecipes lists every recipe, or those whose title contains ?q=.
func (s *Server) HandleListRecipes(w http.ResponseWriter, r *http.Request) {
	if s.recipes == nil {
		writeError(w, r, unavailable("recipe storage"))
		return
	}

	var (
		list []recipe.Recipe
		err  error
	)
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		list, err = s.recipes.SearchByTitle(r.Context(), q)
	} else {
		list, err = s.recipes.List(r.Context())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []recipe.Recipe{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) HandleGetRecipe(w http.ResponseWriter, r *http.Request) {
	if s.recipes == nil {
		writeError(w, r, unavailable("recipe storage"))
		return
	}

	id, err := recipeID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	found, err := s.recipes.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, found)
}

func (s *Server) HandleUpdateRecipe(w http.ResponseWriter, r *http.Request) {
	if s.recipes == nil {
		writeError(w, r, unavailable("recipe storage"))
		return
	}

	id, err := recipeID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in, err := decodeRecipe(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := s.recipes.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) HandleDeleteRecipe(w http.ResponseWriter, r *http.Request) {
	if s.recipes == nil {
		writeError(w, r, unavailable("recipe storage"))
		return
	}

	id, err := recipeID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.recipes.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DeletedResponse{Status: "deleted"})
}

func recipeID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewBadRequestError("invalid recipe id", "INVALID_RECIPE_ID", "Recipe ids are positive integers.")
	}
	return id, nil
}

// decodeRecipe reads a recipe body. A stored recipe needs a title; the id in
// the body, if any, is ignored in favour of the path.
func decodeRecipe(w http.ResponseWriter, r *http.Request) (recipe.Recipe, error) {
	var in recipe.Recipe
	if err := decodeJSON(w, r, &in); err != nil {
		return recipe.Recipe{}, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return recipe.Recipe{}, apperrors.NewValidationError("recipe title is required", "MISSING_TITLE", "Give the recipe a title before saving it.")
	}
	in.ID = nil
	return in, nil
}
