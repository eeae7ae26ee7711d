package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/dictameal/backend/internal/errors"
	"github.com/dictameal/backend/internal/services/recipe"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const schema = `
CREATE TABLE IF NOT EXISTS recipes (
	id                     BIGSERIAL PRIMARY KEY,
	title                  TEXT NOT NULL,
	description            TEXT NOT NULL DEFAULT '',
	ingredients            JSONB NOT NULL DEFAULT '[]',
	steps                  JSONB NOT NULL DEFAULT '[]',
	duration               TEXT NOT NULL DEFAULT '',
	origin                 TEXT NOT NULL DEFAULT '',
	meal_type              TEXT NOT NULL DEFAULT '',
	original_transcription TEXT,
	image_data             TEXT,
	created_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at             TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS recipes_title_lower_idx ON recipes (lower(title));
`

const recipeColumns = `id, title, description, ingredients, steps, duration, origin, meal_type, original_transcription, image_data`

// RecipeStore persists recipes in Postgres. Ingredient and step order is
// kept by storing both lists as JSONB arrays.
type RecipeStore struct {
	db DBTX
}

func NewRecipeStore(db DBTX) *RecipeStore {
	return &RecipeStore{db: db}
}

// EnsureSchema creates the table and index when missing.
func (s *RecipeStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return apperrors.NewStorageError("failed to create schema", "SCHEMA_ERROR", err)
	}
	return nil
}

func (s *RecipeStore) Create(ctx context.Context, r recipe.Recipe) (recipe.Recipe, error) {
	args, err := recipeArgs(r)
	if err != nil {
		return recipe.Recipe{}, err
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO recipes (title, description, ingredients, steps, duration, origin, meal_type, original_transcription, image_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+recipeColumns, args...)
	created, err := scanRecipe(row)
	if err != nil {
		return recipe.Recipe{}, apperrors.NewStorageError("failed to create recipe", "RECIPE_CREATE_ERROR", err)
	}
	return created, nil
}

// List returns every recipe, oldest first.
func (s *RecipeStore) List(ctx context.Context) ([]recipe.Recipe, error) {
	return s.query(ctx, listOp, `SELECT `+recipeColumns+` FROM recipes ORDER BY id`)
}

// SearchByTitle matches a case-insensitive substring of the title.
func (s *RecipeStore) SearchByTitle(ctx context.Context, q string) ([]recipe.Recipe, error) {
	return s.query(ctx, searchOp, `SELECT `+recipeColumns+` FROM recipes WHERE title ILIKE $1 ESCAPE '\' ORDER BY id`,
		"%"+escapeLike(q)+"%")
}

func (s *RecipeStore) Get(ctx context.Context, id int64) (recipe.Recipe, error) {
	row := s.db.QueryRow(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE id = $1`, id)
	r, err := scanRecipe(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return recipe.Recipe{}, notFound(id)
	}
	if err != nil {
		return recipe.Recipe{}, apperrors.NewStorageError("failed to load recipe", "RECIPE_LOAD_ERROR", err)
	}
	return r, nil
}

// Update replaces every field of recipe id.
func (s *RecipeStore) Update(ctx context.Context, id int64, r recipe.Recipe) (recipe.Recipe, error) {
	args, err := recipeArgs(r)
	if err != nil {
		return recipe.Recipe{}, err
	}
	row := s.db.QueryRow(ctx, `
		UPDATE recipes SET
			title = $1, description = $2, ingredients = $3, steps = $4, duration = $5,
			origin = $6, meal_type = $7, original_transcription = $8, image_data = $9,
			updated_at = now()
		WHERE id = $10
		RETURNING `+recipeColumns, append(args, id)...)
	updated, err := scanRecipe(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return recipe.Recipe{}, notFound(id)
	}
	if err != nil {
		return recipe.Recipe{}, apperrors.NewStorageError("failed to update recipe", "RECIPE_UPDATE_ERROR", err)
	}
	return updated, nil
}

func (s *RecipeStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return apperrors.NewStorageError("failed to delete recipe", "RECIPE_DELETE_ERROR", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(id)
	}
	return nil
}

// queryOp labels a multi-row read in its errors.
type queryOp struct {
	action string
	code   string
}

var (
	listOp   = queryOp{action: "list recipes", code: "RECIPE_LIST_ERROR"}
	searchOp = queryOp{action: "search recipes by title", code: "RECIPE_SEARCH_ERROR"}
)

func (op queryOp) fail(err error) *apperrors.AppError {
	return apperrors.NewStorageError("failed to "+op.action, op.code, err)
}

func (s *RecipeStore) query(ctx context.Context, op queryOp, sql string, args ...any) ([]recipe.Recipe, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, op.fail(err)
	}
	defer rows.Close()

	recipes := []recipe.Recipe{}
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, op.fail(err)
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, op.fail(err)
	}
	return recipes, nil
}

func recipeArgs(r recipe.Recipe) ([]any, error) {
	ingredients, err := encodeList(r.Ingredients)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode ingredients", err)
	}
	steps, err := encodeList(r.Steps)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode steps", err)
	}
	return []any{
		r.Title, r.Description, ingredients, steps, r.Duration, r.Origin, r.MealType,
		r.OriginalTranscription, r.ImageData,
	}, nil
}

func scanRecipe(row pgx.Row) (recipe.Recipe, error) {
	var (
		r                  recipe.Recipe
		id                 int64
		ingredients, steps []byte
	)
	err := row.Scan(&id, &r.Title, &r.Description, &ingredients, &steps,
		&r.Duration, &r.Origin, &r.MealType, &r.OriginalTranscription, &r.ImageData)
	if err != nil {
		return recipe.Recipe{}, err
	}
	r.ID = &id
	if r.Ingredients, err = decodeList(ingredients); err != nil {
		return recipe.Recipe{}, fmt.Errorf("ingredients: %w", err)
	}
	if r.Steps, err = decodeList(steps); err != nil {
		return recipe.Recipe{}, fmt.Errorf("steps: %w", err)
	}
	return r, nil
}

func encodeList(items []string) ([]byte, error) {
	if items == nil {
		items = []string{}
	}
	return json.Marshal(items)
}

func decodeList(data []byte) ([]string, error) {
	items := []string{}
	if len(data) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []string{}
	}
	return items, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func notFound(id int64) *apperrors.AppError {
	return apperrors.NewNotFoundError(fmt.Sprintf("recipe %d not found", id), "RECIPE_NOT_FOUND", "List recipes to find a valid id.")
}
