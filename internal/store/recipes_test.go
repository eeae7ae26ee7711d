package store

import (
	"context"
	stderrors "errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dictameal/backend/internal/db"
	apperrors "github.com/dictameal/backend/internal/errors"
	"github.com/dictameal/backend/internal/services/recipe"
)

func TestEncodeDecodeList(t *testing.T) {
	data, err := encodeList(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	items, err := decodeList([]byte(`["200 g spaghetti","2 eggs"]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"200 g spaghetti", "2 eggs"}, items)

	items, err = decodeList(nil)
	require.NoError(t, err)
	assert.NotNil(t, items)

	items, err = decodeList([]byte("null"))
	require.NoError(t, err)
	assert.NotNil(t, items)

	_, err = decodeList([]byte(`{"a":1}`))
	assert.Error(t, err)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\% \_pure\_ \\ juice`, escapeLike(`100% _pure_ \ juice`))
	assert.Equal(t, "carbonara", escapeLike("carbonara"))
}

type failingDB struct {
	DBTX
}

func (failingDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, stderrors.New("connection reset")
}

func TestRecipeStore_QueryErrorsNameOperation(t *testing.T) {
	s := NewRecipeStore(failingDB{})

	_, err := s.List(context.Background())
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "RECIPE_LIST_ERROR", appErr.ErrorCode)
	assert.Contains(t, appErr.Message, "list recipes")

	_, err = s.SearchByTitle(context.Background(), "carbonara")
	appErr, ok = apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "RECIPE_SEARCH_ERROR", appErr.ErrorCode)
	assert.Contains(t, appErr.Message, "search recipes")
}

func strPtr(s string) *string { return &s }

// Runs against a real database: TEST_DATABASE_URL=postgres://... go test ./internal/store
func TestRecipeStore_Postgres(t *testing.T) {
	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	pool, err := db.NewPool(ctx, databaseURL)
	require.NoError(t, err)
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	s := NewRecipeStore(tx)
	require.NoError(t, s.EnsureSchema(ctx))

	created, err := s.Create(ctx, recipe.Recipe{
		Title:                 "Spaghetti Carbonara",
		Ingredients:           []string{"200 g spaghetti", "2 eggs", "50 g pecorino"},
		Steps:                 []string{"Boil the pasta", "Mix eggs and cheese", "Combine off the heat"},
		Duration:              "20 minutes",
		Origin:                "Italian",
		MealType:              "Dinner",
		OriginalTranscription: strPtr("carbonara with eggs"),
		ImageData:             strPtr("data:image/png;base64,AAA"),
	})
	require.NoError(t, err)
	require.NotNil(t, created.ID)
	assert.Equal(t, []string{"Boil the pasta", "Mix eggs and cheese", "Combine off the heat"}, created.Steps)
	assert.Equal(t, "data:image/png;base64,AAA", *created.ImageData)

	got, err := s.Get(ctx, *created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	found, err := s.SearchByTitle(ctx, "CARBON")
	require.NoError(t, err)
	assert.Contains(t, found, created)

	none, err := s.SearchByTitle(ctx, "%")
	require.NoError(t, err)
	assert.NotContains(t, none, created)

	edited := created
	edited.Title = "Vegetarian Carbonara"
	edited.Ingredients = []string{"200 g spaghetti", "2 eggs", "courgette"}
	updated, err := s.Update(ctx, *created.ID, edited)
	require.NoError(t, err)
	assert.Equal(t, "Vegetarian Carbonara", updated.Title)
	assert.Equal(t, *created.ID, *updated.ID)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, all, updated)

	require.NoError(t, s.Delete(ctx, *created.ID))
	_, err = s.Get(ctx, *created.ID)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	assert.True(t, apperrors.IsType(s.Delete(ctx, *created.ID), apperrors.ErrorTypeNotFound))

	_, err = s.Update(ctx, *created.ID, edited)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}
