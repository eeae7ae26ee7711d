package api

import (
	"context"
	"io"

	"github.com/dictameal/backend/internal/cache"
	"github.com/dictameal/backend/internal/services/recipe"
)

// Structurer is satisfied by *recipe.Pipeline.
type Structurer interface {
	Structure(ctx context.Context, text string, useSearch bool) recipe.Recipe
	Edit(ctx context.Context, original recipe.Recipe, instruction string) (recipe.Recipe, error)
}

// Transcriber is satisfied by *transcription.Service.
type Transcriber interface {
	Transcribe(ctx context.Context, r io.Reader, filename string) (string, error)
}

// Jobs is satisfied by *worker.JobQueue.
type Jobs interface {
	Submit(ctx context.Context, filename string, audio []byte) (cache.Job, error)
	Get(ctx context.Context, id string) (cache.Job, error)
}

// Recipes is satisfied by *store.RecipeStore.
type Recipes interface {
	Create(ctx context.Context, r recipe.Recipe) (recipe.Recipe, error)
	List(ctx context.Context) ([]recipe.Recipe, error)
	SearchByTitle(ctx context.Context, q string) ([]recipe.Recipe, error)
	Get(ctx context.Context, id int64) (recipe.Recipe, error)
	Update(ctx context.Context, id int64, r recipe.Recipe) (recipe.Recipe, error)
	Delete(ctx context.Context, id int64) error
}

// Deps holds the handlers' collaborators. Only Pipeline is required; routes
// backed by a nil dependency answer 503.
type Deps struct {
	Pipeline    Structurer
	Transcriber Transcriber
	Jobs        Jobs
	Recipes     Recipes
}

type Server struct {
	pipeline    Structurer
	transcriber Transcriber
	jobs        Jobs
	recipes     Recipes
}

func NewServer(deps Deps) *Server {
	return &Server{
		pipeline:    deps.Pipeline,
		transcriber: deps.Transcriber,
		jobs:        deps.Jobs,
		recipes:     deps.Recipes,
	}
}
