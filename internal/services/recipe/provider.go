package recipe

import (
	"context"
	"encoding/json"

	"github.com/dictameal/backend/internal/services/search"
)

// ModelLister reports the models installed on the language model server.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Completer runs one prompt against one model and returns the raw text.
// format is either the JSON string "json" or a JSON schema object.
type Completer interface {
	Complete(ctx context.Context, prompt, model string, format json.RawMessage) (string, error)
}

// Searcher runs a web search.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]search.Result, error)
}
