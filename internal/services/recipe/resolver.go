package recipe

import (
	"context"
	"log/slog"
	"strings"
)

// ModelResolver picks the model for one call. Nothing is cached: the
// server's model list is queried on every call so newly pulled models are
// picked up without a restart.
type ModelResolver struct {
	lister      ModelLister
	override    string
	preferences []string
	fallback    string
}

// NewModelResolver creates a resolver. A non-empty override short-circuits
// the lookup. preferences is ordered most to least specific and fallback
// is used when the server has no models or cannot be reached.
func NewModelResolver(lister ModelLister, override string, preferences []string, fallback string) *ModelResolver {
	return &ModelResolver{
		lister:      lister,
		override:    strings.TrimSpace(override),
		preferences: append([]string(nil), preferences...),
		fallback:    fallback,
	}
}

// Resolve never fails; lookup problems are logged and answered with the
// fallback model.
func (r *ModelResolver) Resolve(ctx context.Context) string {
	if r.override != "" {
		return r.override
	}
	if r.lister == nil {
		return r.fallback
	}

	available, err := r.lister.ListModels(ctx)
	if err != nil {
		slog.WarnContext(ctx, "model listing failed, using default model",
			"error", err,
			"model", r.fallback,
		)
		return r.fallback
	}

	model := SelectModel(available, r.preferences, r.fallback)
	slog.DebugContext(ctx, "model resolved", "model", model, "available", len(available))
	return model
}

// SelectModel returns the first available name containing the most
// specific preference that matches anything, scanning names in the order
// given. With no preference match it returns the first available name,
// and with nothing available it returns fallback.
func SelectModel(available, preferences []string, fallback string) string {
	for _, pref := range preferences {
		if pref == "" {
			continue
		}
		for _, name := range available {
			if strings.Contains(name, pref) {
				return name
			}
		}
	}
	for _, name := range available {
		if name != "" {
			return name
		}
	}
	return fallback
}
