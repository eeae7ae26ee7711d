package recipe

import (
	"context"
	"log/slog"

	"github.com/dictameal/backend/internal/logger"
	"github.com/dictameal/backend/internal/metrics"
	"github.com/dictameal/backend/internal/services/ai"
	"github.com/dictameal/backend/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

// Pipeline turns dictations into recipes and edits recipes on instruction.
// It keeps no state between calls.
type Pipeline struct {
	resolver  *ModelResolver
	augmenter *Augmenter
	completer Completer
}

// NewPipeline wires the pipeline. augmenter may be nil, in which case
// requests for search context are ignored.
func NewPipeline(resolver *ModelResolver, augmenter *Augmenter, completer Completer) *Pipeline {
	return &Pipeline{
		resolver:  resolver,
		augmenter: augmenter,
		completer: completer,
	}
}

// attempt records what a structuring call got back from the model, so a
// failure can quote the raw text.
type attempt struct {
	model string
	raw   *string
}

// Structure converts dictated text into a recipe. It always returns a
// record: failures produce a Degraded recipe instead of an error.
func (p *Pipeline) Structure(ctx context.Context, text string, useSearch bool) Recipe {
	ctx, span := telemetry.Tracer("recipe").Start(ctx, "recipe.Structure")
	defer span.End()
	span.SetAttributes(attribute.Bool("use_search", useSearch), attribute.Int("text.length", len(text)))

	model, snippets := p.prepare(ctx, text, useSearch)
	span.SetAttributes(attribute.String("model", model), attribute.Int("search.results", len(snippets)))

	att := attempt{model: model}
	r, err := p.structure(ctx, ai.BuildStructurePrompt(text, snippets), &att)
	if err != nil {
		outcome := outcomeLabel(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		slog.WarnContext(ctx, "structuring failed, returning degraded recipe",
			"error", err,
			"model", model,
			"outcome", outcome,
			logger.WithTraceContext(ctx),
		)
		metrics.RecipeStructureTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("outcome", "degraded"),
			attribute.String("reason", outcome),
		))
		return Degraded(err, att.raw)
	}

	metrics.RecipeStructureTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "ok")))
	slog.InfoContext(ctx, "recipe structured",
		"model", model,
		"title", r.Title,
		"ingredients", len(r.Ingredients),
		"steps", len(r.Steps),
	)
	return r
}

// prepare resolves the model and, when asked, fetches search context.
// Both are independent and never fail, so they run side by side.
func (p *Pipeline) prepare(ctx context.Context, text string, useSearch bool) (string, []ai.Snippet) {
	var (
		g        errgroup.Group
		model    string
		snippets []ai.Snippet
	)
	g.Go(func() error {
		model = p.resolver.Resolve(ctx)
		return nil
	})
	if useSearch {
		if p.augmenter == nil {
			slog.InfoContext(ctx, "search requested but disabled")
		} else {
			g.Go(func() error {
				snippets = p.augmenter.Augment(ctx, text)
				return nil
			})
		}
	}
	_ = g.Wait()
	return model, snippets
}

func (p *Pipeline) structure(ctx context.Context, prompt string, att *attempt) (Recipe, error) {
	raw, err := p.completer.Complete(ctx, prompt, att.model, ai.FormatJSON)
	if err != nil {
		return Recipe{}, err
	}
	att.raw = &raw

	obj, err := Extract(raw)
	if err != nil {
		metrics.RecipeExtractionFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("call", "structure")))
		return Recipe{}, err
	}

	// Caller-owned fields are never taken from the model, whatever their shape.
	r, err := DecodeObject(obj.without(callerOwnedKeys...))
	if err != nil {
		return Recipe{}, invalidShape(err)
	}
	return r, nil
}

// Edit applies instruction to original and returns the modified recipe.
// Unlike Structure, failures are returned: COMPLETION_ERROR,
// EXTRACTION_ERROR or VALIDATION_ERROR. original is never modified.
func (p *Pipeline) Edit(ctx context.Context, original Recipe, instruction string) (Recipe, error) {
	ctx, span := telemetry.Tracer("recipe").Start(ctx, "recipe.Edit")
	defer span.End()

	r, err := p.edit(ctx, original, instruction)
	if err != nil {
		outcome := outcomeLabel(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		slog.WarnContext(ctx, "recipe edit failed", "error", err, "outcome", outcome, logger.WithTraceContext(ctx))
		metrics.RecipeEditTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
		return Recipe{}, err
	}

	metrics.RecipeEditTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "ok")))
	return r, nil
}

func (p *Pipeline) edit(ctx context.Context, original Recipe, instruction string) (Recipe, error) {
	model := p.resolver.Resolve(ctx)
	log := slog.With("model", model)

	prompt, err := ai.BuildEditPrompt(original.withoutImage(), instruction)
	if err != nil {
		return Recipe{}, invalidShape(err)
	}

	raw, err := p.completer.Complete(ctx, prompt, model, ai.RecipeSchema())
	if err != nil {
		return Recipe{}, err
	}

	obj, err := Extract(raw)
	if err != nil {
		metrics.RecipeExtractionFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("call", "edit")))
		return Recipe{}, err
	}
	if err := ValidateEdit(obj); err != nil {
		return Recipe{}, err
	}

	if bad := unusableCallerFields(obj); len(bad) > 0 {
		log.WarnContext(ctx, "ignoring malformed pass-through fields from model", "fields", bad)
		obj = obj.without(bad...)
	}

	edited, err := DecodeObject(obj)
	if err != nil {
		return Recipe{}, invalidShape(err)
	}
	if err := ValidateContent(edited); err != nil {
		return Recipe{}, err
	}

	log.InfoContext(ctx, "recipe edited", "title", edited.Title)
	return Preserve(original, edited), nil
}
