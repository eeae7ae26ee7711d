package metrics

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	meter = otel.Meter("dictameal/business")

	// Recipe pipeline metrics
	RecipeStructureTotal      metric.Int64Counter
	RecipeEditTotal           metric.Int64Counter
	RecipeExtractionFailures  metric.Int64Counter
	RecipeAugmentationResults metric.Int64Histogram
	RecipeSparseDictations    metric.Int64Counter

	// LLM metrics
	CompletionDuration metric.Float64Histogram

	// External API metrics
	ExternalAPICallsTotal metric.Int64Counter
	ExternalAPIDuration   metric.Float64Histogram

	// Transcription metrics
	TranscriptionDuration metric.Float64Histogram
	TranscriptionInFlight metric.Int64UpDownCounter

	// Background job metrics
	JobsProcessedTotal metric.Int64Counter
	JobDuration        metric.Float64Histogram

	initOnce sync.Once
	initErr  error
)

// The global meter delegates to whatever provider telemetry installs later,
// so instruments can be created at package load.
func init() {
	if err := Init(); err != nil {
		otel.Handle(err)
	}
}

// Init creates every instrument. Safe to call more than once.
func Init() error {
	initOnce.Do(func() {
		initErr = create()
	})
	return initErr
}

func create() error {
	var err error

	RecipeStructureTotal, err = meter.Int64Counter(
		"recipe.structure.total",
		metric.WithDescription("Structuring calls by outcome (ok or degraded)"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	RecipeSparseDictations, err = meter.Int64Counter(
		"recipe.dictation.sparse.total",
		metric.WithDescription("Structure requests whose text looked too sparse to stand alone, by use_search"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	RecipeEditTotal, err = meter.Int64Counter(
		"recipe.edit.total",
		metric.WithDescription("Edit calls by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	RecipeExtractionFailures, err = meter.Int64Counter(
		"recipe.extraction.failures.total",
		metric.WithDescription("Completions that did not contain a usable JSON object"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	RecipeAugmentationResults, err = meter.Int64Histogram(
		"recipe.augmentation.results",
		metric.WithDescription("Search snippets folded into a structuring prompt"),
		metric.WithUnit("1"),
		metric.WithExplicitBucketBoundaries(0, 1, 2, 3, 5),
	)
	if err != nil {
		return err
	}

	CompletionDuration, err = meter.Float64Histogram(
		"llm.completion.duration",
		metric.WithDescription("Duration of Ollama generate calls"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.5, 1, 2, 5, 10, 30, 60, 120),
	)
	if err != nil {
		return err
	}

	ExternalAPICallsTotal, err = meter.Int64Counter(
		"external.api.calls.total",
		metric.WithDescription("Total number of external API calls"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	ExternalAPIDuration, err = meter.Float64Histogram(
		"external.api.duration",
		metric.WithDescription("Duration of external API calls"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2, 5, 10, 30, 120),
	)
	if err != nil {
		return err
	}

	TranscriptionDuration, err = meter.Float64Histogram(
		"transcription.duration",
		metric.WithDescription("Duration of audio transcription"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 2, 5, 10, 30, 60, 180),
	)
	if err != nil {
		return err
	}

	TranscriptionInFlight, err = meter.Int64UpDownCounter(
		"transcription.in_flight",
		metric.WithDescription("Transcriptions currently holding a worker slot"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	JobsProcessedTotal, err = meter.Int64Counter(
		"worker.jobs.processed.total",
		metric.WithDescription("Background jobs processed by task type and status"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	JobDuration, err = meter.Float64Histogram(
		"worker.job.duration",
		metric.WithDescription("Duration of background jobs"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.5, 1, 5, 10, 30, 60, 180, 300),
	)
	return err
}
