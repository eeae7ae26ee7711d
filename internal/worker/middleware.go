package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/dictameal/backend/internal/metrics"
	"github.com/dictameal/backend/internal/telemetry"
)

// Instrument wraps a task handler with a consumer span, a cloned Sentry hub
// tagged with the task, panic recovery and the job metrics.
func Instrument(h asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) (err error) {
		taskID, _ := asynq.GetTaskID(ctx)
		queueName, _ := asynq.GetQueueName(ctx)
		retryCount, _ := asynq.GetRetryCount(ctx)

		ctx, span := telemetry.Tracer("worker").Start(ctx, fmt.Sprintf("job:%s", t.Type()),
			trace.WithSpanKind(trace.SpanKindConsumer))
		defer span.End()
		span.SetAttributes(
			attribute.String("job.id", taskID),
			attribute.String("job.type", t.Type()),
			attribute.String("job.queue", queueName),
			attribute.Int("job.retry_count", retryCount),
		)

		hub := sentry.CurrentHub().Clone()
		hub.Scope().SetTag("task_type", t.Type())
		hub.Scope().SetTag("task_id", taskID)
		hub.Scope().SetTag("queue", queueName)
		hub.Scope().SetTag("retry_count", strconv.Itoa(retryCount))
		ctx = sentry.SetHubOnContext(ctx, hub)

		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				hub.RecoverWithContext(ctx, r)
				err = fmt.Errorf("task %s panicked: %v", t.Type(), r)
			}

			status := "success"
			if err != nil {
				status = "failure"
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				hub.CaptureException(err)
			}
			metrics.JobsProcessedTotal.Add(ctx, 1, metric.WithAttributes(
				attribute.String("job.type", t.Type()),
				attribute.String("status", status),
			))
			metrics.JobDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
				attribute.String("job.type", t.Type()),
			))
		}()

		return h.ProcessTask(ctx, t)
	})
}
