package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	RequestCounter    metric.Int64Counter
	RequestDuration   metric.Float64Histogram
	PDFProcessingTime metric.Float64Histogram
	ChunksCreated     metric.Int64Counter
	AnswersServed     metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("pdf-rag-service")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	pdfProcessingTime, err := meter.Float64Histogram(
		"pdf.processing.duration",
		metric.WithDescription("PDF processing duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	chunksCreated, err := meter.Int64Counter(
		"pdf.chunks.created",
		metric.WithDescription("Total chunks produced by ingestion"),
	)
	if err != nil {
		return nil, err
	}

	answersServed, err := meter.Int64Counter(
		"answers.served.total",
		metric.WithDescription("Total answer tasks completed"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:    requestCounter,
		RequestDuration:   requestDuration,
		PDFProcessingTime: pdfProcessingTime,
		ChunksCreated:     chunksCreated,
		AnswersServed:     answersServed,
	}, nil
}

// RecordRequest records one HTTP request observation.
func (m *Metrics) RecordRequest(ctx context.Context, method, path, status string, duration float64) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.String("status", status),
	)
	m.RequestCounter.Add(ctx, 1, attrs)
	m.RequestDuration.Record(ctx, duration, attrs)
}

// RecordPDFProcessing records one completed ingestion.
func (m *Metrics) RecordPDFProcessing(ctx context.Context, seconds float64, chunks int) {
	m.PDFProcessingTime.Record(ctx, seconds)
	m.ChunksCreated.Add(ctx, int64(chunks))
}

// RecordAnswer records one completed answer task.
func (m *Metrics) RecordAnswer(ctx context.Context, degraded bool) {
	m.AnswersServed.Add(ctx, 1, metric.WithAttributes(attribute.Bool("degraded", degraded)))
}
