package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"pdf-rag-service/internal/ai"
	"pdf-rag-service/internal/config"
	"pdf-rag-service/internal/logger"
	"pdf-rag-service/internal/store"
	"pdf-rag-service/internal/telemetry"
	"pdf-rag-service/models"
	"pdf-rag-service/services"
)

const (
	TaskIngestPDF      = "pdf:ingest"
	TaskAnswerQuestion = "pdf:answer"

	QueueIngest  = "ingest"
	QueueAnswers = "answers"

	// answerRetention keeps a completed answer task's result visible long
	// enough for the waiting caller to collect it.
	answerRetention = 5 * time.Minute
)

type IngestPayload struct {
	JobID    string `json:"job_id"`
	FilePath string `json:"file_path"`
	PDFName  string `json:"pdf_name"`
}

type AnswerPayload struct {
	JobID    string `json:"job_id"`
	Question string `json:"question"`
}

// Task creators

// NewIngestTask builds an ingestion task. The asynq task id is the job id, so
// the status endpoint can interrogate the queue directly; retention matches
// the record TTL so a finished task stays inspectable as long as its record
// lives.
func NewIngestTask(jobID, filePath, pdfName string, retention time.Duration) (*asynq.Task, error) {
	payload, err := json.Marshal(IngestPayload{
		JobID:    jobID,
		FilePath: filePath,
		PDFName:  pdfName,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskIngestPDF,
		payload,
		asynq.TaskID(jobID),
		asynq.MaxRetry(2),
		asynq.Timeout(10*time.Minute),
		asynq.Queue(QueueIngest),
		asynq.Retention(retention),
	), nil
}

// NewAnswerTask builds an answer task. Answers never retry: the caller is
// blocking on the result and a late retry would answer nobody. The timeout
// must match the deadline the waiting caller uses.
func NewAnswerTask(taskID, jobID, question string, timeout time.Duration) (*asynq.Task, error) {
	payload, err := json.Marshal(AnswerPayload{
		JobID:    jobID,
		Question: question,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskAnswerQuestion,
		payload,
		asynq.TaskID(taskID),
		asynq.MaxRetry(0),
		asynq.Timeout(timeout),
		asynq.Queue(QueueAnswers),
		asynq.Retention(answerRetention),
	), nil
}

// Task handlers

type TaskProcessor struct {
	cfg      *config.Config
	store    *store.Store
	answerer *ai.AnswerClient
	chunker  *services.Chunker
	metrics  *telemetry.Metrics
}

func NewTaskProcessor(cfg *config.Config, st *store.Store, answerer *ai.AnswerClient, metrics *telemetry.Metrics) *TaskProcessor {
	return &TaskProcessor{
		cfg:      cfg,
		store:    st,
		answerer: answerer,
		chunker:  services.NewChunker(cfg.ChunkSize, cfg.ChunkOverlapWords),
		metrics:  metrics,
	}
}

// HandleIngestPDF runs the full ingestion pipeline for one document: extract,
// chunk, embed, persist. Nothing is persisted unless every step succeeds; a
// document with no extractable text fails immediately without retrying.
func (p *TaskProcessor) HandleIngestPDF(ctx context.Context, t *asynq.Task) error {
	var payload IngestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	start := time.Now()
	logger.Info("Processing PDF", "job_id", payload.JobID, "pdf", payload.PDFName)

	extraction, err := services.ExtractPDFText(payload.FilePath)
	if err != nil {
		return fmt.Errorf("error processing PDF: %w", err)
	}

	if !extraction.HasExtractableText() {
		return p.failEmptyDocument(t, payload)
	}

	chunks := p.chunker.Chunk(extraction.Text)
	if len(chunks) == 0 {
		return p.failEmptyDocument(t, payload)
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	embeddings, err := ai.EmbedTexts(ctx, p.cfg, texts)
	if err != nil {
		return fmt.Errorf("embedding failed for job %s: %w", payload.JobID, err)
	}

	record := &models.IngestRecord{
		Chunks:     chunks,
		Embeddings: embeddings,
		PDFName:    payload.PDFName,
	}
	if err := p.store.PutRecord(ctx, payload.JobID, record); err != nil {
		return err
	}

	// The uploaded file has served its purpose once the record exists.
	os.Remove(payload.FilePath)

	if p.metrics != nil {
		p.metrics.RecordPDFProcessing(ctx, time.Since(start).Seconds(), len(chunks))
	}

	result := models.IngestResult{
		Success:       true,
		Message:       "PDF processed successfully",
		ChunksCreated: len(chunks),
		JobID:         payload.JobID,
	}
	if err := writeResult(t, result); err != nil {
		return err
	}

	logger.Info("PDF processed successfully", "job_id", payload.JobID,
		"pages", extraction.Pages, "chunks", len(chunks), "duration", time.Since(start).String())
	return nil
}

// failEmptyDocument records the failure result for a document with nothing to
// index and archives the task without retrying. A document with no text will
// never grow one.
func (p *TaskProcessor) failEmptyDocument(t *asynq.Task, payload IngestPayload) error {
	os.Remove(payload.FilePath)
	if err := writeResult(t, noTextResult(payload.JobID)); err != nil {
		return err
	}
	return fmt.Errorf("no text found in PDF: %w", asynq.SkipRetry)
}

// noTextResult is the failure payload for an empty document. The wording is
// part of the API contract.
func noTextResult(jobID string) models.IngestResult {
	return models.IngestResult{
		Success: false,
		Error:   "No text found in PDF",
		JobID:   jobID,
	}
}

// HandleAnswerQuestion answers a question against a previously ingested
// document. Failures inside the unit of work become part of its result; the
// handler itself only errors when it cannot even report a result.
func (p *TaskProcessor) HandleAnswerQuestion(ctx context.Context, t *asynq.Task) error {
	var payload AnswerPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	result := p.answerQuestion(ctx, payload)
	if p.metrics != nil {
		p.metrics.RecordAnswer(ctx, result.Degraded)
	}
	return writeResult(t, result)
}

func (p *TaskProcessor) answerQuestion(ctx context.Context, payload AnswerPayload) models.AnswerResult {
	record, err := p.store.GetRecord(ctx, payload.JobID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return models.AnswerResult{Success: false, Error: "PDF data not found or expired"}
		}
		return models.AnswerResult{Success: false, Error: fmt.Sprintf("Error answering question: %v", err)}
	}

	queryVector, err := ai.EmbedText(ctx, p.cfg, payload.Question)
	if err != nil {
		return models.AnswerResult{Success: false, Error: fmt.Sprintf("Error answering question: %v", err)}
	}

	hits := services.TopK(queryVector, record.Embeddings, p.cfg.TopK)
	contextText, pages := services.BuildContext(record.Chunks, hits)

	messages := ai.BuildAnswerMessages(record.PDFName, contextText, payload.Question)
	answer, degraded := p.answerer.Answer(ctx, messages)

	return models.AnswerResult{
		Success:  true,
		Answer:   answer,
		Context:  contextText,
		Pages:    pages,
		Degraded: degraded,
	}
}

func writeResult(t *asynq.Task, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal task result: %w", err)
	}
	if _, err := t.ResultWriter().Write(data); err != nil {
		return fmt.Errorf("failed to write task result: %w", err)
	}
	return nil
}
