package queue

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"pdf-rag-service/internal/config"
	"pdf-rag-service/internal/store"
)

func TestNewIngestTask(t *testing.T) {
	task, err := NewIngestTask("job-123", "/tmp/job-123.pdf", "report.pdf", time.Hour)
	if err != nil {
		t.Fatalf("failed to create ingest task: %v", err)
	}

	if task.Type() != TaskIngestPDF {
		t.Errorf("task type = %q, want %q", task.Type(), TaskIngestPDF)
	}

	var payload IngestPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("failed to unmarshal payload: %v", err)
	}
	if payload.JobID != "job-123" || payload.FilePath != "/tmp/job-123.pdf" || payload.PDFName != "report.pdf" {
		t.Errorf("unexpected payload: %+v", payload)
	}
}

func TestNewAnswerTask(t *testing.T) {
	task, err := NewAnswerTask("task-1", "job-123", "what is this about?", 30*time.Second)
	if err != nil {
		t.Fatalf("failed to create answer task: %v", err)
	}

	if task.Type() != TaskAnswerQuestion {
		t.Errorf("task type = %q, want %q", task.Type(), TaskAnswerQuestion)
	}

	var payload AnswerPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("failed to unmarshal payload: %v", err)
	}
	if payload.JobID != "job-123" || payload.Question != "what is this about?" {
		t.Errorf("unexpected payload: %+v", payload)
	}
}

func TestNoTextResultPayload(t *testing.T) {
	result := noTextResult("job-9")

	if result.Success {
		t.Error("empty document result must not claim success")
	}
	if result.Error != "No text found in PDF" {
		t.Errorf("error = %q, want %q", result.Error, "No text found in PDF")
	}
	if result.JobID != "job-9" {
		t.Errorf("job id = %q, want %q", result.JobID, "job-9")
	}

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("failed to marshal result: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal result: %v", err)
	}
	if decoded["success"] != false {
		t.Errorf("payload success = %v, want false", decoded["success"])
	}
	if decoded["error"] != "No text found in PDF" {
		t.Errorf("payload error = %v, want %q", decoded["error"], "No text found in PDF")
	}
}

func testProcessor(t *testing.T) *TaskProcessor {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}

	st := store.NewStore(rdb, asynq.RedisClientOpt{Addr: addr}, time.Minute)
	t.Cleanup(func() {
		st.Close()
		rdb.Close()
	})

	cfg := &config.Config{ChunkSize: 800, ChunkOverlapWords: 20, TopK: 3}
	return NewTaskProcessor(cfg, st, nil, nil)
}

func TestAnswerQuestionUnknownJob(t *testing.T) {
	p := testProcessor(t)

	result := p.answerQuestion(context.Background(), AnswerPayload{
		JobID:    uuid.NewString(),
		Question: "what does it say?",
	})

	if result.Success {
		t.Error("answer for an unknown job must not claim success")
	}
	if result.Error != "PDF data not found or expired" {
		t.Errorf("error = %q, want %q", result.Error, "PDF data not found or expired")
	}
	if result.Answer != "" {
		t.Errorf("answer should be empty, got %q", result.Answer)
	}
}
