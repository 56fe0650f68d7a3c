package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"pdf-rag-service/models"
	"pdf-rag-service/utils"
)

// recordKeyPrefix namespaces persisted ingest records in Redis.
const recordKeyPrefix = "pdf_data:"

// ErrRecordNotFound reports that no ingest record exists for a job id, either
// because the job never ran or because the record's TTL elapsed. Expiry is a
// storage trade-off, not an error condition worth distinguishing.
var ErrRecordNotFound = errors.New("pdf data not found or expired")

// ErrResultTimeout reports that a queued unit of work did not produce a
// result before the caller's deadline.
var ErrResultTimeout = errors.New("timed out waiting for task result")

// Store is the shared job/state dependency: a TTL-bounded record store plus
// the work queue's client and inspector. It is constructed once per process
// and passed explicitly to whatever needs it.
type Store struct {
	rdb       *redis.Client
	client    *asynq.Client
	inspector *asynq.Inspector
	ttl       time.Duration
}

func NewStore(rdb *redis.Client, redisOpt asynq.RedisClientOpt, ttl time.Duration) *Store {
	return &Store{
		rdb:       rdb,
		client:    asynq.NewClient(redisOpt),
		inspector: asynq.NewInspector(redisOpt),
		ttl:       ttl,
	}
}

// Close releases the queue client and inspector connections.
func (s *Store) Close() error {
	if err := s.client.Close(); err != nil {
		return err
	}
	return s.inspector.Close()
}

// RecordTTL returns the configured record expiration window.
func (s *Store) RecordTTL() time.Duration {
	return s.ttl
}

// Enqueue submits a unit of work to the queue.
func (s *Store) Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	return s.client.EnqueueContext(ctx, task, opts...)
}

// PutRecord persists an ingest record under its job id with the fixed TTL.
// The envelope is JSON, gzip-compressed; embeddings dominate its size.
func (s *Store) PutRecord(ctx context.Context, jobID string, record *models.IngestRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal ingest record: %w", err)
	}

	compressed, err := utils.CompressData(data, utils.CompressionGzip)
	if err != nil {
		return fmt.Errorf("failed to compress ingest record: %w", err)
	}

	if err := s.rdb.Set(ctx, recordKeyPrefix+jobID, compressed, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store ingest record: %w", err)
	}
	return nil
}

// GetRecord loads the ingest record for a job id, returning ErrRecordNotFound
// when it is absent or expired.
func (s *Store) GetRecord(ctx context.Context, jobID string) (*models.IngestRecord, error) {
	compressed, err := s.rdb.Get(ctx, recordKeyPrefix+jobID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to read ingest record: %w", err)
	}

	data, err := utils.DecompressData(compressed, utils.CompressionGzip)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress ingest record: %w", err)
	}

	var record models.IngestRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ingest record: %w", err)
	}
	return &record, nil
}

// HasRecord reports whether a live record exists for the job id.
func (s *Store) HasRecord(ctx context.Context, jobID string) bool {
	n, err := s.rdb.Exists(ctx, recordKeyPrefix+jobID).Result()
	return err == nil && n > 0
}

// FetchStatus derives the caller-visible status of a job. A persisted record
// is the authoritative success signal and takes precedence over whatever the
// queue remembers; after that the queue's bookkeeping on the given queue name
// decides, and a job unknown to both is not_found.
func (s *Store) FetchStatus(ctx context.Context, queueName, jobID string) models.JobStatus {
	if s.HasRecord(ctx, jobID) {
		return models.StatusCompleted
	}

	info, err := s.inspector.GetTaskInfo(queueName, jobID)
	if err != nil {
		return models.StatusNotFound
	}

	switch info.State {
	case asynq.TaskStatePending, asynq.TaskStateScheduled, asynq.TaskStateRetry, asynq.TaskStateAggregating:
		return models.StatusQueued
	case asynq.TaskStateActive:
		return models.StatusStarted
	case asynq.TaskStateCompleted:
		return models.StatusFinished
	case asynq.TaskStateArchived:
		return models.StatusFailed
	default:
		return models.StatusNotFound
	}
}

// WaitResult blocks until the identified task completes and returns its
// result payload. The context deadline bounds the wait; expiry is a defined
// failure, never "still processing". A task that lands in the archive failed
// without writing a result.
func (s *Store) WaitResult(ctx context.Context, queueName, taskID string) ([]byte, error) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		info, err := s.inspector.GetTaskInfo(queueName, taskID)
		if err != nil {
			return nil, fmt.Errorf("failed to inspect task %s: %w", taskID, err)
		}

		switch info.State {
		case asynq.TaskStateCompleted:
			return info.Result, nil
		case asynq.TaskStateArchived:
			return nil, fmt.Errorf("task %s failed: %s", taskID, info.LastErr)
		}

		select {
		case <-ctx.Done():
			return nil, ErrResultTimeout
		case <-ticker.C:
		}
	}
}
