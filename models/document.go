package models

// Chunk is a contiguous, page-attributed slice of document text sized for
// embedding and retrieval. ChunkID values are dense and strictly increasing
// in creation order within a document.
type Chunk struct {
	Text    string `json:"text"`
	Page    int    `json:"page"`
	ChunkID int    `json:"chunk_id"`
}

// IngestRecord is the persisted envelope for one processed document. It is
// written once by the ingest worker and read concurrently by answer workers;
// Embeddings[i] always corresponds to Chunks[i].
type IngestRecord struct {
	Chunks     []Chunk     `json:"chunks"`
	Embeddings [][]float32 `json:"embeddings"`
	PDFName    string      `json:"pdf_name"`
}

// JobStatus is the caller-visible state of an ingestion job. A persisted
// IngestRecord takes precedence over the queue's bookkeeping: once the record
// exists the job is StatusCompleted regardless of what the queue remembers.
type JobStatus string

const (
	StatusCompleted JobStatus = "completed"
	StatusQueued    JobStatus = "queued"
	StatusStarted   JobStatus = "started"
	StatusFinished  JobStatus = "finished"
	StatusFailed    JobStatus = "failed"
	StatusNotFound  JobStatus = "not_found"
)

// IngestResult is the result payload an ingest task writes back to the queue.
type IngestResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
	Error         string `json:"error,omitempty"`
	ChunksCreated int    `json:"chunks_created,omitempty"`
	JobID         string `json:"job_id,omitempty"`
}

// AnswerResult is the result payload an answer task writes back to the queue
// and the /ask endpoint returns to the caller. Degraded is set when the
// synthesis collaborator failed and Answer carries an inline error string.
type AnswerResult struct {
	Success  bool   `json:"success"`
	Answer   string `json:"answer,omitempty"`
	Context  string `json:"context,omitempty"`
	Pages    []int  `json:"pages,omitempty"`
	Error    string `json:"error,omitempty"`
	Degraded bool   `json:"degraded,omitempty"`
}

// AskRequest is the body of POST /ask. Both fields are required.
type AskRequest struct {
	Question string `json:"question" binding:"required"`
	JobID    string `json:"job_id" binding:"required"`
}
