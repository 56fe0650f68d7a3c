package routes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"pdf-rag-service/internal/config"
	"pdf-rag-service/internal/logger"
	"pdf-rag-service/internal/queue"
	"pdf-rag-service/internal/store"
	"pdf-rag-service/models"
	"pdf-rag-service/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SetupPDFRoutes registers the upload/status/ask endpoints.
func SetupPDFRoutes(router *gin.Engine, cfg *config.Config, st *store.Store) {
	router.POST("/upload", HandleUploadPDF(cfg, st))
	router.GET("/status/:job_id", HandlePDFStatus(st))
	router.POST("/ask", HandleAskQuestion(cfg, st))
}

// HandleUploadPDF accepts a PDF, saves it for the worker, and enqueues an
// ingestion job. The caller gets a job id immediately and polls /status.
func HandleUploadPDF(cfg *config.Config, st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := c.Request.ParseMultipartForm(cfg.MaxFileSize); err != nil {
			utils.RespondWithError(c, http.StatusRequestEntityTooLarge, "file_too_large",
				"File size exceeds maximum limit", gin.H{"max_size": cfg.MaxFileSize})
			return
		}

		file, header, err := c.Request.FormFile("file")
		if err != nil {
			utils.RespondWithBadRequest(c, "No PDF file provided", nil)
			return
		}
		defer file.Close()

		// Validate file type
		if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
			utils.RespondWithError(c, http.StatusBadRequest, "invalid_file_type",
				"Please upload a PDF file", nil)
			return
		}

		if header.Size > cfg.MaxFileSize {
			utils.RespondWithError(c, http.StatusRequestEntityTooLarge, "file_too_large",
				"File too large. Maximum size is 16MB", gin.H{"max_size": cfg.MaxFileSize})
			return
		}

		// Basic PDF header validation without loading whole file
		headerBuf := make([]byte, 5)
		if _, err := io.ReadFull(file, headerBuf); err != nil {
			utils.RespondWithBadRequest(c, "Cannot read file header", nil)
			return
		}
		if string(headerBuf[:4]) != "%PDF" {
			utils.RespondWithError(c, http.StatusBadRequest, "invalid_pdf",
				"File does not appear to be a valid PDF", nil)
			return
		}
		// Reset reader to start for streaming copy
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			utils.RespondWithInternalError(c, "Failed to reset file for saving", nil)
			return
		}

		if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
			utils.RespondWithInternalError(c, "Failed to create upload directory", nil)
			return
		}

		jobID := uuid.NewString()
		filePath := filepath.Join(cfg.UploadDir, fmt.Sprintf("%s.pdf", jobID))

		dst, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to open destination", nil)
			return
		}
		defer dst.Close()
		if _, err := io.Copy(dst, io.LimitReader(file, cfg.MaxFileSize)); err != nil {
			utils.RespondWithInternalError(c, "Failed to save file", nil)
			return
		}

		task, err := queue.NewIngestTask(jobID, filePath, header.Filename, st.RecordTTL())
		if err != nil {
			os.Remove(filePath)
			utils.RespondWithInternalError(c, "Failed to create processing task", nil)
			return
		}

		if _, err := st.Enqueue(c.Request.Context(), task); err != nil {
			os.Remove(filePath)
			utils.RespondWithInternalError(c, "Failed to enqueue processing task", nil)
			return
		}

		logger.Info("PDF upload accepted", "job_id", jobID, "filename", header.Filename, "size", header.Size)

		c.JSON(http.StatusAccepted, gin.H{
			"success": true,
			"message": "PDF upload successful, processing started",
			"job_id":  jobID,
		})
	}
}

// HandlePDFStatus reports the processing status of an ingestion job.
func HandlePDFStatus(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := c.Param("job_id")

		status := st.FetchStatus(c.Request.Context(), queue.QueueIngest, jobID)
		c.JSON(http.StatusOK, gin.H{"status": status})
	}
}

// HandleAskQuestion enqueues an answer job and blocks until its result is
// ready or the ask timeout expires. Expiry is a failure, not "still
// processing".
func HandleAskQuestion(cfg *config.Config, st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.AskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Question and job_id are required", gin.H{"error": err.Error()})
			return
		}

		taskID := uuid.NewString()
		task, err := queue.NewAnswerTask(taskID, req.JobID, req.Question, cfg.AskTimeout)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to create answer task", nil)
			return
		}

		if _, err := st.Enqueue(c.Request.Context(), task); err != nil {
			utils.RespondWithInternalError(c, "Failed to enqueue answer task", nil)
			return
		}

		waitCtx, cancel := context.WithTimeout(c.Request.Context(), cfg.AskTimeout)
		defer cancel()

		data, err := st.WaitResult(waitCtx, queue.QueueAnswers, taskID)
		if err != nil {
			if errors.Is(err, store.ErrResultTimeout) {
				utils.RespondWithTimeout(c, "Timed out waiting for answer")
				return
			}
			utils.RespondWithInternalError(c, "Failed to get answer", gin.H{"error": err.Error()})
			return
		}

		var result models.AnswerResult
		if err := json.Unmarshal(data, &result); err != nil {
			utils.RespondWithInternalError(c, "Failed to decode answer result", nil)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}
