package main

import (
	"context"
	"log"

	"pdf-rag-service/internal/ai"
	"pdf-rag-service/internal/config"
	"pdf-rag-service/internal/logger"
	"pdf-rag-service/internal/queue"
	"pdf-rag-service/internal/store"
	"pdf-rag-service/internal/telemetry"
	"pdf-rag-service/services"

	"github.com/hibiken/asynq"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	// Connect to Redis
	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer("pdf-rag-worker", cfg.OTLPEndpoint)
		if err != nil {
			log.Fatal("Failed to initialize tracer:", err)
		}
		defer shutdown()
	}

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Fatal("Failed to initialize metrics:", err)
	}

	redisOpt := config.AsynqRedisOpt(cfg)

	st := store.NewStore(rdb, redisOpt, cfg.ResultTTL)
	defer st.Close()

	// Answer synthesis client shared by answer tasks in this process
	answerer, err := ai.NewAnswerClient(cfg.GeminiAPIKey, cfg.GenerationModel)
	if err != nil {
		log.Fatal("Failed to initialize answer client:", err)
	}
	defer answerer.Close()

	// Sweep leftover uploads whose jobs are long done or dead
	cleanup := services.NewCleanupService(cfg.UploadDir, cfg.ResultTTL)
	cleanup.Start()
	defer cleanup.Stop()

	// Create Asynq server
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
			Queues: map[string]int{
				queue.QueueIngest:  6,
				queue.QueueAnswers: 4,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("Task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	// Create task processor
	processor := queue.NewTaskProcessor(cfg, st, answerer, metrics)

	// Create mux and register handlers
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskIngestPDF, processor.HandleIngestPDF)
	mux.HandleFunc(queue.TaskAnswerQuestion, processor.HandleAnswerQuestion)

	logger.Info("Starting worker",
		"concurrency", cfg.WorkerConcurrency,
		"queues", "ingest(6), answers(4)",
		"redis", cfg.RedisURL)

	// Start the server
	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
