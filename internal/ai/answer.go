package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"

	"pdf-rag-service/internal/logger"
)

// ChatMessage is one role-tagged message sent to the synthesis collaborator.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const answerSystemPrompt = "You are a helpful AI assistant that answers questions about PDF documents. " +
	"Use the provided context to answer questions accurately and concisely."

// BuildAnswerMessages assembles the fixed two-message template for answer
// synthesis: a system instruction and a user message embedding the document
// name, the retrieved context, and the literal question.
func BuildAnswerMessages(pdfName, context, question string) []ChatMessage {
	return []ChatMessage{
		{
			Role:    "system",
			Content: answerSystemPrompt,
		},
		{
			Role: "user",
			Content: fmt.Sprintf("Context from PDF '%s':\n\n%s\n\nQuestion: %s\n\nAnswer based on the context above:",
				pdfName, context, question),
		},
	}
}

// AnswerClient wraps the Gemini generation API with a circuit breaker and a
// client-side rate limit. Synthesis failures never propagate: the caller gets
// an inline error string and a degraded flag instead.
type AnswerClient struct {
	client      *genai.Client
	model       string
	breaker     *gobreaker.CircuitBreaker
	rateLimiter *rate.Limiter
}

func NewAnswerClient(apiKey, model string) (*AnswerClient, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "AnswerSynthesis",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	// Free-tier RPM with some buffer
	rateLimiter := rate.NewLimiter(rate.Limit(10*0.9/60.0), 1)

	return &AnswerClient{
		client:      client,
		model:       model,
		breaker:     breaker,
		rateLimiter: rateLimiter,
	}, nil
}

// Answer sends the messages to the generation model and returns the generated
// text. On any failure the returned string is a descriptive error and degraded
// is true; the request itself still counts as a success at the application
// level.
func (ac *AnswerClient) Answer(ctx context.Context, messages []ChatMessage) (answer string, degraded bool) {
	tracer := otel.Tracer("answer-client")
	ctx, span := tracer.Start(ctx, "answer.generate")
	defer span.End()

	span.SetAttributes(
		attribute.String("answer.model", ac.model),
		attribute.Int("answer.messages", len(messages)),
	)

	if err := ac.rateLimiter.Wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("answer.rate_limited", true))
		return fmt.Sprintf("API Error: %v", err), true
	}

	result, err := ac.breaker.Execute(func() (interface{}, error) {
		model := ac.client.GenerativeModel(ac.model)
		model.SetTemperature(0.3)
		model.SetMaxOutputTokens(1500)

		var prompt string
		for _, msg := range messages {
			switch msg.Role {
			case "system":
				model.SystemInstruction = &genai.Content{
					Parts: []genai.Part{genai.Text(msg.Content)},
				}
			default:
				if prompt != "" {
					prompt += "\n\n"
				}
				prompt += msg.Content
			}
		}

		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return nil, err
		}
		text := extractTextFromResponse(resp)
		if text == "" {
			return nil, fmt.Errorf("empty response from model")
		}
		return text, nil
	})
	if err != nil {
		span.SetAttributes(
			attribute.Bool("answer.degraded", true),
			attribute.String("answer.error", err.Error()),
		)
		return fmt.Sprintf("API Error: %v", err), true
	}

	span.SetAttributes(attribute.Bool("answer.success", true))
	return result.(string), false
}

// Close the underlying client
func (ac *AnswerClient) Close() error {
	if ac.client != nil {
		return ac.client.Close()
	}
	return nil
}

func extractTextFromResponse(resp *genai.GenerateContentResponse) string {
	text := ""
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				text += string(t)
			}
		}
	}
	return text
}
