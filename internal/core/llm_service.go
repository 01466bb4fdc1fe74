package core

import (
	"context"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
	"thoughtsort/internal/config"
)

const generationModelName = "gemini-2.5-flash"

// Generation parameters per pipeline path.
var (
	SortGenerateOptions       = GenerateOptions{Temperature: 0.3, MaxOutputTokens: 8192, JSONOutput: true}
	AnnotateGenerateOptions   = GenerateOptions{Temperature: 0.2, MaxOutputTokens: 256, JSONOutput: true}
	AmalgamateGenerateOptions = GenerateOptions{Temperature: 0.4, MaxOutputTokens: 1024}
)

type GenerateOptions struct {
	Temperature     float32
	MaxOutputTokens int32
	JSONOutput      bool // Ask the provider for an application/json response
}

// Generator is the model invoker contract the services depend on, so tests
// can substitute a stub for the real Gemini client.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

type LLMService struct {
	client *genai.Client
}

func NewLLMService() *LLMService {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(config.AppConfig.GeminiAPIKey))
	if err != nil {
		log.Fatalf("Failed to create GenAI client: %v", err)
	}

	return &LLMService{
		client: client,
	}
}

func (s *LLMService) Close() {
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			log.Printf("Error closing GenAI client: %v", err)
		} else {
			log.Println("GenAI client closed.")
		}
	}
}

// Generate makes exactly one call to the generation service and returns the
// raw text unmodified. It never retries and never interprets the payload;
// shape validation is the parser's job.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	model := s.client.GenerativeModel(generationModelName)

	temperature := opts.Temperature
	maxTokens := opts.MaxOutputTokens
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:     &temperature,
		MaxOutputTokens: &maxTokens,
	}
	if opts.JSONOutput {
		model.GenerationConfig.ResponseMIMEType = "application/json"
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", &ModelError{Cause: err}
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", &ModelError{Cause: errEmptyResponse}
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		} else {
			log.Printf("Gemini response part was not text: %T", part)
		}
	}

	if responseText.Len() == 0 {
		return "", &ModelError{Cause: errEmptyResponse}
	}

	return strings.TrimSpace(responseText.String()), nil
}
