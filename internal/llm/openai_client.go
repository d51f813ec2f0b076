// ABOUTME: OpenAI client for embeddings and grounded answer generation
// ABOUTME: Uses text-embedding-3-small for embeddings, gpt-4o-mini for answers (configurable)
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/harper/docqa/internal/util"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultChatModel is the default model for chat completions
	DefaultChatModel = "gpt-4o-mini"
	// DefaultEmbeddingModel is the default model for embeddings
	DefaultEmbeddingModel = string(openai.SmallEmbedding3)
)

const systemPrompt = `You are a document assistant. Answer questions using ONLY the numbered sources in the provided context.

Rules:
1. If the context does not contain the answer, say so plainly.
2. Do not ask clarifying questions.
3. Be specific and include details from the sources, citing them as [Source N].
4. Answer in the same language as the question.`

// ClientConfig holds configuration for the OpenAI client
type ClientConfig struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel string
	MaxRetries     int
	RetryDelay     time.Duration
	Temperature    float32
	MaxTokens      int
}

// DefaultConfig returns the default client configuration
func DefaultConfig(apiKey string) *ClientConfig {
	return &ClientConfig{
		APIKey:         apiKey,
		ChatModel:      DefaultChatModel,
		EmbeddingModel: DefaultEmbeddingModel,
		MaxRetries:     3,
		RetryDelay:     time.Second * 2,
		Temperature:    0.3,
		MaxTokens:      1000,
	}
}

// OpenAIClient wraps the OpenAI API client with retry logic.
// It satisfies the embedding, batch embedding and generation gateways.
type OpenAIClient struct {
	client         *openai.Client
	chatModel      string
	embeddingModel openai.EmbeddingModel
	maxRetries     int
	retryDelay     time.Duration
	temperature    float32
	maxTokens      int
}

// NewOpenAIClient creates a new OpenAI client with the given API key using default configuration
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	return NewOpenAIClientWithConfig(DefaultConfig(apiKey))
}

// NewOpenAIClientWithConfig creates a new OpenAI client with custom configuration
func NewOpenAIClientWithConfig(config *ClientConfig) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	oc := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		oc.BaseURL = config.BaseURL
	}

	chatModel := config.ChatModel
	if chatModel == "" {
		chatModel = DefaultChatModel
	}
	embeddingModel := config.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}

	return &OpenAIClient{
		client:         openai.NewClientWithConfig(oc),
		chatModel:      chatModel,
		embeddingModel: openai.EmbeddingModel(embeddingModel),
		maxRetries:     config.MaxRetries,
		retryDelay:     config.RetryDelay,
		temperature:    config.Temperature,
		maxTokens:      config.MaxTokens,
	}, nil
}

// Embed returns the embedding vector for text
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float64, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in one request; the result is index-aligned with texts
func (c *OpenAIClient) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	var out [][]float64
	err := util.Retry(ctx, c.maxRetries, c.retryDelay, func(ctx context.Context) error {
		resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
			Input: texts,
			Model: c.embeddingModel,
		})
		if err != nil {
			return classify(err)
		}
		if len(resp.Data) != len(texts) {
			return fmt.Errorf("got %d embeddings for %d inputs", len(resp.Data), len(texts))
		}

		vecs := make([][]float64, len(texts))
		for _, d := range resp.Data {
			if d.Index < 0 || d.Index >= len(texts) || vecs[d.Index] != nil {
				return fmt.Errorf("embedding index %d out of range or repeated", d.Index)
			}
			// Convert []float32 to []float64
			vec := make([]float64, len(d.Embedding))
			for i, v := range d.Embedding {
				vec[i] = float64(v)
			}
			vecs[d.Index] = vec
		}
		out = vecs
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	return out, nil
}

// Generate answers question from the assembled source context
func (c *OpenAIClient) Generate(ctx context.Context, question, sourceContext string) (string, error) {
	userPrompt := fmt.Sprintf("Context from documents:\n\n%s\n\nQuestion: %s", sourceContext, question)

	var answer string
	err := util.Retry(ctx, c.maxRetries, c.retryDelay, func(ctx context.Context) error {
		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.chatModel,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: userPrompt,
				},
			},
			Temperature: c.temperature,
			MaxTokens:   c.maxTokens,
		})
		if err != nil {
			return classify(err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("no completion choices returned")
		}
		answer = strings.TrimSpace(resp.Choices[0].Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}
	return answer, nil
}

// classify marks client errors that retrying cannot fix
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return util.Permanent(err)
		}
	}
	return err
}
