// Package llm wraps the chat endpoint used for translation, ontology
// disambiguation, and narrative rendering. The endpoint is OpenAI-compatible
// (custom base URLs supported); sampling is pinned to a low temperature so
// repeated runs stay deterministic.
package llm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/agrosense/agrosense/pkg/agrierr"
)

// Temperature used for every call. The pipeline depends on stable output.
const Temperature = 0.2

// Client is the chat surface the pipeline consumes. A nil or failing client
// must never be fatal: every caller has a rule-based fallback.
type Client interface {
	// Chat sends a system+user prompt and returns the full response text.
	Chat(ctx context.Context, system, user string) (string, error)

	// ChatStream streams response tokens. The token channel is closed when
	// the stream ends; a single error (or nil) is delivered on errs.
	ChatStream(ctx context.Context, system, user string) (tokens <-chan string, errs <-chan error)
}

// OpenAIClient implements Client over an OpenAI-compatible HTTP endpoint.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// Config selects the endpoint.
type Config struct {
	BaseURL string
	Model   string
	APIKey  string
}

// NewOpenAIClient builds the client. The API key may be empty for local
// servers.
func NewOpenAIClient(cfg Config) *OpenAIClient {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = "not-needed" // local servers do not check it
	}
	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		base := strings.TrimSuffix(cfg.BaseURL, "/")
		if !strings.HasSuffix(base, "/v1") {
			base += "/v1"
		}
		clientCfg.BaseURL = base
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

func (c *OpenAIClient) request(system, user string) openai.ChatCompletionRequest {
	messages := []openai.ChatCompletionMessage{}
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleSystem, Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser, Content: user,
	})
	return openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: Temperature,
	}
}

// Chat implements Client.
func (c *OpenAIClient) Chat(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.request(system, user))
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", agrierr.New(agrierr.KindLLMUnavailable, "empty completion")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// ChatStream implements Client.
func (c *OpenAIClient) ChatStream(ctx context.Context, system, user string) (<-chan string, <-chan error) {
	tokens := make(chan string, 64)
	errs := make(chan error, 1)

	go func() {
		defer close(tokens)
		defer close(errs)

		stream, err := c.client.CreateChatCompletionStream(ctx, c.request(system, user))
		if err != nil {
			errs <- classify(err)
			return
		}
		defer stream.Close()

		for {
			chunk, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				errs <- classify(err)
				return
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			delta := chunk.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			select {
			case tokens <- delta:
			case <-ctx.Done():
				errs <- classify(ctx.Err())
				return
			}
		}
	}()

	return tokens, errs
}

func classify(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return agrierr.Wrap(err, agrierr.KindCancelled, "llm call cancelled")
	case errors.Is(err, context.DeadlineExceeded):
		return agrierr.Wrap(err, agrierr.KindTimeout, "llm call timed out")
	}
	slog.Warn("LLM endpoint failure", "error", err)
	return agrierr.Wrap(err, agrierr.KindLLMUnavailable, "llm endpoint failed")
}
