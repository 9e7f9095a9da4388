package questionforge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Completion is one response from the completion service, with the token
// counts needed for cost accounting.
type Completion struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// CompletionClient is the boundary to the external text-completion service.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string, temperature float32, maxTokens int) (Completion, error)
}

// OpenAIClient implements CompletionClient against the OpenAI chat API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a completion client for the given model.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// Complete issues one chat completion call and returns the text plus usage.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string, temperature float32, maxTokens int) (Completion, error) {
	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:       c.model,
			Temperature: temperature,
			MaxTokens:   maxTokens,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		},
	)
	if err != nil {
		return Completion{}, fmt.Errorf("completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Completion{}, fmt.Errorf("empty response from completion service")
	}

	return Completion{
		Text:         resp.Choices[0].Message.Content,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

// callCost prices one completion call: a linear per-million-token function
// with input and output tokens priced separately.
func callCost(cfg *Config, c Completion) float64 {
	in := float64(c.InputTokens) / 1e6 * cfg.InputCostPerMTok
	out := float64(c.OutputTokens) / 1e6 * cfg.OutputCostPerMTok
	return in + out
}

// ErrMalformedPayload marks a completion response that could not be decoded
// into a Question. It is transport-class for retry purposes.
var ErrMalformedPayload = errors.New("malformed completion payload")

// ExtractJSONObject returns the first balanced JSON object in s, skipping any
// prose or code fences the model wrapped around it.
func ExtractJSONObject(s string) (string, error) {
	s = stripCodeFences(s)

	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", fmt.Errorf("%w: no JSON object in response", ErrMalformedPayload)
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("%w: unbalanced JSON object in response", ErrMalformedPayload)
}

// stripCodeFences removes a surrounding markdown code fence, if present.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:] // drop the language tag line
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
