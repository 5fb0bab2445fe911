package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pavelanni/readingprep/internal/llm/prompts"

	openai "github.com/sashabaranov/go-openai"
)

// ErrNoDefinition means the model answered without a usable definition.
var ErrNoDefinition = errors.New("model returned no definition")

// Definition is a learner-facing explanation of a word.
type Definition struct {
	Word         string `json:"word"`
	PartOfSpeech string `json:"partOfSpeech"`
	Definition   string `json:"definition"`
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new LLM client.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// Define asks the model for a definition of word as it is used in
// contextSentence. contextSentence may be empty.
func (c *Client) Define(ctx context.Context, word, contextSentence string) (*Definition, error) {
	systemPrompt, err := prompts.BuildDefinePrompt(word, contextSentence)
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM API call: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "raw", raw)

	var def Definition
	if err := json.Unmarshal([]byte(raw), &def); err != nil {
		return nil, fmt.Errorf("parse LLM response: %w (raw: %s)", err, raw)
	}
	def.Definition = strings.TrimSpace(def.Definition)
	if def.Definition == "" {
		return nil, ErrNoDefinition
	}
	if def.Word == "" {
		def.Word = strings.TrimSpace(word)
	}
	return &def, nil
}
