package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/yuchenf/nightbite/config"
)

// modelClient is the one outbound call this service makes. No retries:
// a failed call surfaces immediately.
type modelClient interface {
	Recommend(ctx context.Context, prompt string) (*ModelResult, error)
}

type DeepSeekClient struct {
	llm     *openai.LLM
	timeout time.Duration
}

func NewDeepSeekClient(cfg *config.DeepSeek) (*DeepSeekClient, error) {
	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, err
	}

	return &DeepSeekClient{
		llm:     llm,
		timeout: cfg.Timeout(),
	}, nil
}

func (c *DeepSeekClient) Recommend(ctx context.Context, prompt string) (*ModelResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(RecommenderSysPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(prompt),
			},
		},
	}

	content, err := c.llm.GenerateContent(
		ctx,
		messages,
		llms.WithTemperature(0.7),
		llms.WithMaxTokens(2000),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	if content == nil || len(content.Choices) == 0 || content.Choices[0].Content == "" {
		return nil, ErrModelEmpty
	}

	return parseModelOutput(content.Choices[0].Content)
}

// stripCodeFence removes a leading ```json / ``` and trailing ``` that
// models wrap around JSON despite being told not to.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	}
	if strings.HasPrefix(s, "```") {
		s = s[3:]
	}
	if strings.HasSuffix(s, "```") {
		s = s[:len(s)-3]
	}

	return strings.TrimSpace(s)
}

func parseModelOutput(content string) (*ModelResult, error) {
	var result ModelResult
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelMalformed, err)
	}

	if result.Recommendations == nil {
		return nil, fmt.Errorf("%w: 缺少 recommendations 数组", ErrModelMalformed)
	}

	return &result, nil
}
