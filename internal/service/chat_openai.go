package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// DefaultOpenAIChatModel 为 OpenAI 兼容接口的默认模型。
const DefaultOpenAIChatModel = "gpt-4o-mini"

// OpenAIGenerator 通过 OpenAI 兼容的 Chat Completions 接口生成文本。
type OpenAIGenerator struct {
	client openai.Client
	model  string
}

// NewOpenAIGenerator 构造客户端，baseURL 为空时使用官方地址。
func NewOpenAIGenerator(apiKey, baseURL, model string) (*OpenAIGenerator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if base := strings.TrimSpace(baseURL); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultOpenAIChatModel
	}
	return &OpenAIGenerator{client: openai.NewClient(opts...), model: model}, nil
}

// Generate 发送 system + user 两条消息并返回第一条候选回复。
func (g *OpenAIGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if strings.TrimSpace(req.SystemPrompt) != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(req.UserPrompt))

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       g.model,
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
