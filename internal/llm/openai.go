package llm

import (
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type openAIProvider struct {
	client *openai.Client
	model  string
}

func newOpenAI(apiKey, model string) *openAIProvider {
	if model == "" {
		model = openai.GPT4TurboPreview
	}
	return &openAIProvider{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (p *openAIProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: 0.7,
		MaxTokens:   1000,
	})
	if err != nil {
		return "", providerError("openai", err)
	}
	if len(resp.Choices) == 0 {
		return "", providerError("openai", errEmptyResponse)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
