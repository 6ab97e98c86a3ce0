package llm

import (
	"context"
	"errors"
	"strings"

	anthropic "github.com/liushuangls/go-anthropic/v2"
)

var errEmptyResponse = errors.New("empty response")

type anthropicProvider struct {
	client *anthropic.Client
	model  string
}

func newAnthropic(apiKey, model string) *anthropicProvider {
	if model == "" {
		model = string(anthropic.ModelClaude3Dot5SonnetLatest)
	}
	return &anthropicProvider{
		client: anthropic.NewClient(apiKey),
		model:  model,
	}
}

func (p *anthropicProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := p.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(p.model),
		System:    systemPrompt,
		MaxTokens: 1024,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(userPrompt),
		},
	})
	if err != nil {
		return "", providerError("anthropic", err)
	}
	answer := strings.TrimSpace(resp.GetFirstContentText())
	if answer == "" {
		return "", providerError("anthropic", errEmptyResponse)
	}
	return answer, nil
}
