package models

import (
	"context"
	"os"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicModel implements Model using Anthropic's Messages API.
type AnthropicModel struct {
	Client *anthropic.Client
	Params Params
}

// NewAnthropicModel constructs a client. It reads ANTHROPIC_API_KEY from the env.
func NewAnthropicModel(params Params) *AnthropicModel {
	key := os.Getenv("ANTHROPIC_API_KEY")
	cl := anthropic.NewClient(
		anthropicopt.WithAPIKey(key),
	)
	if params.Model == "" {
		params.Model = "claude-3-5-sonnet-latest"
	}
	if params.MaxTokens <= 0 {
		params.MaxTokens = 1024
	}
	return &AnthropicModel{Client: &cl, Params: params}
}

// Generate performs a single-turn completion and returns concatenated text.
func (a *AnthropicModel) Generate(ctx context.Context, prompt string) (string, error) {
	msg, err := a.Client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.Params.Model),
		MaxTokens: int64(a.Params.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, cb := range msg.Content {
		if tb, ok := cb.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(tb.Text)
		}
	}
	return b.String(), nil
}

func (a *AnthropicModel) Name() string { return a.Params.Model }

var _ Model = (*AnthropicModel)(nil)
