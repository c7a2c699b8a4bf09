package models

import (
	"context"
	"errors"
	"os"

	"github.com/sashabaranov/go-openai"
)

type OpenAIModel struct {
	Client *openai.Client
	Params Params
}

func NewOpenAIModel(params Params) *OpenAIModel {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_KEY") // fallback
	}
	client := openai.NewClient(apiKey)
	if params.Model == "" {
		params.Model = "gpt-4o-mini"
	}
	return &OpenAIModel{Client: client, Params: params}
}

func (o *OpenAIModel) Generate(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: o.Params.Model,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		}},
	}
	if o.Params.MaxTokens > 0 {
		req.MaxTokens = o.Params.MaxTokens
	}
	if o.Params.Temperature > 0 {
		req.Temperature = float32(o.Params.Temperature)
	}
	resp, err := o.Client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAIModel) Name() string { return o.Params.Model }

var _ Model = (*OpenAIModel)(nil)
