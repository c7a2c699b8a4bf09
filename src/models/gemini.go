package models

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type GeminiModel struct {
	Client *genai.Client
	Params Params
}

func NewGeminiModel(ctx context.Context, params Params) (*GeminiModel, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(os.Getenv("GOOGLE_API_KEY")))
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	if params.Model == "" {
		params.Model = "gemini-2.0-flash"
	}
	return &GeminiModel{Client: client, Params: params}, nil
}

func (g *GeminiModel) Generate(ctx context.Context, prompt string) (string, error) {
	m := g.Client.GenerativeModel(g.Params.Model)
	if g.Params.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(g.Params.MaxTokens))
	}
	if g.Params.Temperature > 0 {
		m.SetTemperature(float32(g.Params.Temperature))
	}
	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("no response from Gemini")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String(), nil
}

func (g *GeminiModel) Name() string { return g.Params.Model }

func (g *GeminiModel) Close() error {
	if g.Client != nil {
		return g.Client.Close()
	}
	return nil
}

var _ Model = (*GeminiModel)(nil)
