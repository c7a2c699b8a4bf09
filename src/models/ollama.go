package models

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"
)

type OllamaModel struct {
	Client *ollama.Client
	Params Params
}

func NewOllamaModel(params Params) (*OllamaModel, error) {
	host := os.Getenv("OLLAMA_HOST")
	if host == "" {
		host = "http://localhost:11434"
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid OLLAMA_HOST %q: %w", host, err)
	}
	httpClient := &http.Client{Timeout: 60 * time.Second}
	c := ollama.NewClient(u, httpClient)
	if params.Model == "" {
		params.Model = "llama3.2"
	}
	return &OllamaModel{Client: c, Params: params}, nil
}

func (o *OllamaModel) Generate(ctx context.Context, prompt string) (string, error) {
	var text strings.Builder

	req := &ollama.GenerateRequest{
		Model:  o.Params.Model,
		Prompt: prompt,
	}
	opts := map[string]any{}
	if o.Params.Temperature > 0 {
		opts["temperature"] = o.Params.Temperature
	}
	if o.Params.MaxTokens > 0 {
		opts["num_predict"] = o.Params.MaxTokens
	}
	if len(opts) > 0 {
		req.Options = opts
	}

	err := o.Client.Generate(ctx, req, func(resp ollama.GenerateResponse) error {
		text.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", err
	}
	return text.String(), nil
}

func (o *OllamaModel) Name() string { return o.Params.Model }

var _ Model = (*OllamaModel)(nil)
