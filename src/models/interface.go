package models

import (
	"context"
	"encoding/json"
	"sort"
)

// Model is a single-turn text completion provider.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
	// Name identifies the concrete model (e.g. "gpt-4o-mini") for cache keying.
	Name() string
}

// Params are generation knobs passed through opaquely to providers.
// Zero values mean "provider default".
type Params struct {
	Model       string            `json:"model,omitempty"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
	Temperature float64           `json:"temperature,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// Canonical renders the params as deterministic JSON: fixed field order,
// Extra keys sorted. Two equal Params always produce the same bytes.
func (p Params) Canonical() string {
	type kv struct {
		K string `json:"k"`
		V string `json:"v"`
	}
	extras := make([]kv, 0, len(p.Extra))
	for k, v := range p.Extra {
		extras = append(extras, kv{K: k, V: v})
	}
	sort.Slice(extras, func(i, j int) bool { return extras[i].K < extras[j].K })
	canonical := struct {
		Model       string  `json:"model"`
		MaxTokens   int     `json:"max_tokens"`
		Temperature float64 `json:"temperature"`
		Extra       []kv    `json:"extra"`
	}{p.Model, p.MaxTokens, p.Temperature, extras}
	raw, _ := json.Marshal(canonical)
	return string(raw)
}
