//go:build !fastembed

package embed

import "context"

// FastEmbedOptions is inert unless the binary is built with -tags fastembed.
type FastEmbedOptions struct {
	CacheDir  string
	MaxLength int
	BatchSize int
}

func NewFastEmbedder(_ context.Context, _ *FastEmbedOptions) (Embedder, error) {
	return nil, ErrNotSupported
}

func defaultFastEmbedOptions() *FastEmbedOptions { return nil }
