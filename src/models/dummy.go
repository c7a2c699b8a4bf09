package models

import (
	"context"
	"fmt"
	"strings"
)

// DummyModel is a lightweight implementation useful for local testing without API calls.
type DummyModel struct {
	Prefix string
}

func NewDummyModel(prefix string) *DummyModel {
	if strings.TrimSpace(prefix) == "" {
		prefix = "Dummy response:"
	}
	return &DummyModel{Prefix: prefix}
}

func (d *DummyModel) Generate(_ context.Context, prompt string) (string, error) {
	lines := strings.Split(prompt, "\n")
	var last string
	for i := len(lines) - 1; i >= 0; i-- {
		candidate := strings.TrimSpace(lines[i])
		if candidate != "" {
			last = candidate
			break
		}
	}
	if last == "" {
		last = "<empty prompt>"
	}
	return fmt.Sprintf("%s %s", d.Prefix, last), nil
}

func (d *DummyModel) Name() string { return "dummy" }

var _ Model = (*DummyModel)(nil)
