package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

var errNoCandidates = errors.New("gemini returned no candidates")

// Gemini is a thin wrapper around the official genai client.
type Gemini struct {
	cli       *genai.Client
	model     string
	maxTokens int32
}

type GeminiConfig struct {
	APIKey    string
	Model     string
	MaxTokens int32
	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string
}

func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	cli, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Gemini{cli: cli, model: cfg.Model, maxTokens: cfg.MaxTokens}, nil
}

func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	var gc *genai.GenerateContentConfig
	if g.maxTokens > 0 {
		gc = &genai.GenerateContentConfig{MaxOutputTokens: g.maxTokens}
	}

	resp, err := g.cli.Models.GenerateContent(ctx, g.model, genai.Text(prompt), gc)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errNoCandidates
	}
	return resp.Text(), nil
}
