package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/Victor-armando18/service-clearance/internal/infrastructure/retry"
)

// GenAI answers prompts through the Gemini API.
type GenAI struct {
	client *genai.Client
	model  string
}

// NewGenAI builds a Gemini client. baseURL is optional and only overrides the
// public endpoint.
func NewGenAI(ctx context.Context, apiKey, model, baseURL string) (*GenAI, error) {
	if apiKey == "" {
		return nil, retry.Permanent{Err: errors.New("genai api key is required")}
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GenAI{client: client, model: model}, nil
}

func (g *GenAI) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.2),
	})
	if err != nil {
		return "", fmt.Errorf("genai: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("genai: empty answer")
	}
	return text, nil
}
