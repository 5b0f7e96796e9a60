package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultAnthropicModel = "claude-sonnet-4-5"
	defaultMaxTokens      = 4096
)

// AnthropicConfig holds driver configuration. BaseURL is optional and mainly
// useful for pointing tests at a mock server.
type AnthropicConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// AnthropicDriver generates insights through the Anthropic Messages API.
type AnthropicDriver struct {
	client anthropicsdk.Client
	model  string
}

// NewAnthropicDriver builds the driver. The API key is required.
func NewAnthropicDriver(cfg AnthropicConfig) (*AnthropicDriver, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("anthropic api key is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultAnthropicModel
	}

	return &AnthropicDriver{
		client: anthropicsdk.NewClient(opts...),
		model:  model,
	}, nil
}

// Model returns the configured model id.
func (d *AnthropicDriver) Model() string {
	if d == nil {
		return ""
	}
	return d.model
}

// Complete performs one non-streaming generation call and concatenates the
// text blocks of the response.
func (d *AnthropicDriver) Complete(ctx context.Context, req Request) (string, error) {
	if d == nil {
		return "", errors.New("anthropic driver is not configured")
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(d.model),
		MaxTokens: maxTokens,
		Messages: []anthropicsdk.MessageParam{
			anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropicsdk.TextBlockParam{{Text: req.System}}
	}

	message, err := d.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic completion: %w", err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("anthropic completion: empty response")
	}
	return sb.String(), nil
}
