package complete

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	loomerrors "github.com/davidahmann/loom/core/errors"
)

const defaultSummaryModel = anthropic.Model("claude-haiku-4-5-20251001")

// AnthropicClient implements Client over the Anthropic Messages API with a
// single blocking call per request.
type AnthropicClient struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewAnthropicClient builds a summary client. An empty model picks a small
// default; summaries do not need the session's main model.
func NewAnthropicClient(apiKey string, model string) *AnthropicClient {
	selected := defaultSummaryModel
	if model != "" {
		selected = anthropic.Model(model)
	}
	return &AnthropicClient{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  selected,
	}
}

func (c *AnthropicClient) Complete(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", loomerrors.Wrap(err, loomerrors.CategoryCancelled, "completion_cancelled", "", false)
	}
	maxTokens := int64(req.MaxOutputTokens)
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		if ctx.Err() != nil {
			return "", loomerrors.Wrap(ctx.Err(), loomerrors.CategoryCancelled, "completion_cancelled", "", false)
		}
		return "", loomerrors.Wrap(err, loomerrors.CategoryInternalFailure, "provider_error", "check provider credentials and connectivity", true)
	}

	var builder strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			builder.WriteString(block.Text)
		}
	}
	return builder.String(), nil
}
