package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
)

type AnthropicProvider struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	Persona   *Persona
}

func NewAnthropicProvider(apiKey, model string) *AnthropicProvider {
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	return &AnthropicProvider{
		client:    anthropic.NewClient(anthropicoption.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: 4096,
	}
}

func (p *AnthropicProvider) Converse(ctx context.Context, req Request) (string, error) {
	msgs := make([]anthropic.MessageParam, 0, len(req.History)+1)
	for _, m := range req.History {
		// The messages API requires the conversation to open with a user turn,
		// so the synthetic welcome is left out.
		if len(msgs) == 0 && m.Role == RoleModel {
			continue
		}
		if m.Role == RoleModel {
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		} else {
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	blocks := []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(req.Input)}
	if req.Image != "" {
		mime, payload, err := splitDataURI(req.Image)
		if err != nil {
			return "", err
		}
		blocks = append(blocks, anthropic.NewImageBlockBase64(mime, payload))
	}
	msgs = append(msgs, anthropic.NewUserMessage(blocks...))

	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: p.Persona.Instruction(req.Mode)}},
		Messages:  msgs,
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", statusError("anthropic", apiErr.StatusCode, "")
		}
		return "", networkError("anthropic", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}
