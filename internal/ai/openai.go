package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider talks to any OpenAI-compatible chat completions endpoint.
type OpenAIProvider struct {
	client  openai.Client
	model   string
	Persona *Persona
}

func NewOpenAIProvider(apiKey, baseURL, model string) *OpenAIProvider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (p *OpenAIProvider) Converse(ctx context.Context, req Request) (string, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+2)
	msgs = append(msgs, openai.SystemMessage(p.Persona.Instruction(req.Mode)))
	for _, m := range req.History {
		if m.Role == RoleModel {
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		} else {
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	if req.Image != "" {
		if _, _, err := splitDataURI(req.Image); err != nil {
			return "", err
		}
		parts := []openai.ChatCompletionContentPartUnionParam{
			openai.TextContentPart(req.Input),
			openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: req.Image}),
		}
		msgs = append(msgs, openai.ChatCompletionMessageParamUnion{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{OfArrayOfContentParts: parts},
			},
		})
	} else {
		msgs = append(msgs, openai.UserMessage(req.Input))
	}

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.model),
		Messages: msgs,
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", statusError("openai", apiErr.StatusCode, strings.TrimSpace(apiErr.Message))
		}
		return "", networkError("openai", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
