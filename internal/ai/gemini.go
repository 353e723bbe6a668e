package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

type GeminiProvider struct {
	client  *genai.Client
	model   string
	Persona *Persona
}

func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, configError("gemini", "api key is required")
	}
	if model == "" {
		model = "gemini-3-flash-preview"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: model}, nil
}

func (p *GeminiProvider) Converse(ctx context.Context, req Request) (string, error) {
	contents, err := geminiContents(req)
	if err != nil {
		return "", err
	}

	thinkingBudget := int32(0)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(p.Persona.Instruction(req.Mode), genai.RoleUser),
		ThinkingConfig:    &genai.ThinkingConfig{ThinkingBudget: &thinkingBudget},
	}

	res, err := p.client.Models.GenerateContent(ctx, p.model, contents, cfg)
	if err != nil {
		return "", geminiError(err)
	}
	return res.Text(), nil
}

// geminiContents turns the history and the new turn into the request
// contents. The new turn carries the image, if any.
func geminiContents(req Request) ([]*genai.Content, error) {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, m := range req.History {
		var role genai.Role = genai.RoleUser
		if m.Role == RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	parts := []*genai.Part{genai.NewPartFromText(req.Input)}
	if req.Image != "" {
		mime, data, err := decodeDataURI(req.Image)
		if err != nil {
			return nil, err
		}
		parts = append(parts, genai.NewPartFromBytes(data, mime))
	}
	return append(contents, genai.NewContentFromParts(parts, genai.RoleUser)), nil
}

func geminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return statusError("gemini", apiErr.Code, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return statusError("gemini", apiErrPtr.Code, apiErrPtr.Message)
	}
	e := *Classify(err)
	e.Message = "gemini: " + e.Message
	return &e
}
