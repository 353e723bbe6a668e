package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type OpenRouterProvider struct {
	BaseURL string
	APIKey  string
	Model   string
	SiteURL string
	AppName string
	Persona *Persona
	Client  *http.Client
}

// openRouterMsg.Content is either a string or a list of content parts.
type openRouterMsg struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type openRouterPart struct {
	Type     string              `json:"type"`
	Text     string              `json:"text,omitempty"`
	ImageURL *openRouterImageURL `json:"image_url,omitempty"`
}

type openRouterImageURL struct {
	URL string `json:"url"`
}

type openRouterChatReq struct {
	Model    string          `json:"model"`
	Messages []openRouterMsg `json:"messages"`
	Stream   bool            `json:"stream"`
}

type openRouterChatResp struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewOpenRouterProvider(baseURL, apiKey, model, siteURL, appName string) *OpenRouterProvider {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	return &OpenRouterProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		SiteURL: siteURL,
		AppName: appName,
		Client:  &http.Client{Timeout: 90 * time.Second},
	}
}

func (p *OpenRouterProvider) Converse(ctx context.Context, req Request) (string, error) {
	if p.Client == nil {
		return "", &Error{Kind: KindUnknown, Message: "openrouter: http client is nil"}
	}
	if strings.TrimSpace(p.APIKey) == "" {
		return "", configError("openrouter", "api key is required")
	}
	model := strings.TrimSpace(p.Model)
	if model == "" {
		return "", &Error{Kind: KindUnknown, Message: "openrouter: model is required"}
	}

	msgs := make([]openRouterMsg, 0, len(req.History)+2)
	msgs = append(msgs, openRouterMsg{Role: "system", Content: p.Persona.Instruction(req.Mode)})
	for _, m := range req.History {
		msgs = append(msgs, openRouterMsg{Role: chatRole(m.Role), Content: m.Content})
	}
	if req.Image != "" {
		if _, _, err := splitDataURI(req.Image); err != nil {
			return "", err
		}
		msgs = append(msgs, openRouterMsg{Role: "user", Content: []openRouterPart{
			{Type: "text", Text: req.Input},
			{Type: "image_url", ImageURL: &openRouterImageURL{URL: req.Image}},
		}})
	} else {
		msgs = append(msgs, openRouterMsg{Role: "user", Content: req.Input})
	}

	b, err := json.Marshal(openRouterChatReq{Model: model, Messages: msgs, Stream: false})
	if err != nil {
		return "", &Error{Kind: KindUnknown, Message: err.Error(), Err: err}
	}

	url := fmt.Sprintf("%s/chat/completions", strings.TrimRight(p.BaseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", &Error{Kind: KindUnknown, Message: err.Error(), Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.APIKey)
	if p.SiteURL != "" {
		httpReq.Header.Set("HTTP-Referer", p.SiteURL)
	}
	if p.AppName != "" {
		httpReq.Header.Set("X-Title", p.AppName)
	}

	resp, err := p.Client.Do(httpReq)
	if err != nil {
		return "", networkError("openrouter", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return "", statusError("openrouter", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded openRouterChatResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &Error{Kind: KindUnknown, Message: "openrouter: malformed response", Err: err}
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return "", &Error{Kind: KindUnknown, Message: "openrouter: " + decoded.Error.Message}
	}
	if len(decoded.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return decoded.Choices[0].Message.Content, nil
}
