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

type OllamaProvider struct {
	BaseURL string
	Model   string
	Persona *Persona
	Client  *http.Client
}

func NewOllamaProvider(baseURL, model string) *OllamaProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3:latest"
	}
	return &OllamaProvider{
		BaseURL: baseURL,
		Model:   model,
		Client:  &http.Client{Timeout: 90 * time.Second},
	}
}

type ollamaChatReq struct {
	Model    string      `json:"model"`
	Messages []ollamaMsg `json:"messages"`
	Stream   bool        `json:"stream"`
}

type ollamaMsg struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"` // raw base64, no data: prefix
}

type ollamaChatResp struct {
	Message ollamaMsg `json:"message"`
	Error   string    `json:"error,omitempty"`
}

func (p *OllamaProvider) Converse(ctx context.Context, req Request) (string, error) {
	if p.Client == nil {
		return "", &Error{Kind: KindUnknown, Message: "ollama: http client is nil"}
	}

	msgs := make([]ollamaMsg, 0, len(req.History)+2)
	msgs = append(msgs, ollamaMsg{Role: "system", Content: p.Persona.Instruction(req.Mode)})
	for _, m := range req.History {
		msgs = append(msgs, ollamaMsg{Role: chatRole(m.Role), Content: m.Content})
	}
	turn := ollamaMsg{Role: "user", Content: req.Input}
	if req.Image != "" {
		_, payload, err := splitDataURI(req.Image)
		if err != nil {
			return "", err
		}
		turn.Images = []string{payload}
	}
	msgs = append(msgs, turn)

	b, err := json.Marshal(ollamaChatReq{Model: p.Model, Messages: msgs, Stream: false})
	if err != nil {
		return "", &Error{Kind: KindUnknown, Message: err.Error(), Err: err}
	}

	url := fmt.Sprintf("%s/api/chat", strings.TrimRight(p.BaseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", &Error{Kind: KindUnknown, Message: err.Error(), Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(httpReq)
	if err != nil {
		return "", networkError("ollama", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		var decoded ollamaChatResp
		msg := ""
		if json.Unmarshal(body, &decoded) == nil {
			msg = decoded.Error
		}
		return "", statusError("ollama", resp.StatusCode, msg)
	}

	var decoded ollamaChatResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &Error{Kind: KindUnknown, Message: "ollama: malformed response", Err: err}
	}
	if decoded.Error != "" {
		return "", &Error{Kind: KindUnknown, Message: "ollama: " + decoded.Error}
	}
	return decoded.Message.Content, nil
}
