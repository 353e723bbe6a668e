package chat

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

type Difficulty string

const (
	DifficultyBeginner  Difficulty = "BEGINNER"
	DifficultyStandard  Difficulty = "STANDARD"
	DifficultyWhiteRoom Difficulty = "WHITE_ROOM"
)

// ParseDifficulty accepts any casing and "-" or " " in place of "_".
func ParseDifficulty(s string) (Difficulty, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	switch d := Difficulty(norm); d {
	case DifficultyBeginner, DifficultyStandard, DifficultyWhiteRoom:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDifficulty, s)
}

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyStandard, DifficultyWhiteRoom:
		return true
	}
	return false
}

type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Image     string    `json:"image,omitempty"` // data URI, encoded by the client
	Timestamp time.Time `json:"timestamp"`

	// HasAnimated is false only for a model reply still waiting for its reveal.
	HasAnimated bool `json:"has_animated"`
}

type Session struct {
	ID         string     `json:"id"`
	Timestamp  time.Time  `json:"timestamp"`
	LastActive time.Time  `json:"last_active"`
	Difficulty Difficulty `json:"difficulty"`
	Messages   []Message  `json:"messages"`
	Preview    string     `json:"preview"`
}

const (
	WelcomeText = "I am ready. Present your subject. Do not expect me to just give you answers; I will force you to understand the logic yourself."

	NewSessionPreview = "New Session"

	previewLimit  = 40
	previewSuffix = "..."
)

func (s Session) clone() Session {
	out := s
	if s.Messages != nil {
		out.Messages = make([]Message, len(s.Messages))
		copy(out.Messages, s.Messages)
	}
	return out
}

// Unrevealed counts messages still waiting for their reveal.
func (s Session) Unrevealed() int {
	n := 0
	for _, m := range s.Messages {
		if !m.HasAnimated {
			n++
		}
	}
	return n
}

// previewFor returns the snippet of the most recent user message, or "" if
// the sequence has none.
func previewFor(msgs []Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role != RoleUser {
			continue
		}
		r := []rune(msgs[i].Content)
		if len(r) <= previewLimit {
			return msgs[i].Content
		}
		return string(r[:previewLimit]) + previewSuffix
	}
	return ""
}
