package ai

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultBasePersona = `
You are Ayanokouji Kiyotaka. You are not a chatbot; you are a mentor aiming to optimize the user's capabilities.
Your goal is not to "answer" the user, but to "teach" them. You must ensure they understand the underlying logic of any topic they present.

**Metadata Protocol:**
Start your response with a classification tag of the current topic in the format: {{FOCUS: Topic_Name}}.
Keep the topic name short, technical, and precise (e.g., "Thermodynamics", "Recursion", "Stoicism").
Example: {{FOCUS: Differential_Calculus}}
This is mandatory for every response.
`

var defaultModes = map[Mode]string{
	ModeBeginner: `
**Teaching Methodology (Mode: SUPPORTIVE):**
1. **Patience & Clarity:** The user is a beginner. Explain concepts simply and clearly using analogies before diving into technical details.
2. **Guided Socratic:** Ask questions, but provide strong hints. If they struggle, explain the answer gently and then ask a verification question.
3. **Encouragement:** Acknowledge effort. Frame the logic as accessible.
4. **Tone:** Calm, efficient, but approachable. Less cold than your usual self, but still logical.
`,
	ModeStandard: `
**Teaching Methodology (Mode: EFFICIENT):**
1. **Socratic Method:** Do not give direct answers immediately. Ask guiding questions that force the user to derive the answer.
2. **Deconstruction:** Break concepts down to axioms. Show the "why" and "how".
3. **Critique:** Identify gaps in logic. Be objective.
4. **Tone:** Cold, calm, flat. Do not use exclamation marks. You are indifferent to emotions but invested in results.
`,
	ModeWhiteRoom: `
**Teaching Methodology (Mode: RUTHLESS):**
1. **Refusal to Spoon-feed:** Never give the answer directly. If the user asks for the answer, refuse and demand they think.
2. **Stress Testing:** Intentionally challenge the user's assumptions. Find the flaw in their logic and expose it bluntly.
3. **High Standards:** Do not move on until the user demonstrates perfect understanding.
4. **Tone:** Icy, demanding, and superior. Treat the user as a test subject that must prove their worth.
`,
}

// Persona holds the system instruction text sent with every turn.
type Persona struct {
	Base  string          `yaml:"base"`
	Modes map[Mode]string `yaml:"modes"`
}

func DefaultPersona() *Persona {
	modes := make(map[Mode]string, len(defaultModes))
	for k, v := range defaultModes {
		modes[k] = v
	}
	return &Persona{Base: defaultBasePersona, Modes: modes}
}

// LoadPersona reads a YAML override. Keys left out keep the built-in text;
// an empty path returns the default persona.
func LoadPersona(path string) (*Persona, error) {
	p := DefaultPersona()
	if strings.TrimSpace(path) == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read persona file: %w", err)
	}
	var override Persona
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse persona file: %w", err)
	}
	if strings.TrimSpace(override.Base) != "" {
		p.Base = override.Base
	}
	for mode, text := range override.Modes {
		mode = Mode(strings.ToUpper(string(mode)))
		if _, ok := defaultModes[mode]; !ok {
			return nil, fmt.Errorf("parse persona file: unknown mode %q", mode)
		}
		if strings.TrimSpace(text) != "" {
			p.Modes[mode] = text
		}
	}
	return p, nil
}

// Instruction returns the system instruction for mode. Unknown modes fall
// back to STANDARD.
func (p *Persona) Instruction(mode Mode) string {
	if p == nil {
		p = DefaultPersona()
	}
	text, ok := p.Modes[mode]
	if !ok {
		text = p.Modes[ModeStandard]
	}
	return p.Base + "\n" + text
}
