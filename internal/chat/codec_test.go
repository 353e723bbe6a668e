package chat

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestEncodeRegistry_Layout(t *testing.T) {
	at := time.UnixMilli(1714550400123)
	data, err := EncodeRegistry([]Session{{
		ID: "s1", Timestamp: at, LastActive: at, Difficulty: DifficultyWhiteRoom, Preview: "hi",
		Messages: []Message{{ID: "m1", Role: RoleUser, Content: "hi", Timestamp: at, HasAnimated: true}},
	}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if raw["version"] != float64(RecordVersion) {
		t.Fatalf("missing version: %s", data)
	}
	for _, key := range []string{`"lastActive":1714550400123`, `"hasAnimated":true`, `"difficulty":"WHITE_ROOM"`} {
		if !strings.Contains(string(data), key) {
			t.Fatalf("expected %s in %s", key, data)
		}
	}
}

func TestDecodeRegistry_LegacyArray(t *testing.T) {
	legacy := `[{"id":"s1","timestamp":1000,"lastActive":2000,"difficulty":"BEGINNER","preview":"New Session",
		"messages":[{"id":"m1","role":"model","content":"welcome","timestamp":1000}]}]`

	sessions, err := DecodeRegistry([]byte(legacy))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Difficulty != DifficultyBeginner {
		t.Fatalf("unexpected sessions: %+v", sessions)
	}
	if !sessions[0].LastActive.Equal(time.UnixMilli(2000)) {
		t.Fatalf("unexpected lastActive: %v", sessions[0].LastActive)
	}
	// missing hasAnimated means not yet revealed
	if sessions[0].Messages[0].HasAnimated {
		t.Fatalf("absent hasAnimated must decode as false")
	}
}

func TestDecodeRegistry_Errors(t *testing.T) {
	cases := map[string]string{
		"empty":          "   ",
		"garbage":        "{oops",
		"future version": `{"version":99,"sessions":[]}`,
		"missing id":     `{"version":1,"sessions":[{"difficulty":"STANDARD"}]}`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeRegistry([]byte(in)); err == nil {
				t.Fatalf("expected error for %q", in)
			}
		})
	}

	_, err := DecodeRegistry([]byte(`{"version":2,"sessions":[]}`))
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestRegistryRecord_PreservesOrderAndFlags(t *testing.T) {
	base := time.UnixMilli(1700000000000)
	in := []Session{
		{ID: "b", Timestamp: base, LastActive: base.Add(time.Minute), Difficulty: DifficultyStandard,
			Messages: []Message{{ID: "m", Role: RoleModel, Content: "x", Timestamp: base, HasAnimated: false}}},
		{ID: "a", Timestamp: base, LastActive: base, Difficulty: DifficultyBeginner},
	}
	data, err := EncodeRegistry(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeRegistry(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 2 || out[0].ID != "b" || out[1].ID != "a" {
		t.Fatalf("order not preserved: %+v", out)
	}
	if out[0].Messages[0].HasAnimated {
		t.Fatalf("unrevealed flag lost")
	}
}
