package chat

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// RecordVersion is written into every persisted registry. Version 0 is the
// unversioned bare-array layout produced by the browser client.
const RecordVersion = 1

var ErrUnsupportedVersion = errors.New("unsupported record version")

type record struct {
	Version  int             `json:"version"`
	Sessions []recordSession `json:"sessions"`
}

// Field names and millisecond timestamps match the browser client's layout
// so records can move between the two.
type recordSession struct {
	ID         string          `json:"id"`
	Timestamp  int64           `json:"timestamp"`
	LastActive int64           `json:"lastActive"`
	Difficulty Difficulty      `json:"difficulty"`
	Messages   []recordMessage `json:"messages"`
	Preview    string          `json:"preview"`
}

type recordMessage struct {
	ID          string `json:"id"`
	Role        Role   `json:"role"`
	Content     string `json:"content"`
	Image       string `json:"image,omitempty"`
	Timestamp   int64  `json:"timestamp"`
	HasAnimated *bool  `json:"hasAnimated,omitempty"`
}

// EncodeRegistry serializes the full ordered session list.
func EncodeRegistry(sessions []Session) ([]byte, error) {
	rec := record{Version: RecordVersion, Sessions: make([]recordSession, 0, len(sessions))}
	for _, s := range sessions {
		rs := recordSession{
			ID:         s.ID,
			Timestamp:  s.Timestamp.UnixMilli(),
			LastActive: s.LastActive.UnixMilli(),
			Difficulty: s.Difficulty,
			Preview:    s.Preview,
			Messages:   make([]recordMessage, 0, len(s.Messages)),
		}
		for _, m := range s.Messages {
			animated := m.HasAnimated
			rs.Messages = append(rs.Messages, recordMessage{
				ID:          m.ID,
				Role:        m.Role,
				Content:     m.Content,
				Image:       m.Image,
				Timestamp:   m.Timestamp.UnixMilli(),
				HasAnimated: &animated,
			})
		}
		rec.Sessions = append(rec.Sessions, rs)
	}
	return json.Marshal(rec)
}

// DecodeRegistry accepts both the versioned envelope and the legacy bare
// array. It does not attempt partial recovery: any error discards the record.
func DecodeRegistry(data []byte) ([]Session, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty record")
	}

	var rec record
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &rec.Sessions); err != nil {
			return nil, fmt.Errorf("decode legacy record: %w", err)
		}
	} else {
		if err := json.Unmarshal(trimmed, &rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		if rec.Version < 1 || rec.Version > RecordVersion {
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, rec.Version)
		}
	}

	out := make([]Session, 0, len(rec.Sessions))
	for _, rs := range rec.Sessions {
		if rs.ID == "" {
			return nil, errors.New("decode record: session without id")
		}
		s := Session{
			ID:         rs.ID,
			Timestamp:  time.UnixMilli(rs.Timestamp),
			LastActive: time.UnixMilli(rs.LastActive),
			Difficulty: rs.Difficulty,
			Preview:    rs.Preview,
			Messages:   make([]Message, 0, len(rs.Messages)),
		}
		for _, rm := range rs.Messages {
			m := Message{
				ID:        rm.ID,
				Role:      rm.Role,
				Content:   rm.Content,
				Image:     rm.Image,
				Timestamp: time.UnixMilli(rm.Timestamp),
			}
			if rm.HasAnimated != nil {
				m.HasAnimated = *rm.HasAnimated
			}
			s.Messages = append(s.Messages, m)
		}
		out = append(out, s)
	}
	return out, nil
}
