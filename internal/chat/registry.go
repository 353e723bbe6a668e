package chat

import (
	"sort"
	"time"
)

// The functions below never modify the slice they are given. Each returns a
// fresh list so callers can swap state in one assignment.

func findSession(sessions []Session, id string) (Session, bool) {
	for _, s := range sessions {
		if s.ID == id {
			return s.clone(), true
		}
	}
	return Session{}, false
}

func cloneSessions(sessions []Session) []Session {
	out := make([]Session, len(sessions))
	for i, s := range sessions {
		out[i] = s.clone()
	}
	return out
}

func prependSession(sessions []Session, s Session) []Session {
	out := make([]Session, 0, len(sessions)+1)
	out = append(out, s.clone())
	return append(out, cloneSessions(sessions)...)
}

// finalizeSession marks every message of id as revealed. LastActive and
// Preview stay untouched.
func finalizeSession(sessions []Session, id string) []Session {
	out := cloneSessions(sessions)
	for i := range out {
		if out[i].ID != id {
			continue
		}
		for j := range out[i].Messages {
			out[i].Messages[j].HasAnimated = true
		}
	}
	return out
}

func finalizeAll(sessions []Session) []Session {
	out := cloneSessions(sessions)
	for i := range out {
		for j := range out[i].Messages {
			out[i].Messages[j].HasAnimated = true
		}
	}
	return out
}

// replaceMessages installs msgs as the full message sequence of id, then
// re-sorts the list by LastActive, newest first.
func replaceMessages(sessions []Session, id string, msgs []Message, now time.Time) ([]Session, bool) {
	out := cloneSessions(sessions)
	found := false
	for i := range out {
		if out[i].ID != id {
			continue
		}
		out[i].Messages = append([]Message(nil), msgs...)
		out[i].Preview = previewFor(msgs)
		out[i].LastActive = now
		found = true
		break
	}
	if !found {
		return sessions, false
	}
	sortByLastActive(out)
	return out, true
}

func markRevealed(sessions []Session, id, messageID string) ([]Session, bool) {
	out := cloneSessions(sessions)
	for i := range out {
		if out[i].ID != id {
			continue
		}
		for j := range out[i].Messages {
			if out[i].Messages[j].ID == messageID {
				out[i].Messages[j].HasAnimated = true
				return out, true
			}
		}
		return sessions, false
	}
	return sessions, false
}

func sortByLastActive(sessions []Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].LastActive.After(sessions[j].LastActive)
	})
}

// evictSessions keeps at most max sessions, dropping the least recently
// active ones first. Sessions for which keep reports true are never dropped,
// so the result may exceed max. max <= 0 disables eviction.
func evictSessions(sessions []Session, max int, keep func(id string) bool) ([]Session, []string) {
	if max <= 0 || len(sessions) <= max {
		return sessions, nil
	}
	ordered := cloneSessions(sessions)
	sortByLastActive(ordered)

	drop := make(map[string]bool)
	excess := len(ordered) - max
	for i := len(ordered) - 1; i >= 0 && excess > 0; i-- {
		if keep != nil && keep(ordered[i].ID) {
			continue
		}
		drop[ordered[i].ID] = true
		excess--
	}

	out := make([]Session, 0, len(sessions))
	var dropped []string
	for _, s := range sessions {
		if drop[s.ID] {
			dropped = append(dropped, s.ID)
			continue
		}
		out = append(out, s.clone())
	}
	return out, dropped
}
