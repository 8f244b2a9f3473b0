// Package featureflags switches optional forum features on, off or for a
// percentage of users.
package featureflags

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// Known flags.
const (
	// TopicFeed serves the live websocket feed of a topic.
	TopicFeed = "topic_feed"
	// Registration accepts new accounts.
	Registration = "registration"
)

// Manager evaluates flags parsed from a "name=value" list such as
// "topic_feed=on,registration=off". Values are on/off/true/false/1/0 or "N%".
type Manager struct {
	// rollout percentage per flag; on is 100, off is 0
	rollout map[string]int
}

// NewManager parses raw. Malformed entries are skipped.
func NewManager(raw string) *Manager {
	m := &Manager{rollout: make(map[string]int)}

	for _, entry := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		name, value = normalize(name), normalize(value)
		if name == "" {
			continue
		}
		if pct, ok := parseValue(value); ok {
			m.rollout[name] = pct
		}
	}
	return m
}

func parseValue(value string) (int, bool) {
	switch value {
	case "on", "true", "1":
		return 100, true
	case "off", "false", "0":
		return 0, true
	}

	digits, ok := strings.CutSuffix(value, "%")
	if !ok {
		return 0, false
	}
	pct, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return min(max(pct, 0), 100), true
}

// Enabled reports whether name is on for userID. Unknown flags are off.
// Partial rollouts are stable per user and never include anonymous callers.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	pct, ok := m.rollout[normalize(name)]
	switch {
	case !ok || pct == 0:
		return false
	case pct == 100:
		return true
	case userID == 0:
		return false
	}
	return bucket(name, userID) < pct
}

// Snapshot evaluates every configured flag for userID.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(m.rollout))
	for name := range m.rollout {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func bucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name) + ":" + strconv.FormatUint(uint64(userID), 10)))
	return int(h.Sum32() % 100)
}
