package usecase

import (
	"sync"
	"time"

	coachdomain "mindbody-backend/internal/coach/domain"
)

// conversationMemory keeps the last messages of each user's conversation in RAM.
type conversationMemory struct {
	mu       sync.Mutex
	size     int
	messages map[string][]coachdomain.Message
}

func newConversationMemory(size int) *conversationMemory {
	return &conversationMemory{size: size, messages: make(map[string][]coachdomain.Message)}
}

func (m *conversationMemory) add(user, role, content string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := append(m.messages[user], coachdomain.Message{Role: role, Content: content, At: at})
	if len(msgs) > m.size {
		msgs = append([]coachdomain.Message(nil), msgs[len(msgs)-m.size:]...)
	}
	m.messages[user] = msgs
}

func (m *conversationMemory) recent(user string) []coachdomain.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]coachdomain.Message(nil), m.messages[user]...)
}

func (m *conversationMemory) clear(user string) {
	m.mu.Lock()
	delete(m.messages, user)
	m.mu.Unlock()
}
