package agent

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Conversation is the history of one chat.
type Conversation struct {
	ID      string
	History []Message
	Updated time.Time
}

// ConversationStore keeps conversations in memory. Turns of different
// conversations may run concurrently; two turns racing on the same
// conversation keep whichever history is saved last.
type ConversationStore struct {
	mu    sync.Mutex
	convs map[string]*Conversation
	now   func() time.Time
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{convs: make(map[string]*Conversation), now: time.Now}
}

// Open returns a copy of the history for id. An empty or unknown id starts
// a new conversation with a fresh id.
func (s *ConversationStore) Open(id string) (string, []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.convs[id]; ok && id != "" {
		return c.ID, append([]Message(nil), c.History...)
	}
	if id == "" {
		id = uuid.NewString()
	}
	s.convs[id] = &Conversation{ID: id, Updated: s.now()}
	return id, nil
}

func (s *ConversationStore) Save(id string, history []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.convs[id] = &Conversation{
		ID:      id,
		History: append([]Message(nil), history...),
		Updated: s.now(),
	}
}

func (s *ConversationStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.convs, id)
}

func (s *ConversationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.convs)
}

// Expire drops conversations idle for longer than ttl and returns how many
// were removed.
func (s *ConversationStore) Expire(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-ttl)
	n := 0
	for id, c := range s.convs {
		if c.Updated.Before(cutoff) {
			delete(s.convs, id)
			n++
		}
	}
	return n
}
