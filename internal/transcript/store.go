package transcript

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Role identifies the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one conversation entry. Turns are immutable once created and are
// never removed or reordered.
type Turn struct {
	ID        string
	Role      Role
	Content   string
	CreatedAt time.Time
}

// NewTurn creates a turn with a fresh ULID. ULIDs sort by creation time, so
// the id order matches the append order.
func NewTurn(role Role, content string) Turn {
	return Turn{
		ID:        ulid.Make().String(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// Store is the ordered, append-only conversation log. The session controller
// is the only writer; the rendering layer reads snapshots concurrently.
type Store struct {
	mu    sync.RWMutex
	turns []Turn
}

func NewStore() *Store { return &Store{} }

// Append adds a turn to the end of the log. Roles and content are trusted;
// duplicate ids are a caller bug.
func (s *Store) Append(t Turn) {
	s.mu.Lock()
	s.turns = append(s.turns, t)
	s.mu.Unlock()
}

// Snapshot returns a copy of the full ordered sequence.
func (s *Store) Snapshot() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Last returns the most recent turn, if any.
func (s *Store) Last() (Turn, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.turns) == 0 {
		return Turn{}, false
	}
	return s.turns[len(s.turns)-1], true
}

// Len reports the number of turns.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}
