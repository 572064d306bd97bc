package session

import (
	"sync"

	"github.com/diskmesh/diskmesh/internal/network"
	"github.com/diskmesh/diskmesh/pkg/item"
)

// Session is the state of one open reader.
type Session struct {
	ReaderID string
	Reader   network.Position

	// AllStacks is the aggregated network view. Entries are edited in
	// place as the player takes items.
	AllStacks []item.Stack
	Filter    string
	Category  string
	Page      int

	// DisplayIndices are the AllStacks indices passing the filter.
	DisplayIndices []int
	// SlotToSource maps each rendered slot to its AllStacks index, or -1.
	SlotToSource []int
	// Snapshot holds per-identity counts taken when the session opened.
	Snapshot map[item.Identity]int
}

// Store holds the open sessions, at most one per reader.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Put stores s, replacing any session with the same reader id.
func (st *Store) Put(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ReaderID] = s
}

// Get returns the session for a reader.
func (st *Store) Get(readerID string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[readerID]
	return s, ok
}

// Take removes and returns the session for a reader.
func (st *Store) Take(readerID string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[readerID]
	if ok {
		delete(st.sessions, readerID)
	}
	return s, ok
}

// Len returns the number of open sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
