package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agenthands/airwatch/internal/sensor"
)

// LastWindow is the one piece of cross-query state the pipeline keeps: the
// window a sensor answer was computed over, plus the rows behind it, so a
// follow-up "상세/원본" turn can replay the evidence. It belongs to exactly
// one session and is written and read by sequential turns only.
type LastWindow struct {
	Window string // "second" | "minute" | "hour" | "range"
	Start  time.Time
	End    time.Time
	Rows   []sensor.Reading
	Tag    string
	Label  string
}

// Turn is one query/answer exchange.
type Turn struct {
	Query  string
	Answer string
	Route  string
}

// Session is the explicit per-conversation context object. A deployment
// with concurrent conversations shards Sessions by ID in a Registry; a
// single Session is never handed to two turns at once.
type Session struct {
	ID    string
	Turns []Turn
	Last  *LastWindow
}

// New creates a session with a timestamped unique ID.
func New() *Session {
	id := fmt.Sprintf("%s-%s", time.Now().Format("20060102-150405"),
		strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return &Session{ID: id}
}

// SetLast records the window behind the answer just produced.
func (s *Session) SetLast(window string, start, end time.Time, rows []sensor.Reading, tag, label string) {
	s.Last = &LastWindow{Window: window, Start: start, End: end, Rows: rows, Tag: tag, Label: label}
}

// ResetLast clears the last-window record before a fresh sensor turn.
func (s *Session) ResetLast() {
	s.Last = nil
}

// AddTurn appends one exchange and returns its 1-based turn number.
func (s *Session) AddTurn(query, answer, route string) int {
	s.Turns = append(s.Turns, Turn{Query: query, Answer: answer, Route: route})
	return len(s.Turns)
}

// Registry indexes sessions by ID and serializes access per session by
// confining each session to one in-flight turn.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Acquire returns the session for id, creating one when id is empty or
// unknown.
func (r *Registry) Acquire(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id != "" {
		if s, ok := r.sessions[id]; ok {
			return s
		}
	}
	s := New()
	r.sessions[s.ID] = s
	return s
}
