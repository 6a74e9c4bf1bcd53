package lesson

import (
	"errors"
	"sync"
	"time"

	"github.com/example/lexigo/pkg/models"
	"github.com/google/uuid"
)

var (
	// ErrSessionFinished is returned when a judgment arrives after the last word
	ErrSessionFinished = errors.New("study session already finished")
	// ErrSessionNotFound is returned for an unknown session id
	ErrSessionNotFound = errors.New("study session not found")
)

// Session walks through the words of one lesson
type Session struct {
	ID        string
	CreatedAt time.Time

	mu     sync.Mutex
	lesson models.Lesson
	cursor int
	known  int
}

func newSession(lesson models.Lesson, now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		lesson:    lesson,
	}
}

// Lesson returns a copy of the lesson with the records updated so far
func (s *Session) Lesson() models.Lesson {
	s.mu.Lock()
	defer s.mu.Unlock()
	lesson := s.lesson
	lesson.Words = append([]models.WordRecord(nil), s.lesson.Words...)
	return lesson
}

// Current returns the word awaiting a judgment
func (s *Session) Current() (models.WordRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor >= len(s.lesson.Words) {
		return models.WordRecord{}, false
	}
	return s.lesson.Words[s.cursor], true
}

// Position returns the index of the current word
func (s *Session) Position() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Remaining returns how many words still need a judgment
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lesson.Words) - s.cursor
}

// Finished reports whether every word has been judged
func (s *Session) Finished() bool {
	return s.Remaining() == 0
}

// View is the serializable state of a session
type View struct {
	ID        string             `json:"id"`
	Lesson    models.Lesson      `json:"lesson"`
	Position  int                `json:"position"`
	Remaining int                `json:"remaining"`
	Current   *models.WordRecord `json:"current,omitempty"`
}

// View snapshots the session
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		ID:        s.ID,
		Lesson:    s.lesson,
		Position:  s.cursor,
		Remaining: len(s.lesson.Words) - s.cursor,
	}
	v.Lesson.Words = append([]models.WordRecord(nil), s.lesson.Words...)
	if s.cursor < len(s.lesson.Words) {
		current := s.lesson.Words[s.cursor]
		v.Current = &current
	}
	return v
}

// Sessions keeps the active sessions by id
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
}

// NewSessions creates a registry dropping sessions older than ttl
func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{sessions: make(map[string]*Session), ttl: ttl}
}

// Add registers a session and evicts expired ones
func (r *Sessions) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ttl > 0 {
		for id, old := range r.sessions {
			if s.CreatedAt.Sub(old.CreatedAt) > r.ttl {
				delete(r.sessions, id)
			}
		}
	}
	r.sessions[s.ID] = s
}

// Get returns the session with id
func (r *Sessions) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Len returns the number of registered sessions
func (r *Sessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
