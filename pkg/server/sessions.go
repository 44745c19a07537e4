package server

import (
	"errors"
	"sync"
	"time"

	"github.com/anggasct/junction"
	"github.com/anggasct/junction/pkg/emergency"
	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for unknown or deleted session ids
var ErrSessionNotFound = errors.New("session not found")

// Session is one simulated junction
type Session struct {
	ID         uuid.UUID
	Number     int
	Controller *junction.Controller
	Override   *emergency.Override
	CreatedAt  time.Time

	mutex       sync.Mutex
	emergencyAt time.Time
}

// detect starts an emergency override and remembers when it began
func (s *Session) detect(lane junction.Lane, vt emergency.VehicleType, now time.Time) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.Override.Detect(lane, vt); err != nil {
		return err
	}
	s.emergencyAt = now
	return nil
}

// expire lets an active override time out
func (s *Session) expire(now time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.Override.Active() {
		s.Override.Update(now.Sub(s.emergencyAt))
	}
}

// Sessions is a concurrency-safe session registry
type Sessions struct {
	sessions map[uuid.UUID]*Session
	next     int
	mutex    sync.RWMutex
}

// NewSessions creates an empty registry
func NewSessions() *Sessions {
	return &Sessions{sessions: make(map[uuid.UUID]*Session)}
}

// Add registers a controller under a fresh id. Sessions are numbered in
// creation order starting at 0.
func (s *Sessions) Add(controller *junction.Controller, now time.Time) *Session {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	session := &Session{
		ID:         uuid.New(),
		Number:     s.next,
		Controller: controller,
		Override:   emergency.New(controller),
		CreatedAt:  now,
	}
	s.next++
	s.sessions[session.ID] = session
	return session
}

// Get looks a session up by its string id
func (s *Sessions) Get(id string) (*Session, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	session, ok := s.sessions[parsed]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Delete removes a session
func (s *Sessions) Delete(id string) error {
	session, err := s.Get(id)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.sessions, session.ID)
	return nil
}

// Len returns the number of live sessions
func (s *Sessions) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.sessions)
}
