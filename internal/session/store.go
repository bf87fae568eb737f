// Package session keeps the crop sessions opened through the server.
//
// Each session owns one geometry.Engine. The engine itself is not safe for
// concurrent use, so every operation on a session goes through the Store,
// which serializes access with a single mutex. A session is removed from the
// store when it is closed after finalizing, or cancelled; its engine is not
// reused.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/pencrop-mcp/internal/geometry"
)

// ErrNotFound is returned for an unknown, closed, cancelled or evicted
// session ID.
var ErrNotFound = errors.New("crop session not found")

// Session is one interactive crop of a source photo.
type Session struct {
	ID        string
	ImagePath string
	Source    geometry.Size
	CreatedAt time.Time

	seq    uint64
	engine *geometry.Engine
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	ID            string        `json:"session_id"`
	ImagePath     string        `json:"image_path"`
	State         string        `json:"state"`
	Display       geometry.Size `json:"display"`
	Source        geometry.Size `json:"source"`
	CropRect      geometry.Rect `json:"crop_rect"`
	VisibleRegion geometry.Rect `json:"visible_region"`
	CreatedAt     time.Time     `json:"created_at"`
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		ID:            s.ID,
		ImagePath:     s.ImagePath,
		State:         s.engine.State().String(),
		Display:       s.engine.Display(),
		Source:        s.Source,
		CropRect:      s.engine.Rect(),
		VisibleRegion: geometry.VisibleRegion(s.engine.Display(), s.Source),
		CreatedAt:     s.CreatedAt,
	}
}

// Result is the outcome of finalizing a session.
type Result struct {
	Snapshot
	// SourceRect is the crop in source pixel coordinates.
	SourceRect geometry.Rect `json:"source_rect"`
	// Degenerate is true when SourceRect has no area and the uncropped
	// source must be used instead.
	Degenerate bool `json:"degenerate"`
}

// Store is a bounded, concurrency-safe set of crop sessions.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	max      int
	seq      uint64
	now      func() time.Time
}

// NewStore creates a store holding at most maxSessions open sessions.
func NewStore(maxSessions int) *Store {
	if maxSessions < 1 {
		maxSessions = 1
	}
	return &Store{
		sessions: make(map[string]*Session),
		max:      maxSessions,
		now:      time.Now,
	}
}

// Create opens a session for a source photo shown on a display surface.
// When the store is full the oldest session is evicted and returned.
//
// Returns *geometry.InvalidBoundsError for invalid display or source sizes.
func (st *Store) Create(imagePath string, source, display geometry.Size) (Snapshot, *Snapshot, error) {
	if !source.Valid() {
		return Snapshot{}, nil, &geometry.InvalidBoundsError{What: "source", Size: source}
	}
	eng, err := geometry.NewEngine(display)
	if err != nil {
		return Snapshot{}, nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	var evicted *Snapshot
	if len(st.sessions) >= st.max {
		if old := st.oldestLocked(); old != nil {
			snap := old.snapshot()
			evicted = &snap
			delete(st.sessions, old.ID)
		}
	}

	st.seq++
	s := &Session{
		ID:        uuid.NewString(),
		ImagePath: imagePath,
		Source:    source,
		CreatedAt: st.now(),
		seq:       st.seq,
		engine:    eng,
	}
	st.sessions[s.ID] = s
	return s.snapshot(), evicted, nil
}

func (st *Store) oldestLocked() *Session {
	var oldest *Session
	for _, s := range st.sessions {
		if oldest == nil || s.seq < oldest.seq {
			oldest = s
		}
	}
	return oldest
}

// Get returns the current state of a session.
func (st *Store) Get(id string) (Snapshot, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return s.snapshot(), nil
}

// Pan feeds a pan event to a session.
func (st *Store) Pan(id string, phase geometry.Phase, dx, dy float64) (Snapshot, error) {
	return st.update(id, func(e *geometry.Engine) { e.HandlePan(phase, dx, dy) })
}

// Pinch feeds a pinch event to a session.
func (st *Store) Pinch(id string, phase geometry.Phase, factor float64) (Snapshot, error) {
	return st.update(id, func(e *geometry.Engine) { e.HandlePinch(phase, factor) })
}

func (st *Store) update(id string, fn func(*geometry.Engine)) (Snapshot, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	fn(s.engine)
	return s.snapshot(), nil
}

// Finalize computes the source-space crop. The session stays open so the
// caller can finish its work on the result and then Close it; finalizing
// again returns the same rectangle.
func (st *Store) Finalize(id string) (Result, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return Result{}, ErrNotFound
	}
	rect, err := s.engine.FinalizeCrop(s.Source)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Snapshot:   s.snapshot(),
		SourceRect: rect,
		Degenerate: rect.Empty(),
	}, nil
}

// Close removes a session from the store.
func (st *Store) Close(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(st.sessions, id)
	return nil
}

// Cancel abandons a session and closes it.
func (st *Store) Cancel(id string) (Snapshot, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	s.engine.Cancel()
	delete(st.sessions, id)
	return s.snapshot(), nil
}

// Len returns the number of open sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// ImagePaths returns the image paths referenced by open sessions.
func (st *Store) ImagePaths() map[string]bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	paths := make(map[string]bool, len(st.sessions))
	for _, s := range st.sessions {
		paths[s.ImagePath] = true
	}
	return paths
}
