package labordash

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Loader loads a dataset by name. *Catalog implements it.
type Loader interface {
	Load(ctx context.Context, name string) (*Result, error)
}

// Session memoizes the tables loaded for one dashboard user. It is created
// at session start and cleared by Refresh. Degraded results are not cached so
// the next interaction tries the sources again.
type Session struct {
	id       string
	loader   Loader
	created  time.Time
	mu       sync.Mutex
	lastSeen time.Time
	cache    map[string]*Result
	group    singleflight.Group
}

func NewSession(loader Loader, now time.Time) *Session {
	return &Session{
		id:       uuid.NewString(),
		loader:   loader,
		created:  now,
		lastSeen: now,
		cache:    make(map[string]*Result),
	}
}

func (s *Session) ID() string           { return s.id }
func (s *Session) CreatedAt() time.Time { return s.created }

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

// Load returns the cached result for name or loads it. Concurrent loads of
// the same dataset share one underlying call. The shared call is detached
// from the cancellation of whichever caller started it and keeps only its
// deadline; each caller still stops waiting when its own ctx is done.
func (s *Session) Load(ctx context.Context, name string) (*Result, error) {
	if res, ok := s.Cached(name); ok {
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch := s.group.DoChan(name, func() (any, error) {
		if res, ok := s.Cached(name); ok {
			return res, nil
		}
		loadCtx, cancel := detach(ctx)
		defer cancel()

		res, err := s.loader.Load(loadCtx, name)
		if err != nil {
			return nil, err
		}
		if !res.Degraded {
			s.mu.Lock()
			s.cache[name] = res
			s.mu.Unlock()
		}
		return res, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*Result), nil
	}
}

func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	base := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(base, deadline)
	}
	return context.WithCancel(base)
}

func (s *Session) Cached(name string) (*Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.cache[name]
	return res, ok
}

func (s *Session) CachedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cache)
}

// Refresh discards every cached table.
func (s *Session) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*Result)
}

// SessionStore holds live sessions by ID. Expired sessions are dropped when
// the store is next used.
type SessionStore struct {
	mu       sync.Mutex
	loader   Loader
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]*Session
}

func NewSessionStore(loader Loader, ttl time.Duration, now func() time.Time) *SessionStore {
	if now == nil {
		now = time.Now
	}
	return &SessionStore{
		loader:   loader,
		ttl:      ttl,
		now:      now,
		sessions: make(map[string]*Session),
	}
}

// Get returns the live session with id, or a new one when id is unknown or
// expired. created reports whether a new session was made.
func (st *SessionStore) Get(id string) (sess *Session, created bool) {
	now := st.now()

	st.mu.Lock()
	defer st.mu.Unlock()

	st.sweep(now)
	if sess, ok := st.sessions[id]; ok {
		sess.touch(now)
		return sess, false
	}

	sess = NewSession(st.loader, now)
	st.sessions[sess.ID()] = sess
	return sess, true
}

func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *SessionStore) sweep(now time.Time) {
	if st.ttl <= 0 {
		return
	}
	for id, sess := range st.sessions {
		if now.Sub(sess.LastSeen()) > st.ttl {
			delete(st.sessions, id)
		}
	}
}
