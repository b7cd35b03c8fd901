package service

import (
	"sync"
	"time"

	"storagechat/pkg/logger"
)

// Store keeps live sessions in memory and drops those idle longer than ttl.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	onEvict  func(s *Session)
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	log      *logger.Logger
}

func NewStore(ttl, cleanupInterval time.Duration, log *logger.Logger) *Store {
	st := &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
		stopCh:   make(chan struct{}),
		log:      log,
	}

	if cleanupInterval > 0 {
		st.wg.Add(1)
		go st.cleanupLoop(cleanupInterval)
	}

	return st
}

func (st *Store) Put(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID] = s
}

// Get returns a live session and marks it as seen.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, false
	}
	s.touch(st.now())
	return s, true
}

func (st *Store) Delete(id string) (*Session, bool) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if ok {
		s.Close()
	}
	return s, ok
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

func (st *Store) cleanupLoop(interval time.Duration) {
	defer st.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			st.evictIdle()
		case <-st.stopCh:
			return
		}
	}
}

func (st *Store) evictIdle() int {
	now := st.now()

	st.mu.Lock()
	var expired []*Session
	for id, s := range st.sessions {
		if s.idleSince(now) > st.ttl {
			expired = append(expired, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, s := range expired {
		s.Close()
		if st.onEvict != nil {
			st.onEvict(s)
		}
	}

	if len(expired) > 0 {
		st.log.Info("Evicted idle chat sessions",
			"count", len(expired),
			"remaining", st.Len(),
		)
	}
	return len(expired)
}

// Stop ends the cleanup loop and closes every session.
func (st *Store) Stop() {
	st.stopOnce.Do(func() {
		close(st.stopCh)
		st.wg.Wait()

		st.mu.Lock()
		sessions := st.sessions
		st.sessions = make(map[string]*Session)
		st.mu.Unlock()

		for _, s := range sessions {
			s.Close()
		}
	})
}
