package inmemsession

import (
	"context"
	"sync"
	"time"

	"github.com/csnedu/appointments/core/session"
)

// sweepInterval is the minimum delay between two sweeps of expired sessions.
const sweepInterval = time.Minute

type store struct {
	sync.RWMutex
	table     map[string]session.Session
	nextSweep time.Time
}

var _ session.Store = (*store)(nil)

func NewStore() session.Store {
	return &store{table: make(map[string]session.Session)}
}

func (st *store) Get(_ context.Context, id string) (*session.Session, error) {
	st.RLock()
	s, ok := st.table[id]
	st.RUnlock()

	if !ok {
		return nil, session.ErrNotFound
	}
	if s.IsExpired() {
		st.Lock()
		delete(st.table, id)
		st.Unlock()
		return nil, session.ErrNotFound
	}
	s = s.Stored()
	return &s, nil
}

// Save stores a copy of s, and drops the expired sessions every sweepInterval.
func (st *store) Save(_ context.Context, s *session.Session) error {
	st.Lock()
	defer st.Unlock()

	if now := time.Now(); !now.Before(st.nextSweep) {
		for id, stored := range st.table {
			if stored.IsExpired() {
				delete(st.table, id)
			}
		}
		st.nextSweep = now.Add(sweepInterval)
	}
	st.table[s.ID] = s.Stored()
	return nil
}

func (st *store) Delete(_ context.Context, id string) error {
	st.Lock()
	defer st.Unlock()
	delete(st.table, id)
	return nil
}

func (st *store) Ping(context.Context) error { return nil }
