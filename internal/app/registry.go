package app

import (
	"context"
	"sync"
	"time"

	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/rs/zerolog/log"
)

type sessionEntry struct {
	Session core.MemberSession
	Cancel  context.CancelFunc
}

// Registry is the connection table: sid -> live transport session.
// Signaling relay resolves destinations here, independent of rooms.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*sessionEntry),
	}
}

func (r *Registry) BindSignal(sid core.SessionID, sess core.MemberSession, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{Session: sess, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound signal")
}

func (r *Registry) GetSession(sid core.SessionID) (core.MemberSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Session, true
	}
	return nil, false
}

// MarkJoined records the join timestamp for sid.
func (r *Registry) MarkJoined(sid core.SessionID, at time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return false
	}
	e.Session.Meta().MarkJoined(at)
	return true
}

// State reports the lifecycle state of sid; unknown ids are terminated.
func (r *Registry) State(sid core.SessionID) domain.SessionState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Session.Meta().State
	}
	return domain.StateTerminated
}

// Unbind forgets sid and returns the session it held. After Unbind the id
// no longer resolves.
func (r *Registry) Unbind(sid core.SessionID) (core.MemberSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return nil, false
	}
	delete(r.sessions, sid)
	e.Session.Meta().State = domain.StateTerminated
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
	return e.Session, true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Cancel stops the session's context and closes its transport, which ends
// the read pump and drives the normal disconnect path.
func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	if sc := e.Session.Signal(); sc != nil {
		sc.Close()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}

// CancelAll cancels every bound session. Used on shutdown.
func (r *Registry) CancelAll() int {
	r.mu.RLock()
	sids := make([]core.SessionID, 0, len(r.sessions))
	for sid := range r.sessions {
		sids = append(sids, sid)
	}
	r.mu.RUnlock()
	for _, sid := range sids {
		r.Cancel(sid)
	}
	return len(sids)
}
