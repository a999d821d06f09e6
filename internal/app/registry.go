package app

import (
	"sync"

	"github.com/dkeye/telemed/internal/core"
	"github.com/dkeye/telemed/internal/domain"
	"github.com/rs/zerolog/log"
)

// Registry maps identities to open connections and back.
// Both maps live behind one lock so a reader never sees half an update.
type Registry struct {
	mu     sync.RWMutex
	byUser map[domain.UserID]core.SignalConnection
	byConn map[core.ConnID]domain.UserID
}

var _ core.Registry = (*Registry)(nil)

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[domain.UserID]core.SignalConnection),
		byConn: make(map[core.ConnID]domain.UserID),
	}
}

// Identify binds uid to conn. Last identify wins: an older handle of uid
// loses its reverse entry but is left open.
func (r *Registry) Identify(uid domain.UserID, conn core.SignalConnection) core.IdentifyResult {
	cid := conn.ID()
	var res core.IdentifyResult

	r.mu.Lock()
	if old, ok := r.byUser[uid]; ok && old.ID() != cid {
		delete(r.byConn, old.ID())
		res.Superseded = old
	}
	if prev, ok := r.byConn[cid]; ok && prev != uid {
		if cur, ok := r.byUser[prev]; ok && cur.ID() == cid {
			delete(r.byUser, prev)
		}
		res.Displaced = prev
	}
	r.byUser[uid] = conn
	r.byConn[cid] = uid
	r.mu.Unlock()

	ev := log.Info().Str("module", "app.registry").Str("cid", string(cid)).Str("user", string(uid))
	if res.Superseded != nil {
		ev = ev.Str("superseded_cid", string(res.Superseded.ID()))
	}
	if res.Displaced != "" {
		ev = ev.Str("displaced_user", string(res.Displaced))
	}
	ev.Msg("identified")
	return res
}

func (r *Registry) Lookup(uid domain.UserID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.byUser[uid]
	return conn, ok
}

func (r *Registry) ReverseLookup(cid core.ConnID) (domain.UserID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	uid, ok := r.byConn[cid]
	return uid, ok
}

// Remove drops the entry of cid. The forward entry is only removed while
// it still points at cid, so a stale handle cannot unroute a newer one.
func (r *Registry) Remove(cid core.ConnID) (domain.UserID, bool) {
	r.mu.Lock()
	uid, ok := r.byConn[cid]
	if ok {
		delete(r.byConn, cid)
		if cur, found := r.byUser[uid]; found && cur.ID() == cid {
			delete(r.byUser, uid)
		}
	}
	r.mu.Unlock()

	if ok {
		log.Info().Str("module", "app.registry").Str("cid", string(cid)).Str("user", string(uid)).Msg("removed")
	}
	return uid, ok
}

// Snapshot returns the currently routable connections.
func (r *Registry) Snapshot() []core.SignalConnection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.SignalConnection, 0, len(r.byUser))
	for _, conn := range r.byUser {
		out = append(out, conn)
	}
	return out
}

func (r *Registry) Online() []domain.UserID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.UserID, 0, len(r.byUser))
	for uid := range r.byUser {
		out = append(out, uid)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}
