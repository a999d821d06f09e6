package core

import "github.com/dkeye/telemed/internal/domain"

// IdentifyResult describes the entries an Identify call displaced.
type IdentifyResult struct {
	// Superseded is the older handle of the same identity. It stays open
	// but is no longer routable.
	Superseded SignalConnection
	// Displaced is the identity this handle was bound to before, if it
	// differs from the new one.
	Displaced domain.UserID
}

// Registry is the single source of truth for who is reachable right now.
// Implementations keep the identity -> handle and handle -> identity views
// consistent under concurrent use.
type Registry interface {
	Identify(uid domain.UserID, conn SignalConnection) IdentifyResult
	Lookup(uid domain.UserID) (SignalConnection, bool)
	ReverseLookup(cid ConnID) (domain.UserID, bool)
	// Remove reports the identity that was bound to cid, if any.
	Remove(cid ConnID) (domain.UserID, bool)
	Snapshot() []SignalConnection
	Online() []domain.UserID
}
