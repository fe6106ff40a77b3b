// Package realm holds the read-only realm registry snapshot advertised to
// clients (spec.md §4.5) plus the per-realm liveness state maintained by
// the keepalive poller (SPEC_FULL.md §4.9).
package realm

import (
	"sync/atomic"

	"github.com/legacyrealm/realmd/internal/wire"
)

// Entry describes one world-server realm as configured at startup. It is a
// plain data value — safe to copy, pass by value, and store in a slice —
// with no liveness state attached; that lives on Realm, which New builds
// from an Entry and never copies again.
type Entry struct {
	Type           byte
	IsLocked       byte
	Color          byte
	Name           string
	Address        string
	GamePort       int
	CommPort       int
	Population     float32
	CharacterCount byte
	Timezone       byte
}

// Realm is one registered world server plus the liveness flag the
// keepalive poller maintains for it. A Realm is only ever created by New
// and is always handled through a pointer, so its embedded atomic.Bool is
// never copied after construction.
type Realm struct {
	Entry

	reachable atomic.Bool // updated by the keepalive poller; starts true
}

// Registry is an immutable-after-construction ordered list of realms. Its
// structure never changes after New returns; only each Realm's liveness
// flag is mutated, and that mutation is safe for concurrent readers
// (spec.md §5: "the realm registry snapshot is immutable after startup and
// may be read without synchronization").
type Registry struct {
	realms []*Realm
}

// New builds a Registry from a snapshot of realm configuration, taken once
// at startup.
func New(entries []Entry) *Registry {
	r := &Registry{realms: make([]*Realm, len(entries))}
	for i, e := range entries {
		realm := &Realm{Entry: e}
		realm.reachable.Store(true)
		r.realms[i] = realm
	}
	return r
}

// Entries returns the realms in configuration order.
func (r *Registry) Entries() []*Realm {
	return r.realms
}

// ByAddress returns the realm configured at the given address, if any. It
// is used to decide whether an inbound connection is a known world server
// rather than a game client (spec.md §4.4's routing rule).
func (r *Registry) ByAddress(addr string) (*Realm, bool) {
	for _, e := range r.realms {
		if e.Address == addr {
			return e, true
		}
	}
	return nil, false
}

// SetReachable records the result of the most recent keepalive ping.
func (e *Realm) SetReachable(ok bool) {
	e.reachable.Store(ok)
}

// Reachable reports whether the most recent keepalive ping succeeded.
func (e *Realm) Reachable() bool {
	return e.reachable.Load()
}

// EffectiveLock reports the isLocked bit a client should see: the
// configured lock OR'd with unreachability, so a world that stopped
// answering keepalives is reported locked even if it was not configured
// that way (SPEC_FULL.md §4.9).
func (e *Realm) EffectiveLock() byte {
	if e.IsLocked != 0 || !e.Reachable() {
		return 1
	}
	return 0
}

// WireEntries projects the registry into the shape the codec encodes.
func (r *Registry) WireEntries() []wire.RealmEntry {
	out := make([]wire.RealmEntry, 0, len(r.realms))
	for _, e := range r.realms {
		out = append(out, wire.RealmEntry{
			Type:           e.Type,
			IsLocked:       e.EffectiveLock(),
			Color:          e.Color,
			Name:           e.Name,
			Address:        e.Address,
			GamePort:       e.GamePort,
			Population:     e.Population,
			CharacterCount: e.CharacterCount,
			Timezone:       e.Timezone,
		})
	}
	return out
}
