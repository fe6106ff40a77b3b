// Package session implements the per-connection authentication state
// machine (spec.md §4.4): a strict CHALLENGE → PROOF → REALMLIST
// progression, driven by the wire codec and the SRP6 engine, with a side
// channel for inter-server keepalive frames.
//
// Following the redesign notes in spec.md §9 ("model this as an explicit
// Session object with on_bytes(frame) -> Result<...>"), Conn exposes a
// single HandleFrame entry point; the caller (internal/netio) owns the
// actual net.Conn and is the only place I/O happens.
package session

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/legacyrealm/realmd/internal/keepalive"
	"github.com/legacyrealm/realmd/internal/protoerr"
	"github.com/legacyrealm/realmd/internal/realm"
	"github.com/legacyrealm/realmd/internal/srp"
	"github.com/legacyrealm/realmd/internal/store"
	"github.com/legacyrealm/realmd/internal/wire"
)

// State is the connection's position in the CHALLENGE → PROOF → REALMLIST
// progression (spec.md §4.4).
type State int

const (
	StateChallenge State = iota
	StateProof
	StateRealmList
	StateWorldServer
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateChallenge:
		return "CHALLENGE"
	case StateProof:
		return "PROOF"
	case StateRealmList:
		return "REALMLIST"
	case StateWorldServer:
		return "WORLDSERVER"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Conn is one connection's authentication state. It is mutated by exactly
// one goroutine at a time: the caller must serialize calls to HandleFrame
// for a given Conn (spec.md §5).
type Conn struct {
	Peer string

	state  State
	engine *srp.Session
	store  store.CredentialStore
	realms *realm.Registry
	log    zerolog.Logger
}

// New creates a connection in its initial CHALLENGE state.
func New(peer string, st store.CredentialStore, realms *realm.Registry, log zerolog.Logger) *Conn {
	return &Conn{
		Peer:   peer,
		state:  StateChallenge,
		engine: srp.New(),
		store:  st,
		realms: realms,
		log:    log.With().Str("peer", peer).Logger(),
	}
}

// State returns the connection's current state.
func (c *Conn) State() State { return c.state }

// HandleFrame dispatches one inbound frame per the current state and
// returns the bytes to write back, if any. A non-nil error means the
// caller must close the connection without sending a response body
// (spec.md §7); HandleFrame has already set c.state to StateClosed in
// that case.
func (c *Conn) HandleFrame(ctx context.Context, frame []byte) ([]byte, error) {
	if len(frame) == 0 {
		c.state = StateClosed
		return nil, fmt.Errorf("session: empty frame: %w", protoerr.ErrMalformedFrame)
	}

	if frame[0] == keepalive.LeadByte {
		if _, known := c.realms.ByAddress(c.Peer); known {
			c.state = StateWorldServer
			c.log.Debug().Bytes("frame", frame).Msg("keepalive frame from known world server")
			return keepalive.HandleWorldServerFrame(frame, true), nil
		}
	}

	switch c.state {
	case StateChallenge:
		return c.handleChallenge(ctx, frame)
	case StateProof:
		return c.handleProof(frame)
	case StateRealmList:
		return c.handleRealmList(frame)
	default:
		prev := c.state
		c.state = StateClosed
		return nil, fmt.Errorf("session: frame in state %s: %w", prev, protoerr.ErrInvalidState)
	}
}

func (c *Conn) handleChallenge(ctx context.Context, frame []byte) ([]byte, error) {
	if frame[0] != wire.OpLogonChallenge {
		c.state = StateClosed
		return nil, fmt.Errorf("session: expected logon challenge: %w", protoerr.ErrInvalidState)
	}

	req, err := wire.DecodeClientLogonChallenge(frame)
	if err != nil {
		c.state = StateClosed
		return nil, err
	}

	acc, err := c.store.Lookup(ctx, string(req.Username))
	if err != nil {
		c.state = StateClosed
		c.log.Info().Str("username", string(req.Username)).Msg("logon challenge for unknown or unavailable account")
		return nil, err
	}

	result, err := c.engine.ProcessChallenge(req.Username, acc.PWHash, acc.Salt)
	if err != nil {
		c.state = StateClosed
		return nil, err
	}

	reply, err := wire.EncodeServerLogonChallenge(wire.ServerLogonChallenge{
		B:    result.B,
		G:    result.G,
		N:    result.N,
		Salt: result.Salt,
	})
	if err != nil {
		c.state = StateClosed
		return nil, err
	}

	c.state = StateProof
	return reply, nil
}

func (c *Conn) handleProof(frame []byte) ([]byte, error) {
	if frame[0] != wire.OpLogonProof {
		c.state = StateClosed
		return nil, fmt.Errorf("session: expected logon proof: %w", protoerr.ErrInvalidState)
	}

	req, err := wire.DecodeClientLogonProof(frame)
	if err != nil {
		c.state = StateClosed
		return nil, err
	}

	result, err := c.engine.ProcessProof(req.A)
	if err != nil {
		c.state = StateClosed
		return nil, err
	}

	if !constantTimeEqual(req.M1[:], result.M1Expected[:]) {
		c.state = StateClosed
		c.log.Info().Msg("proof mismatch")
		return nil, protoerr.ErrProofMismatch
	}

	reply := wire.EncodeServerLogonProof(wire.ServerLogonProof{M2: result.M2})
	c.state = StateRealmList
	return reply, nil
}

func (c *Conn) handleRealmList(frame []byte) ([]byte, error) {
	if err := wire.DecodeClientRealmList(frame); err != nil {
		c.state = StateClosed
		return nil, err
	}
	reply := wire.EncodeServerRealmList(c.realms.WireEntries())
	return reply, nil
}

// constantTimeEqual reports whether a and b are equal, in time independent
// of where they first differ (spec.md §4.4: "M1 comparison must be
// constant-time"). It mirrors the approach a conventional SRP6 library
// takes for its own proof comparator (crypto/subtle.ConstantTimeCompare),
// rather than a byte-wise OR-of-XORs hand-rolled in this package.
func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
