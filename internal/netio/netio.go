// Package netio owns the TCP acceptor loop and connection registry for the
// realm server. It is the only place actual socket I/O happens; everything
// it reads is handed to internal/session.Conn.HandleFrame, and everything
// that function returns is written back verbatim (spec.md §9: "the state
// machine and its transitions are the contract; the transport is
// replaceable").
package netio

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/legacyrealm/realmd/internal/protoerr"
	"github.com/legacyrealm/realmd/internal/realm"
	"github.com/legacyrealm/realmd/internal/session"
	"github.com/legacyrealm/realmd/internal/store"
)

// DefaultIdleTimeout is the default window spec.md §5 allows a session to
// make no progress in before it is closed.
const DefaultIdleTimeout = 30 * time.Second

const maxFrameSize = 4096

// registry enforces "at most one authenticated session per peer address"
// (spec.md §5). It is the only mutable state shared between connections.
type registry struct {
	mu    sync.Mutex
	peers map[string]struct{}
}

func newRegistry() *registry {
	return &registry{peers: make(map[string]struct{})}
}

func (r *registry) tryAdd(addr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.peers[addr]; exists {
		return false
	}
	r.peers[addr] = struct{}{}
	return true
}

func (r *registry) remove(addr string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.peers, addr)
}

// Server accepts client connections and drives each through the
// authentication state machine.
type Server struct {
	Store       store.CredentialStore
	Realms      *realm.Registry
	IdleTimeout time.Duration
	Log         zerolog.Logger

	reg *registry
}

// Serve accepts connections on ln until ctx is cancelled or Accept fails.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.reg == nil {
		s.reg = newRegistry()
	}
	if s.IdleTimeout == 0 {
		s.IdleTimeout = DefaultIdleTimeout
	}

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	peer := conn.RemoteAddr().String()
	if host, _, err := net.SplitHostPort(peer); err == nil {
		peer = host
	}

	if !s.reg.tryAdd(peer) {
		s.Log.Info().Str("peer", peer).Msg("rejecting second connection from known peer")
		return
	}
	defer s.reg.remove(peer)

	c := session.New(peer, s.Store, s.Realms, s.Log)

	buf := make([]byte, maxFrameSize)
	for {
		if err := conn.SetReadDeadline(time.Now().Add(s.IdleTimeout)); err != nil {
			return
		}
		n, err := conn.Read(buf)
		if err != nil {
			var netErr net.Error
			switch {
			case errors.As(err, &netErr) && netErr.Timeout():
				s.Log.Info().Str("peer", peer).Msg("closing idle connection")
			case !errors.Is(err, io.EOF):
				s.Log.Debug().Str("peer", peer).Err(err).Msg("read error")
			}
			return
		}

		reply, herr := c.HandleFrame(ctx, buf[:n])
		if herr != nil {
			logHandlerError(s.Log, peer, herr)
			return
		}
		if reply != nil {
			if _, err := conn.Write(reply); err != nil {
				s.Log.Debug().Str("peer", peer).Err(err).Msg("write error")
				return
			}
		}
		if c.State() == session.StateClosed {
			return
		}
	}
}

func logHandlerError(log zerolog.Logger, peer string, err error) {
	switch {
	case errors.Is(err, protoerr.ErrStoreUnavailable):
		log.Error().Str("peer", peer).Err(err).Msg("credential store unavailable")
	case errors.Is(err, protoerr.ErrUnknownUser):
		log.Info().Str("peer", peer).Msg("unknown user, closing")
	default:
		log.Info().Str("peer", peer).Err(err).Msg("closing connection")
	}
}
