// Package keepalive implements the one-byte-opcode inter-server ping
// between the realm server and its world servers (spec.md §4.6). It has no
// persistent state beyond the realm registry's per-entry liveness flag and
// is specified only for completeness.
package keepalive

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/legacyrealm/realmd/internal/realm"
)

// Opcodes, second byte of a frame whose first byte is 0xFF.
const (
	OpAreYouAlive      byte = 0x00
	OpYesIAmAlive      byte = 0x01
	OpNoIAmDead        byte = 0x02
	OpThisGuyWannaPlay byte = 0x64
)

// LeadByte is the first byte that routes a frame to this subsystem.
const LeadByte byte = 0xFF

// AreYouAlive, YesIAmAlive, NoIAmDead are the fixed two-byte frames.
var (
	AreYouAlive = []byte{LeadByte, OpAreYouAlive}
	YesIAmAlive = []byte{LeadByte, OpYesIAmAlive}
	NoIAmDead   = []byte{LeadByte, OpNoIAmDead}
)

// ThisGuyWannaPlay builds the variable-length "a player just authenticated"
// notification: 0xFF 0x64 followed by the player's IP as ASCII.
func ThisGuyWannaPlay(ip string) []byte {
	out := make([]byte, 0, 2+len(ip))
	out = append(out, LeadByte, OpThisGuyWannaPlay)
	out = append(out, []byte(ip)...)
	return out
}

// HandleWorldServerFrame answers a frame received by a world server on its
// comm_port. alive reports the world server's current status (spec.md §8
// scenario 6). It returns nil if the frame isn't a recognized ping.
func HandleWorldServerFrame(frame []byte, alive bool) []byte {
	if len(frame) < 2 || frame[0] != LeadByte {
		return nil
	}
	switch frame[1] {
	case OpAreYouAlive:
		if alive {
			return YesIAmAlive
		}
		return NoIAmDead
	default:
		return nil
	}
}

// Pinger periodically dials each realm's comm_port from the realm server
// and updates the registry's liveness flag from the reply (supplementing
// spec.md §4.6 with the Communicator behavior observed in
// original_source/Server/RealmServer.py, which initiates these pings
// rather than waiting passively).
type Pinger struct {
	Registry *realm.Registry
	Interval time.Duration
	Dial     func(ctx context.Context, network, address string) (net.Conn, error)
	Log      zerolog.Logger
}

// NewPinger builds a Pinger with a default 10s interval and net.Dialer.
func NewPinger(reg *realm.Registry, log zerolog.Logger) *Pinger {
	var d net.Dialer
	return &Pinger{
		Registry: reg,
		Interval: 10 * time.Second,
		Dial:     d.DialContext,
		Log:      log,
	}
}

// Run polls every configured world server until ctx is cancelled.
func (p *Pinger) Run(ctx context.Context) {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()
	for {
		p.pingAll(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *Pinger) pingAll(ctx context.Context) {
	for _, e := range p.Registry.Entries() {
		ok := p.ping(ctx, e)
		e.SetReachable(ok)
	}
}

func (p *Pinger) ping(ctx context.Context, e *realm.Realm) bool {
	addr := fmt.Sprintf("%s:%d", e.Address, e.CommPort)
	dialCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	conn, err := p.Dial(dialCtx, "tcp", addr)
	if err != nil {
		p.Log.Warn().Str("realm", e.Name).Str("addr", addr).Err(err).Msg("keepalive dial failed")
		return false
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(3 * time.Second))
	if _, err := conn.Write(AreYouAlive); err != nil {
		return false
	}
	reply := make([]byte, 2)
	if _, err := conn.Read(reply); err != nil {
		return false
	}
	return reply[0] == LeadByte && reply[1] == OpYesIAmAlive
}
