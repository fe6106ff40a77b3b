// Command worldd is the world-server half of the keepalive pair (spec.md
// §4.6): it answers the realm server's ARE_YOU_ALIVE pings on its
// comm_port and otherwise ignores game traffic, which is out of scope for
// this system (spec.md §1). Usage: worldd <config-file-path>.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/legacyrealm/realmd/internal/config"
	"github.com/legacyrealm/realmd/internal/keepalive"
	"github.com/legacyrealm/realmd/internal/logging"
)

func main() {
	log := logging.New(true)

	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <config-file-path>\n", os.Args[0])
		os.Exit(1)
	}

	cfg, err := config.LoadWorldConfig(os.Args[1])
	if err != nil {
		log.Fatal().Err(err).Str("path", os.Args[1]).Msg("failed to load config")
	}

	var alive atomic.Bool
	alive.Store(true)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commLn, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.RealmCommPort))
	if err != nil {
		log.Fatal().Err(err).Int("port", cfg.RealmCommPort).Msg("failed to listen on comm port")
	}
	go serveComm(ctx, commLn, cfg.RealmAddress, &alive, log)

	gameLn, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GamePort))
	if err != nil {
		log.Fatal().Err(err).Int("port", cfg.GamePort).Msg("failed to listen on game port")
	}
	log.Info().Int("game_port", cfg.GamePort).Int("comm_port", cfg.RealmCommPort).Msg("worldd listening")

	<-ctx.Done()
	_ = gameLn.Close()
	_ = commLn.Close()
}

// serveComm answers inter-server keepalive frames from the configured
// realm server address. Game-world traffic on this port or on the game
// port is out of scope (spec.md §1, "post-authentication game-world
// traffic").
func serveComm(ctx context.Context, ln net.Listener, realmAddr string, alive *atomic.Bool, log zerolog.Logger) {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		go func() {
			defer conn.Close()
			peer, _, err := net.SplitHostPort(conn.RemoteAddr().String())
			if err != nil || peer != realmAddr {
				log.Debug().Str("peer", conn.RemoteAddr().String()).Msg("rejecting comm connection from unknown peer")
				return
			}
			buf := make([]byte, 2)
			for {
				n, err := conn.Read(buf)
				if err != nil {
					return
				}
				reply := keepalive.HandleWorldServerFrame(buf[:n], alive.Load())
				if reply == nil {
					continue
				}
				if _, err := conn.Write(reply); err != nil {
					return
				}
			}
		}()
	}
}
