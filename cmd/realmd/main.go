// Command realmd is the realm-authentication server: it completes the
// SRP6a handshake against the 1.12 WoW client and answers realm-list
// queries (spec.md §1). Usage: realmd <config-file-path>.
package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/legacyrealm/realmd/internal/config"
	"github.com/legacyrealm/realmd/internal/keepalive"
	"github.com/legacyrealm/realmd/internal/logging"
	"github.com/legacyrealm/realmd/internal/netio"
	"github.com/legacyrealm/realmd/internal/realm"
	"github.com/legacyrealm/realmd/internal/store"
)

// defaultAccounts mirrors the seed data in
// original_source/Server/database.py's insert_default_accounts, minus the
// gmlevel column the auth path never reads.
var defaultAccounts = []struct {
	username string
	pwHash   string
}{
	{"ADMINISTRATOR", "a34b29541b87b7e4823683ce6c7bf6ae68beaaac"},
	{"GAMEMASTER", "7841e21831d7c6bc0b57fbe7151eb82bd65ea1f9"},
	{"MODERATOR", "a7f5fbff0b4eec2d6b6e78e38e8312e64d700008"},
	{"PLAYER", "3ce8a96d17c5ae88a30681024e86279f1a38c041"},
}

func main() {
	log := logging.New(true)

	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <config-file-path>\n", os.Args[0])
		os.Exit(1)
	}
	cfgPath := os.Args[1]

	cfg, err := config.LoadRealmConfig(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfgPath).Msg("failed to load config")
	}

	st := store.NewStaticStore()
	for _, acc := range defaultAccounts {
		var salt [32]byte
		if _, err := io.ReadFull(rand.Reader, salt[:]); err != nil {
			log.Fatal().Err(err).Msg("failed to generate account salt")
		}
		if err := st.Put(acc.username, salt, acc.pwHash); err != nil {
			log.Fatal().Err(err).Str("username", acc.username).Msg("failed to seed account")
		}
	}

	registry := realm.New(cfg.Worlds)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pinger := keepalive.NewPinger(registry, log)
	go pinger.Run(ctx)

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.RealmPort))
	if err != nil {
		log.Fatal().Err(err).Int("port", cfg.RealmPort).Msg("failed to listen")
	}
	log.Info().Int("port", cfg.RealmPort).Int("realms", len(cfg.Worlds)).Msg("realmd listening")

	srv := &netio.Server{
		Store:  st,
		Realms: registry,
		Log:    log,
	}
	if err := srv.Serve(ctx, ln); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
