// Package config loads the INI-style configuration files described in
// spec.md §6, using gopkg.in/ini.v1.
package config

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/legacyrealm/realmd/internal/realm"
)

// RealmConfig is the realm server's configuration: its own listen port
// plus a snapshot of every configured world.
type RealmConfig struct {
	RealmPort int
	Worlds    []realm.Entry
}

// LoadRealmConfig reads [net].realm_port and every [world*] section from
// path.
func LoadRealmConfig(path string) (RealmConfig, error) {
	f, err := ini.Load(path)
	if err != nil {
		return RealmConfig{}, fmt.Errorf("config: loading %s: %w", path, err)
	}

	net := f.Section("net")
	realmPort, err := net.Key("realm_port").Int()
	if err != nil {
		return RealmConfig{}, fmt.Errorf("config: [net].realm_port: %w", err)
	}

	var worlds []realm.Entry
	for _, sec := range f.Sections() {
		if !strings.HasPrefix(sec.Name(), "world") {
			continue
		}
		e, err := parseWorldSection(sec)
		if err != nil {
			return RealmConfig{}, fmt.Errorf("config: section [%s]: %w", sec.Name(), err)
		}
		worlds = append(worlds, e)
	}

	return RealmConfig{RealmPort: realmPort, Worlds: worlds}, nil
}

func parseWorldSection(sec *ini.Section) (realm.Entry, error) {
	typ, err := sec.Key("type").Int()
	if err != nil {
		return realm.Entry{}, err
	}
	isLocked, err := sec.Key("isLocked").Int()
	if err != nil {
		return realm.Entry{}, err
	}
	color, err := sec.Key("color").Int()
	if err != nil {
		return realm.Entry{}, err
	}
	gamePort, err := sec.Key("game_port").Int()
	if err != nil {
		return realm.Entry{}, err
	}
	commPort, err := sec.Key("comm_port").Int()
	if err != nil {
		return realm.Entry{}, err
	}
	timezone, err := sec.Key("timezone").Int()
	if err != nil {
		return realm.Entry{}, err
	}

	return realm.Entry{
		Type:           byte(typ),
		IsLocked:       byte(isLocked),
		Color:          byte(color),
		Name:           sec.Key("name").String(),
		Address:        sec.Key("address").String(),
		GamePort:       gamePort,
		CommPort:       commPort,
		Population:     1,
		CharacterCount: 16,
		Timezone:       byte(timezone),
	}, nil
}

// WorldConfig is the world server's configuration: its own game port, and
// the realm server's comm port and address to answer keepalive pings on.
type WorldConfig struct {
	GamePort     int
	RealmCommPort int
	RealmAddress string
}

// LoadWorldConfig reads [net].game_port, [realm].comm_port, and
// [realm].address from path.
func LoadWorldConfig(path string) (WorldConfig, error) {
	f, err := ini.Load(path)
	if err != nil {
		return WorldConfig{}, fmt.Errorf("config: loading %s: %w", path, err)
	}

	gamePort, err := f.Section("net").Key("game_port").Int()
	if err != nil {
		return WorldConfig{}, fmt.Errorf("config: [net].game_port: %w", err)
	}
	commPort, err := f.Section("realm").Key("comm_port").Int()
	if err != nil {
		return WorldConfig{}, fmt.Errorf("config: [realm].comm_port: %w", err)
	}
	address := f.Section("realm").Key("address").String()

	return WorldConfig{
		GamePort:      gamePort,
		RealmCommPort: commPort,
		RealmAddress:  address,
	}, nil
}
