// Package wire encodes and decodes the fixed-layout packets exchanged
// between the 1.12 WoW client and the realm server (spec.md §4.3, §6).
//
// Decoders validate only that the packet's own announced lengths fit
// within the buffer; they never require the buffer to be exactly the
// expected size, since the client is known to send trailing padding.
// Fields documented as "unk" in spec.md §6 are skipped on decode and
// written as zero on encode unless otherwise noted.
package wire

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/legacyrealm/realmd/internal/protoerr"
)

// Opcodes, first byte of every frame.
const (
	OpLogonChallenge byte = 0x00
	OpLogonProof     byte = 0x01
	OpRealmList      byte = 0x10
	OpServerPing     byte = 0xFF // inter-server keepalive, see internal/keepalive
)

// ClientLogonChallenge is RS_CLIENT_LOGON_CHALLENGE (inbound, opcode 0x00).
// Only Username is consumed by the core; every other field is parsed to
// validate frame shape and then discarded.
type ClientLogonChallenge struct {
	Username []byte
}

// DecodeClientLogonChallenge parses an RS_CLIENT_LOGON_CHALLENGE frame.
//
//	cmd u8 | error u8 | size u16LE | gamename[4] | v1 u8 | v2 u8 | v3 u8 |
//	build u16LE | platform[4] | os[4] | country[4] | tz_bias u32LE | ip[4] |
//	I_len u8 | I[I_len]
func DecodeClientLogonChallenge(buf []byte) (ClientLogonChallenge, error) {
	const fixedHeader = 1 + 1 + 2 + 4 + 1 + 1 + 1 + 2 + 4 + 4 + 4 + 4 + 4 + 1
	if len(buf) < fixedHeader {
		return ClientLogonChallenge{}, fmt.Errorf("wire: logon challenge: %w", protoerr.ErrMalformedFrame)
	}
	if buf[0] != OpLogonChallenge {
		return ClientLogonChallenge{}, fmt.Errorf("wire: logon challenge: wrong opcode: %w", protoerr.ErrMalformedFrame)
	}
	iLen := int(buf[fixedHeader-1])
	if len(buf) < fixedHeader+iLen {
		return ClientLogonChallenge{}, fmt.Errorf("wire: logon challenge: I_len overruns buffer: %w", protoerr.ErrMalformedFrame)
	}
	username := make([]byte, iLen)
	copy(username, buf[fixedHeader:fixedHeader+iLen])
	return ClientLogonChallenge{Username: username}, nil
}

// ServerLogonChallenge is RS_SERVER_LOGON_CHALLENGE (outbound, opcode 0x00).
type ServerLogonChallenge struct {
	B    [32]byte
	G    byte
	N    [32]byte
	Salt [32]byte
}

// EncodeServerLogonChallenge serializes an RS_SERVER_LOGON_CHALLENGE frame.
//
//	cmd=0 | error=0 | unk=0 | B[32] | g_len=1 | g | N_len=32 | N[32] | s[32] |
//	crc_salt[16, random] | unk=0
func EncodeServerLogonChallenge(p ServerLogonChallenge) ([]byte, error) {
	out := make([]byte, 0, 3+32+1+1+1+32+32+16+1)
	out = append(out, OpLogonChallenge, 0x00, 0x00)
	out = append(out, p.B[:]...)
	out = append(out, 0x01, p.G)
	out = append(out, 0x20)
	out = append(out, p.N[:]...)
	out = append(out, p.Salt[:]...)

	crcSalt := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, crcSalt); err != nil {
		return nil, fmt.Errorf("wire: generating crc salt: %w", err)
	}
	out = append(out, crcSalt...)
	out = append(out, 0x00)
	return out, nil
}

// ClientLogonProof is RS_CLIENT_LOGON_PROOF (inbound, opcode 0x01). Only A
// and M1 are consumed by the core.
type ClientLogonProof struct {
	A  [32]byte
	M1 [20]byte
}

// DecodeClientLogonProof parses an RS_CLIENT_LOGON_PROOF frame.
//
//	cmd | A[32] | M1[20] | crc_hash[20] | number_of_keys u8 | unk u8
func DecodeClientLogonProof(buf []byte) (ClientLogonProof, error) {
	const size = 1 + 32 + 20 + 20 + 1 + 1
	if len(buf) < size {
		return ClientLogonProof{}, fmt.Errorf("wire: logon proof: %w", protoerr.ErrMalformedFrame)
	}
	if buf[0] != OpLogonProof {
		return ClientLogonProof{}, fmt.Errorf("wire: logon proof: wrong opcode: %w", protoerr.ErrMalformedFrame)
	}
	var p ClientLogonProof
	copy(p.A[:], buf[1:33])
	copy(p.M1[:], buf[33:53])
	return p, nil
}

// ServerLogonProof is RS_SERVER_LOGON_PROOF (outbound, opcode 0x01).
type ServerLogonProof struct {
	M2 [20]byte
}

// EncodeServerLogonProof serializes an RS_SERVER_LOGON_PROOF frame.
//
//	cmd=1 | error=0 | M2[20] | accountflags u32 = 0
func EncodeServerLogonProof(p ServerLogonProof) []byte {
	out := make([]byte, 0, 2+20+4)
	out = append(out, OpLogonProof, 0x00)
	out = append(out, p.M2[:]...)
	out = append(out, 0x00, 0x00, 0x00, 0x00)
	return out
}

// DecodeClientRealmList validates an RS_CLIENT_REALM_LIST frame: opcode
// 0x10 followed by four bytes that are ignored.
func DecodeClientRealmList(buf []byte) error {
	if len(buf) < 1 || buf[0] != OpRealmList {
		return fmt.Errorf("wire: realm list request: %w", protoerr.ErrMalformedFrame)
	}
	return nil
}

// RealmEntry is one record in the realm registry snapshot, in the shape
// the wire encoder needs (spec.md §4.5).
type RealmEntry struct {
	Type            byte
	IsLocked        byte
	Color           byte
	Name            string
	Address         string
	GamePort        int
	Population      float32
	CharacterCount  byte
	Timezone        byte
}

// EncodeServerRealmList serializes an RS_SERVER_REALM_LIST frame from an
// ordered list of realms.
//
//	cmd=0x10 | packet_size u16LE | unk u32=0 | num_realms u16LE |
//	{ per realm: type | isLocked | unk | color | name ASCIIZ |
//	  "address:game_port" ASCIIZ | population f32LE | characters_count |
//	  timezone | unk } | 0x02 0x00
//
// packet_size counts bytes from the unk u32 field to the end.
func EncodeServerRealmList(realms []RealmEntry) []byte {
	var body []byte
	body = append(body, 0, 0, 0, 0) // unk u32 = 0

	numRealms := make([]byte, 2)
	binary.LittleEndian.PutUint16(numRealms, uint16(len(realms)))
	body = append(body, numRealms...)

	for _, r := range realms {
		body = append(body, r.Type, r.IsLocked, 0x00, r.Color)
		body = append(body, []byte(r.Name)...)
		body = append(body, 0x00)
		addr := fmt.Sprintf("%s:%d", r.Address, r.GamePort)
		body = append(body, []byte(addr)...)
		body = append(body, 0x00)

		popBits := math.Float32bits(r.Population)
		popBuf := make([]byte, 4)
		binary.LittleEndian.PutUint32(popBuf, popBits)
		body = append(body, popBuf...)

		body = append(body, r.CharacterCount, r.Timezone, 0x00)
	}

	body = append(body, 0x02, 0x00) // trailer

	packetSize := make([]byte, 2)
	binary.LittleEndian.PutUint16(packetSize, uint16(len(body)))

	out := make([]byte, 0, 1+2+len(body))
	out = append(out, OpRealmList)
	out = append(out, packetSize...)
	out = append(out, body...)
	return out
}
