// Package srp implements the server side of the pre-RFC-5054 SRP6a variant
// spoken by the 1.12-era WoW client: k is the fixed constant 3 (not
// H(N,g)), the hash is SHA-1, and every integer that crosses the wire is
// little-endian while every integer fed to the arithmetic layer is
// big-endian. internal/bignum.Int is the only place that boundary is
// crossed.
//
// This mirrors the shape of a conventional SRP6 library (see e.g.
// github.com/tomsons/go-srp): a constructor, a per-session struct, and two
// request/response methods corresponding to the two round trips of the
// protocol. It differs from that shape in the places the legacy client
// requires: k is fixed rather than derived, and the session carries
// exactly the fields spec'd for this wire protocol rather than a generic
// password-verifier abstraction.
package srp

import (
	"crypto/rand"
	"crypto/sha1"
	"fmt"
	"io"

	"github.com/legacyrealm/realmd/internal/bignum"
	"github.com/legacyrealm/realmd/internal/byteutil"
	"github.com/legacyrealm/realmd/internal/protoerr"
)

// Fixed group parameters for this build of the client (spec.md §6).
const (
	G uint64 = 7
	K uint64 = 3
)

// NWire is the 32-byte safe prime, little-endian as it appears on the wire.
var NWire = [32]byte{
	0x89, 0x4B, 0x64, 0x5E, 0x89, 0xE1, 0x53, 0x5B,
	0xBD, 0xAD, 0x5B, 0x8B, 0x29, 0x06, 0x50, 0x53,
	0x08, 0x01, 0xB1, 0x8E, 0xBF, 0xBF, 0x5E, 0x8F,
	0xAB, 0x3C, 0x82, 0x87, 0x2A, 0x3E, 0x9B, 0xB7,
}

// GByte is the single-byte wire encoding of the generator.
var GByte = [1]byte{byte(G)}

const (
	saltSize     = 32
	pwHashSize   = 20
	ephemSize    = 32
	sessionKeySz = 40
	proofSize    = 20
	usernameMax  = 20 // fixed field width; spec.md §9 rejects len(username) >= 20
)

// Status is the SRP session's position in its two-round-trip lifecycle.
type Status int

const (
	StatusInit Status = iota
	StatusChallengeSent
	StatusProofOK
	StatusFailed
)

var n = bignum.FromLE(NWire[:])
var g = bignum.FromUint64(G)
var k = bignum.FromUint64(K)

// Session holds the per-connection SRP6 state. Create with New; the zero
// value is not valid. A Session is mutated by exactly one goroutine at a
// time (the owning connection's handler), per spec.md §5.
type Session struct {
	rng io.Reader

	status Status

	username []byte // raw as received, up to usernameMax-1 bytes, uppercase by convention
	salt     [saltSize]byte
	pwHash   [pwHashSize]byte

	v bignum.Int
	b bignum.Int

	bWire [ephemSize]byte // server public ephemeral B, little-endian wire form
	aWire [ephemSize]byte // client public ephemeral A, as received

	sWire [ephemSize]byte // premaster secret S, little-endian wire form
	kWire [sessionKeySz]byte

	m1Expected [proofSize]byte
	m2         [proofSize]byte
}

// Option configures a Session at construction.
type Option func(*Session)

// WithRandSource overrides the source of randomness used to draw the
// server's private ephemeral b. Production code should never call this;
// it exists so tests can supply a deterministic vector (spec.md §9: "The
// rewrite MUST use the RNG; the fixed vector is for tests only").
func WithRandSource(r io.Reader) Option {
	return func(s *Session) { s.rng = r }
}

// New creates an empty Session in StatusInit.
func New(opts ...Option) *Session {
	s := &Session{rng: rand.Reader, status: StatusInit}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Status returns the session's current lifecycle state.
func (s *Session) Status() Status { return s.status }

// ChallengeResult is returned by ProcessChallenge for the caller to encode
// into an RS_SERVER_LOGON_CHALLENGE packet.
type ChallengeResult struct {
	B    [ephemSize]byte
	G    byte
	N    [32]byte
	Salt [saltSize]byte
}

// ProcessChallenge computes the server's public ephemeral B from the
// account's salt and password hash, and moves the session from StatusInit
// to StatusChallengeSent.
//
// username is the raw username bytes as received on the wire (ASCII,
// uppercase by client convention); it is retained for the M1 computation
// in ProcessProof and must be shorter than usernameMax to fit the fixed
// field spec.md §9 calls out as otherwise ambiguous.
func (s *Session) ProcessChallenge(username []byte, pwHash [pwHashSize]byte, salt [saltSize]byte) (ChallengeResult, error) {
	if s.status != StatusInit {
		return ChallengeResult{}, fmt.Errorf("srp: process challenge: %w", protoerr.ErrInvalidState)
	}
	if len(username) >= usernameMax {
		return ChallengeResult{}, protoerr.ErrUsernameTooLong
	}

	s.username = append([]byte(nil), username...)
	s.salt = salt
	s.pwHash = pwHash

	// x = H(salt || pwHash), interpreted little-endian.
	xh := sha1Sum(salt[:], pwHash[:])
	x := bignum.FromLE(xh[:])

	// v = g^x mod N
	s.v = bignum.ModExp(g, x, n)

	// b = 20 random bytes, little-endian
	bBytes := make([]byte, pwHashSize)
	if _, err := io.ReadFull(s.rng, bBytes); err != nil {
		return ChallengeResult{}, fmt.Errorf("srp: reading random ephemeral: %w", err)
	}
	s.b = bignum.FromLE(bBytes)

	// B = (k*v + g^b) mod N
	gb := bignum.ModExp(g, s.b, n)
	B := bignum.ModMulAdd(k, s.v, gb, n)
	copy(s.bWire[:], B.ToLE(ephemSize))

	s.status = StatusChallengeSent

	return ChallengeResult{
		B:    s.bWire,
		G:    byte(G),
		N:    NWire,
		Salt: s.salt,
	}, nil
}

// ProofResult is returned by ProcessProof for the caller to verify against
// the client's submitted M1 and to encode a reply.
type ProofResult struct {
	M1Expected [proofSize]byte
	M2         [proofSize]byte
	K          [sessionKeySz]byte
}

// ProcessProof computes the shared session key and expected proof from the
// client's public ephemeral A. It requires the session to be in
// StatusChallengeSent and moves it to StatusProofOK on success.
func (s *Session) ProcessProof(aWire [ephemSize]byte) (ProofResult, error) {
	if s.status != StatusChallengeSent {
		return ProofResult{}, fmt.Errorf("srp: process proof: %w", protoerr.ErrInvalidState)
	}

	A := bignum.FromLE(aWire[:])
	if bignum.Mod(A, n).IsZero() {
		s.status = StatusFailed
		return ProofResult{}, protoerr.ErrInvalidA
	}
	s.aWire = aWire

	// u = H(A || B), little-endian
	uh := sha1Sum(aWire[:], s.bWire[:])
	u := bignum.FromLE(uh[:])
	if u.IsZero() {
		s.status = StatusFailed
		return ProofResult{}, protoerr.ErrInvalidU
	}

	// S = (A * v^u)^b mod N
	vu := bignum.ModExp(s.v, u, n)
	avu := bignum.ModMul(A, vu, n)
	S := bignum.ModExp(avu, s.b, n)
	copy(s.sWire[:], S.ToLE(ephemSize))

	// K = combine(H(S_even), H(S_odd))
	sEven, sOdd, err := byteutil.Split(s.sWire[:])
	if err != nil {
		// sWire is always 32 bytes wide; Split cannot fail here.
		return ProofResult{}, fmt.Errorf("srp: splitting premaster secret: %w", err)
	}
	hEven := sha1Sum(sEven)
	hOdd := sha1Sum(sOdd)
	kBytes, err := byteutil.Combine(hEven[:], hOdd[:])
	if err != nil {
		return ProofResult{}, fmt.Errorf("srp: combining session key halves: %w", err)
	}
	copy(s.kWire[:], kBytes)

	// M1 = H( (H(N) xor H(g)) || H(username_trimmed) || salt || A || B || K )
	nHash := sha1Sum(NWire[:])
	gHash := sha1Sum(GByte[:])
	ngXor := xorBytes(nHash[:], gHash[:])
	userTrimmed := trimAtNUL(s.username)
	userHash := sha1Sum(userTrimmed)

	m1 := sha1Sum(ngXor, userHash[:], s.salt[:], s.aWire[:], s.bWire[:], s.kWire[:])
	s.m1Expected = m1

	// M2 = H(A || M1 || K)
	s.m2 = sha1Sum(s.aWire[:], s.m1Expected[:], s.kWire[:])

	s.status = StatusProofOK

	return ProofResult{
		M1Expected: s.m1Expected,
		M2:         s.m2,
		K:          s.kWire,
	}, nil
}

func sha1Sum(parts ...[]byte) [proofSize]byte {
	h := sha1.New()
	for _, p := range parts {
		h.Write(p)
	}
	var out [proofSize]byte
	copy(out[:], h.Sum(nil))
	return out
}

func xorBytes(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}

func trimAtNUL(b []byte) []byte {
	for i, c := range b {
		if c == 0 {
			return b[:i]
		}
	}
	return b
}
