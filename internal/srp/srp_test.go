package srp

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legacyrealm/realmd/internal/bignum"
	"github.com/legacyrealm/realmd/internal/byteutil"
)

// clientComputeProof plays the client side of the protocol independently of
// package srp's own internals, so TestFullHandshakeAgreesOnProofs checks
// the server engine against a second implementation rather than against
// itself.
func clientComputeProof(t *testing.T, username, password []byte, salt [32]byte, challenge ChallengeResult) (aWire [32]byte, m1 [20]byte, m2Expected [20]byte) {
	t.Helper()

	gInt := bignum.FromUint64(G)
	kInt := bignum.FromUint64(K)
	nInt := bignum.FromLE(NWire[:])

	// a: client private ephemeral, A = g^a mod N
	aBytes := make([]byte, 20)
	_, err := io.ReadFull(rand.Reader, aBytes)
	require.NoError(t, err)
	a := bignum.FromLE(aBytes)

	A := bignum.ModExp(gInt, a, nInt)
	copy(aWire[:], A.ToLE(32))

	// x = H(salt || pwHash); pwHash = H(upper(username) || ":" || upper(password))
	pwHash := sha1Sum(concatUpperColon(username, password))
	x := bignum.FromLE(sha1Sum(salt[:], pwHash[:])[:])

	// u = H(A || B)
	u := bignum.FromLE(sha1Sum(aWire[:], challenge.B[:])[:])

	// v = g^x mod N
	v := bignum.ModExp(gInt, x, nInt)

	// S = (B - k*v) ^ (a + u*x) mod N
	kv := bignum.ModMul(kInt, v, nInt)
	Bint := bignum.FromLE(challenge.B[:])
	base := bignum.ModSub(Bint, kv, nInt)
	ux := bignum.ModMul(u, x, nInt)
	exp := bignum.Add(a, ux)
	S := bignum.ModExp(base, exp, nInt)

	var sWire [32]byte
	copy(sWire[:], S.ToLE(32))

	sEven, sOdd, err := byteutil.Split(sWire[:])
	require.NoError(t, err)
	hEven := sha1Sum(sEven)
	hOdd := sha1Sum(sOdd)
	kBytes, err := byteutil.Combine(hEven[:], hOdd[:])
	require.NoError(t, err)
	var kWire [40]byte
	copy(kWire[:], kBytes)

	nHash := sha1Sum(NWire[:])
	gHash := sha1Sum(GByte[:])
	ngXor := make([]byte, 20)
	for i := range ngXor {
		ngXor[i] = nHash[i] ^ gHash[i]
	}
	userHash := sha1Sum(trimAtNUL(username))
	m1 = sha1Sum(ngXor, userHash[:], salt[:], aWire[:], challenge.B[:], kWire[:])
	m2Expected = sha1Sum(aWire[:], m1[:], kWire[:])
	return aWire, m1, m2Expected
}

func concatUpperColon(username, password []byte) []byte {
	out := append([]byte(nil), toUpper(username)...)
	out = append(out, ':')
	out = append(out, toUpper(password)...)
	return out
}

func toUpper(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return out
}

func TestFullHandshakeAgreesOnProofs(t *testing.T) {
	username := []byte("PLAYER")
	password := []byte("PLAYER")
	var salt [32]byte
	_, err := io.ReadFull(rand.Reader, salt[:])
	require.NoError(t, err)

	pwHash := sha1Sum(concatUpperColon(username, password))

	s := New()
	challenge, err := s.ProcessChallenge(username, pwHash, salt)
	require.NoError(t, err)
	assert.Equal(t, StatusChallengeSent, s.Status())

	aWire, m1Client, m2Expected := clientComputeProof(t, username, password, salt, challenge)

	result, err := s.ProcessProof(aWire)
	require.NoError(t, err)
	assert.Equal(t, StatusProofOK, s.Status())

	assert.Equal(t, m1Client, result.M1Expected)
	assert.Equal(t, m2Expected, result.M2)
}

func TestProcessProofRejectsZeroA(t *testing.T) {
	s := New()
	var salt [32]byte
	var pwHash [20]byte
	_, err := s.ProcessChallenge([]byte("PLAYER"), pwHash, salt)
	require.NoError(t, err)

	var zero [32]byte
	_, err = s.ProcessProof(zero)
	require.Error(t, err)
	assert.Equal(t, StatusFailed, s.Status())
}

func TestProcessProofRejectsAEqualToN(t *testing.T) {
	s := New()
	var salt [32]byte
	var pwHash [20]byte
	_, err := s.ProcessChallenge([]byte("PLAYER"), pwHash, salt)
	require.NoError(t, err)

	_, err = s.ProcessProof(NWire)
	require.Error(t, err)
}

func TestProcessProofBeforeChallengeIsInvalidState(t *testing.T) {
	s := New()
	var a [32]byte
	_, err := s.ProcessProof(a)
	require.Error(t, err)
}

func TestProcessChallengeTwiceIsInvalidState(t *testing.T) {
	s := New()
	var salt [32]byte
	var pwHash [20]byte
	_, err := s.ProcessChallenge([]byte("PLAYER"), pwHash, salt)
	require.NoError(t, err)

	_, err = s.ProcessChallenge([]byte("PLAYER"), pwHash, salt)
	require.Error(t, err)
}

func TestProcessChallengeRejectsLongUsername(t *testing.T) {
	s := New()
	var salt [32]byte
	var pwHash [20]byte
	longUsername := make([]byte, 20)
	for i := range longUsername {
		longUsername[i] = 'A'
	}
	_, err := s.ProcessChallenge(longUsername, pwHash, salt)
	require.Error(t, err)
}

func TestUsernameWithEmbeddedNULOnlyHashesPrefix(t *testing.T) {
	withNUL := []byte("PLAYER\x00PADDING")
	withoutNUL := []byte("PLAYER")

	assert.Equal(t, withoutNUL, trimAtNUL(withNUL))
}

func TestTwoDistinctPasswordsGiveDifferentVerifiers(t *testing.T) {
	var salt [32]byte
	pw1 := sha1Sum(concatUpperColon([]byte("PLAYER"), []byte("alpha")))
	pw2 := sha1Sum(concatUpperColon([]byte("PLAYER"), []byte("bravo")))

	s1 := New()
	_, err := s1.ProcessChallenge([]byte("PLAYER"), pw1, salt)
	require.NoError(t, err)

	s2 := New()
	_, err = s2.ProcessChallenge([]byte("PLAYER"), pw2, salt)
	require.NoError(t, err)

	assert.NotEqual(t, s1.v.ToLE(32), s2.v.ToLE(32))
}

func TestWrongPasswordYieldsProofMismatch(t *testing.T) {
	username := []byte("PLAYER")
	var salt [32]byte
	_, err := io.ReadFull(rand.Reader, salt[:])
	require.NoError(t, err)

	// The server's verifier is derived from the account's real password;
	// a client that computes its proof from a different password must
	// disagree with the server on M1 — this is what the connection-level
	// handler in internal/session compares with a constant-time check.
	serverPwHash := sha1Sum(concatUpperColon(username, []byte("correct-horse")))

	server := New()
	challenge, err := server.ProcessChallenge(username, serverPwHash, salt)
	require.NoError(t, err)

	aWireWrong, m1FromWrongPassword, _ := clientComputeProof(t, username, []byte("wrong-horse"), salt, challenge)
	resultWrong, err := server.ProcessProof(aWireWrong)
	require.NoError(t, err)
	assert.NotEqual(t, m1FromWrongPassword, resultWrong.M1Expected)

	server2 := New()
	challenge2, err := server2.ProcessChallenge(username, serverPwHash, salt)
	require.NoError(t, err)
	aWireRight, m1FromCorrectPassword, _ := clientComputeProof(t, username, []byte("correct-horse"), salt, challenge2)
	resultRight, err := server2.ProcessProof(aWireRight)
	require.NoError(t, err)
	assert.Equal(t, m1FromCorrectPassword, resultRight.M1Expected)
}

func hexBytes(t *testing.T, s string, width int) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	require.Len(t, b, width)
	return b
}

func hexArray20(t *testing.T, s string) [20]byte {
	var out [20]byte
	copy(out[:], hexBytes(t, s, 20))
	return out
}

func hexArray32(t *testing.T, s string) [32]byte {
	var out [32]byte
	copy(out[:], hexBytes(t, s, 32))
	return out
}

// TestKnownGoodVector pins the fixed-b scenario from spec.md §8 ("Known-good
// vector"): username PLAYER, the given pwHash and salt, and the server's
// private ephemeral b fed in through WithRandSource instead of crypto/rand.
// The literal scenario text does not pin a client ephemeral A, so one was
// derived once offline (a = SHA1("srp6-scenario-1-client-ephemeral-a")) to
// complete the chain; every other value below follows deterministically
// from the scenario's own username/pwHash/salt/b.
func TestKnownGoodVector(t *testing.T) {
	username := []byte("PLAYER")
	pwHash := hexArray20(t, "3ce8a96d17c5ae88a30681024e86279f1a38c041")
	salt := hexArray32(t, "add03a31d271144675f2707e5026b6d2f1865999760250aab945e09edd2aa345")
	bBytes := hexBytes(t, "1bf065d14c03bb13d2c08be3f3dfb824e44ab65b", 20)

	wantB := hexArray32(t, "e7c893995aefa5b5472b006f44bc4121987385ffb3d2b82907b7aee40fa004a3")
	wantV := hexBytes(t, "b91b7fcfa9fe76f2e884d04987dd2dc481985a4ab7af193c74ae884db40c259d", 32)

	clientA := hexArray32(t, "5ce9f72ea1259404845bf129d3c77d7bb6c3bb87aa04d09c5e924685d1bb6178")
	wantU := hexBytes(t, "836f97bb39c208009f1b23f336545935997faa66", 20)
	wantS := hexBytes(t, "981e8fb76fb28a93d795c0a87f4b12ab58d664fe61f47b587702e3dbcd6d4d88", 32)
	wantK := hexBytes(t, "15ee9d032c56d5c5873b0d1d04f0779d710aedfa684d67d8f0c43a55520bab7ec48efad43944df45", 40)
	wantM1 := hexArray20(t, "5ac1cf87e6aed219747f5a2cc836582f3117bfa2")
	wantM2 := hexArray20(t, "41c95083e583cac313dcbb5aeae042270f6c075d")

	s := New(WithRandSource(bytes.NewReader(bBytes)))

	challenge, err := s.ProcessChallenge(username, pwHash, salt)
	require.NoError(t, err)
	assert.Equal(t, wantB, challenge.B)
	assert.Equal(t, wantV, s.v.ToLE(32))

	gotU := sha1Sum(clientA[:], challenge.B[:])
	assert.Equal(t, wantU, gotU[:])

	result, err := s.ProcessProof(clientA)
	require.NoError(t, err)
	assert.Equal(t, wantS, s.sWire[:])
	assert.Equal(t, wantK, result.K[:])
	assert.Equal(t, wantM1, result.M1Expected)
	assert.Equal(t, wantM2, result.M2)
}
